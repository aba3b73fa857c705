package triggerbox

import "errors"

// Error kinds returned by control-thread operations. The realtime path
// (Trigger.processStateRequests, AudioTrigger.Run, TriggerBox.Run) never
// returns an error: it degrades instead, per the error handling design
// (silence, drop, or skip).
var (
	// ErrInvalidSlot is returned by TriggerBox.SetRegion when its slot index
	// is out of range. TriggerBox.Trigger returns nil in that case instead.
	ErrInvalidSlot = errors.New("triggerbox: invalid slot index")

	// ErrRegionLoadFailed is returned by SetRegion when the
	// region's sample data could not be read. The slot keeps whatever
	// region it had before the call.
	ErrRegionLoadFailed = errors.New("triggerbox: region load failed")

	// ErrUnsupportedClipType is returned by SetRegion when the box's
	// DataType is not Audio (only audio triggers are implemented).
	ErrUnsupportedClipType = errors.New("triggerbox: unsupported clip type")

	// ErrUnsupportedQuantization is returned (as a warning, not a hard
	// failure -- the quantization is recorded but treated as "off") when
	// Bars != 0 in a requested quantization.
	ErrUnsupportedQuantization = errors.New("triggerbox: bar-level quantization is not implemented")
)
