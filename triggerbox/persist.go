package triggerbox

import "gopkg.in/yaml.v3"

// TriggerBoxState is the persisted, tree-structured form of a TriggerBox
// (spec §6). The field names mirror the ones used in the original
// persisted tree, and double as the Props keys each Trigger registers
// (see trigger.go), except that the single quantization property is
// stored as quantization-bars/-beats/-ticks, so State/LoadState and the
// console's `set` command speak the same vocabulary.
type TriggerBoxState struct {
	Type     string         `yaml:"type"`
	DataType string         `yaml:"data-type"`
	Triggers []TriggerState `yaml:"Triggers"`
}

type TriggerState struct {
	Index               int    `yaml:"index"`
	Name                string `yaml:"name"`
	Legato              bool   `yaml:"legato"`
	LaunchStyle         string `yaml:"launch-style"`
	FollowAction0       string `yaml:"follow-action-0"`
	FollowAction1       string `yaml:"follow-action-1"`
	FollowActionPercent int    `yaml:"follow-action-probability"`
	QuantizationBars    int    `yaml:"quantization-bars"`
	QuantizationBeats   int    `yaml:"quantization-beats"`
	QuantizationTicks   int    `yaml:"quantization-ticks"`
	Region              string `yaml:"region,omitempty"`

	// AudioTrigger-only fields.
	Start  int64 `yaml:"start,omitempty"`
	Length int64 `yaml:"length,omitempty"`
}

var dataTypeNames = map[DataType]string{DataAudio: "audio", DataMIDI: "midi"}
var launchStyleNames = map[LaunchStyle]string{
	OneShot: "one-shot", Gate: "gate", Toggle: "toggle", Repeat: "repeat",
}
var followActionNames = map[FollowAction]string{
	FollowStop: "stop", FollowAgain: "again", FollowNextTrigger: "next",
	FollowPrevTrigger: "prev", FollowFirstTrigger: "first", FollowLastTrigger: "last",
	FollowAnyTrigger: "any", FollowOtherTrigger: "other", FollowQueuedTrigger: "queued",
}

func reverseLookup[K comparable](m map[K]string, name string, fallback K) K {
	for k, v := range m {
		if v == name {
			return k
		}
	}
	return fallback
}

// State builds a TriggerBoxState snapshot under the trigger array's
// reader lock, matching the "structural change only between playback
// sessions" rule (spec §5): a snapshot taken mid-playback is still safe
// to read, since it only reads, never mutates.
func (box *TriggerBox) State() TriggerBoxState {
	box.mu.RLock()
	defer box.mu.RUnlock()

	state := TriggerBoxState{Type: "triggerbox", DataType: dataTypeNames[box.dataType]}
	for _, t := range box.triggers {
		a0, a1, pct := t.FollowAction()
		q := t.Quantization()
		ts := TriggerState{
			Index:               t.index,
			Name:                t.Name(),
			Legato:              t.Legato(),
			LaunchStyle:         launchStyleNames[t.LaunchStyle()],
			FollowAction0:       followActionNames[a0],
			FollowAction1:       followActionNames[a1],
			FollowActionPercent: pct,
			QuantizationBars:    q.Bars,
			QuantizationBeats:   q.Beats,
			QuantizationTicks:   q.Ticks,
			Start:               t.startOffset,
			Length:              t.clip.DataLength,
		}
		if r := t.Region(); r != nil {
			ts.Region = r.ID()
		}
		state.Triggers = append(state.Triggers, ts)
	}
	return state
}

// Marshal serializes the box's current state to YAML.
func (box *TriggerBox) Marshal() ([]byte, error) {
	return yaml.Marshal(box.State())
}

// LoadState reconstructs trigger configuration from state in index order,
// resolving regions through registry. An unresolved region id leaves the
// slot unbound rather than failing the whole load (spec §7 UnboundSlot).
func (box *TriggerBox) LoadState(state TriggerBoxState, registry *RegionRegistry) error {
	box.mu.Lock()
	grew := false
	for len(box.triggers) < len(state.Triggers) {
		box.triggers = append(box.triggers, NewAudioTrigger(box, len(box.triggers)))
		grew = true
	}
	triggers := box.triggers
	box.mu.Unlock()
	if grew {
		box.rebuildSnapshot()
	}

	for _, ts := range state.Triggers {
		if ts.Index < 0 || ts.Index >= len(triggers) {
			continue
		}
		t := triggers[ts.Index]
		t.SetName(ts.Name)
		t.SetLegato(ts.Legato)
		t.SetLaunchStyle(reverseLookup(launchStyleNames, ts.LaunchStyle, OneShot))
		t.SetFollowAction(0, reverseLookup(followActionNames, ts.FollowAction0, FollowStop))
		t.SetFollowAction(1, reverseLookup(followActionNames, ts.FollowAction1, FollowStop))
		t.SetFollowActionProbability(ts.FollowActionPercent)
		_ = t.SetQuantization(BBTOffset{Bars: ts.QuantizationBars, Beats: ts.QuantizationBeats, Ticks: ts.QuantizationTicks})

		if ts.Region == "" || registry == nil {
			continue
		}
		if r := registry.Resolve(ts.Region); r != nil {
			if err := t.SetRegion(r); err != nil {
				continue
			}
			if ts.Start != 0 {
				t.SetStart(ts.Start)
			}
			if ts.Length != 0 {
				_ = t.SetLength(ts.Length)
			}
		}
	}
	return nil
}

// Unmarshal parses YAML into a TriggerBoxState and loads it into box.
func (box *TriggerBox) Unmarshal(data []byte, registry *RegionRegistry) error {
	var state TriggerBoxState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return err
	}
	return box.LoadState(state, registry)
}
