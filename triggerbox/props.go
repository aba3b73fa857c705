package triggerbox

import (
	"fmt"
	"sync/atomic"
)

// Props stores per-trigger configuration that the control thread writes
// and the audio thread reads, without locks. All properties must be
// registered before any reads take place.
//
// This is the same pattern the rest of the pack uses for device
// parameters (atomic.Value behind a typed setter); here it carries a
// Trigger's launch-style, quantization, legato, follow-action pair,
// probability and name -- the fields that appear, under the same names,
// in the persisted state tree (see persist.go), where quantization is
// split into bars, beats and ticks.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

func (p *Props) Set(key string, value interface{}) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	set := p.setters[key]
	if err := set(value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	var prop atomic.Value
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, set(init, &prop)
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	prop, err := p.Register(key, set, init)
	if err != nil {
		panic(err)
	}
	return prop
}

type setter func(val interface{}, dest *atomic.Value) error

func setString(v interface{}, dest *atomic.Value) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("value is not a string: %v", v)
	}
	dest.Store(s)
	return nil
}

func setBool(v interface{}, dest *atomic.Value) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("value is not a bool: %v", v)
	}
	dest.Store(b)
	return nil
}

func setIntRange(min, max int) setter {
	return func(v interface{}, dest *atomic.Value) error {
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("value is not an int: %v", v)
		}
		if n < min || n > max {
			return fmt.Errorf("value out of range %v-%v: %v", min, max, n)
		}
		dest.Store(n)
		return nil
	}
}

func setLaunchStyle(v interface{}, dest *atomic.Value) error {
	l, ok := v.(LaunchStyle)
	if !ok {
		return fmt.Errorf("value is not a LaunchStyle: %v", v)
	}
	dest.Store(l)
	return nil
}

func setFollowAction(v interface{}, dest *atomic.Value) error {
	f, ok := v.(FollowAction)
	if !ok {
		return fmt.Errorf("value is not a FollowAction: %v", v)
	}
	dest.Store(f)
	return nil
}

func setQuantization(v interface{}, dest *atomic.Value) error {
	q, ok := v.(BBTOffset)
	if !ok {
		return fmt.Errorf("value is not a BBTOffset: %v", v)
	}
	dest.Store(q)
	return nil
}
