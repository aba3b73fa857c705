package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/steveobbayi/ardour/triggerbox"
)

// env is the console's handle onto a running box, grounded on the pack's
// repl env: a small struct carrying whatever commands need, with no
// behavior of its own beyond field access.
type env struct {
	box      *triggerbox.TriggerBox
	registry *triggerbox.RegionRegistry
	savePath string
}

type command struct {
	name  string
	run   func(e *env, args []string) (string, error)
	arity int // -n means len(args) must be <= n
}

var commands = []command{
	{"bang", bangCommand, 1},
	{"unbang", unbangCommand, 1},
	{"stop", stopCommand, 1},
	{"stopall", stopAllCommand, 0},
	{"load", loadCommand, 2},
	{"set", setCommand, 3},
	{"save", saveCommand, -1},
	{"open", openCommand, -1},
	{"list", listCommand, 0},
}

// eval looks up line's command by name and runs it, matching the pack's
// "split on whitespace, find by name, check arity" dispatch.
func (e *env) eval(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if cmd.arity < 0 {
			if len(args) > -cmd.arity {
				return "", fmt.Errorf("%s: want at most %d arguments, got %d", name, -cmd.arity, len(args))
			}
		} else if len(args) != cmd.arity {
			return "", fmt.Errorf("%s: want %d arguments, got %d", name, cmd.arity, len(args))
		}
		return cmd.run(e, args)
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a valid slot index: %s", s)
	}
	return n, nil
}

func bangCommand(e *env, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	t := e.box.Trigger(slot)
	if t == nil {
		return "", triggerbox.ErrInvalidSlot
	}
	t.Bang()
	return "", nil
}

func unbangCommand(e *env, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	t := e.box.Trigger(slot)
	if t == nil {
		return "", triggerbox.ErrInvalidSlot
	}
	t.Unbang()
	return "", nil
}

func stopCommand(e *env, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	t := e.box.Trigger(slot)
	if t == nil {
		return "", triggerbox.ErrInvalidSlot
	}
	t.Stop(-1)
	return "", nil
}

func stopAllCommand(e *env, args []string) (string, error) {
	e.box.RequestStopAll()
	return "", nil
}

// load <slot> <path> decodes a WAV file and binds it to slot.
func loadCommand(e *env, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	path := args[1]
	region, err := triggerbox.LoadFileRegion(path, "")
	if err != nil {
		return "", err
	}
	e.registry.Put(region)
	if err := e.box.SetRegion(slot, region); err != nil {
		return "", err
	}
	return fmt.Sprintf("loaded %s into slot %d", region.Name(), slot), nil
}

// set <slot> <prop> <value> edits one of the properties the persisted
// state tree also knows about: legato, launch-style, follow-action-0,
// follow-action-1, follow-action-probability, quantization-beats.
func setCommand(e *env, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	t := e.box.Trigger(slot)
	if t == nil {
		return "", triggerbox.ErrInvalidSlot
	}
	prop, value := args[1], args[2]
	switch prop {
	case "legato":
		t.SetLegato(value == "true" || value == "1" || value == "on")
	case "launch-style":
		style, err := parseLaunchStyle(value)
		if err != nil {
			return "", err
		}
		t.SetLaunchStyle(style)
	case "follow-action-0", "follow-action-1":
		action, err := parseFollowAction(value)
		if err != nil {
			return "", err
		}
		idx := 0
		if prop == "follow-action-1" {
			idx = 1
		}
		t.SetFollowAction(idx, action)
	case "follow-action-probability":
		pct, err := strconv.Atoi(value)
		if err != nil {
			return "", err
		}
		t.SetFollowActionProbability(pct)
	case "quantization-beats":
		beats, err := strconv.Atoi(value)
		if err != nil {
			return "", err
		}
		if err := t.SetQuantization(triggerbox.BBTOffset{Beats: beats}); err != nil {
			return "", err
		}
	case "name":
		t.SetName(value)
	default:
		return "", fmt.Errorf("unknown property: %s", prop)
	}
	return "", nil
}

func parseLaunchStyle(s string) (triggerbox.LaunchStyle, error) {
	switch s {
	case "one-shot":
		return triggerbox.OneShot, nil
	case "gate":
		return triggerbox.Gate, nil
	case "toggle":
		return triggerbox.Toggle, nil
	case "repeat":
		return triggerbox.Repeat, nil
	}
	return 0, fmt.Errorf("unknown launch style: %s", s)
}

func parseFollowAction(s string) (triggerbox.FollowAction, error) {
	switch s {
	case "stop":
		return triggerbox.FollowStop, nil
	case "again":
		return triggerbox.FollowAgain, nil
	case "next":
		return triggerbox.FollowNextTrigger, nil
	case "prev":
		return triggerbox.FollowPrevTrigger, nil
	case "first":
		return triggerbox.FollowFirstTrigger, nil
	case "last":
		return triggerbox.FollowLastTrigger, nil
	case "any":
		return triggerbox.FollowAnyTrigger, nil
	case "other":
		return triggerbox.FollowOtherTrigger, nil
	case "queued":
		return triggerbox.FollowQueuedTrigger, nil
	}
	return 0, fmt.Errorf("unknown follow action: %s", s)
}

// save [path] writes the box's current state to path, or to the path it
// was last opened/saved with if path is omitted.
func saveCommand(e *env, args []string) (string, error) {
	path := e.savePath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", fmt.Errorf("save: no path given and none remembered")
	}
	data, err := e.box.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	e.savePath = path
	return fmt.Sprintf("saved to %s", path), nil
}

func openCommand(e *env, args []string) (string, error) {
	path := e.savePath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", fmt.Errorf("open: no path given and none remembered")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := e.box.Unmarshal(data, e.registry); err != nil {
		return "", err
	}
	e.savePath = path
	return fmt.Sprintf("loaded %s", path), nil
}

func listCommand(e *env, args []string) (string, error) {
	var b strings.Builder
	for i := 0; i < e.box.NumTriggers(); i++ {
		t := e.box.Trigger(i)
		region := "-"
		if r := t.Region(); r != nil {
			region = r.Name()
		}
		fmt.Fprintf(&b, "%2d  %-10s  %-12s  %-8s  %s\n", i, t.Name(), t.LaunchStyle(), t.State(), region)
	}
	return b.String(), nil
}
