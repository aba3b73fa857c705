package triggerbox

// determineNextTrigger implements spec §4.F: roll the follow-action's
// probability to pick which of the two configured actions applies, then
// resolve that action to a slot index (or -1 for "nothing next").
func (box *TriggerBox) determineNextTrigger(current int) int {
	triggers := box.triggersSnapshot()
	runnable := 0
	for _, tr := range triggers {
		if tr.Region() != nil {
			runnable++
		}
	}

	cur := triggers[current]
	a0, a1, probability := cur.FollowAction()
	action := a0
	if box.pcg.Percent() > probability {
		action = a1
	}

	switch action {
	case FollowStop, FollowQueuedTrigger:
		return -1
	case FollowAgain:
		return current
	}

	if runnable <= 1 {
		return current
	}

	n := len(triggers)
	switch action {
	case FollowNextTrigger:
		for i := 1; i <= n; i++ {
			idx := (current + i) % n
			if candidate(triggers[idx]) {
				return idx
			}
		}
	case FollowPrevTrigger:
		for i := 1; i <= n; i++ {
			idx := ((current-i)%n + n) % n
			if candidate(triggers[idx]) {
				return idx
			}
		}
	case FollowFirstTrigger:
		for idx := 0; idx < n; idx++ {
			if candidate(triggers[idx]) {
				return idx
			}
		}
	case FollowLastTrigger:
		for idx := n - 1; idx >= 0; idx-- {
			if candidate(triggers[idx]) {
				return idx
			}
		}
	case FollowAnyTrigger:
		for attempts := 0; attempts < n*4; attempts++ {
			idx := int(box.pcg.Rand(uint32(n)))
			if candidate(triggers[idx]) {
				return idx
			}
		}
		// The random probe above is the common case; this only runs when
		// it missed every live candidate by chance, so I7 still holds.
		for idx := 0; idx < n; idx++ {
			if candidate(triggers[idx]) {
				return idx
			}
		}
	case FollowOtherTrigger:
		for attempts := 0; attempts < n*4; attempts++ {
			idx := int(box.pcg.Rand(uint32(n)))
			if idx != current && candidate(triggers[idx]) {
				return idx
			}
		}
		for i := 1; i < n; i++ {
			idx := (current + i) % n
			if candidate(triggers[idx]) {
				return idx
			}
		}
	}
	return current
}

func candidate(t *Trigger) bool {
	return t.Region() != nil && !t.Active()
}

// prepareNext enqueues the follow-action result for current on the
// implicit queue, per spec §4.F. Called when a trigger transitions out of
// WaitingToStart/WaitingForRetrigger.
func (box *TriggerBox) prepareNext(current int) {
	next := box.determineNextTrigger(current)
	if next < 0 {
		return
	}
	box.queueImplicit(box.triggers[next].Trigger)
}

// peekNextTrigger returns whichever trigger would be popped next
// (explicit queue head, else implicit queue head), without consuming it.
// AudioTrigger.Run uses this to detect the "self repeat via follow-action"
// case described in spec §9's design notes.
func (box *TriggerBox) peekNextTrigger() *Trigger {
	if h, ok := box.explicitQueue.Peek(); ok {
		return h
	}
	if h, ok := box.implicitQueue.Peek(); ok {
		return h
	}
	return nil
}
