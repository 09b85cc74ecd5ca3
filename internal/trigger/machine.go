// Package trigger turns fingertip positions into edge-triggered key presses.
//
// Each key keeps one engaged flag per hand side. A press is emitted only on
// the transition from disengaged to engaged; a fingertip resting inside a
// zone does not repeat the note. A side is re-armed as soon as its fingertip
// is seen outside the zone.
package trigger

import (
	"image"

	"github.com/ayusman/tecla/internal/hand"
	"github.com/ayusman/tecla/internal/keyzone"
)

// Policy decides what happens to a side's engaged keys when that side is
// not detected in a frame.
type Policy int

const (
	// RetainOnLoss leaves keys engaged until the side is seen again outside
	// the zone.
	RetainOnLoss Policy = iota
	// ReleaseOnLoss disengages every key of a side missing from the frame.
	ReleaseOnLoss
)

func (p Policy) String() string {
	if p == ReleaseOnLoss {
		return "release"
	}
	return "retain"
}

// Touch is a fingertip of one hand side in frame-pixel coordinates.
type Touch struct {
	Side  hand.Side
	Point image.Point
}

// Event is a rising edge: side pressed key.
type Event struct {
	Key   string
	Sound string
	Side  hand.Side
	Point image.Point
}

type sideState [hand.NumSides]bool

// Machine holds the per key, per side engaged flags.
// It is not safe for concurrent use; the capture loop owns it.
type Machine struct {
	policy Policy
	state  map[string]*sideState
}

// New creates a Machine with every key disengaged.
func New(policy Policy) *Machine {
	return &Machine{
		policy: policy,
		state:  make(map[string]*sideState),
	}
}

// TouchesFromHands converts detected hands into touches for a frame of the
// given size. Hands with an unrecognized handedness are dropped.
func TouchesFromHands(hands []hand.Landmarks, width, height int) []Touch {
	touches := make([]Touch, 0, len(hands))
	for i := range hands {
		side := hands[i].Side()
		if side == hand.Unknown {
			continue
		}
		touches = append(touches, Touch{Side: side, Point: hands[i].Fingertip(width, height)})
	}
	return touches
}

// Process updates the state for one frame and returns the presses.
//
// For every touch and every key: inside and disengaged engages and emits,
// inside and engaged does nothing, outside disengages. Touches are applied
// in order, so two touches claiming the same side share one slot and the
// later one wins. Overlapping zones are evaluated independently.
func (m *Machine) Process(touches []Touch, keys []keyzone.Key) []Event {
	m.prune(keys)

	var events []Event
	var seen [hand.NumSides]bool

	for _, t := range touches {
		if t.Side < 0 || int(t.Side) >= hand.NumSides {
			continue
		}
		seen[t.Side] = true

		for _, k := range keys {
			st := m.slot(k.ID)
			if !k.Zone.Contains(t.Point) {
				st[t.Side] = false
				continue
			}
			if st[t.Side] {
				continue
			}
			st[t.Side] = true
			events = append(events, Event{Key: k.ID, Sound: k.Sound, Side: t.Side, Point: t.Point})
		}
	}

	if m.policy == ReleaseOnLoss {
		for side := 0; side < hand.NumSides; side++ {
			if seen[side] {
				continue
			}
			for _, st := range m.state {
				st[side] = false
			}
		}
	}

	return events
}

// Engaged reports whether either side currently engages the key.
func (m *Machine) Engaged(id string) bool {
	st, ok := m.state[id]
	if !ok {
		return false
	}
	for _, v := range st {
		if v {
			return true
		}
	}
	return false
}

// State reports whether side currently engages the key.
func (m *Machine) State(id string, side hand.Side) bool {
	st, ok := m.state[id]
	if !ok || side < 0 || int(side) >= hand.NumSides {
		return false
	}
	return st[side]
}

// Reset disengages every key.
func (m *Machine) Reset() {
	m.state = make(map[string]*sideState)
}

func (m *Machine) slot(id string) *sideState {
	st, ok := m.state[id]
	if !ok {
		st = &sideState{}
		m.state[id] = st
	}
	return st
}

// prune drops state for keys no longer in the registry.
func (m *Machine) prune(keys []keyzone.Key) {
	if len(m.state) <= len(keys) {
		present := 0
		for _, k := range keys {
			if _, ok := m.state[k.ID]; ok {
				present++
			}
		}
		if present == len(m.state) {
			return
		}
	}

	live := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		live[k.ID] = struct{}{}
	}
	for id := range m.state {
		if _, ok := live[id]; !ok {
			delete(m.state, id)
		}
	}
}
