package island

import "fmt"

// LabelWord is the per-polygon state kept by the label store. The low byte is
// the island label, bit 9 marks a polygon flooded during the running batch and
// bit 10 marks a polygon visited by a flood whose label is not decided yet.
type LabelWord uint16

const (
	LabelMask  LabelWord = 0xff
	FloodedBit LabelWord = 1 << 9
	PendingBit LabelWord = 1 << 10

	transientBits = FloodedBit | PendingBit

	// ReservedLabel is never handed out as an island label.
	ReservedLabel uint8 = 0xff
)

func (w LabelWord) Label() uint8    { return uint8(w & LabelMask) }
func (w LabelWord) Flooded() bool   { return w&FloodedBit != 0 }
func (w LabelWord) Pending() bool   { return w&PendingBit != 0 }
func (w LabelWord) Transient() bool { return w&transientBits != 0 }

// Plain strips the transient bits.
func (w LabelWord) Plain() LabelWord { return w &^ transientBits }

type StateKind uint8

const (
	Unassigned StateKind = iota
	Stable
	Pending
	Flooded
)

func (k StateKind) String() string {
	switch k {
	case Unassigned:
		return "unassigned"
	case Stable:
		return "stable"
	case Pending:
		return "pending"
	case Flooded:
		return "flooded"
	}
	return fmt.Sprintf("StateKind(%d)", uint8(k))
}

// State is the tagged form of a LabelWord used by the traversal code.
type State struct {
	Kind  StateKind
	Label uint8 // set for Stable and Flooded
}

func StableState(label uint8) State  { return State{Kind: Stable, Label: label} }
func FloodedState(label uint8) State { return State{Kind: Flooded, Label: label} }

var PendingState = State{Kind: Pending}

func (w LabelWord) State() State {
	switch {
	case w.Pending():
		return PendingState
	case w.Flooded():
		return FloodedState(w.Label())
	case w.Label() != 0:
		return StableState(w.Label())
	}
	return State{}
}

func (s State) Word() LabelWord {
	switch s.Kind {
	case Stable:
		return LabelWord(s.Label)
	case Pending:
		return PendingBit
	case Flooded:
		return LabelWord(s.Label) | FloodedBit
	}
	return 0
}

func (s State) String() string {
	switch s.Kind {
	case Stable, Flooded:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Label)
	}
	return s.Kind.String()
}
