package table

// Phase is the per-hand lifecycle state. Joining doubles as the idle
// state between hands.
type Phase int

const (
	PhaseJoining Phase = iota
	PhaseCommit
	PhaseReveal
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseFoldWin
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseJoining:
		return "joining"
	case PhaseCommit:
		return "commit"
	case PhaseReveal:
		return "reveal"
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	case PhaseFoldWin:
		return "fold_win"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// betting reports whether the phase is one of the four betting streets.
func (p Phase) betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// Action is a player betting action.
type Action int

const (
	ActionFold Action = iota
	ActionCheck
	ActionCall
	ActionRaise
)

func (a Action) String() string {
	switch a {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	default:
		return "unknown"
	}
}
