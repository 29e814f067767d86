package solver

import "fmt"

// Policy selects how Step scores a candidate guess.
type Policy int

const (
	// MaximizeEntropy proposes the guess with the greatest expected
	// information gain.
	MaximizeEntropy Policy = iota
	// MinimizeScore proposes the guess with the smallest expected final
	// score, using the calibration curve to price the information still
	// missing after the guess.
	MinimizeScore
)

func (p Policy) String() string {
	switch p {
	case MaximizeEntropy:
		return "maximize-entropy"
	case MinimizeScore:
		return "minimize-score"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "maximize-entropy", "entropy":
		return MaximizeEntropy, nil
	case "minimize-score", "score":
		return MinimizeScore, nil
	default:
		return 0, fmt.Errorf("unknown policy %q", s)
	}
}

// State is the session's position in the propose/feedback cycle.
type State int

const (
	// Fresh: the possibility set is the whole dictionary.
	Fresh State = iota
	// Proposing: the set has been narrowed and no guess is pending.
	Proposing
	// AwaitingFeedback: Step or Adopt produced a guess that has not been
	// answered yet.
	AwaitingFeedback
	// Solved: exactly one candidate remains.
	Solved
	// Exhausted: the round cap was reached with more than one candidate.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Proposing:
		return "proposing"
	case AwaitingFeedback:
		return "awaiting-feedback"
	case Solved:
		return "solved"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
