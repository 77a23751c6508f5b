package predictor

import "log"

// ChoiceState is the state of one chooser entry.
type ChoiceState uint8

// Chooser states, ordered from most global-trusting to most local-trusting.
const (
	StronglyGlobal ChoiceState = iota
	WeaklyGlobal
	WeaklyLocal
	StronglyLocal
)

// chooserCounterBits is fixed: the chooser is a four-state automaton.
const chooserCounterBits = 2

func (s ChoiceState) String() string {
	switch s {
	case StronglyGlobal:
		return "StronglyGlobal"
	case WeaklyGlobal:
		return "WeaklyGlobal"
	case WeaklyLocal:
		return "WeaklyLocal"
	case StronglyLocal:
		return "StronglyLocal"
	default:
		return "Invalid"
	}
}

// PrefersLocal reports whether the state selects the local predictor.
func (s ChoiceState) PrefersLocal() bool {
	return s >= WeaklyLocal
}

// NextChoiceState returns the state after a branch resolves. The chooser
// only moves when exactly one sub-predictor was correct.
func NextChoiceState(s ChoiceState, localCorrect, globalCorrect bool) ChoiceState {
	towardLocal := localCorrect && !globalCorrect
	towardGlobal := globalCorrect && !localCorrect

	switch s {
	case StronglyGlobal:
		if towardLocal {
			return WeaklyGlobal
		}
	case WeaklyGlobal:
		if towardGlobal {
			return StronglyGlobal
		} else if towardLocal {
			return WeaklyLocal
		}
	case WeaklyLocal:
		if towardGlobal {
			return WeaklyGlobal
		} else if towardLocal {
			return StronglyLocal
		}
	case StronglyLocal:
		if towardGlobal {
			return WeaklyLocal
		}
	default:
		log.Panicf("invalid chooser state %d", s)
	}

	return s
}

// Chooser selects between the local and global predictors per path history.
type Chooser struct {
	path   *ShiftRegister
	states *CounterTable
}

// NewChooser creates a chooser indexed by path, every entry StronglyGlobal.
func NewChooser(cfg Config, path *ShiftRegister) *Chooser {
	return &Chooser{
		path:   path,
		states: NewCounterTable(cfg.GlobalHistoryBits, chooserCounterBits),
	}
}

// State returns the chooser entry for the current path history.
func (c *Chooser) State() ChoiceState {
	return ChoiceState(c.states.Read(c.path.Value()))
}

// StateAt returns the chooser entry at index.
func (c *Chooser) StateAt(index uint64) ChoiceState {
	return ChoiceState(c.states.Read(index))
}

// PreferLocal reports whether the local predictor should be trusted for the
// current path history.
func (c *Chooser) PreferLocal() bool {
	return c.State().PrefersLocal()
}

// Learn updates the current entry given both sub-predictions and the real
// outcome.
func (c *Chooser) Learn(localPred, globalPred, taken bool) {
	index := c.path.Value()
	next := NextChoiceState(
		ChoiceState(c.states.Read(index)),
		localPred == taken,
		globalPred == taken,
	)
	c.states.Set(index, uint8(next))
}
