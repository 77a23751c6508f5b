package predictor

// GlobalPredictor predicts from the path history of all recent branches.
//
// The path history register is shared with the chooser; the facade owns it
// and passes it in at construction.
type GlobalPredictor struct {
	path     *ShiftRegister
	counters *CounterTable
}

// NewGlobalPredictor creates a global predictor indexed by path.
func NewGlobalPredictor(cfg Config, path *ShiftRegister) *GlobalPredictor {
	return &GlobalPredictor{
		path:     path,
		counters: NewCounterTable(cfg.GlobalHistoryBits, cfg.GlobalCounterBits),
	}
}

// Predict returns the global prediction for the current path history.
func (p *GlobalPredictor) Predict() bool {
	return p.counters.Taken(p.path.Value())
}

// Learn trains the counter at the current path history. It does not touch
// the history itself.
func (p *GlobalPredictor) Learn(taken bool) {
	p.counters.Train(p.path.Value(), taken)
}

// ShiftHistory records an outcome in the path history.
func (p *GlobalPredictor) ShiftHistory(taken bool) {
	p.path.ShiftIn(taken)
}

// Counters exposes the global counter table.
func (p *GlobalPredictor) Counters() *CounterTable {
	return p.counters
}
