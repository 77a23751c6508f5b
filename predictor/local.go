package predictor

// LocalPredictor predicts a branch from its own recent outcomes.
type LocalPredictor struct {
	histories *LocalHistoryTable
	counters  *CounterTable
}

// NewLocalPredictor creates a local predictor from the config geometry.
func NewLocalPredictor(cfg Config) *LocalPredictor {
	return &LocalPredictor{
		histories: NewLocalHistoryTable(
			cfg.LocalIndexBits, cfg.LocalHistoryBits, cfg.AddressShift),
		counters: NewCounterTable(cfg.LocalHistoryBits, cfg.LocalCounterBits),
	}
}

// Predict returns the local prediction for pc.
func (p *LocalPredictor) Predict(pc uint64) bool {
	return p.counters.Taken(p.histories.Read(pc))
}

// Learn trains the counter selected by the history that was used to predict,
// then records the outcome in that history.
func (p *LocalPredictor) Learn(pc uint64, taken bool) {
	p.counters.Train(p.histories.Read(pc), taken)
	p.histories.ShiftIn(pc, taken)
}

// History exposes the per-address history table.
func (p *LocalPredictor) History() *LocalHistoryTable {
	return p.histories
}

// Counters exposes the local counter table.
func (p *LocalPredictor) Counters() *CounterTable {
	return p.counters
}
