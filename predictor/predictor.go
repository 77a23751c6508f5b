// Package predictor implements a tournament branch predictor in the style of
// the Alpha 21264: a per-address local predictor and a path-history global
// predictor, arbitrated by a chooser that learns which one to trust.
package predictor

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// OpState is opaque architectural state supplied by the simulator. The
// predictor carries it but does not read it.
type OpState interface{}

// BranchRecord describes one dynamic branch.
type BranchRecord struct {
	// PC is the instruction address of the branch.
	PC uint64
	// Conditional is false for branches that are always taken.
	Conditional bool
	// Target is the branch target, when the caller knows it.
	Target uint64
	// State is passed through untouched.
	State OpState
}

// HookPosBranchUpdate marks the point right after a branch has been learned.
// The hook Item is the BranchRecord and the Detail is an UpdateDetail.
var HookPosBranchUpdate = &sim.HookPos{Name: "BranchUpdate"}

// UpdateDetail describes what the predictor saw and did for one update.
type UpdateDetail struct {
	Taken            bool
	Predicted        bool
	LocalPrediction  bool
	GlobalPrediction bool
	UsedLocal        bool
	Trained          bool
	ChoiceBefore     ChoiceState
	ChoiceAfter      ChoiceState
	PathHistory      uint64
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithHook registers a hook at construction time.
func WithHook(hook sim.Hook) Option {
	return func(p *Predictor) {
		p.AcceptHook(hook)
	}
}

// Predictor is a tournament branch predictor. It is not safe for concurrent
// use.
type Predictor struct {
	sim.HookableBase

	config  Config
	path    *ShiftRegister
	local   *LocalPredictor
	global  *GlobalPredictor
	chooser *Chooser

	stats Stats
}

// NewPredictor creates a predictor with every table zeroed: strongly not
// taken, strongly prefer global. A zero Config selects DefaultConfig. In any
// other config, zero widths and an empty policy take their default values
// while AddressShift is used as given, since 0 is a valid shift. It panics
// if the resulting config is invalid.
func NewPredictor(config Config, opts ...Option) *Predictor {
	config = withDefaults(config)
	if err := config.Validate(); err != nil {
		log.Panic(err)
	}

	path := NewShiftRegister(config.GlobalHistoryBits)
	p := &Predictor{
		config:  config,
		path:    path,
		local:   NewLocalPredictor(config),
		global:  NewGlobalPredictor(config, path),
		chooser: NewChooser(config, path),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func withDefaults(c Config) Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}

	if c.GlobalHistoryBits == 0 {
		c.GlobalHistoryBits = d.GlobalHistoryBits
	}
	if c.LocalHistoryBits == 0 {
		c.LocalHistoryBits = d.LocalHistoryBits
	}
	if c.LocalIndexBits == 0 {
		c.LocalIndexBits = d.LocalIndexBits
	}
	if c.GlobalCounterBits == 0 {
		c.GlobalCounterBits = d.GlobalCounterBits
	}
	if c.LocalCounterBits == 0 {
		c.LocalCounterBits = d.LocalCounterBits
	}
	if c.HistoryPolicy == "" {
		c.HistoryPolicy = d.HistoryPolicy
	}
	return c
}

// Predict returns whether br is predicted taken. It does not change any
// predictor state.
func (p *Predictor) Predict(br BranchRecord) bool {
	if !br.Conditional {
		return true
	}

	if p.chooser.PreferLocal() {
		return p.local.Predict(br.PC)
	}

	return p.global.Predict()
}

// Update trains the predictor with the resolved outcome of br.
func (p *Predictor) Update(br BranchRecord, taken bool) {
	// Sub-predictions must be taken before anything is mutated.
	detail := UpdateDetail{
		Taken:            taken,
		Predicted:        p.Predict(br),
		LocalPrediction:  p.local.Predict(br.PC),
		GlobalPrediction: p.global.Predict(),
		UsedLocal:        br.Conditional && p.chooser.PreferLocal(),
		ChoiceBefore:     p.chooser.State(),
		PathHistory:      p.path.Value(),
	}

	p.recordStats(br, detail)

	detail.Trained = p.config.trains(br)
	if detail.Trained {
		p.chooser.Learn(detail.LocalPrediction, detail.GlobalPrediction, taken)
		p.local.Learn(br.PC, taken)
		if br.Conditional {
			p.global.Learn(taken)
		}
		p.global.ShiftHistory(taken)
	}

	detail.ChoiceAfter = p.chooser.StateAt(detail.PathHistory)

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosBranchUpdate,
		Item:   br,
		Detail: detail,
	})
}

func (p *Predictor) recordStats(br BranchRecord, d UpdateDetail) {
	p.stats.Updates++
	if d.Predicted == d.Taken {
		p.stats.Correct++
	} else {
		p.stats.Mispredictions++
	}

	if !br.Conditional {
		p.stats.Unconditional++
		return
	}

	p.stats.Conditional++
	if d.LocalPrediction == d.Taken {
		p.stats.LocalCorrect++
	}
	if d.GlobalPrediction == d.Taken {
		p.stats.GlobalCorrect++
	}
	if d.UsedLocal {
		p.stats.ChoseLocal++
	}
}

// Config returns the configuration the predictor was built with.
func (p *Predictor) Config() Config {
	return p.config
}

// Stats returns the predictor statistics.
func (p *Predictor) Stats() Stats {
	return p.stats
}

// ResetStats clears the statistics. Predictor tables are left untouched.
func (p *Predictor) ResetStats() {
	p.stats = Stats{}
}

// PathHistory returns the global path history register.
func (p *Predictor) PathHistory() uint64 {
	return p.path.Value()
}

// LocalHistory returns the local history register selected by pc.
func (p *Predictor) LocalHistory(pc uint64) uint64 {
	return p.local.History().Read(pc)
}

// GlobalCounter returns the global counter at index.
func (p *Predictor) GlobalCounter(index uint64) uint8 {
	return p.global.Counters().Read(index)
}

// LocalCounter returns the local counter at index.
func (p *Predictor) LocalCounter(index uint64) uint8 {
	return p.local.Counters().Read(index)
}

// ChoiceState returns the chooser entry at index.
func (p *Predictor) ChoiceState(index uint64) ChoiceState {
	return p.chooser.StateAt(index)
}
