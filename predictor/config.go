package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// HistoryPolicy selects which branches train the predictor.
type HistoryPolicy string

const (
	// ConditionalOnly treats unconditional branches as always taken and
	// skips all learning for them.
	ConditionalOnly HistoryPolicy = "conditional-only"

	// EveryBranch trains the chooser and local predictor on every branch and
	// shifts the path history on every branch. The global counters still
	// learn from conditional branches only.
	EveryBranch HistoryPolicy = "every-branch"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid predictor config")

const (
	maxHistoryBits  = 24
	maxCounterBits  = 8
	maxAddressShift = 8
)

// Config holds the geometry and training policy of a tournament predictor.
type Config struct {
	// GlobalHistoryBits is the width of the path history register. It also
	// sets the size of the global and chooser tables. Default: 12.
	GlobalHistoryBits uint `json:"global_history_bits"`

	// LocalHistoryBits is the width of each local history register and sets
	// the size of the local counter table. Default: 10.
	LocalHistoryBits uint `json:"local_history_bits"`

	// LocalIndexBits sets the number of local history registers
	// (2^LocalIndexBits). Default: 10.
	LocalIndexBits uint `json:"local_index_bits"`

	// AddressShift is the number of instruction alignment bits dropped
	// before hashing an address. Default: 2.
	AddressShift uint `json:"address_shift"`

	// GlobalCounterBits is the width of global counters. Default: 2.
	GlobalCounterBits uint `json:"global_counter_bits"`

	// LocalCounterBits is the width of local counters. Default: 3.
	LocalCounterBits uint `json:"local_counter_bits"`

	// HistoryPolicy decides how unconditional branches are learned.
	// Default: conditional-only.
	HistoryPolicy HistoryPolicy `json:"history_policy"`
}

// trains reports whether an update of br trains the predictor. Conditional
// branches always train; unconditional branches only under EveryBranch.
func (c Config) trains(br BranchRecord) bool {
	return br.Conditional || c.HistoryPolicy == EveryBranch
}

// DefaultConfig returns the canonical 21264-style geometry.
func DefaultConfig() Config {
	return Config{
		GlobalHistoryBits: 12,
		LocalHistoryBits:  10,
		LocalIndexBits:    10,
		AddressShift:      2,
		GlobalCounterBits: 2,
		LocalCounterBits:  3,
		HistoryPolicy:     ConditionalOnly,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// Validate checks that every width is in a supported range.
func (c Config) Validate() error {
	if c.GlobalHistoryBits == 0 || c.GlobalHistoryBits > maxHistoryBits {
		return fmt.Errorf("%w: global_history_bits must be in 1..%d",
			ErrInvalidConfig, maxHistoryBits)
	}
	if c.LocalHistoryBits == 0 || c.LocalHistoryBits > maxHistoryBits {
		return fmt.Errorf("%w: local_history_bits must be in 1..%d",
			ErrInvalidConfig, maxHistoryBits)
	}
	if c.LocalIndexBits == 0 || c.LocalIndexBits > maxHistoryBits {
		return fmt.Errorf("%w: local_index_bits must be in 1..%d",
			ErrInvalidConfig, maxHistoryBits)
	}
	if c.AddressShift > maxAddressShift {
		return fmt.Errorf("%w: address_shift must be <= %d",
			ErrInvalidConfig, maxAddressShift)
	}
	if c.GlobalCounterBits == 0 || c.GlobalCounterBits > maxCounterBits {
		return fmt.Errorf("%w: global_counter_bits must be in 1..%d",
			ErrInvalidConfig, maxCounterBits)
	}
	if c.LocalCounterBits == 0 || c.LocalCounterBits > maxCounterBits {
		return fmt.Errorf("%w: local_counter_bits must be in 1..%d",
			ErrInvalidConfig, maxCounterBits)
	}

	switch c.HistoryPolicy {
	case ConditionalOnly, EveryBranch:
	default:
		return fmt.Errorf("%w: unknown history_policy %q",
			ErrInvalidConfig, c.HistoryPolicy)
	}

	return nil
}
