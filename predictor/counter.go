package predictor

// MaskToWidth keeps the low width bits of value.
func MaskToWidth(value uint64, width uint) uint64 {
	if width >= 64 {
		return value
	}
	return value & (uint64(1)<<width - 1)
}

// SaturatingIncrement returns count+1, clamped to limit.
func SaturatingIncrement(count, limit uint8) uint8 {
	if count >= limit {
		return limit
	}
	return count + 1
}

// SaturatingDecrement returns count-1, clamped to 0.
func SaturatingDecrement(count uint8) uint8 {
	if count == 0 {
		return 0
	}
	return count - 1
}

// CounterTable is a fixed-size array of saturating counters.
//
// The table has 2^indexBits entries and every counter is counterBits wide.
// Indices are masked to the table size, so any index is in range.
type CounterTable struct {
	counters  []uint8
	indexBits uint
	max       uint8
	threshold uint8
}

// NewCounterTable creates a zeroed table of 2^indexBits counters, each
// counterBits wide.
func NewCounterTable(indexBits, counterBits uint) *CounterTable {
	limit := uint8(uint16(1)<<counterBits - 1)
	return &CounterTable{
		counters:  make([]uint8, 1<<indexBits),
		indexBits: indexBits,
		max:       limit,
		threshold: uint8((uint16(limit) + 1) / 2),
	}
}

// Len returns the number of counters in the table.
func (t *CounterTable) Len() int {
	return len(t.counters)
}

// Max returns the largest value a counter can hold.
func (t *CounterTable) Max() uint8 {
	return t.max
}

// Threshold returns the smallest counter value that predicts taken.
func (t *CounterTable) Threshold() uint8 {
	return t.threshold
}

func (t *CounterTable) slot(index uint64) uint64 {
	return MaskToWidth(index, t.indexBits)
}

// Read returns the counter at index.
func (t *CounterTable) Read(index uint64) uint8 {
	return t.counters[t.slot(index)]
}

// Set overwrites the counter at index, clamping value to the counter range.
func (t *CounterTable) Set(index uint64, value uint8) {
	t.counters[t.slot(index)] = min(value, t.max)
}

// Increment bumps the counter at index, saturating at Max.
func (t *CounterTable) Increment(index uint64) {
	i := t.slot(index)
	t.counters[i] = SaturatingIncrement(t.counters[i], t.max)
}

// Decrement lowers the counter at index, saturating at 0.
func (t *CounterTable) Decrement(index uint64) {
	i := t.slot(index)
	t.counters[i] = SaturatingDecrement(t.counters[i])
}

// Train moves the counter at index towards the outcome.
func (t *CounterTable) Train(index uint64, taken bool) {
	if taken {
		t.Increment(index)
	} else {
		t.Decrement(index)
	}
}

// Taken reports whether the counter at index is in the upper half of its
// range.
func (t *CounterTable) Taken(index uint64) bool {
	return t.Read(index) >= t.threshold
}
