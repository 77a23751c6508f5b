package predictor

// ShiftIn appends bit as the new LSB of a width-bit history. The oldest bit
// falls off the top.
func ShiftIn(value uint64, bit bool, width uint) uint64 {
	value <<= 1
	if bit {
		value |= 1
	}
	return MaskToWidth(value, width)
}

// ShiftRegister is a fixed-width history of branch outcomes, newest outcome
// in the LSB.
type ShiftRegister struct {
	value uint64
	width uint
}

// NewShiftRegister creates an all-not-taken register of the given width.
func NewShiftRegister(width uint) *ShiftRegister {
	return &ShiftRegister{width: width}
}

// Value returns the current history.
func (r *ShiftRegister) Value() uint64 {
	return r.value
}

// Width returns the number of outcomes the register holds.
func (r *ShiftRegister) Width() uint {
	return r.width
}

// ShiftIn records one outcome.
func (r *ShiftRegister) ShiftIn(taken bool) {
	r.value = ShiftIn(r.value, taken, r.width)
}

// LocalHistoryTable holds one history register per hashed instruction
// address. Addresses that hash to the same slot share a history.
type LocalHistoryTable struct {
	histories    []uint64
	indexBits    uint
	historyBits  uint
	addressShift uint
}

// NewLocalHistoryTable creates 2^indexBits zeroed histories of historyBits
// each. Addresses are hashed by dropping addressShift alignment bits.
func NewLocalHistoryTable(indexBits, historyBits, addressShift uint) *LocalHistoryTable {
	return &LocalHistoryTable{
		histories:    make([]uint64, 1<<indexBits),
		indexBits:    indexBits,
		historyBits:  historyBits,
		addressShift: addressShift,
	}
}

// Index hashes an instruction address to a table slot.
func (t *LocalHistoryTable) Index(pc uint64) uint64 {
	return MaskToWidth(pc>>t.addressShift, t.indexBits)
}

// Len returns the number of history registers.
func (t *LocalHistoryTable) Len() int {
	return len(t.histories)
}

// Read returns the history for pc.
func (t *LocalHistoryTable) Read(pc uint64) uint64 {
	return t.histories[t.Index(pc)]
}

// ShiftIn records an outcome in the history for pc.
func (t *LocalHistoryTable) ShiftIn(pc uint64, taken bool) {
	i := t.Index(pc)
	t.histories[i] = ShiftIn(t.histories[i], taken, t.historyBits)
}
