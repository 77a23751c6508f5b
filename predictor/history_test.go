package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("ShiftIn", func() {
	It("should append the outcome as the new LSB", func() {
		Expect(predictor.ShiftIn(0b101, true, 12)).To(Equal(uint64(0b1011)))
		Expect(predictor.ShiftIn(0b101, false, 12)).To(Equal(uint64(0b1010)))
	})

	It("should drop the oldest outcome", func() {
		Expect(predictor.ShiftIn(0xFFF, false, 12)).To(Equal(uint64(0xFFE)))
		Expect(predictor.ShiftIn(0x800, true, 12)).To(Equal(uint64(0x001)))
	})
})

var _ = Describe("ShiftRegister", func() {
	It("should stay within its width", func() {
		r := predictor.NewShiftRegister(4)
		for i := 0; i < 10; i++ {
			r.ShiftIn(true)
			Expect(r.Value()).To(BeNumerically("<", 16))
		}
		Expect(r.Value()).To(Equal(uint64(0xF)))
		Expect(r.Width()).To(Equal(uint(4)))
	})
})

var _ = Describe("LocalHistoryTable", func() {
	var lht *predictor.LocalHistoryTable

	BeforeEach(func() {
		lht = predictor.NewLocalHistoryTable(10, 10, 2)
	})

	It("should drop alignment bits and mask to the index width", func() {
		Expect(lht.Len()).To(Equal(1024))
		Expect(lht.Index(0x1004)).To(Equal(uint64(1)))
		Expect(lht.Index(0x0FFC)).To(Equal(uint64(0x3FF)))
		Expect(lht.Index(0x1000)).To(Equal(uint64(0)))
	})

	It("should keep a separate history per address", func() {
		lht.ShiftIn(0x1004, true)
		lht.ShiftIn(0x1008, false)
		lht.ShiftIn(0x1004, true)

		Expect(lht.Read(0x1004)).To(Equal(uint64(0b11)))
		Expect(lht.Read(0x1008)).To(Equal(uint64(0)))
	})

	It("should share a history between aliasing addresses", func() {
		lht.ShiftIn(0x0004, true)
		Expect(lht.Read(0x1004)).To(Equal(uint64(1)))
	})

	It("should keep histories within their width", func() {
		for i := 0; i < 25; i++ {
			lht.ShiftIn(0x40, true)
		}
		Expect(lht.Read(0x40)).To(Equal(uint64(0x3FF)))
	})
})
