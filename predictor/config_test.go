package predictor_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should have a valid canonical default", func() {
		cfg := predictor.DefaultConfig()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.GlobalHistoryBits).To(Equal(uint(12)))
		Expect(cfg.LocalHistoryBits).To(Equal(uint(10)))
		Expect(cfg.LocalCounterBits).To(Equal(uint(3)))
		Expect(cfg.GlobalCounterBits).To(Equal(uint(2)))
		Expect(cfg.HistoryPolicy).To(Equal(predictor.ConditionalOnly))
	})

	It("should keep defaults for fields missing from the file", func() {
		path := filepath.Join(dir, "bp.json")
		Expect(os.WriteFile(path, []byte(`{"history_policy": "every-branch"}`), 0644)).
			To(Succeed())

		cfg, err := predictor.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.HistoryPolicy).To(Equal(predictor.EveryBranch))
		Expect(cfg.GlobalHistoryBits).To(Equal(uint(12)))
	})

	It("should load what it saved", func() {
		path := filepath.Join(dir, "bp.json")
		cfg := predictor.DefaultConfig()
		cfg.LocalIndexBits = 8

		Expect(cfg.SaveConfig(path)).To(Succeed())

		loaded, err := predictor.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(cfg))
	})

	It("should fail on a missing file", func() {
		_, err := predictor.LoadConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(HaveOccurred())
	})

	It("should fail on malformed JSON", func() {
		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte(`{`), 0644)).To(Succeed())

		_, err := predictor.LoadConfig(path)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("rejecting out-of-range settings",
		func(mutate func(*predictor.Config)) {
			cfg := predictor.DefaultConfig()
			mutate(&cfg)
			Expect(cfg.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		},
		Entry("zero global history", func(c *predictor.Config) { c.GlobalHistoryBits = 0 }),
		Entry("huge local history", func(c *predictor.Config) { c.LocalHistoryBits = 40 }),
		Entry("zero local index", func(c *predictor.Config) { c.LocalIndexBits = 0 }),
		Entry("wide address shift", func(c *predictor.Config) { c.AddressShift = 12 }),
		Entry("wide global counter", func(c *predictor.Config) { c.GlobalCounterBits = 9 }),
		Entry("zero local counter", func(c *predictor.Config) { c.LocalCounterBits = 0 }),
		Entry("unknown policy", func(c *predictor.Config) { c.HistoryPolicy = "sometimes" }),
	)
})
