package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/timing/latency"
)

var _ = Describe("Latency", func() {
	Describe("Default Config", func() {
		It("should carry the reference windows", func() {
			config := latency.DefaultConfig()
			Expect(config.DMARead).To(Equal(latency.Window{Min: 40, Max: 100}))
			Expect(config.DMAWrite).To(Equal(latency.Window{Min: 15, Max: 100}))
			Expect(config.BBMSG).To(Equal(latency.Window{Min: 2, Max: 40}))
			Expect(config.Depths.DMA).To(Equal(7))
			Expect(config.Depths.Hash).To(Equal(4))
			Expect(config.SchedulerPeriod).To(Equal(uint64(16)))
			Expect(config.TimerTick).To(Equal(uint64(300)))
		})

		It("should validate", func() {
			Expect(latency.DefaultConfig().Validate()).To(Succeed())
		})

		It("should reject inverted windows", func() {
			config := latency.DefaultConfig()
			config.Hash = latency.Window{Min: 10, Max: 5}
			Expect(config.Validate()).NotTo(Succeed())
		})

		It("should reject empty FIFOs", func() {
			config := latency.DefaultConfig()
			config.Depths.BBTX = 0
			Expect(config.Validate()).NotTo(Succeed())
		})

		It("should clone independently", func() {
			config := latency.DefaultConfig()
			clone := config.Clone()
			clone.Depths.DMA = 1
			Expect(config.Depths.DMA).To(Equal(7))
		})
	})

	Describe("CRC window", func() {
		It("should widen with the input length", func() {
			config := latency.DefaultConfig()
			Expect(config.CRCWindow(0)).To(Equal(latency.Window{Min: 5, Max: 5}))
			Expect(config.CRCWindow(64)).To(Equal(latency.Window{Min: 5, Max: 15}))
		})
	})

	Describe("Sources", func() {
		It("should keep random draws inside the window", func() {
			src := latency.NewRandomSource(1)
			for i := 0; i < 1000; i++ {
				v := src.Draw(40, 100)
				Expect(v).To(BeNumerically(">=", 40))
				Expect(v).To(BeNumerically("<=", 100))
			}
		})

		It("should be reproducible for a seed", func() {
			a := latency.NewRandomSource(42)
			b := latency.NewRandomSource(42)
			for i := 0; i < 50; i++ {
				Expect(a.Draw(5, 15)).To(Equal(b.Draw(5, 15)))
			}
		})

		It("should clamp constants", func() {
			Expect(latency.Constant(3).Draw(5, 15)).To(Equal(uint64(5)))
			Expect(latency.Constant(9).Draw(5, 15)).To(Equal(uint64(9)))
			Expect(latency.Constant(99).Draw(5, 15)).To(Equal(uint64(15)))
		})
	})

	Describe("Completion", func() {
		w := latency.Window{Min: 40, Max: 100}

		It("should use the window when nothing is queued", func() {
			Expect(latency.Completion(latency.Minimum(), w, 10, 0, false)).To(Equal(uint64(50)))
		})

		It("should never overtake a queued completion", func() {
			Expect(latency.Completion(latency.Minimum(), w, 10, 80, true)).To(Equal(uint64(81)))
			Expect(latency.Completion(latency.Constant(1000), w, 10, 80, true)).To(Equal(uint64(10 + 71 + 60)))
		})

		It("should ignore queued completions that are already near", func() {
			Expect(latency.Completion(latency.Minimum(), w, 10, 20, true)).To(Equal(uint64(50)))
		})
	})

	Describe("Config files", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("should round-trip JSON", func() {
			config := latency.DefaultConfig()
			config.Seed = 7
			path := filepath.Join(tempDir, "timing.json")
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should load partial YAML over the defaults", func() {
			path := filepath.Join(tempDir, "timing.yaml")
			Expect(os.WriteFile(path, []byte("hash:\n  min: 8\n  max: 9\ndepths:\n  dma: 3\n"), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Hash).To(Equal(latency.Window{Min: 8, Max: 9}))
			Expect(loaded.Depths.DMA).To(Equal(3))
			Expect(loaded.Depths.BBTX).To(Equal(4))
			Expect(loaded.DMARead.Min).To(Equal(uint64(40)))
		})

		It("should fail on a missing file", func() {
			_, err := latency.LoadConfig(filepath.Join(tempDir, "missing.json"))
			Expect(err).To(HaveOccurred())
		})
	})
})
