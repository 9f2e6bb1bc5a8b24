package sim_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/mem"
	"github.com/sarchlab/runnersim/sim"
	"github.com/sarchlab/runnersim/timing/latency"
)

var _ = Describe("Simulator", func() {
	var (
		config *latency.Config
		opts   []sim.Option
	)

	// sender sends a type 3 message to the co-runner, then parks.
	sender := image(
		movImm(1, emu.CoRunnerDest),
		bbmsg(1, 3, 0x55),
		park(),
	)
	// reader copies BBMSG_0 into r5, then parks.
	reader := image(
		ldio(5, emu.IOBBMsg0),
		park(),
	)

	newSim := func(extra ...sim.Option) *sim.Simulator {
		return sim.NewSimulator(append(append([]sim.Option{}, opts...), extra...)...)
	}

	BeforeEach(func() {
		config = latency.DefaultConfig()
		opts = []sim.Option{
			sim.WithConfig(config),
			sim.WithLatencySource(latency.Minimum()),
		}
	})

	It("should share memories between the runners", func() {
		s := newSim()

		Expect(s.Runner(0).ID()).To(Equal(0))
		Expect(s.Runner(1).ID()).To(Equal(1))
		Expect(s.Shared()).NotTo(BeNil())
		Expect(s.ID()).NotTo(BeEmpty())
	})

	It("should load a program and reset the runner", func() {
		s := newSim()
		s.Runner(0).RegFile().WriteReg(3, 9)

		Expect(s.LoadProgram(0, image(movImm(4, 1)))).To(Succeed())

		Expect(s.Runner(0).Code().Word(0)).To(Equal(movImm(4, 1)))
		Expect(s.Runner(0).RegFile().ReadReg(3)).To(BeZero())
	})

	It("should reject a runner that does not exist", func() {
		s := newSim()

		Expect(s.LoadProgram(2, image())).NotTo(Succeed())
	})

	It("should refuse to run without a program", func() {
		s := newSim()

		Expect(s.Run()).To(MatchError(sim.ErrNoProgram))
	})

	It("should only drive runners with a program", func() {
		s := newSim()
		Expect(s.LoadProgram(0, image(movImm(4, 1), park()))).To(Succeed())

		Expect(s.Run()).To(Succeed())

		Expect(s.Active(0)).To(BeTrue())
		Expect(s.Active(1)).To(BeFalse())
		Expect(s.Runner(0).Clock()).To(BeNumerically(">", 0))
		Expect(s.Runner(1).Clock()).To(BeZero())
		Expect(s.Summary().Runners).To(HaveLen(1))
	})

	It("should load the common segment", func() {
		s := newSim()

		s.LoadCommon([]uint32{0xCAFEF00D})

		Expect(s.Shared().Common.Word(0)).To(Equal(uint32(0xCAFEF00D)))
	})

	It("should install hash entries", func() {
		s := newSim()

		s.InstallHashEntry(1, false, 0x1234, 0xBEEF)

		data, ok := s.Shared().HashTables.Lookup(accel.HashKey(1, false, 0x1234))
		Expect(ok).To(BeTrue())
		Expect(data).To(Equal(uint32(0xBEEF)))
	})

	Context("interleaved", func() {
		It("should deliver a message to the co-runner", func() {
			s := newSim()
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, image(park()))).To(Succeed())

			Expect(s.Run()).To(Succeed())

			Expect(s.Messages(0)).To(HaveLen(1))
			Expect(s.Messages(0)[0].Hi).To(Equal(uint32(0x55)))
			Expect(s.Messages(1)).To(BeEmpty())
			Expect(s.Runner(1).IORegister(emu.IOBBMsg0)).To(Equal(uint32(3<<16 | emu.CoRunnerDest)))
			Expect(s.Runner(0).Idle()).To(BeTrue())
			Expect(s.Runner(1).Idle()).To(BeTrue())
		})

		It("should let the reader run before the message arrives", func() {
			s := newSim()
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, reader)).To(Succeed())

			Expect(s.Run()).To(Succeed())

			Expect(s.Runner(1).RegFile().ReadReg(5)).To(BeZero())
		})
	})

	Context("sequential", func() {
		It("should run the first runner to completion first", func() {
			s := newSim(sim.WithMode(sim.Sequential))
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, reader)).To(Succeed())

			Expect(s.Run()).To(Succeed())

			Expect(s.Runner(1).RegFile().ReadReg(5)).To(Equal(uint32(3<<16 | emu.CoRunnerDest)))
		})
	})

	It("should stop at the clock limit without an error", func() {
		s := newSim(sim.WithMaxClocks(10))
		Expect(s.LoadProgram(0, image(selfLoop()))).To(Succeed())
		Expect(s.LoadProgram(1, image(selfLoop()))).To(Succeed())

		Expect(s.Run()).To(Succeed())

		for i := 0; i < sim.NumRunners; i++ {
			Expect(s.Runner(i).Clock()).To(Equal(uint64(10)))
			Expect(s.Runner(i).Err()).To(MatchError(emu.ErrClockLimit))
		}
	})

	It("should keep the other runner going after a fatal error", func() {
		s := newSim()
		Expect(s.LoadProgram(0, image(ldAbs(1, 0xFFF0)))).To(Succeed())
		Expect(s.LoadProgram(1, image(movImm(4, 7), park()))).To(Succeed())

		err := s.Run()

		Expect(errors.Is(err, mem.ErrAccessViolation)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("runner 0"))
		Expect(s.Runner(0).Halted()).To(BeTrue())
		Expect(s.Runner(1).Halted()).To(BeFalse())
		Expect(s.Runner(1).RegFile().ReadReg(4)).To(Equal(uint32(7)))
	})

	It("should write the trace of both runners", func() {
		var buf bytes.Buffer
		s := newSim(sim.WithTrace(&buf))
		Expect(s.LoadProgram(0, image(park()))).To(Succeed())
		Expect(s.LoadProgram(1, image(park()))).To(Succeed())

		Expect(s.Run()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("id=0 :"))
		Expect(buf.String()).To(ContainSubstring("id=1 :"))
	})

	It("should reset runners and recorded messages", func() {
		s := newSim(sim.WithSampling(1))
		Expect(s.LoadProgram(0, sender)).To(Succeed())
		Expect(s.LoadProgram(1, image(park()))).To(Succeed())
		Expect(s.Run()).To(Succeed())

		s.Reset()

		Expect(s.Messages(0)).To(BeEmpty())
		Expect(s.Samples(0)).To(BeEmpty())
		Expect(s.Runner(0).Clock()).To(BeZero())
		Expect(s.Runner(0).Code().Word(0)).To(Equal(movImm(1, emu.CoRunnerDest)))
	})

	Describe("statistics", func() {
		It("should compute the mean and deviation of durations", func() {
			mean, std := sim.DurationStats([]uint64{2, 4, 6})

			Expect(mean).To(BeNumerically("~", 4))
			Expect(std).To(BeNumerically("~", 2))
		})

		It("should report no deviation for a single duration", func() {
			mean, std := sim.DurationStats([]uint64{5})

			Expect(mean).To(BeNumerically("~", 5))
			Expect(std).To(BeZero())
		})

		It("should handle no durations", func() {
			mean, std := sim.DurationStats(nil)

			Expect(mean).To(BeZero())
			Expect(std).To(BeZero())
		})

		It("should summarize a run", func() {
			s := newSim(sim.WithSampling(1))
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, image(park()))).To(Succeed())
			Expect(s.Run()).To(Succeed())

			sum := s.Summary()

			Expect(sum.RunID).To(Equal(s.ID()))
			Expect(sum.Runners).To(HaveLen(sim.NumRunners))
			Expect(sum.Runners[0].Instructions).To(BeNumerically(">", 0))
			Expect(sum.Runners[0].HighWater.BBMSG).To(Equal(1))
			Expect(sum.Runners[0].MeanOccupancy["bbmsg"]).To(BeNumerically(">", 0))

			var out bytes.Buffer
			Expect(sum.Print(&out)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("runner 1"))
			Expect(out.String()).To(ContainSubstring("bbmsg"))
		})
	})

	Describe("occupancy", func() {
		It("should sample occupancy every clock", func() {
			s := newSim(sim.WithSampling(1))
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, image(park()))).To(Succeed())

			Expect(s.Run()).To(Succeed())

			samples := s.Samples(0)
			Expect(samples).To(HaveLen(int(s.Runner(0).Clock())))
			Expect(samples).To(ContainElement(HaveField("Occupancy.BBMSG", 1)))
		})

		It("should refuse to plot without samples", func() {
			s := newSim()

			_, err := s.OccupancyPlot(0)

			Expect(err).To(MatchError(sim.ErrNoSamples))
		})

		It("should save one plot per runner", func() {
			s := newSim(sim.WithSampling(1))
			Expect(s.LoadProgram(0, sender)).To(Succeed())
			Expect(s.LoadProgram(1, image(park()))).To(Succeed())
			Expect(s.Run()).To(Succeed())

			prefix := filepath.Join(GinkgoT().TempDir(), "occupancy")
			paths, err := s.PlotOccupancy(prefix, ".png")

			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(sim.NumRunners))
			for _, p := range paths {
				Expect(os.Stat(p)).To(HaveField("Size()", BeNumerically(">", 0)))
			}
		})
	})
})
