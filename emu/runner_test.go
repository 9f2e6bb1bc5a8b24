package emu_test

import (
	"bytes"
	"errors"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/mem"
	"github.com/sarchlab/runnersim/timing/latency"
)

// firstFastSource picks the window minimum once, then the maximum.
type firstFastSource struct {
	draws int
}

func (s *firstFastSource) Draw(min, max uint64) uint64 {
	s.draws++
	if s.draws == 1 {
		return min
	}
	return max
}

var _ = Describe("Runner", func() {
	var (
		config *latency.Config
		shared *emu.Shared
		runner *emu.Runner
	)

	BeforeEach(func() {
		config = latency.DefaultConfig()
		shared = emu.NewShared(config)
		runner = emu.NewRunner(0, shared,
			emu.WithConfig(config),
			emu.WithLatencySource(latency.Minimum()))
		program(runner)
	})

	Describe("Execute", func() {
		It("should move an immediate into a register", func() {
			ok, _ := runner.Execute(movImm(5, 0x1234))

			Expect(ok).To(BeTrue())
			Expect(runner.RegFile().ReadReg(5)).To(Equal(uint32(0x1234)))
			Expect(runner.Fetch()).To(Equal(uint32(4)))
		})

		It("should wrap an add and set Z, CY and OVF", func() {
			runner.RegFile().WriteReg(1, 0xFFFFFFFF)

			runner.Execute(addImm(2, 1, 1, true))

			regs := runner.RegFile()
			Expect(regs.ReadReg(2)).To(BeZero())
			Expect(regs.Flag(emu.FlagZ)).To(BeTrue())
			Expect(regs.Flag(emu.FlagCY)).To(BeTrue())
			Expect(regs.Flag(emu.FlagN)).To(BeFalse())
			Expect(regs.Flag(emu.FlagOVF)).To(BeTrue())
		})

		It("should discard writes to r0", func() {
			runner.RegFile().WriteReg(1, 7)

			runner.Execute(addImm(0, 1, 1, false))

			Expect(runner.RegFile().ReadReg(0)).To(BeZero())
		})

		It("should fall through a branch-if-zero that is not taken", func() {
			runner.RegFile().WriteReg(3, 5)

			runner.Execute(bez(3, 8, 1))

			Expect(runner.Fetch()).To(Equal(uint32(4)))
			Expect(runner.Pipeline().Empty()).To(BeTrue())
		})

		It("should queue delay slots behind a taken branch-if-zero", func() {
			runner.Execute(bez(3, 8, 1))

			pipe := runner.Pipeline()
			Expect(pipe.Len()).To(Equal(1))
			Expect(pipe.Head().PC).To(Equal(uint32(4)))
			Expect(pipe.Target).To(Equal(uint32(32)))
		})

		It("should return to pc+12 on an empty call stack", func() {
			runner.Execute(ret())

			Expect(runner.Stats().CallUnderflows).To(Equal(uint64(1)))
			Expect(runner.Pipeline().Target).To(Equal(uint32(12)))
			Expect(runner.Pipeline().Len()).To(Equal(2))
		})

		It("should drop the oldest return address on overflow", func() {
			for i := 0; i < emu.CallStackDepth+1; i++ {
				runner.Execute(ljmpCall(0x10))
			}

			Expect(runner.CallDepth()).To(Equal(emu.CallStackDepth))
			Expect(runner.Stats().CallOverflows).To(Equal(uint64(1)))
			Expect(runner.Fetch()).To(Equal(uint32(0x40)))
		})
	})

	Describe("delay slots", func() {
		It("should run the slots of a call and resume after them on return", func() {
			program(runner,
				jmpRel(5, 2, true), // 0: call 20
				movImm(1, 1),       // 4
				movImm(2, 2),       // 8
				movImm(3, 3),       // 12: return address
				selfLoop(),         // 16
				ret(),              // 20
			)

			Expect(runner.RunClocks(3)).To(Succeed())
			regs := runner.RegFile()
			Expect(regs.ReadReg(1)).To(Equal(uint32(1)))
			Expect(regs.ReadReg(2)).To(Equal(uint32(2)))
			Expect(regs.ReadReg(3)).To(BeZero())
			Expect(runner.Fetch()).To(Equal(uint32(20)))
			Expect(runner.CallDepth()).To(Equal(1))

			Expect(runner.RunClocks(4)).To(Succeed())
			Expect(regs.ReadReg(3)).To(Equal(uint32(3)))
			Expect(runner.CallDepth()).To(BeZero())
		})

		It("should ignore a branch inside a delay slot", func() {
			program(runner,
				jmpRel(4, 1, false), // 0: jump 16
				jmpRel(10, 0, false),
			)

			Expect(runner.RunClocks(2)).To(Succeed())

			Expect(runner.Fetch()).To(Equal(uint32(16)))
			Expect(runner.Stats().Instructions).To(Equal(uint64(2)))
		})
	})

	Describe("fatal errors", func() {
		It("should halt on an unknown opcode", func() {
			program(runner, insts.Op6(0x07).Uint32())

			err := runner.RunClocks(1)

			var decodeErr *emu.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.PC).To(BeZero())
			Expect(err).To(MatchError(insts.ErrUnknownOpcode))
			Expect(runner.Halted()).To(BeTrue())
			Expect(runner.Step().Halted).To(BeTrue())
		})

		It("should halt on an out-of-bounds load", func() {
			program(runner, ldAbs(5, 0xFFF0))

			err := runner.RunClocks(1)

			Expect(err).To(MatchError(mem.ErrAccessViolation))
			Expect(runner.Err()).To(Equal(err))
		})

		It("should stop at the clock limit", func() {
			runner = emu.NewRunner(1, shared,
				emu.WithConfig(config),
				emu.WithMaxClocks(10))
			program(runner, selfLoop())

			err := runner.RunClocks(100)

			Expect(err).To(MatchError(emu.ErrClockLimit))
			Expect(runner.Clock()).To(Equal(uint64(10)))
		})
	})

	Describe("DMA back-pressure", func() {
		It("should stall on a full FIFO and resume once a slot frees", func() {
			runner = emu.NewRunner(0, shared,
				emu.WithConfig(config),
				emu.WithLatencySource(&firstFastSource{}))
			words := make([]uint32, 8)
			for i := range words {
				words[i] = dmaRead(0, 0, 4)
			}
			program(runner, append(words, selfLoop())...)

			Expect(runner.RunClocks(8)).To(Succeed())
			Expect(runner.Stall().Cause).To(Equal(emu.StallDmaFull))
			Expect(runner.Stall().PC).To(Equal(uint32(28)))
			Expect(runner.Units().DMA.Len()).To(Equal(config.Depths.DMA))

			By("draining the first transfer at clock 41")
			Expect(runner.RunClocks(33)).To(Succeed())
			Expect(runner.Stall().Cause).To(Equal(emu.StallDmaFull))
			Expect(runner.Units().DMA.Len()).To(Equal(config.Depths.DMA - 1))

			By("re-issuing the stalled transfer on the next clock")
			Expect(runner.RunClocks(1)).To(Succeed())
			Expect(runner.Stall().Active()).To(BeFalse())
			Expect(runner.Units().DMA.Len()).To(Equal(config.Depths.DMA))

			stats := runner.Stats()
			Expect(stats.StallDurations[emu.StallDmaFull]).To(Equal([]uint64{34}))
			Expect(stats.StallClocks[emu.StallDmaFull]).To(Equal(uint64(34)))
			Expect(stats.Stalls[emu.StallDmaFull]).To(Equal(uint64(1)))
			Expect(stats.HighWater.DMA).To(Equal(config.Depths.DMA))
		})
	})

	Describe("context swap", func() {
		const thread = 3

		BeforeEach(func() {
			program(runner, ctxSwap(true))
			ctx := runner.Context()
			ctx.SetWord(thread*emu.NumPrivates+emu.LinkRegister, 0x100<<16)
			ctx.SetWord(thread*emu.NumPrivates, 0xAB)
		})

		It("should park until the scheduler finds a thread", func() {
			Expect(runner.RunClocks(1)).To(Succeed())

			Expect(runner.Stall().Cause).To(Equal(emu.StallNoContext))
			Expect(runner.Idle()).To(BeTrue())
		})

		It("should save the running context and restore the woken one", func() {
			regs := runner.RegFile()
			regs.WriteReg(9, 0x77)
			regs.WriteReg(31, 0x5555)
			before := regs.Privates
			runner.Scheduler().PostSync(thread)

			Expect(runner.RunClocks(config.SchedulerPeriod)).To(Succeed())

			Expect(runner.Scheduler().Current).To(Equal(thread))
			Expect(runner.Scheduler().Previous).To(Equal(0))
			Expect(runner.Fetch()).To(Equal(uint32(0x100)))
			Expect(regs.ReadReg(8)).To(Equal(uint32(0xAB)))
			Expect(regs.Flags).To(BeZero())
			Expect(runner.Stats().ContextSwitches).To(Equal(uint64(1)))

			var saved [emu.NumPrivates]uint32
			copy(saved[:], runner.Context().Words()[:emu.NumPrivates])
			Expect(cmp.Diff(before, saved)).To(BeEmpty())
		})

		It("should restore every private register after a round trip", func() {
			regs := runner.RegFile()
			regs.WriteReg(9, 0x77)
			regs.WriteReg(31, 0x5555)
			regs.WriteReg(emu.NumGlobals+emu.LinkRegister, 0x40<<16|0x12)
			before := regs.Privates
			runner.Code().SetWord(0x100/4, ctxSwap(true))
			runner.Scheduler().PostSync(thread)

			Expect(runner.RunClocks(config.SchedulerPeriod)).To(Succeed())
			Expect(runner.Scheduler().Current).To(Equal(thread))

			runner.Scheduler().PostSync(0)
			Expect(runner.RunClocks(config.SchedulerPeriod)).To(Succeed())

			Expect(runner.Scheduler().Current).To(Equal(0))
			Expect(runner.Scheduler().Previous).To(Equal(thread))
			Expect(runner.Fetch()).To(Equal(uint32(0x40)))
			Expect(runner.Stats().ContextSwitches).To(Equal(uint64(2)))
			Expect(cmp.Diff(before, regs.Privates)).To(BeEmpty())
			Expect(runner.Context().Word(thread * emu.NumPrivates)).To(Equal(uint32(0xAB)))
		})

		It("should update the link register after the delay slots", func() {
			program(runner,
				ctxSwapLink(0x10),
				movImm(emu.NumGlobals+emu.LinkRegister, 5),
				addImm(1, emu.NumGlobals+emu.LinkRegister, 0, false),
			)
			runner.Scheduler().PostSync(0)

			Expect(runner.RunClocks(config.SchedulerPeriod)).To(Succeed())

			regs := runner.RegFile()
			Expect(regs.ReadReg(1)).To(Equal(uint32(5)))
			Expect(runner.Context().Word(emu.LinkRegister)).To(Equal(uint32(0x10<<16 | 5)))
			Expect(regs.Privates[emu.LinkRegister]).To(Equal(uint32(0x10<<16 | 5)))
			Expect(runner.Fetch()).To(Equal(uint32(0x10)))
			Expect(runner.Halted()).To(BeFalse())
		})

		It("should halt when the woken thread resumes at zero", func() {
			runner.Scheduler().PostSync(5)

			err := runner.RunClocks(config.SchedulerPeriod)

			Expect(err).To(MatchError(emu.ErrZeroResumePC))
		})
	})

	Describe("buffer messages", func() {
		It("should hand a completed message to the handler", func() {
			log := &emu.MessageLog{}
			runner.SetMessageHandler(log)
			program(runner,
				movImm(1, emu.CoRunnerDest),
				bbmsg(1, 3, 0x55),
				selfLoop(),
			)

			Expect(runner.RunClocks(2 + config.BBMSG.Min)).To(Succeed())

			Expect(log.Messages).To(Equal([]accel.Message{{
				Runner: 0, Thread: 0, Dest: emu.CoRunnerDest, Type: 3, Hi: 0x55,
			}}))
		})

		It("should expose a delivered message in the BBMSG registers", func() {
			runner.DeliverMessage(accel.Message{Dest: 2, Type: 5, Hi: 0x11, Lo: 0x22})

			Expect(runner.IORegister(emu.IOBBMsg0)).To(Equal(uint32(5<<16 | 2)))
			Expect(runner.IORegister(emu.IOBBMsg1)).To(Equal(uint32(0x11)))
			Expect(runner.IORegister(emu.IOBBMsg2)).To(Equal(uint32(0x22)))
		})
	})

	Describe("trace", func() {
		It("should write the instruction and its changes", func() {
			var buf bytes.Buffer
			runner = emu.NewRunner(1, shared, emu.WithTrace(&buf))

			runner.Execute(movImm(5, 0x1234))

			out := buf.String()
			Expect(out).To(ContainSubstring("clock=0 id=1 : 0x00000000 => 0xbc512344"))
			Expect(out).To(ContainSubstring("CHANGES: REG: r5=00001234"))
		})
	})

	Describe("Reset", func() {
		It("should clear registers, stalls and counters", func() {
			program(runner, movImm(4, 9), selfLoop())
			Expect(runner.RunClocks(5)).To(Succeed())

			runner.Reset()

			Expect(runner.RegFile().ReadReg(4)).To(BeZero())
			Expect(runner.Clock()).To(BeZero())
			Expect(runner.Fetch()).To(BeZero())
			Expect(runner.Stats().Instructions).To(BeZero())
			Expect(runner.Code().Word(0)).To(Equal(movImm(4, 9)))
		})
	})
})
