package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/insts"
)

var _ = Describe("ALU", func() {
	var (
		regFile *emu.RegFile
		alu     *emu.ALU
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		alu = emu.NewALU(regFile)
	})

	Describe("Arith", func() {
		It("should set N and OVF on signed subtract overflow", func() {
			res := alu.Arith(insts.KindSub, 3, 0x7FFFFFFF, 0xFFFFFFFF, true)

			Expect(res).To(Equal(uint32(0x80000000)))
			Expect(regFile.Flag(emu.FlagN)).To(BeTrue())
			Expect(regFile.Flag(emu.FlagOVF)).To(BeTrue())
			Expect(regFile.Flag(emu.FlagCY)).To(BeTrue())
		})

		It("should set OVF on a carry even without a flag update", func() {
			alu.Arith(insts.KindAdd, 3, 0xFFFFFFFF, 2, false)

			Expect(regFile.ReadReg(3)).To(Equal(uint32(1)))
			Expect(regFile.Flags).To(Equal(emu.FlagOVF))
		})

		It("should set OVF along with CY on an unsigned carry", func() {
			res := alu.Arith(insts.KindAdd, 3, 0xFFFFFFFF, 1, true)

			Expect(res).To(BeZero())
			Expect(regFile.Flag(emu.FlagZ)).To(BeTrue())
			Expect(regFile.Flag(emu.FlagCY)).To(BeTrue())
			Expect(regFile.Flag(emu.FlagOVF)).To(BeTrue())
		})

		It("should leave OVF clear when nothing overflows", func() {
			alu.Arith(insts.KindAdd, 3, 2, 3, true)

			Expect(regFile.Flags).To(BeZero())
		})

		It("should keep the low word of a product", func() {
			Expect(alu.Arith(insts.KindMult, 4, 0x10000, 0x10001, true)).To(Equal(uint32(0x10000)))
			Expect(regFile.Flag(emu.FlagCY)).To(BeTrue())
		})

		DescribeTable("logic",
			func(kind insts.Kind, want uint32) {
				Expect(alu.Arith(kind, 5, 0xF0F0, 0xFF00, true)).To(Equal(want))
			},
			Entry("and", insts.KindAnd, uint32(0xF000)),
			Entry("or", insts.KindOr, uint32(0xFFF0)),
			Entry("xor", insts.KindXor, uint32(0x0FF0)),
		)
	})

	Describe("Move", func() {
		BeforeEach(func() {
			regFile.WriteReg(6, 0xAAAABBBB)
		})

		It("should replace the low half only", func() {
			Expect(alu.Move(6, 0x1234, false, false)).To(Equal(uint32(0xAAAA1234)))
		})

		It("should replace the high half only", func() {
			Expect(alu.Move(6, 0x1234, true, false)).To(Equal(uint32(0x1234BBBB)))
		})

		It("should clear the other half", func() {
			Expect(alu.Move(6, 0x1234, true, true)).To(Equal(uint32(0x12340000)))
		})
	})

	DescribeTable("Shift",
		func(x, amount, mode, want uint32) {
			Expect(alu.Shift(7, x, amount, mode, false)).To(Equal(want))
		},
		Entry("left", uint32(0x1), uint32(4), insts.ShiftLeft, uint32(0x10)),
		Entry("arithmetic right", uint32(0x80000000), uint32(4), insts.ShiftArith, uint32(0xF8000000)),
		Entry("rotate right", uint32(0x1), uint32(1), insts.ShiftRotate, uint32(0x80000000)),
		Entry("rotate low half", uint32(0xAAAA0001), uint32(1), insts.ShiftRotate16, uint32(0xAAAA8000)),
	)

	It("should sign-extend from the given bit", func() {
		Expect(alu.SignExtend(8, 0x80, 7, true)).To(Equal(uint32(0xFFFFFF80)))
		Expect(regFile.Flag(emu.FlagN)).To(BeTrue())
		Expect(alu.SignExtend(8, 0x7F, 7, false)).To(Equal(uint32(0x7F)))
	})
})

var _ = Describe("bit helpers", func() {
	DescribeTable("ByteShift",
		func(code, want uint32) {
			Expect(emu.ByteShift(0x00FF0000, code)).To(Equal(want))
		},
		Entry("none", uint32(0), uint32(0x00FF0000)),
		Entry("left 8", uint32(1), uint32(0xFF000000)),
		Entry("right 8", uint32(7), uint32(0x0000FF00)),
		Entry("right 16", uint32(6), uint32(0x000000FF)),
	)

	It("should find the first set bit from a start position", func() {
		Expect(emu.FindFirstSet(0b1001, 1, 32)).To(Equal(uint32(3)))
		Expect(emu.FindFirstSet(0b0001, 1, 8)).To(Equal(uint32(0)))
		Expect(emu.FindFirstSet(0x100, 0, 8)).To(Equal(uint32(0x20)))
	})

	It("should extract and insert bit fields", func() {
		Expect(emu.Extract(0xABCD, 8, 4)).To(Equal(uint32(0xBC)))
		Expect(emu.Insert(0xFFFF, 0, 8, 4)).To(Equal(uint32(0xF00F)))
		Expect(emu.Extract(0xDEADBEEF, 32, 0)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should fold a one's complement sum", func() {
		Expect(emu.OnesComplementAdd(0xFFFF, 0x0001)).To(Equal(uint32(0x0001)))
		Expect(emu.ChecksumHalf(0x12345678, true, true, 0)).To(Equal(uint32(0x3412)))
	})
})

var _ = Describe("CallStack", func() {
	It("should pop addresses in reverse order", func() {
		var s emu.CallStack
		s.Push(0x10)
		s.Push(0x20)

		addr, ok := s.Pop()
		Expect(ok).To(BeTrue())
		Expect(addr).To(Equal(uint32(0x20)))
		Expect(s.Depth()).To(Equal(1))
	})
})
