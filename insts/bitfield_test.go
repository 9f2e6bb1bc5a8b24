package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/insts"
)

var _ = Describe("Field", func() {
	It("should treat bit 0 as the most significant bit", func() {
		Expect(insts.Field(0x80000000, 0, 1)).To(Equal(uint32(1)))
		Expect(insts.Field(0x00000001, 31, 32)).To(Equal(uint32(1)))
		Expect(insts.Field(0xBC000000, 0, 6)).To(Equal(uint32(0x2F)))
	})

	It("should return the whole word for a full range", func() {
		Expect(insts.Field(0xDEADBEEF, 0, 32)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should extract interior ranges", func() {
		// bits 12..28 of 0x00012340 hold 0x1234
		Expect(insts.Field(0x00012340, 12, 28)).To(Equal(uint32(0x1234)))
	})

	It("should be deterministic", func() {
		words := []uint32{0, 0xFFFFFFFF, 0x12345678, 0x9ABCDEF0, 0x0F0F0F0F}
		for _, w := range words {
			for start := uint(0); start < 32; start += 3 {
				for end := start + 1; end <= 32; end += 5 {
					Expect(insts.Field(w, start, end)).To(Equal(insts.Field(w, start, end)))
				}
			}
		}
	})
})

var _ = Describe("Range", func() {
	It("should round-trip values through Put and Get", func() {
		r := insts.Range{Start: 7, End: 12}
		w := r.Put(0xFFFFFFFF, 0x0A)
		Expect(r.Get(w)).To(Equal(uint32(0x0A)))
		Expect(w | r.Put(0, 0x1F)).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("should discard bits beyond the width", func() {
		r := insts.Range{Start: 6, End: 7}
		Expect(r.Put(0, 0xFF)).To(Equal(uint32(0x02000000)))
	})

	It("should use the low five bits for register fields", func() {
		r := insts.Range{Start: 20, End: 28}
		Expect(r.Reg(r.Put(0, 0xE3))).To(Equal(uint8(3)))
	})
})

var _ = Describe("Word", func() {
	It("should build a move-immediate", func() {
		w := insts.Op6(insts.OpMovImm).
			With(insts.MovFields.Dst, 5).
			With(insts.MovFields.Imm, 0x1234).
			Set(insts.MovFields.Clear)
		Expect(w.Uint32()).To(Equal(uint32(0xBC512344)))
	})
})
