package mem_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/mem"
)

var _ = Describe("Segment", func() {
	var seg *mem.Segment

	BeforeEach(func() {
		seg = mem.NewSegment("sram", 64)
	})

	It("should use big-endian byte lanes", func() {
		seg.SetWord(0, 0x11223344)

		b, err := seg.LoadByte(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte(0x11)))

		b, _ = seg.LoadByte(3)
		Expect(b).To(Equal(byte(0x44)))

		h, _ := seg.Read(2, 2)
		Expect(h).To(Equal(uint32(0x3344)))
	})

	It("should merge narrow writes into the word", func() {
		Expect(seg.Write(4, 4, 0xAABBCCDD)).To(Succeed())
		Expect(seg.Write(5, 1, 0x00)).To(Succeed())
		Expect(seg.Word(1)).To(Equal(uint32(0xAA00CCDD)))
	})

	It("should compose unaligned words across lanes", func() {
		seg.SetWord(0, 0x00010203)
		seg.SetWord(1, 0x04050607)
		v, err := seg.Read(2, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x02030405)))
	})

	It("should reject accesses past the end", func() {
		_, err := seg.Read(62, 4)
		Expect(errors.Is(err, mem.ErrAccessViolation)).To(BeTrue())

		var accessErr *mem.AccessError
		Expect(errors.As(seg.Write(64, 1, 0), &accessErr)).To(BeTrue())
		Expect(accessErr.Space).To(Equal("sram"))
		Expect(accessErr.Addr).To(Equal(uint32(64)))
	})

	It("should reset to zero", func() {
		seg.Load([]uint32{1, 2, 3})
		seg.Reset()
		Expect(seg.Word(2)).To(BeZero())
	})
})

var _ = Describe("Sparse", func() {
	var ddr *mem.Sparse

	BeforeEach(func() {
		ddr = mem.NewSparse("ddr", 1<<26)
	})

	It("should read zero from untouched pages without allocating", func() {
		v, err := ddr.Read32(0x123400)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
		Expect(ddr.Pages()).To(Equal(0))
	})

	It("should store words big-endian", func() {
		Expect(ddr.Write32(0x1D0008, 0xCAFEBABE)).To(Succeed())
		b, _ := ddr.LoadByte(0x1D0008)
		Expect(b).To(Equal(byte(0xCA)))
		v, _ := ddr.Read32(0x1D0008)
		Expect(v).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should reject addresses past the size", func() {
		Expect(errors.Is(ddr.StoreByte(1<<26, 1), mem.ErrAccessViolation)).To(BeTrue())
	})
})

var _ = Describe("Copy", func() {
	It("should move bytes between spaces", func() {
		sram := mem.NewSegment("sram", 16)
		ddr := mem.NewSparse("ddr", 4096)
		Expect(mem.StoreBytes(ddr, 100, []byte{1, 2, 3, 4, 5})).To(Succeed())

		Expect(mem.Copy(sram, 3, ddr, 100, 5)).To(Succeed())

		data, err := mem.LoadBytes(sram, 3, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{1, 2, 3, 4, 5}))
	})

	It("should stop at the first out-of-bounds byte", func() {
		sram := mem.NewSegment("sram", 8)
		ddr := mem.NewSparse("ddr", 4096)
		err := mem.Copy(sram, 6, ddr, 0, 4)
		Expect(errors.Is(err, mem.ErrAccessViolation)).To(BeTrue())
	})
})
