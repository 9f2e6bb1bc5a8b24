package accel_test

import (
	"crypto/sha256"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/mem"
	"github.com/sarchlab/runnersim/timing/latency"
)

type recordingHost struct {
	results  map[uint32]uint32
	wakeups  []int
	messages []accel.Message
	faults   []error
}

func newRecordingHost() *recordingHost {
	return &recordingHost{results: map[uint32]uint32{}}
}

func (h *recordingHost) SetResult(addr, v uint32) { h.results[addr] = v }
func (h *recordingHost) Wakeup(thread int)        { h.wakeups = append(h.wakeups, thread) }
func (h *recordingHost) Deliver(m accel.Message)  { h.messages = append(h.messages, m) }
func (h *recordingHost) Fault(err error)          { h.faults = append(h.faults, err) }

var _ = Describe("Units", func() {
	var (
		config *latency.Config
		units  *accel.Units
		host   *recordingHost
		sram   *mem.Segment
		ddr    *mem.Sparse
	)

	BeforeEach(func() {
		config = latency.DefaultConfig()
		units = accel.NewUnits(config, latency.Minimum(),
			accel.NewHashTables(accel.DefaultHashTableConfig()))
		host = newRecordingHost()
		sram = mem.NewSegment("sram", 4096)
		ddr = mem.NewSparse("ddr", 1<<20)
	})

	Describe("DMA", func() {
		It("should copy remote data after the read latency", func() {
			Expect(mem.StoreBytes(ddr, 0x1000, []byte{1, 2, 3, 4})).To(Succeed())
			Expect(units.IssueDMA(0, 3, true, accel.DMAOp{
				Direction: accel.DMARead,
				Local:     sram, LocalAddr: 0x10,
				Remote: ddr, RemoteAddr: 0x1000,
				Length: 4,
			})).To(BeTrue())

			Expect(units.Tick(config.DMARead.Min-1, host)).To(Equal(0))
			Expect(sram.Word(4)).To(BeZero())

			Expect(units.Tick(config.DMARead.Min, host)).To(Equal(1))
			Expect(sram.Word(4)).To(Equal(uint32(0x01020304)))
			Expect(host.wakeups).To(Equal([]int{3}))
		})

		It("should refuse work when the FIFO is full", func() {
			for i := 0; i < config.Depths.DMA; i++ {
				Expect(units.IssueDMA(0, 0, false, accel.DMAOp{Local: sram, Remote: ddr})).To(BeTrue())
			}
			Expect(units.IssueDMA(0, 0, false, accel.DMAOp{Local: sram, Remote: ddr})).To(BeFalse())
			Expect(units.HighWater().DMA).To(Equal(config.Depths.DMA))
		})

		It("should complete queued transfers one clock apart", func() {
			units.IssueDMA(0, 0, false, accel.DMAOp{Local: sram, Remote: ddr})
			units.IssueDMA(0, 1, true, accel.DMAOp{Local: sram, Remote: ddr})

			Expect(units.Tick(config.DMARead.Min, host)).To(Equal(1))
			Expect(host.wakeups).To(BeEmpty())
			Expect(units.Tick(config.DMARead.Min+1, host)).To(Equal(1))
			Expect(host.wakeups).To(Equal([]int{1}))
			Expect(units.Idle()).To(BeTrue())
		})

		It("should write the looked up word to the result register", func() {
			Expect(mem.WriteBE(ddr, 0x40, 4, 0xDEADBEEF)).To(Succeed())
			units.IssueDMA(0, 0, false, accel.DMAOp{
				Direction: accel.DMALookup,
				Local:     sram, LocalAddr: 0,
				Remote: ddr, RemoteAddr: 0x40,
				Length: 4, ResultAddr: 0x60,
			})
			units.Tick(1000, host)
			Expect(host.results[0x60]).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should report out-of-range transfers as faults", func() {
			units.IssueDMA(0, 0, false, accel.DMAOp{
				Local: sram, LocalAddr: 4094, Remote: ddr, Length: 8,
			})
			units.Tick(1000, host)
			Expect(host.faults).To(HaveLen(1))
			Expect(host.faults[0]).To(MatchError(mem.ErrAccessViolation))
		})
	})

	Describe("ramman", func() {
		It("should compute a CRC and stay busy until done", func() {
			Expect(mem.StoreBytes(sram, 0, []byte("123456789"))).To(Succeed())
			Expect(units.IssueCRC(0, 0, accel.CRCOp{
				Space: sram, Length: 9, Seed: accel.CRC16.Init,
				Profile: accel.CRC16, Last: true, ResultAddr: 0x70,
			})).To(BeTrue())
			Expect(units.RammanBusy()).To(BeTrue())
			Expect(units.IssueCAM(0, 0, false, accel.CAMOp{})).To(BeFalse())

			units.Tick(1000, host)
			Expect(units.RammanBusy()).To(BeFalse())
			Expect(host.results[0x70]).To(Equal(uint32(0x29B1)))
		})

		It("should report the first matching CAM entry", func() {
			for i, k := range []uint32{0x11111111, 0x22222222, 0x22222222} {
				Expect(mem.WriteBE(sram, 0x200+uint32(i*4), 4, k)).To(Succeed())
			}
			units.IssueCAM(0, 2, true, accel.CAMOp{
				Space: sram, TableAddr: 0x200, Entries: 3, KeyBytes: 4,
				Key: [2]uint64{0, 0x22222222}, ResultAddr: 0x74,
			})
			units.Tick(1000, host)
			Expect(host.results[0x74]).To(Equal(1 | accel.CAMResultMatch))
			Expect(host.wakeups).To(Equal([]int{2}))
		})

		It("should apply CAM masks", func() {
			Expect(mem.WriteBE(sram, 0x300, 2, 0x1200)).To(Succeed())
			Expect(mem.WriteBE(sram, 0x302, 2, 0xFF00)).To(Succeed())
			units.IssueCAM(0, 0, false, accel.CAMOp{
				Space: sram, TableAddr: 0x300, Entries: 1, KeyBytes: 2,
				Key: [2]uint64{0, 0x12AB}, Masked: true, ResultAddr: 0x74,
			})
			units.Tick(1000, host)
			Expect(host.results[0x74]).To(Equal(accel.CAMResultMatch))
		})

		It("should write zero on a CAM miss", func() {
			host.results[0x74] = 0xFFFF
			units.IssueCAM(0, 0, false, accel.CAMOp{
				Space: sram, TableAddr: 0x200, Entries: 2, KeyBytes: 4,
				Key: [2]uint64{0, 0x99}, ResultAddr: 0x74,
			})
			units.Tick(1000, host)
			Expect(host.results[0x74]).To(BeZero())
		})
	})

	Describe("hash", func() {
		It("should learn on a miss and hit afterwards", func() {
			tag := accel.HashKey(0, false, 0x1234)
			units.IssueHash(0, 0, false, accel.HashOp{
				Tag: tag, Learn: true, LearnData: 0xABCDEF12, Slot: 1, ResultAddr: 0x80,
			})
			Expect(units.HashPending(1)).To(BeTrue())
			Expect(units.HashPending(2)).To(BeFalse())
			units.Tick(1000, host)
			Expect(host.results[0x80]).To(BeZero())

			units.IssueHash(1000, 0, false, accel.HashOp{Tag: tag, Slot: 1, ResultAddr: 0x80})
			units.Tick(2000, host)
			Expect(host.results[0x80]).To(Equal(accel.HashResultHit | 0xCDEF12))
		})
	})

	Describe("counter", func() {
		DescribeTable("16-bit updates",
			func(start uint32, dec, wrap bool, amount, want uint32) {
				Expect(mem.WriteBE(sram, 0x102, 2, start)).To(Succeed())
				units.IssueCounter(0, 0, accel.CounterOp{
					Space: sram, Addr: 0x100, Dec: dec, Wrap: wrap, Amount: amount,
				})
				units.Tick(1000, host)
				v, err := mem.ReadBE(sram, 0x102, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(want))
			},
			Entry("saturating increment", uint32(0xFFFE), false, false, uint32(5), uint32(0xFFFF)),
			Entry("wrapping increment", uint32(0xFFFE), false, true, uint32(5), uint32(3)),
			Entry("saturating decrement", uint32(2), true, false, uint32(5), uint32(0)),
			Entry("wrapping decrement", uint32(2), true, true, uint32(5), uint32(0xFFFD)),
		)

		It("should update 32-bit counters in place", func() {
			Expect(mem.WriteBE(sram, 0x100, 4, 0x10000)).To(Succeed())
			units.IssueCounter(0, 0, accel.CounterOp{Space: sram, Addr: 0x100, Wide: true, Amount: 1})
			units.Tick(1000, host)
			v, _ := mem.ReadBE(sram, 0x100, 4)
			Expect(v).To(Equal(uint32(0x10001)))
		})
	})

	Describe("buffer transmit and messages", func() {
		It("should not deliver a message before the transmit ahead of it", func() {
			Expect(mem.StoreBytes(sram, 0, []byte{9, 8})).To(Succeed())
			units.IssueBBTX(0, 0, false, accel.BBTXOp{
				Src: sram, Dst: ddr, DstAddr: 0x500, Length: 2,
			})
			units.IssueBBMSG(0, 0, accel.Message{Dest: 2, Lo: 7})

			units.Tick(config.BBTX.Min, host)
			Expect(host.messages).To(BeEmpty())
			b, _ := ddr.LoadByte(0x501)
			Expect(b).To(Equal(byte(8)))

			units.Tick(config.BBTX.Min+1, host)
			Expect(host.messages).To(HaveLen(1))
			Expect(host.messages[0].Lo).To(Equal(uint32(7)))
		})
	})

	Describe("crypto", func() {
		It("should append the digest after the last chunk", func() {
			Expect(mem.StoreBytes(sram, 0x100, []byte("abc"))).To(Succeed())
			units.IssueCrypt(0, 4, true, accel.CryptOp{
				Space: sram, Addr: 0x100, Length: 3, Auth: true, First: true, Last: true,
			}, host)
			Expect(units.CryptBusy()).To(BeTrue())
			units.Tick(1000, host)

			got, err := mem.LoadBytes(sram, 0x103, sha256.Size)
			Expect(err).NotTo(HaveOccurred())
			want := sha256.Sum256([]byte("abc"))
			Expect(got).To(Equal(want[:]))
			Expect(host.wakeups).To(Equal([]int{4}))
		})

		It("should finish the chunk in flight before starting another", func() {
			Expect(mem.StoreBytes(sram, 0x100, []byte("abcdef"))).To(Succeed())
			units.IssueCrypt(0, 0, false, accel.CryptOp{
				Space: sram, Addr: 0x100, Length: 3, Auth: true, First: true,
			}, host)
			units.IssueCrypt(1, 0, false, accel.CryptOp{
				Space: sram, Addr: 0x103, Length: 3, Auth: true, Last: true,
			}, host)
			units.Tick(1000, host)

			got, _ := mem.LoadBytes(sram, 0x106, sha256.Size)
			want := sha256.Sum256([]byte("abcdef"))
			Expect(got).To(Equal(want[:]))
		})
	})

	It("should report occupancy and drop everything on reset", func() {
		units.IssueDMA(0, 0, false, accel.DMAOp{Local: sram, Remote: ddr})
		units.IssueCRC(0, 0, accel.CRCOp{Space: sram, Profile: accel.CRC32})
		Expect(units.Occupancy()).To(Equal(accel.Occupancy{DMA: 1, Ramman: 1}))
		Expect(units.Idle()).To(BeFalse())

		units.Reset()
		Expect(units.Idle()).To(BeTrue())
	})
})
