package emu

import (
	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/mem"
)

// local returns the segment named by a common bit.
func (r *Runner) local(common bool) *mem.Segment {
	if common {
		return r.shared.Common
	}
	return r.sram
}

func wrap(addr uint32, s mem.Space) uint32 {
	return addr % s.Size()
}

// dmaRemote resolves the remote side of a DMA transfer. With calc the
// register holds a buffer number, otherwise a raw address.
func (r *Runner) dmaRemote(calc, mem1 bool, v uint32) (mem.Space, uint32) {
	switch {
	case calc && !mem1:
		return r.shared.DDR, DDRBufferBase + (v&0x1FFF)*DDRBufferSize
	case calc:
		return r.shared.PacketSRAM, wrap((v&0xFFF)*PacketBufferSize, r.shared.PacketSRAM)
	case !mem1:
		return r.shared.Common, v & 0xFFFF
	}
	return r.shared.DDR, v & 0x3FFFFFF
}

// afterIssue applies the async, resume-address and swap bits shared by
// the DMA and hash opcodes.
func (r *Runner) afterIssue(async, updateR16, ctxSwap bool) {
	if async {
		r.sched.EnableAsync(r.sched.Current)
	}
	if updateR16 {
		r.regFile.SetResumePC(r.pc + 12)
		r.regChanged(NumGlobals + LinkRegister)
	}
	if ctxSwap {
		r.beginSwap(SwapRequest{Save: true})
	}
}

func (r *Runner) execDMA(kind insts.Kind, d insts.Dma) {
	op := accel.DMAOp{
		Direction: accel.DMARead,
		Local:     r.local(d.Common()),
		LocalAddr: r.regFile.ReadReg(d.SrcC()) & 0xFFFF,
		Length:    int(r.operand(d.Immediate(), d.SrcB()) & 0xFF),
	}
	if kind == insts.KindDmaWrite {
		op.Direction = accel.DMAWrite
	}
	op.Remote, op.RemoteAddr = r.dmaRemote(d.AddrCalc(), d.Mem(), r.regFile.ReadReg(d.SrcA()))

	if !r.units.IssueDMA(r.clock, r.sched.Current, d.Invoke(), op) {
		r.stallOn(StallDmaFull)
		return
	}
	r.changes.add("DMA: %s %s[%X] len=%d", kind, op.Remote.Name(), op.RemoteAddr, op.Length)
	r.afterIssue(d.Async(), d.UpdateR16(), d.CtxSwap())
}

func (r *Runner) execDMALookup(d insts.DmaLookup) {
	op := accel.DMAOp{
		Direction:  accel.DMALookup,
		Local:      r.local(d.Common()),
		LocalAddr:  r.regFile.ReadReg(d.SrcC()) & 0xFFFF,
		Length:     int(r.operand(d.Immediate(), d.SrcB()) & 0xFF),
		ResultAddr: DDRLkupResult(d.Slot()),
	}
	remote := r.regFile.ReadReg(d.SrcA())
	if d.Mem() {
		op.Remote, op.RemoteAddr = r.shared.PacketSRAM, wrap(remote, r.shared.PacketSRAM)
	} else {
		op.Remote, op.RemoteAddr = r.shared.DDR, remote&0x3FFFFFF
	}

	if !r.units.IssueDMA(r.clock, r.sched.Current, d.Invoke(), op) {
		r.stallOn(StallDmaFull)
		return
	}
	r.changes.add("DMA: lookup %s[%X] slot=%d", op.Remote.Name(), op.RemoteAddr, d.Slot())
	r.afterIssue(d.Async(), d.UpdateR16(), d.CtxSwap())
}

// HashKey48 builds the 48-bit hash key.
func HashKey48(a, c uint32) uint64 {
	return uint64(a)<<16 | uint64(c&0xFFFF)
}

// HashKey60 builds the 60-bit hash key.
func HashKey60(a, c uint32) uint64 {
	return uint64(a)<<28 | uint64(c&0x0FFFFFFF)
}

func (r *Runner) execHash(h insts.Hash) {
	a := r.regFile.ReadReg(h.SrcA())
	c := r.regFile.ReadReg(h.SrcC())
	key := HashKey48(a, c)
	if h.Key60() {
		key = HashKey60(a, c)
	}
	op := accel.HashOp{
		Tag:        accel.HashKey(h.Table(), h.SrcAddr(), key),
		Learn:      h.Learn(),
		LearnData:  c >> 16,
		Slot:       h.Slot(),
		ResultAddr: LkupResult(h.Slot()),
	}

	if !r.units.IssueHash(r.clock, r.sched.Current, h.Invoke(), op) {
		r.stallOn(StallHashFull)
		return
	}
	r.changes.add("HASH: table=%d key=%X", h.Table(), key)
	r.afterIssue(false, h.UpdateR16(), h.CtxSwap())
}

func (r *Runner) execCRC(c insts.Crc) {
	profile := accel.CRC32
	if c.Eth() {
		profile = accel.CRC32Eth
	}
	op := accel.CRCOp{
		Space:      r.local(c.Common()),
		Addr:       r.regFile.ReadReg(c.SrcC()) & 0xFFFF,
		Length:     int(r.operand(c.Immediate(), c.SrcB()) & 0xFF),
		Seed:       r.regFile.ReadReg(c.SrcA()),
		Profile:    profile,
		Last:       c.Last(),
		ResultAddr: RamrdResult(0),
	}
	if !r.units.IssueCRC(r.clock, r.sched.Current, op) {
		r.stallOn(StallRammanBusy)
		return
	}
	r.changes.add("CRCCALC: len=%d", op.Length)
}

// camKey gathers a CAM key of n bytes starting at register reg. Key[0]
// holds the most significant half of a 128-bit key.
func (r *Runner) camKey(reg uint8, n int) [2]uint64 {
	rd := func(i uint8) uint64 { return uint64(r.regFile.ReadReg(reg + i)) }
	switch n {
	case 2:
		return [2]uint64{0, rd(0) & 0xFFFF}
	case 4:
		return [2]uint64{0, rd(0)}
	case 8:
		return [2]uint64{0, rd(0)<<32 | rd(1)}
	}
	return [2]uint64{rd(0)<<32 | rd(1), rd(2)<<32 | rd(3)}
}

func (r *Runner) execCAM(c insts.Cam) {
	cfg := IOCamFwcfg0
	if c.Common() {
		cfg = IOCamFwcfg1
	}
	op := accel.CAMOp{
		Space:      r.local(c.Common()),
		TableAddr:  r.regFile.ReadReg(c.SrcA()) & 0xFFFF,
		Entries:    int(r.io.Word(cfg) & 0x1FF),
		KeyBytes:   c.KeyBytes(),
		Key:        r.camKey(c.SrcC(), c.KeyBytes()),
		Masked:     c.Masked(),
		ResultAddr: RamrdResult(c.Slot()),
	}
	if !r.units.IssueCAM(r.clock, r.sched.Current, c.Invoke(), op) {
		r.stallOn(StallRammanBusy)
		return
	}
	r.changes.add("CAM: entries=%d key=%d", op.Entries, op.KeyBytes)
}

// CounterAddr is the DDR address of counter b in group a.
func CounterAddr(a, b uint32) uint32 {
	return CounterBase + ((a&0xFF)*256+(b&0xFF))*4
}

func (r *Runner) execCntUp(c insts.CntUp) {
	a := r.operand(c.ImmA(), c.SrcA())
	b := r.operand(c.ImmB(), c.SrcB())
	amount := uint32(1)
	if c.SrcC() != 0 {
		amount = r.regFile.ReadReg(c.SrcC())
	}
	op := accel.CounterOp{
		Space:  r.shared.DDR,
		Addr:   CounterAddr(a, b),
		Wide:   c.Wide(),
		Dec:    c.Dec(),
		Wrap:   c.Wrap(),
		Amount: amount,
	}
	if !r.units.IssueCounter(r.clock, r.sched.Current, op) {
		r.stallOn(StallCounterBusy)
		return
	}
	r.changes.add("CNTUP: %X", op.Addr)
}

func (r *Runner) execBbtx(b insts.Bbtx) {
	length := r.operand(b.Immediate(), b.SrcB()) & 0xFF
	dst := r.regFile.ReadReg(b.SrcA())
	op := accel.BBTXOp{
		Src:     r.local(b.Common()),
		SrcAddr: r.regFile.ReadReg(b.SrcC()) & 0xFFFF,
		Dst:     r.shared.PacketSRAM,
		DstAddr: wrap(dst, r.shared.PacketSRAM),
		Length:  int(length),
		Last:    b.Last(),
	}
	if !r.units.IssueBBTX(r.clock, r.sched.Current, b.Invoke(), op) {
		r.stallOn(StallBbtxFull)
		return
	}
	if b.Inc() {
		r.writeReg(b.SrcA(), dst+length)
	}
	r.changes.add("BBTX: %X len=%d", op.DstAddr, op.Length)
	if b.Wait() {
		r.park()
	}
}

func (r *Runner) execBbmsg(b insts.Bbmsg) {
	msg := accel.Message{
		Runner: r.id,
		Thread: r.sched.Current,
		Dest:   r.regFile.ReadReg(b.SrcA()),
		Type:   b.Type(),
		Hi:     r.operand(b.Immediate(), b.SrcB()),
		Wide:   b.Wide(),
	}
	if b.Wide() {
		msg.Lo = r.regFile.ReadReg(uint8(b.SrcB()) + 1)
	}
	if !r.units.IssueBBMSG(r.clock, r.sched.Current, msg) {
		r.stallOn(StallBbmsgFull)
		return
	}
	r.changes.add("BBMSG: dest=%X type=%d", msg.Dest, msg.Type)
	if b.Wait() {
		r.park()
	}
}

func (r *Runner) execCrypt(c insts.Crypt) {
	op := accel.CryptOp{
		Space:  r.sram,
		Addr:   r.regFile.ReadReg(c.SrcA()) & 0xFFFF,
		Length: int(r.operand(c.Immediate(), c.SrcB()) & 0xFF),
		Auth:   c.Hash(),
		First:  c.First(),
		Last:   c.Last(),
	}
	r.units.IssueCrypt(r.clock, r.sched.Current, c.Invoke(), op, runnerHost{r})
	r.changes.add("CRYPT: len=%d", op.Length)
}
