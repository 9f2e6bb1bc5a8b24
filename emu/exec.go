package emu

import (
	"fmt"

	"github.com/sarchlab/runnersim/insts"
)

// Execute runs one instruction word at the current fetch address, as if
// it had been fetched there, and returns whether it executed and its
// disassembly. A stalled instruction executes nothing and is reported
// as executed; a fatal error is reported as not executed.
func (r *Runner) Execute(word uint32) (bool, string) {
	pc := r.fetch & PCMask
	r.fetch = (pc + 4) & PCMask
	text := r.decoder.Decode(word).String()
	if r.exec(pc, word) {
		r.fetch = pc
		return true, text
	}
	if r.halted {
		return false, text
	}
	if r.pipe.Swapping() {
		r.drainSwap()
	}
	return true, text
}

// dispatch executes a decoded instruction.
func (r *Runner) dispatch(inst *insts.Instruction) {
	switch inst.Kind {
	case insts.KindJmp:
		r.execJmp(inst.Jmp())
	case insts.KindBez:
		r.execBez(inst.Bez())
	case insts.KindCmpJmp:
		r.execCmpJmp(inst.CmpJmp())
	case insts.KindLjmp:
		l := inst.Ljmp()
		r.jump(l.Target()<<2&PCMask, 2, l.Call())
	case insts.KindRet:
		r.execRet()
	case insts.KindCtxSwap:
		r.execCtxSwap(inst.CtxSwap())
	case insts.KindLd, insts.KindLdc:
		r.execLoad(inst)
	case insts.KindSt, insts.KindStc:
		r.execStore(inst)
	case insts.KindAdd, insts.KindSub, insts.KindAnd, insts.KindOr, insts.KindXor, insts.KindMult:
		r.execALU(inst)
	case insts.KindShift:
		r.execShift(inst.Shift())
	case insts.KindSignExt:
		r.execSignExt(inst.SignExt())
	case insts.KindFfi:
		f := inst.Ffi()
		start := r.operand(f.Immediate(), f.SrcB()) & 31
		r.writeReg(f.Dst(), FindFirstSet(r.regFile.ReadReg(f.SrcA()), start, f.Window()))
	case insts.KindExtract:
		b := inst.BitField()
		r.writeReg(b.Dst(), Extract(r.regFile.ReadReg(b.SrcA()), b.Width(), b.Offset()))
	case insts.KindInsert:
		b := inst.BitField()
		old := r.regFile.ReadReg(b.Dst())
		r.writeReg(b.Dst(), Insert(old, r.regFile.ReadReg(b.SrcA()), b.Width(), b.Offset()))
	case insts.KindICheck:
		r.execICheck(inst.ICheck())
	case insts.KindMovImm:
		m := inst.Mov()
		r.alu.Move(m.Dst(), m.Imm(), m.High(), m.Clear())
		r.regChanged(m.Dst())
	case insts.KindLdio:
		r.execLdio(inst.IO())
	case insts.KindStio:
		r.execStio(inst.IO())
	case insts.KindDmaRead, insts.KindDmaWrite:
		r.execDMA(inst.Kind, inst.Dma())
	case insts.KindDmaLookup:
		r.execDMALookup(inst.DmaLookup())
	case insts.KindHash:
		r.execHash(inst.Hash())
	case insts.KindRamman:
		if insts.RammanType.Flag(inst.Word) {
			r.execCAM(inst.Cam())
		} else {
			r.execCRC(inst.Crc())
		}
	case insts.KindCntUp:
		r.execCntUp(inst.CntUp())
	case insts.KindBbtx:
		r.execBbtx(inst.Bbtx())
	case insts.KindBbmsg:
		r.execBbmsg(inst.Bbmsg())
	case insts.KindCrypt:
		r.execCrypt(inst.Crypt())
	case insts.KindNop:
	}
}

// operand returns field as an immediate, or the register it names.
func (r *Runner) operand(immediate bool, field uint32) uint32 {
	if immediate {
		return field
	}
	return r.regFile.ReadReg(uint8(field))
}

func (r *Runner) writeReg(reg uint8, v uint32) {
	r.regFile.WriteReg(reg, v)
	r.regChanged(reg)
}

func (r *Runner) regChanged(reg uint8) {
	reg &= 31
	if reg != 0 {
		r.changes.add("REG: r%d=%08X", reg, r.regFile.ReadReg(reg))
	}
}

func delaySlots(n int) int {
	return min(n, 2)
}

// jump redirects fetch to target after slots delay-slot instructions.
// A call pushes the address following the delay slots.
func (r *Runner) jump(target uint32, slots int, call bool) {
	if r.inSlot {
		r.log.V(1).Info("branch in delay slot ignored",
			"runner", r.id, "clock", r.clock, "pc", r.pc, "target", target)
		return
	}
	if call && r.calls.Push(r.pc+4+4*uint32(slots)) {
		r.stats.CallOverflows++
		r.log.V(1).Info("call stack overflow", "runner", r.id, "clock", r.clock, "pc", r.pc)
	}
	r.changes.add("JUMP: %08X", target)
	r.fetch = target
	if slots > 0 {
		r.pipe.Load(target, r.prefetch(slots)...)
	}
}

// prefetch reads the n instructions following the executing one.
func (r *Runner) prefetch(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		pc := (r.pc + 4*uint32(i+1)) & PCMask
		slots[i] = Slot{PC: pc, Word: r.code.Word(int(pc >> 2))}
	}
	return slots
}

func (r *Runner) execJmp(j insts.Jmp) {
	if !r.branchUnit.Condition(j) {
		return
	}
	target := r.branchUnit.Target(r.pc, j.Immediate(), j.Target(), j.AddrReg())
	r.jump(target, delaySlots(j.DelaySlots()), j.Call())
}

func (r *Runner) execBez(b insts.Bez) {
	if !r.branchUnit.ZeroTest(b) {
		return
	}
	target := r.branchUnit.Target(r.pc, b.Immediate(), b.Target(), b.AddrReg())
	r.jump(target, delaySlots(b.DelaySlots()), b.Call())
}

func (r *Runner) execCmpJmp(c insts.CmpJmp) {
	if !r.branchUnit.Compare(c) {
		return
	}
	r.jump(r.branchUnit.Target(r.pc, c.Immediate(), c.Target(), c.AddrReg()), 0, false)
}

func (r *Runner) execRet() {
	addr, ok := r.calls.Pop()
	if !ok {
		addr = (r.pc + 12) & PCMask
		r.stats.CallUnderflows++
		r.log.V(1).Info("call stack underflow", "runner", r.id, "clock", r.clock, "pc", r.pc)
	}
	r.jump(addr, 2, false)
}

func (r *Runner) execCtxSwap(c insts.CtxSwap) {
	r.beginSwap(SwapRequest{
		Save:      c.Save(),
		UpdateR16: c.UpdateR16(),
		Imm:       c.Imm(),
		Async:     c.Async(),
	})
}

func (r *Runner) memFault(err error) {
	r.halt(fmt.Errorf("pc 0x%04x: %w", r.pc, err))
}

func (r *Runner) execLoad(inst *insts.Instruction) {
	m := inst.Mem()
	space := r.lsu.Space(inst.Kind)
	if _, err := r.lsu.Load(space, m); err != nil {
		r.memFault(err)
		return
	}
	r.regChanged(m.Dst())
	if m.Bytes() == 8 {
		r.regChanged(m.Dst() + 1)
	}
}

func (r *Runner) execStore(inst *insts.Instruction) {
	m := inst.Mem()
	space := r.lsu.Space(inst.Kind)
	addr, err := r.lsu.Store(space, m)
	if err != nil {
		r.memFault(err)
		return
	}
	r.changes.add("MEM: %s[%04X]", space.Name(), addr)
}

func (r *Runner) execALU(inst *insts.Instruction) {
	a := inst.ALU()
	b := OperandB(r.operand(a.Immediate(), a.SrcB()), a.ByteShift(), a.Invert())
	r.alu.Arith(inst.Kind, a.Dst(), r.regFile.ReadReg(a.SrcA()), b, a.UpdateFlags())
	r.regChanged(a.Dst())
}

func (r *Runner) execShift(s insts.Shift) {
	amount := r.operand(s.Immediate(), s.SrcB())
	r.alu.Shift(s.Dst(), r.regFile.ReadReg(s.SrcA()), amount, s.Mode(), s.UpdateFlags())
	r.regChanged(s.Dst())
}

func (r *Runner) execSignExt(s insts.SignExt) {
	var bit uint32
	switch {
	case !s.Immediate():
		bit = r.regFile.ReadReg(uint8(s.SrcB())) & 31
	case s.SrcB() == 0:
		bit = 7
	default:
		bit = 15
	}
	r.alu.SignExtend(s.Dst(), r.regFile.ReadReg(s.SrcA()), bit, s.UpdateFlags())
	r.regChanged(s.Dst())
}

func (r *Runner) execICheck(c insts.ICheck) {
	h := ChecksumHalf(r.regFile.ReadReg(c.SrcB()), c.High(), c.Reverse(), c.ByteShift())
	sum := OnesComplementAdd(r.regFile.ReadReg(c.SrcA()), h)
	if c.Last() {
		sum = ^sum & 0xFFFF
		r.io.SetWord(IOParserChksum, sum)
	}
	r.writeReg(c.Dst(), sum)
}

func (r *Runner) ioAddress(i insts.IO) uint32 {
	if i.Immediate() {
		return i.Addr()
	}
	return half(r.regFile.ReadReg(i.AddrReg()), i.High())
}

func (r *Runner) execLdio(i insts.IO) {
	v, ok := r.ioLoad(r.ioAddress(i), i.Bytes())
	if !ok {
		r.stallOn(StallLoadIoPending)
		return
	}
	r.writeReg(i.Dst(), v)
}

func (r *Runner) execStio(i insts.IO) {
	addr := r.ioAddress(i)
	v := r.regFile.ReadReg(i.Src())
	r.ioStore(addr, i.Bytes(), v)
	r.changes.add("IO: %s=%08X", ioName(addr), r.io.Word(addr))
}
