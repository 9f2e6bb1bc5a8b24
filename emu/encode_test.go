package emu_test

import (
	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/insts"
)

// Instruction encoders shared by the runner tests.

func movImm(dst, imm uint32) uint32 {
	return insts.Op6(insts.OpMovImm).
		With(insts.MovFields.Dst, dst).
		With(insts.MovFields.Imm, imm).
		Set(insts.MovFields.Clear).
		Uint32()
}

func addImm(dst, srcA, imm uint32, flags bool) uint32 {
	w := insts.Op6(insts.OpAdd).
		Set(insts.ALUFields.Imm).
		With(insts.ALUFields.Dst, dst).
		With(insts.ALUFields.SrcA, srcA).
		With(insts.ALUFields.SrcB, imm)
	if flags {
		w = w.Set(insts.ALUFields.UpdateFlags)
	}
	return w.Uint32()
}

// jmpRel is an unconditional PC-relative jump of offset words.
func jmpRel(offset int32, slots uint32, call bool) uint32 {
	w := insts.Op6(insts.OpJmp).
		Set(insts.JmpFields.Imm).
		With(insts.JmpFields.DelaySlots, slots).
		With(insts.JmpFields.Target, uint32(offset))
	if call {
		w = w.Set(insts.JmpFields.Call)
	}
	return w.Uint32()
}

// selfLoop jumps to itself forever.
func selfLoop() uint32 {
	return jmpRel(0, 0, false)
}

func bez(reg uint32, offset int32, slots uint32) uint32 {
	return insts.Op6(insts.OpBez).
		Set(insts.BezFields.Imm).
		With(insts.BezFields.SrcA, reg).
		With(insts.BezFields.DelaySlots, slots).
		With(insts.BezFields.Target, uint32(offset)).
		Uint32()
}

func ljmpCall(wordAddr uint32) uint32 {
	return insts.Op6(insts.OpLjmp).
		Set(insts.LjmpFields.Call).
		With(insts.LjmpFields.Target, wordAddr).
		Uint32()
}

func ret() uint32 {
	return insts.Op6(insts.OpRet).Uint32()
}

func ctxSwap(save bool) uint32 {
	w := insts.Op6(insts.OpCtxSwap)
	if save {
		w = w.Set(insts.CtxSwapFields.Save)
	}
	return w.Uint32()
}

// ctxSwapLink swaps with save and sets the resume address to imm.
func ctxSwapLink(imm uint32) uint32 {
	return insts.Op6(insts.OpCtxSwap).
		Set(insts.CtxSwapFields.Save).
		Set(insts.CtxSwapFields.UpdateR16).
		With(insts.CtxSwapFields.Imm, imm).
		Uint32()
}

func ioWord(op, reg, addr uint32) uint32 {
	field := insts.IOFields.Src
	if op == insts.OpLdio {
		field = insts.IOFields.Dst
	}
	return insts.Op6(op).
		Set(insts.IOFields.Imm).
		With(field, reg).
		With(insts.IOFields.Addr, addr).
		With(insts.IOFields.Size, 2).
		Uint32()
}

func stio(src, addr uint32) uint32 { return ioWord(insts.OpStio, src, addr) }

func ldio(dst, addr uint32) uint32 { return ioWord(insts.OpLdio, dst, addr) }

// stioByte stores the low byte of src at addr.
func stioByte(src, addr uint32) uint32 {
	return insts.Op6(insts.OpStio).
		Set(insts.IOFields.Imm).
		With(insts.IOFields.Src, src).
		With(insts.IOFields.Addr, addr).
		Uint32()
}

func ldAbs(dst, addr uint32) uint32 {
	return insts.Op6(insts.OpLd).
		Set(insts.MemFields.Imm).
		With(insts.MemFields.Dst, dst).
		With(insts.MemFields.Abs, addr).
		With(insts.MemFields.Size, 2).
		Uint32()
}

// dmaRead copies length bytes from common[r(srcA)] to sram[r(srcC)].
func dmaRead(srcC, srcA, length uint32) uint32 {
	return insts.Op6(insts.OpDmaRd).
		Set(insts.DmaFields.Imm).
		With(insts.DmaFields.SrcC, srcC).
		With(insts.DmaFields.SrcA, srcA).
		With(insts.DmaFields.SrcB, length).
		Uint32()
}

func bbmsg(destReg, typ, payload uint32) uint32 {
	return insts.Op6(insts.OpBbmsg).
		Set(insts.BbmsgFields.Imm).
		With(insts.BbmsgFields.SrcA, destReg).
		With(insts.BbmsgFields.SrcB, payload).
		With(insts.BbmsgFields.Type, typ).
		Uint32()
}

// program loads words at address 0 followed by NOPs.
func program(r *emu.Runner, words ...uint32) {
	code := r.Code()
	for i := range code.Words() {
		code.SetWord(i, insts.NopWord)
	}
	for i, w := range words {
		code.SetWord(i, w)
	}
}
