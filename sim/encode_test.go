package sim_test

import (
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/loader"
)

func movImm(dst, imm uint32) uint32 {
	return insts.Op6(insts.OpMovImm).
		With(insts.MovFields.Dst, dst).
		With(insts.MovFields.Imm, imm).
		Set(insts.MovFields.Clear).
		Uint32()
}

func selfLoop() uint32 {
	return insts.Op6(insts.OpJmp).Set(insts.JmpFields.Imm).Uint32()
}

// park gives up the context without saving it.
func park() uint32 {
	return insts.Op6(insts.OpCtxSwap).Uint32()
}

func ldio(dst, addr uint32) uint32 {
	return insts.Op6(insts.OpLdio).
		Set(insts.IOFields.Imm).
		With(insts.IOFields.Dst, dst).
		With(insts.IOFields.Addr, addr).
		With(insts.IOFields.Size, 2).
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

func bbmsg(destReg, typ, payload uint32) uint32 {
	return insts.Op6(insts.OpBbmsg).
		Set(insts.BbmsgFields.Imm).
		With(insts.BbmsgFields.SrcA, destReg).
		With(insts.BbmsgFields.SrcB, payload).
		With(insts.BbmsgFields.Type, typ).
		Uint32()
}

// image builds a code image padded with NOPs.
func image(words ...uint32) *loader.Program {
	code := make([]uint32, len(words)+8)
	for i := range code {
		code[i] = insts.NopWord
	}
	copy(code, words)
	return &loader.Program{Code: code}
}
