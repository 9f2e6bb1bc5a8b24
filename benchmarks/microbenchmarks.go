package benchmarks

import (
	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/loader"
	"github.com/sarchlab/runnersim/sim"
)

// GetMicrobenchmarks returns the standard set of Runner microbenchmarks.
// Each benchmark targets one part of the timing model.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		aluSequential(),
		countdownLoop(),
		functionCalls(),
		dmaBurst(),
		messageBurst(),
		contextSwitch(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		countdownLoop(),
		dmaBurst(),
		contextSwitch(),
	}
}

func single(words ...uint32) [sim.NumRunners][]uint32 {
	return [sim.NumRunners][]uint32{words}
}

// 1. ALU Sequential - one instruction per clock without stalls
func aluSequential() Benchmark {
	var code []uint32
	for i := 0; i < 20; i++ {
		code = append(code, EncodeAddImm(uint32(1+i%5), uint32(1+i%5), 1))
	}
	code = append(code, EncodePark())

	return Benchmark{
		Name:        "alu_sequential",
		Description: "20 independent adds - measures the single-issue baseline",
		Programs:    single(code...),
	}
}

// 2. Countdown Loop - a taken branch without delay slots per iteration
func countdownLoop() Benchmark {
	return Benchmark{
		Name:        "countdown_loop",
		Description: "64 iterations of sub + branch-if-nonzero",
		Programs: single(
			EncodeMovImm(1, 64),
			EncodeSubImm(1, 1, 1), // loop:
			EncodeBnez(1, -1),
			EncodePark(),
		),
	}
}

// 3. Function Calls - call stack push and return through delay slots
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls to a leaf function returning through 2 delay slots",
		Programs: single(
			EncodeCall(8),
			EncodeCall(7),
			EncodeCall(6),
			EncodePark(),
			insts.NopWord,
			insts.NopWord,
			insts.NopWord,
			insts.NopWord,
			EncodeAddImm(2, 2, 1), // leaf:
			EncodeRet(),
		),
	}
}

// 4. DMA Burst - one more read than the DMA FIFO holds
func dmaBurst() Benchmark {
	code := []uint32{
		EncodeMovImm(1, 0x100),
		EncodeMovImm(2, 0x200),
	}
	for i := 0; i < 8; i++ {
		code = append(code, EncodeDMARead(1, 2, 64))
	}
	code = append(code, EncodePark())

	return Benchmark{
		Name:        "dma_burst",
		Description: "8 back-to-back DMA reads - measures DMA FIFO full stalls",
		Programs:    single(code...),
		Setup: func(s *sim.Simulator) {
			words := make([]uint32, 0x80)
			for i := range words {
				words[i] = uint32(i)
			}
			s.LoadCommon(words)
		},
	}
}

// 5. Message Burst - buffer messages from runner 0 to runner 1
func messageBurst() Benchmark {
	return Benchmark{
		Name:        "message_burst",
		Description: "3 buffer messages to the co-runner",
		Programs: [sim.NumRunners][]uint32{
			{
				EncodeMovImm(1, emu.CoRunnerDest),
				EncodeBbmsg(1, 1, 0x11),
				EncodeBbmsg(1, 2, 0x22),
				EncodeBbmsg(1, 3, 0x33),
				EncodePark(),
			},
			{
				EncodePark(),
			},
		},
	}
}

// contextSwitchTarget is the word address thread 1 resumes at.
const contextSwitchTarget = 8

// 6. Context Switch - wake thread 1 and hand it the runner
func contextSwitch() Benchmark {
	code := []uint32{
		EncodeMovImm(1, 1<<4),
		EncodeStio(1, emu.IOFwWakeup),
		EncodePark(),
	}
	for len(code) < contextSwitchTarget {
		code = append(code, insts.NopWord)
	}
	code = append(code,
		EncodeAddImm(3, 3, 1),
		EncodePark(),
	)

	return Benchmark{
		Name:        "context_switch",
		Description: "sync wakeup of a second thread and the scheduler switch to it",
		Programs:    single(code...),
		Setup: func(s *sim.Simulator) {
			s.Runner(0).Context().SetWord(
				emu.NumPrivates+emu.LinkRegister, contextSwitchTarget*4<<16)
		},
	}
}

// Helper functions for building Runner programs

// programPadding is the number of NOPs appended to every program so that
// delay slots past the last instruction are harmless.
const programPadding = 8

// BuildProgram wraps code words into a loadable program.
func BuildProgram(code ...uint32) *loader.Program {
	words := make([]uint32, len(code)+programPadding)
	for i := range words {
		words[i] = insts.NopWord
	}
	copy(words, code)
	return &loader.Program{Code: words}
}

// EncodeMovImm encodes a move of a 16-bit immediate that clears the
// upper half.
func EncodeMovImm(dst, imm uint32) uint32 {
	return insts.Op6(insts.OpMovImm).
		With(insts.MovFields.Dst, dst).
		With(insts.MovFields.Imm, imm).
		Set(insts.MovFields.Clear).
		Uint32()
}

func encodeALUImm(op, dst, srcA, imm uint32) uint32 {
	return insts.Op6(op).
		Set(insts.ALUFields.Imm).
		With(insts.ALUFields.Dst, dst).
		With(insts.ALUFields.SrcA, srcA).
		With(insts.ALUFields.SrcB, imm).
		Uint32()
}

// EncodeAddImm encodes dst = srcA + imm.
func EncodeAddImm(dst, srcA, imm uint32) uint32 {
	return encodeALUImm(insts.OpAdd, dst, srcA, imm)
}

// EncodeSubImm encodes dst = srcA - imm.
func EncodeSubImm(dst, srcA, imm uint32) uint32 {
	return encodeALUImm(insts.OpSub, dst, srcA, imm)
}

// EncodeBnez encodes a branch of offset words taken while reg is not zero.
func EncodeBnez(reg uint32, offset int32) uint32 {
	return insts.Op6(insts.OpBez).
		Set(insts.BezFields.Imm).
		Set(insts.BezFields.Invert).
		With(insts.BezFields.SrcA, reg).
		With(insts.BezFields.Target, uint32(offset)).
		Uint32()
}

// EncodeCall encodes a PC-relative call of offset words.
func EncodeCall(offset int32) uint32 {
	return insts.Op6(insts.OpJmp).
		Set(insts.JmpFields.Imm).
		Set(insts.JmpFields.Call).
		With(insts.JmpFields.Target, uint32(offset)).
		Uint32()
}

// EncodeRet encodes a return.
func EncodeRet() uint32 {
	return insts.Op6(insts.OpRet).Uint32()
}

// EncodePark encodes a context swap that gives up the runner without
// saving the context.
func EncodePark() uint32 {
	return insts.Op6(insts.OpCtxSwap).Uint32()
}

// EncodeStio encodes a 4-byte store of src to an IO register.
func EncodeStio(src, addr uint32) uint32 {
	return insts.Op6(insts.OpStio).
		Set(insts.IOFields.Imm).
		With(insts.IOFields.Src, src).
		With(insts.IOFields.Addr, addr).
		With(insts.IOFields.Size, 2).
		Uint32()
}

// EncodeDMARead encodes a copy of length bytes from common[r(srcA)] to
// sram[r(srcC)].
func EncodeDMARead(srcC, srcA, length uint32) uint32 {
	return insts.Op6(insts.OpDmaRd).
		Set(insts.DmaFields.Imm).
		With(insts.DmaFields.SrcC, srcC).
		With(insts.DmaFields.SrcA, srcA).
		With(insts.DmaFields.SrcB, length).
		Uint32()
}

// EncodeBbmsg encodes a buffer message of typ to the destination held in
// destReg.
func EncodeBbmsg(destReg, typ, payload uint32) uint32 {
	return insts.Op6(insts.OpBbmsg).
		Set(insts.BbmsgFields.Imm).
		With(insts.BbmsgFields.SrcA, destReg).
		With(insts.BbmsgFields.SrcB, payload).
		With(insts.BbmsgFields.Type, typ).
		Uint32()
}
