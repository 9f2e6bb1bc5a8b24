package insts

import (
	"fmt"
	"strings"
)

var jmpCondNames = [...]string{"always", "z", "n", "gt"}

// String returns a human-readable disassembly. The text is a debugging
// aid and carries no format guarantee.
func (i *Instruction) String() string {
	switch i.Kind {
	case KindJmp:
		return disasmJmp(i.Jmp())
	case KindBez:
		b := i.Bez()
		op := "bez"
		if b.Invert() {
			op = "bnez"
		}
		return fmt.Sprintf("%s%s r%d%s, %s%s", op, callSuffix(b.Call()), b.SrcA(),
			[...]string{"", ".l16", ".h16", ""}[b.Size()],
			target(b.Immediate(), b.Target(), b.AddrReg()), dsSuffix(b.DelaySlots()))
	case KindCmpJmp:
		c := i.CmpJmp()
		ops := [...]string{"eq", "gt", "or", "and"}
		b := fmt.Sprintf("r%d", c.SrcB())
		if c.BImmediate() {
			b = fmt.Sprintf("#%d", c.SrcB())
		}
		inv := ""
		if c.Invert() {
			inv = "!"
		}
		return fmt.Sprintf("cmpjmp %s%s r%d, %s, %s", inv, ops[c.Op()], c.SrcA(), b,
			target(c.Immediate(), c.Target(), c.AddrReg()))
	case KindLjmp:
		l := i.Ljmp()
		return fmt.Sprintf("ljmp%s 0x%04x", callSuffix(l.Call()), l.Target()<<2)
	case KindRet:
		return "ret"
	case KindCtxSwap:
		c := i.CtxSwap()
		return fmt.Sprintf("ctx_swap%s imm=0x%04x save=%t async=%t",
			updSuffix(c.UpdateR16()), c.Imm(), c.Save(), c.Async())
	case KindLd, KindLdc, KindSt, KindStc:
		return disasmMem(i.Kind, i.Mem())
	case KindDmaRead, KindDmaWrite:
		d := i.Dma()
		return fmt.Sprintf("%s local=r%d%s remote=r%d%s len=%s calc=%t inv=%t%s%s",
			i.Kind, d.SrcC(), commonSuffix(d.Common()), d.SrcA(), memSuffix(d.Mem()),
			operand(d.Immediate(), d.SrcB()), d.AddrCalc(), d.Invoke(),
			updSuffix(d.UpdateR16()), csSuffix(d.CtxSwap()))
	case KindDmaLookup:
		d := i.DmaLookup()
		return fmt.Sprintf("dma_lkp local=r%d%s ddr=r%d%s len=%s slot=%d inv=%t%s%s",
			d.SrcC(), commonSuffix(d.Common()), d.SrcA(), memSuffix(d.Mem()),
			operand(d.Immediate(), d.SrcB()), d.Slot(), d.Invoke(),
			updSuffix(d.UpdateR16()), csSuffix(d.CtxSwap()))
	case KindAdd, KindSub, KindAnd, KindOr, KindXor, KindMult:
		a := i.ALU()
		b := operand(a.Immediate(), a.SrcB())
		if a.Invert() {
			b = "~" + b
		}
		if s := byteShiftText(a.ByteShift()); s != "" {
			b += s
		}
		return fmt.Sprintf("%s%s r%d, r%d, %s", i.Kind, flagSuffix(a.UpdateFlags()), a.Dst(), a.SrcA(), b)
	case KindShift:
		s := i.Shift()
		modes := [...]string{"asl", "asr", "ror", "ror16"}
		return fmt.Sprintf("%s%s r%d, r%d, %s", modes[s.Mode()], flagSuffix(s.UpdateFlags()),
			s.Dst(), s.SrcA(), operand(s.Immediate(), s.SrcB()))
	case KindSignExt:
		s := i.SignExt()
		return fmt.Sprintf("signext%s r%d, r%d, %s", flagSuffix(s.UpdateFlags()), s.Dst(), s.SrcA(),
			operand(s.Immediate(), s.SrcB()))
	case KindFfi:
		f := i.Ffi()
		return fmt.Sprintf("ffi%d r%d, r%d, %s", f.Window(), f.Dst(), f.SrcA(), operand(f.Immediate(), f.SrcB()))
	case KindExtract, KindInsert:
		b := i.BitField()
		return fmt.Sprintf("%s r%d, r%d, %d, %d", i.Kind, b.Dst(), b.SrcA(), b.Offset(), b.Width())
	case KindICheck:
		c := i.ICheck()
		last := ""
		if c.Last() {
			last = ".last"
		}
		return fmt.Sprintf("icheck%s r%d, r%d, r%d%s", last, c.Dst(), c.SrcA(), c.SrcB(),
			byteShiftText(c.ByteShift()))
	case KindMovImm:
		m := i.Mov()
		return fmt.Sprintf("mov r%d, 0x%04x high=%t clear=%t", m.Dst(), m.Imm(), m.High(), m.Clear())
	case KindLdio, KindStio:
		io := i.IO()
		addr := fmt.Sprintf("0x%03x", io.Addr())
		if !io.Immediate() {
			addr = fmt.Sprintf("r%d%s", io.AddrReg(), halfSuffix(io.High()))
		}
		reg := io.Dst()
		if i.Kind == KindStio {
			reg = io.Src()
		}
		return fmt.Sprintf("%s%d r%d, [%s]", i.Kind, io.Bytes()*8, reg, addr)
	case KindCntUp:
		c := i.CntUp()
		op := "inc"
		if c.Dec() {
			op = "dec"
		}
		return fmt.Sprintf("cntup.%s group=%s cnt=%s amount=r%d wrap=%t wide=%t", op,
			operand(c.ImmA(), c.SrcA()), operand(c.ImmB(), c.SrcB()), c.SrcC(), c.Wrap(), c.Wide())
	case KindBbtx:
		b := i.Bbtx()
		return fmt.Sprintf("bbtx src=r%d%s dst=r%d len=%s last=%t inc=%t inv=%t wait=%t",
			b.SrcC(), commonSuffix(b.Common()), b.SrcA(), operand(b.Immediate(), b.SrcB()),
			b.Last(), b.Inc(), b.Invoke(), b.Wait())
	case KindBbmsg:
		b := i.Bbmsg()
		return fmt.Sprintf("bbmsg dst=r%d type=%d payload=%s wide=%t wait=%t", b.SrcA(), b.Type(),
			operand(b.Immediate(), b.SrcB()), b.Wide(), b.Wait())
	case KindRamman:
		if RammanType.Flag(i.Word) {
			c := i.Cam()
			return fmt.Sprintf("cam key=r%d table=r%d%s keybytes=%d mask=%t slot=%d inv=%t",
				c.SrcC(), c.SrcA(), commonSuffix(c.Common()), c.KeyBytes(), c.Masked(), c.Slot(), c.Invoke())
		}
		c := i.Crc()
		return fmt.Sprintf("crc data=r%d%s seed=r%d len=%s eth=%t last=%t", c.SrcC(),
			commonSuffix(c.Common()), c.SrcA(), operand(c.Immediate(), c.SrcB()), c.Eth(), c.Last())
	case KindHash:
		h := i.Hash()
		ks := 48
		if h.Key60() {
			ks = 60
		}
		return fmt.Sprintf("hash table=%d key=r%d:r%d/%d slot=%d learn=%t inv=%t%s%s", h.Table(),
			h.SrcA(), h.SrcC(), ks, h.Slot(), h.Learn(), h.Invoke(), updSuffix(h.UpdateR16()), csSuffix(h.CtxSwap()))
	case KindCrypt:
		c := i.Crypt()
		mode := "cipher"
		if c.Hash() {
			mode = "auth"
		}
		return fmt.Sprintf("crypt.%s r%d len=%s first=%t last=%t inv=%t", mode, c.SrcA(),
			operand(c.Immediate(), c.SrcB()), c.First(), c.Last(), c.Invoke())
	case KindNop:
		return "nop"
	}
	return fmt.Sprintf("unknown 0x%08x", i.Word)
}

func disasmJmp(j Jmp) string {
	var cond string
	switch {
	case j.BitTest():
		cond = fmt.Sprintf("r%d[%d]", j.Cond()&0x1F, j.BitOffset())
	case j.Cond() < uint32(len(jmpCondNames)):
		cond = jmpCondNames[j.Cond()]
	default:
		var parts []string
		if j.Cond()&8 != 0 {
			parts = append(parts, "ovf")
		}
		if j.Cond()&4 != 0 {
			parts = append(parts, "cy")
		}
		cond = strings.Join(parts, "|")
	}
	if j.Invert() {
		cond = "!" + cond
	}
	return fmt.Sprintf("jmp%s %s, %s%s", callSuffix(j.Call()), cond,
		target(j.Immediate(), j.Target(), j.AddrReg()), dsSuffix(j.DelaySlots()))
}

func disasmMem(k Kind, m Mem) string {
	var addr string
	switch {
	case m.Direct():
		addr = fmt.Sprintf("r%d%s+%d", m.Base(), halfSuffix(m.High()), m.Offset())
	case m.Immediate():
		addr = fmt.Sprintf("0x%04x", m.Abs())
	default:
		addr = fmt.Sprintf("r%d%s+r%d", m.Base(), halfSuffix(m.High()), (m.Offset()>>1)&0x1F)
	}
	return fmt.Sprintf("%s%d r%d, [%s]", k, m.Bytes()*8, m.Dst(), addr)
}

func target(imm bool, off int32, reg uint8) string {
	if imm {
		return fmt.Sprintf("pc%+d", off*4)
	}
	return fmt.Sprintf("r%d", reg)
}

func operand(imm bool, v uint32) string {
	if imm {
		return fmt.Sprintf("#%d", v)
	}
	return fmt.Sprintf("r%d", v&0x1F)
}

func byteShiftText(code uint32) string {
	switch code {
	case 1, 2, 3:
		return fmt.Sprintf("<<%d", code*8)
	case 5, 6, 7:
		return fmt.Sprintf(">>%d", (8-code)*8)
	}
	return ""
}

func callSuffix(call bool) string {
	if call {
		return ".call"
	}
	return ""
}

func dsSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" ds=%d", n)
}

func flagSuffix(update bool) string {
	if update {
		return ".f"
	}
	return ""
}

func updSuffix(update bool) string {
	if update {
		return " upd_r16"
	}
	return ""
}

func csSuffix(cs bool) string {
	if cs {
		return " cs"
	}
	return ""
}

func commonSuffix(common bool) string {
	if common {
		return "(common)"
	}
	return ""
}

func memSuffix(mem bool) string {
	if mem {
		return "(m1)"
	}
	return ""
}

func halfSuffix(high bool) string {
	if high {
		return ".h"
	}
	return ".l"
}
