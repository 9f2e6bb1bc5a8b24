package emu

import (
	"math/bits"

	"github.com/sarchlab/runnersim/insts"
)

// ALU implements the Runner arithmetic, logic and bit operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ByteShift applies an operand-B byte shift code. Codes 1-3 shift left
// by 8, 16 and 24 bits; codes 7-5 shift right by the same amounts.
func ByteShift(v, code uint32) uint32 {
	switch code {
	case 1:
		return v << 8
	case 2:
		return v << 16
	case 3:
		return v << 24
	case 7:
		return v >> 8
	case 6:
		return v >> 16
	case 5:
		return v >> 24
	}
	return v
}

// OperandB shifts and optionally inverts the second ALU operand.
func OperandB(v, shift uint32, invert bool) uint32 {
	v = ByteShift(v, shift)
	if invert {
		v = ^v
	}
	return v
}

// Arith computes kind over x and y and writes the 32-bit result to dst.
// A result that does not fit in 32 bits sets OVF even when the flags are
// not updated. With update, Z, N and CY are recomputed from the written
// value, and OVF is set on a carry out or on signed overflow.
func (a *ALU) Arith(kind insts.Kind, dst uint8, x, y uint32, update bool) uint32 {
	var (
		wide      uint64
		carry     bool
		signedOvf bool
	)

	switch kind {
	case insts.KindAdd:
		wide = uint64(x) + uint64(y)
		carry = wide > 0xFFFFFFFF
		res := uint32(wide)
		signedOvf = (x^res)&(y^res)&0x80000000 != 0
	case insts.KindSub:
		wide = uint64(x) - uint64(y)
		carry = x < y
		res := uint32(wide)
		signedOvf = (x^y)&(x^res)&0x80000000 != 0
	case insts.KindMult:
		wide = uint64(x) * uint64(y)
		carry = wide>>32 != 0
		signedOvf = carry
	case insts.KindAnd:
		wide = uint64(x & y)
	case insts.KindOr:
		wide = uint64(x | y)
	case insts.KindXor:
		wide = uint64(x ^ y)
	}

	res := uint32(wide)
	a.regFile.WriteReg(dst, res)

	if !update {
		if carry {
			a.regFile.SetFlag(FlagOVF, true)
		}
		return res
	}

	a.setResultFlags(res)
	a.regFile.SetFlag(FlagCY, carry)
	a.regFile.SetFlag(FlagOVF, carry || signedOvf)
	return res
}

// setResultFlags sets Z and N from v and clears CY and OVF.
func (a *ALU) setResultFlags(v uint32) {
	f := a.regFile.Flags &^ (FlagZ | FlagN | FlagCY | FlagOVF)
	if v == 0 {
		f |= FlagZ
	}
	if v&0x80000000 != 0 {
		f |= FlagN
	}
	a.regFile.Flags = f
}

// Move writes a 16-bit immediate into the low or high half of dst. With
// clear the other half is zeroed, otherwise it is kept.
func (a *ALU) Move(dst uint8, imm uint32, high, clear bool) uint32 {
	imm &= 0xFFFF
	old := a.regFile.ReadReg(dst)
	var v uint32
	switch {
	case high && clear:
		v = imm << 16
	case high:
		v = old&0xFFFF | imm<<16
	case clear:
		v = imm
	default:
		v = old&0xFFFF0000 | imm
	}
	a.regFile.WriteReg(dst, v)
	return v
}

// Shift shifts or rotates x by amount according to mode.
func (a *ALU) Shift(dst uint8, x, amount, mode uint32, update bool) uint32 {
	amount &= 31
	var v uint32
	switch mode {
	case insts.ShiftLeft:
		v = x << amount
	case insts.ShiftArith:
		v = uint32(int32(x) >> amount)
	case insts.ShiftRotate:
		v = bits.RotateLeft32(x, -int(amount))
	case insts.ShiftRotate16:
		lo := uint16(x)
		v = x&0xFFFF0000 | uint32(bits.RotateLeft16(lo, -int(amount%16)))
	}
	a.regFile.WriteReg(dst, v)
	if update {
		a.setResultFlags(v)
	}
	return v
}

// SignExtend replicates bit of x into every higher bit.
func (a *ALU) SignExtend(dst uint8, x, bit uint32, update bool) uint32 {
	s := 31 - bit&31
	v := uint32(int32(x<<s) >> s)
	a.regFile.WriteReg(dst, v)
	if update {
		a.setResultFlags(v)
	}
	return v
}

// FindFirstSet scans the low window bits of x upward from start,
// wrapping inside the window, and returns the first set bit index or
// 0x20 when none is set.
func FindFirstSet(x, start, window uint32) uint32 {
	if window < 32 {
		x &= 1<<window - 1
	}
	for i := uint32(0); i < window; i++ {
		b := (start + i) % window
		if x>>b&1 != 0 {
			return b
		}
	}
	return 0x20
}

func fieldMask(width uint32) uint32 {
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<width - 1
}

// Extract returns width bits of x starting at off.
func Extract(x, width, off uint32) uint32 {
	return (x >> (off & 31)) & fieldMask(width)
}

// Insert replaces width bits of old at off with the low bits of x.
func Insert(old, x, width, off uint32) uint32 {
	m := fieldMask(width) << (off & 31)
	return old&^m | (x<<(off&31))&m
}

// OnesComplementAdd folds x+y into a 16-bit one's complement sum.
func OnesComplementAdd(x, y uint32) uint32 {
	s := uint64(x) + uint64(y)
	for s > 0xFFFF {
		s = s&0xFFFF + s>>16
	}
	return uint32(s)
}

// ChecksumHalf selects, swaps and shifts the 16-bit checksum operand.
func ChecksumHalf(v uint32, high, reverse bool, shift uint32) uint32 {
	h := uint16(v)
	if high {
		h = uint16(v >> 16)
	}
	if reverse {
		h = bits.ReverseBytes16(h)
	}
	return ByteShift(uint32(h), shift)
}
