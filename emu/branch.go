package emu

import "github.com/sarchlab/runnersim/insts"

// Jump condition codes.
const (
	CondAlways  uint32 = 0
	CondZero    uint32 = 1
	CondNeg     uint32 = 2
	CondGreater uint32 = 3
	CondCarry   uint32 = 4
	CondOvf     uint32 = 8
)

// CallStackDepth is the number of return addresses kept.
const CallStackDepth = 4

// BranchUnit evaluates jump conditions and targets.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Condition evaluates a conditional jump.
func (b *BranchUnit) Condition(j insts.Jmp) bool {
	var taken bool
	if j.BitTest() {
		taken = b.regFile.ReadReg(uint8(j.Cond()))>>j.BitOffset()&1 != 0
	} else {
		taken = b.flagCondition(j.Cond())
	}
	if j.Invert() {
		taken = !taken
	}
	return taken
}

func (b *BranchUnit) flagCondition(cond uint32) bool {
	switch cond {
	case CondAlways:
		return true
	case CondZero:
		return b.regFile.Flag(FlagZ)
	case CondNeg:
		return b.regFile.Flag(FlagN)
	case CondGreater:
		return !b.regFile.Flag(FlagZ) && !b.regFile.Flag(FlagN)
	}
	switch {
	case cond&CondOvf != 0:
		return b.regFile.Flag(FlagOVF)
	case cond&CondCarry != 0:
		return b.regFile.Flag(FlagCY)
	}
	return false
}

// ZeroTest evaluates a branch-if-zero.
func (b *BranchUnit) ZeroTest(z insts.Bez) bool {
	v := b.regFile.ReadReg(z.SrcA())
	switch z.Size() {
	case insts.BezLow16:
		v &= 0xFFFF
	case insts.BezHigh:
		v >>= 16
	}
	taken := v == 0
	if z.Invert() {
		taken = !taken
	}
	return taken
}

// Compare evaluates a compare-and-jump.
func (b *BranchUnit) Compare(c insts.CmpJmp) bool {
	x := b.regFile.ReadReg(c.SrcA())
	y := uint32(c.SrcB())
	if !c.BImmediate() {
		y = b.regFile.ReadReg(c.SrcB())
	}
	var taken bool
	switch c.Op() {
	case insts.CmpEqual:
		taken = x == y
	case insts.CmpGreater:
		taken = x > y
	case insts.CmpBitOr:
		taken = x|y != 0
	case insts.CmpBitAnd:
		taken = x&y != 0
	}
	if c.Invert() {
		taken = !taken
	}
	return taken
}

// Target resolves a PC-relative or register jump target.
func (b *BranchUnit) Target(pc uint32, immediate bool, offset int32, areg uint8) uint32 {
	if immediate {
		return uint32(int32(pc)+offset*4) & PCMask
	}
	return b.regFile.ReadReg(areg) & PCMask
}

// CallStack is the fixed-depth return address stack.
type CallStack struct {
	entries []uint32
}

// Push saves a return address. When the stack is full the oldest entry
// is discarded and Push reports the overflow.
func (s *CallStack) Push(addr uint32) (overflow bool) {
	if len(s.entries) == CallStackDepth {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:CallStackDepth-1]
		overflow = true
	}
	s.entries = append(s.entries, addr&PCMask)
	return overflow
}

// Pop returns the newest return address.
func (s *CallStack) Pop() (uint32, bool) {
	if len(s.entries) == 0 {
		return 0, false
	}
	n := len(s.entries) - 1
	addr := s.entries[n]
	s.entries = s.entries[:n]
	return addr, true
}

// Depth returns the number of saved addresses.
func (s *CallStack) Depth() int {
	return len(s.entries)
}

// Reset empties the stack.
func (s *CallStack) Reset() {
	s.entries = s.entries[:0]
}
