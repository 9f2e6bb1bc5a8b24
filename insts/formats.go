package insts

// JmpFields is the layout of the conditional and register jump.
var JmpFields = struct {
	BitTest, Imm, BitOffset, Call, Cond, DelaySlots, Invert, Update, AddrReg, Target Range
}{
	BitTest:    Range{5, 6},
	Imm:        Range{6, 7},
	BitOffset:  Range{7, 12},
	Call:       Range{12, 13},
	Cond:       Range{13, 18},
	DelaySlots: Range{18, 20},
	Invert:     Range{20, 21},
	Update:     Range{21, 22},
	AddrReg:    Range{27, 32},
	Target:     Range{22, 32},
}

// Jmp is the conditional/register jump view.
type Jmp uint32

// BitTest reports the bit-test condition mode.
func (j Jmp) BitTest() bool { return JmpFields.BitTest.Flag(uint32(j)) }

// Immediate reports whether the target is an immediate offset.
func (j Jmp) Immediate() bool { return JmpFields.Imm.Flag(uint32(j)) }

// BitOffset is the tested bit in bit-test mode.
func (j Jmp) BitOffset() uint32 { return JmpFields.BitOffset.Get(uint32(j)) }

// Call reports a call-form jump.
func (j Jmp) Call() bool { return JmpFields.Call.Flag(uint32(j)) }

// Cond is the condition code, or the condition register in bit-test mode.
func (j Jmp) Cond() uint32 { return JmpFields.Cond.Get(uint32(j)) }

// DelaySlots is the number of delay-slot instructions.
func (j Jmp) DelaySlots() int { return int(JmpFields.DelaySlots.Get(uint32(j))) }

// Invert flips the condition.
func (j Jmp) Invert() bool { return JmpFields.Invert.Flag(uint32(j)) }

// Update is the branch-prediction hint.
func (j Jmp) Update() bool { return JmpFields.Update.Flag(uint32(j)) }

// AddrReg is the register holding a register target.
func (j Jmp) AddrReg() uint8 { return JmpFields.AddrReg.Reg(uint32(j)) }

// Target is the signed 10-bit word offset.
func (j Jmp) Target() int32 { return signExtend(JmpFields.Target.Get(uint32(j)), 10) }

// BezFields is the layout of the branch-if-zero.
var BezFields = struct {
	Imm, Size, Call, SrcA, DelaySlots, Invert, Update, AddrReg, Target Range
}{
	Imm:        Range{6, 7},
	Size:       Range{10, 12},
	Call:       Range{12, 13},
	SrcA:       Range{13, 18},
	DelaySlots: Range{18, 20},
	Invert:     Range{20, 21},
	Update:     Range{21, 22},
	AddrReg:    Range{27, 32},
	Target:     Range{22, 32},
}

// Bez half-select values.
const (
	BezWhole uint32 = 0
	BezLow16 uint32 = 1
	BezHigh  uint32 = 2
)

// Bez is the branch-if-zero view.
type Bez uint32

// Immediate reports whether the target is an immediate offset.
func (b Bez) Immediate() bool { return BezFields.Imm.Flag(uint32(b)) }

// Size selects the tested half.
func (b Bez) Size() uint32 { return BezFields.Size.Get(uint32(b)) }

// Call reports a call-form branch.
func (b Bez) Call() bool { return BezFields.Call.Flag(uint32(b)) }

// SrcA is the tested register.
func (b Bez) SrcA() uint8 { return BezFields.SrcA.Reg(uint32(b)) }

// DelaySlots is the number of delay-slot instructions.
func (b Bez) DelaySlots() int { return int(BezFields.DelaySlots.Get(uint32(b))) }

// Invert branches on nonzero instead.
func (b Bez) Invert() bool { return BezFields.Invert.Flag(uint32(b)) }

// AddrReg is the register holding a register target.
func (b Bez) AddrReg() uint8 { return BezFields.AddrReg.Reg(uint32(b)) }

// Target is the signed 10-bit word offset.
func (b Bez) Target() int32 { return signExtend(BezFields.Target.Get(uint32(b)), 10) }

// CmpJmpFields is the layout of the compare-and-jump.
var CmpJmpFields = struct {
	Imm, SrcB, BSel, SrcA, Op, Invert, Update, AddrReg, Target Range
}{
	Imm:     Range{6, 7},
	SrcB:    Range{7, 12},
	BSel:    Range{12, 13},
	SrcA:    Range{13, 18},
	Op:      Range{18, 20},
	Invert:  Range{20, 21},
	Update:  Range{21, 22},
	AddrReg: Range{27, 32},
	Target:  Range{22, 32},
}

// Compare-and-jump operations.
const (
	CmpEqual   uint32 = 0
	CmpGreater uint32 = 1
	CmpBitOr   uint32 = 2
	CmpBitAnd  uint32 = 3
)

// CmpJmp is the compare-and-jump view.
type CmpJmp uint32

// Immediate reports whether the target is an immediate offset.
func (c CmpJmp) Immediate() bool { return CmpJmpFields.Imm.Flag(uint32(c)) }

// SrcB is register B, or a 5-bit immediate when BImmediate is set.
func (c CmpJmp) SrcB() uint8 { return CmpJmpFields.SrcB.Reg(uint32(c)) }

// BImmediate reports an immediate B operand.
func (c CmpJmp) BImmediate() bool { return CmpJmpFields.BSel.Flag(uint32(c)) }

// SrcA is register A.
func (c CmpJmp) SrcA() uint8 { return CmpJmpFields.SrcA.Reg(uint32(c)) }

// Op is the comparison.
func (c CmpJmp) Op() uint32 { return CmpJmpFields.Op.Get(uint32(c)) }

// Invert flips the comparison.
func (c CmpJmp) Invert() bool { return CmpJmpFields.Invert.Flag(uint32(c)) }

// AddrReg is the register holding a register target.
func (c CmpJmp) AddrReg() uint8 { return CmpJmpFields.AddrReg.Reg(uint32(c)) }

// Target is the signed 10-bit word offset.
func (c CmpJmp) Target() int32 { return signExtend(CmpJmpFields.Target.Get(uint32(c)), 10) }

// LjmpFields is the layout of the long jump.
var LjmpFields = struct {
	Call, Target Range
}{
	Call:   Range{12, 13},
	Target: Range{18, 32},
}

// Ljmp is the long jump view.
type Ljmp uint32

// Call reports a call-form jump.
func (l Ljmp) Call() bool { return LjmpFields.Call.Flag(uint32(l)) }

// Target is the absolute word address.
func (l Ljmp) Target() uint32 { return LjmpFields.Target.Get(uint32(l)) }

// CtxSwapFields is the layout of the context swap.
var CtxSwapFields = struct {
	Imm, Save, UpdateR16, Async Range
}{
	Imm:       Range{12, 28},
	Save:      Range{29, 30},
	UpdateR16: Range{30, 31},
	Async:     Range{31, 32},
}

// CtxSwap is the context swap view.
type CtxSwap uint32

// Imm is the resume address written to the link register.
func (c CtxSwap) Imm() uint32 { return CtxSwapFields.Imm.Get(uint32(c)) }

// Save requests the current registers be saved.
func (c CtxSwap) Save() bool { return CtxSwapFields.Save.Flag(uint32(c)) }

// UpdateR16 requests the link register update.
func (c CtxSwap) UpdateR16() bool { return CtxSwapFields.UpdateR16.Flag(uint32(c)) }

// Async enables async wakeups for the current thread.
func (c CtxSwap) Async() bool { return CtxSwapFields.Async.Flag(uint32(c)) }

// MemFields is the layout shared by LD, LDC, ST and STC.
var MemFields = struct {
	Imm, Dst, High, Base, Offset, Direct, Size, Abs Range
}{
	Imm:    Range{6, 7},
	Dst:    Range{7, 12},
	High:   Range{12, 13},
	Base:   Range{13, 18},
	Offset: Range{18, 29},
	Direct: Range{29, 30},
	Size:   Range{30, 32},
	Abs:    Range{12, 28},
}

// Mem is the load/store view.
type Mem uint32

// Immediate selects absolute addressing in indexed mode.
func (m Mem) Immediate() bool { return MemFields.Imm.Flag(uint32(m)) }

// Dst is the loaded register, or the stored register.
func (m Mem) Dst() uint8 { return MemFields.Dst.Reg(uint32(m)) }

// High selects the high half of the base register.
func (m Mem) High() bool { return MemFields.High.Flag(uint32(m)) }

// Base is the base register.
func (m Mem) Base() uint8 { return MemFields.Base.Reg(uint32(m)) }

// Offset is the 11-bit offset, or the index register in bits 1..5.
func (m Mem) Offset() uint32 { return MemFields.Offset.Get(uint32(m)) }

// Direct selects register-indirect-with-offset addressing.
func (m Mem) Direct() bool { return MemFields.Direct.Flag(uint32(m)) }

// Bytes is the access width in bytes.
func (m Mem) Bytes() int { return 1 << MemFields.Size.Get(uint32(m)) }

// Abs is the absolute 16-bit address.
func (m Mem) Abs() uint32 { return MemFields.Abs.Get(uint32(m)) }

// MovFields is the layout of the move-immediate.
var MovFields = struct {
	Dst, Imm, High, Clear Range
}{
	Dst:   Range{7, 12},
	Imm:   Range{12, 28},
	High:  Range{28, 29},
	Clear: Range{29, 30},
}

// Mov is the move-immediate view.
type Mov uint32

// Dst is the destination register.
func (m Mov) Dst() uint8 { return MovFields.Dst.Reg(uint32(m)) }

// Imm is the 16-bit immediate.
func (m Mov) Imm() uint32 { return MovFields.Imm.Get(uint32(m)) }

// High places the immediate in the upper half.
func (m Mov) High() bool { return MovFields.High.Flag(uint32(m)) }

// Clear replaces the whole register.
func (m Mov) Clear() bool { return MovFields.Clear.Flag(uint32(m)) }

// ALUFields is the layout of add, sub, and, or, xor and mult.
var ALUFields = struct {
	Imm, Dst, SrcA, UpdateFlags, SrcB, Invert, ByteShift Range
}{
	Imm:         Range{6, 7},
	Dst:         Range{7, 12},
	SrcA:        Range{13, 18},
	UpdateFlags: Range{18, 19},
	SrcB:        Range{20, 28},
	Invert:      Range{28, 29},
	ByteShift:   Range{29, 32},
}

// ALU is the two-operand ALU view.
type ALU uint32

// Immediate reports an immediate B operand.
func (a ALU) Immediate() bool { return ALUFields.Imm.Flag(uint32(a)) }

// Dst is the destination register.
func (a ALU) Dst() uint8 { return ALUFields.Dst.Reg(uint32(a)) }

// SrcA is register A.
func (a ALU) SrcA() uint8 { return ALUFields.SrcA.Reg(uint32(a)) }

// UpdateFlags requests a flag update.
func (a ALU) UpdateFlags() bool { return ALUFields.UpdateFlags.Flag(uint32(a)) }

// SrcB is the raw 8-bit B field.
func (a ALU) SrcB() uint32 { return ALUFields.SrcB.Get(uint32(a)) }

// Invert complements operand B.
func (a ALU) Invert() bool { return ALUFields.Invert.Flag(uint32(a)) }

// ByteShift is the operand-B byte shift code.
func (a ALU) ByteShift() uint32 { return ALUFields.ByteShift.Get(uint32(a)) }

// ShiftFields is the layout of the shift.
var ShiftFields = struct {
	Imm, Dst, SrcA, UpdateFlags, SrcB, Mode Range
}{
	Imm:         Range{6, 7},
	Dst:         Range{7, 12},
	SrcA:        Range{13, 18},
	UpdateFlags: Range{18, 19},
	SrcB:        Range{23, 28},
	Mode:        Range{30, 32},
}

// Shift modes.
const (
	ShiftLeft     uint32 = 0
	ShiftArith    uint32 = 1
	ShiftRotate   uint32 = 2
	ShiftRotate16 uint32 = 3
)

// Shift is the shift view.
type Shift uint32

// Immediate reports an immediate amount.
func (s Shift) Immediate() bool { return ShiftFields.Imm.Flag(uint32(s)) }

// Dst is the destination register.
func (s Shift) Dst() uint8 { return ShiftFields.Dst.Reg(uint32(s)) }

// SrcA is the shifted register.
func (s Shift) SrcA() uint8 { return ShiftFields.SrcA.Reg(uint32(s)) }

// UpdateFlags requests a flag update.
func (s Shift) UpdateFlags() bool { return ShiftFields.UpdateFlags.Flag(uint32(s)) }

// SrcB is the amount register or immediate.
func (s Shift) SrcB() uint32 { return ShiftFields.SrcB.Get(uint32(s)) }

// Mode is the shift mode.
func (s Shift) Mode() uint32 { return ShiftFields.Mode.Get(uint32(s)) }

// SignExtFields is the layout of the sign extend.
var SignExtFields = struct {
	Imm, Dst, SrcA, UpdateFlags, SrcB Range
}{
	Imm:         Range{6, 7},
	Dst:         Range{7, 12},
	SrcA:        Range{13, 18},
	UpdateFlags: Range{18, 19},
	SrcB:        Range{23, 28},
}

// SignExt is the sign-extend view.
type SignExt uint32

// Immediate selects the fixed 8/16-bit forms.
func (s SignExt) Immediate() bool { return SignExtFields.Imm.Flag(uint32(s)) }

// Dst is the destination register.
func (s SignExt) Dst() uint8 { return SignExtFields.Dst.Reg(uint32(s)) }

// SrcA is the extended register.
func (s SignExt) SrcA() uint8 { return SignExtFields.SrcA.Reg(uint32(s)) }

// UpdateFlags requests a flag update.
func (s SignExt) UpdateFlags() bool { return SignExtFields.UpdateFlags.Flag(uint32(s)) }

// SrcB is the sign-bit register or the width selector.
func (s SignExt) SrcB() uint32 { return SignExtFields.SrcB.Get(uint32(s)) }

// FfiFields is the layout of the find-first-set.
var FfiFields = struct {
	Imm, Dst, SrcA, SrcB, Size Range
}{
	Imm:  Range{6, 7},
	Dst:  Range{7, 12},
	SrcA: Range{13, 18},
	SrcB: Range{23, 28},
	Size: Range{30, 32},
}

// Ffi is the find-first-set view.
type Ffi uint32

// Immediate reports an immediate start bit.
func (f Ffi) Immediate() bool { return FfiFields.Imm.Flag(uint32(f)) }

// Dst is the destination register.
func (f Ffi) Dst() uint8 { return FfiFields.Dst.Reg(uint32(f)) }

// SrcA is the searched register.
func (f Ffi) SrcA() uint8 { return FfiFields.SrcA.Reg(uint32(f)) }

// SrcB is the start-bit register or immediate.
func (f Ffi) SrcB() uint32 { return FfiFields.SrcB.Get(uint32(f)) }

// Window is the search width in bits.
func (f Ffi) Window() uint32 {
	switch FfiFields.Size.Get(uint32(f)) {
	case 0:
		return 8
	case 1:
		return 16
	}
	return 32
}

// BitFieldFields is the layout of insert and extract.
var BitFieldFields = struct {
	Dst, SrcA, Width, Offset Range
}{
	Dst:    Range{7, 12},
	SrcA:   Range{13, 18},
	Width:  Range{18, 23},
	Offset: Range{23, 28},
}

// BitField is the insert/extract view.
type BitField uint32

// Dst is the destination register.
func (b BitField) Dst() uint8 { return BitFieldFields.Dst.Reg(uint32(b)) }

// SrcA is the source register.
func (b BitField) SrcA() uint8 { return BitFieldFields.SrcA.Reg(uint32(b)) }

// Width is the field width; 0 encodes 32.
func (b BitField) Width() uint32 {
	w := BitFieldFields.Width.Get(uint32(b))
	if w == 0 {
		return 32
	}
	return w
}

// Offset is the field position.
func (b BitField) Offset() uint32 { return BitFieldFields.Offset.Get(uint32(b)) }

// ICheckFields is the layout of the integrity check.
var ICheckFields = struct {
	Last, Dst, SrcA, High, Reverse, SrcB, ByteShift Range
}{
	Last:      Range{6, 7},
	Dst:       Range{7, 12},
	SrcA:      Range{12, 18},
	High:      Range{18, 19},
	Reverse:   Range{19, 20},
	SrcB:      Range{20, 28},
	ByteShift: Range{29, 32},
}

// ICheck is the integrity-check view.
type ICheck uint32

// Last finalizes the checksum.
func (c ICheck) Last() bool { return ICheckFields.Last.Flag(uint32(c)) }

// Dst is the destination register.
func (c ICheck) Dst() uint8 { return ICheckFields.Dst.Reg(uint32(c)) }

// SrcA is the accumulator register.
func (c ICheck) SrcA() uint8 { return ICheckFields.SrcA.Reg(uint32(c)) }

// High selects the upper half of register B.
func (c ICheck) High() bool { return ICheckFields.High.Flag(uint32(c)) }

// Reverse byte-swaps the half word.
func (c ICheck) Reverse() bool { return ICheckFields.Reverse.Flag(uint32(c)) }

// SrcB is the data register.
func (c ICheck) SrcB() uint8 { return ICheckFields.SrcB.Reg(uint32(c)) }

// ByteShift is the data byte shift code.
func (c ICheck) ByteShift() uint32 { return ICheckFields.ByteShift.Get(uint32(c)) }

// IOFields is the layout of ldio and stio.
var IOFields = struct {
	Imm, Dst, High, Src, AddrReg, Size, Addr Range
}{
	Imm:     Range{6, 7},
	Dst:     Range{7, 12},
	High:    Range{12, 13},
	Src:     Range{13, 18},
	AddrReg: Range{23, 28},
	Size:    Range{30, 32},
	Addr:    Range{18, 28},
}

// IO is the ldio/stio view.
type IO uint32

// Immediate selects the immediate IO address.
func (i IO) Immediate() bool { return IOFields.Imm.Flag(uint32(i)) }

// Dst is the loaded register.
func (i IO) Dst() uint8 { return IOFields.Dst.Reg(uint32(i)) }

// High selects the upper half of the address register.
func (i IO) High() bool { return IOFields.High.Flag(uint32(i)) }

// Src is the stored register.
func (i IO) Src() uint8 { return IOFields.Src.Reg(uint32(i)) }

// AddrReg holds the IO address in register form.
func (i IO) AddrReg() uint8 { return IOFields.AddrReg.Reg(uint32(i)) }

// Bytes is the access width.
func (i IO) Bytes() int {
	switch IOFields.Size.Get(uint32(i)) {
	case 0:
		return 1
	case 1:
		return 2
	}
	return 4
}

// Addr is the immediate IO address.
func (i IO) Addr() uint32 { return IOFields.Addr.Get(uint32(i)) }

// DmaFields is the layout of DMA read and write.
var DmaFields = struct {
	Stall, AddrCalc, Imm, SrcC, Common, SrcA, Mem, Mask, SrcB, Async, Invoke, UpdateR16, CtxSwap Range
}{
	Stall:     Range{4, 5},
	AddrCalc:  Range{5, 6},
	Imm:       Range{6, 7},
	SrcC:      Range{7, 12},
	Common:    Range{12, 13},
	SrcA:      Range{13, 18},
	Mem:       Range{18, 19},
	Mask:      Range{19, 20},
	SrcB:      Range{20, 28},
	Async:     Range{28, 29},
	Invoke:    Range{29, 30},
	UpdateR16: Range{30, 31},
	CtxSwap:   Range{31, 32},
}

// Dma is the DMA read/write view.
type Dma uint32

// Stall is the synchronous-transfer hint.
func (d Dma) Stall() bool { return DmaFields.Stall.Flag(uint32(d)) }

// AddrCalc selects buffer-pool address calculation.
func (d Dma) AddrCalc() bool { return DmaFields.AddrCalc.Flag(uint32(d)) }

// Immediate reports an immediate length.
func (d Dma) Immediate() bool { return DmaFields.Imm.Flag(uint32(d)) }

// SrcC holds the local address.
func (d Dma) SrcC() uint8 { return DmaFields.SrcC.Reg(uint32(d)) }

// Common selects the common segment as the local side.
func (d Dma) Common() bool { return DmaFields.Common.Flag(uint32(d)) }

// SrcA holds the remote address or buffer number.
func (d Dma) SrcA() uint8 { return DmaFields.SrcA.Reg(uint32(d)) }

// Mem selects the remote memory.
func (d Dma) Mem() bool { return DmaFields.Mem.Flag(uint32(d)) }

// Mask is carried to the transfer record.
func (d Dma) Mask() bool { return DmaFields.Mask.Flag(uint32(d)) }

// SrcB is the length register or immediate.
func (d Dma) SrcB() uint32 { return DmaFields.SrcB.Get(uint32(d)) }

// Async enables async wakeups for the issuing thread.
func (d Dma) Async() bool { return DmaFields.Async.Flag(uint32(d)) }

// Invoke requests a wakeup on completion.
func (d Dma) Invoke() bool { return DmaFields.Invoke.Flag(uint32(d)) }

// UpdateR16 stores the resume address in the link register.
func (d Dma) UpdateR16() bool { return DmaFields.UpdateR16.Flag(uint32(d)) }

// CtxSwap swaps context after two delay slots.
func (d Dma) CtxSwap() bool { return DmaFields.CtxSwap.Flag(uint32(d)) }

// DmaLookupFields is the layout of the DMA lookup.
var DmaLookupFields = struct {
	GlobalMask, Imm, SrcC, Common, SrcA, Mem, Mask, Slot, SrcB, Async, Invoke, UpdateR16, CtxSwap Range
}{
	GlobalMask: Range{4, 6},
	Imm:        Range{6, 7},
	SrcC:       Range{7, 12},
	Common:     Range{12, 13},
	SrcA:       Range{13, 18},
	Mem:        Range{18, 19},
	Mask:       Range{19, 20},
	Slot:       Range{20, 23},
	SrcB:       Range{23, 28},
	Async:      Range{28, 29},
	Invoke:     Range{29, 30},
	UpdateR16:  Range{30, 31},
	CtxSwap:    Range{31, 32},
}

// DmaLookup is the DMA lookup view.
type DmaLookup uint32

// Immediate reports an immediate length.
func (d DmaLookup) Immediate() bool { return DmaLookupFields.Imm.Flag(uint32(d)) }

// SrcC holds the local address.
func (d DmaLookup) SrcC() uint8 { return DmaLookupFields.SrcC.Reg(uint32(d)) }

// Common selects the common segment as the local side.
func (d DmaLookup) Common() bool { return DmaLookupFields.Common.Flag(uint32(d)) }

// SrcA holds the DDR address.
func (d DmaLookup) SrcA() uint8 { return DmaLookupFields.SrcA.Reg(uint32(d)) }

// Mem selects packet SRAM instead of DDR.
func (d DmaLookup) Mem() bool { return DmaLookupFields.Mem.Flag(uint32(d)) }

// Slot is the lookup result slot.
func (d DmaLookup) Slot() int { return int(DmaLookupFields.Slot.Get(uint32(d)) & 3) }

// SrcB is the length register or immediate.
func (d DmaLookup) SrcB() uint32 { return DmaLookupFields.SrcB.Get(uint32(d)) }

// Async enables async wakeups for the issuing thread.
func (d DmaLookup) Async() bool { return DmaLookupFields.Async.Flag(uint32(d)) }

// Invoke requests a wakeup on completion.
func (d DmaLookup) Invoke() bool { return DmaLookupFields.Invoke.Flag(uint32(d)) }

// UpdateR16 stores the resume address in the link register.
func (d DmaLookup) UpdateR16() bool { return DmaLookupFields.UpdateR16.Flag(uint32(d)) }

// CtxSwap swaps context after two delay slots.
func (d DmaLookup) CtxSwap() bool { return DmaLookupFields.CtxSwap.Flag(uint32(d)) }

// HashFields is the layout of the hash lookup.
var HashFields = struct {
	SrcC, SrcA, Slot, Table, Learn, SrcAddr, KeySize, Invoke, UpdateR16, CtxSwap Range
}{
	SrcC:      Range{7, 12},
	SrcA:      Range{13, 18},
	Slot:      Range{18, 21},
	Table:     Range{23, 25},
	Learn:     Range{25, 26},
	SrcAddr:   Range{26, 27},
	KeySize:   Range{27, 28},
	Invoke:    Range{29, 30},
	UpdateR16: Range{30, 31},
	CtxSwap:   Range{31, 32},
}

// Hash is the hash lookup view.
type Hash uint32

// SrcC holds the low key bits.
func (h Hash) SrcC() uint8 { return HashFields.SrcC.Reg(uint32(h)) }

// SrcA holds the high key bits.
func (h Hash) SrcA() uint8 { return HashFields.SrcA.Reg(uint32(h)) }

// Slot is the result slot.
func (h Hash) Slot() int { return int(HashFields.Slot.Get(uint32(h)) & 3) }

// Table is the hash table number.
func (h Hash) Table() int { return int(HashFields.Table.Get(uint32(h))) }

// Learn inserts the key on a miss.
func (h Hash) Learn() bool { return HashFields.Learn.Flag(uint32(h)) }

// SrcAddr selects the source-address key bank.
func (h Hash) SrcAddr() bool { return HashFields.SrcAddr.Flag(uint32(h)) }

// Key60 selects the 60-bit key.
func (h Hash) Key60() bool { return HashFields.KeySize.Flag(uint32(h)) }

// Invoke requests a wakeup on completion.
func (h Hash) Invoke() bool { return HashFields.Invoke.Flag(uint32(h)) }

// UpdateR16 stores the resume address in the link register.
func (h Hash) UpdateR16() bool { return HashFields.UpdateR16.Flag(uint32(h)) }

// CtxSwap swaps context after two delay slots.
func (h Hash) CtxSwap() bool { return HashFields.CtxSwap.Flag(uint32(h)) }

// RammanType is bit 18 of a ramman instruction: 0 is CRC, 1 is CAM.
var RammanType = Range{18, 19}

// CrcFields is the layout of the CRC form of ramman.
var CrcFields = struct {
	Imm, SrcC, Common, SrcA, Type, SrcB, Eth, Last Range
}{
	Imm:    Range{6, 7},
	SrcC:   Range{7, 12},
	Common: Range{12, 13},
	SrcA:   Range{13, 18},
	Type:   RammanType,
	SrcB:   Range{20, 28},
	Eth:    Range{30, 31},
	Last:   Range{31, 32},
}

// Crc is the CRC view.
type Crc uint32

// Immediate reports an immediate length.
func (c Crc) Immediate() bool { return CrcFields.Imm.Flag(uint32(c)) }

// SrcC holds the data address.
func (c Crc) SrcC() uint8 { return CrcFields.SrcC.Reg(uint32(c)) }

// Common selects the common segment.
func (c Crc) Common() bool { return CrcFields.Common.Flag(uint32(c)) }

// SrcA holds the running CRC seed.
func (c Crc) SrcA() uint8 { return CrcFields.SrcA.Reg(uint32(c)) }

// SrcB is the length register or immediate.
func (c Crc) SrcB() uint32 { return CrcFields.SrcB.Get(uint32(c)) }

// Eth selects the reflected Ethernet profile.
func (c Crc) Eth() bool { return CrcFields.Eth.Flag(uint32(c)) }

// Last finalizes the CRC.
func (c Crc) Last() bool { return CrcFields.Last.Flag(uint32(c)) }

// CamFields is the layout of the CAM form of ramman.
var CamFields = struct {
	Imm, SrcC, Common, SrcA, Type, Invoke, Slot, Wide, KeySize, Mask Range
}{
	Imm:     Range{6, 7},
	SrcC:    Range{7, 12},
	Common:  Range{12, 13},
	SrcA:    Range{13, 18},
	Type:    RammanType,
	Invoke:  Range{25, 26},
	Slot:    Range{26, 28},
	Wide:    Range{28, 29},
	KeySize: Range{29, 31},
	Mask:    Range{31, 32},
}

// Cam is the CAM view.
type Cam uint32

// SrcC holds the key.
func (c Cam) SrcC() uint8 { return CamFields.SrcC.Reg(uint32(c)) }

// Common selects a table in the common segment.
func (c Cam) Common() bool { return CamFields.Common.Flag(uint32(c)) }

// SrcA holds the table address.
func (c Cam) SrcA() uint8 { return CamFields.SrcA.Reg(uint32(c)) }

// Invoke requests a wakeup on completion.
func (c Cam) Invoke() bool { return CamFields.Invoke.Flag(uint32(c)) }

// Slot is the result slot.
func (c Cam) Slot() int { return int(CamFields.Slot.Get(uint32(c))) }

// Wide enables 128-bit keys.
func (c Cam) Wide() bool { return CamFields.Wide.Flag(uint32(c)) }

// KeyBytes is the key width in bytes.
func (c Cam) KeyBytes() int {
	ks := CamFields.KeySize.Get(uint32(c))
	if ks == 3 && !c.Wide() {
		ks = 2
	}
	return 2 << ks
}

// Masked reports entries carrying a mask.
func (c Cam) Masked() bool { return CamFields.Mask.Flag(uint32(c)) }

// CntUpFields is the layout of the counter.
var CntUpFields = struct {
	ImmB, SrcC, SrcA, SrcB, ImmA, Wrap, Size, Dec Range
}{
	ImmB: Range{6, 7},
	SrcC: Range{7, 12},
	SrcA: Range{12, 20},
	SrcB: Range{20, 28},
	ImmA: Range{28, 29},
	Wrap: Range{29, 30},
	Size: Range{30, 31},
	Dec:  Range{31, 32},
}

// CntUp is the counter view.
type CntUp uint32

// ImmB reports an immediate counter number.
func (c CntUp) ImmB() bool { return CntUpFields.ImmB.Flag(uint32(c)) }

// SrcC holds the amount; r0 means one.
func (c CntUp) SrcC() uint8 { return CntUpFields.SrcC.Reg(uint32(c)) }

// SrcA is the group register or immediate.
func (c CntUp) SrcA() uint32 { return CntUpFields.SrcA.Get(uint32(c)) }

// SrcB is the counter register or immediate.
func (c CntUp) SrcB() uint32 { return CntUpFields.SrcB.Get(uint32(c)) }

// ImmA reports an immediate group.
func (c CntUp) ImmA() bool { return CntUpFields.ImmA.Flag(uint32(c)) }

// Wrap selects wrap-around instead of freezing.
func (c CntUp) Wrap() bool { return CntUpFields.Wrap.Flag(uint32(c)) }

// Wide selects 4-byte counters.
func (c CntUp) Wide() bool { return CntUpFields.Size.Flag(uint32(c)) }

// Dec decrements instead of incrementing.
func (c CntUp) Dec() bool { return CntUpFields.Dec.Flag(uint32(c)) }

// BbtxFields is the layout of the buffer transmit.
var BbtxFields = struct {
	Imm, SrcC, Common, SrcA, Wait, SrcB, Invoke, Last, Inc Range
}{
	Imm:    Range{6, 7},
	SrcC:   Range{7, 12},
	Common: Range{12, 13},
	SrcA:   Range{13, 18},
	Wait:   Range{19, 20},
	SrcB:   Range{20, 28},
	Invoke: Range{29, 30},
	Last:   Range{30, 31},
	Inc:    Range{31, 32},
}

// Bbtx is the buffer-transmit view.
type Bbtx uint32

// Immediate reports an immediate length.
func (b Bbtx) Immediate() bool { return BbtxFields.Imm.Flag(uint32(b)) }

// SrcC holds the local source address.
func (b Bbtx) SrcC() uint8 { return BbtxFields.SrcC.Reg(uint32(b)) }

// Common selects the common segment.
func (b Bbtx) Common() bool { return BbtxFields.Common.Flag(uint32(b)) }

// SrcA holds the packet SRAM destination.
func (b Bbtx) SrcA() uint8 { return BbtxFields.SrcA.Reg(uint32(b)) }

// Wait parks the thread after issue.
func (b Bbtx) Wait() bool { return BbtxFields.Wait.Flag(uint32(b)) }

// SrcB is the length register or immediate.
func (b Bbtx) SrcB() uint32 { return BbtxFields.SrcB.Get(uint32(b)) }

// Invoke requests a wakeup on completion.
func (b Bbtx) Invoke() bool { return BbtxFields.Invoke.Flag(uint32(b)) }

// Last marks the final fragment.
func (b Bbtx) Last() bool { return BbtxFields.Last.Flag(uint32(b)) }

// Inc advances the destination register by the length.
func (b Bbtx) Inc() bool { return BbtxFields.Inc.Flag(uint32(b)) }

// BbmsgFields is the layout of the buffer message.
var BbmsgFields = struct {
	Imm, SrcA, Wait, SrcB, Type, Wide Range
}{
	Imm:  Range{6, 7},
	SrcA: Range{13, 18},
	Wait: Range{19, 20},
	SrcB: Range{20, 28},
	Type: Range{28, 31},
	Wide: Range{31, 32},
}

// Bbmsg is the buffer-message view.
type Bbmsg uint32

// Immediate reports an immediate payload.
func (b Bbmsg) Immediate() bool { return BbmsgFields.Imm.Flag(uint32(b)) }

// SrcA holds the destination.
func (b Bbmsg) SrcA() uint8 { return BbmsgFields.SrcA.Reg(uint32(b)) }

// Wait parks the thread after issue.
func (b Bbmsg) Wait() bool { return BbmsgFields.Wait.Flag(uint32(b)) }

// SrcB is the payload register or immediate.
func (b Bbmsg) SrcB() uint32 { return BbmsgFields.SrcB.Get(uint32(b)) }

// Type is the message type.
func (b Bbmsg) Type() uint32 { return BbmsgFields.Type.Get(uint32(b)) }

// Wide sends a 64-bit payload.
func (b Bbmsg) Wide() bool { return BbmsgFields.Wide.Flag(uint32(b)) }

// CryptFields is the layout of the crypto invoke.
var CryptFields = struct {
	Hash, SrcA, Ext, SrcB, Imm, Invoke, Last, First Range
}{
	Hash:   Range{6, 7},
	SrcA:   Range{12, 18},
	Ext:    Range{19, 20},
	SrcB:   Range{20, 28},
	Imm:    Range{28, 29},
	Invoke: Range{29, 30},
	Last:   Range{30, 31},
	First:  Range{31, 32},
}

// Crypt is the crypto view.
type Crypt uint32

// Hash selects the authentication engine.
func (c Crypt) Hash() bool { return CryptFields.Hash.Flag(uint32(c)) }

// SrcA holds the chunk address.
func (c Crypt) SrcA() uint8 { return CryptFields.SrcA.Reg(uint32(c)) }

// Ext is the extended-key hint.
func (c Crypt) Ext() bool { return CryptFields.Ext.Flag(uint32(c)) }

// SrcB is the length register or immediate.
func (c Crypt) SrcB() uint32 { return CryptFields.SrcB.Get(uint32(c)) }

// Immediate reports an immediate length.
func (c Crypt) Immediate() bool { return CryptFields.Imm.Flag(uint32(c)) }

// Invoke requests a wakeup on completion.
func (c Crypt) Invoke() bool { return CryptFields.Invoke.Flag(uint32(c)) }

// Last finalizes the digest.
func (c Crypt) Last() bool { return CryptFields.Last.Flag(uint32(c)) }

// First resets the digest.
func (c Crypt) First() bool { return CryptFields.First.Flag(uint32(c)) }

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
