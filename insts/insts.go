// Package insts provides Runner instruction definitions and decoding.
//
// Every Runner instruction is a 32-bit word. Field ranges are written
// MSB-first: bit 0 is the most significant bit of the word and a range
// (start, end) is half-open. Each encoding family has a layout table
// (for example JmpFields) and a typed view (for example Jmp) whose
// accessors read the layout.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xBC512344) // MOV r5, 0x1234, clear
//	mov := inst.Mov()
//	fmt.Printf("dst=%d imm=0x%x\n", mov.Dst(), mov.Imm())
package insts

// Kind identifies the handler an instruction word dispatches to.
type Kind uint8

// Instruction kinds.
const (
	KindUnknown Kind = iota
	KindJmp
	KindBez
	KindCmpJmp
	KindLjmp
	KindRet
	KindCtxSwap
	KindLd
	KindLdc
	KindSt
	KindStc
	KindDmaRead
	KindDmaWrite
	KindDmaLookup
	KindAdd
	KindSub
	KindAnd
	KindOr
	KindXor
	KindShift
	KindSignExt
	KindFfi
	KindExtract
	KindInsert
	KindMult
	KindICheck
	KindMovImm
	KindStio
	KindLdio
	KindCntUp
	KindBbtx
	KindBbmsg
	KindRamman
	KindHash
	KindCrypt
	KindNop
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindJmp:       "jmp",
	KindBez:       "bez",
	KindCmpJmp:    "cmpjmp",
	KindLjmp:      "ljmp",
	KindRet:       "ret",
	KindCtxSwap:   "ctx_swap",
	KindLd:        "ld",
	KindLdc:       "ldc",
	KindSt:        "st",
	KindStc:       "stc",
	KindDmaRead:   "dma_rd",
	KindDmaWrite:  "dma_wr",
	KindDmaLookup: "dma_lkp",
	KindAdd:       "add",
	KindSub:       "sub",
	KindAnd:       "and",
	KindOr:        "or",
	KindXor:       "xor",
	KindShift:     "shift",
	KindSignExt:   "signext",
	KindFfi:       "ffi",
	KindExtract:   "extract",
	KindInsert:    "insert",
	KindMult:      "mult",
	KindICheck:    "icheck",
	KindMovImm:    "mov",
	KindStio:      "stio",
	KindLdio:      "ldio",
	KindCntUp:     "cntup",
	KindBbtx:      "bbtx",
	KindBbmsg:     "bbmsg",
	KindRamman:    "ramman",
	KindHash:      "hash",
	KindCrypt:     "crypt",
	KindNop:       "nop",
}

// String returns the mnemonic of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// IsALU reports whether the kind uses the two-operand ALU layout.
func (k Kind) IsALU() bool {
	switch k {
	case KindAdd, KindSub, KindAnd, KindOr, KindXor, KindMult:
		return true
	}
	return false
}

// Opcode values in the top 6 bits of the word.
const (
	OpJmp     uint32 = 0x00
	OpJmpReg  uint32 = 0x01
	OpBez     uint32 = 0x02
	OpCmpJmp  uint32 = 0x03
	OpLjmp    uint32 = 0x04
	OpRet     uint32 = 0x05
	OpCtxSwap uint32 = 0x06
	OpLd      uint32 = 0x08
	OpLdc     uint32 = 0x09
	OpSt      uint32 = 0x0A
	OpStc     uint32 = 0x0B
	OpDmaRd   uint32 = 0x10
	OpDmaRd1  uint32 = 0x12
	OpDmaWr   uint32 = 0x14
	OpDmaLkp  uint32 = 0x18
	OpAdd     uint32 = 0x20
	OpSub     uint32 = 0x21
	OpAnd     uint32 = 0x22
	OpOr      uint32 = 0x23
	OpXor     uint32 = 0x24
	OpShift   uint32 = 0x25
	OpSignExt uint32 = 0x26
	OpFfi     uint32 = 0x27
	OpExtract uint32 = 0x28
	OpInsert  uint32 = 0x29
	OpMult    uint32 = 0x2A
	OpICheck  uint32 = 0x2C
	OpMovImm  uint32 = 0x2F
	OpStio    uint32 = 0x30
	OpLdio    uint32 = 0x31
	OpCntUp   uint32 = 0x32
	OpBbtx    uint32 = 0x33
	OpBbmsg   uint32 = 0x34
	OpRamman  uint32 = 0x35
	OpHash    uint32 = 0x37
	OpCrypt   uint32 = 0x3C
	OpNop     uint32 = 0x3F
)

// Narrow prefixes that are tested before the 6-bit table.
const (
	prefixDmaRead   uint32 = OpDmaRd >> 2
	prefixDmaWrite  uint32 = OpDmaWr >> 2
	prefixDmaLookup uint32 = OpDmaLkp >> 2
	prefixJmp       uint32 = 0
)

// NopWord is the canonical no-op encoding.
const NopWord uint32 = OpNop << 26

// Instruction is a decoded instruction word.
type Instruction struct {
	Kind Kind
	Word uint32
}

// Typed views over the word. The view is only meaningful for the
// matching kind.

// Jmp returns the conditional/register jump view.
func (i *Instruction) Jmp() Jmp { return Jmp(i.Word) }

// Bez returns the branch-if-zero view.
func (i *Instruction) Bez() Bez { return Bez(i.Word) }

// CmpJmp returns the compare-and-jump view.
func (i *Instruction) CmpJmp() CmpJmp { return CmpJmp(i.Word) }

// Ljmp returns the long jump view.
func (i *Instruction) Ljmp() Ljmp { return Ljmp(i.Word) }

// CtxSwap returns the context swap view.
func (i *Instruction) CtxSwap() CtxSwap { return CtxSwap(i.Word) }

// Mem returns the load/store view.
func (i *Instruction) Mem() Mem { return Mem(i.Word) }

// Mov returns the move-immediate view.
func (i *Instruction) Mov() Mov { return Mov(i.Word) }

// ALU returns the two-operand ALU view.
func (i *Instruction) ALU() ALU { return ALU(i.Word) }

// Shift returns the shift view.
func (i *Instruction) Shift() Shift { return Shift(i.Word) }

// SignExt returns the sign-extend view.
func (i *Instruction) SignExt() SignExt { return SignExt(i.Word) }

// Ffi returns the find-first-set view.
func (i *Instruction) Ffi() Ffi { return Ffi(i.Word) }

// BitField returns the insert/extract view.
func (i *Instruction) BitField() BitField { return BitField(i.Word) }

// ICheck returns the integrity-check view.
func (i *Instruction) ICheck() ICheck { return ICheck(i.Word) }

// IO returns the ldio/stio view.
func (i *Instruction) IO() IO { return IO(i.Word) }

// Dma returns the DMA read/write view.
func (i *Instruction) Dma() Dma { return Dma(i.Word) }

// DmaLookup returns the DMA lookup view.
func (i *Instruction) DmaLookup() DmaLookup { return DmaLookup(i.Word) }

// Hash returns the hash lookup view.
func (i *Instruction) Hash() Hash { return Hash(i.Word) }

// Crc returns the CRC view of a ramman instruction.
func (i *Instruction) Crc() Crc { return Crc(i.Word) }

// Cam returns the CAM view of a ramman instruction.
func (i *Instruction) Cam() Cam { return Cam(i.Word) }

// CntUp returns the counter view.
func (i *Instruction) CntUp() CntUp { return CntUp(i.Word) }

// Bbtx returns the buffer-transmit view.
func (i *Instruction) Bbtx() Bbtx { return Bbtx(i.Word) }

// Bbmsg returns the buffer-message view.
func (i *Instruction) Bbmsg() Bbmsg { return Bbmsg(i.Word) }

// Crypt returns the crypto view.
func (i *Instruction) Crypt() Crypt { return Crypt(i.Word) }
