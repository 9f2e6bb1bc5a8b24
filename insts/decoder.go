package insts

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is returned when a word matches no handler.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Decoder decodes Runner instruction words.
type Decoder struct {
	table [64]Kind
}

// NewDecoder creates a new decoder.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.table[OpBez] = KindBez
	d.table[OpCmpJmp] = KindCmpJmp
	d.table[OpLjmp] = KindLjmp
	d.table[OpRet] = KindRet
	d.table[OpCtxSwap] = KindCtxSwap
	d.table[OpLd] = KindLd
	d.table[OpLdc] = KindLdc
	d.table[OpSt] = KindSt
	d.table[OpStc] = KindStc
	d.table[OpAdd] = KindAdd
	d.table[OpSub] = KindSub
	d.table[OpAnd] = KindAnd
	d.table[OpOr] = KindOr
	d.table[OpXor] = KindXor
	d.table[OpShift] = KindShift
	d.table[OpSignExt] = KindSignExt
	d.table[OpFfi] = KindFfi
	d.table[OpExtract] = KindExtract
	d.table[OpInsert] = KindInsert
	d.table[OpMult] = KindMult
	d.table[OpICheck] = KindICheck
	d.table[OpMovImm] = KindMovImm
	d.table[OpStio] = KindStio
	d.table[OpLdio] = KindLdio
	d.table[OpCntUp] = KindCntUp
	d.table[OpBbtx] = KindBbtx
	d.table[OpBbmsg] = KindBbmsg
	d.table[OpRamman] = KindRamman
	d.table[OpHash] = KindHash
	d.table[OpCrypt] = KindCrypt
	d.table[OpNop] = KindNop
	return d
}

// Decode decodes a 32-bit instruction word.
// The DMA group prefix is tested first, then the jump prefix, because
// both alias entries of the 6-bit table.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Word: word}

	switch Field(word, 0, 4) {
	case prefixDmaRead:
		inst.Kind = KindDmaRead
		return inst
	case prefixDmaWrite:
		inst.Kind = KindDmaWrite
		return inst
	case prefixDmaLookup:
		inst.Kind = KindDmaLookup
		return inst
	}

	if Field(word, 0, 5) == prefixJmp {
		inst.Kind = KindJmp
		return inst
	}

	inst.Kind = d.table[Field(word, 0, 6)]
	return inst
}

// DecodeChecked decodes a word and reports unknown opcodes as errors.
func (d *Decoder) DecodeChecked(word uint32) (*Instruction, error) {
	inst := d.Decode(word)
	if inst.Kind == KindUnknown {
		return inst, fmt.Errorf("%w: 0x%02x in word 0x%08x",
			ErrUnknownOpcode, Field(word, 0, 6), word)
	}
	return inst, nil
}
