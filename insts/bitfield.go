package insts

// Field returns bits [start, end) of word, with bit 0 being the most
// significant bit. Ranges must satisfy start < end <= 32.
func Field(word uint32, start, end uint) uint32 {
	width := end - start
	if width >= 32 {
		return word
	}
	return (word >> (32 - end)) & (1<<width - 1)
}

// Range is a half-open MSB-first bit range inside an instruction word.
type Range struct {
	Start uint
	End   uint
}

// Width returns the number of bits covered by the range.
func (r Range) Width() uint {
	return r.End - r.Start
}

// Get extracts the range from word.
func (r Range) Get(word uint32) uint32 {
	return Field(word, r.Start, r.End)
}

// Flag reports whether a one-bit range is set.
func (r Range) Flag(word uint32) bool {
	return r.Get(word) != 0
}

// Reg extracts a register index. Wider fields use their low 5 bits.
func (r Range) Reg(word uint32) uint8 {
	return uint8(r.Get(word) & 0x1F)
}

// Put returns word with the range replaced by v. Bits of v beyond the
// range width are discarded.
func (r Range) Put(word, v uint32) uint32 {
	width := r.Width()
	shift := 32 - r.End
	var mask uint32
	if width >= 32 {
		mask = 0xFFFFFFFF
	} else {
		mask = (1<<width - 1) << shift
	}
	return (word &^ mask) | ((v << shift) & mask)
}

// Word is an instruction word under construction.
type Word uint32

// Op6 starts a word with the given 6-bit opcode.
func Op6(op uint32) Word {
	return Word(Range{0, 6}.Put(0, op))
}

// With sets a field of the word.
func (w Word) With(r Range, v uint32) Word {
	return Word(r.Put(uint32(w), v))
}

// Set sets a one-bit field of the word.
func (w Word) Set(r Range) Word {
	return w.With(r, 1)
}

// Uint32 returns the encoded word.
func (w Word) Uint32() uint32 {
	return uint32(w)
}
