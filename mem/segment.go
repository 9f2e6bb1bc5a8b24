package mem

// Segment is a fixed-size memory stored as 32-bit words. Byte offset 0
// of a word is its most significant byte.
type Segment struct {
	name  string
	words []uint32
}

// NewSegment creates a zeroed segment of size bytes, rounded up to a
// whole word.
func NewSegment(name string, size int) *Segment {
	return &Segment{
		name:  name,
		words: make([]uint32, (size+3)/4),
	}
}

// Name returns the segment name used in errors.
func (s *Segment) Name() string { return s.name }

// Size returns the segment size in bytes.
func (s *Segment) Size() uint32 { return uint32(len(s.words) * 4) }

// Words exposes the backing words.
func (s *Segment) Words() []uint32 { return s.words }

// Word returns word i, or 0 when i is out of range.
func (s *Segment) Word(i int) uint32 {
	if i < 0 || i >= len(s.words) {
		return 0
	}
	return s.words[i]
}

// SetWord stores word i. Out-of-range indices are ignored.
func (s *Segment) SetWord(i int, v uint32) {
	if i < 0 || i >= len(s.words) {
		return
	}
	s.words[i] = v
}

// Load copies words into the segment starting at word 0.
func (s *Segment) Load(words []uint32) {
	copy(s.words, words)
}

// Reset zeroes the segment.
func (s *Segment) Reset() {
	clear(s.words)
}

func (s *Segment) check(addr uint32, size int) error {
	if uint64(addr)+uint64(size) > uint64(s.Size()) {
		return &AccessError{Space: s.name, Addr: addr, Size: size}
	}
	return nil
}

// LoadByte reads one byte.
func (s *Segment) LoadByte(addr uint32) (byte, error) {
	if err := s.check(addr, 1); err != nil {
		return 0, err
	}
	shift := 24 - 8*(addr&3)
	return byte(s.words[addr>>2] >> shift), nil
}

// StoreByte writes one byte.
func (s *Segment) StoreByte(addr uint32, v byte) error {
	if err := s.check(addr, 1); err != nil {
		return err
	}
	shift := 24 - 8*(addr&3)
	w := &s.words[addr>>2]
	*w = *w&^(0xFF<<shift) | uint32(v)<<shift
	return nil
}

// Read reads a big-endian value of 1, 2 or 4 bytes. Aligned word reads
// take the fast path.
func (s *Segment) Read(addr uint32, size int) (uint32, error) {
	if err := s.check(addr, size); err != nil {
		return 0, err
	}
	if size == 4 && addr&3 == 0 {
		return s.words[addr>>2], nil
	}
	return ReadBE(s, addr, size)
}

// Write writes a big-endian value of 1, 2 or 4 bytes.
func (s *Segment) Write(addr uint32, size int, v uint32) error {
	if err := s.check(addr, size); err != nil {
		return err
	}
	if size == 4 && addr&3 == 0 {
		s.words[addr>>2] = v
		return nil
	}
	return WriteBE(s, addr, size, v)
}
