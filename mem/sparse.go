package mem

const pageBits = 12

// Sparse is a large byte-addressed memory that allocates 4KB pages on
// first write. Unwritten bytes read as zero.
type Sparse struct {
	name  string
	size  uint32
	pages map[uint32]*[1 << pageBits]byte
}

// NewSparse creates a sparse memory of size bytes.
func NewSparse(name string, size uint32) *Sparse {
	return &Sparse{
		name:  name,
		size:  size,
		pages: make(map[uint32]*[1 << pageBits]byte),
	}
}

// Name returns the memory name used in errors.
func (s *Sparse) Name() string { return s.name }

// Size returns the memory size in bytes.
func (s *Sparse) Size() uint32 { return s.size }

// LoadByte reads one byte.
func (s *Sparse) LoadByte(addr uint32) (byte, error) {
	if addr >= s.size {
		return 0, &AccessError{Space: s.name, Addr: addr, Size: 1}
	}
	page, ok := s.pages[addr>>pageBits]
	if !ok {
		return 0, nil
	}
	return page[addr&(1<<pageBits-1)], nil
}

// StoreByte writes one byte.
func (s *Sparse) StoreByte(addr uint32, v byte) error {
	if addr >= s.size {
		return &AccessError{Space: s.name, Addr: addr, Size: 1}
	}
	idx := addr >> pageBits
	page, ok := s.pages[idx]
	if !ok {
		page = new([1 << pageBits]byte)
		s.pages[idx] = page
	}
	page[addr&(1<<pageBits-1)] = v
	return nil
}

// Read32 reads a big-endian word.
func (s *Sparse) Read32(addr uint32) (uint32, error) {
	return ReadBE(s, addr, 4)
}

// Write32 writes a big-endian word.
func (s *Sparse) Write32(addr, v uint32) error {
	return WriteBE(s, addr, 4, v)
}

// Pages returns the number of allocated pages.
func (s *Sparse) Pages() int {
	return len(s.pages)
}

// Reset drops every page.
func (s *Sparse) Reset() {
	clear(s.pages)
}
