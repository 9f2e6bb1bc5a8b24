package accel

// CRCProfile describes a table-less bit-serial CRC.
type CRCProfile struct {
	Name       string
	Width      uint
	Poly       uint32
	Init       uint32
	XorOut     uint32
	ReflectIn  bool
	ReflectOut bool
}

// Pre-derived CRC profiles.
var (
	CRC32 = CRCProfile{Name: "crc32", Width: 32, Poly: 0x04C11DB7, Init: 0xFFFFFFFF, XorOut: 0xFFFFFFFF}
	// CRC32Eth is CRC32 with reflected input and output, as used by the
	// Ethernet frame check sequence.
	CRC32Eth = CRCProfile{Name: "crc32-eth", Width: 32, Poly: 0x04C11DB7, Init: 0xFFFFFFFF,
		XorOut: 0xFFFFFFFF, ReflectIn: true, ReflectOut: true}
	CRC16 = CRCProfile{Name: "crc16", Width: 16, Poly: 0x1021, Init: 0xFFFF}
	CRC10 = CRCProfile{Name: "crc10", Width: 10, Poly: 0x233, Init: 0x3FF}
	CRC5  = CRCProfile{Name: "crc5", Width: 5, Poly: 0x05, Init: 0x1F}
)

func (p CRCProfile) mask() uint32 {
	if p.Width >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<p.Width - 1
}

// Update runs data through the CRC register crc and returns the new
// register value. No reflection or xor is applied to the result.
func (p CRCProfile) Update(crc uint32, data []byte) uint32 {
	mask := p.mask()
	top := uint32(1) << (p.Width - 1)
	crc &= mask
	for _, b := range data {
		if p.ReflectIn {
			b = reverse8(b)
		}
		for i := 7; i >= 0; i-- {
			in := uint32(b>>uint(i)) & 1
			fb := crc&top != 0
			crc = (crc << 1) & mask
			if fb != (in == 1) {
				crc ^= p.Poly
			}
		}
	}
	return crc
}

// Finalize applies output reflection and the final xor.
func (p CRCProfile) Finalize(crc uint32) uint32 {
	if p.ReflectOut {
		crc = reflect(crc, p.Width)
	}
	return (crc ^ p.XorOut) & p.mask()
}

// Checksum computes the complete CRC of data.
func (p CRCProfile) Checksum(data []byte) uint32 {
	return p.Finalize(p.Update(p.Init, data))
}

func reverse8(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r = r<<1 | b&1
		b >>= 1
	}
	return r
}

func reflect(v uint32, width uint) uint32 {
	var r uint32
	for i := uint(0); i < width; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}
