package emu

import (
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/mem"
)

// LoadStoreUnit implements LD/ST against the private SRAM and LDC/STC
// against the shared common segment.
type LoadStoreUnit struct {
	regFile *RegFile
	sram    *mem.Segment
	common  *mem.Segment
}

// NewLoadStoreUnit creates a new LoadStoreUnit.
func NewLoadStoreUnit(regFile *RegFile, sram, common *mem.Segment) *LoadStoreUnit {
	return &LoadStoreUnit{regFile: regFile, sram: sram, common: common}
}

// Space returns the segment addressed by a load/store kind.
func (u *LoadStoreUnit) Space(kind insts.Kind) *mem.Segment {
	if kind == insts.KindLdc || kind == insts.KindStc {
		return u.common
	}
	return u.sram
}

func half(v uint32, high bool) uint32 {
	if high {
		return v >> 16
	}
	return v & 0xFFFF
}

// Address computes the effective address of a load or store.
func (u *LoadStoreUnit) Address(m insts.Mem) uint32 {
	base := half(u.regFile.ReadReg(m.Base()), m.High())
	switch {
	case m.Direct():
		return base + m.Offset()
	case m.Immediate():
		return m.Abs()
	}
	index := uint8(m.Offset()>>1) & 31
	return base + u.regFile.ReadReg(index)&0x7FF
}

// Load reads into dst, or dst and dst+1 for 64-bit loads.
func (u *LoadStoreUnit) Load(space *mem.Segment, m insts.Mem) (uint32, error) {
	addr := u.Address(m)
	n := m.Bytes()
	if n == 8 {
		hi, err := space.Read(addr, 4)
		if err != nil {
			return addr, err
		}
		lo, err := space.Read(addr+4, 4)
		if err != nil {
			return addr, err
		}
		u.regFile.WriteReg(m.Dst(), hi)
		u.regFile.WriteReg(m.Dst()+1, lo)
		return addr, nil
	}

	v, err := space.Read(addr, n)
	if err != nil {
		return addr, err
	}
	u.regFile.WriteReg(m.Dst(), v)
	return addr, nil
}

// Store writes dst, or dst and dst+1 for 64-bit stores.
func (u *LoadStoreUnit) Store(space *mem.Segment, m insts.Mem) (uint32, error) {
	addr := u.Address(m)
	n := m.Bytes()
	if n == 8 {
		if err := space.Write(addr, 4, u.regFile.ReadReg(m.Dst())); err != nil {
			return addr, err
		}
		return addr, space.Write(addr+4, 4, u.regFile.ReadReg(m.Dst()+1))
	}
	return addr, space.Write(addr, n, u.regFile.ReadReg(m.Dst()))
}
