// Package emu provides the functional and clocked model of a Runner core.
package emu

// Register file geometry.
const (
	NumGlobals  = 8
	NumPrivates = 24
	NumThreads  = 32

	// LinkRegister is the private register whose high half holds the
	// resume PC of a context.
	LinkRegister = 16
)

// PCMask keeps a program counter word-aligned inside the code segment.
const PCMask uint32 = 0x7FFC

// Status flags.
const (
	FlagZ uint32 = 1 << iota
	FlagN
	FlagCY
	FlagOVF
	FlagJBIT
)

// RegFile holds the architectural registers of a Runner. Register 0 is
// a discard destination and reads as zero. Registers 1..7 are globals
// shared by all threads; 8..31 are the private registers of the current
// context.
type RegFile struct {
	// Globals holds r0-r7. Globals[0] is never written.
	Globals [NumGlobals]uint32

	// Privates holds r8-r31 of the resident context.
	Privates [NumPrivates]uint32

	// Flags is the status word.
	Flags uint32
}

// ReadReg reads a register. Only the low 5 bits of reg are used.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	reg &= 31
	if reg < NumGlobals {
		return r.Globals[reg]
	}
	return r.Privates[reg-NumGlobals]
}

// WriteReg writes a register. Writes to register 0 are dropped.
func (r *RegFile) WriteReg(reg uint8, v uint32) {
	reg &= 31
	switch {
	case reg == 0:
		return
	case reg < NumGlobals:
		r.Globals[reg] = v
	default:
		r.Privates[reg-NumGlobals] = v
	}
}

// Flag reports whether every bit of f is set.
func (r *RegFile) Flag(f uint32) bool {
	return r.Flags&f == f
}

// SetFlag sets or clears the bits of f.
func (r *RegFile) SetFlag(f uint32, on bool) {
	if on {
		r.Flags |= f
	} else {
		r.Flags &^= f
	}
}

// ResumePC is the PC stored in the high half of the link register.
func (r *RegFile) ResumePC() uint32 {
	return (r.Privates[LinkRegister] >> 16) & PCMask
}

// SetResumePC stores pc in the high half of the link register.
func (r *RegFile) SetResumePC(pc uint32) {
	lr := &r.Privates[LinkRegister]
	*lr = *lr&0xFFFF | (pc&0xFFFF)<<16
}
