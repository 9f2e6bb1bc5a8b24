// Package mem provides the Runner memory spaces: fixed-size word
// segments with big-endian byte lanes and a sparse byte-addressed DDR.
package mem

import (
	"errors"
	"fmt"
)

// ErrAccessViolation marks an access outside the bounds of a space.
var ErrAccessViolation = errors.New("access violation")

// AccessError describes an out-of-bounds access.
type AccessError struct {
	Space string
	Addr  uint32
	Size  int
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s access violation at 0x%x (%d bytes)", e.Space, e.Addr, e.Size)
}

// Unwrap lets errors.Is match ErrAccessViolation.
func (e *AccessError) Unwrap() error {
	return ErrAccessViolation
}

// Space is a byte-addressable memory.
type Space interface {
	Name() string
	Size() uint32
	LoadByte(addr uint32) (byte, error)
	StoreByte(addr uint32, v byte) error
}

// Copy moves n bytes from src to dst.
func Copy(dst Space, dstAddr uint32, src Space, srcAddr uint32, n int) error {
	for i := 0; i < n; i++ {
		b, err := src.LoadByte(srcAddr + uint32(i))
		if err != nil {
			return err
		}
		if err := dst.StoreByte(dstAddr+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// LoadBytes returns n bytes of s starting at addr.
func LoadBytes(s Space, addr uint32, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := s.LoadByte(addr + uint32(i))
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// StoreBytes stores data into s starting at addr.
func StoreBytes(s Space, addr uint32, data []byte) error {
	for i, b := range data {
		if err := s.StoreByte(addr+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// ReadBE reads a big-endian value of width bytes (at most 4).
func ReadBE(s Space, addr uint32, width int) (uint32, error) {
	var v uint32
	for i := 0; i < width; i++ {
		b, err := s.LoadByte(addr + uint32(i))
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// WriteBE writes the low width bytes of v big-endian.
func WriteBE(s Space, addr uint32, width int, v uint32) error {
	for i := width - 1; i >= 0; i-- {
		if err := s.StoreByte(addr+uint32(i), byte(v)); err != nil {
			return err
		}
		v >>= 8
	}
	return nil
}
