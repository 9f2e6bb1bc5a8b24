// Package loader reads the flat memory images of a Runner.
//
// An image is a file of packed big-endian 32-bit words. A trailing
// partial word is padded with zero bytes.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrImageTooLarge is returned when an image does not fit its segment.
var ErrImageTooLarge = errors.New("image too large")

// Segment sizes in bytes.
const (
	CodeSize    = 32 << 10
	DataSize    = 48 << 10
	ContextSize = 32 * 24 * 4
	CommonSize  = 64 << 10
)

// Program holds the images of one Runner. A nil slice means the image
// was not given and the segment stays zeroed.
type Program struct {
	// Code is the instruction image.
	Code []uint32
	// Data is the private SRAM image.
	Data []uint32
	// Context is the saved register image of all threads.
	Context []uint32
}

// Paths names the image files of one Runner. Empty paths are skipped.
type Paths struct {
	Code    string
	Data    string
	Context string
}

// LoadProgram reads every image named in paths.
func LoadProgram(paths Paths) (*Program, error) {
	prog := &Program{}

	images := []struct {
		path  string
		limit int
		dst   *[]uint32
	}{
		{paths.Code, CodeSize, &prog.Code},
		{paths.Data, DataSize, &prog.Data},
		{paths.Context, ContextSize, &prog.Context},
	}

	for _, img := range images {
		if img.path == "" {
			continue
		}
		words, err := Load(img.path, img.limit)
		if err != nil {
			return nil, err
		}
		*img.dst = words
	}

	return prog, nil
}

// Load reads the image at path. limit is the segment size in bytes.
func Load(path string, limit int) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	words, err := Read(f, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// Read decodes an image from r. It fails when the image holds more
// than limit bytes.
func Read(r io.Reader, limit int) ([]uint32, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, limit)
	}

	if rem := len(data) % 4; rem != 0 {
		data = append(data, make([]byte, 4-rem)...)
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	return words, nil
}
