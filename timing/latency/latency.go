// Package latency provides accelerator timing for the Runner model.
//
// Every accelerator operation completes after a latency drawn from a
// unit-specific window. The window is floor-adjusted so that a new
// operation never completes before one already queued on the same unit.
package latency

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source draws a latency in [min, max].
type Source interface {
	Draw(min, max uint64) uint64
}

// RandomSource draws latencies uniformly from a seeded generator.
type RandomSource struct {
	src rand.Source
}

// NewRandomSource creates a uniform source seeded with seed.
func NewRandomSource(seed uint64) *RandomSource {
	return &RandomSource{src: rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)}
}

// Draw returns a uniformly distributed integer in [min, max].
func (s *RandomSource) Draw(min, max uint64) uint64 {
	if max <= min {
		return min
	}
	u := distuv.Uniform{Min: float64(min), Max: float64(max + 1), Src: s.src}
	v := uint64(math.Floor(u.Rand()))
	if v > max {
		v = max
	}
	return v
}

type minimumSource struct{}

func (minimumSource) Draw(min, _ uint64) uint64 { return min }

// Minimum returns a source that always picks the window minimum.
func Minimum() Source {
	return minimumSource{}
}

type constantSource uint64

func (c constantSource) Draw(min, max uint64) uint64 {
	v := uint64(c)
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Constant returns a source that picks n clamped into the window.
func Constant(n uint64) Source {
	return constantSource(n)
}

// Completion returns the completion clock of an operation issued at now
// in window w. furthest is the latest completion clock still queued on
// the unit and pending reports whether any is queued. The window keeps
// its width but its minimum moves up to furthest-now+1.
func Completion(src Source, w Window, now, furthest uint64, pending bool) uint64 {
	floor := w.Min
	if pending && furthest >= now && furthest-now+1 > floor {
		floor = furthest - now + 1
	}
	return now + src.Draw(floor, floor+(w.Max-w.Min))
}

// CRCWindow returns the CRC window for length bytes of input.
func (c *Config) CRCWindow(length int) Window {
	extra := uint64(math.Ceil(c.CRCPer8Bytes * float64(length) / 8))
	return Window{Min: c.CRCMin, Max: c.CRCMin + extra}
}
