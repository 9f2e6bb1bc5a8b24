package accel

// Slot is one in-flight accelerator operation.
type Slot[T any] struct {
	// Thread is the issuing thread.
	Thread int
	// Invoke requests a sync wakeup of Thread on completion.
	Invoke bool
	// Complete is the absolute completion clock.
	Complete uint64
	// Op is the unit-specific payload.
	Op T
}

// FIFO is a bounded ring of in-flight operations. Operations complete in
// issue order because completion clocks never decrease along the ring.
type FIFO[T any] struct {
	slots     []Slot[T]
	in, out   int
	count     int
	highWater int
}

// NewFIFO creates a FIFO holding up to depth operations.
func NewFIFO[T any](depth int) *FIFO[T] {
	return &FIFO[T]{slots: make([]Slot[T], depth)}
}

// Depth returns the capacity.
func (f *FIFO[T]) Depth() int { return len(f.slots) }

// Len returns the number of in-flight operations.
func (f *FIFO[T]) Len() int { return f.count }

// Full reports whether another push would be refused.
func (f *FIFO[T]) Full() bool { return f.count == len(f.slots) }

// Empty reports whether nothing is in flight.
func (f *FIFO[T]) Empty() bool { return f.count == 0 }

// HighWater returns the largest occupancy seen.
func (f *FIFO[T]) HighWater() int { return f.highWater }

// Push appends s. It returns false when the FIFO is full.
func (f *FIFO[T]) Push(s Slot[T]) bool {
	if f.Full() {
		return false
	}
	f.slots[f.in] = s
	f.in = (f.in + 1) % len(f.slots)
	f.count++
	if f.count > f.highWater {
		f.highWater = f.count
	}
	return true
}

// Head returns the oldest operation.
func (f *FIFO[T]) Head() (*Slot[T], bool) {
	if f.count == 0 {
		return nil, false
	}
	return &f.slots[f.out], true
}

// Pop removes and returns the oldest operation.
func (f *FIFO[T]) Pop() Slot[T] {
	s := f.slots[f.out]
	f.slots[f.out] = Slot[T]{}
	f.out = (f.out + 1) % len(f.slots)
	f.count--
	return s
}

// Furthest returns the latest completion clock in flight.
func (f *FIFO[T]) Furthest() (uint64, bool) {
	var furthest uint64
	for i := 0; i < f.count; i++ {
		c := f.slots[(f.out+i)%len(f.slots)].Complete
		if c > furthest {
			furthest = c
		}
	}
	return furthest, f.count > 0
}

// Each visits the in-flight operations from oldest to newest.
func (f *FIFO[T]) Each(fn func(*Slot[T])) {
	for i := 0; i < f.count; i++ {
		fn(&f.slots[(f.out+i)%len(f.slots)])
	}
}

// Reset drops every operation and the high-water mark.
func (f *FIFO[T]) Reset() {
	clear(f.slots)
	f.in, f.out, f.count, f.highWater = 0, 0, 0, 0
}
