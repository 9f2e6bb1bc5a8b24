package emu

import "fmt"

// Scheduler holds per-thread wakeup state and picks the next context.
// Each per-thread field is a bit set indexed by thread.
type Scheduler struct {
	Sync        uint32
	AsyncNormal uint32
	AsyncUrgent uint32
	Mask        uint32
	AsyncEnable uint32

	Previous  int
	Current   int
	Next      int
	NextValid bool

	// Save records whether a parked context must be saved when the
	// scheduler resumes it.
	Save bool

	initialMask uint32
}

// NewScheduler creates a scheduler. A set bit in mask starts that
// thread masked.
func NewScheduler(mask uint32) *Scheduler {
	s := &Scheduler{initialMask: mask}
	s.Reset()
	return s
}

func bit(thread int) uint32 {
	return 1 << (uint(thread) & 31)
}

// PostSync posts a sync wakeup.
func (s *Scheduler) PostSync(thread int) {
	s.Sync |= bit(thread)
}

// PostAsync posts an async wakeup and enables async scheduling for the
// thread.
func (s *Scheduler) PostAsync(thread int, urgent bool) {
	s.AsyncEnable |= bit(thread)
	if urgent {
		s.AsyncUrgent |= bit(thread)
	} else {
		s.AsyncNormal |= bit(thread)
	}
}

// SetMasked masks or unmasks a thread.
func (s *Scheduler) SetMasked(thread int, masked bool) {
	if masked {
		s.Mask |= bit(thread)
	} else {
		s.Mask &^= bit(thread)
	}
}

// EnableAsync sets the async-enable bit of a thread.
func (s *Scheduler) EnableAsync(thread int) {
	s.AsyncEnable |= bit(thread)
}

// Pending reports a wakeup waiting on any unmasked thread.
func (s *Scheduler) Pending() bool {
	async := (s.AsyncNormal | s.AsyncUrgent) & s.AsyncEnable
	return (s.Sync|async)&^s.Mask != 0
}

// Arbitrate scans the threads and records the winner as Next. The scan
// visits eight groups of eight threads; the first pass prefers urgent
// async wakeups and the second normal ones, each falling back to sync
// wakeups.
func (s *Scheduler) Arbitrate() (int, bool) {
	for g := 0; g < 8; g++ {
		base := (g / 2) * 8
		if t, ok := s.scan(base, s.AsyncUrgent); ok {
			return s.choose(t), true
		}
		if t, ok := s.scan(base, s.AsyncNormal); ok {
			return s.choose(t), true
		}
	}
	return 0, false
}

func (s *Scheduler) scan(base int, async uint32) (int, bool) {
	for t := base; t < base+8; t++ {
		b := bit(t)
		if s.Mask&b != 0 {
			continue
		}
		if async&b != 0 && s.AsyncEnable&b != 0 || s.Sync&b != 0 {
			return t, true
		}
	}
	return 0, false
}

func (s *Scheduler) choose(t int) int {
	s.Next = t
	s.NextValid = true
	return t
}

// Switch makes Next the current context and clears its wakeups. An
// async-enabled thread drops every wakeup; otherwise only the sync one.
func (s *Scheduler) Switch() int {
	next := s.Next
	b := bit(next)
	if s.AsyncEnable&b != 0 {
		s.AsyncEnable &^= b
		s.AsyncNormal &^= b
		s.AsyncUrgent &^= b
	}
	s.Sync &^= b

	s.Previous = s.Current
	s.Current = next
	s.NextValid = false
	return next
}

// Reset restores the power-on state with context 0 current.
func (s *Scheduler) Reset() {
	*s = Scheduler{Mask: s.initialMask, initialMask: s.initialMask}
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("cur=%d prev=%d next=%d/%v sync=%08x norm=%08x urg=%08x mask=%08x async=%08x",
		s.Current, s.Previous, s.Next, s.NextValid,
		s.Sync, s.AsyncNormal, s.AsyncUrgent, s.Mask, s.AsyncEnable)
}
