// Package sema provides the semaphores shared by co-running Runners.
//
// Semaphores are advisory. The arbiter only records ownership and
// waiters; nothing stops a runner from touching shared memory without
// holding a semaphore.
package sema

import "fmt"

// Count is the number of semaphores.
const Count = 8

// Status bits returned by Read.
const (
	StatusOwned uint8 = 1 << 0
	StatusHeld  uint8 = 1 << 1
)

// Command bits accepted by Write.
const (
	CmdAcquire       uint8 = 1 << 0
	CmdRelease       uint8 = 1 << 1
	CmdWakeOnRelease uint8 = 1 << 2
)

// Waker receives wakeups for threads waiting on a semaphore.
type Waker interface {
	PostSyncWakeup(thread int)
}

// Semaphore is the state of one lock.
type Semaphore struct {
	Held          bool
	Owner         int
	WakeOnRelease bool
	Waiting       bool
	WaitRunner    int
	WaitThread    int
}

// Arbiter owns the shared semaphores.
type Arbiter struct {
	sems   [Count]Semaphore
	wakers map[int]Waker
}

// NewArbiter creates an arbiter with every semaphore free.
func NewArbiter() *Arbiter {
	return &Arbiter{wakers: make(map[int]Waker)}
}

// Register associates a runner id with the target of its wakeups.
func (a *Arbiter) Register(runner int, w Waker) {
	a.wakers[runner] = w
}

// State returns a copy of semaphore i.
func (a *Arbiter) State(i int) Semaphore {
	return a.sems[i]
}

// Acquire takes semaphore i for runner if it is free.
func (a *Arbiter) Acquire(i, runner int) bool {
	s := &a.sems[i]
	if s.Held {
		return false
	}
	s.Held = true
	s.Owner = runner
	return true
}

// Release frees semaphore i and wakes the recorded waiter.
func (a *Arbiter) Release(i int) {
	s := &a.sems[i]
	s.Held = false
	if s.Waiting && s.WakeOnRelease {
		if w, ok := a.wakers[s.WaitRunner]; ok {
			w.PostSyncWakeup(s.WaitThread)
		}
		s.WakeOnRelease = false
	}
	s.Waiting = false
}

// Write applies a command byte from runner to semaphore i. A release
// is applied before an acquire in the same byte.
func (a *Arbiter) Write(i, runner int, cmd uint8) {
	s := &a.sems[i]
	if cmd&CmdWakeOnRelease != 0 {
		s.WakeOnRelease = true
	}
	if cmd&CmdRelease != 0 {
		a.Release(i)
	}
	if cmd&CmdAcquire != 0 {
		a.Acquire(i, runner)
	}
}

// Read returns the status byte of semaphore i as seen by runner. A
// reader that finds the semaphore held by another runner is recorded
// as its waiter.
func (a *Arbiter) Read(i, runner, thread int) uint8 {
	s := &a.sems[i]
	if !s.Held {
		return 0
	}
	if s.Owner == runner {
		return StatusHeld | StatusOwned
	}
	s.Waiting = true
	s.WakeOnRelease = true
	s.WaitRunner = runner
	s.WaitThread = thread
	return StatusHeld
}

// Reset frees every semaphore. Registered wakers are kept.
func (a *Arbiter) Reset() {
	a.sems = [Count]Semaphore{}
}

func (s Semaphore) String() string {
	if !s.Held {
		return "free"
	}
	return fmt.Sprintf("held by %d", s.Owner)
}
