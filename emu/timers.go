package emu

// NumTimers is the number of 16-bit hardware timers.
const NumTimers = 4

// Timer is one millisecond timer. Timers 0/2 and 1/3 may be chained
// into a single 32-bit timer, in which case the higher one is unused.
type Timer struct {
	Armed    bool
	Periodic bool
	Urgent   bool
	Thread   int
	Period   uint32
	Expiry   uint32
}

// Timers is the millisecond counter and the timers driven by it.
type Timers struct {
	MS     uint32
	Paused bool
	Chain  [2]bool
	Timers [NumTimers]Timer
}

// Expiry receives a fired timer.
type Expiry func(thread int, urgent bool)

func (t *Timers) used(i int) bool {
	return i < 2 || !t.Chain[i-2]
}

// Armed reports any armed timer.
func (t *Timers) Armed() bool {
	for i := range t.Timers {
		if t.used(i) && t.Timers[i].Armed {
			return true
		}
	}
	return false
}

// SetControl0 applies a TIMER_CTRL_0 write.
func (t *Timers) SetControl0(v uint32) {
	if v&1 != 0 {
		t.MS = 0
		for i := range t.Timers {
			t.Timers[i].Armed = false
		}
	}
	t.Paused = v&2 != 0
	t.Chain[0] = v&(1<<8) != 0
	t.Chain[1] = v&(1<<16) != 0
}

// Control0 composes TIMER_CTRL_0. The reset bit reads as zero.
func (t *Timers) Control0() uint32 {
	var v uint32
	if t.Paused {
		v |= 2
	}
	if t.Chain[0] {
		v |= 1 << 8
	}
	if t.Chain[1] {
		v |= 1 << 16
	}
	return v
}

// SetControl1 applies a TIMER_CTRL_1 write, one byte per timer.
// Arming a disarmed timer starts a fresh period.
func (t *Timers) SetControl1(v uint32) {
	for i := range t.Timers {
		b := v >> (8 * i) & 0xFF
		tm := &t.Timers[i]
		armed := b&1 != 0
		if armed && !tm.Armed {
			tm.Expiry = t.MS + tm.Period
		}
		tm.Armed = armed
		tm.Periodic = b&2 != 0
		tm.Thread = int(b>>2) & 0x1F
		tm.Urgent = b&0x80 != 0
	}
}

// Control1 composes TIMER_CTRL_1 from the timer state.
func (t *Timers) Control1() uint32 {
	var v uint32
	for i, tm := range t.Timers {
		var b uint32
		if tm.Armed {
			b |= 1
		}
		if tm.Periodic {
			b |= 2
		}
		b |= uint32(tm.Thread&0x1F) << 2
		if tm.Urgent {
			b |= 0x80
		}
		v |= b << (8 * i)
	}
	return v
}

// SetValue programs timer pair p (0 for T0_VAL, 1 for T1_VAL). The low
// half feeds timer p and the high half timer p+2, unless the pair is
// chained.
func (t *Timers) SetValue(p int, v uint32) {
	if t.Chain[p] {
		t.program(p, v)
		return
	}
	t.program(p, v&0xFFFF)
	t.program(p+2, v>>16)
}

func (t *Timers) program(i int, period uint32) {
	tm := &t.Timers[i]
	tm.Period = period
	tm.Expiry = t.MS + period
}

// Tick advances the millisecond counter and fires due timers.
func (t *Timers) Tick(fire Expiry) {
	if t.Paused {
		return
	}
	t.MS++
	for i := range t.Timers {
		tm := &t.Timers[i]
		if !t.used(i) || !tm.Armed || int32(t.MS-tm.Expiry) < 0 {
			continue
		}
		fire(tm.Thread, tm.Urgent)
		if tm.Periodic {
			tm.Expiry = t.MS + max(tm.Period, 1)
		} else {
			tm.Armed = false
		}
	}
}

// Reset stops every timer and clears the counter.
func (t *Timers) Reset() {
	*t = Timers{}
}
