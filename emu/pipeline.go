package emu

// Slot is an already-fetched instruction waiting in the pipeline.
type Slot struct {
	PC   uint32
	Word uint32
}

// Pipeline holds up to two delay-slot instructions. Once they have all
// executed, fetch continues at Target, or a context swap is performed
// when one is pending.
type Pipeline struct {
	slots [2]Slot
	n     int

	// Target is the fetch address after the slots drain.
	Target uint32

	swap *SwapRequest
}

// SwapRequest is a context swap waiting behind its delay slots. The
// link register and async updates take effect once the slots have run.
type SwapRequest struct {
	Save      bool
	UpdateR16 bool
	Imm       uint32
	Async     bool
}

// Len returns the number of pending slots.
func (p *Pipeline) Len() int { return p.n }

// Empty reports whether no slot is pending.
func (p *Pipeline) Empty() bool { return p.n == 0 }

// Head returns the oldest pending slot.
func (p *Pipeline) Head() Slot { return p.slots[0] }

// Pop retires the oldest pending slot.
func (p *Pipeline) Pop() {
	p.slots[0] = p.slots[1]
	p.slots[1] = Slot{}
	p.n--
}

// Load replaces the pipeline content.
func (p *Pipeline) Load(target uint32, slots ...Slot) {
	p.n = copy(p.slots[:], slots)
	p.Target = target
	p.swap = nil
}

// LoadSwap queues the slots that run before a context swap.
func (p *Pipeline) LoadSwap(req SwapRequest, slots ...Slot) {
	p.Load(0, slots...)
	p.swap = &req
}

// Swapping reports that the slots belong to a context swap.
func (p *Pipeline) Swapping() bool { return p.swap != nil }

// PendingSwap returns the queued swap. It is the zero value when no
// swap is pending.
func (p *Pipeline) PendingSwap() SwapRequest {
	if p.swap == nil {
		return SwapRequest{}
	}
	return *p.swap
}

// Reset drops every pending slot.
func (p *Pipeline) Reset() {
	*p = Pipeline{}
}
