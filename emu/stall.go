package emu

// StallCause is the reason a runner cannot advance.
type StallCause uint8

// Stall causes.
const (
	StallNone StallCause = iota
	StallNoContext
	StallDmaFull
	StallBbtxFull
	StallBbmsgFull
	StallHashFull
	StallLoadIoPending
	StallRammanBusy
	StallCounterBusy

	// NumStallCauses is the number of causes, StallNone included.
	NumStallCauses
)

var stallNames = [NumStallCauses]string{
	StallNone:          "none",
	StallNoContext:     "no_context",
	StallDmaFull:       "dma_full",
	StallBbtxFull:      "bbtx_full",
	StallBbmsgFull:     "bbmsg_full",
	StallHashFull:      "hash_full",
	StallLoadIoPending: "load_io_pending",
	StallRammanBusy:    "ramman_busy",
	StallCounterBusy:   "counter_busy",
}

func (c StallCause) String() string {
	if c < NumStallCauses {
		return stallNames[c]
	}
	return "invalid"
}

// Retryable reports causes that re-issue the stalled instruction every
// clock. NoContext is resolved by the scheduler instead.
func (c StallCause) Retryable() bool {
	return c != StallNone && c != StallNoContext && c < NumStallCauses
}

// StallCauses lists every cause other than StallNone.
func StallCauses() []StallCause {
	causes := make([]StallCause, 0, NumStallCauses-1)
	for c := StallNoContext; c < NumStallCauses; c++ {
		causes = append(causes, c)
	}
	return causes
}

// Stall records why and since when a runner is blocked.
type Stall struct {
	Cause StallCause
	// Since is the clock the stall began.
	Since uint64
	// PC is the instruction that will be re-issued.
	PC uint32
}

// Active reports a stall in progress.
func (s Stall) Active() bool {
	return s.Cause != StallNone
}
