package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/insts"
	"github.com/sarchlab/runnersim/mem"
	"github.com/sarchlab/runnersim/sema"
	"github.com/sarchlab/runnersim/timing/latency"
)

// Segment sizes in bytes.
const (
	CodeSize    = 32 << 10
	SRAMSize    = 48 << 10
	ContextSize = NumThreads * NumPrivates * 4
	CommonSize  = 64 << 10
)

// Remote memory layout used by DMA and counters.
const (
	DDRBufferBase    uint32 = 0x1D0000 + 8
	DDRBufferSize    uint32 = 2048
	PacketBufferSize uint32 = 128
	CounterBase      uint32 = 0x01F00000
)

var (
	// ErrZeroResumePC is raised when a restored context would resume at
	// address zero.
	ErrZeroResumePC = errors.New("zero resume pc")

	// ErrClockLimit is raised when a runner reaches its clock limit.
	ErrClockLimit = errors.New("clock limit reached")
)

// DecodeError reports a word that matches no instruction.
type DecodeError struct {
	PC   uint32
	Word uint32
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at pc 0x%04x: %v", e.PC, e.Err)
}

// Unwrap returns the decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StepResult represents the result of advancing one clock.
type StepResult struct {
	// Halted is true once the runner has stopped for good.
	Halted bool

	// Err is the fatal error that halted the runner, if any.
	Err error
}

// Shared holds the memories and locks owned outside the runners.
type Shared struct {
	Common     *mem.Segment
	DDR        *mem.Sparse
	PacketSRAM *mem.Sparse
	Semaphores *sema.Arbiter
	HashTables *accel.HashTables
}

// NewShared creates the shared state sized by config.
func NewShared(config *latency.Config) *Shared {
	return &Shared{
		Common:     mem.NewSegment("common", CommonSize),
		DDR:        mem.NewSparse("ddr", config.DDRSize),
		PacketSRAM: mem.NewSparse("packet_sram", config.PacketSRAMSize),
		Semaphores: sema.NewArbiter(),
		HashTables: accel.NewHashTables(accel.DefaultHashTableConfig()),
	}
}

// Reset clears the shared memories, semaphores and hash tables.
func (s *Shared) Reset() {
	s.Common.Reset()
	s.DDR.Reset()
	s.PacketSRAM.Reset()
	s.Semaphores.Reset()
	s.HashTables.Reset()
}

// Peer is the view a runner has of its co-runner.
type Peer interface {
	CounterLock() bool
	SetCounterLock(locked bool)
	CounterFIFOEmpty() bool
}

// Stats holds the counters of one runner.
type Stats struct {
	Clocks          uint64
	Instructions    uint64
	ContextSwitches uint64
	CallOverflows   uint64
	CallUnderflows  uint64

	// StallClocks counts the clocks spent in each stall cause.
	StallClocks [NumStallCauses]uint64
	// Stalls counts stall entries per cause.
	Stalls [NumStallCauses]uint64
	// StallDurations lists the length in clocks of every finished stall.
	StallDurations [NumStallCauses][]uint64

	HighWater accel.Occupancy
}

// Runner is one multithreaded Runner core.
type Runner struct {
	id     int
	shared *Shared
	config *latency.Config
	src    latency.Source
	log    logr.Logger
	tracer *Tracer
	peer   Peer

	messages MessageHandler

	code    *mem.Segment
	sram    *mem.Segment
	context *mem.Segment

	regFile *RegFile
	io      IOFile
	sched   *Scheduler
	timers  Timers
	units   *accel.Units
	pipe    Pipeline
	calls   CallStack
	stall   Stall

	decoder    *insts.Decoder
	alu        *ALU
	branchUnit *BranchUnit
	lsu        *LoadStoreUnit

	// fetch is the address of the next instruction when no delay slot
	// is pending.
	fetch uint32
	// pc is the address of the instruction being executed.
	pc uint32
	// inSlot is set while a delay-slot instruction executes.
	inSlot bool
	// pending is the stall requested by the executing instruction.
	pending StallCause

	cntrLock bool

	clock     uint64
	maxClocks uint64
	halted    bool
	err       error

	changes changeLog
	stats   Stats
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithConfig sets the timing configuration.
func WithConfig(config *latency.Config) RunnerOption {
	return func(r *Runner) {
		r.config = config
	}
}

// WithLatencySource sets the accelerator latency source.
func WithLatencySource(src latency.Source) RunnerOption {
	return func(r *Runner) {
		r.src = src
	}
}

// WithTrace writes the instruction trace to w.
func WithTrace(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.tracer = NewTracer(w)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log logr.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// WithMaxClocks sets the maximum number of clocks to run.
// A value of 0 means no limit.
func WithMaxClocks(n uint64) RunnerOption {
	return func(r *Runner) {
		r.maxClocks = n
	}
}

// WithPeer sets the co-runner.
func WithPeer(p Peer) RunnerOption {
	return func(r *Runner) {
		r.peer = p
	}
}

// WithMessageHandler sets the receiver of buffer messages.
func WithMessageHandler(h MessageHandler) RunnerOption {
	return func(r *Runner) {
		r.messages = h
	}
}

// NewRunner creates runner id attached to the shared state.
func NewRunner(id int, shared *Shared, opts ...RunnerOption) *Runner {
	r := &Runner{
		id:      id,
		shared:  shared,
		log:     logr.Discard(),
		code:    mem.NewSegment("code", CodeSize),
		sram:    mem.NewSegment("sram", SRAMSize),
		context: mem.NewSegment("context", ContextSize),
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.config == nil {
		r.config = latency.DefaultConfig()
	}
	if r.src == nil {
		r.src = latency.NewRandomSource(r.config.Seed)
	}

	r.alu = NewALU(r.regFile)
	r.branchUnit = NewBranchUnit(r.regFile)
	r.lsu = NewLoadStoreUnit(r.regFile, r.sram, shared.Common)
	r.sched = NewScheduler(r.config.InitialMask)
	r.units = accel.NewUnits(r.config, r.src, shared.HashTables)
	r.changes.enabled = r.tracer != nil

	shared.Semaphores.Register(id, r)
	r.Reset()
	return r
}

// ID returns the runner id.
func (r *Runner) ID() int { return r.id }

// RegFile returns the register file.
func (r *Runner) RegFile() *RegFile { return r.regFile }

// Scheduler returns the thread scheduler.
func (r *Runner) Scheduler() *Scheduler { return r.sched }

// Units returns the accelerator units.
func (r *Runner) Units() *accel.Units { return r.units }

// Code returns the code segment.
func (r *Runner) Code() *mem.Segment { return r.code }

// SRAM returns the private data segment.
func (r *Runner) SRAM() *mem.Segment { return r.sram }

// Context returns the context-save segment.
func (r *Runner) Context() *mem.Segment { return r.context }

// Clock returns the number of clocks run.
func (r *Runner) Clock() uint64 { return r.clock }

// Fetch returns the next fetch address.
func (r *Runner) Fetch() uint32 { return r.fetch }

// Stall returns the current stall record.
func (r *Runner) Stall() Stall { return r.stall }

// Pipeline returns the pending delay slots.
func (r *Runner) Pipeline() *Pipeline { return &r.pipe }

// CallDepth returns the number of saved return addresses.
func (r *Runner) CallDepth() int { return r.calls.Depth() }

// Timers returns the timer state.
func (r *Runner) Timers() Timers { return r.timers }

// Halted reports whether the runner has stopped.
func (r *Runner) Halted() bool { return r.halted }

// Err returns the error that halted the runner.
func (r *Runner) Err() error { return r.err }

// SetPeer sets the co-runner after construction.
func (r *Runner) SetPeer(p Peer) { r.peer = p }

// SetMessageHandler sets the message receiver after construction.
func (r *Runner) SetMessageHandler(h MessageHandler) { r.messages = h }

// Reset returns the runner to its power-on state. Loaded segments are
// kept; context 0 is restored and fetch starts at address 0.
func (r *Runner) Reset() {
	*r.regFile = RegFile{}
	r.io.Reset()
	r.sched.Reset()
	r.timers.Reset()
	r.units.Reset()
	r.pipe.Reset()
	r.calls.Reset()
	r.stall = Stall{}
	r.fetch = 0
	r.pc = 0
	r.inSlot = false
	r.pending = StallNone
	r.cntrLock = false
	r.clock = 0
	r.halted = false
	r.err = nil
	r.changes.items = r.changes.items[:0]
	r.stats = Stats{}
	r.restoreContext(0)
}

// Stats returns a snapshot of the runner counters.
func (r *Runner) Stats() Stats {
	s := r.stats
	s.Clocks = r.clock
	s.HighWater = r.units.HighWater()
	for c := range s.StallDurations {
		s.StallDurations[c] = append([]uint64(nil), r.stats.StallDurations[c]...)
	}
	return s
}

// Idle reports a runner parked without any work that could wake it.
func (r *Runner) Idle() bool {
	return r.stall.Cause == StallNoContext &&
		r.units.Idle() &&
		!r.sched.Pending() &&
		!r.timers.Armed()
}

// Step advances the runner by one clock: execute, accelerator
// completions, timers, then scheduler arbitration.
func (r *Runner) Step() StepResult {
	if r.halted {
		return StepResult{Halted: true, Err: r.err}
	}

	r.clock++
	if r.maxClocks > 0 && r.clock > r.maxClocks {
		r.clock--
		r.halt(ErrClockLimit)
		return StepResult{Halted: true, Err: r.err}
	}

	r.executeTick()
	if !r.halted {
		r.units.Tick(r.clock, runnerHost{r})
	}
	if !r.halted && r.clock%r.config.TimerTick == 0 {
		r.tickTimers()
	}
	if !r.halted && r.clock%r.config.SchedulerPeriod == 0 {
		r.schedulerTick()
	}
	if r.stall.Active() {
		r.stats.StallClocks[r.stall.Cause]++
	}

	return StepResult{Halted: r.halted, Err: r.err}
}

// Run steps until the runner halts or goes idle.
func (r *Runner) Run() error {
	for {
		res := r.Step()
		if res.Halted {
			return res.Err
		}
		if r.Idle() {
			return nil
		}
	}
}

// RunClocks steps at most n clocks, stopping early on a halt.
func (r *Runner) RunClocks(n uint64) error {
	for i := uint64(0); i < n; i++ {
		if res := r.Step(); res.Halted {
			return res.Err
		}
	}
	return nil
}

func (r *Runner) executeTick() {
	switch {
	case r.stall.Cause == StallNoContext:
	case r.pipe.Swapping():
		r.drainSwap()
	case !r.pipe.Empty():
		r.runSlot()
	default:
		r.runFetch()
	}
}

func (r *Runner) runFetch() {
	pc := r.fetch & PCMask
	word := r.code.Word(int(pc >> 2))
	r.fetch = (pc + 4) & PCMask
	if r.exec(pc, word) {
		r.fetch = pc
		return
	}
	if r.pipe.Swapping() && !r.halted {
		r.drainSwap()
	}
}

func (r *Runner) runSlot() {
	s := r.pipe.Head()
	r.inSlot = true
	stalled := r.exec(s.PC, s.Word)
	r.inSlot = false
	if stalled {
		return
	}
	r.pipe.Pop()
	if r.pipe.Empty() {
		r.fetch = r.pipe.Target
	}
}

// drainSwap executes the instructions queued ahead of a context swap,
// then swaps. A stalled slot stays queued and is retried next clock.
func (r *Runner) drainSwap() {
	for !r.pipe.Empty() {
		s := r.pipe.Head()
		r.inSlot = true
		stalled := r.exec(s.PC, s.Word)
		r.inSlot = false
		if stalled || r.halted {
			return
		}
		r.pipe.Pop()
	}
	req := r.pipe.PendingSwap()
	r.pipe.Reset()
	if req.UpdateR16 {
		lr := &r.regFile.Privates[LinkRegister]
		*lr = *lr&0xFFFF | req.Imm<<16
		r.regChanged(NumGlobals + LinkRegister)
	}
	if req.Async {
		r.sched.EnableAsync(r.sched.Current)
	}
	r.requestSwap(req.Save)
}

// exec decodes and executes one instruction and reports whether it
// stalled.
func (r *Runner) exec(pc, word uint32) bool {
	r.pc = pc
	r.pending = StallNone

	inst, err := r.decoder.DecodeChecked(word)
	if err != nil {
		r.halt(&DecodeError{PC: pc, Word: word, Err: err})
		return false
	}

	r.dispatch(inst)

	if r.pending != StallNone {
		r.enterStall(r.pending, pc)
		return true
	}
	if r.stall.Cause.Retryable() {
		r.exitStall()
	}
	r.stats.Instructions++

	if r.tracer != nil {
		r.tracer.Instruction(r.clock, r.id, pc, word, inst.String(), r.changes.take())
	}
	return false
}

func (r *Runner) stallOn(cause StallCause) {
	r.pending = cause
}

func (r *Runner) enterStall(cause StallCause, pc uint32) {
	if r.stall.Cause == cause && r.stall.PC == pc {
		return
	}
	if r.stall.Active() {
		r.exitStall()
	}
	r.stall = Stall{Cause: cause, Since: r.clock, PC: pc}
	r.stats.Stalls[cause]++
	r.changes.add("STALL: %s", cause)
}

func (r *Runner) exitStall() {
	c := r.stall.Cause
	r.stats.StallDurations[c] = append(r.stats.StallDurations[c], r.clock-r.stall.Since)
	r.stall = Stall{}
	r.changes.add("STALL: none")
}

// beginSwap queues the two following instructions ahead of a swap.
func (r *Runner) beginSwap(req SwapRequest) {
	if r.inSlot {
		r.log.V(1).Info("context swap in delay slot ignored",
			"runner", r.id, "clock", r.clock, "pc", r.pc)
		return
	}
	r.pipe.LoadSwap(req, r.prefetch(2)...)
}

// park queues a swap with no delay slots. The thread resumes at the
// next instruction.
func (r *Runner) park() {
	if r.inSlot {
		r.log.V(1).Info("wait in delay slot ignored",
			"runner", r.id, "clock", r.clock, "pc", r.pc)
		return
	}
	r.regFile.SetResumePC(r.pc + 4)
	r.pipe.LoadSwap(SwapRequest{Save: true})
}

// requestSwap switches to the selected context, or parks the runner
// until the scheduler selects one.
func (r *Runner) requestSwap(save bool) {
	if r.sched.NextValid {
		r.contextSwitch(save)
		return
	}
	r.sched.Save = save
	r.enterStall(StallNoContext, r.fetch)
	r.changes.add("NEXT: ??")
}

func (r *Runner) contextSwitch(save bool) {
	if save {
		r.saveContext(r.sched.Current)
	}
	next := r.sched.Switch()
	r.restoreContext(next)
	r.regFile.Flags = 0
	r.pipe.Reset()
	r.stats.ContextSwitches++
	r.changes.add("THREAD: %d", next)

	resume := r.regFile.ResumePC()
	if resume == 0 {
		r.halt(fmt.Errorf("%w: thread %d", ErrZeroResumePC, next))
		return
	}
	r.fetch = resume
}

func (r *Runner) saveContext(thread int) {
	base := thread * NumPrivates
	for i, v := range r.regFile.Privates {
		r.context.SetWord(base+i, v)
	}
}

func (r *Runner) restoreContext(thread int) {
	base := thread * NumPrivates
	for i := range r.regFile.Privates {
		r.regFile.Privates[i] = r.context.Word(base + i)
	}
}

func (r *Runner) schedulerTick() {
	if _, ok := r.sched.Arbitrate(); !ok {
		if r.stall.Cause == StallNoContext {
			r.log.V(1).Info("scheduler found no candidate", "runner", r.id, "clock", r.clock)
		}
		return
	}
	r.changes.add("NEXT: %d", r.sched.Next)
	if r.stall.Cause == StallNoContext {
		r.exitStall()
		r.contextSwitch(r.sched.Save)
	}
}

func (r *Runner) halt(err error) {
	r.halted = true
	r.err = err
	if err != nil && !errors.Is(err, ErrClockLimit) {
		r.log.Error(err, "runner halted", "runner", r.id, "clock", r.clock, "pc", r.pc)
	}
}

// PostSyncWakeup posts a sync wakeup. Semaphore releases wake waiters
// through it.
func (r *Runner) PostSyncWakeup(thread int) {
	r.sched.PostSync(thread)
}

// CounterLock reports the counter lock of this runner.
func (r *Runner) CounterLock() bool { return r.cntrLock }

// SetCounterLock sets the counter lock of this runner.
func (r *Runner) SetCounterLock(locked bool) { r.cntrLock = locked }

// CounterFIFOEmpty reports no counter update in flight.
func (r *Runner) CounterFIFOEmpty() bool { return r.units.Counter.Empty() }

// runnerHost applies accelerator completions to a runner.
type runnerHost struct {
	r *Runner
}

func (h runnerHost) SetResult(addr, v uint32) {
	h.r.io.SetWord(addr, v)
	h.r.changes.add("IO: %s=%08X", ioName(addr), v)
}

func (h runnerHost) Wakeup(thread int) {
	h.r.sched.PostSync(thread)
}

func (h runnerHost) Deliver(msg accel.Message) {
	if h.r.messages != nil {
		h.r.messages.HandleMessage(msg)
	}
}

func (h runnerHost) Fault(err error) {
	h.r.halt(fmt.Errorf("accelerator: %w", err))
}
