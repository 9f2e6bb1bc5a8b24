// Package sim runs a pair of co-running Runners over shared memory.
//
// The Simulator owns the common segment, DDR, packet SRAM, semaphores
// and hash tables, builds both runners and drives their clocks until
// every runner is idle or halted.
package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/rs/xid"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/loader"
	"github.com/sarchlab/runnersim/timing/latency"
)

// NumRunners is the number of co-running Runners.
const NumRunners = 2

// Mode selects how the runners share the clock.
type Mode int

const (
	// Interleaved steps every runner once per clock.
	Interleaved Mode = iota
	// Sequential runs runner 0 to completion before starting runner 1.
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "interleaved"
}

// Sample is the accelerator occupancy of one runner at one clock.
type Sample struct {
	Clock     uint64
	Occupancy accel.Occupancy
}

// Simulator drives the co-runners.
type Simulator struct {
	id        xid.ID
	config    *latency.Config
	src       latency.Source
	log       logr.Logger
	trace     io.Writer
	mode      Mode
	maxClocks uint64

	sampleEvery uint64
	samples     [NumRunners][]Sample

	shared   *emu.Shared
	runners  [NumRunners]*emu.Runner
	active   [NumRunners]bool
	messages [NumRunners]emu.MessageLog
}

// ErrNoProgram is returned by Run when no runner has a program.
var ErrNoProgram = errors.New("no runner has a program")

// Option is a functional option for configuring a Simulator.
type Option func(*Simulator)

// WithConfig sets the timing configuration.
func WithConfig(config *latency.Config) Option {
	return func(s *Simulator) {
		s.config = config
	}
}

// WithLatencySource makes both runners draw latencies from src.
// By default each runner gets its own random source.
func WithLatencySource(src latency.Source) Option {
	return func(s *Simulator) {
		s.src = src
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Simulator) {
		s.log = log
	}
}

// WithTrace writes the instruction trace of both runners to w.
func WithTrace(w io.Writer) Option {
	return func(s *Simulator) {
		s.trace = w
	}
}

// WithMode selects interleaved or sequential driving.
func WithMode(m Mode) Option {
	return func(s *Simulator) {
		s.mode = m
	}
}

// WithMaxClocks stops each runner after n clocks. 0 means no limit.
func WithMaxClocks(n uint64) Option {
	return func(s *Simulator) {
		s.maxClocks = n
	}
}

// WithSampling records accelerator occupancy every n clocks.
func WithSampling(n uint64) Option {
	return func(s *Simulator) {
		s.sampleEvery = n
	}
}

// NewSimulator creates a simulator with both runners reset.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		id:  xid.New(),
		log: logr.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.config == nil {
		s.config = latency.DefaultConfig()
	}
	s.log = s.log.WithValues("run", s.id.String())
	s.shared = emu.NewShared(s.config)

	for i := range s.runners {
		src := s.src
		if src == nil {
			src = latency.NewRandomSource(s.config.Seed + uint64(i))
		}
		runnerOpts := []emu.RunnerOption{
			emu.WithConfig(s.config),
			emu.WithLatencySource(src),
			emu.WithLogger(s.log),
			emu.WithMaxClocks(s.maxClocks),
			emu.WithMessageHandler(router{sim: s, from: i}),
		}
		if s.trace != nil {
			runnerOpts = append(runnerOpts, emu.WithTrace(s.trace))
		}
		s.runners[i] = emu.NewRunner(i, s.shared, runnerOpts...)
	}
	s.runners[0].SetPeer(s.runners[1])
	s.runners[1].SetPeer(s.runners[0])

	return s
}

// router records every message of a runner and forwards the ones
// addressed to the co-runner.
type router struct {
	sim  *Simulator
	from int
}

func (h router) HandleMessage(msg accel.Message) {
	h.sim.messages[h.from].HandleMessage(msg)
	if msg.Dest == emu.CoRunnerDest {
		h.sim.runners[1-h.from].DeliverMessage(msg)
	}
}

// ID returns the run identifier.
func (s *Simulator) ID() string { return s.id.String() }

// Config returns the timing configuration.
func (s *Simulator) Config() *latency.Config { return s.config }

// Shared returns the state shared by the runners.
func (s *Simulator) Shared() *emu.Shared { return s.shared }

// Runner returns runner i.
func (s *Simulator) Runner(i int) *emu.Runner { return s.runners[i] }

// Messages returns the messages completed by runner i.
func (s *Simulator) Messages(i int) []accel.Message { return s.messages[i].Messages }

// Samples returns the occupancy samples of runner i.
func (s *Simulator) Samples(i int) []Sample { return s.samples[i] }

// Active reports whether runner i has a program and takes part in Run.
func (s *Simulator) Active(i int) bool { return s.active[i] }

// LoadProgram copies the images of prog into runner i and resets it.
// Only runners with a program are driven by Run.
func (s *Simulator) LoadProgram(i int, prog *loader.Program) error {
	if i < 0 || i >= NumRunners {
		return fmt.Errorf("runner %d does not exist", i)
	}

	r := s.runners[i]
	r.Code().Reset()
	r.SRAM().Reset()
	r.Context().Reset()
	r.Code().Load(prog.Code)
	r.SRAM().Load(prog.Data)
	r.Context().Load(prog.Context)
	r.Reset()
	s.active[i] = true

	return nil
}

// LoadCommon fills the common segment.
func (s *Simulator) LoadCommon(words []uint32) {
	s.shared.Common.Reset()
	s.shared.Common.Load(words)
}

// InstallHashEntry pre-loads a key into a hash table.
func (s *Simulator) InstallHashEntry(table int, bank bool, key uint64, data uint32) {
	s.shared.HashTables.Insert(accel.HashKey(table, bank, key), data)
}

// Run drives the runners until each one is idle or halted. It returns
// the fatal errors of the runners; reaching the clock limit is not an
// error.
func (s *Simulator) Run() error {
	ids := s.activeRunners()
	if len(ids) == 0 {
		return ErrNoProgram
	}

	s.log.Info("simulation started", "mode", s.mode.String(),
		"runners", ids, "max_clocks", s.maxClocks)

	switch s.mode {
	case Sequential:
		for _, i := range ids {
			for !s.done(i) {
				s.step(i)
			}
		}
	default:
		for !s.allDone(ids) {
			for _, i := range ids {
				if !s.runners[i].Halted() {
					s.step(i)
				}
			}
		}
	}

	var errs []error
	for _, i := range ids {
		r := s.runners[i]
		err := r.Err()
		if err != nil && !errors.Is(err, emu.ErrClockLimit) {
			errs = append(errs, fmt.Errorf("runner %d: %w", i, err))
		}
		s.log.Info("runner finished", "runner", i, "clocks", r.Clock(),
			"instructions", r.Stats().Instructions, "halted", r.Halted())
	}

	return errors.Join(errs...)
}

func (s *Simulator) activeRunners() []int {
	var ids []int
	for i, ok := range s.active {
		if ok {
			ids = append(ids, i)
		}
	}
	return ids
}

func (s *Simulator) step(i int) {
	r := s.runners[i]
	r.Step()
	if s.sampleEvery > 0 && r.Clock()%s.sampleEvery == 0 {
		s.samples[i] = append(s.samples[i], Sample{
			Clock:     r.Clock(),
			Occupancy: r.Units().Occupancy(),
		})
	}
}

func (s *Simulator) done(i int) bool {
	r := s.runners[i]
	return r.Halted() || r.Idle()
}

func (s *Simulator) allDone(ids []int) bool {
	for _, i := range ids {
		if !s.done(i) {
			return false
		}
	}
	return true
}

// Reset resets both runners and clears the shared state, samples and
// recorded messages. Per-runner code, data and context images are
// kept; the common segment is cleared.
func (s *Simulator) Reset() {
	s.shared.Reset()
	for i, r := range s.runners {
		r.Reset()
		s.messages[i].Reset()
		s.samples[i] = nil
	}
}
