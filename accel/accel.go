// Package accel models the Runner hardware accelerators.
//
// Each unit keeps its in-flight operations in a bounded FIFO together
// with an absolute completion clock. The runner issues operations with
// fully resolved memory spaces and addresses; Tick applies completed
// operations to memory and result registers through a Host.
package accel

import (
	"crypto/sha256"
	"hash"

	"github.com/sarchlab/runnersim/mem"
	"github.com/sarchlab/runnersim/timing/latency"
)

// Host receives the effects of completed operations.
type Host interface {
	// SetResult writes a result register, bypassing write masks.
	SetResult(ioAddr uint32, v uint32)
	// Wakeup posts a sync wakeup to thread.
	Wakeup(thread int)
	// Deliver hands a buffer message to the message handler.
	Deliver(msg Message)
	// Fault reports a memory error raised during completion.
	Fault(err error)
}

// DMADirection selects what a DMA operation moves.
type DMADirection uint8

// DMA directions.
const (
	DMARead DMADirection = iota
	DMAWrite
	DMALookup
)

// DMAOp is a DMA transfer.
type DMAOp struct {
	Direction  DMADirection
	Local      mem.Space
	LocalAddr  uint32
	Remote     mem.Space
	RemoteAddr uint32
	Length     int
	// ResultAddr is the lookup result register.
	ResultAddr uint32
}

// CRCOp computes a CRC over local memory.
type CRCOp struct {
	Space      mem.Space
	Addr       uint32
	Length     int
	Seed       uint32
	Profile    CRCProfile
	Last       bool
	ResultAddr uint32
}

// CAMOp scans a key/mask table in local memory.
type CAMOp struct {
	Space      mem.Space
	TableAddr  uint32
	Entries    int
	KeyBytes   int
	Key        [2]uint64
	Masked     bool
	ResultAddr uint32
}

// HashOp looks up, and optionally learns, a key.
type HashOp struct {
	Tag        uint64
	Learn      bool
	LearnData  uint32
	Slot       int
	ResultAddr uint32
}

// CounterOp updates a counter in memory.
type CounterOp struct {
	Space  mem.Space
	Addr   uint32
	Wide   bool
	Dec    bool
	Wrap   bool
	Amount uint32
}

// BBTXOp transmits a buffer fragment.
type BBTXOp struct {
	Src     mem.Space
	SrcAddr uint32
	Dst     mem.Space
	DstAddr uint32
	Length  int
	Last    bool
}

// Message is a buffer message.
type Message struct {
	Runner int
	Thread int
	Dest   uint32
	Type   uint32
	Hi     uint32
	Lo     uint32
	Wide   bool
}

// CryptOp processes one crypto chunk.
type CryptOp struct {
	Space  mem.Space
	Addr   uint32
	Length int
	Auth   bool
	First  bool
	Last   bool
}

// Occupancy is a snapshot of in-flight operations per unit.
type Occupancy struct {
	DMA     int
	BBTX    int
	BBMSG   int
	Hash    int
	Counter int
	Ramman  int
	Crypt   int
}

// Units holds every accelerator of one runner.
type Units struct {
	config *latency.Config
	src    latency.Source
	tables *HashTables

	DMA     *FIFO[DMAOp]
	BBTX    *FIFO[BBTXOp]
	BBMSG   *FIFO[Message]
	Hash    *FIFO[HashOp]
	Counter *FIFO[CounterOp]

	ramman      Slot[rammanOp]
	rammanBusy  bool
	crypt       Slot[CryptOp]
	cryptBusy   bool
	cryptDigest hash.Hash
}

type rammanOp struct {
	crc *CRCOp
	cam *CAMOp
}

// NewUnits creates idle units. tables may be shared between runners.
func NewUnits(config *latency.Config, src latency.Source, tables *HashTables) *Units {
	return &Units{
		config:      config,
		src:         src,
		tables:      tables,
		DMA:         NewFIFO[DMAOp](config.Depths.DMA),
		BBTX:        NewFIFO[BBTXOp](config.Depths.BBTX),
		BBMSG:       NewFIFO[Message](config.Depths.BBMSG),
		Hash:        NewFIFO[HashOp](config.Depths.Hash),
		Counter:     NewFIFO[CounterOp](config.Depths.Counter),
		cryptDigest: sha256.New(),
	}
}

// Tables returns the hash tables.
func (u *Units) Tables() *HashTables {
	return u.tables
}

func completion[T any](u *Units, f *FIFO[T], w latency.Window, now uint64) uint64 {
	furthest, pending := f.Furthest()
	return latency.Completion(u.src, w, now, furthest, pending)
}

// IssueDMA queues a DMA transfer. It returns false when the FIFO is full.
func (u *Units) IssueDMA(now uint64, thread int, invoke bool, op DMAOp) bool {
	if u.DMA.Full() {
		return false
	}
	w := u.config.DMARead
	if op.Direction == DMAWrite {
		w = u.config.DMAWrite
	}
	return u.DMA.Push(Slot[DMAOp]{
		Thread: thread, Invoke: invoke, Op: op,
		Complete: completion(u, u.DMA, w, now),
	})
}

// RammanBusy reports an in-flight CRC or CAM operation.
func (u *Units) RammanBusy() bool {
	return u.rammanBusy
}

// IssueCRC starts a CRC. It returns false while the unit is busy.
func (u *Units) IssueCRC(now uint64, thread int, op CRCOp) bool {
	if u.rammanBusy {
		return false
	}
	w := u.config.CRCWindow(op.Length)
	u.ramman = Slot[rammanOp]{
		Thread: thread, Op: rammanOp{crc: &op},
		Complete: latency.Completion(u.src, w, now, 0, false),
	}
	u.rammanBusy = true
	return true
}

// IssueCAM starts a CAM lookup. It returns false while the unit is busy.
func (u *Units) IssueCAM(now uint64, thread int, invoke bool, op CAMOp) bool {
	if u.rammanBusy {
		return false
	}
	u.ramman = Slot[rammanOp]{
		Thread: thread, Invoke: invoke, Op: rammanOp{cam: &op},
		Complete: latency.Completion(u.src, u.config.CAM, now, 0, false),
	}
	u.rammanBusy = true
	return true
}

// IssueHash queues a hash lookup. It returns false when the FIFO is full.
func (u *Units) IssueHash(now uint64, thread int, invoke bool, op HashOp) bool {
	if u.Hash.Full() {
		return false
	}
	return u.Hash.Push(Slot[HashOp]{
		Thread: thread, Invoke: invoke, Op: op,
		Complete: completion(u, u.Hash, u.config.Hash, now),
	})
}

// HashPending reports an in-flight lookup targeting result slot.
func (u *Units) HashPending(slot int) bool {
	pending := false
	u.Hash.Each(func(s *Slot[HashOp]) {
		if s.Op.Slot == slot {
			pending = true
		}
	})
	return pending
}

// IssueCounter queues a counter update. It returns false when the FIFO
// is full.
func (u *Units) IssueCounter(now uint64, thread int, op CounterOp) bool {
	if u.Counter.Full() {
		return false
	}
	return u.Counter.Push(Slot[CounterOp]{
		Thread: thread, Op: op,
		Complete: completion(u, u.Counter, u.config.Counter, now),
	})
}

// IssueBBTX queues a transmit. It returns false when the FIFO is full.
func (u *Units) IssueBBTX(now uint64, thread int, invoke bool, op BBTXOp) bool {
	if u.BBTX.Full() {
		return false
	}
	return u.BBTX.Push(Slot[BBTXOp]{
		Thread: thread, Invoke: invoke, Op: op,
		Complete: completion(u, u.BBTX, u.config.BBTX, now),
	})
}

// IssueBBMSG queues a message. Messages never overtake the transmit at
// the head of the BBTX FIFO. It returns false when the FIFO is full.
func (u *Units) IssueBBMSG(now uint64, thread int, msg Message) bool {
	if u.BBMSG.Full() {
		return false
	}
	furthest, pending := u.BBMSG.Furthest()
	if head, ok := u.BBTX.Head(); ok {
		if !pending || head.Complete > furthest {
			furthest = head.Complete
		}
		pending = true
	}
	return u.BBMSG.Push(Slot[Message]{
		Thread: thread, Op: msg,
		Complete: latency.Completion(u.src, u.config.BBMSG, now, furthest, pending),
	})
}

// IssueCrypt starts a crypto chunk. The unit never refuses work: a
// chunk still in flight is completed on the spot first.
func (u *Units) IssueCrypt(now uint64, thread int, invoke bool, op CryptOp, host Host) {
	if u.cryptBusy {
		u.completeCrypt(host)
	}
	u.crypt = Slot[CryptOp]{
		Thread: thread, Invoke: invoke, Op: op,
		Complete: latency.Completion(u.src, u.config.Crypt, now, 0, false),
	}
	u.cryptBusy = true
}

// CryptBusy reports an in-flight crypto chunk.
func (u *Units) CryptBusy() bool {
	return u.cryptBusy
}

// Idle reports that no operation is in flight on any unit.
func (u *Units) Idle() bool {
	return u.DMA.Empty() && u.BBTX.Empty() && u.BBMSG.Empty() &&
		u.Hash.Empty() && u.Counter.Empty() && !u.rammanBusy && !u.cryptBusy
}

// Occupancy returns the current in-flight counts.
func (u *Units) Occupancy() Occupancy {
	o := Occupancy{
		DMA:     u.DMA.Len(),
		BBTX:    u.BBTX.Len(),
		BBMSG:   u.BBMSG.Len(),
		Hash:    u.Hash.Len(),
		Counter: u.Counter.Len(),
	}
	if u.rammanBusy {
		o.Ramman = 1
	}
	if u.cryptBusy {
		o.Crypt = 1
	}
	return o
}

// HighWater returns the largest occupancy seen per FIFO.
func (u *Units) HighWater() Occupancy {
	return Occupancy{
		DMA:     u.DMA.HighWater(),
		BBTX:    u.BBTX.HighWater(),
		BBMSG:   u.BBMSG.HighWater(),
		Hash:    u.Hash.HighWater(),
		Counter: u.Counter.HighWater(),
	}
}

// Reset drops all in-flight work.
func (u *Units) Reset() {
	u.DMA.Reset()
	u.BBTX.Reset()
	u.BBMSG.Reset()
	u.Hash.Reset()
	u.Counter.Reset()
	u.ramman = Slot[rammanOp]{}
	u.rammanBusy = false
	u.crypt = Slot[CryptOp]{}
	u.cryptBusy = false
	u.cryptDigest.Reset()
}
