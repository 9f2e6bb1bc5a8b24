package emu

import (
	"fmt"

	"github.com/sarchlab/runnersim/sema"
)

// IO window geometry.
const (
	IOSize    = 0x400
	IOWords   = IOSize / 4
	IOAddrMsk = IOSize - 1
)

// IO register byte offsets.
const (
	IOFwControl      uint32 = 0x00
	IOPeripheralCTS  uint32 = 0x04
	IOLkupResult0    uint32 = 0x10
	IOLkupFwcfg0     uint32 = 0x20
	IOLkupFwcfg1     uint32 = 0x24
	IOCamFwcfg0      uint32 = 0x28
	IOCamFwcfg1      uint32 = 0x2C
	IODDRLkupResult0 uint32 = 0x30
	IORamrdResult0   uint32 = 0x40
	IOSemaphoreCtrl0 uint32 = 0x50
	IOSemaphoreCtrl1 uint32 = 0x54
	IOParserSum      uint32 = 0x58
	IOParserChksum   uint32 = 0x5C
	IOTimerCtrl0     uint32 = 0x60
	IOTimerCtrl1     uint32 = 0x64
	IOMsCntVal       uint32 = 0x68
	IOT0Val          uint32 = 0x6C
	IOT1Val          uint32 = 0x70
	IOCntrLock       uint32 = 0x74
	IORunnerGPIO     uint32 = 0x78
	IODDROffset      uint32 = 0x7C
	IOFwIntCtrl0     uint32 = 0x80
	IOFwIntCtrl1     uint32 = 0x84
	IOFwIntCtrl2     uint32 = 0x88
	IOFwWakeup       uint32 = 0x8C
	IOBBMsg0         uint32 = 0x90
	IOBBMsg1         uint32 = 0x94
	IOBBMsg2         uint32 = 0x98
)

// LkupResult is the hash result register of slot.
func LkupResult(slot int) uint32 { return IOLkupResult0 + 4*uint32(slot&3) }

// DDRLkupResult is the DMA lookup result register of slot.
func DDRLkupResult(slot int) uint32 { return IODDRLkupResult0 + 4*uint32(slot&3) }

// RamrdResult is the CRC/CAM result register of slot.
func RamrdResult(slot int) uint32 { return IORamrdResult0 + 4*uint32(slot&3) }

// CNTR_LOCK read bits.
const (
	CntrLockIdle     uint32 = 1 << 8
	CntrLockOwnDone  uint32 = 1 << 30
	CntrLockPeerDone uint32 = 1 << 31
)

type ioReg struct {
	mask     uint32
	readOnly bool
	reset    uint32
}

var ioRegs = map[uint32]ioReg{
	IOFwControl:      {mask: 1, reset: 1},
	IOPeripheralCTS:  {readOnly: true},
	IOLkupFwcfg0:     {mask: 0xFFFFFF},
	IOLkupFwcfg1:     {mask: 0xFFFFFF},
	IOCamFwcfg0:      {mask: 0x1FF},
	IOCamFwcfg1:      {mask: 0x1FF},
	IOParserSum:      {readOnly: true, reset: 0x3FF0},
	IOParserChksum:   {readOnly: true},
	IOTimerCtrl0:     {mask: 0x00010103},
	IOTimerCtrl1:     {mask: 0xFFFFFFFF},
	IOMsCntVal:       {readOnly: true},
	IOT0Val:          {mask: 0xFFFFFFFF},
	IOT1Val:          {mask: 0xFFFFFFFF},
	IOCntrLock:       {mask: 3},
	IORunnerGPIO:     {mask: 0xFFFFFFFF},
	IODDROffset:      {mask: 0xFFFF},
	IOFwIntCtrl0:     {mask: 0x0101FFFF},
	IOFwIntCtrl1:     {mask: 0x01010101},
	IOFwIntCtrl2:     {mask: 0x01010101},
	IOFwWakeup:       {mask: 0x1FF},
	IOBBMsg0:         {mask: 0xFFFFFFFF},
	IOBBMsg1:         {mask: 0xFFFFFFFF},
	IOBBMsg2:         {mask: 0xFFFFFFFF},
	IOSemaphoreCtrl0: {mask: 0xFFFFFFFF},
	IOSemaphoreCtrl1: {mask: 0xFFFFFFFF},
}

func init() {
	for i := 0; i < 4; i++ {
		ioRegs[LkupResult(i)] = ioReg{readOnly: true}
		ioRegs[DDRLkupResult(i)] = ioReg{readOnly: true}
		ioRegs[RamrdResult(i)] = ioReg{readOnly: true}
	}
}

// IOFile is the 1KB memory-mapped register window. Byte lanes are
// little-endian: byte k of a word holds bits 8k..8k+7. Offsets outside
// the register map behave as plain storage.
type IOFile struct {
	words [IOWords]uint32
}

func ioIndex(addr uint32) int {
	return int(addr&IOAddrMsk) >> 2
}

func laneMask(addr uint32, size int) (mask uint32, shift uint) {
	shift = uint(addr&3) * 8
	mask = 0xFFFFFFFF
	if size < 4 {
		mask = 1<<(8*uint(size)) - 1
	}
	return mask << shift, shift
}

// Word returns the stored word holding addr.
func (f *IOFile) Word(addr uint32) uint32 {
	return f.words[ioIndex(addr)]
}

// SetWord stores v ignoring masks. Accelerators publish results this way.
func (f *IOFile) SetWord(addr, v uint32) {
	f.words[ioIndex(addr)] = v
}

// Load reads size bytes at addr.
func (f *IOFile) Load(addr uint32, size int) uint32 {
	mask, shift := laneMask(addr, size)
	return f.words[ioIndex(addr)] & mask >> shift
}

// Store merges size bytes of v at addr through the register write mask
// and returns the resulting word. Read-only registers are unchanged.
func (f *IOFile) Store(addr uint32, size int, v uint32) uint32 {
	i := ioIndex(addr)
	base := addr & IOAddrMsk &^ 3
	regMask := uint32(0xFFFFFFFF)
	if reg, ok := ioRegs[base]; ok {
		if reg.readOnly {
			return f.words[i]
		}
		regMask = reg.mask
	}
	lanes, shift := laneMask(addr, size)
	m := lanes & regMask
	f.words[i] = f.words[i]&^m | v<<shift&m
	return f.words[i]
}

// Reset restores the power-on register values.
func (f *IOFile) Reset() {
	f.words = [IOWords]uint32{}
	for addr, reg := range ioRegs {
		f.words[ioIndex(addr)] = reg.reset
	}
}

// ioLoad performs an ldio. It returns false when the read must wait for
// an accelerator result.
func (r *Runner) ioLoad(addr uint32, size int) (uint32, bool) {
	addr &= IOAddrMsk
	base := addr &^ 3

	switch {
	case base >= IORamrdResult0 && base <= RamrdResult(3):
		if r.units.RammanBusy() {
			return 0, false
		}
	case base >= IOLkupResult0 && base <= LkupResult(3):
		if r.units.HashPending(int(base-IOLkupResult0) / 4) {
			return 0, false
		}
	case base == IOSemaphoreCtrl0 || base == IOSemaphoreCtrl1:
		return r.semaphoreLoad(addr, size), true
	case base == IOCntrLock:
		r.io.SetWord(base, r.counterLockWord())
	}
	return r.io.Load(addr, size), true
}

// semaphoreLoad reads one status byte per lane. Only the lanes covered
// by the access are presented to the arbiter.
func (r *Runner) semaphoreLoad(addr uint32, size int) uint32 {
	var v uint32
	first := int(addr - IOSemaphoreCtrl0)
	for lane := 0; lane < size && first+lane < sema.Count; lane++ {
		st := r.shared.Semaphores.Read(first+lane, r.id, r.sched.Current)
		v |= uint32(st) << (8 * lane)
	}
	return v
}

func (r *Runner) counterLockWord() uint32 {
	v := CntrLockIdle
	empty := r.units.Counter.Empty()
	if r.cntrLock {
		if empty {
			v |= CntrLockOwnDone
		} else {
			v &^= CntrLockIdle
		}
	}
	if r.peer != nil && r.peer.CounterLock() {
		if r.peer.CounterFIFOEmpty() {
			v |= CntrLockPeerDone
		} else {
			v &^= CntrLockIdle
		}
	}
	return v
}

// ioStore performs an stio and applies the register side effects.
func (r *Runner) ioStore(addr uint32, size int, v uint32) {
	addr &= IOAddrMsk
	base := addr &^ 3

	if base == IOSemaphoreCtrl0 || base == IOSemaphoreCtrl1 {
		r.semaphoreStore(addr, size, v)
		return
	}

	word := r.io.Store(addr, size, v)
	switch base {
	case IOFwWakeup:
		r.wakeupStore(word)
	case IOTimerCtrl0:
		r.timers.SetControl0(word)
		r.io.SetWord(IOTimerCtrl0, r.timers.Control0())
		r.io.SetWord(IOMsCntVal, r.timers.MS)
	case IOTimerCtrl1:
		r.timers.SetControl1(word)
	case IOT0Val:
		r.timers.SetValue(0, word)
	case IOT1Val:
		r.timers.SetValue(1, word)
	case IOCntrLock:
		r.cntrLock = word&1 != 0
		if r.peer != nil {
			r.peer.SetCounterLock(word&3 == 3)
		}
	}
}

// semaphoreStore sends each written byte lane to the arbiter as a
// command for the semaphore the lane addresses.
func (r *Runner) semaphoreStore(addr uint32, size int, v uint32) {
	first := int(addr - IOSemaphoreCtrl0)
	for lane := 0; lane < size && first+lane < sema.Count; lane++ {
		cmd := uint8(v>>(8*lane)) & 7
		r.shared.Semaphores.Write(first+lane, r.id, cmd)
	}
}

func (r *Runner) wakeupStore(v uint32) {
	thread := int(v>>4) & 0x1F
	if v&3 == 2 {
		thread = r.sched.Current
	}
	if v&4 != 0 {
		r.sched.PostAsync(thread, v&8 != 0)
	} else {
		r.sched.PostSync(thread)
	}
	r.changes.add("WAKEUP: t%d", thread)
}

func (r *Runner) timerExpired(thread int, urgent bool) {
	r.sched.PostAsync(thread, urgent)
	r.log.V(1).Info("timer expired", "runner", r.id, "clock", r.clock, "thread", thread, "urgent", urgent)
}

func (r *Runner) tickTimers() {
	r.timers.Tick(r.timerExpired)
	r.io.SetWord(IOMsCntVal, r.timers.MS)
	r.io.SetWord(IOTimerCtrl1, r.timers.Control1())
}

// IORegister reads an IO register without side effects.
func (r *Runner) IORegister(addr uint32) uint32 {
	return r.io.Word(addr)
}

func ioName(addr uint32) string {
	return fmt.Sprintf("io[0x%03x]", addr&IOAddrMsk)
}
