package accel

import (
	"encoding/binary"

	"github.com/sarchlab/runnersim/mem"
)

type unitID int

const (
	unitDMA unitID = iota
	unitRamman
	unitHash
	unitCounter
	unitBBTX
	unitBBMSG
	unitCrypt
	numUnits
)

func headClock[T any](f *FIFO[T]) (uint64, bool) {
	head, ok := f.Head()
	if !ok {
		return 0, false
	}
	return head.Complete, true
}

func (u *Units) next(id unitID) (uint64, bool) {
	switch id {
	case unitDMA:
		return headClock(u.DMA)
	case unitRamman:
		return u.ramman.Complete, u.rammanBusy
	case unitHash:
		return headClock(u.Hash)
	case unitCounter:
		return headClock(u.Counter)
	case unitBBTX:
		return headClock(u.BBTX)
	case unitBBMSG:
		return headClock(u.BBMSG)
	case unitCrypt:
		return u.crypt.Complete, u.cryptBusy
	}
	return 0, false
}

// Tick applies every operation whose completion clock is at or before
// now, earliest first. Ties go to the unit listed first.
func (u *Units) Tick(now uint64, host Host) int {
	done := 0
	for {
		best := numUnits
		var bestClock uint64
		for id := unitID(0); id < numUnits; id++ {
			c, ok := u.next(id)
			if !ok || c > now {
				continue
			}
			if best == numUnits || c < bestClock {
				best, bestClock = id, c
			}
		}
		if best == numUnits {
			return done
		}
		u.complete(best, host)
		done++
	}
}

func (u *Units) complete(id unitID, host Host) {
	switch id {
	case unitDMA:
		s := u.DMA.Pop()
		u.completeDMA(s.Op, host)
		wake(host, s.Thread, s.Invoke)
	case unitRamman:
		s := u.ramman
		u.ramman = Slot[rammanOp]{}
		u.rammanBusy = false
		if s.Op.crc != nil {
			u.completeCRC(s.Op.crc, host)
		} else {
			u.completeCAM(s.Op.cam, host)
		}
		wake(host, s.Thread, s.Invoke)
	case unitHash:
		s := u.Hash.Pop()
		u.completeHash(s.Op, host)
		wake(host, s.Thread, s.Invoke)
	case unitCounter:
		s := u.Counter.Pop()
		u.completeCounter(s.Op, host)
	case unitBBTX:
		s := u.BBTX.Pop()
		op := s.Op
		if err := mem.Copy(op.Dst, op.DstAddr, op.Src, op.SrcAddr, op.Length); err != nil {
			host.Fault(err)
		}
		wake(host, s.Thread, s.Invoke)
	case unitBBMSG:
		s := u.BBMSG.Pop()
		host.Deliver(s.Op)
	case unitCrypt:
		u.completeCrypt(host)
	}
}

func wake(host Host, thread int, invoke bool) {
	if invoke {
		host.Wakeup(thread)
	}
}

func (u *Units) completeDMA(op DMAOp, host Host) {
	var err error
	switch op.Direction {
	case DMARead, DMALookup:
		err = mem.Copy(op.Local, op.LocalAddr, op.Remote, op.RemoteAddr, op.Length)
	case DMAWrite:
		err = mem.Copy(op.Remote, op.RemoteAddr, op.Local, op.LocalAddr, op.Length)
	}
	if err != nil {
		host.Fault(err)
		return
	}
	if op.Direction == DMALookup {
		v, err := mem.ReadBE(op.Remote, op.RemoteAddr, 4)
		if err != nil {
			host.Fault(err)
			return
		}
		host.SetResult(op.ResultAddr, v)
	}
}

func (u *Units) completeCRC(op *CRCOp, host Host) {
	data, err := mem.LoadBytes(op.Space, op.Addr, op.Length)
	if err != nil {
		host.Fault(err)
		return
	}
	crc := op.Profile.Update(op.Seed, data)
	if op.Last {
		crc = op.Profile.Finalize(crc)
	}
	host.SetResult(op.ResultAddr, crc)
}

// CAMResultMatch is set in a CAM result when an entry matched.
const CAMResultMatch uint32 = 1 << 8

func (u *Units) completeCAM(op *CAMOp, host Host) {
	stride := op.KeyBytes
	if op.Masked {
		stride *= 2
	}
	key := camBytes(op.Key, op.KeyBytes)
	for i := 0; i < op.Entries; i++ {
		addr := op.TableAddr + uint32(i*stride)
		entry, err := mem.LoadBytes(op.Space, addr, stride)
		if err != nil {
			host.Fault(err)
			return
		}
		if camMatch(key, entry, op.KeyBytes, op.Masked) {
			host.SetResult(op.ResultAddr, uint32(i)|CAMResultMatch)
			return
		}
	}
	host.SetResult(op.ResultAddr, 0)
}

// camBytes lays the key out big-endian in keyBytes bytes. Key[0] holds
// the most significant 64 bits of a 128-bit key.
func camBytes(key [2]uint64, keyBytes int) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], key[0])
	binary.BigEndian.PutUint64(buf[8:16], key[1])
	if keyBytes == 16 {
		return buf[:]
	}
	return buf[16-keyBytes:]
}

func camMatch(key, entry []byte, keyBytes int, masked bool) bool {
	for b := 0; b < keyBytes; b++ {
		m := byte(0xFF)
		if masked {
			m = entry[keyBytes+b]
		}
		if (entry[b]^key[b])&m != 0 {
			return false
		}
	}
	return true
}

// HashResultHit is set in a hash result when the key was found.
const HashResultHit uint32 = 1 << 31

func (u *Units) completeHash(op HashOp, host Host) {
	data, ok := u.tables.Lookup(op.Tag)
	if !ok {
		if op.Learn {
			u.tables.Insert(op.Tag, op.LearnData)
		}
		host.SetResult(op.ResultAddr, 0)
		return
	}
	host.SetResult(op.ResultAddr, HashResultHit|data&0xFFFFFF)
}

func (u *Units) completeCounter(op CounterOp, host Host) {
	width, addr, limit := 2, op.Addr+2, uint64(0xFFFF)
	if op.Wide {
		width, addr, limit = 4, op.Addr, 0xFFFFFFFF
	}
	cur, err := mem.ReadBE(op.Space, addr, width)
	if err != nil {
		host.Fault(err)
		return
	}
	v := uint64(cur)
	amt := uint64(op.Amount)
	switch {
	case op.Dec && op.Wrap:
		v = (v - amt) & limit
	case op.Dec:
		if amt > v {
			v = 0
		} else {
			v -= amt
		}
	case op.Wrap:
		v = (v + amt) & limit
	default:
		v += amt
		if v > limit {
			v = limit
		}
	}
	if err := mem.WriteBE(op.Space, addr, width, uint32(v)); err != nil {
		host.Fault(err)
	}
}

func (u *Units) completeCrypt(host Host) {
	s := u.crypt
	u.crypt = Slot[CryptOp]{}
	u.cryptBusy = false

	op := s.Op
	if op.Auth {
		if op.First {
			u.cryptDigest.Reset()
		}
		data, err := mem.LoadBytes(op.Space, op.Addr, op.Length)
		if err != nil {
			host.Fault(err)
			return
		}
		u.cryptDigest.Write(data)
		if op.Last {
			sum := u.cryptDigest.Sum(nil)
			if err := mem.StoreBytes(op.Space, op.Addr+uint32(op.Length), sum); err != nil {
				host.Fault(err)
				return
			}
		}
	}
	wake(host, s.Thread, s.Invoke)
}
