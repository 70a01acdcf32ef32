package device

import "encoding/binary"

// RTC is an 8-byte real-time-clock device: reading offset 0 returns the
// current Unix time as a big-endian word; writing any byte to offset 4
// arms a one-shot countdown interrupt after TicksPerInterrupt reads.
type RTC struct {
	Now             func() int64
	ticksToFire     int
	TicksPerInterrupt int
	onIRQ           func()
}

// NewRTC builds an RTC backed by nowFn (injected for determinism in
// tests; production callers pass time.Now().Unix).
func NewRTC(nowFn func() int64) *RTC {
	return &RTC{Now: nowFn, TicksPerInterrupt: 100}
}

func (r *RTC) Read(offset uint32) (byte, bool) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(r.Now()))
	if offset > 3 {
		return 0, true
	}
	if r.ticksToFire > 0 {
		r.ticksToFire--
		if r.ticksToFire == 0 && r.onIRQ != nil {
			r.onIRQ()
		}
	}
	return buf[offset], true
}

func (r *RTC) Write(offset uint32, b byte) {
	if offset == 4 {
		r.ticksToFire = r.TicksPerInterrupt
	}
}

// OnInterrupt implements mips.InterruptingDevice.
func (r *RTC) OnInterrupt(fn func()) { r.onIRQ = fn }
