package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWritesTriggerOut(t *testing.T) {
	var got []byte
	d := &Display{Out: func(b byte) { got = append(got, b) }}

	v, ok := d.Read(0)
	assert.True(t, ok)
	assert.Equal(t, byte(1), v)

	d.Write(4, 'A')
	assert.Equal(t, []byte{'A'}, got)
}

func TestSevenSegmentOnChange(t *testing.T) {
	var last byte
	s := &SevenSegment{OnChange: func(b byte) { last = b }}
	s.Write(0, 0b0110000)
	assert.Equal(t, byte(0b0110000), last)
	v, _ := s.Read(0)
	assert.Equal(t, byte(0b0110000), v)
}

func TestBitmapDisplayBoundsAndDirty(t *testing.T) {
	var dirtyOffset uint32
	bmp := NewBitmapDisplay(4, 4)
	bmp.OnDirty = func(offset uint32, b byte) { dirtyOffset = offset }

	bmp.Write(5, 0xFF)
	assert.Equal(t, uint32(5), dirtyOffset)
	v, ok := bmp.Read(5)
	assert.True(t, ok)
	assert.Equal(t, byte(0xFF), v)

	_, ok = bmp.Read(999)
	assert.False(t, ok)
}

func TestRTCFiresAfterConfiguredTicks(t *testing.T) {
	fired := false
	rtc := NewRTC(func() int64 { return 1000 })
	rtc.TicksPerInterrupt = 2
	rtc.OnInterrupt(func() { fired = true })

	rtc.Write(4, 1) // arm
	rtc.Read(0)
	assert.False(t, fired)
	rtc.Read(0)
	assert.True(t, fired)
}

func TestAudioPlayInvokedOnTrigger(t *testing.T) {
	var gotFreq, gotDur uint32
	a := &Audio{Play: func(freq, dur uint32) { gotFreq, gotDur = freq, dur }}

	a.Write(0, 0)
	a.Write(1, 0)
	a.Write(2, 0x01)
	a.Write(3, 0x90) // freq = 0x190 = 400
	a.Write(4, 0)
	a.Write(5, 0)
	a.Write(6, 0)
	a.Write(7, 0x64) // duration = 100
	a.Write(8, 1)

	assert.Equal(t, uint32(400), gotFreq)
	assert.Equal(t, uint32(100), gotDur)
}
