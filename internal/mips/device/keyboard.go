// Package device implements the memory-mapped peripherals the simulator
// exposes in the MMIO segment, grounded on the teacher's own use of
// eiannone/keyboard and golang.org/x/term for raw-mode terminal input.
package device

import (
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

// Keyboard is an 8-byte device at the conventional MMIO keyboard offset:
// byte 0 is a ready flag (1 = a key is waiting), byte 4 holds the last
// polled key code. Reading the data word clears the ready flag.
type Keyboard struct {
	fd        int
	oldState  *term.State
	rawMode   bool
	events    <-chan keyboard.KeyEvent
	ready     bool
	lastCode  byte
	onIRQ     func()
}

// NewKeyboard opens the keyboard in raw mode on fd (typically
// int(os.Stdin.Fd())) so individual keystrokes arrive without waiting for
// a newline, matching the teacher's LC-3 keyboard device.
func NewKeyboard(fd int) (*Keyboard, error) {
	k := &Keyboard{fd: fd}
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		k.oldState = old
		k.rawMode = true
	}
	if err := keyboard.Open(); err != nil {
		k.Close()
		return nil, err
	}
	events, err := keyboard.GetKeys(16)
	if err != nil {
		k.Close()
		return nil, err
	}
	k.events = events
	go k.poll()
	return k, nil
}

func (k *Keyboard) poll() {
	for ev := range k.events {
		if ev.Err != nil {
			continue
		}
		k.lastCode = byte(ev.Rune)
		if ev.Rune == 0 {
			k.lastCode = byte(ev.Key)
		}
		k.ready = true
		if k.onIRQ != nil {
			k.onIRQ()
		}
	}
}

// Close restores terminal state and releases the keyboard driver.
func (k *Keyboard) Close() {
	_ = keyboard.Close()
	if k.rawMode && k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
	}
}

// Read implements mips.MemoryMappedDevice.
func (k *Keyboard) Read(offset uint32) (byte, bool) {
	switch offset {
	case 0:
		if k.ready {
			return 1, true
		}
		return 0, true
	case 4:
		b := k.lastCode
		k.ready = false
		return b, true
	default:
		return 0, true
	}
}

// Write implements mips.MemoryMappedDevice; the keyboard is read-only.
func (k *Keyboard) Write(offset uint32, b byte) {}

// OnInterrupt implements mips.InterruptingDevice.
func (k *Keyboard) OnInterrupt(fn func()) { k.onIRQ = fn }

// PollInterval is exposed for tests that want a deterministic delay
// between simulated keypresses rather than real terminal input.
const PollInterval = 10 * time.Millisecond
