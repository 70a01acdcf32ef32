// Package config takes a RunConfig (filled in by cmd/amips from its CLI
// flags) and builds the mips.MemoryMap/Memory/Pipeline the runner needs,
// keeping cmd/amips itself thin.
package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/device"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/syscall"
)

// MMIO offsets relative to mips.DefaultMMIOBase for the devices Build
// knows how to attach. Each device occupies the range it needs starting
// at its offset; the console display sits where the teacher's own LC-3
// keyboard/display pair sat, keyboard first then display, with RTC and
// audio following.
const (
	keyboardOffset = 0x00
	displayOffset  = 0x08
	rtcOffset      = 0x10
	audioOffset    = 0x18
)

// RunConfig holds every knob the `run`/`step` subcommands expose.
type RunConfig struct {
	MemorySize       uint32
	Forwarding       bool
	HazardDetection  bool
	ICacheSize       uint32
	DCacheSize       uint32
	CacheLineSize    uint32
	CacheAssoc       int
	CacheWritePolicy mips.WritePolicy
	EnableCaches     bool
	AttachConsole    bool
	AttachKeyboard   bool
	AttachRTC        bool
	AttachAudio      bool
	MaxCycles        uint64
	Verbose          bool
}

// Default returns the simulator's out-of-the-box configuration: forwarding
// on, no caches, console display/RTC/audio attached. The keyboard is
// opt-in since opening it puts the real terminal into raw mode.
func Default() RunConfig {
	return RunConfig{
		MemorySize:       mips.DefaultDataSize,
		Forwarding:       true,
		HazardDetection:  true,
		ICacheSize:       16 << 10,
		DCacheSize:       16 << 10,
		CacheLineSize:    32,
		CacheAssoc:       4,
		// Write-through, per spec.md §4.3's design note: combined with the
		// explicit data->instruction cache invalidate in Memory.WriteByte,
		// this is what keeps self-modifying code correct without the data
		// and instruction cache ever needing to snoop one another.
		CacheWritePolicy: mips.WriteThrough,
		EnableCaches:     false,
		AttachConsole:    true,
		AttachKeyboard:   false,
		AttachRTC:        true,
		AttachAudio:      true,
		MaxCycles:        0,
	}
}

// Machine is the fully wired set of collaborators a RunConfig produces.
type Machine struct {
	MemoryMap *mips.MemoryMap
	Memory    *mips.Memory
	State     *mips.State
	Pipeline  *mips.Pipeline
	Display   *device.Display
	Keyboard  *device.Keyboard
	RTC       *device.RTC
	Audio     *device.Audio
	Syscalls  *syscall.Table
}

// Build constructs a Machine from cfg, wiring caches and the requested
// devices, and logging the resulting topology.
func (c RunConfig) Build(log *logrus.Logger) *Machine {
	mm := mips.NewMemoryMap()
	mem := mips.NewMemory(mm)

	if c.EnableCaches {
		mem.ICache = mips.NewCache(c.ICacheSize, c.CacheLineSize, c.CacheAssoc, c.CacheWritePolicy, mem)
		mem.DCache = mips.NewCache(c.DCacheSize, c.CacheLineSize, c.CacheAssoc, c.CacheWritePolicy, mem)
	}

	state := mips.NewState(mm)
	pipeline := mips.NewPipeline(state, mem)
	pipeline.Hazard.Forwarding = c.Forwarding
	pipeline.Hazard.Enabled = c.HazardDetection

	m := &Machine{MemoryMap: mm, Memory: mem, State: state, Pipeline: pipeline}
	base := mips.DefaultMMIOBase

	syscalls := syscall.NewTable(os.Stdin, os.Stdout)
	pipeline.Interrupts.Syscalls = syscalls
	m.Syscalls = syscalls

	if c.AttachConsole {
		disp := device.NewDisplay()
		mm.RegisterDevice(base+displayOffset, base+displayOffset+7, disp)
		m.Display = disp
	}

	if c.AttachKeyboard {
		kb, err := device.NewKeyboard(int(os.Stdin.Fd()))
		if err != nil {
			if log != nil {
				log.WithError(err).Warn("keyboard device unavailable, continuing without it")
			}
		} else {
			mm.RegisterDevice(base+keyboardOffset, base+keyboardOffset+7, kb)
			kb.OnInterrupt(func() { pipeline.Interrupts.RequestDeviceInterrupt("keyboard") })
			m.Keyboard = kb
		}
	}

	if c.AttachRTC {
		rtc := device.NewRTC(func() int64 { return time.Now().Unix() })
		mm.RegisterDevice(base+rtcOffset, base+rtcOffset+7, rtc)
		rtc.OnInterrupt(func() { pipeline.Interrupts.RequestDeviceInterrupt("rtc") })
		m.RTC = rtc
	}

	if c.AttachAudio {
		aud := &device.Audio{}
		mm.RegisterDevice(base+audioOffset, base+audioOffset+15, aud)
		m.Audio = aud
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"memorySize": c.MemorySize,
			"forwarding": c.Forwarding,
			"caches":     c.EnableCaches,
			"keyboard":   m.Keyboard != nil,
			"rtc":        m.RTC != nil,
			"audio":      m.Audio != nil,
		}).Info("machine built")
	}
	return m
}
