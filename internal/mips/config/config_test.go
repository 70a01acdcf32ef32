package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
)

func TestDefaultBuildWiresConsoleRTCAndAudioButNotKeyboard(t *testing.T) {
	cfg := Default()
	m := cfg.Build(nil)

	require.NotNil(t, m.Display)
	require.NotNil(t, m.RTC)
	require.NotNil(t, m.Audio)
	assert.Nil(t, m.Keyboard)

	_, ok := m.MemoryMap.FindDevice(mips.DefaultMMIOBase + 0x08)
	assert.True(t, ok, "console display should be registered")
	_, ok = m.MemoryMap.FindDevice(mips.DefaultMMIOBase + 0x10)
	assert.True(t, ok, "rtc should be registered")
}

func TestEnableCachesWiresBothCaches(t *testing.T) {
	cfg := Default()
	cfg.EnableCaches = true
	m := cfg.Build(nil)

	assert.NotNil(t, m.Memory.ICache)
	assert.NotNil(t, m.Memory.DCache)
}

func TestForwardingFlagPropagatesToHazardUnit(t *testing.T) {
	cfg := Default()
	cfg.Forwarding = false
	m := cfg.Build(nil)

	assert.False(t, m.Pipeline.Hazard.Forwarding)
}
