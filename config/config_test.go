package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "tegra3", cfg.Board)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, 12, cfg.Silicon.CPUSpeedo)
	assert.Equal(t, 2, cfg.Silicon.SoCSpeedo)
	assert.Equal(t, 1450, cfg.Silicon.CoreMV)
	assert.Equal(t, ThermalNone, cfg.Thermal.Mode)
	assert.Equal(t, 2*time.Second, cfg.Thermal.Interval)
	assert.Empty(t, cfg.Regulators)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dvfsd.yaml")
	data := `
board: /etc/dvfs/board.yaml
simulate: false
disable_core: true
silicon:
  cpu_speedo_id: 13
  core_edp_mv: 1300
  linear_age: 40
  current_age: 45
regulators:
  - rail: vdd_cpu
    bus: 1
    addr: 0x40
    pec: true
    enable_gpio: 57
  - rail: vdd_core
    bus: 1
    addr: 0x41
thermal:
  mode: sysfs
  cold_millic: 15000
  interval: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/dvfs/board.yaml", cfg.Board)
	assert.False(t, cfg.Simulate)
	assert.True(t, cfg.DisableCore)
	assert.Equal(t, 13, cfg.Silicon.CPUSpeedo)
	assert.Equal(t, 1300, cfg.Silicon.CoreEDPMV)
	assert.Equal(t, 40, cfg.Silicon.Age)
	assert.Equal(t, 45, cfg.Silicon.CurrentAge)
	assert.Equal(t, 3, cfg.Silicon.CPUProcess, "defaults fill unset fuses")

	require.Len(t, cfg.Regulators, 2)
	assert.Equal(t, uint16(0x40), cfg.Regulators[0].Addr)
	assert.True(t, cfg.Regulators[0].PEC)
	assert.Equal(t, 57, cfg.Regulators[0].EnableGPIO)
	assert.Equal(t, ThermalSysfs, cfg.Thermal.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Thermal.Interval)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DVFS_DISABLE_CPU", "true")
	t.Setenv("DVFS_SILICON_CORE_SPEEDO_MV", "1300")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.True(t, cfg.DisableCPU)
	assert.Equal(t, 1300, cfg.Silicon.CoreMV)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"none", Config{Thermal: ThermalConfig{Mode: ThermalNone}}, true},
		{"bad mode", Config{Thermal: ThermalConfig{Mode: "ir"}}, false},
		{"sysfs without interval", Config{Thermal: ThermalConfig{Mode: ThermalSysfs}}, false},
		{"regulator without rail", Config{Thermal: ThermalConfig{Mode: ThermalNone}, Regulators: []RegulatorConfig{{Bus: 1}}}, false},
		{"duplicate rail", Config{Thermal: ThermalConfig{Mode: ThermalNone}, Regulators: []RegulatorConfig{{Rail: "vdd_cpu"}, {Rail: "vdd_cpu"}}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
