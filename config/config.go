// Package config loads the daemon configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"soc_dvfs/dvfs"
	log "soc_dvfs/log"
)

const EnvPrefix = "DVFS"

// Thermal monitor modes.
const (
	ThermalNone  = "none"
	ThermalSysfs = "sysfs"
	ThermalGPIO  = "gpio"
)

// RegulatorConfig attaches a PMBus regulator to a rail.
type RegulatorConfig struct {
	Rail       string `mapstructure:"rail"`
	Bus        int    `mapstructure:"bus"`
	Addr       uint16 `mapstructure:"addr"`
	PEC        bool   `mapstructure:"pec"`
	EnableGPIO int    `mapstructure:"enable_gpio"`
	SettleUS   int    `mapstructure:"settle_us"`
}

// ThermalConfig selects where the cold-zone indication comes from.
type ThermalConfig struct {
	Mode string `mapstructure:"mode"`
	// Zone is a sysfs thermal zone directory for ThermalSysfs.
	Zone string `mapstructure:"zone"`
	// ColdMilliC is the temperature below which the cold table is used.
	ColdMilliC int           `mapstructure:"cold_millic"`
	Interval   time.Duration `mapstructure:"interval"`
	// Chip and Line name the comparator output for ThermalGPIO.
	Chip string `mapstructure:"chip"`
	Line int    `mapstructure:"line"`
	// Cores is the number of online CPU cores reported with each event.
	Cores int `mapstructure:"cores"`
}

type SiliconConfig struct {
	dvfs.Silicon `mapstructure:",squash"`
	// CurrentAge is the present linear age counter; 0 skips aging.
	CurrentAge int `mapstructure:"current_age"`
}

type Config struct {
	Board         string            `mapstructure:"board"`
	Listen        string            `mapstructure:"listen"`
	MetricsListen string            `mapstructure:"metrics_listen"`
	Debug         bool              `mapstructure:"debug"`
	Simulate      bool              `mapstructure:"simulate"`
	GPULimit      bool              `mapstructure:"gpu_limit"`
	DisableCPU    bool              `mapstructure:"disable_cpu"`
	DisableCore   bool              `mapstructure:"disable_core"`
	Silicon       SiliconConfig     `mapstructure:"silicon"`
	Regulators    []RegulatorConfig `mapstructure:"regulators"`
	Thermal       ThermalConfig     `mapstructure:"thermal"`
}

// SetDefaults installs the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("board", "tegra3")
	v.SetDefault("listen", "127.0.0.1:4029")
	v.SetDefault("metrics_listen", ":9129")
	v.SetDefault("debug", false)
	v.SetDefault("simulate", true)
	v.SetDefault("gpu_limit", true)
	v.SetDefault("disable_cpu", false)
	v.SetDefault("disable_core", false)

	v.SetDefault("silicon.cpu_speedo_id", 12)
	v.SetDefault("silicon.soc_speedo_id", 2)
	v.SetDefault("silicon.cpu_process_id", 3)
	v.SetDefault("silicon.core_process_id", 1)
	v.SetDefault("silicon.cpu_speedo_mv", 0)
	v.SetDefault("silicon.core_speedo_mv", 1450)
	v.SetDefault("silicon.core_edp_mv", 0)
	v.SetDefault("silicon.linear_age", 0)
	v.SetDefault("silicon.current_age", 0)

	v.SetDefault("thermal.mode", ThermalNone)
	v.SetDefault("thermal.zone", "/sys/class/thermal/thermal_zone0")
	v.SetDefault("thermal.cold_millic", 20000)
	v.SetDefault("thermal.interval", "2s")
	v.SetDefault("thermal.chip", "gpiochip0")
	v.SetDefault("thermal.cores", 4)
}

// Load reads path (if set) and the DVFS_* environment into a Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Infof("Config loaded from %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Thermal.Mode {
	case ThermalNone, ThermalSysfs, ThermalGPIO:
	default:
		return fmt.Errorf("thermal.mode %q: want %s, %s or %s", c.Thermal.Mode, ThermalNone, ThermalSysfs, ThermalGPIO)
	}
	if c.Thermal.Mode != ThermalNone && c.Thermal.Interval <= 0 {
		return fmt.Errorf("thermal.interval must be positive")
	}
	seen := map[string]bool{}
	for _, r := range c.Regulators {
		if r.Rail == "" {
			return fmt.Errorf("regulator on bus %d addr %#x has no rail", r.Bus, r.Addr)
		}
		if seen[r.Rail] {
			return fmt.Errorf("rail %s has more than one regulator", r.Rail)
		}
		seen[r.Rail] = true
	}
	if !c.Simulate && len(c.Regulators) == 0 {
		log.Warnf("No regulators configured, rails are tracked in memory only")
	}
	return nil
}
