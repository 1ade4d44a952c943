// Package chyp holds the runtime configuration of a chyp8 session.
package chyp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/beanboi7/chyp8/emu/cpu"
)

const (
	FrontendWindow   = "window"
	FrontendTerminal = "terminal"
	FrontendHeadless = "headless"

	TimersCoupled   = "coupled"
	TimersDecoupled = "decoupled"
)

// Config is the unmarshalled form of flags, env vars and the config file.
type Config struct {
	Clock    int    `mapstructure:"clock"`
	Refresh  int    `mapstructure:"refresh"`
	Timers   string `mapstructure:"timers"`
	Frontend string `mapstructure:"frontend"`
	Scale    int    `mapstructure:"scale"`
	OnColor  string `mapstructure:"on_color"`
	OffColor string `mapstructure:"off_color"`
	BeepFile string `mapstructure:"beep_file"`
	Mute     bool   `mapstructure:"mute"`
	Frames   int    `mapstructure:"frames"`
	Snapshot string `mapstructure:"snapshot"`
	Seed     int64  `mapstructure:"seed"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("clock", 700)
	v.SetDefault("refresh", 60)
	v.SetDefault("timers", TimersCoupled)
	v.SetDefault("frontend", FrontendWindow)
	v.SetDefault("scale", 10)
	v.SetDefault("on_color", "#FFFFFFFF")
	v.SetDefault("off_color", "#000000FF")
	v.SetDefault("beep_file", "")
	v.SetDefault("mute", false)
	v.SetDefault("frames", 0)
	v.SetDefault("snapshot", "")
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Clock <= 0 {
		return fmt.Errorf("clock must be positive, got %d", c.Clock)
	}
	if c.Refresh <= 0 {
		return fmt.Errorf("refresh must be positive, got %d", c.Refresh)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	}
	switch c.Timers {
	case TimersCoupled, TimersDecoupled:
	default:
		return fmt.Errorf("unknown timers mode %q", c.Timers)
	}
	switch c.Frontend {
	case FrontendWindow, FrontendTerminal:
	case FrontendHeadless:
		if c.Frames <= 0 {
			return errors.New("headless mode requires frames > 0")
		}
	default:
		return fmt.Errorf("unknown frontend %q", c.Frontend)
	}
	on, err := ParseColor(c.OnColor)
	if err != nil {
		return fmt.Errorf("on_color: %w", err)
	}
	off, err := ParseColor(c.OffColor)
	if err != nil {
		return fmt.Errorf("off_color: %w", err)
	}
	if on == off {
		return errors.New("on_color and off_color must differ")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// EngineOptions maps the config onto cpu.Options. Callers add Rand, Beep
// and Diagnostic.
func (c Config) EngineOptions() cpu.Options {
	opts := cpu.Options{Timers: cpu.TimersCoupled}
	if c.Timers == TimersDecoupled {
		opts.Timers = cpu.TimersDecoupled
	}
	// validated already
	opts.OnColor, _ = ParseColor(c.OnColor)
	opts.OffColor, _ = ParseColor(c.OffColor)
	return opts
}

// ParseColor reads "#RRGGBB" or "#RRGGBBAA" (the # is optional) into a
// packed RGBA value. Six digits imply full alpha.
func ParseColor(s string) (uint32, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 6:
		h += "FF"
	case 8:
	default:
		return 0, fmt.Errorf("bad colour %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return uint32(v), nil
}
