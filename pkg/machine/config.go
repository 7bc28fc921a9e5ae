package machine

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is a TOML machine definition:
//
//	image = "rom.bin"
//	org = 0x0000
//	start = 0x0000
//	max-steps = 1000000
//	script = "hooks.lua"
//
//	[console]
//	data-port = 0x01
//	status-port = 0x02
type Config struct {
	Image    string `toml:"image"`
	Org      int    `toml:"org"`
	Start    int    `toml:"start"`
	MaxSteps int    `toml:"max-steps"`
	Script   string `toml:"script"`

	Console *ConsoleConfig `toml:"console"`
}

// ConsoleConfig wires the console device to a pair of ports.
type ConsoleConfig struct {
	DataPort   int `toml:"data-port"`
	StatusPort int `toml:"status-port"`
}

// LoadConfig decodes and validates a TOML machine definition.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Org < 0 || cfg.Org > 0xFFFF {
		return fmt.Errorf("org 0x%X out of range", cfg.Org)
	}
	if cfg.Start < 0 || cfg.Start > 0xFFFF {
		return fmt.Errorf("start 0x%X out of range", cfg.Start)
	}
	if cfg.MaxSteps < 0 {
		return fmt.Errorf("max-steps must not be negative")
	}
	if c := cfg.Console; c != nil {
		if c.DataPort < 0 || c.DataPort > 0xFF {
			return fmt.Errorf("console data-port 0x%X out of range", c.DataPort)
		}
		if c.StatusPort < 0 || c.StatusPort > 0xFF {
			return fmt.Errorf("console status-port 0x%X out of range", c.StatusPort)
		}
	}
	return nil
}

// Apply loads the configured image and applies the step budget and start PC.
// It does not attach the console device or run the script; the caller does.
func (m *Machine) Apply(cfg *Config) error {
	if cfg.Image != "" {
		if err := m.LoadImage(cfg.Image, uint16(cfg.Org)); err != nil {
			return err
		}
	}
	if cfg.MaxSteps > 0 {
		m.MaxSteps = cfg.MaxSteps
	}
	if cfg.Start != 0 {
		s := m.CPU.Registers()
		s.PC = uint16(cfg.Start)
		m.CPU.SetRegisters(s)
	}
	return nil
}
