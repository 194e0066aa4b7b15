// Package config loads emulator configuration from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable parameters of an emulated machine.
type Config struct {
	// MemSize is the RAM size in bytes.
	MemSize uint32 `toml:"mem_size"`

	// ResetVector is where execution starts after reset.
	ResetVector uint32 `toml:"reset_vector"`

	// InterruptVector is where external interrupt entry jumps.
	InterruptVector uint32 `toml:"interrupt_vector"`

	// MaxInstructions bounds a run; 0 means unbounded.
	MaxInstructions uint64 `toml:"max_instructions"`

	// Trace enables per-instruction disassembly tracing.
	Trace bool `toml:"trace"`

	// SavePath is the directory save-state archives are written to.
	SavePath string `toml:"save_path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		MemSize:         1 << 20,
		ResetVector:     0x00000000,
		InterruptVector: 0x00000010,
		SavePath:        defaultSavePath(),
	}
}

// DefaultPath returns the conventional config file location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "r2sim", "config.toml")
}

func defaultSavePath() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "r2sim")
}

// Load reads a TOML config file. A missing file is not an error; the
// defaults come back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the machine cannot run
// with.
func (c Config) Validate() error {
	if c.MemSize == 0 {
		return fmt.Errorf("mem_size must be positive")
	}
	if c.MemSize%4 != 0 {
		return fmt.Errorf("mem_size %d is not word-aligned", c.MemSize)
	}
	if c.ResetVector%4 != 0 {
		return fmt.Errorf("reset_vector 0x%08X is not word-aligned", c.ResetVector)
	}
	if c.InterruptVector%4 != 0 {
		return fmt.Errorf("interrupt_vector 0x%08X is not word-aligned", c.InterruptVector)
	}
	if c.ResetVector >= c.MemSize {
		return fmt.Errorf("reset_vector 0x%08X is outside memory", c.ResetVector)
	}
	return nil
}
