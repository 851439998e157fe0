package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds model configuration
type Config struct {
	NChannels      int     `json:"n_channels"`
	HiddenChannels int     `json:"hidden_channels"`
	InputChannels  int     `json:"input_channels"`
	DropoutP       float64 `json:"dropout"`
	InitStd        float64 `json:"init_std"`
	Device         string  `json:"device"`
	LogN           int     `json:"log_n"`
	Seed           uint64  `json:"seed"`
}

// DefaultConfig returns the standard 16-channel automaton: 3 reserved
// channels, a 128-wide update network and dropout 0.5.
func DefaultConfig() Config {
	return Config{
		NChannels:      16,
		HiddenChannels: 128,
		InputChannels:  3,
		DropoutP:       0.5,
		InitStd:        1e-4,
		Device:         "cpu",
		LogN:           13,
		Seed:           42,
	}
}

// HiddenStateChannels is the number of channels the update network writes.
func (c Config) HiddenStateChannels() int {
	return c.NChannels - c.InputChannels
}

// LoadConfig reads a JSON config file over the defaults, so omitted keys
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ValidateConfig validates model configuration
func ValidateConfig(config *Config) error {
	if config.NChannels <= 0 {
		return fmt.Errorf("n_channels must be positive")
	}

	if config.HiddenChannels <= 0 {
		return fmt.Errorf("hidden_channels must be positive")
	}

	if config.InputChannels < 0 {
		return fmt.Errorf("input_channels must not be negative")
	}

	if config.InputChannels >= config.NChannels {
		return fmt.Errorf("input_channels (%d) must be smaller than n_channels (%d), update network would have %d outputs",
			config.InputChannels, config.NChannels, config.HiddenStateChannels())
	}

	if config.DropoutP < 0 || config.DropoutP >= 1 {
		return fmt.Errorf("dropout must be in [0, 1)")
	}

	if config.InitStd < 0 {
		return fmt.Errorf("init_std must not be negative")
	}

	if config.LogN < 12 || config.LogN > 16 {
		return fmt.Errorf("log_n must be in [12, 16]")
	}

	return nil
}

// ParseGrid parses "32" or "32x48" into height and width.
func ParseGrid(s string) (h, w int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("grid %q: want H or HxW", s)
	}
	dims := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, err
		}
		if n <= 0 {
			return 0, 0, fmt.Errorf("grid %q: dimensions must be positive", s)
		}
		dims[i] = n
	}
	if len(dims) == 1 {
		return dims[0], dims[0], nil
	}
	return dims[0], dims[1], nil
}
