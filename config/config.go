// Package config holds the simulator configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mesisim/cache"
)

// Config holds the cache geometry and output options of a run.
type Config struct {
	// InstructionWays is the associativity of the L1 instruction cache.
	// Default: 4.
	InstructionWays int `json:"instruction_ways"`

	// DataWays is the associativity of the L1 data cache.
	// Default: 8.
	DataWays int `json:"data_ways"`

	// OffsetBits is the number of block-offset bits of an address.
	// Default: 6 (64B lines).
	OffsetBits uint `json:"offset_bits"`

	// SetBits is the number of set-index bits of an address.
	// Default: 14.
	SetBits uint `json:"set_bits"`

	// Mode is the dump verbosity: 0 prints contents and statistics, 1 also
	// prints the L2 bus messages. Default: 0.
	Mode int `json:"mode"`

	// RecordPath, if set, is the SQLite database (without extension) that
	// every event is recorded to. Default: "" (no recording).
	RecordPath string `json:"record_path"`
}

// Default returns the configuration of the original controller.
func Default() *Config {
	layout := cache.DefaultAddressLayout()

	return &Config{
		InstructionWays: cache.DefaultL1IConfig().Associativity,
		DataWays:        cache.DefaultL1DConfig().Associativity,
		OffsetBits:      layout.OffsetBits,
		SetBits:         layout.SetBits,
		Mode:            0,
	}
}

// Load loads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a usable cache pair.
func (c *Config) Validate() error {
	if c.InstructionWays < 1 {
		return fmt.Errorf("instruction_ways must be > 0")
	}
	if c.DataWays < 1 {
		return fmt.Errorf("data_ways must be > 0")
	}
	if c.OffsetBits+c.SetBits >= cache.AddressBits {
		return fmt.Errorf("offset_bits + set_bits must be < %d", cache.AddressBits)
	}
	if c.Mode != 0 && c.Mode != 1 {
		return fmt.Errorf("mode must be 0 or 1")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Layout returns the address layout described by the Config.
func (c *Config) Layout() cache.AddressLayout {
	return cache.AddressLayout{
		OffsetBits: c.OffsetBits,
		SetBits:    c.SetBits,
	}
}

// InstructionCache returns the instruction cache configuration.
func (c *Config) InstructionCache() cache.Config {
	return cache.Config{
		Kind:          cache.Instruction,
		Associativity: c.InstructionWays,
	}
}

// DataCache returns the data cache configuration.
func (c *Config) DataCache() cache.Config {
	return cache.Config{
		Kind:          cache.Data,
		Associativity: c.DataWays,
	}
}
