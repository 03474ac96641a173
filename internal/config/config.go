// Package config loads the room configuration from HCL files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/fairdeal/holdem/internal/table"
)

// Config represents the complete room configuration
type Config struct {
	Room   RoomSettings  `hcl:"room,block"`
	Tables []TableConfig `hcl:"table,block"`
}

// RoomSettings contains room-level configuration
type RoomSettings struct {
	LogLevel     string `hcl:"log_level,optional"`
	FeeCollector string `hcl:"fee_collector,optional"`
}

// TableConfig defines one poker table
type TableConfig struct {
	Name            string `hcl:"name,label"`
	Admin           string `hcl:"admin"`
	SmallBlind      uint64 `hcl:"small_blind"`
	BigBlind        uint64 `hcl:"big_blind"`
	BuyInMin        uint64 `hcl:"buy_in_min,optional"`
	BuyInMax        uint64 `hcl:"buy_in_max,optional"`
	Ante            uint64 `hcl:"ante,optional"`
	StraddleEnabled bool   `hcl:"straddle,optional"`
	FeeBps          uint16 `hcl:"fee_bps,optional"`

	// Timeouts in seconds; zero disables the deadline.
	CommitTimeoutSecs int `hcl:"commit_timeout,optional"`
	RevealTimeoutSecs int `hcl:"reveal_timeout,optional"`
	ActionTimeoutSecs int `hcl:"action_timeout,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Room: RoomSettings{
			LogLevel:     "info",
			FeeCollector: "house",
		},
		Tables: []TableConfig{
			{
				Name:              "main",
				Admin:             "admin",
				SmallBlind:        1,
				BigBlind:          2,
				BuyInMin:          100,
				BuyInMax:          1000,
				CommitTimeoutSecs: 30,
				RevealTimeoutSecs: 30,
				ActionTimeoutSecs: 30,
			},
		},
	}
}

// Load reads a configuration from an HCL file, falling back to Default
// when the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if cfg.Room.LogLevel == "" {
		cfg.Room.LogLevel = "info"
	}
	if cfg.Room.FeeCollector == "" {
		cfg.Room.FeeCollector = "house"
	}
	for i := range cfg.Tables {
		t := &cfg.Tables[i]
		if t.BuyInMin == 0 {
			t.BuyInMin = t.BigBlind * 50
		}
		if t.BuyInMax == 0 {
			t.BuyInMax = t.BigBlind * 500
		}
	}

	return &cfg, nil
}

// Validate checks the configuration for values the table layer would
// reject, so a bad file fails at startup rather than at the first hand.
func (c *Config) Validate() error {
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}
	names := make(map[string]bool)
	for _, t := range c.Tables {
		if names[t.Name] {
			return fmt.Errorf("duplicate table name %q", t.Name)
		}
		names[t.Name] = true

		if t.Admin == "" {
			return fmt.Errorf("table %s: admin must be set", t.Name)
		}
		if t.SmallBlind == 0 {
			return fmt.Errorf("table %s: small blind must be positive", t.Name)
		}
		if t.BigBlind <= t.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", t.Name)
		}
		if t.BuyInMin >= t.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must be less than maximum", t.Name)
		}
		if t.FeeBps > 10000 {
			return fmt.Errorf("table %s: fee_bps %d exceeds 10000", t.Name, t.FeeBps)
		}
	}
	return nil
}

// TableByName returns a table configuration by name, or nil.
func (c *Config) TableByName(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}

// TableConfig converts the file form into the table layer's Config.
func (t *TableConfig) TableConfig(feeCollector string) table.Config {
	return table.Config{
		SmallBlind:      t.SmallBlind,
		BigBlind:        t.BigBlind,
		MinBuyIn:        t.BuyInMin,
		MaxBuyIn:        t.BuyInMax,
		Ante:            t.Ante,
		StraddleEnabled: t.StraddleEnabled,
		FeeBps:          t.FeeBps,
		FeeCollector:    table.PlayerID(feeCollector),
		CommitTimeout:   time.Duration(t.CommitTimeoutSecs) * time.Second,
		RevealTimeout:   time.Duration(t.RevealTimeoutSecs) * time.Second,
		ActionTimeout:   time.Duration(t.ActionTimeoutSecs) * time.Second,
	}
}
