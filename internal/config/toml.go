// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dkarlsv/mindforge/internal/reward"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play   PlayConfig   `toml:"play"`
	Reward RewardConfig `toml:"reward"`
}

// PlayConfig maps session-related settings.
type PlayConfig struct {
	Task       *string `toml:"task"`
	Difficulty *string `toml:"difficulty"`
	Server     *string `toml:"server"`
	Token      *string `toml:"token"`
	Submit     *bool   `toml:"submit"`
}

// RewardConfig maps bonus-rule tuning values. Unset values keep the stock
// defaults.
type RewardConfig struct {
	HighAccuracyPct  *float64 `toml:"high-accuracy-pct"`
	HighAccuracyMult *float64 `toml:"high-accuracy-mult"`
	GoodAccuracyPct  *float64 `toml:"good-accuracy-pct"`
	GoodAccuracyMult *float64 `toml:"good-accuracy-mult"`
	FlexCostMs       *float64 `toml:"flex-cost-ms"`
	FlexMult         *float64 `toml:"flex-mult"`
	PerfectEffMult   *float64 `toml:"perfect-eff-mult"`
}

// Apply overlays the configured values onto the stock reward config.
func (rc RewardConfig) Apply(cfg reward.Config) reward.Config {
	if rc.HighAccuracyPct != nil {
		cfg.HighAccuracyPct = *rc.HighAccuracyPct
	}
	if rc.HighAccuracyMult != nil {
		cfg.HighAccuracyMult = *rc.HighAccuracyMult
	}
	if rc.GoodAccuracyPct != nil {
		cfg.GoodAccuracyPct = *rc.GoodAccuracyPct
	}
	if rc.GoodAccuracyMult != nil {
		cfg.GoodAccuracyMult = *rc.GoodAccuracyMult
	}
	if rc.FlexCostMs != nil {
		cfg.FlexCostMs = *rc.FlexCostMs
	}
	if rc.FlexMult != nil {
		cfg.FlexMult = *rc.FlexMult
	}
	if rc.PerfectEffMult != nil {
		cfg.PerfectEffMult = *rc.PerfectEffMult
	}
	return cfg
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
