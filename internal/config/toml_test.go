package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dkarlsv/mindforge/internal/reward"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[play]
task = "stroop"
difficulty = "hard"
server = "http://localhost:8000"
submit = false

[reward]
high-accuracy-pct = 85.0
flex-mult = 1.3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Play.Task == nil || *cfg.Play.Task != "stroop" {
		t.Fatalf("task not loaded: %+v", cfg.Play)
	}
	if cfg.Play.Difficulty == nil || *cfg.Play.Difficulty != "hard" {
		t.Fatalf("difficulty not loaded: %+v", cfg.Play)
	}
	if cfg.Play.Submit == nil || *cfg.Play.Submit {
		t.Fatalf("submit not loaded: %+v", cfg.Play)
	}
	if cfg.Play.Token != nil {
		t.Fatalf("absent token should stay nil")
	}
	if cfg.Reward.HighAccuracyPct == nil || *cfg.Reward.HighAccuracyPct != 85 {
		t.Fatalf("reward breakpoint not loaded: %+v", cfg.Reward)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Play.Task != nil {
		t.Fatalf("missing file produced values: %+v", cfg.Play)
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, "[play\ntask=")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed config accepted")
	}
}

func TestRewardConfigApply(t *testing.T) {
	stock := reward.DefaultConfig()

	applied := RewardConfig{}.Apply(stock)
	if applied != stock {
		t.Fatalf("empty overlay changed the config: %+v", applied)
	}

	pct := 85.0
	mult := 1.6
	applied = RewardConfig{HighAccuracyPct: &pct, HighAccuracyMult: &mult}.Apply(stock)
	if applied.HighAccuracyPct != 85 || applied.HighAccuracyMult != 1.6 {
		t.Fatalf("overlay not applied: %+v", applied)
	}
	if applied.GoodAccuracyPct != stock.GoodAccuracyPct {
		t.Fatalf("unset field changed: %+v", applied)
	}
}
