package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.DryRun {
		t.Fatal("expected dry run true by default")
	}
	if cfg.ScanInterval != 10*time.Second {
		t.Fatalf("expected 10s scan interval, got %v", cfg.ScanInterval)
	}
	if cfg.ChainID != 137 {
		t.Fatalf("expected chain id 137, got %d", cfg.ChainID)
	}
	if cfg.Phase2Threshold != 250 || cfg.Phase3Threshold != 500 {
		t.Fatalf("unexpected phase thresholds: %f/%f", cfg.Phase2Threshold, cfg.Phase3Threshold)
	}
	if cfg.SumToOne.ArbThreshold != 0.985 {
		t.Fatalf("expected arb threshold 0.985, got %f", cfg.SumToOne.ArbThreshold)
	}
	if cfg.Risk.MaxTradeCash != 100 || cfg.Risk.MinTradeCash != 2 {
		t.Fatalf("unexpected risk trade cash bounds: %f/%f", cfg.Risk.MaxTradeCash, cfg.Risk.MinTradeCash)
	}
	if cfg.Risk.MaxConsecutiveLosses != 3 {
		t.Fatalf("expected max_consecutive_losses=3, got %d", cfg.Risk.MaxConsecutiveLosses)
	}
	if cfg.Execution.MaxRetries != 3 || cfg.Execution.RetryBackoffBase != 2 {
		t.Fatalf("unexpected execution retry defaults: %d/%f", cfg.Execution.MaxRetries, cfg.Execution.RetryBackoffBase)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yaml := `
scan_interval: 30s
sum_to_one:
  arb_threshold: 0.99
risk:
  max_trade_cash: 250
  max_consecutive_losses: 5
directional:
  min_edge_directional: 0.2
`
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write([]byte(yaml)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := LoadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ScanInterval != 30*time.Second {
		t.Fatalf("expected 30s scan interval, got %v", cfg.ScanInterval)
	}
	if cfg.SumToOne.ArbThreshold != 0.99 {
		t.Fatalf("expected arb threshold 0.99, got %f", cfg.SumToOne.ArbThreshold)
	}
	if cfg.Risk.MaxTradeCash != 250 {
		t.Fatalf("expected max_trade_cash 250, got %f", cfg.Risk.MaxTradeCash)
	}
	if cfg.Risk.MaxConsecutiveLosses != 5 {
		t.Fatalf("expected max_consecutive_losses 5, got %d", cfg.Risk.MaxConsecutiveLosses)
	}
	if cfg.Directional.MinEdgeDirectional != 0.2 {
		t.Fatalf("expected min_edge_directional 0.2, got %f", cfg.Directional.MinEdgeDirectional)
	}
	// Untouched sections keep their defaults.
	if cfg.Resolution.MinResolutionEdge != 0.03 {
		t.Fatalf("expected default resolution edge 0.03, got %f", cfg.Resolution.MinResolutionEdge)
	}
}

func TestLoadFileInvalidPath(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write([]byte("{{invalid yaml")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = LoadFile(f.Name())
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestApplyEnvCredentials(t *testing.T) {
	t.Setenv("POLYMARKET_PK", "test-pk")
	t.Setenv("POLYMARKET_API_KEY", "test-key")
	t.Setenv("POLYMARKET_API_SECRET", "test-secret")
	t.Setenv("POLYMARKET_API_PASSPHRASE", "test-pass")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("TRADER_DRY_RUN", "false")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.PrivateKey != "test-pk" {
		t.Fatalf("expected PrivateKey test-pk, got %s", cfg.PrivateKey)
	}
	if cfg.APIKey != "test-key" || cfg.APISecret != "test-secret" || cfg.APIPassphrase != "test-pass" {
		t.Fatal("expected API credentials to be set from env")
	}
	if cfg.Telegram.BotToken != "bot-token" || !cfg.Telegram.Enabled {
		t.Fatal("expected telegram bot token from env and enabled=true")
	}
	if cfg.DryRun {
		t.Fatal("expected dry run false from env")
	}
}

func TestApplyEnvPhaseOverride(t *testing.T) {
	t.Setenv("TRADER_PHASE_OVERRIDE", "2")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.ActivePhaseOverride != 2 {
		t.Fatalf("expected phase override 2, got %d", cfg.ActivePhaseOverride)
	}
}

func TestApplyEnvPhaseOverrideIgnoresInvalid(t *testing.T) {
	t.Setenv("TRADER_PHASE_OVERRIDE", "9")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.ActivePhaseOverride != 0 {
		t.Fatalf("expected phase override unchanged at 0, got %d", cfg.ActivePhaseOverride)
	}
}
