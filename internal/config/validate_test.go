package config

import "testing"

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got: %v", err)
	}
}

func TestValidateInvalidPhaseOverride(t *testing.T) {
	cfg := Default()
	cfg.ActivePhaseOverride = 9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected out-of-range active_phase_override to fail validation")
	}
}

func TestValidateInvalidPhaseThresholds(t *testing.T) {
	cfg := Default()
	cfg.Phase3Threshold = cfg.Phase2Threshold
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected phase3_threshold == phase2_threshold to fail validation")
	}
}

func TestValidateInvalidRiskTradeCashBounds(t *testing.T) {
	cfg := Default()
	cfg.Risk.MaxTradeCash = 1
	cfg.Risk.MinTradeCash = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected max_trade_cash <= min_trade_cash to fail validation")
	}
}

func TestValidateRequiresPrivateKeyWhenLive(t *testing.T) {
	cfg := Default()
	cfg.DryRun = false
	cfg.PrivateKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing private_key in live mode to fail validation")
	}
}

func TestValidateInvalidDrawdownPct(t *testing.T) {
	cfg := Default()
	cfg.Risk.MaxDailyDrawdownPct = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected max_daily_drawdown_pct > 1 to fail validation")
	}
}
