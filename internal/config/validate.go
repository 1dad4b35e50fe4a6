package config

import "fmt"

// Validate checks high-impact runtime configuration constraints.
func (c Config) Validate() error {
	if c.ActivePhaseOverride != 0 && (c.ActivePhaseOverride < 1 || c.ActivePhaseOverride > 3) {
		return fmt.Errorf("active_phase_override must be 0, 1, 2, or 3, got %d", c.ActivePhaseOverride)
	}
	if c.Phase2Threshold <= 0 || c.Phase3Threshold <= c.Phase2Threshold {
		return fmt.Errorf("phase3_threshold must exceed phase2_threshold, got %f/%f", c.Phase2Threshold, c.Phase3Threshold)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be > 0, got %s", c.ScanInterval)
	}

	if c.SumToOne.ArbThreshold <= 0 || c.SumToOne.ArbThreshold > 1 {
		return fmt.Errorf("sum_to_one.arb_threshold must be within (0,1], got %f", c.SumToOne.ArbThreshold)
	}
	if c.SumToOne.MinArbProfitPct < 0 {
		return fmt.Errorf("sum_to_one.min_arb_profit_pct must be >= 0, got %f", c.SumToOne.MinArbProfitPct)
	}

	if c.Resolution.MinResolutionEdge < 0 {
		return fmt.Errorf("resolution.min_resolution_edge must be >= 0, got %f", c.Resolution.MinResolutionEdge)
	}
	if c.Resolution.Asset == "" {
		return fmt.Errorf("resolution.asset must be set")
	}

	if c.Sniper.MaxNewMarketExposurePct <= 0 || c.Sniper.MaxNewMarketExposurePct > 1 {
		return fmt.Errorf("sniper.max_new_market_exposure_pct must be within (0,1], got %f", c.Sniper.MaxNewMarketExposurePct)
	}

	if c.Directional.MaxConcurrentDirectional < 0 {
		return fmt.Errorf("directional.max_concurrent_directional must be >= 0, got %d", c.Directional.MaxConcurrentDirectional)
	}
	if c.Directional.DirectionalMinSample < 0 {
		return fmt.Errorf("directional.directional_min_sample must be >= 0, got %d", c.Directional.DirectionalMinSample)
	}

	if c.Risk.MaxTradeCash <= c.Risk.MinTradeCash {
		return fmt.Errorf("risk.max_trade_cash must exceed risk.min_trade_cash, got %f/%f", c.Risk.MaxTradeCash, c.Risk.MinTradeCash)
	}
	if c.Risk.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("risk.max_consecutive_losses must be > 0, got %d", c.Risk.MaxConsecutiveLosses)
	}
	if c.Risk.MaxDailyDrawdownPct <= 0 || c.Risk.MaxDailyDrawdownPct > 1 {
		return fmt.Errorf("risk.max_daily_drawdown_pct must be within (0,1], got %f", c.Risk.MaxDailyDrawdownPct)
	}
	if c.Risk.CooldownMinutes <= 0 {
		return fmt.Errorf("risk.cooldown_minutes must be > 0, got %f", c.Risk.CooldownMinutes)
	}
	if c.Risk.RecoveryTradeCount <= 0 {
		return fmt.Errorf("risk.recovery_trade_count must be > 0, got %d", c.Risk.RecoveryTradeCount)
	}

	if c.Execution.OrderTimeoutSeconds <= 0 {
		return fmt.Errorf("execution.order_timeout_seconds must be > 0, got %d", c.Execution.OrderTimeoutSeconds)
	}
	if c.Execution.MaxRetries <= 0 {
		return fmt.Errorf("execution.max_retries must be > 0, got %d", c.Execution.MaxRetries)
	}
	if c.Execution.RetryBackoffBase <= 1 {
		return fmt.Errorf("execution.retry_backoff_base must be > 1, got %f", c.Execution.RetryBackoffBase)
	}

	if !c.DryRun && c.PrivateKey == "" {
		return fmt.Errorf("private_key is required when dry_run is false")
	}

	return nil
}
