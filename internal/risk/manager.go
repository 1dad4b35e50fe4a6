// Package risk owns the only shared mutable safety state in the
// engine: the NORMAL/COOLDOWN/RECOVERY circuit-breaker state machine
// that gates every trade.
//
// Grounded on original_source/polymarket-compounder/utils/risk_manager.py
// (RiskState, RiskManager.check_trade's exact gate order,
// get_position_multiplier, record_trade_completed's lazy
// COOLDOWN→RECOVERY transition and extended-cooldown-on-loss-during-
// recovery semantics). The package shape — Config struct with yaml
// tags, sync.Mutex-guarded Manager, Snapshot() read accessor — is
// kept from the teacher's internal/risk/manager.go, which this
// supersedes (the teacher's version has no RECOVERY state).
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
)

// State is one of the three risk circuit-breaker states.
type State string

const (
	Normal   State = "NORMAL"
	Cooldown State = "COOLDOWN"
	Recovery State = "RECOVERY"
)

// Config holds every risk-related tunable from the configuration
// surface (spec §6).
type Config struct {
	MaxTradeCashUSD            float64 `yaml:"max_trade_cash"`
	MinTradeCashUSD            float64 `yaml:"min_trade_cash"`
	MaxPositionPct             float64 `yaml:"max_position_pct"`
	MaxTotalExposurePct        float64 `yaml:"max_total_exposure_pct"`
	MaxStrategyExposurePct     float64 `yaml:"max_strategy_exposure_pct"`
	MaxConsecutiveLosses       int     `yaml:"max_consecutive_losses"`
	MaxDailyDrawdownPct        float64 `yaml:"max_daily_drawdown_pct"`
	MaxSingleLossPct           float64 `yaml:"max_single_loss_pct"`
	CooldownMinutes            float64 `yaml:"cooldown_minutes"`
	RecoveryPositionMultiplier float64 `yaml:"recovery_position_multiplier"`
	RecoveryTradeCount         int     `yaml:"recovery_trade_count"`
}

// TradeRequest describes a trade awaiting risk approval.
type TradeRequest struct {
	Strategy   string
	TokenID    string
	Side       string
	Price      float64
	Size       float64
	MaxLossUSD float64
}

// CostUSD is the notional cash cost of the trade.
func (r TradeRequest) CostUSD() float64 { return r.Price * r.Size }

// Manager is the circuit-breaker risk gate. Safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	cfg     Config
	tracker *ledger.Ledger

	state State

	dayStartBalance float64
	cooldownUntil   time.Time
	recoveryRemain  int
}

// New constructs a Manager in the NORMAL state. tracker is consulted
// read-only for exposure and streak queries.
func New(cfg Config, tracker *ledger.Ledger) *Manager {
	return &Manager{
		cfg:     cfg,
		tracker: tracker,
		state:   Normal,
	}
}

// SetDayStartBalance is called once at startup and at each UTC-day
// rollover.
func (m *Manager) SetDayStartBalance(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayStartBalance = balance
}

// CheckTrade gates req against currentBalance, returning (true, "") on
// approval or (false, reason) on the first rule tripped. Checks run in
// the order specified by spec §4.3.
func (m *Manager) CheckTrade(req TradeRequest, currentBalance float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeLazyRecoverLocked()

	if m.state == Cooldown {
		remaining := time.Until(m.cooldownUntil)
		return false, fmt.Sprintf("cooldown active, %.0fs remaining", remaining.Seconds())
	}

	if m.dayStartBalance > 0 {
		drawdown := (m.dayStartBalance - currentBalance) / m.dayStartBalance
		if drawdown >= m.cfg.MaxDailyDrawdownPct {
			m.enterCooldownLocked(false)
			return false, fmt.Sprintf("daily drawdown %.2f%% >= limit %.2f%%", drawdown*100, m.cfg.MaxDailyDrawdownPct*100)
		}
	}

	if m.state != Recovery && m.tracker.ConsecutiveLosses() >= m.cfg.MaxConsecutiveLosses {
		m.enterCooldownLocked(false)
		return false, fmt.Sprintf("consecutive loss limit reached (%d)", m.tracker.ConsecutiveLosses())
	}

	if req.MaxLossUSD > m.cfg.MaxSingleLossPct*currentBalance {
		return false, "single-trade worst-case loss exceeds max_single_loss_pct"
	}

	cost := req.CostUSD()
	if cost > m.cfg.MaxPositionPct*currentBalance {
		return false, "trade cost exceeds max_position_pct of balance"
	}

	if m.tracker.TotalExposure()+cost > m.cfg.MaxTotalExposurePct*currentBalance {
		return false, "total exposure would exceed max_total_exposure_pct"
	}

	if m.tracker.StrategyExposure(req.Strategy)+cost > m.cfg.MaxStrategyExposurePct*currentBalance {
		return false, "strategy exposure would exceed max_strategy_exposure_pct"
	}

	if cost < m.cfg.MinTradeCashUSD {
		return false, "trade cost below min_trade_cash"
	}

	if cost > m.cfg.MaxTradeCashUSD {
		return false, "trade cost above max_trade_cash"
	}

	return true, ""
}

// maybeLazyRecoverLocked performs the COOLDOWN→RECOVERY transition on
// the first check after the cooldown timer elapses. This is the only
// place the transition happens: never on a background timer (spec
// §4.3 rationale: keeps the state machine observable only at decision
// points).
func (m *Manager) maybeLazyRecoverLocked() {
	if m.state == Cooldown && !time.Now().Before(m.cooldownUntil) {
		m.state = Recovery
		m.recoveryRemain = m.cfg.RecoveryTradeCount
	}
}

func (m *Manager) enterCooldownLocked(extended bool) {
	minutes := m.cfg.CooldownMinutes
	if extended {
		minutes *= 4
	}
	m.state = Cooldown
	m.cooldownUntil = time.Now().Add(time.Duration(minutes * float64(time.Minute)))
}

// PositionMultiplier is the sizing factor: 1.0 in NORMAL,
// RecoveryPositionMultiplier in RECOVERY. Unused (trading halted) in
// COOLDOWN.
func (m *Manager) PositionMultiplier() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeLazyRecoverLocked()
	if m.state == Recovery {
		return m.cfg.RecoveryPositionMultiplier
	}
	return 1.0
}

// RecordTradeCompleted notifies the manager of a resolved trade
// outcome. In RECOVERY, any loss immediately re-enters extended
// COOLDOWN; a win decrements the remaining recovery trade count, and
// reaching zero transitions to NORMAL.
func (m *Manager) RecordTradeCompleted(isWin bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Recovery {
		return
	}

	if !isWin {
		m.enterCooldownLocked(true)
		return
	}

	m.recoveryRemain--
	if m.recoveryRemain <= 0 {
		m.state = Normal
	}
}

// MaxTradeCashUSD exposes the configured per-trade cash ceiling so
// strategies can size against it without duplicating the config value.
func (m *Manager) MaxTradeCashUSD() float64 {
	return m.cfg.MaxTradeCashUSD
}

// IsTradingAllowed is a fast-path predicate the Scheduler checks once
// per cycle before dispatching any strategy.
func (m *Manager) IsTradingAllowed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeLazyRecoverLocked()
	return m.state != Cooldown
}

// Snapshot is a point-in-time read of the risk state, used by the
// status API and periodic summaries.
type Snapshot struct {
	State             State
	ConsecutiveLosses int
	ConsecutiveWins   int
	CooldownUntil     time.Time
}

// Snapshot returns the current risk state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeLazyRecoverLocked()
	return Snapshot{
		State:             m.state,
		ConsecutiveLosses: m.tracker.ConsecutiveLosses(),
		ConsecutiveWins:   m.tracker.ConsecutiveWins(),
		CooldownUntil:     m.cooldownUntil,
	}
}
