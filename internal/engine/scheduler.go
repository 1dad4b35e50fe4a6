// Package engine implements the Scheduler: balance-driven phase
// selection, concurrent per-cycle strategy dispatch, periodic summary
// emission, and graceful shutdown.
//
// Grounded on original_source/polymarket-compounder/main.py
// (determine_phase, build_strategies, main_loop's per-strategy
// exception isolation via asyncio.gather, heartbeat/backoff cadence,
// graceful_shutdown), restructured in the style of the teacher's
// internal/app/app.go (sync.RWMutex-guarded struct, a Notifier
// interface, a New(cfg, ...) constructor).
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/config"
	"github.com/GoPolymarket/polymarket-trader/internal/execution"
	"github.com/GoPolymarket/polymarket-trader/internal/journal"
	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
	"github.com/GoPolymarket/polymarket-trader/internal/metrics"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/strategy"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// Notifier defines the alert methods the scheduler accepts. The
// scheduler sends phase-change and daily-summary alerts;
// NotifyRiskCooldown is not called by the scheduler.
type Notifier interface {
	NotifyPhaseChange(oldPhase, newPhase int) error
	NotifyDailySummary(pnl float64, fills int, volume float64) error
	NotifyRiskCooldown(consecutiveLosses, maxConsecutiveLosses int, cooldownRemaining time.Duration) error
}

// StrategyFactory builds the active strategy set for a given phase.
// Phase 1 includes sum-to-one and resolution arb; 2 adds the sniper;
// 3 adds the directional engine.
type StrategyFactory func(phase int) []strategy.Strategy

// Scheduler orchestrates cycles across the active strategy set.
type Scheduler struct {
	cfg      config.Config
	venue    venue.OrderVenue
	orders   *execution.Coordinator
	ledger   *ledger.Ledger
	risk     *risk.Manager
	journal  *journal.Journal
	notifier Notifier
	build    StrategyFactory

	mu        sync.RWMutex
	phase     int
	active    []strategy.Strategy
	running   bool
	cycles    int
	forceHalt bool
}

// ForceHalt manually engages or releases a kill switch independent of
// the risk manager's own cooldown state, for operator use via the API
// server's emergency-stop endpoint.
func (s *Scheduler) ForceHalt(halt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceHalt = halt
}

// IsForceHalted reports whether the manual kill switch is engaged.
func (s *Scheduler) IsForceHalted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forceHalt
}

// New constructs a Scheduler in phase 0 (no strategies built yet; the
// first cycle selects the initial phase and builds the set).
func New(cfg config.Config, v venue.OrderVenue, orders *execution.Coordinator, l *ledger.Ledger, r *risk.Manager, j *journal.Journal, notifier Notifier, build StrategyFactory) *Scheduler {
	return &Scheduler{cfg: cfg, venue: v, orders: orders, ledger: l, risk: r, journal: j, notifier: notifier, build: build}
}

// Run executes cycles until ctx is cancelled, then performs graceful
// shutdown and returns nil. Errors inside a cycle are logged, the loop
// backs off for 30s, and then continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.risk.SetDayStartBalance(s.currentBalanceOrZero(ctx))

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown(context.Background())
			return nil
		default:
		}

		if err := s.runCycle(ctx); err != nil {
			log.Printf("engine: cycle error: %v; backing off 30s", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				s.shutdown(context.Background())
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.shutdown(context.Background())
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) currentBalanceOrZero(ctx context.Context) float64 {
	balance, err := s.venue.GetBalance(ctx)
	if err != nil {
		return 0
	}
	return balance
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.CycleDuration.Observe(time.Since(start).Seconds()) }()

	balance, err := s.venue.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	metrics.BalanceUSD.Set(balance)
	metrics.OpenExposureUSD.Set(s.ledger.TotalExposure())

	newPhase := s.cfg.DeterminePhase(balance)

	s.mu.Lock()
	oldPhase := s.phase
	phaseChanged := newPhase != oldPhase
	if phaseChanged || s.active == nil {
		s.phase = newPhase
		s.active = s.build(newPhase)
	}
	active := s.active
	s.cycles++
	cycles := s.cycles
	s.mu.Unlock()

	if phaseChanged && s.notifier != nil && oldPhase != 0 {
		_ = s.notifier.NotifyPhaseChange(oldPhase, newPhase)
	}

	snap := s.risk.Snapshot()
	metrics.SetRiskState(string(snap.State))

	if s.IsForceHalted() {
		log.Printf("engine: trading halted (manual kill switch engaged), skipping cycle")
		return nil
	}

	if !s.risk.IsTradingAllowed() {
		log.Printf("engine: trading halted (risk state %s), skipping cycle", snap.State)
		return nil
	}

	s.dispatch(ctx, active)
	s.emitSummaries(balance)

	if cycles%30 == 0 {
		log.Printf("engine: heartbeat cycle=%d phase=%d balance=%.2f state=%s", cycles, newPhase, balance, snap.State)
	}
	return nil
}

// dispatch runs every active strategy concurrently; a panic or error
// from one strategy is logged and does not affect the others (spec §7
// propagation rule).
func (s *Scheduler) dispatch(ctx context.Context, active []strategy.Strategy) {
	var wg sync.WaitGroup
	for _, st := range active {
		wg.Add(1)
		go func(st strategy.Strategy) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("engine: strategy %s panicked: %v", st.Name(), r)
				}
			}()
			if err := st.ScanAndExecute(ctx); err != nil {
				log.Printf("engine: strategy %s error: %v", st.Name(), err)
			}
		}(st)
	}
	wg.Wait()
}

func (s *Scheduler) emitSummaries(balance float64) {
	daily, dailyOK, weekly, weeklyOK := s.journal.CheckDailySummary(s.ledger)
	if dailyOK {
		// a daily summary marks a UTC-day rollover: reset the drawdown base.
		s.risk.SetDayStartBalance(balance)
		log.Printf("engine: daily summary trades=%d wins=%d net_pnl=%.2f win_rate=%.1f%%", daily.Trades, daily.Wins, daily.NetPnL, daily.WinRate*100)
		if s.notifier != nil {
			_ = s.notifier.NotifyDailySummary(daily.NetPnL, daily.Trades, daily.NetPnL)
		}
	}
	if weeklyOK {
		log.Printf("engine: weekly summary trades=%d wins=%d net_pnl=%.2f best=%.2f worst=%.2f", weekly.Trades, weekly.Wins, weekly.NetPnL, weekly.Best, weekly.Worst)
	}
}

// shutdown cancels all resting orders, closes every active strategy,
// and logs a final summary. It must tolerate an already-cancelled or
// already-filled order.
func (s *Scheduler) shutdown(ctx context.Context) {
	s.mu.Lock()
	s.running = false
	active := s.active
	s.mu.Unlock()

	for _, st := range active {
		if err := st.Close(); err != nil {
			log.Printf("engine: closing strategy %s: %v", st.Name(), err)
		}
	}

	if err := s.orders.CancelAll(ctx); err != nil {
		log.Printf("engine: cancel-all on shutdown (tolerated): %v", err)
	}

	trades := s.ledger.TradeHistory()
	var netPnL float64
	for _, t := range trades {
		netPnL += t.PnLUSD
	}
	log.Printf("engine: shutdown complete, %d trades recorded, net pnl %.2f", len(trades), netPnL)
}

// IsRunning reports whether the scheduler's main loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// CurrentPhase returns the most recently selected phase.
func (s *Scheduler) CurrentPhase() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}
