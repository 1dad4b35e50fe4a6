// Package ledger is the single source of truth for open positions and
// closed trade records. Strategies call Open/Close; the risk manager
// and the scheduler read exposure and streak state through it.
//
// Grounded on
// original_source/polymarket-compounder/core/position_tracker.py
// (Position, TradeRecord, open_position/close_position, streak and
// exposure queries), restructured as a mutex-guarded struct in the
// style of the teacher's internal/execution/tracker.go.
package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open or closed holding in a conditional token.
type Position struct {
	TokenID        string
	MarketID       string
	MarketQuestion string
	Side           string // "YES" or "NO"
	EntryPrice     float64
	Size           float64
	Strategy       string
	OpenedAt       time.Time

	ExitPrice *float64
	ClosedAt  *time.Time
}

// IsOpen reports whether the position has not yet been closed.
func (p Position) IsOpen() bool { return p.ExitPrice == nil }

// CostBasis is the total cash spent to open the position.
func (p Position) CostBasis() float64 { return p.EntryPrice * p.Size }

// PnL is the realized PnL in cash, or nil if still open.
func (p Position) PnL() *float64 {
	if p.ExitPrice == nil {
		return nil
	}
	v := (*p.ExitPrice - p.EntryPrice) * p.Size
	return &v
}

// PnLPct is the realized PnL as a fraction of entry price, or nil if
// still open or entry price is zero.
func (p Position) PnLPct() *float64 {
	if p.ExitPrice == nil || p.EntryPrice == 0 {
		return nil
	}
	v := (*p.ExitPrice - p.EntryPrice) / p.EntryPrice
	return &v
}

// TradeRecord is an immutable record of a completed trade, appended to
// the journal on close.
type TradeRecord struct {
	Timestamp     time.Time
	Strategy      string
	MarketName    string
	Side          string
	EntryPrice    float64
	ExitPrice     float64
	SizeUSD       float64
	PnLUSD        float64
	PnLPct        float64
	BalanceAfter  float64
	Phase         int
}

// Ledger tracks all positions and trade history. Safe for concurrent
// use by multiple strategy goroutines.
type Ledger struct {
	mu                sync.RWMutex
	positions         []*Position
	tradeHistory      []TradeRecord
	consecutiveLosses int
	consecutiveWins   int
	maxWinStreak      int
	maxLossStreak     int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// OpenPosition registers a new open position and returns it.
func (l *Ledger) OpenPosition(tokenID, marketID, marketQuestion, side string, entryPrice, size float64, strategy string) *Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := &Position{
		TokenID:        tokenID,
		MarketID:       marketID,
		MarketQuestion: marketQuestion,
		Side:           side,
		EntryPrice:     entryPrice,
		Size:           size,
		Strategy:       strategy,
		OpenedAt:       time.Now(),
	}
	l.positions = append(l.positions, pos)
	return pos
}

// ClosePosition marks the most recent still-open position for tokenID
// as closed, records the trade, updates streak counters, and returns
// the TradeRecord. Returns (TradeRecord{}, false) if no matching open
// position exists.
func (l *Ledger) ClosePosition(tokenID string, exitPrice, balanceAfter float64, phase int) (TradeRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.findOpenLocked(tokenID)
	if pos == nil {
		return TradeRecord{}, false
	}

	now := time.Now()
	pos.ExitPrice = &exitPrice
	pos.ClosedAt = &now

	pnl := 0.0
	if p := pos.PnL(); p != nil {
		pnl = *p
	}
	pnlPct := 0.0
	if p := pos.PnLPct(); p != nil {
		pnlPct = *p
	}

	if pnl >= 0 {
		l.consecutiveWins++
		l.consecutiveLosses = 0
		if l.consecutiveWins > l.maxWinStreak {
			l.maxWinStreak = l.consecutiveWins
		}
	} else {
		l.consecutiveLosses++
		l.consecutiveWins = 0
		if l.consecutiveLosses > l.maxLossStreak {
			l.maxLossStreak = l.consecutiveLosses
		}
	}

	rec := TradeRecord{
		Timestamp:    now,
		Strategy:     pos.Strategy,
		MarketName:   pos.MarketQuestion,
		Side:         pos.Side,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    exitPrice,
		SizeUSD:      pos.CostBasis(),
		PnLUSD:       pnl,
		PnLPct:       pnlPct,
		BalanceAfter: balanceAfter,
		Phase:        phase,
	}
	l.tradeHistory = append(l.tradeHistory, rec)
	return rec, true
}

func (l *Ledger) findOpenLocked(tokenID string) *Position {
	for i := len(l.positions) - 1; i >= 0; i-- {
		p := l.positions[i]
		if p.TokenID == tokenID && p.IsOpen() {
			return p
		}
	}
	return nil
}

// OpenPositions returns a snapshot of all currently open positions.
func (l *Ledger) OpenPositions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Position
	for _, p := range l.positions {
		if p.IsOpen() {
			out = append(out, *p)
		}
	}
	return out
}

// TotalExposure is the sum of cost basis across all open positions (P3).
func (l *Ledger) TotalExposure() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalExposureLocked("")
}

// StrategyExposure is the open cost basis for a single strategy.
func (l *Ledger) StrategyExposure(strategy string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalExposureLocked(strategy)
}

func (l *Ledger) totalExposureLocked(strategy string) float64 {
	total := decimal.NewFromInt(0)
	for _, p := range l.positions {
		if !p.IsOpen() {
			continue
		}
		if strategy != "" && p.Strategy != strategy {
			continue
		}
		total = total.Add(decimal.NewFromFloat(p.CostBasis()))
	}
	f, _ := total.Float64()
	return f
}

// StrategyPositionCount is the number of open positions for a strategy.
func (l *Ledger) StrategyPositionCount(strategy string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, p := range l.positions {
		if p.IsOpen() && p.Strategy == strategy {
			n++
		}
	}
	return n
}

// ConsecutiveLosses returns the current trailing loss streak (P4).
func (l *Ledger) ConsecutiveLosses() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.consecutiveLosses
}

// ConsecutiveWins returns the current trailing win streak (P4).
func (l *Ledger) ConsecutiveWins() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.consecutiveWins
}

// TradeHistory returns the full append-only trade history.
func (l *Ledger) TradeHistory() []TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TradeRecord, len(l.tradeHistory))
	copy(out, l.tradeHistory)
	return out
}

// StrategyTradeHistory returns trade records for one strategy.
func (l *Ledger) StrategyTradeHistory(strategy string) []TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []TradeRecord
	for _, t := range l.tradeHistory {
		if t.Strategy == strategy {
			out = append(out, t)
		}
	}
	return out
}

// StrategyWinRate returns the win rate for a strategy, or (0, false)
// if it has no trades yet.
func (l *Ledger) StrategyWinRate(strategy string) (float64, bool) {
	trades := l.StrategyTradeHistory(strategy)
	if len(trades) == 0 {
		return 0, false
	}
	wins := 0
	for _, t := range trades {
		if t.PnLUSD >= 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)), true
}
