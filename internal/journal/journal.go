// Package journal persists closed trades to an append-only CSV file
// (the canonical record, spec §6) and mirrors them into a queryable
// SQLite store for ad-hoc inspection.
//
// Grounded on
// original_source/polymarket-compounder/utils/pnl_tracker.py
// (record_trade's exact column set/formatting, check_daily_summary's
// UTC day/week boundary detection).
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
)

// tradeRow mirrors ledger.TradeRecord for the SQLite store.
type tradeRow struct {
	gorm.Model
	Timestamp    time.Time
	Strategy     string
	MarketName   string
	Side         string
	EntryPrice   float64
	ExitPrice    float64
	SizeUSD      float64
	PnLUSD       float64
	PnLPct       float64
	BalanceAfter float64
	Phase        int
}

// Journal writes closed trades to CSV and SQLite.
type Journal struct {
	mu        sync.Mutex
	csvPath   string
	db        *gorm.DB
	lastDaily time.Time
	lastWeek  time.Time
}

// Open creates (or appends to) the CSV file at csvPath and opens the
// SQLite store at sqlitePath, creating both parent directories and
// the trade table as needed.
func Open(csvPath, sqlitePath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return nil, fmt.Errorf("journal: mkdir csv dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, fmt.Errorf("journal: mkdir sqlite dir: %w", err)
	}

	if err := ensureHeader(csvPath); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("journal: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&tradeRow{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}

	return &Journal{csvPath: csvPath, db: db, lastDaily: time.Now().UTC(), lastWeek: time.Now().UTC()}, nil
}

var csvHeader = []string{
	"timestamp", "datetime_utc", "strategy", "market_name", "side",
	"entry_price", "exit_price", "size_usd", "pnl_usd", "pnl_pct",
	"balance_after", "phase",
}

func ensureHeader(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal: create csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	return w.Write(csvHeader)
}

// RecordTrade appends one trade to the CSV journal and the SQLite
// mirror. Numeric formatting matches spec §6 exactly: prices 6
// decimals, cash 2 decimals, pnl/pnl_pct 4 decimals. Market names are
// truncated to 100 characters.
func (j *Journal) RecordTrade(rec ledger.TradeRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()

	marketName := rec.MarketName
	if len(marketName) > 100 {
		marketName = marketName[:100]
	}

	row := []string{
		fmt.Sprintf("%d", rec.Timestamp.Unix()),
		rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		rec.Strategy,
		marketName,
		rec.Side,
		decimal.NewFromFloat(rec.EntryPrice).StringFixed(6),
		decimal.NewFromFloat(rec.ExitPrice).StringFixed(6),
		decimal.NewFromFloat(rec.SizeUSD).StringFixed(2),
		decimal.NewFromFloat(rec.PnLUSD).StringFixed(4),
		decimal.NewFromFloat(rec.PnLPct).StringFixed(4),
		decimal.NewFromFloat(rec.BalanceAfter).StringFixed(2),
		fmt.Sprintf("%d", rec.Phase),
	}

	f, err := os.OpenFile(j.csvPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	w := csv.NewWriter(f)
	_ = w.Write(row)
	w.Flush()
	f.Close()

	j.db.Create(&tradeRow{
		Timestamp:    rec.Timestamp,
		Strategy:     rec.Strategy,
		MarketName:   marketName,
		Side:         rec.Side,
		EntryPrice:   rec.EntryPrice,
		ExitPrice:    rec.ExitPrice,
		SizeUSD:      rec.SizeUSD,
		PnLUSD:       rec.PnLUSD,
		PnLPct:       rec.PnLPct,
		BalanceAfter: rec.BalanceAfter,
		Phase:        rec.Phase,
	})
}

// Summary aggregates trade outcomes over a window for periodic
// reporting.
type Summary struct {
	Trades   int
	Wins     int
	NetPnL   float64
	Best     float64
	Worst    float64
	WinRate  float64
}

// summarize computes a Summary over rec, grounded on pnl_tracker.py's
// _emit_daily_summary/_emit_weekly_summary.
func summarize(records []ledger.TradeRecord) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}
	s.Best = records[0].PnLUSD
	s.Worst = records[0].PnLUSD
	for _, r := range records {
		s.Trades++
		s.NetPnL += r.PnLUSD
		if r.PnLUSD >= 0 {
			s.Wins++
		}
		if r.PnLUSD > s.Best {
			s.Best = r.PnLUSD
		}
		if r.PnLUSD < s.Worst {
			s.Worst = r.PnLUSD
		}
	}
	s.WinRate = float64(s.Wins) / float64(s.Trades)
	return s
}

// CheckDailySummary returns a daily Summary of trades from l the first
// time it is called after a UTC calendar-day boundary has been
// crossed, and a weekly Summary every 7 days; both return ok=false
// otherwise. Each summary covers the trades closed since the previous
// summary of the same kind (or since Open for the first one).
func (j *Journal) CheckDailySummary(l *ledger.Ledger) (daily Summary, dailyOK bool, weekly Summary, weeklyOK bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	history := l.TradeHistory()
	since := func(start time.Time) []ledger.TradeRecord {
		var out []ledger.TradeRecord
		for _, r := range history {
			if !r.Timestamp.Before(start) {
				out = append(out, r)
			}
		}
		return out
	}

	now := time.Now().UTC()
	if now.YearDay() != j.lastDaily.YearDay() || now.Year() != j.lastDaily.Year() {
		daily = summarize(since(j.lastDaily))
		dailyOK = true
		j.lastDaily = now
	}
	if now.Sub(j.lastWeek) >= 7*24*time.Hour {
		weekly = summarize(since(j.lastWeek))
		weeklyOK = true
		j.lastWeek = now
	}
	return
}

// Close releases the underlying SQLite connection.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
