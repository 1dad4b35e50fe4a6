package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
)

func tempPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "trades.csv"), filepath.Join(dir, "trades.db")
}

func TestOpenWritesHeaderOnce(t *testing.T) {
	csvPath, dbPath := tempPaths(t)
	j, err := Open(csvPath, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 header line, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "timestamp,datetime_utc,strategy") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestRecordTradeAppendsRowWithExactColumns(t *testing.T) {
	csvPath, dbPath := tempPaths(t)
	j, err := Open(csvPath, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	rec := ledger.TradeRecord{
		Timestamp:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Strategy:     "sum_to_one_arb",
		MarketName:   "Will BTC close above $65,000?",
		Side:         "YES",
		EntryPrice:   0.48,
		ExitPrice:    1.0,
		SizeUSD:      100,
		PnLUSD:       52.0,
		PnLPct:       1.0833,
		BalanceAfter: 1052.0,
		Phase:        1,
	}
	j.RecordTrade(rec)

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	fields, err := csv.NewReader(strings.NewReader(lines[1])).Read()
	if err != nil {
		t.Fatalf("parse csv row: %v", err)
	}
	if len(fields) != 12 {
		t.Fatalf("expected 12 columns, got %d: %v", len(fields), fields)
	}
	if fields[1] != "2026-01-15 12:00:00" {
		t.Errorf("datetime_utc = %q, want 2026-01-15 12:00:00", fields[1])
	}
	if fields[5] != "0.480000" {
		t.Errorf("entry_price = %q, want 0.480000", fields[5])
	}
	if fields[8] != "52.0000" {
		t.Errorf("pnl_usd = %q, want 52.0000", fields[8])
	}
}

func TestRecordTradeTruncatesLongMarketName(t *testing.T) {
	csvPath, dbPath := tempPaths(t)
	j, err := Open(csvPath, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	longName := strings.Repeat("x", 150)
	j.RecordTrade(ledger.TradeRecord{MarketName: longName, Timestamp: time.Now()})

	data, _ := os.ReadFile(csvPath)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	fields := strings.Split(lines[1], ",")
	if len(fields[3]) != 100 {
		t.Fatalf("market_name length = %d, want 100", len(fields[3]))
	}
}

func TestCheckDailySummaryNoOpBeforeBoundary(t *testing.T) {
	csvPath, dbPath := tempPaths(t)
	j, err := Open(csvPath, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	l := ledger.New()
	_, dailyOK, _, weeklyOK := j.CheckDailySummary(l)
	if dailyOK || weeklyOK {
		t.Fatal("expected no summary immediately after Open")
	}
}

func TestSummarizeComputesWinRateAndExtremes(t *testing.T) {
	records := []ledger.TradeRecord{
		{PnLUSD: 10},
		{PnLUSD: -5},
		{PnLUSD: 20},
	}
	s := summarize(records)
	if s.Trades != 3 || s.Wins != 2 {
		t.Fatalf("unexpected trades/wins: %d/%d", s.Trades, s.Wins)
	}
	if s.NetPnL != 25 {
		t.Fatalf("NetPnL = %v, want 25", s.NetPnL)
	}
	if s.Best != 20 || s.Worst != -5 {
		t.Fatalf("Best/Worst = %v/%v, want 20/-5", s.Best, s.Worst)
	}
}
