package ledger

import "testing"

func TestOpenCloseBasic(t *testing.T) {
	l := New()
	l.OpenPosition("tok1", "mkt1", "Will it rain?", "YES", 0.40, 100, "sum_to_one_arb")

	open := l.OpenPositions()
	if len(open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(open))
	}
	if got := l.TotalExposure(); got != 40 {
		t.Fatalf("expected exposure 40, got %v", got)
	}

	rec, ok := l.ClosePosition("tok1", 1.0, 1060, 0)
	if !ok {
		t.Fatalf("expected close to find the position")
	}
	if rec.PnLUSD != 60 {
		t.Fatalf("expected pnl 60, got %v", rec.PnLUSD)
	}
	if len(l.OpenPositions()) != 0 {
		t.Fatalf("expected no open positions after close")
	}
}

func TestCloseUnknownToken(t *testing.T) {
	l := New()
	_, ok := l.ClosePosition("missing", 1.0, 0, 0)
	if ok {
		t.Fatalf("expected close of unknown token to fail")
	}
}

func TestMostRecentOpenResolution(t *testing.T) {
	l := New()
	l.OpenPosition("tok1", "m", "q", "YES", 0.5, 10, "s")
	l.OpenPosition("tok1", "m", "q", "YES", 0.6, 10, "s")

	rec, ok := l.ClosePosition("tok1", 1.0, 0, 0)
	if !ok {
		t.Fatalf("expected close to succeed")
	}
	if rec.EntryPrice != 0.6 {
		t.Fatalf("expected most recently opened position (entry 0.6) to close first, got %v", rec.EntryPrice)
	}
	if len(l.OpenPositions()) != 1 {
		t.Fatalf("expected one position still open")
	}
}

func TestStreaks(t *testing.T) {
	l := New()
	l.OpenPosition("a", "m", "q", "YES", 0.5, 10, "s")
	l.ClosePosition("a", 0.4, 0, 0) // loss
	l.OpenPosition("b", "m", "q", "YES", 0.5, 10, "s")
	l.ClosePosition("b", 0.4, 0, 0) // loss
	if got := l.ConsecutiveLosses(); got != 2 {
		t.Fatalf("expected 2 consecutive losses, got %d", got)
	}
	l.OpenPosition("c", "m", "q", "YES", 0.5, 10, "s")
	l.ClosePosition("c", 0.9, 0, 0) // win
	if got := l.ConsecutiveLosses(); got != 0 {
		t.Fatalf("expected loss streak reset to 0, got %d", got)
	}
	if got := l.ConsecutiveWins(); got != 1 {
		t.Fatalf("expected win streak 1, got %d", got)
	}
}

func TestStrategyExposureAndWinRate(t *testing.T) {
	l := New()
	l.OpenPosition("a", "m", "q", "YES", 0.5, 10, "sniper")
	l.OpenPosition("b", "m", "q", "YES", 0.5, 10, "resolution_arb")

	if got := l.StrategyExposure("sniper"); got != 5 {
		t.Fatalf("expected sniper exposure 5, got %v", got)
	}
	if got := l.StrategyPositionCount("sniper"); got != 1 {
		t.Fatalf("expected 1 open sniper position, got %d", got)
	}

	if _, ok := l.StrategyWinRate("sniper"); ok {
		t.Fatalf("expected no win rate before any trades close")
	}
	l.ClosePosition("a", 1.0, 0, 0)
	rate, ok := l.StrategyWinRate("sniper")
	if !ok || rate != 1.0 {
		t.Fatalf("expected win rate 1.0, got %v ok=%v", rate, ok)
	}
}
