package strategy

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/bookwalk"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

const sniperName = "new_market_sniper"

// sniperWorstCaseLossPct mirrors new_market_sniper.py's 5%-of-notional
// max-loss estimate.
const sniperWorstCaseLossPct = 0.05

// SniperConfig holds the new-market-sniper tunables (spec §6).
type SniperConfig struct {
	NewMarketAgeLimit       time.Duration
	HighPriorityThreshold   float64
	ArbThreshold            float64
	MaxNewMarketExposurePct float64
	EstimatedFeeRate        float64
	MinArbProfitPct         float64
}

// Sniper detects markets freshly listed on the catalog and, if still
// within their age window, buys both legs the same way SumToOne does,
// with tighter sizing and a dedicated exposure cap.
//
// Grounded on
// original_source/polymarket-compounder/strategies/new_market_sniper.py.
type Sniper struct {
	deps Deps
	cfg  SniperConfig
	phase func() int

	mu   sync.Mutex
	seen map[string]bool
}

// NewSniper constructs the strategy with an empty seen-market set.
func NewSniper(deps Deps, cfg SniperConfig, phaseFn func() int) *Sniper {
	return &Sniper{deps: deps, cfg: cfg, phase: phaseFn, seen: make(map[string]bool)}
}

func (s *Sniper) Name() string { return sniperName }
func (s *Sniper) Close() error { return nil }

func (s *Sniper) ScanAndExecute(ctx context.Context) error {
	markets, err := s.deps.Catalog.FetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("%s: fetch markets: %w", sniperName, err)
	}

	now := time.Now()
	for _, m := range detectNewMarkets(s, markets) {
		if !m.IsBinaryTradable() {
			continue
		}
		if now.Sub(m.CreatedAt) > s.cfg.NewMarketAgeLimit {
			continue
		}
		if err := s.evaluateMarket(ctx, m); err != nil {
			log.Printf("%s: %s: %v", sniperName, m.ConditionID, err)
		}
	}
	return nil
}

// detectNewMarkets diffs the catalog against the set of previously
// observed condition ids, grounded on market_scanner.py's
// detect_new_markets.
func detectNewMarkets(s *Sniper, markets []venue.Market) []venue.Market {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []venue.Market
	for _, m := range markets {
		if !s.seen[m.ConditionID] {
			s.seen[m.ConditionID] = true
			fresh = append(fresh, m)
		}
	}
	return fresh
}

func (s *Sniper) evaluateMarket(ctx context.Context, m venue.Market) error {
	balance, err := s.deps.Venue.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
	}

	if s.deps.Ledger.StrategyExposure(sniperName)/balance >= s.cfg.MaxNewMarketExposurePct {
		return nil
	}

	yesBook, err := s.deps.Venue.GetOrderBook(ctx, m.YesTokenID)
	if err != nil {
		return fmt.Errorf("%w: yes book: %v", venue.ErrTransientVenue, err)
	}
	noBook, err := s.deps.Venue.GetOrderBook(ctx, m.NoTokenID)
	if err != nil {
		return fmt.Errorf("%w: no book: %v", venue.ErrTransientVenue, err)
	}

	yesBest, ok1 := bookwalk.BestAskPrice(yesBook.Asks)
	noBest, ok2 := bookwalk.BestAskPrice(noBook.Asks)
	if !ok1 || !ok2 {
		return nil
	}
	naiveSum := yesBest + noBest
	if naiveSum > s.cfg.ArbThreshold {
		return nil
	}
	// priority classification (high vs standard) only affects future
	// prioritization hooks; both tiers execute identically today.
	_ = naiveSum <= s.cfg.HighPriorityThreshold

	riskMultiplier := s.deps.Risk.PositionMultiplier()
	sizeCashUSD := sizeCash(balance, 0.15, s.deps.Risk.MaxTradeCashUSD(), riskMultiplier)
	if sizeCashUSD <= 0 {
		return nil
	}
	targetShares := sizeCashUSD / naiveSum

	combinedCost, ok := bookwalk.CombinedFillCost(yesBook.Asks, noBook.Asks, targetShares)
	if !ok {
		targetShares /= 2
		combinedCost, ok = bookwalk.CombinedFillCost(yesBook.Asks, noBook.Asks, targetShares)
		if !ok {
			return fmt.Errorf("%w: insufficient depth for %.2f shares", venue.ErrBookInsufficient, targetShares)
		}
	}

	profitPerShare := 1.0 - combinedCost - combinedCost*s.cfg.EstimatedFeeRate
	if profitPerShare < s.cfg.MinArbProfitPct {
		return nil
	}

	req := risk.TradeRequest{
		Strategy:   sniperName,
		TokenID:    m.YesTokenID,
		Side:       string(venue.Buy),
		Price:      combinedCost,
		Size:       targetShares,
		MaxLossUSD: combinedCost * targetShares * sniperWorstCaseLossPct,
	}
	allowed, reason := s.deps.Risk.CheckTrade(req, balance)
	if !allowed {
		log.Printf("%s: risk rejected %s: %s", sniperName, m.ConditionID, reason)
		return nil
	}

	pair, err := s.deps.Orders.PlaceArbPair(ctx, m.YesTokenID, m.NoTokenID, yesBest, noBest, targetShares)
	if err != nil {
		return fmt.Errorf("place pair: %w", err)
	}
	if pair.YesLeg.Status != "filled" || pair.NoLeg.Status != "filled" {
		return nil
	}

	yesPos := s.deps.Ledger.OpenPosition(m.YesTokenID, m.ConditionID, m.Question, string(venue.Yes), yesBest, targetShares, sniperName)
	s.deps.Ledger.OpenPosition(m.NoTokenID, m.ConditionID, m.Question, string(venue.No), noBest, targetShares, sniperName)

	newBalance, _ := s.deps.Venue.GetBalance(ctx)
	phase := 0
	if s.phase != nil {
		phase = s.phase()
	}

	s.deps.Ledger.ClosePosition(m.NoTokenID, 0.0, newBalance, phase)
	rec, _ := s.deps.Ledger.ClosePosition(yesPos.TokenID, 1.0, newBalance, phase)

	s.deps.Risk.RecordTradeCompleted(rec.PnLUSD >= 0)
	s.deps.Journal.RecordTrade(rec)
	return nil
}
