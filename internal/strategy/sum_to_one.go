package strategy

import (
	"context"
	"fmt"
	"log"

	"github.com/GoPolymarket/polymarket-trader/internal/bookwalk"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

const sumToOneName = "sum_to_one_arb"

// SumToOneConfig holds the sum-to-one arbitrage tunables (spec §6).
type SumToOneConfig struct {
	ArbThreshold      float64
	SlippageBuffer    float64
	MinArbProfitPct   float64
	MinDailyVolumeArb float64
	EstimatedFeeRate  float64
	MaxPositionPct    float64
}

// SumToOne buys both legs of a binary market whenever their combined
// ask cost is cheap enough to guarantee a profit at resolution,
// regardless of outcome.
//
// Grounded on
// original_source/polymarket-compounder/strategies/sum_to_one_arb.py.
type SumToOne struct {
	deps Deps
	cfg  SumToOneConfig
	bal  func(ctx context.Context) (float64, error)
	now  func() int // phase accessor, injected by the scheduler
}

// NewSumToOne constructs the strategy. phaseFn returns the currently
// active phase, used only to stamp TradeRecord.Phase.
func NewSumToOne(deps Deps, cfg SumToOneConfig, phaseFn func() int) *SumToOne {
	return &SumToOne{deps: deps, cfg: cfg, bal: deps.Venue.GetBalance, now: phaseFn}
}

func (s *SumToOne) Name() string { return sumToOneName }
func (s *SumToOne) Close() error { return nil }

func (s *SumToOne) ScanAndExecute(ctx context.Context) error {
	markets, err := s.deps.Catalog.FetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("%s: fetch markets: %w", sumToOneName, err)
	}

	candidates := filterBinaryTradable(markets, s.cfg.MinDailyVolumeArb)
	for _, m := range candidates {
		if err := s.evaluateMarket(ctx, m); err != nil {
			log.Printf("%s: %s: %v", sumToOneName, m.ConditionID, err)
		}
	}
	return nil
}

func (s *SumToOne) evaluateMarket(ctx context.Context, m venue.Market) error {
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

	balance, err := s.bal(ctx)
	if err != nil {
		return fmt.Errorf("%w: balance: %v", venue.ErrTransientVenue, err)
	}

	riskMultiplier := s.deps.Risk.PositionMultiplier()
	sizeCashUSD := sizeCash(balance, s.cfg.MaxPositionPct, riskCapCash(s.deps.Risk), riskMultiplier)
	if sizeCashUSD <= 0 || naiveSum <= 0 {
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
		Strategy:   sumToOneName,
		TokenID:    m.YesTokenID,
		Side:       string(venue.Buy),
		Price:      combinedCost,
		Size:       targetShares,
		// a hedged sum-to-one position's true downside is slippage on
		// the fill, not the notional cost of both legs.
		MaxLossUSD: combinedCost * targetShares * s.cfg.SlippageBuffer,
	}
	ok, reason := s.deps.Risk.CheckTrade(req, balance)
	if !ok {
		log.Printf("%s: risk rejected %s: %s", sumToOneName, m.ConditionID, reason)
		return nil
	}

	pair, err := s.deps.Orders.PlaceArbPair(ctx, m.YesTokenID, m.NoTokenID, yesBest, noBest, targetShares)
	if err != nil {
		return fmt.Errorf("place pair: %w", err)
	}
	if pair.YesLeg.Status != "filled" || pair.NoLeg.Status != "filled" {
		return nil
	}

	yesPos := s.deps.Ledger.OpenPosition(m.YesTokenID, m.ConditionID, m.Question, string(venue.Yes), yesBest, targetShares, sumToOneName)
	s.deps.Ledger.OpenPosition(m.NoTokenID, m.ConditionID, m.Question, string(venue.No), noBest, targetShares, sumToOneName)

	newBalance, _ := s.bal(ctx)
	phase := 0
	if s.now != nil {
		phase = s.now()
	}

	s.deps.Ledger.ClosePosition(m.NoTokenID, 0.0, newBalance, phase)
	rec, _ := s.deps.Ledger.ClosePosition(yesPos.TokenID, 1.0, newBalance, phase)

	s.deps.Risk.RecordTradeCompleted(rec.PnLUSD >= 0)
	s.deps.Journal.RecordTrade(rec)
	return nil
}

// riskCapCash exposes the risk manager's max-trade-cash ceiling to
// strategies without widening risk.Manager's public surface beyond a
// single accessor.
func riskCapCash(m *risk.Manager) float64 {
	return m.MaxTradeCashUSD()
}
