package strategy

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/GoPolymarket/polymarket-trader/internal/bookwalk"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

const resolutionArbName = "resolution_arb"

// resolutionArbWorstCaseLossPct estimates max loss as a fraction of
// notional cost rather than the full notional, mirroring
// resolution_arb.py's "Worst case: 5% loss" sizing.
const resolutionArbWorstCaseLossPct = 0.05

// ResolutionArbConfig holds the resolution-arbitrage tunables (spec §6).
type ResolutionArbConfig struct {
	MinResolutionEdge       float64
	PriceBufferPct          float64
	MaxResolutionPositionPct float64
	AssetKeywords           []string
	Asset                   string
}

// ResolutionArb buys the side of an external-asset threshold market
// that is already decided by the current reference price, once the
// ask offers enough edge over a confirmed outcome.
//
// Grounded on
// original_source/polymarket-compounder/strategies/resolution_arb.py.
type ResolutionArb struct {
	deps   Deps
	cfg    ResolutionArbConfig
	oracle venue.PriceOracle
	phase  func() int
}

// NewResolutionArb constructs the strategy.
func NewResolutionArb(deps Deps, cfg ResolutionArbConfig, oracle venue.PriceOracle, phaseFn func() int) *ResolutionArb {
	return &ResolutionArb{deps: deps, cfg: cfg, oracle: oracle, phase: phaseFn}
}

func (r *ResolutionArb) Name() string { return resolutionArbName }
func (r *ResolutionArb) Close() error { return nil }

func (r *ResolutionArb) ScanAndExecute(ctx context.Context) error {
	markets, err := r.deps.Catalog.FetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("%s: fetch markets: %w", resolutionArbName, err)
	}

	binary := filterBinaryTradable(markets, 0)
	candidates := filterExternalPriceMarkets(binary, r.cfg.AssetKeywords)

	for _, m := range candidates {
		if err := r.evaluateMarket(ctx, m); err != nil {
			log.Printf("%s: %s: %v", resolutionArbName, m.ConditionID, err)
		}
	}
	return nil
}

func (r *ResolutionArb) evaluateMarket(ctx context.Context, m venue.Market) error {
	strike, isAbove, ok := parseThresholdQuestion(m.Question)
	if !ok {
		return fmt.Errorf("%w: %q", venue.ErrParseFailure, m.Question)
	}

	price, err := r.oracle.ConfirmedPrice(ctx, r.cfg.Asset)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrOracleDisagree, err)
	}

	buffer := math.Abs(price-strike) / strike
	if buffer < r.cfg.PriceBufferPct {
		return nil
	}

	winningAbove := price > strike
	winningIsYes := winningAbove == isAbove

	tokenID := m.NoTokenID
	if winningIsYes {
		tokenID = m.YesTokenID
	}

	book, err := r.deps.Venue.GetOrderBook(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
	}
	bestAsk, ok := bookwalk.BestAskPrice(book.Asks)
	if !ok {
		return nil
	}

	edge := 1.0 - bestAsk
	if edge < r.cfg.MinResolutionEdge || bestAsk > 0.97 {
		return nil
	}

	balance, err := r.deps.Venue.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
	}

	riskMultiplier := r.deps.Risk.PositionMultiplier()
	sizeCashUSD := sizeCash(balance, r.cfg.MaxResolutionPositionPct, r.deps.Risk.MaxTradeCashUSD(), riskMultiplier)
	if sizeCashUSD <= 0 {
		return nil
	}
	shares := sizeCashUSD / bestAsk

	fillEstimate := bookwalk.WalkAsks(book.Asks, shares)
	if !fillEstimate.FullyFillable {
		shares = fillEstimate.TotalFilled
		if shares <= 0 {
			return fmt.Errorf("%w: no depth", venue.ErrBookInsufficient)
		}
	}

	req := risk.TradeRequest{
		Strategy:   resolutionArbName,
		TokenID:    tokenID,
		Side:       string(venue.Buy),
		Price:      bestAsk,
		Size:       shares,
		MaxLossUSD: bestAsk * shares * resolutionArbWorstCaseLossPct,
	}
	allowed, reason := r.deps.Risk.CheckTrade(req, balance)
	if !allowed {
		log.Printf("%s: risk rejected %s: %s", resolutionArbName, m.ConditionID, reason)
		return nil
	}

	ticket, err := r.deps.Orders.PlaceLimit(ctx, tokenID, venue.Buy, bestAsk, shares)
	if err != nil {
		return fmt.Errorf("place limit: %w", err)
	}
	if ticket.Status != "filled" && ticket.Status != "submitted" {
		return nil
	}

	side := string(venue.No)
	if winningIsYes {
		side = string(venue.Yes)
	}
	r.deps.Ledger.OpenPosition(tokenID, m.ConditionID, m.Question, side, bestAsk, shares, resolutionArbName)
	return nil
}
