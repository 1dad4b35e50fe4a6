package strategy

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/bookwalk"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

const directionalName = "directional_engine"

// DirectionalConfig holds the directional-engine tunables (spec §6).
type DirectionalConfig struct {
	MinEdgeDirectional            float64
	MaxDirectionalPositionPct     float64
	MaxConcurrentDirectional      int
	MaxTotalDirectionalPct        float64
	DirectionalAutoDisableWinrate float64
	DirectionalMinSample          int
	Asset                         string
	AssetKeywords                 []string
}

// volCacheTTL matches the reference implementation's 5-minute
// volatility window cache.
const volCacheTTL = 5 * time.Minute

// Directional buys mispriced time-bounded threshold markets against a
// log-normal (GBM) volatility model, sizing with half-Kelly, and
// permanently disables itself if its live win rate falls below a
// floor after enough resolved trades.
//
// Grounded on
// original_source/polymarket-compounder/strategies/directional_engine.py.
type Directional struct {
	deps   Deps
	cfg    DirectionalConfig
	oracle venue.PriceOracle
	phase  func() int

	mu          sync.Mutex
	disabled    bool
	volAt       time.Time
	hourlyVol   float64
}

// NewDirectional constructs the strategy.
func NewDirectional(deps Deps, cfg DirectionalConfig, oracle venue.PriceOracle, phaseFn func() int) *Directional {
	return &Directional{deps: deps, cfg: cfg, oracle: oracle, phase: phaseFn}
}

func (d *Directional) Name() string { return directionalName }
func (d *Directional) Close() error { return nil }

func (d *Directional) ScanAndExecute(ctx context.Context) error {
	d.checkAutoDisable()

	d.mu.Lock()
	disabled := d.disabled
	d.mu.Unlock()
	if disabled {
		return nil
	}

	if d.deps.Ledger.StrategyPositionCount(directionalName) >= d.cfg.MaxConcurrentDirectional {
		return nil
	}

	markets, err := d.deps.Catalog.FetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("%s: fetch markets: %w", directionalName, err)
	}

	binary := filterBinaryTradable(markets, 0)
	candidates := filterExternalPriceMarkets(binary, d.cfg.AssetKeywords)

	now := time.Now()
	for _, m := range candidates {
		if m.EndDate.Before(now) || m.EndDate.Sub(now) > 24*time.Hour {
			continue
		}
		if err := d.evaluateMarket(ctx, m); err != nil {
			log.Printf("%s: %s: %v", directionalName, m.ConditionID, err)
		}
	}
	return nil
}

// hourlyVolatility returns the cached hourly-scaled volatility,
// recomputing from 1440 one-minute klines when the cache has expired.
func (d *Directional) hourlyVolatility(ctx context.Context) (float64, error) {
	d.mu.Lock()
	if time.Since(d.volAt) < volCacheTTL && d.hourlyVol > 0 {
		v := d.hourlyVol
		d.mu.Unlock()
		return v, nil
	}
	d.mu.Unlock()

	closes, err := d.oracle.Klines(ctx, d.cfg.Asset, 1440)
	if err != nil || len(closes) < 2 {
		return 0, fmt.Errorf("%w: klines: %v", venue.ErrTransientVenue, err)
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: insufficient kline history", venue.ErrTransientVenue)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		dev := r - mean
		sumSq += dev * dev
	}
	stdev1m := math.Sqrt(sumSq / float64(len(returns)-1))
	hourly := stdev1m * math.Sqrt(60)

	d.mu.Lock()
	d.hourlyVol = hourly
	d.volAt = time.Now()
	d.mu.Unlock()

	return hourly, nil
}

func (d *Directional) evaluateMarket(ctx context.Context, m venue.Market) error {
	strike, isAbove, ok := parseThresholdQuestion(m.Question)
	if !ok {
		return fmt.Errorf("%w: %q", venue.ErrParseFailure, m.Question)
	}

	price, err := d.oracle.ConfirmedPrice(ctx, d.cfg.Asset)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrOracleDisagree, err)
	}
	if price <= 0 || strike <= 0 {
		return nil
	}

	hoursToResolve := time.Until(m.EndDate).Hours()
	if hoursToResolve <= 0 {
		return nil
	}

	hourlyVol, err := d.hourlyVolatility(ctx)
	if err != nil || hourlyVol <= 0 {
		return err
	}

	scaledVol := hourlyVol * math.Sqrt(hoursToResolve)
	z := math.Log(strike/price) / scaledVol
	modelProbAbove := 1 - normalCDF(z)

	modelProbYes := modelProbAbove
	if !isAbove {
		modelProbYes = 1 - modelProbAbove
	}

	yesBook, err := d.deps.Venue.GetOrderBook(ctx, m.YesTokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
	}
	yesAsk, ok := bookwalk.BestAskPrice(yesBook.Asks)
	if !ok {
		return nil
	}

	edge := modelProbYes - yesAsk

	var tokenID string
	var askPrice float64
	var side venue.Outcome
	if math.Abs(edge) < d.cfg.MinEdgeDirectional {
		return nil
	}
	if edge > 0 {
		tokenID, askPrice, side = m.YesTokenID, yesAsk, venue.Yes
	} else {
		noBook, err := d.deps.Venue.GetOrderBook(ctx, m.NoTokenID)
		if err != nil {
			return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
		}
		noAsk, ok := bookwalk.BestAskPrice(noBook.Asks)
		if !ok {
			return nil
		}
		tokenID, askPrice, side = m.NoTokenID, noAsk, venue.No
		edge = -edge
	}

	odds := 1/askPrice - 1
	if odds <= 0 {
		return nil
	}
	kellyFraction := edge / odds
	sizePct := 0.5 * kellyFraction
	if sizePct > d.cfg.MaxDirectionalPositionPct {
		sizePct = d.cfg.MaxDirectionalPositionPct
	}
	if sizePct <= 0 {
		return nil
	}

	balance, err := d.deps.Venue.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", venue.ErrTransientVenue, err)
	}

	riskMultiplier := d.deps.Risk.PositionMultiplier()
	sizeCashUSD := sizeCash(balance, sizePct, d.deps.Risk.MaxTradeCashUSD(), riskMultiplier)
	if sizeCashUSD <= 0 {
		return nil
	}

	if (d.deps.Ledger.StrategyExposure(directionalName)+sizeCashUSD)/balance >= d.cfg.MaxTotalDirectionalPct {
		return nil
	}
	shares := sizeCashUSD / askPrice

	req := risk.TradeRequest{
		Strategy:   directionalName,
		TokenID:    tokenID,
		Side:       string(venue.Buy),
		Price:      askPrice,
		Size:       shares,
		MaxLossUSD: askPrice * shares,
	}
	allowed, reason := d.deps.Risk.CheckTrade(req, balance)
	if !allowed {
		log.Printf("%s: risk rejected %s: %s", directionalName, m.ConditionID, reason)
		return nil
	}

	ticket, err := d.deps.Orders.PlaceLimit(ctx, tokenID, venue.Buy, askPrice, shares)
	if err != nil {
		return fmt.Errorf("place limit: %w", err)
	}
	if ticket.Status != "filled" && ticket.Status != "submitted" {
		return nil
	}

	d.deps.Ledger.OpenPosition(tokenID, m.ConditionID, m.Question, string(side), askPrice, shares, directionalName)
	return nil
}

// checkAutoDisable permanently disables the strategy once enough
// trades have resolved and the live win rate falls below the floor.
// Grounded on directional_engine.py's _check_auto_disable.
func (d *Directional) checkAutoDisable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled {
		return
	}

	trades := d.deps.Ledger.StrategyTradeHistory(directionalName)
	if len(trades) < d.cfg.DirectionalMinSample {
		return
	}
	winRate, ok := d.deps.Ledger.StrategyWinRate(directionalName)
	if ok && winRate < d.cfg.DirectionalAutoDisableWinrate {
		d.disabled = true
		log.Printf("%s: auto-disabled after %d trades at win rate %.2f%%", directionalName, len(trades), winRate*100)
	}
}
