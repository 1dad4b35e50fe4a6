// Package venue declares the interface contracts for the external
// collaborators the engine depends on but does not implement: the
// order venue, the market catalog, and price oracles. Only their
// shapes are specified here; concrete implementations (on-chain
// signing, HTTP clients against a real venue) live outside this
// module.
package venue

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PriceLevel is one rung of an order book side.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBook is the two-sided depth snapshot for one outcome token.
// Bids descend by price, asks ascend.
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// Side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Outcome identifies which binary leg a token represents.
type Outcome string

const (
	Yes Outcome = "YES"
	No  Outcome = "NO"
)

// Market is one binary market as enumerated by the catalog.
type Market struct {
	ConditionID     string
	Question        string
	Slug            string
	Active          bool
	Closed          bool
	OrderBookEnable bool
	YesTokenID      string
	NoTokenID       string
	Volume24h       float64
	CreatedAt       time.Time
	EndDate         time.Time
	Category        string
}

// IsBinaryTradable reports whether m satisfies the data-model invariant
// for a tradable market: exactly two outcome tokens, active, not
// closed, order book enabled.
func (m Market) IsBinaryTradable() bool {
	return m.YesTokenID != "" && m.NoTokenID != "" && m.Active && !m.Closed && m.OrderBookEnable
}

// Account identifies the venue account the engine trades from.
type Account struct {
	Address common.Address
	ChainID int64
}

// OrderResult is the venue's response to a submitted order.
type OrderResult struct {
	OrderID string
	Status  string
}

// OpenOrder is a minimal view of a resting order, as returned by
// OrderVenue.GetOpenOrders. An order's absence from this list is the
// only fill signal available (see OrderCoordinator, spec §4.4).
type OpenOrder struct {
	ID      string
	TokenID string
}

// OrderVenue is the opaque trading venue: balance, order books, order
// placement/cancellation. Implementations are expected to wrap a real
// signing client and CLOB HTTP/WS surface (out of scope here).
type OrderVenue interface {
	GetBalance(ctx context.Context) (float64, error)
	GetOrderBook(ctx context.Context, tokenID string) (OrderBook, error)
	CreateLimitOrder(ctx context.Context, tokenID string, side Side, price, size float64) (OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) error
	GetOpenOrders(ctx context.Context) ([]OpenOrder, error)
}

// MarketCatalog enumerates active binary markets.
type MarketCatalog interface {
	FetchActiveMarkets(ctx context.Context) ([]Market, error)
}

// PriceOracle provides a confirmed external reference price for an
// asset, agreeing two independent sources within a tolerance (see
// strategy.ResolutionArb and strategy.Directional).
type PriceOracle interface {
	ConfirmedPrice(ctx context.Context, asset string) (float64, error)
	// Klines returns recent one-minute close prices for asset, oldest
	// first, used by the directional engine's volatility model.
	Klines(ctx context.Context, asset string, minutes int) ([]float64, error)
}

// Error taxonomy (spec §7). Callers use errors.Is against these
// sentinels; TransientVenue/CatalogStale wrap the underlying cause.
var (
	ErrTransientVenue    = errors.New("venue: transient error")
	ErrBookInsufficient  = errors.New("venue: insufficient book depth")
	ErrCatalogStale      = errors.New("venue: catalog fetch failed, using stale cache")
	ErrOracleDisagree    = errors.New("venue: oracle sources disagree")
	ErrParseFailure      = errors.New("venue: question text not parseable")
)
