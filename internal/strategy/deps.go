package strategy

import (
	"github.com/GoPolymarket/polymarket-trader/internal/execution"
	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// JournalRecorder is the narrow slice of the journal writer every
// strategy needs: append one closed trade record.
type JournalRecorder interface {
	RecordTrade(ledger.TradeRecord)
}

// Deps bundles the collaborators every strategy shares (spec §4.5):
// MarketCatalog, OrderVenue, OrderCoordinator, PositionLedger,
// RiskManager, and the journal.
type Deps struct {
	Catalog venue.MarketCatalog
	Venue   venue.OrderVenue
	Orders  *execution.Coordinator
	Ledger  *ledger.Ledger
	Risk    *risk.Manager
	Journal JournalRecorder
}

// sizeCash computes the common risk-scaled trade size:
// min(balance*pct, maxTradeCash) * riskMultiplier.
func sizeCash(balance, pct, maxTradeCash float64, riskMultiplier float64) float64 {
	base := balance * pct
	if base > maxTradeCash {
		base = maxTradeCash
	}
	return base * riskMultiplier
}
