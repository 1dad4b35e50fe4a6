package strategy

import (
	"testing"

	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

func tradableMarket(volume float64) venue.Market {
	return venue.Market{
		ConditionID:     "c1",
		YesTokenID:      "yes1",
		NoTokenID:       "no1",
		Active:          true,
		Closed:          false,
		OrderBookEnable: true,
		Volume24h:       volume,
	}
}

func TestFilterBinaryTradableRespectsMinVolume(t *testing.T) {
	markets := []venue.Market{tradableMarket(1000), tradableMarket(10)}
	out := filterBinaryTradable(markets, 500)
	if len(out) != 1 {
		t.Fatalf("got %d markets, want 1", len(out))
	}
}

func TestFilterBinaryTradableExcludesIncompleteMarkets(t *testing.T) {
	m := tradableMarket(1000)
	m.NoTokenID = ""
	out := filterBinaryTradable([]venue.Market{m}, 0)
	if len(out) != 0 {
		t.Fatalf("got %d markets, want 0 for missing NO token", len(out))
	}
}

func TestFilterExternalPriceMarkets(t *testing.T) {
	m1 := tradableMarket(1000)
	m1.Question = "Will BTC be above $65,000 by Friday?"
	m2 := tradableMarket(1000)
	m2.Question = "Will the Lakers win the championship?"

	out := filterExternalPriceMarkets([]venue.Market{m1, m2}, []string{"btc", "bitcoin"})
	if len(out) != 1 {
		t.Fatalf("got %d markets, want 1", len(out))
	}
	if out[0].Question != m1.Question {
		t.Errorf("unexpected market selected: %q", out[0].Question)
	}
}
