package strategy

import (
	"strings"

	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// filterBinaryTradable keeps only markets satisfying the data-model
// invariant (spec §3) with at least minVolume in 24h traded volume.
//
// Grounded on
// original_source/polymarket-compounder/core/market_scanner.py
// (MarketScanner.filter_binary_tradable).
func filterBinaryTradable(markets []venue.Market, minVolume float64) []venue.Market {
	var out []venue.Market
	for _, m := range markets {
		if m.IsBinaryTradable() && m.Volume24h >= minVolume {
			out = append(out, m)
		}
	}
	return out
}

// filterExternalPriceMarkets identifies threshold markets on an
// external asset by keyword heuristics, grounded on
// market_scanner.py's filter_btc_price_markets (generalized from
// "btc"/"bitcoin" to any asset keyword list supplied by the caller).
func filterExternalPriceMarkets(markets []venue.Market, assetKeywords []string) []venue.Market {
	priceKeywords := []string{"above", "below", "price", "over", "under"}
	var out []venue.Market
	for _, m := range markets {
		q := strings.ToLower(m.Question)
		if containsAny(q, assetKeywords) && containsAny(q, priceKeywords) {
			out = append(out, m)
		}
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
