// Package bookwalk implements the pure, stateless order-book depth
// walk used to estimate the real fill cost of a target share count.
//
// Grounded on original_source/polymarket-compounder/core/book_analyzer.py
// (walk_book_asks, walk_book_bids, combined_fill_cost, best_ask_price,
// available_liquidity_at_price) — the greedy level-by-level consumption
// algorithm is carried over unchanged.
package bookwalk

import "github.com/GoPolymarket/polymarket-trader/internal/venue"

// FillEstimate is the result of walking a book side for a target share
// count.
type FillEstimate struct {
	AveragePrice   float64
	TotalFilled    float64
	TotalCost      float64
	LevelsConsumed int
	FullyFillable  bool
}

// WalkAsks walks an ascending-price ask side, consuming
// min(remaining, level.Size) at each level until targetSize shares are
// filled or the side is exhausted.
func WalkAsks(asks []venue.PriceLevel, targetSize float64) FillEstimate {
	return walk(asks, targetSize)
}

// WalkBids walks a descending-price bid side the same way.
func WalkBids(bids []venue.PriceLevel, targetSize float64) FillEstimate {
	return walk(bids, targetSize)
}

func walk(levels []venue.PriceLevel, targetSize float64) FillEstimate {
	if targetSize <= 0 {
		return FillEstimate{FullyFillable: true}
	}

	remaining := targetSize
	var totalCost float64
	levelsConsumed := 0

	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		fillQty := remaining
		if lvl.Size < fillQty {
			fillQty = lvl.Size
		}
		if fillQty <= 0 {
			continue
		}
		totalCost += fillQty * lvl.Price
		remaining -= fillQty
		levelsConsumed++
	}

	filled := targetSize - remaining
	var avgPrice float64
	if filled > 0 {
		avgPrice = totalCost / filled
	}

	return FillEstimate{
		AveragePrice:   avgPrice,
		TotalFilled:    filled,
		TotalCost:      totalCost,
		LevelsConsumed: levelsConsumed,
		FullyFillable:  remaining <= 0,
	}
}

// CombinedFillCost returns the summed per-share average price of
// buying size shares of both YES and NO, or (0, false) unless both
// sides are fully fillable at that size.
func CombinedFillCost(yesAsks, noAsks []venue.PriceLevel, size float64) (float64, bool) {
	yes := WalkAsks(yesAsks, size)
	no := WalkAsks(noAsks, size)
	if !yes.FullyFillable || !no.FullyFillable {
		return 0, false
	}
	return yes.AveragePrice + no.AveragePrice, true
}

// BestAskPrice returns the lowest ask price, or (0, false) if asks is
// empty.
func BestAskPrice(asks []venue.PriceLevel) (float64, bool) {
	if len(asks) == 0 {
		return 0, false
	}
	return asks[0].Price, true
}

// BestBidPrice returns the highest bid price, or (0, false) if bids is
// empty.
func BestBidPrice(bids []venue.PriceLevel) (float64, bool) {
	if len(bids) == 0 {
		return 0, false
	}
	return bids[0].Price, true
}

// AvailableLiquidityAtPrice sums the size of every ask level priced at
// or below maxPrice.
func AvailableLiquidityAtPrice(asks []venue.PriceLevel, maxPrice float64) float64 {
	var total float64
	for _, lvl := range asks {
		if lvl.Price <= maxPrice {
			total += lvl.Size
		}
	}
	return total
}
