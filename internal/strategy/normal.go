package strategy

import "math"

// normalCDF approximates the standard normal CDF via the error
// function, accurate to ~1e-7.
//
// Grounded on
// original_source/polymarket-compounder/strategies/directional_engine.py
// (_normal_cdf).
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
