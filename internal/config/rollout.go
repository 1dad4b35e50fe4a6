package config

// DeterminePhase is the pure phase-selection function (P10): an
// explicit override of 1, 2, or 3 wins; otherwise the phase is a
// strictly monotonic step function of balance against the configured
// thresholds.
func (c Config) DeterminePhase(balance float64) int {
	switch c.ActivePhaseOverride {
	case 1, 2, 3:
		return c.ActivePhaseOverride
	}
	switch {
	case balance >= c.Phase3Threshold:
		return 3
	case balance >= c.Phase2Threshold:
		return 2
	default:
		return 1
	}
}
