package strategy

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reCommaThousands = regexp.MustCompile(`\$([0-9]{1,3}(?:,[0-9]{3})+)`)
	reKSuffix        = regexp.MustCompile(`\$([0-9]+(?:\.[0-9]+)?)\s*k\b`)
	rePlainAmount    = regexp.MustCompile(`\$([0-9]+(?:,?[0-9]{3})*(?:\.[0-9]+)?)`)
)

// parseThresholdQuestion extracts a strike price and direction from a
// threshold-market question such as "Will BTC be above $65,000 at
// 3pm ET?". Returns (strike, isAbove, ok); ok is false if the question
// cannot be parsed (venue.ErrParseFailure territory — the caller skips
// the market).
//
// Grounded on
// original_source/polymarket-compounder/strategies/resolution_arb.py
// (_parse_btc_question), generalized beyond BTC-specific wording.
func parseThresholdQuestion(question string) (strike float64, isAbove bool, ok bool) {
	q := strings.ToLower(question)

	above := strings.Contains(q, "above") || strings.Contains(q, "over")
	below := strings.Contains(q, "below") || strings.Contains(q, "under")
	if !above && !below {
		return 0, false, false
	}

	if m := reCommaThousands.FindStringSubmatchIndex(q); m != nil {
		raw := strings.ReplaceAll(q[m[2]:m[3]], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return v, above, true
		}
	}
	if m := reKSuffix.FindStringSubmatchIndex(q); m != nil {
		raw := q[m[2]:m[3]]
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return v * 1000, above, true
		}
	}
	if m := rePlainAmount.FindStringSubmatchIndex(q); m != nil {
		raw := strings.ReplaceAll(q[m[2]:m[3]], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			end := m[3]
			suffix := ""
			if end+2 <= len(q) {
				suffix = q[end : end+2]
			} else {
				suffix = q[end:]
			}
			if strings.Contains(suffix, "k") {
				v *= 1000
			} else if v < 1000 && strings.Contains(q, "k") {
				v *= 1000
			}
			return v, above, true
		}
	}

	return 0, false, false
}
