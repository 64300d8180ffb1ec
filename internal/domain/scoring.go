package domain

// scoring.go — edge scoring for the favorite-longshot bias.
//
// Sub-10c YES contracts historically lose more than 60% of the time against
// an implied win probability of <=10%, so the strategy fades them (buys NO).
// 85c+ favorites are backed directly (buys YES). The score is a pure function
// of the opportunity's fields: same inputs, same score, always.

const (
	// YesLowThreshold is the longshot ceiling in cents.
	YesLowThreshold = 10
	// YesHighThreshold is the favorite floor in cents.
	YesHighThreshold = 85
	// HistoricalLossRate is the empirical loss percentage of sub-10c
	// longshots used as the base for the NO branch.
	HistoricalLossRate = 60
	// MaxEdgeScore caps the combined score.
	MaxEdgeScore = 100
	// MaxExpiryDays is the outer expiry window of the strategy.
	MaxExpiryDays = 7
)

// EdgeScore returns the 0–100 edge estimate for a contract.
// Prices outside the mispricing bands or invalid score 0.
func EdgeScore(yesPrice int, volume int64, daysToExpiry float64) int {
	if !ValidPrice(yesPrice) || daysToExpiry < 0 || daysToExpiry > MaxExpiryDays {
		return 0
	}

	var score int
	switch {
	case yesPrice <= YesLowThreshold:
		score = HistoricalLossRate - yesPrice + extremityBonus(yesPrice)
	case yesPrice >= YesHighThreshold:
		score = yesPrice - YesHighThreshold
	default:
		return 0
	}

	score += volumeBonus(volume) + proximityBonus(daysToExpiry)

	if score < 0 {
		return 0
	}
	if score > MaxEdgeScore {
		return MaxEdgeScore
	}
	return score
}

// volumeBonus rewards liquidity. Monotonic and saturating at +15.
func volumeBonus(volume int64) int {
	switch {
	case volume >= 10_000:
		return 15
	case volume >= 5_000:
		return 12
	case volume >= 1_000:
		return 8
	case volume >= 500:
		return 5
	case volume >= 100:
		return 2
	default:
		return 0
	}
}

// proximityBonus rewards near expiries. Monotonic in closeness, saturating
// at +10 for same-day contracts.
func proximityBonus(days float64) int {
	switch {
	case days <= 1:
		return 10
	case days <= 2:
		return 8
	case days <= 3:
		return 6
	case days <= 5:
		return 3
	case days <= MaxExpiryDays:
		return 1
	default:
		return 0
	}
}

// extremityBonus rewards deeper longshots: the further below 10c, the
// stronger the historical loss rate. +9 at 1c, +0 at 10c.
func extremityBonus(yesPrice int) int {
	if yesPrice > YesLowThreshold {
		return 0
	}
	return YesLowThreshold - yesPrice
}
