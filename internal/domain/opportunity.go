package domain

import "time"

// Opportunity is a market that passed the mispricing + expiry filter in one
// scan cycle. It lives for exactly one cycle and is never persisted.
type Opportunity struct {
	Ticker       string
	EventTicker  string
	Title        string
	YesPrice     int // cents
	NoPrice      int // cents
	CloseTime    time.Time
	Volume       int64
	DaysToExpiry float64
	EdgeScore    int // 0–100, see EdgeScore()
}

// Side returns the side the strategy bets: NO against sub-10c longshots,
// YES with 85c+ favorites.
func (o Opportunity) Side() Side {
	if o.YesPrice <= YesLowThreshold {
		return SideNo
	}
	return SideYes
}

// EntryPrice returns the limit price in cents for the bet side.
// Fading a longshot means buying NO at 100 - yes_price.
func (o Opportunity) EntryPrice() int {
	if o.Side() == SideNo {
		return 100 - o.YesPrice
	}
	return o.YesPrice
}
