package domain

import "time"

// Market is a point-in-time snapshot of a binary Kalshi market.
// Prices are in cents (1–99). A market fetched from the list endpoint has no
// prices yet; they are derived from the orderbook by the scanner.
type Market struct {
	Ticker      string
	EventTicker string
	Title       string
	YesPrice    int // cents, 100 - best NO bid
	NoPrice     int // cents, 100 - best YES bid
	CloseTime   time.Time
	Volume      int64 // contracts traded
}

// DaysToExpiry returns the fractional days until the market closes.
// Negative means the market is already past its close time.
func (m Market) DaysToExpiry(now time.Time) float64 {
	return m.CloseTime.Sub(now).Hours() / 24
}

// ValidPrice reports whether p is a tradeable contract price.
// 0 and 100 are settlement values, not prices — they are rejected, not clamped.
func ValidPrice(p int) bool {
	return p >= 1 && p <= 99
}

// Position is an open position held at the venue for one market.
type Position struct {
	Ticker   string
	Quantity int
}
