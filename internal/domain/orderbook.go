package domain

// PriceLevel is one resting bid level: price in cents, count in contracts.
type PriceLevel struct {
	Price int
	Count int
}

// Orderbook holds the resting bids for both sides of a binary market.
// Kalshi publishes bids only; the ask on one side is implied by the bid on
// the other (ask_yes = 100 - best_no_bid).
type Orderbook struct {
	YesBids []PriceLevel
	NoBids  []PriceLevel
}

// BestYesBid returns the highest resting YES bid. ok is false when the side
// has no bids at all — the market cannot be priced from this book.
func (b Orderbook) BestYesBid() (price int, ok bool) {
	return bestBid(b.YesBids)
}

// BestNoBid returns the highest resting NO bid.
func (b Orderbook) BestNoBid() (price int, ok bool) {
	return bestBid(b.NoBids)
}

func bestBid(levels []PriceLevel) (int, bool) {
	best := 0
	for _, l := range levels {
		if l.Price > best {
			best = l.Price
		}
	}
	return best, best > 0
}
