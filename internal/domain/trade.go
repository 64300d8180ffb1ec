package domain

import "time"

// Side is the contract side of an order or position.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Action is the order direction. The strategy only ever buys; sells happen
// implicitly at settlement.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradeStatus is the lifecycle state of a persisted trade.
type TradeStatus string

const (
	StatusOpen        TradeStatus = "open"
	StatusFilled      TradeStatus = "filled"
	StatusSettledWin  TradeStatus = "settled_win"
	StatusSettledLoss TradeStatus = "settled_loss"
	StatusCancelled   TradeStatus = "cancelled"
)

// Terminal reports whether the status can never change again.
// The reconciler only updates non-terminal rows.
func (s TradeStatus) Terminal() bool {
	switch s {
	case StatusSettledWin, StatusSettledLoss, StatusCancelled:
		return true
	}
	return false
}

// TradeIntent is a sized order proposal produced by the allocator.
// It is consumed exactly once by the executor and then discarded.
type TradeIntent struct {
	Ticker      string
	EventTicker string
	Side        Side
	Action      Action
	Price       int // cents
	Quantity    int
}

// Cost returns the capital the intent commits, in cents.
func (i TradeIntent) Cost() int64 {
	return int64(i.Price) * int64(i.Quantity)
}

// Trade is a persisted order record.
type Trade struct {
	ID            int64
	MarketTicker  string
	EventTicker   string
	Side          Side
	Action        Action
	Price         int // cents
	Quantity      int
	OrderID       string
	ClientOrderID string // unique idempotency key
	Status        TradeStatus
	PnL           int64 // cents, set at settlement
	CreatedAt     time.Time
}

// Cost returns the cost basis of the trade in cents.
func (t Trade) Cost() int64 {
	return int64(t.Price) * int64(t.Quantity)
}

// PortfolioSnapshot is an append-only point-in-time portfolio record,
// written once per cycle.
type PortfolioSnapshot struct {
	Balance       int64 // cents
	TotalInvested int64 // cents committed to open trades
	TotalPnL      int64 // cents
	WinCount      int
	LossCount     int
	Timestamp     time.Time
}

// ScanRecord is the append-only audit trail of one cycle.
type ScanRecord struct {
	MarketsScanned     int
	MarketsSkipped     int
	OpportunitiesFound int
	TradesPlaced       int
	Timestamp          time.Time
}

// Fill is a confirmed execution reported by the venue.
type Fill struct {
	OrderID       string
	ClientOrderID string
	Ticker        string
	Side          Side
	Count         int
	Price         int
	FilledAt      time.Time
}

// Settlement is the final resolution of a market.
type Settlement struct {
	Ticker       string
	MarketResult Side  // the side that paid out
	Revenue      int64 // cents credited to the account
	SettledAt    time.Time
}

// TradeStats are aggregates over all persisted trades.
type TradeStats struct {
	Total    int
	Wins     int
	Losses   int
	TotalPnL int64
}

// WinRate returns wins / (wins + losses), or 0 before any settlement.
func (s TradeStats) WinRate() float64 {
	settled := s.Wins + s.Losses
	if settled == 0 {
		return 0
	}
	return float64(s.Wins) / float64(settled)
}
