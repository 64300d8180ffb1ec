package dashboard

import (
	"time"

	"github.com/calcibot/calci/internal/domain"
)

// JSON views. Cents stay cents; clients do their own formatting.

type snapshotJSON struct {
	Balance       int64     `json:"balance_cents"`
	TotalInvested int64     `json:"total_invested_cents"`
	TotalPnL      int64     `json:"total_pnl_cents"`
	WinCount      int       `json:"win_count"`
	LossCount     int       `json:"loss_count"`
	Timestamp     time.Time `json:"timestamp"`
}

type tradeJSON struct {
	ID            int64     `json:"id"`
	MarketTicker  string    `json:"market_ticker"`
	EventTicker   string    `json:"event_ticker"`
	Side          string    `json:"side"`
	Action        string    `json:"action"`
	Price         int       `json:"price_cents"`
	Quantity      int       `json:"quantity"`
	OrderID       string    `json:"order_id"`
	ClientOrderID string    `json:"client_order_id"`
	Status        string    `json:"status"`
	PnL           int64     `json:"pnl_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

type opportunityJSON struct {
	Ticker       string    `json:"ticker"`
	EventTicker  string    `json:"event_ticker"`
	Title        string    `json:"title"`
	YesPrice     int       `json:"yes_price_cents"`
	NoPrice      int       `json:"no_price_cents"`
	Side         string    `json:"side"`
	EntryPrice   int       `json:"entry_price_cents"`
	CloseTime    time.Time `json:"close_time"`
	Volume       int64     `json:"volume"`
	DaysToExpiry float64   `json:"days_to_expiry"`
	EdgeScore    int       `json:"edge_score"`
}

type scanJSON struct {
	MarketsScanned     int       `json:"markets_scanned"`
	MarketsSkipped     int       `json:"markets_skipped"`
	OpportunitiesFound int       `json:"opportunities_found"`
	TradesPlaced       int       `json:"trades_placed"`
	Timestamp          time.Time `json:"timestamp"`
}

type activityJSON struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type statsJSON struct {
	Total    int     `json:"total"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	TotalPnL int64   `json:"total_pnl_cents"`
	WinRate  float64 `json:"win_rate"`
}

func toTradeJSON(t domain.Trade) tradeJSON {
	return tradeJSON{
		ID:            t.ID,
		MarketTicker:  t.MarketTicker,
		EventTicker:   t.EventTicker,
		Side:          string(t.Side),
		Action:        string(t.Action),
		Price:         t.Price,
		Quantity:      t.Quantity,
		OrderID:       t.OrderID,
		ClientOrderID: t.ClientOrderID,
		Status:        string(t.Status),
		PnL:           t.PnL,
		CreatedAt:     t.CreatedAt,
	}
}

func toOpportunityJSON(o domain.Opportunity) opportunityJSON {
	return opportunityJSON{
		Ticker:       o.Ticker,
		EventTicker:  o.EventTicker,
		Title:        o.Title,
		YesPrice:     o.YesPrice,
		NoPrice:      o.NoPrice,
		Side:         string(o.Side()),
		EntryPrice:   o.EntryPrice(),
		CloseTime:    o.CloseTime,
		Volume:       o.Volume,
		DaysToExpiry: o.DaysToExpiry,
		EdgeScore:    o.EdgeScore,
	}
}

func toScanJSON(r domain.ScanRecord) scanJSON {
	return scanJSON{
		MarketsScanned:     r.MarketsScanned,
		MarketsSkipped:     r.MarketsSkipped,
		OpportunitiesFound: r.OpportunitiesFound,
		TradesPlaced:       r.TradesPlaced,
		Timestamp:          r.Timestamp,
	}
}
