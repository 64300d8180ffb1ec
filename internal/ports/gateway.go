package ports

import (
	"context"
	"errors"

	"github.com/calcibot/calci/internal/domain"
)

// MarketsPage is one cursor page of the markets listing.
// An empty cursor signals the end of the listing.
type MarketsPage struct {
	Markets []domain.Market
	Cursor  string
}

// OrderRequest is a limit order submission.
type OrderRequest struct {
	Ticker        string
	Side          domain.Side
	Action        domain.Action
	Price         int // cents
	Quantity      int
	ClientOrderID string // idempotency key; resubmitting reuses it
}

// PlacedOrder is the venue's acknowledgement of a submitted order.
type PlacedOrder struct {
	OrderID       string
	ClientOrderID string
	Status        string
}

// MarketGateway is everything the trading core needs from the venue.
// Authentication and transport live behind this boundary; every call returns
// parsed domain data or a typed failure.
type MarketGateway interface {
	// GetBalance returns the account balance in cents.
	GetBalance(ctx context.Context) (int64, error)

	// GetMarkets returns one page of open markets. Pass the returned cursor
	// to fetch the next page; an empty cursor means the listing is exhausted.
	GetMarkets(ctx context.Context, cursor string, limit int) (MarketsPage, error)

	// GetOrderbook returns the resting bids for one market.
	GetOrderbook(ctx context.Context, ticker string) (domain.Orderbook, error)

	// GetPositions returns the account's open positions.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// CreateOrder submits a limit order.
	CreateOrder(ctx context.Context, req OrderRequest) (PlacedOrder, error)

	// CancelOrder cancels a resting order by its venue order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// GetFills returns recent confirmed executions.
	GetFills(ctx context.Context) ([]domain.Fill, error)

	// GetSettlements returns settled-market records for the account.
	GetSettlements(ctx context.Context) ([]domain.Settlement, error)
}

// Rejection is implemented by gateway errors meaning the venue understood
// the request and refused it: bad order, closed market, insufficient
// balance. Rejections are final within a cycle; transport failures and rate
// limits are not rejections.
type Rejection interface {
	Rejection() bool
}

// IsRejection reports whether err carries a venue-side rejection.
func IsRejection(err error) bool {
	var r Rejection
	return errors.As(err, &r) && r.Rejection()
}
