package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
)

// gateway.go — ports.MarketGateway implementation over the REST client.

// GetBalance returns the account balance in cents.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	var resp balanceResponse
	if err := c.get(ctx, "/portfolio/balance", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// GetMarkets returns one page of open markets.
func (c *Client) GetMarkets(ctx context.Context, cursor string, limit int) (ports.MarketsPage, error) {
	q := url.Values{}
	q.Set("status", "open")
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var resp marketsResponse
	if err := c.get(ctx, "/markets", q, &resp); err != nil {
		return ports.MarketsPage{}, err
	}

	page := ports.MarketsPage{Cursor: resp.Cursor}
	for _, m := range resp.Markets {
		page.Markets = append(page.Markets, domain.Market{
			Ticker:      m.Ticker,
			EventTicker: m.EventTicker,
			Title:       m.Title,
			CloseTime:   m.CloseTime,
			Volume:      m.Volume,
		})
	}
	return page, nil
}

// GetOrderbook returns the resting bids for ticker.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (domain.Orderbook, error) {
	var resp orderbookResponse
	endpoint := fmt.Sprintf("/markets/%s/orderbook", ticker)
	if err := c.get(ctx, endpoint, nil, &resp); err != nil {
		return domain.Orderbook{}, err
	}
	return domain.Orderbook{
		YesBids: toLevels(resp.Orderbook.Yes),
		NoBids:  toLevels(resp.Orderbook.No),
	}, nil
}

// GetPositions returns open positions with non-zero quantity.
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	var resp positionsResponse
	if err := c.get(ctx, "/portfolio/positions", nil, &resp); err != nil {
		return nil, err
	}

	var positions []domain.Position
	for _, p := range resp.MarketPositions {
		if p.Position == 0 {
			continue
		}
		positions = append(positions, domain.Position{
			Ticker:   p.Ticker,
			Quantity: p.Position,
		})
	}
	return positions, nil
}

// CreateOrder submits a limit order. The price lands on yes_price or
// no_price depending on the side, per the venue's order schema.
func (c *Client) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	wire := createOrderRequest{
		Ticker:        req.Ticker,
		Action:        string(req.Action),
		Side:          string(req.Side),
		Count:         req.Quantity,
		Type:          "limit",
		ClientOrderID: req.ClientOrderID,
	}
	switch req.Side {
	case domain.SideYes:
		wire.YesPrice = req.Price
	case domain.SideNo:
		wire.NoPrice = req.Price
	}

	var resp createOrderResponse
	if err := c.post(ctx, "/portfolio/orders", wire, &resp); err != nil {
		return ports.PlacedOrder{}, err
	}
	return ports.PlacedOrder{
		OrderID:       resp.Order.OrderID,
		ClientOrderID: resp.Order.ClientOrderID,
		Status:        resp.Order.Status,
	}, nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.del(ctx, fmt.Sprintf("/portfolio/orders/%s", orderID), nil)
}

// GetFills returns confirmed executions for the account.
func (c *Client) GetFills(ctx context.Context) ([]domain.Fill, error) {
	var resp fillsResponse
	if err := c.get(ctx, "/portfolio/fills", nil, &resp); err != nil {
		return nil, err
	}

	fills := make([]domain.Fill, 0, len(resp.Fills))
	for _, f := range resp.Fills {
		price := f.YesPrice
		if domain.Side(f.Side) == domain.SideNo {
			price = f.NoPrice
		}
		fills = append(fills, domain.Fill{
			OrderID:  f.OrderID,
			Ticker:   f.Ticker,
			Side:     domain.Side(f.Side),
			Count:    f.Count,
			Price:    price,
			FilledAt: f.CreatedTime,
		})
	}
	return fills, nil
}

// GetSettlements returns settled-market records for the account.
func (c *Client) GetSettlements(ctx context.Context) ([]domain.Settlement, error) {
	var resp settlementsResponse
	if err := c.get(ctx, "/portfolio/settlements", nil, &resp); err != nil {
		return nil, err
	}

	settlements := make([]domain.Settlement, 0, len(resp.Settlements))
	for _, s := range resp.Settlements {
		settlements = append(settlements, domain.Settlement{
			Ticker:       s.Ticker,
			MarketResult: domain.Side(s.MarketResult),
			Revenue:      s.Revenue,
			SettledAt:    s.SettledTime,
		})
	}
	return settlements, nil
}

func toLevels(pairs [][2]int) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		levels = append(levels, domain.PriceLevel{Price: p[0], Count: p[1]})
	}
	return levels
}

var _ ports.MarketGateway = (*Client)(nil)
