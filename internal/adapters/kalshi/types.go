package kalshi

import "time"

// types.go — wire payloads of the Kalshi REST API.
// Loosely-typed venue JSON stops here; everything crossing into the core is
// mapped to domain types in gateway.go.

type marketsResponse struct {
	Cursor  string       `json:"cursor"`
	Markets []wireMarket `json:"markets"`
}

type wireMarket struct {
	Ticker      string    `json:"ticker"`
	EventTicker string    `json:"event_ticker"`
	Title       string    `json:"title"`
	CloseTime   time.Time `json:"close_time"`
	Volume      int64     `json:"volume"`
	Status      string    `json:"status"`
}

type orderbookResponse struct {
	Orderbook wireOrderbook `json:"orderbook"`
}

// Orderbook sides come as [price_cents, contract_count] pairs.
type wireOrderbook struct {
	Yes [][2]int `json:"yes"`
	No  [][2]int `json:"no"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type positionsResponse struct {
	MarketPositions []wirePosition `json:"market_positions"`
}

type wirePosition struct {
	Ticker   string `json:"ticker"`
	Position int    `json:"position"`
}

type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
	ClientOrderID string `json:"client_order_id"`
}

type createOrderResponse struct {
	Order wireOrder `json:"order"`
}

type wireOrder struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

type fillsResponse struct {
	Fills []wireFill `json:"fills"`
}

type wireFill struct {
	OrderID     string    `json:"order_id"`
	Ticker      string    `json:"ticker"`
	Side        string    `json:"side"`
	Count       int       `json:"count"`
	YesPrice    int       `json:"yes_price"`
	NoPrice     int       `json:"no_price"`
	CreatedTime time.Time `json:"created_time"`
}

type settlementsResponse struct {
	Settlements []wireSettlement `json:"settlements"`
}

type wireSettlement struct {
	Ticker       string    `json:"ticker"`
	MarketResult string    `json:"market_result"`
	Revenue      int64     `json:"revenue"`
	SettledTime  time.Time `json:"settled_time"`
}
