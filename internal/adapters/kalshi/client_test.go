package kalshi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	path, _ := writeTestKey(t)
	signer, err := NewSigner("test-key", path)
	require.NoError(t, err)

	c, err := NewClient(srv.URL+"/trade-api/v2", signer, 100, 100)
	require.NoError(t, err)
	return c, srv
}

func TestGetMarkets_Pagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade-api/v2/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.NotEmpty(t, r.Header.Get("KALSHI-ACCESS-SIGNATURE"))

		if r.URL.Query().Get("cursor") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"cursor": "next-page",
				"markets": []map[string]any{
					{"ticker": "A-1", "event_ticker": "A", "close_time": "2026-09-02T12:00:00Z", "volume": 500},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"cursor": "",
			"markets": []map[string]any{
				{"ticker": "B-1", "event_ticker": "B", "close_time": "2026-09-03T12:00:00Z", "volume": 900},
			},
		})
	}))

	page, err := c.GetMarkets(context.Background(), "", 1000)
	require.NoError(t, err)
	assert.Equal(t, "next-page", page.Cursor)
	require.Len(t, page.Markets, 1)
	assert.Equal(t, "A-1", page.Markets[0].Ticker)

	page, err = c.GetMarkets(context.Background(), page.Cursor, 1000)
	require.NoError(t, err)
	assert.Empty(t, page.Cursor, "empty cursor ends pagination")
	assert.Equal(t, "B-1", page.Markets[0].Ticker)
}

func TestGetOrderbook_MapsLevels(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade-api/v2/markets/KXTEST-1/orderbook", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"orderbook": map[string]any{
				"yes": [][2]int{{3, 100}, {5, 20}},
				"no":  [][2]int{{95, 40}},
			},
		})
	}))

	book, err := c.GetOrderbook(context.Background(), "KXTEST-1")
	require.NoError(t, err)

	yes, ok := book.BestYesBid()
	require.True(t, ok)
	assert.Equal(t, 5, yes)

	no, ok := book.BestNoBid()
	require.True(t, ok)
	assert.Equal(t, 95, no)
}

func TestCreateOrder_SidePriceField(t *testing.T) {
	var got createOrderRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"order_id": "ord-1", "client_order_id": got.ClientOrderID, "status": "resting"},
		})
	}))

	placed, err := c.CreateOrder(context.Background(), ports.OrderRequest{
		Ticker:        "KXTEST-1",
		Side:          domain.SideNo,
		Action:        domain.ActionBuy,
		Price:         95,
		Quantity:      10,
		ClientOrderID: "coid-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "ord-1", placed.OrderID)
	assert.Equal(t, "limit", got.Type)
	assert.Equal(t, 95, got.NoPrice)
	assert.Zero(t, got.YesPrice, "yes_price omitted for NO orders")
	assert.Equal(t, "coid-123", got.ClientOrderID)
}

func TestDo_ClientErrorIsTyped(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "insufficient_balance", "message": "not enough funds"},
		})
	}))

	_, err := c.GetBalance(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "insufficient_balance", apiErr.Code)
	assert.True(t, ports.IsRejection(err))
}

func TestDo_RetriesServerErrors(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"balance": 100_000})
	}))

	balance, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), balance)
	assert.Equal(t, 3, attempts)
}

func TestDo_RateLimitedSentinel(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.GetBalance(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.False(t, ports.IsRejection(err))
}

func TestGetPositions_SkipsFlat(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"market_positions": []map[string]any{
				{"ticker": "KXA-1", "position": 10},
				{"ticker": "KXB-1", "position": 0},
			},
		})
	}))

	positions, err := c.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "KXA-1", positions[0].Ticker)
}

func TestGetSettlements_Mapping(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"settlements": []map[string]any{
				{"ticker": "KXA-1", "market_result": "no", "revenue": 1000, "settled_time": "2026-08-30T10:00:00Z"},
			},
		})
	}))

	settlements, err := c.GetSettlements(context.Background())
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, domain.SideNo, settlements[0].MarketResult)
	assert.Equal(t, int64(1000), settlements[0].Revenue)
}
