package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcibot/calci/internal/adapters/storage"
	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/metrics"
	"github.com/calcibot/calci/internal/ports"
)

type fakeOpps struct {
	opps []domain.Opportunity
}

func (f *fakeOpps) LatestOpportunities() []domain.Opportunity { return f.opps }

func newTestServer(t *testing.T) (*Server, *storage.Store, *fakeOpps, *prometheus.Registry) {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opps := &fakeOpps{}
	reg := prometheus.NewRegistry()
	return New(store, opps, reg, "127.0.0.1:0"), store, opps, reg
}

func do(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshot_EmptyThenPopulated(t *testing.T) {
	s, store, _, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, store.InsertSnapshot(context.Background(), domain.PortfolioSnapshot{
		Balance:   100_000,
		TotalPnL:  -500,
		Timestamp: time.Now().UTC(),
	}))

	rec = do(s, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got snapshotJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(100_000), got.Balance)
	assert.Equal(t, int64(-500), got.TotalPnL)
}

func TestTrades_PaginationAndClamp(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	ctx := context.Background()

	for _, suffix := range []string{"1", "2", "3"} {
		_, err := store.InsertTrade(ctx, domain.Trade{
			MarketTicker: "KXA-" + suffix, EventTicker: "EVT",
			Side: domain.SideNo, Action: domain.ActionBuy,
			Price: 95, Quantity: 10,
			OrderID: "ord-" + suffix, ClientOrderID: "coid-" + suffix,
		})
		require.NoError(t, err)
	}

	rec := do(s, http.MethodGet, "/api/trades?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []tradeJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades, 2)

	rec = do(s, http.MethodGet, "/api/trades?limit=2&offset=2", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades, 1)

	// Garbage limits fall back to the default instead of erroring.
	rec = do(s, http.MethodGet, "/api/trades?limit=-5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, http.MethodGet, "/api/trades?limit=junk", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpportunities_ReflectsLatestScan(t *testing.T) {
	s, _, opps, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/opportunities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	opps.opps = []domain.Opportunity{{
		Ticker: "KXRAIN-26", EventTicker: "EVT", YesPrice: 5, NoPrice: 95,
		Volume: 1000, DaysToExpiry: 2, EdgeScore: 80,
	}}

	rec = do(s, http.MethodGet, "/api/opportunities", "")
	var got []opportunityJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "no", got[0].Side)
	assert.Equal(t, 95, got[0].EntryPrice)
}

func TestPause_TogglesSetting(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	ctx := context.Background()

	rec := do(s, http.MethodPost, "/api/pause", `{"paused":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	v, err := store.GetSetting(ctx, ports.PauseKey, "false")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	rec = do(s, http.MethodPost, "/api/pause", `{"paused":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	v, err = store.GetSetting(ctx, ports.PauseKey, "true")
	require.NoError(t, err)
	assert.Equal(t, "false", v)
}

func TestPause_RejectsBadBody(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := do(s, http.MethodPost, "/api/pause", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivity_FeedNewestFirst(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.LogActivity(ctx, domain.ActivityInfo, "Scan complete: 2 opportunities across 1200 markets"))
	require.NoError(t, store.LogActivity(ctx, domain.ActivitySuccess, "Placed NO 210x KXRAIN-26 @95c"))

	rec := do(s, http.MethodGet, "/api/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []activityJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "success", got[0].Level)
	assert.Contains(t, got[0].Message, "KXRAIN-26")

	rec = do(s, http.MethodGet, "/api/activity?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestStats(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	ctx := context.Background()

	_, err := store.InsertTrade(ctx, domain.Trade{
		MarketTicker: "KXA-1", EventTicker: "EVT",
		Side: domain.SideNo, Action: domain.ActionBuy,
		Price: 95, Quantity: 10,
		OrderID: "ord-1", ClientOrderID: "coid-1",
	})
	require.NoError(t, err)
	_, err = store.SettleTrade(ctx, "ord-1", domain.StatusSettledWin, 50)
	require.NoError(t, err)

	rec := do(s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got statsJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, 1, got.Wins)
	assert.InDelta(t, 1.0, got.WinRate, 0.001)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _, reg := newTestServer(t)

	r := metrics.New(reg)
	r.OrderPlaced()

	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "calci_orders_placed_total")
}
