package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/metrics"
	"github.com/calcibot/calci/internal/ports"
)

// Executor submits sized intents to the venue and records the accepted ones.
// A trade row is written only after the venue acknowledges the order, so the
// log never contains orders the venue did not see.
type Executor struct {
	gateway ports.MarketGateway
	store   ports.Storage
	rec     *metrics.Recorder
	now     func() time.Time
}

// NewExecutor creates an Executor.
func NewExecutor(gateway ports.MarketGateway, store ports.Storage, rec *metrics.Recorder) *Executor {
	return &Executor{gateway: gateway, store: store, rec: rec, now: time.Now}
}

// Execute submits each intent in order and returns how many were placed and
// persisted. Each intent gets a fresh client order ID, so a retried cycle
// can never double-submit the same row. A failed submission is logged and
// the remaining intents still go out.
func (e *Executor) Execute(ctx context.Context, intents []domain.TradeIntent) int {
	placed := 0
	for _, intent := range intents {
		clientOrderID := uuid.NewString()

		order, err := e.gateway.CreateOrder(ctx, ports.OrderRequest{
			Ticker:        intent.Ticker,
			Side:          intent.Side,
			Action:        intent.Action,
			Price:         intent.Price,
			Quantity:      intent.Quantity,
			ClientOrderID: clientOrderID,
		})
		if err != nil {
			e.rec.OrderFailed()
			if ports.IsRejection(err) {
				slog.Warn("executor: order rejected by venue",
					"ticker", intent.Ticker, "side", intent.Side, "err", err)
			} else {
				slog.Error("executor: order submission failed",
					"ticker", intent.Ticker, "side", intent.Side, "err", err)
			}
			continue
		}

		trade := domain.Trade{
			MarketTicker:  intent.Ticker,
			EventTicker:   intent.EventTicker,
			Side:          intent.Side,
			Action:        intent.Action,
			Price:         intent.Price,
			Quantity:      intent.Quantity,
			OrderID:       order.OrderID,
			ClientOrderID: clientOrderID,
			Status:        domain.StatusOpen,
			CreatedAt:     e.now(),
		}
		if _, err := e.store.InsertTrade(ctx, trade); err != nil {
			// The order is live but unrecorded. Loud log so an operator can
			// reconcile by client order ID.
			slog.Error("executor: order placed but not persisted",
				"ticker", intent.Ticker, "order_id", order.OrderID,
				"client_order_id", clientOrderID, "err", err)
			continue
		}

		e.rec.OrderPlaced()
		placed++
		slog.Info("executor: order placed",
			"ticker", intent.Ticker, "side", intent.Side,
			"price", intent.Price, "quantity", intent.Quantity,
			"cost", intent.Cost(), "order_id", order.OrderID)
		if err := e.store.LogActivity(ctx, domain.ActivitySuccess, fmt.Sprintf(
			"Placed %s %dx %s @%dc",
			strings.ToUpper(string(intent.Side)), intent.Quantity,
			intent.Ticker, intent.Price)); err != nil {
			slog.Warn("executor: activity log failed", "err", err)
		}
	}
	return placed
}
