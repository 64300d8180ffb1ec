package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
)

// Reconciler advances persisted trades against the venue's view: fills move
// open rows to filled, settlements finalize them with realized P&L. It only
// ever moves rows forward; a venue hiccup leaves them untouched for the
// next cycle.
type Reconciler struct {
	gateway ports.MarketGateway
	store   ports.Storage
}

// NewReconciler creates a Reconciler.
func NewReconciler(gateway ports.MarketGateway, store ports.Storage) *Reconciler {
	return &Reconciler{gateway: gateway, store: store}
}

// Reconcile fetches fills and settlements and applies them to every
// non-terminal trade. Fetch failures downgrade to an empty set with a
// warning so one flaky endpoint cannot stall the other. Returns the number
// of rows advanced.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	open, err := r.store.OpenTrades(ctx)
	if err != nil {
		return 0, fmt.Errorf("engine.Reconcile: open trades: %w", err)
	}
	if len(open) == 0 {
		return 0, nil
	}

	fills, err := r.gateway.GetFills(ctx)
	if err != nil {
		slog.Warn("reconciler: fills fetch failed, retrying next cycle", "err", err)
		fills = nil
	}
	settlements, err := r.gateway.GetSettlements(ctx)
	if err != nil {
		slog.Warn("reconciler: settlements fetch failed, retrying next cycle", "err", err)
		settlements = nil
	}

	filledOrders := make(map[string]bool, len(fills))
	for _, f := range fills {
		filledOrders[f.OrderID] = true
	}
	settledMarkets := make(map[string]domain.Settlement, len(settlements))
	for _, s := range settlements {
		settledMarkets[s.Ticker] = s
	}

	advanced := 0
	for _, trade := range open {
		// Settlement wins over a fill for the same trade: it is the later
		// lifecycle event and already implies the fill.
		if s, ok := settledMarkets[trade.MarketTicker]; ok {
			status, pnl := settle(trade, s)
			updated, err := r.store.SettleTrade(ctx, trade.OrderID, status, pnl)
			if err != nil {
				slog.Error("reconciler: settle failed",
					"ticker", trade.MarketTicker, "order_id", trade.OrderID, "err", err)
				continue
			}
			if updated {
				advanced++
				slog.Info("reconciler: trade settled",
					"ticker", trade.MarketTicker, "status", status, "pnl", pnl)
			}
			continue
		}

		if trade.Status == domain.StatusOpen && filledOrders[trade.OrderID] {
			updated, err := r.store.MarkTradeFilled(ctx, trade.OrderID)
			if err != nil {
				slog.Error("reconciler: mark filled failed",
					"ticker", trade.MarketTicker, "order_id", trade.OrderID, "err", err)
				continue
			}
			if updated {
				advanced++
				slog.Info("reconciler: trade filled",
					"ticker", trade.MarketTicker, "order_id", trade.OrderID)
			}
		}
	}
	return advanced, nil
}

// settle computes the terminal status and realized P&L for a trade whose
// market resolved. A winning contract pays out 100c; a losing one pays
// nothing, so the loss is the full cost basis.
func settle(t domain.Trade, s domain.Settlement) (domain.TradeStatus, int64) {
	if s.MarketResult == t.Side {
		return domain.StatusSettledWin, int64(t.Quantity)*100 - t.Cost()
	}
	return domain.StatusSettledLoss, -t.Cost()
}
