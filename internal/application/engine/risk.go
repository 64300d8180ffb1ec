package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calcibot/calci/internal/ports"
)

const defaultMaxDailyLossPct = 15

// Verdict is the risk gate's decision for a cycle.
type Verdict struct {
	Blocked bool
	Reason  string
}

// RiskGate decides, before any order goes out, whether the cycle may trade.
// A daily-loss breach flips the persisted pause flag so the block survives
// restarts until an operator clears it.
type RiskGate struct {
	store           ports.Storage
	maxDailyLossPct int64
}

// NewRiskGate creates a gate enforcing the daily loss limit as a percentage
// of the current balance.
func NewRiskGate(store ports.Storage, maxDailyLossPct int) *RiskGate {
	pct := int64(maxDailyLossPct)
	if pct <= 0 || pct > 100 {
		pct = defaultMaxDailyLossPct
	}
	return &RiskGate{store: store, maxDailyLossPct: pct}
}

// Admit checks the pause flag and today's realized P&L against the loss
// limit. Returns a blocking verdict with the reason when trading must stop.
func (g *RiskGate) Admit(ctx context.Context, balance int64) (Verdict, error) {
	paused, err := g.store.GetSetting(ctx, ports.PauseKey, "false")
	if err != nil {
		return Verdict{}, fmt.Errorf("engine.Admit: read pause flag: %w", err)
	}
	if paused == "true" {
		return Verdict{Blocked: true, Reason: "manually paused"}, nil
	}

	dailyPnL, err := g.store.TodayPnL(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("engine.Admit: today pnl: %w", err)
	}
	limit := balance * g.maxDailyLossPct / 100
	if dailyPnL <= -limit && limit > 0 {
		slog.Warn("risk: daily loss limit breached, pausing trading",
			"daily_pnl", dailyPnL, "limit", -limit)
		if err := g.store.SetSetting(ctx, ports.PauseKey, "true"); err != nil {
			return Verdict{}, fmt.Errorf("engine.Admit: set pause flag: %w", err)
		}
		return Verdict{Blocked: true, Reason: "daily loss limit breached"}, nil
	}

	return Verdict{}, nil
}
