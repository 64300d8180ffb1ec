// Package engine orchestrates the trading cycle: scan, gate, allocate,
// execute, reconcile, snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calcibot/calci/internal/application/scanner"
	"github.com/calcibot/calci/internal/application/strategy"
	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/metrics"
	"github.com/calcibot/calci/internal/ports"
)

const defaultInterval = 5 * time.Minute

// ErrCycleRunning is returned when a cycle is requested while the previous
// one has not finished.
var ErrCycleRunning = errors.New("engine: cycle already running")

// Config holds the tunables of the trading loop.
type Config struct {
	Interval        time.Duration
	ScanPageSize    int
	MaxPositionPct  int
	CashReservePct  int
	MaxDailyLossPct int
}

// CycleResult summarizes one trading cycle for logs and the audit trail.
type CycleResult struct {
	Balance            int64
	MarketsScanned     int
	MarketsSkipped     int
	OpportunitiesFound int
	TradesPlaced       int
	Reconciled         int
	Blocked            bool
	BlockReason        string
}

// Engine drives the bot. One cycle at a time: the guard drops a tick that
// lands while the previous cycle is still in flight rather than queueing it.
type Engine struct {
	gateway   ports.MarketGateway
	store     ports.Storage
	scanner   *scanner.Scanner
	allocator *strategy.Allocator
	gate      *RiskGate
	executor  *Executor
	reconcile *Reconciler
	notifier  ports.Notifier
	rec       *metrics.Recorder
	interval  time.Duration
	now       func() time.Time

	cycleMu sync.Mutex

	oppMu      sync.RWMutex
	latestOpps []domain.Opportunity
}

// New wires a full engine from the gateway and store.
func New(gateway ports.MarketGateway, store ports.Storage, notifier ports.Notifier, rec *metrics.Recorder, cfg Config) *Engine {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Engine{
		gateway:   gateway,
		store:     store,
		scanner:   scanner.New(gateway, scanner.Config{PageSize: cfg.ScanPageSize}),
		allocator: strategy.New(strategy.Config{MaxPositionPct: cfg.MaxPositionPct, CashReservePct: cfg.CashReservePct}),
		gate:      NewRiskGate(store, cfg.MaxDailyLossPct),
		executor:  NewExecutor(gateway, store, rec),
		reconcile: NewReconciler(gateway, store),
		notifier:  notifier,
		rec:       rec,
		interval:  interval,
		now:       time.Now,
	}
}

// Run executes cycles on the configured interval until ctx is cancelled.
// The first cycle starts immediately.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if _, err := e.RunOnce(ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
			slog.Error("engine: cycle failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single trading cycle. A panic anywhere in the pipeline
// is recovered and recorded as a failed zero-trade cycle so the loop
// survives to the next tick.
func (e *Engine) RunOnce(ctx context.Context) (res CycleResult, err error) {
	if !e.cycleMu.TryLock() {
		slog.Warn("engine: previous cycle still running, skipping tick")
		return CycleResult{}, ErrCycleRunning
	}
	defer e.cycleMu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("engine: cycle panicked", "panic", rec)
			e.recordScan(ctx, res)
			e.activity(ctx, domain.ActivityError, fmt.Sprintf("Cycle panicked: %v", rec))
			e.rec.CycleFinished(metrics.OutcomeError)
			res = CycleResult{}
			err = fmt.Errorf("engine.RunOnce: panic: %v", rec)
		}
	}()

	res, err = e.cycle(ctx)
	if err != nil {
		// A failed cycle still leaves its zero-trade mark in the audit trail.
		e.recordScan(ctx, res)
		e.activity(ctx, domain.ActivityError, fmt.Sprintf("Cycle failed: %v", err))
		e.rec.CycleFinished(metrics.OutcomeError)
		return CycleResult{}, err
	}
	if res.Blocked {
		e.rec.CycleFinished(metrics.OutcomeBlocked)
	} else {
		e.rec.CycleFinished(metrics.OutcomeOK)
	}
	return res, nil
}

func (e *Engine) cycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	start := e.now()

	balance, err := e.gateway.GetBalance(ctx)
	if err != nil {
		return res, fmt.Errorf("engine.cycle: get balance: %w", err)
	}
	res.Balance = balance
	e.rec.Balance(balance)

	positions, err := e.gateway.GetPositions(ctx)
	if err != nil {
		return res, fmt.Errorf("engine.cycle: get positions: %w", err)
	}

	scanStart := e.now()
	scanRes, err := e.scanner.Scan(ctx)
	if err != nil {
		return res, fmt.Errorf("engine.cycle: %w", err)
	}
	e.rec.ScanDuration(e.now().Sub(scanStart).Seconds())
	res.MarketsScanned = scanRes.MarketsScanned
	res.MarketsSkipped = scanRes.MarketsSkipped
	res.OpportunitiesFound = len(scanRes.Opportunities)
	e.publishOpportunities(scanRes.Opportunities)
	e.activity(ctx, domain.ActivityInfo, fmt.Sprintf(
		"Scan complete: %d opportunities across %d markets",
		res.OpportunitiesFound, res.MarketsScanned))

	if e.notifier != nil && len(scanRes.Opportunities) > 0 {
		if err := e.notifier.Notify(ctx, scanRes.Opportunities); err != nil {
			slog.Warn("engine: notify failed", "err", err)
		}
	}

	verdict, err := e.gate.Admit(ctx, balance)
	if err != nil {
		return res, fmt.Errorf("engine.cycle: %w", err)
	}
	if verdict.Blocked {
		res.Blocked = true
		res.BlockReason = verdict.Reason
		slog.Warn("engine: trading blocked", "reason", verdict.Reason)
		e.activity(ctx, domain.ActivityWarning, "Trading blocked: "+verdict.Reason)
	} else {
		intents := e.allocator.Select(scanRes.Opportunities, balance, positions)
		res.TradesPlaced = e.executor.Execute(ctx, intents)
	}

	// Reconciliation and bookkeeping run even on a blocked cycle so the
	// dashboard keeps tracking reality while trading is paused.
	reconciled, err := e.reconcile.Reconcile(ctx)
	if err != nil {
		slog.Warn("engine: reconcile failed", "err", err)
	} else {
		res.Reconciled = reconciled
		e.rec.TradesReconciled(reconciled)
		if reconciled > 0 {
			e.activity(ctx, domain.ActivityInfo, fmt.Sprintf("Reconciled %d trades", reconciled))
		}
	}

	if err := e.snapshot(ctx, balance); err != nil {
		slog.Warn("engine: snapshot failed", "err", err)
	}
	e.recordScan(ctx, res)

	slog.Info("engine: cycle done",
		"balance", balance,
		"scanned", res.MarketsScanned,
		"skipped", res.MarketsSkipped,
		"opportunities", res.OpportunitiesFound,
		"placed", res.TradesPlaced,
		"reconciled", res.Reconciled,
		"blocked", res.Blocked,
		"elapsed", e.now().Sub(start).Round(time.Millisecond))
	return res, nil
}

// snapshot writes the per-cycle portfolio record from the venue balance and
// the persisted trade log.
func (e *Engine) snapshot(ctx context.Context, balance int64) error {
	open, err := e.store.OpenTrades(ctx)
	if err != nil {
		return err
	}
	var invested int64
	for _, t := range open {
		invested += t.Cost()
	}
	e.rec.OpenTrades(len(open))

	stats, err := e.store.Stats(ctx)
	if err != nil {
		return err
	}

	return e.store.InsertSnapshot(ctx, domain.PortfolioSnapshot{
		Balance:       balance,
		TotalInvested: invested,
		TotalPnL:      stats.TotalPnL,
		WinCount:      stats.Wins,
		LossCount:     stats.Losses,
		Timestamp:     e.now(),
	})
}

func (e *Engine) recordScan(ctx context.Context, res CycleResult) {
	record := domain.ScanRecord{
		MarketsScanned:     res.MarketsScanned,
		MarketsSkipped:     res.MarketsSkipped,
		OpportunitiesFound: res.OpportunitiesFound,
		TradesPlaced:       res.TradesPlaced,
		Timestamp:          e.now(),
	}
	if err := e.store.InsertScan(ctx, record); err != nil {
		slog.Warn("engine: scan record insert failed", "err", err)
	}
}

// activity appends to the dashboard's event feed. Best-effort: a feed write
// failure never affects the cycle.
func (e *Engine) activity(ctx context.Context, level, message string) {
	if err := e.store.LogActivity(ctx, level, message); err != nil {
		slog.Warn("engine: activity log failed", "err", err)
	}
}

func (e *Engine) publishOpportunities(opps []domain.Opportunity) {
	e.oppMu.Lock()
	e.latestOpps = append([]domain.Opportunity(nil), opps...)
	e.oppMu.Unlock()
}

// LatestOpportunities returns a copy of the opportunities found by the most
// recent scan. Safe for concurrent use by the dashboard.
func (e *Engine) LatestOpportunities() []domain.Opportunity {
	e.oppMu.RLock()
	defer e.oppMu.RUnlock()
	return append([]domain.Opportunity(nil), e.latestOpps...)
}
