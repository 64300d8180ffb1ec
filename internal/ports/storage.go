package ports

import (
	"context"

	"github.com/calcibot/calci/internal/domain"
)

// Storage persists trades, snapshots, scan records and settings.
// The cycle task is the sole writer of trading rows; the dashboard only
// reads (and may toggle settings).
type Storage interface {
	// InsertTrade appends a new trade row and returns its ID.
	// The trade's ClientOrderID must be unique.
	InsertTrade(ctx context.Context, t domain.Trade) (int64, error)

	// MarkTradeFilled moves an open trade to filled, matched by venue order
	// ID. Rows in a terminal status are left untouched.
	MarkTradeFilled(ctx context.Context, orderID string) (bool, error)

	// SettleTrade finalizes a trade with a terminal status and its realized
	// P&L, matched by venue order ID. Rows already terminal are left
	// untouched; returns whether a row was updated.
	SettleTrade(ctx context.Context, orderID string, status domain.TradeStatus, pnl int64) (bool, error)

	// OpenTrades returns trades in a non-terminal status, newest first.
	OpenTrades(ctx context.Context) ([]domain.Trade, error)

	// Trades returns the paginated trade log, newest first.
	Trades(ctx context.Context, limit, offset int) ([]domain.Trade, error)

	// TodayPnL returns the sum of realized P&L for trades settled today
	// (UTC), in cents.
	TodayPnL(ctx context.Context) (int64, error)

	// Stats returns aggregate totals over all trades.
	Stats(ctx context.Context) (domain.TradeStats, error)

	// InsertSnapshot appends a portfolio snapshot.
	InsertSnapshot(ctx context.Context, s domain.PortfolioSnapshot) error

	// LatestSnapshot returns the most recent snapshot, or ok=false if none
	// has been written yet.
	LatestSnapshot(ctx context.Context) (domain.PortfolioSnapshot, bool, error)

	// Snapshots returns recent snapshots, newest first.
	Snapshots(ctx context.Context, limit int) ([]domain.PortfolioSnapshot, error)

	// InsertScan appends one cycle's audit record.
	InsertScan(ctx context.Context, r domain.ScanRecord) error

	// RecentScans returns recent scan records, newest first.
	RecentScans(ctx context.Context, limit int) ([]domain.ScanRecord, error)

	// LogActivity appends a human-readable event to the activity feed.
	LogActivity(ctx context.Context, level, message string) error

	// RecentActivity returns recent activity entries, newest first.
	RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)

	// GetSetting returns the value for key, or def when unset.
	GetSetting(ctx context.Context, key, def string) (string, error)

	// SetSetting upserts a key-value setting.
	SetSetting(ctx context.Context, key, value string) error

	// Close closes the underlying database.
	Close() error
}

// PauseKey is the settings key for the trading pause flag ("true"/"false").
// Written by the risk gate on a daily-loss breach and by the dashboard's
// control action; read at the start of every cycle.
const PauseKey = "paused"
