package storage

// sqlite.go — durable state shared between the trading cycle and the
// dashboard.
//
// The cycle task is the only writer of trading rows. SQLite runs with a
// single connection (SetMaxOpenConns(1)) so every statement commits before
// the next one starts: dashboard reads always see a committed view, never a
// half-written cycle. Timestamps are stored as RFC3339 UTC text.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    market_ticker   TEXT    NOT NULL,
    event_ticker    TEXT    NOT NULL DEFAULT '',
    side            TEXT    NOT NULL,
    action          TEXT    NOT NULL DEFAULT 'buy',
    price           INTEGER NOT NULL,
    quantity        INTEGER NOT NULL,
    order_id        TEXT    NOT NULL DEFAULT '',
    client_order_id TEXT    NOT NULL UNIQUE,
    status          TEXT    NOT NULL DEFAULT 'open',
    pnl             INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT    NOT NULL,
    settled_at      TEXT
);

CREATE TABLE IF NOT EXISTS portfolio_snapshots (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    balance        INTEGER NOT NULL,
    total_invested INTEGER NOT NULL DEFAULT 0,
    total_pnl      INTEGER NOT NULL DEFAULT 0,
    win_count      INTEGER NOT NULL DEFAULT 0,
    loss_count     INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS market_scans (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    markets_scanned     INTEGER NOT NULL DEFAULT 0,
    markets_skipped     INTEGER NOT NULL DEFAULT 0,
    opportunities_found INTEGER NOT NULL DEFAULT 0,
    trades_placed       INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    level      TEXT    NOT NULL DEFAULT 'info',
    message    TEXT    NOT NULL,
    created_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_status  ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_order   ON trades(order_id);
CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_snapshots_at   ON portfolio_snapshots(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scans_at       ON market_scans(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_at    ON activity_log(created_at DESC);
`

// Store implements ports.Storage over SQLite (pure Go, no CGo).
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.New: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.New: apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- trades ---

// InsertTrade appends a trade row. A duplicate client_order_id violates the
// UNIQUE constraint and surfaces as an error — the idempotency backstop.
func (s *Store) InsertTrade(ctx context.Context, t domain.Trade) (int64, error) {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(market_ticker, event_ticker, side, action, price, quantity,
			 order_id, client_order_id, status, pnl, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.MarketTicker, t.EventTicker, string(t.Side), string(t.Action),
		t.Price, t.Quantity, t.OrderID, t.ClientOrderID,
		string(domain.StatusOpen), 0, fmtTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.InsertTrade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.InsertTrade: last id: %w", err)
	}
	return id, nil
}

// MarkTradeFilled transitions open → filled for the trade with orderID.
func (s *Store) MarkTradeFilled(ctx context.Context, orderID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET status = ? WHERE order_id = ? AND status = ?`,
		string(domain.StatusFilled), orderID, string(domain.StatusOpen),
	)
	if err != nil {
		return false, fmt.Errorf("storage.MarkTradeFilled: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SettleTrade finalizes a non-terminal trade. Re-settling an already-settled
// trade matches zero rows, which keeps reconciliation idempotent.
func (s *Store) SettleTrade(ctx context.Context, orderID string, status domain.TradeStatus, pnl int64) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("storage.SettleTrade: %q is not a terminal status", status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades SET status = ?, pnl = ?, settled_at = ?
		WHERE order_id = ? AND status IN (?, ?)`,
		string(status), pnl, fmtTime(s.now()),
		orderID, string(domain.StatusOpen), string(domain.StatusFilled),
	)
	if err != nil {
		return false, fmt.Errorf("storage.SettleTrade: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// OpenTrades returns trades still awaiting settlement, newest first.
func (s *Store) OpenTrades(ctx context.Context) ([]domain.Trade, error) {
	return s.queryTrades(ctx, `
		SELECT id, market_ticker, event_ticker, side, action, price, quantity,
		       order_id, client_order_id, status, pnl, created_at
		FROM trades WHERE status IN (?, ?) ORDER BY created_at DESC`,
		string(domain.StatusOpen), string(domain.StatusFilled))
}

// Trades returns the paginated trade log, newest first.
func (s *Store) Trades(ctx context.Context, limit, offset int) ([]domain.Trade, error) {
	return s.queryTrades(ctx, `
		SELECT id, market_ticker, event_ticker, side, action, price, quantity,
		       order_id, client_order_id, status, pnl, created_at
		FROM trades ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
}

func (s *Store) queryTrades(ctx context.Context, query string, args ...any) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var side, action, status, createdAt string
		if err := rows.Scan(
			&t.ID, &t.MarketTicker, &t.EventTicker, &side, &action,
			&t.Price, &t.Quantity, &t.OrderID, &t.ClientOrderID,
			&status, &t.PnL, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan trade: %w", err)
		}
		t.Side = domain.Side(side)
		t.Action = domain.Action(action)
		t.Status = domain.TradeStatus(status)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// TodayPnL sums realized P&L of trades settled since midnight UTC.
func (s *Store) TodayPnL(ctx context.Context) (int64, error) {
	midnight := s.now().UTC().Truncate(24 * time.Hour)
	var pnl int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(pnl), 0) FROM trades WHERE settled_at >= ?`,
		fmtTime(midnight),
	).Scan(&pnl)
	if err != nil {
		return 0, fmt.Errorf("storage.TodayPnL: %w", err)
	}
	return pnl, nil
}

// Stats returns aggregate trade totals.
func (s *Store) Stats(ctx context.Context) (domain.TradeStats, error) {
	var st domain.TradeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(pnl), 0)
		FROM trades`,
		string(domain.StatusSettledWin), string(domain.StatusSettledLoss),
	).Scan(&st.Total, &st.Wins, &st.Losses, &st.TotalPnL)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("storage.Stats: %w", err)
	}
	return st, nil
}

// --- portfolio snapshots ---

// InsertSnapshot appends a snapshot row. Snapshots are never mutated.
func (s *Store) InsertSnapshot(ctx context.Context, snap domain.PortfolioSnapshot) error {
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portfolio_snapshots
			(balance, total_invested, total_pnl, win_count, loss_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Balance, snap.TotalInvested, snap.TotalPnL,
		snap.WinCount, snap.LossCount, fmtTime(ts),
	)
	if err != nil {
		return fmt.Errorf("storage.InsertSnapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot if any exists.
func (s *Store) LatestSnapshot(ctx context.Context) (domain.PortfolioSnapshot, bool, error) {
	snaps, err := s.Snapshots(ctx, 1)
	if err != nil {
		return domain.PortfolioSnapshot{}, false, err
	}
	if len(snaps) == 0 {
		return domain.PortfolioSnapshot{}, false, nil
	}
	return snaps[0], true, nil
}

// Snapshots returns recent snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context, limit int) ([]domain.PortfolioSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT balance, total_invested, total_pnl, win_count, loss_count, created_at
		FROM portfolio_snapshots ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.PortfolioSnapshot
	for rows.Next() {
		var snap domain.PortfolioSnapshot
		var createdAt string
		if err := rows.Scan(&snap.Balance, &snap.TotalInvested, &snap.TotalPnL,
			&snap.WinCount, &snap.LossCount, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.Snapshots: scan: %w", err)
		}
		snap.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// --- market scans ---

// InsertScan appends one cycle's audit record.
func (s *Store) InsertScan(ctx context.Context, r domain.ScanRecord) error {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_scans
			(markets_scanned, markets_skipped, opportunities_found, trades_placed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.MarketsScanned, r.MarketsSkipped, r.OpportunitiesFound, r.TradesPlaced, fmtTime(ts),
	)
	if err != nil {
		return fmt.Errorf("storage.InsertScan: %w", err)
	}
	return nil
}

// RecentScans returns recent scan records, newest first.
func (s *Store) RecentScans(ctx context.Context, limit int) ([]domain.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT markets_scanned, markets_skipped, opportunities_found, trades_placed, created_at
		FROM market_scans ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentScans: %w", err)
	}
	defer rows.Close()

	var scans []domain.ScanRecord
	for rows.Next() {
		var r domain.ScanRecord
		var createdAt string
		if err := rows.Scan(&r.MarketsScanned, &r.MarketsSkipped,
			&r.OpportunitiesFound, &r.TradesPlaced, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.RecentScans: scan: %w", err)
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		scans = append(scans, r)
	}
	return scans, rows.Err()
}

// --- activity log ---

// LogActivity appends a human-readable event to the activity feed.
func (s *Store) LogActivity(ctx context.Context, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (level, message, created_at) VALUES (?, ?, ?)`,
		level, message, fmtTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("storage.LogActivity: %w", err)
	}
	return nil
}

// RecentActivity returns recent activity entries, newest first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT level, message, created_at
		FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentActivity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		var createdAt string
		if err := rows.Scan(&e.Level, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.RecentActivity: scan: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- settings ---

// GetSetting returns the value for key, or def when unset.
func (s *Store) GetSetting(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("storage.GetSetting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a key-value setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storage.SetSetting: %w", err)
	}
	return nil
}

// fmtTime formats with fixed millisecond precision so that lexicographic
// ordering of the stored text matches chronological ordering.
func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

var _ ports.Storage = (*Store)(nil)
