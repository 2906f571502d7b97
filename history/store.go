// Package history persists trade and graduation events in SQLite for the
// chart and transaction surfaces that sit outside the engine.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/slothagent/sloth-agent-sub003/launchpad"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	event_id    TEXT PRIMARY KEY,
	asset_id    TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	ts_millis   INTEGER NOT NULL,
	direction   TEXT NOT NULL,
	reserve_amt TEXT NOT NULL,
	token_amt   TEXT NOT NULL,
	fee_amt     TEXT NOT NULL,
	price       TEXT NOT NULL,
	bin_index   INTEGER NOT NULL,
	UNIQUE(asset_id, seq)
);
CREATE INDEX IF NOT EXISTS trades_asset_ts ON trades(asset_id, ts_millis);
CREATE TABLE IF NOT EXISTS launches (
	asset_id     TEXT PRIMARY KEY,
	ts_millis    INTEGER NOT NULL,
	reserve_amt  TEXT NOT NULL,
	supply_amt   TEXT NOT NULL
);`

// Store is a SQLite-backed launchpad.EventSink.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the history store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Trade records one trade event. The (asset_id, seq) uniqueness constraint
// rejects duplicates, so a retried emission cannot double-record.
func (s *Store) Trade(ctx context.Context, ev launchpad.TradeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO trades (event_id, asset_id, seq, ts_millis, direction, reserve_amt, token_amt, fee_amt, price, bin_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id, seq) DO NOTHING`,
		ev.EventID.String(),
		ev.AssetID.String(),
		ev.Sequence,
		ev.Timestamp.UTC().UnixMilli(),
		ev.Direction.String(),
		ev.ReserveAmount.String(),
		ev.TokenAmount.String(),
		ev.FeeAmount.String(),
		ev.ResultingPrice.String(),
		ev.ResultingBinIndex,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Launch records the graduation event.
func (s *Store) Launch(ctx context.Context, ev launchpad.LaunchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO launches (asset_id, ts_millis, reserve_amt, supply_amt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(asset_id) DO NOTHING`,
		ev.AssetID.String(),
		ev.Timestamp.UTC().UnixMilli(),
		ev.FinalReserveMigrated.String(),
		ev.FinalSupplyMigrated.String(),
	)
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// TradeRow is one persisted trade.
type TradeRow struct {
	EventID   uuid.UUID
	AssetID   uuid.UUID
	Sequence  uint64
	Timestamp time.Time
	Direction string
	Reserve   *big.Int
	Tokens    *big.Int
	Fee       *big.Int
	Price     *big.Int
	BinIndex  uint32
}

// TradesByAsset returns an asset's trades in application order, newest
// last, up to limit rows.
func (s *Store) TradesByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]TradeRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT event_id, asset_id, seq, ts_millis, direction, reserve_amt, token_amt, fee_amt, price, bin_index
		FROM trades WHERE asset_id = ? ORDER BY seq ASC LIMIT ?`,
		assetID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var (
			r                                  TradeRow
			eventID, asset                     string
			tsMillis                           int64
			reserve, tokens, fee, price        string
		)
		if err := rows.Scan(&eventID, &asset, &r.Sequence, &tsMillis, &r.Direction, &reserve, &tokens, &fee, &price, &r.BinIndex); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if r.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		if r.AssetID, err = uuid.Parse(asset); err != nil {
			return nil, fmt.Errorf("parse asset id: %w", err)
		}
		r.Timestamp = time.UnixMilli(tsMillis).UTC()
		r.Reserve = mustBig(reserve)
		r.Tokens = mustBig(tokens)
		r.Fee = mustBig(fee)
		r.Price = mustBig(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestPrice returns the most recent resulting price for an asset, or nil
// when no trades exist.
func (s *Store) LatestPrice(ctx context.Context, assetID uuid.UUID) (*big.Int, error) {
	var price string
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT price FROM trades WHERE asset_id = ? ORDER BY seq DESC LIMIT 1`,
		assetID.String(),
	).Scan(&price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query price: %w", err)
	}
	return mustBig(price), nil
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
