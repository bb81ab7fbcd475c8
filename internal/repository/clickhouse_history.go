package repository

import (
	"context"
	"database/sql"
	"fmt"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
)

var _ domrepo.PriceSink = (*ClickHouseHistory)(nil)

// HistorySchema returns the ClickHouse DDL for the price history table.
func HistorySchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts            DateTime64(3, 'UTC'),
		symbol        LowCardinality(String),
		vendor_symbol String,
		price         Float64
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(ts)
	ORDER BY (symbol, ts)`, table)}
}

// ClickHouseHistory appends every refreshed price to an append-only table.
type ClickHouseHistory struct {
	db    *sql.DB
	table string
}

func NewClickHouseHistory(db *sql.DB, table string) *ClickHouseHistory {
	return &ClickHouseHistory{db: db, table: table}
}

func (h *ClickHouseHistory) Name() string { return "clickhouse" }

// PublishPrices inserts updates as one block.
func (h *ClickHouseHistory) PublishPrices(ctx context.Context, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (ts, symbol, vendor_symbol, price) VALUES (?, ?, ?, ?)", h.table))
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.UpdatedAt.UTC(), u.Symbol, u.VendorSymbol, u.Price); err != nil {
			return fmt.Errorf("append history %s: %w", u.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history batch: %w", err)
	}
	return nil
}

// Close is a no-op; the ClickHouse client owns the pool.
func (h *ClickHouseHistory) Close() error { return nil }
