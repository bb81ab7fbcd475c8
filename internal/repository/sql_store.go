package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/database"
)

var _ domrepo.AssetStore = (*SQLStore)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		symbol          TEXT PRIMARY KEY,
		name            TEXT NOT NULL DEFAULT '',
		asset_class     TEXT NOT NULL,
		base_currency   TEXT NOT NULL DEFAULT '',
		quote_currency  TEXT NOT NULL DEFAULT '',
		price_precision INTEGER NOT NULL DEFAULT 2,
		lot_size        DOUBLE PRECISION NOT NULL DEFAULT 1,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS asset_prices (
		symbol     TEXT PRIMARY KEY,
		price      DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

const assetColumns = `symbol, name, asset_class, base_currency, quote_currency, price_precision, lot_size, is_active`

// SQLStore keeps assets and their latest prices in Postgres or SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps db opened with driver (database.DriverPostgres or database.DriverSQLite).
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) q(query string) string {
	return database.Rebind(s.driver, query)
}

// Init creates the tables if they do not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) ListActive(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+assetColumns+` FROM assets WHERE is_active = ? ORDER BY symbol`), true)
	if err != nil {
		return nil, fmt.Errorf("list active assets: %w", err)
	}
	defer rows.Close()

	out := make([]models.Asset, 0, 64)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active assets: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, symbol string) (*models.Asset, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+assetColumns+` FROM assets WHERE symbol = ?`), symbol)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", symbol, err)
	}
	return &a, nil
}

// UpsertAssets inserts or replaces asset reference rows.
func (s *SQLStore) UpsertAssets(ctx context.Context, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	const stmt = `INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			asset_class = excluded.asset_class,
			base_currency = excluded.base_currency,
			quote_currency = excluded.quote_currency,
			price_precision = excluded.price_precision,
			lot_size = excluded.lot_size,
			is_active = excluded.is_active`

	return s.inTx(ctx, stmt, func(st *sql.Stmt) error {
		for _, a := range assets {
			if _, err := st.ExecContext(ctx, a.Symbol, a.Name, string(a.Class), a.BaseCurrency,
				a.QuoteCurrency, a.Precision, a.LotSize, a.IsActive); err != nil {
				return fmt.Errorf("upsert asset %s: %w", a.Symbol, err)
			}
		}
		return nil
	})
}

// UpsertPrices writes the latest price per symbol.
func (s *SQLStore) UpsertPrices(ctx context.Context, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	const stmt = `INSERT INTO asset_prices (symbol, price, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			price = excluded.price,
			updated_at = excluded.updated_at`

	return s.inTx(ctx, stmt, func(st *sql.Stmt) error {
		for _, u := range updates {
			if _, err := st.ExecContext(ctx, u.Symbol, u.Price, u.UpdatedAt.UTC()); err != nil {
				return fmt.Errorf("upsert price %s: %w", u.Symbol, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) inTx(ctx context.Context, stmt string, fn func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	st, err := tx.PrepareContext(ctx, s.q(stmt))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer st.Close()

	if err := fn(st); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(r rowScanner) (models.Asset, error) {
	var a models.Asset
	var class string
	err := r.Scan(&a.Symbol, &a.Name, &class, &a.BaseCurrency, &a.QuoteCurrency, &a.Precision, &a.LotSize, &a.IsActive)
	a.Class = models.AssetClass(class)
	return a, err
}
