package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	capitol "github.com/sumiran35/capitol-shill"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS trades (
	position          INTEGER NOT NULL PRIMARY KEY,
	senator           TEXT    NOT NULL,
	ticker            TEXT    NOT NULL,
	asset_description TEXT    NOT NULL DEFAULT '',
	transaction_date  DATE    NOT NULL,
	disclosure_date   DATE,
	type              TEXT    NOT NULL,
	amount_est        NUMERIC NOT NULL DEFAULT 0,
	asset_type        TEXT    NOT NULL DEFAULT 'Stock',
	sector            TEXT
);
CREATE INDEX IF NOT EXISTS idx_trades_transaction_date ON trades (transaction_date);`

// pgBatch is the number of inserts sent in one round trip.
const pgBatch = 500

// Postgres stores the snapshot in a postgres table trades.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// OpenPostgres connects to dsn and creates the table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &Postgres{pool: pool, timeout: 5 * time.Minute}, nil
}

// Load reads the snapshot.
func (s *Postgres) Load() ([]capitol.Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT senator, ticker, asset_description,
		to_char(transaction_date, 'YYYY-MM-DD'), to_char(disclosure_date, 'YYYY-MM-DD'),
		type, amount_est::text, asset_type, sector FROM trades ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	defer rows.Close()

	var trades []capitol.Trade
	for i := 0; rows.Next(); i++ {
		var (
			t                 capitol.Trade
			traded, amount    string
			disclosed, sector *string
		)
		if err := rows.Scan(&t.Senator, &t.Ticker, &t.AssetDescription, &traded, &disclosed,
			&t.Type, &amount, &t.AssetType, &sector); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if t.TransactionDate, err = parseDate(traded); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if disclosed != nil {
			if t.DisclosureDate, err = parseDate(*disclosed); err != nil {
				return nil, fmt.Errorf("load error: %w", err)
			}
		}
		if t.AmountEst, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if sector != nil {
			t.Sector = *sector
		}
		if keep(t, fmt.Sprintf("trades#%d", i)) {
			trades = append(trades, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	return trades, nil
}

// Save replaces the snapshot with trades in a single transaction, inserts being batched.
func (s *Postgres) Save(trades []capitol.Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM trades`); err != nil {
			return err
		}
		for i := 0; i < len(trades); i += pgBatch {
			j := min(i+pgBatch, len(trades))
			b := &pgx.Batch{}
			for k, t := range trades[i:j] {
				b.Queue(`INSERT INTO trades (position, senator, ticker, asset_description,
					transaction_date, disclosure_date, type, amount_est, asset_type, sector)
					VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8::numeric, $9, $10)`,
					i+k, t.Senator, t.Ticker, t.AssetDescription, t.TransactionDate.String(),
					nullable(t.DisclosureDate.String()), t.Type, t.AmountEst.String(), t.AssetType,
					nullable(t.Sector))
			}
			br := tx.SendBatch(ctx, b)
			for k := i; k < j; k++ {
				if _, err := br.Exec(); err != nil {
					_ = br.Close()
					return fmt.Errorf("%v: %w", trades[k].Key(), err)
				}
			}
			if err := br.Close(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	return nil
}

// Close releases the connections.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

var _ capitol.Store = (*Postgres)(nil)
