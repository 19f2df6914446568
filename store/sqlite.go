package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	capitol "github.com/sumiran35/capitol-shill"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite stores the snapshot in a sqlite database, table trades.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and brings its schema up to date.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// a single connection, sqlite serializes writers anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &SQLite{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	// m.Close would close s.db too.
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("migration %s: %w", s.path, err)
	}
	log.Printf("sqlite-migrated path=%s", s.path)
	return nil
}

// Load reads the snapshot.
func (s *SQLite) Load() ([]capitol.Trade, error) {
	rows, err := s.db.Query(`SELECT senator, ticker, asset_description, transaction_date, disclosure_date,
		type, amount_est, asset_type, sector FROM trades ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	defer rows.Close()

	var trades []capitol.Trade
	for i := 0; rows.Next(); i++ {
		var (
			t                 capitol.Trade
			traded, amount    string
			disclosed, sector sql.NullString
		)
		if err := rows.Scan(&t.Senator, &t.Ticker, &t.AssetDescription, &traded, &disclosed,
			&t.Type, &amount, &t.AssetType, &sector); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if t.TransactionDate, err = parseDate(traded); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if t.DisclosureDate, err = parseDate(disclosed.String); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		if t.AmountEst, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("load error: %w", err)
		}
		t.Sector = sector.String
		if keep(t, fmt.Sprintf("%s#%d", s.path, i)) {
			trades = append(trades, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	return trades, nil
}

// Save replaces the snapshot with trades in a single transaction.
func (s *SQLite) Save(trades []capitol.Trade) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`DELETE FROM trades`); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO trades (position, senator, ticker, asset_description,
		transaction_date, disclosure_date, type, amount_est, asset_type, sector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	defer stmt.Close()
	for i, t := range trades {
		if _, err = stmt.Exec(i, t.Senator, t.Ticker, t.AssetDescription, t.TransactionDate.String(),
			nullable(t.DisclosureDate.String()), t.Type, t.AmountEst.String(), t.AssetType,
			nullable(t.Sector)); err != nil {
			return fmt.Errorf("persist error %v: %w", t.Key(), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// nullable maps "" to a sql NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ capitol.Store = (*SQLite)(nil)
