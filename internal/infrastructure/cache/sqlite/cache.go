// Package sqlite implements the offline cache on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/cache/sqlite/migrations"
)

// Cache stores one row per cached entity, keyed by account, collection and
// id. seq keeps the order records were written in. A Cache only sees the
// rows of the account it was opened for, so several accounts can share a file.
type Cache struct {
	db        *sql.DB
	accountID string
}

var _ ports.LocalCache = (*Cache)(nil)

// gooseUpContext is a seam for testing migrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Open opens (or creates) the cache database at path, migrates it and scopes
// the returned Cache to accountID. ":memory:" gives a private in-process
// database. Migration output goes to log at debug level.
func Open(ctx context.Context, path, accountID string, log zerolog.Logger) (*Cache, error) {
	if accountID == "" {
		return nil, errors.New("open cache: account id is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// A single connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, accountID: accountID}, nil
}

// gooseLogger routes goose output into zerolog.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func migrate(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	goose.SetLogger(gooseLogger{log: log.With().Str("component", "cache-migrate").Logger()})
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) GetAll(ctx context.Context, coll domain.Collection) ([]ports.CacheRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, data FROM cache_records WHERE account_id = ? AND collection = ? ORDER BY seq`,
		c.accountID, string(coll))
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", coll, err)
	}
	defer rows.Close()

	out := make([]ports.CacheRecord, 0)
	for rows.Next() {
		var rec ports.CacheRecord
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, fmt.Errorf("cache scan %s: %w", coll, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache rows %s: %w", coll, err)
	}
	return out, nil
}

// Put upserts rec. An existing row keeps its position.
func (c *Cache) Put(ctx context.Context, coll domain.Collection, rec ports.CacheRecord) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO cache_records (account_id, collection, id, seq, data, cached_at)
VALUES (?, ?, ?,
        (SELECT COALESCE(MAX(seq), 0) + 1 FROM cache_records WHERE account_id = ? AND collection = ?),
        ?, CURRENT_TIMESTAMP)
ON CONFLICT (account_id, collection, id) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at`,
		c.accountID, string(coll), rec.ID, c.accountID, string(coll), rec.Data)
	if err != nil {
		return fmt.Errorf("cache put %s/%s: %w", coll, rec.ID, err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context, coll domain.Collection) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_records WHERE account_id = ? AND collection = ?`, c.accountID, string(coll)); err != nil {
		return fmt.Errorf("cache clear %s: %w", coll, err)
	}
	return nil
}

// Replace swaps the partition contents in one transaction.
func (c *Cache) Replace(ctx context.Context, coll domain.Collection, records []ports.CacheRecord) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache replace %s: begin: %w", coll, err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM cache_records WHERE account_id = ? AND collection = ?`, c.accountID, string(coll)); err != nil {
		return fmt.Errorf("cache replace %s: clear: %w", coll, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cache_records (account_id, collection, id, seq, data, cached_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("cache replace %s: prepare: %w", coll, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err = stmt.ExecContext(ctx, c.accountID, string(coll), rec.ID, i+1, rec.Data); err != nil {
			return fmt.Errorf("cache replace %s/%s: %w", coll, rec.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("cache replace %s: commit: %w", coll, err)
	}
	return nil
}
