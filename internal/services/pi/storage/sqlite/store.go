// Package sqlite persists computed π expansions in SQLite so a restarted
// service can resume from its most precise value.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/sunpi/internal/core/pi"
	sqlitemigrate "github.com/louisbranch/sunpi/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/sunpi/internal/services/pi/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store keeps only the most precise π expansion it has been given.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite pi store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadPi returns the most precise stored expansion when it has at least
// minDigits fractional digits.
func (s *Store) LoadPi(ctx context.Context, minDigits int) (pi.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return pi.Value{}, false, err
	}
	if s == nil || s.sqlDB == nil {
		return pi.Value{}, false, fmt.Errorf("storage is not configured")
	}

	var (
		digits int
		text   string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT digits, value FROM pi_values ORDER BY digits DESC LIMIT 1`,
	).Scan(&digits, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return pi.Value{}, false, nil
	}
	if err != nil {
		return pi.Value{}, false, fmt.Errorf("load pi value: %w", err)
	}

	value, err := pi.Parse(text)
	if err != nil {
		return pi.Value{}, false, fmt.Errorf("stored pi value: %w", err)
	}
	if value.Digits() != digits {
		return pi.Value{}, false, fmt.Errorf("stored pi value has %d digits, row says %d: %w", value.Digits(), digits, pi.ErrMalformedValue)
	}
	if digits < minDigits {
		return pi.Value{}, false, nil
	}
	return value, true, nil
}

// SavePi stores value if it is more precise than anything already stored and
// drops the less precise rows it supersedes.
func (s *Store) SavePi(ctx context.Context, value pi.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if value.IsZero() {
		return fmt.Errorf("pi value is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save pi value: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(digits) FROM pi_values`).Scan(&stored); err != nil {
		return fmt.Errorf("read stored precision: %w", err)
	}
	if stored.Valid && stored.Int64 >= int64(value.Digits()) {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pi_values (digits, value, computed_at) VALUES (?, ?, ?)`,
		value.Digits(), value.String(), toMillis(s.clock()),
	); err != nil {
		return fmt.Errorf("save pi value: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pi_values WHERE digits < ?`, value.Digits()); err != nil {
		return fmt.Errorf("prune pi values: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pi value: %w", err)
	}
	return nil
}

// ComputedAt reports when the stored expansion was saved.
func (s *Store) ComputedAt(ctx context.Context) (time.Time, bool, error) {
	if s == nil || s.sqlDB == nil {
		return time.Time{}, false, fmt.Errorf("storage is not configured")
	}
	var millis int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT computed_at FROM pi_values ORDER BY digits DESC LIMIT 1`,
	).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load computed_at: %w", err)
	}
	return fromMillis(millis), true, nil
}
