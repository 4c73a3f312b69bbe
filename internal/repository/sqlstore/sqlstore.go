// Package sqlstore implements the storage interfaces on database/sql. The same
// statements run on SQLite and PostgreSQL; placeholders are written as ? and
// rebound per dialect. Timestamps are stored as UTC unix milliseconds.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/repository"
)

// store carries what every repository in this package needs.
type store struct {
	db      *sql.DB
	dialect config.Dialect
}

func (s store) q(query string) string {
	return s.dialect.Rebind(query)
}

// withTx runs fn inside a transaction and commits when fn succeeds.
func (s store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// rangeArgs turns a TimeRange into inclusive-lower, exclusive-upper
// millisecond bounds.
func rangeArgs(r models.TimeRange) (int64, int64) {
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if !r.From.IsZero() {
		from = toMillis(r.From)
	}
	if !r.To.IsZero() {
		to = toMillis(r.To)
	}
	return from, to
}

// classify wraps constraint violations with repository.ErrConstraint.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %v", repository.ErrConstraint, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "constraint failed") {
		return fmt.Errorf("%w: %v", repository.ErrConstraint, err)
	}
	return err
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return models.UnknownName
	}
	return name
}
