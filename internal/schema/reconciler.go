// Package schema keeps the roster's key structure current. It must run once at
// startup, after the bootstrap DDL and before any handler touches storage.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/internal/metrics"
)

// VersionKey is the settings key holding the roster generation marker.
const VersionKey = "schema_version"

const (
	// VersionPerGroupRoster is the first generation: participants keyed by
	// (user_id, chat_id).
	VersionPerGroupRoster = 1
	// VersionSingleKeyRoster keys participants by user_id alone.
	VersionSingleKeyRoster = 2
)

// Step performs one forward migration inside tx and returns the version it
// reached. Returning the version it started from means there was nothing to
// do.
type Step func(ctx context.Context, tx *sql.Tx) (int, error)

// Reconciler applies forward-only steps keyed by the version they start from
// until no step applies.
type Reconciler struct {
	db      *sql.DB
	dialect config.Dialect
	logger  *logrus.Logger
	metrics *metrics.Metrics
	steps   map[int]Step
}

// New creates a reconciler with the built-in steps.
func New(db *sql.DB, dialect config.Dialect, logger *logrus.Logger, m *metrics.Metrics) *Reconciler {
	r := &Reconciler{
		db:      db,
		dialect: dialect,
		logger:  logger,
		metrics: m,
	}
	r.steps = map[int]Step{
		VersionPerGroupRoster: r.collapseRosterKey,
	}
	return r
}

// Run brings the schema to its latest reachable version and returns it. A
// failing step is logged and leaves the marker at the previous version so the
// step is retried on the next start. Only failing to read or create the
// marker itself is returned as an error.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	version, err := r.ensureMarker(ctx)
	if err != nil {
		return 0, err
	}

	for {
		step, ok := r.steps[version]
		if !ok {
			break
		}

		next, err := r.apply(ctx, version, step)
		if err != nil {
			r.metrics.MigrationResult("failed")
			r.logger.WithFields(logrus.Fields{
				"from_version": version,
				"error":        err,
			}).Error("Schema migration failed, will retry on next start")
			break
		}
		if next == version {
			break
		}

		r.metrics.MigrationResult("applied")
		r.logger.WithFields(logrus.Fields{
			"from_version": version,
			"to_version":   next,
		}).Info("Schema migration applied")
		version = next
	}

	return version, nil
}

// apply runs step and, when it advances, writes the new marker as the last
// statement of the same transaction.
func (r *Reconciler) apply(ctx context.Context, version int, step Step) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return version, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	next, err := step(ctx, tx)
	if err != nil {
		return version, err
	}
	if next == version {
		return version, nil
	}

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE bot_settings SET value = ? WHERE key = ?`),
		strconv.Itoa(next), VersionKey,
	); err != nil {
		return version, fmt.Errorf("failed to advance schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return version, fmt.Errorf("failed to commit migration: %w", err)
	}
	return next, nil
}

// ensureMarker creates the settings table and the version marker when they
// are missing and returns the stored version.
func (r *Reconciler) ensureMarker(ctx context.Context) (int, error) {
	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bot_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
		return 0, fmt.Errorf("failed to create settings table: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO bot_settings (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO NOTHING`),
		VersionKey, strconv.Itoa(VersionPerGroupRoster),
	); err != nil {
		return 0, fmt.Errorf("failed to create schema version marker: %w", err)
	}

	return Version(ctx, r.db, r.dialect)
}

// Version reads the stored schema version marker.
func Version(ctx context.Context, db *sql.DB, dialect config.Dialect) (int, error) {
	var raw string
	if err := db.QueryRowContext(ctx, dialect.Rebind(`
		SELECT value FROM bot_settings WHERE key = ?`), VersionKey,
	).Scan(&raw); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return version, nil
}
