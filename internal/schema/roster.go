package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/config"
)

type legacyParticipant struct {
	userID int64
	name   sql.NullString
	active sql.NullBool
}

// collapseRosterKey rebuilds a roster keyed by (user_id, chat_id) into one
// keyed by user_id. Rows are copied in insertion order and the first row seen
// for a user wins, so the name and flag come from the earliest group row.
func (r *Reconciler) collapseRosterKey(ctx context.Context, tx *sql.Tx) (int, error) {
	legacy, err := r.hasGroupScopedRoster(ctx, tx)
	if err != nil {
		return VersionPerGroupRoster, err
	}
	if !legacy {
		return VersionPerGroupRoster, nil
	}

	// A leftover scratch table would otherwise block every retry.
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS participants_v2`); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to clear scratch roster table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.rosterTableDDL("participants_v2")); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to create new roster table: %w", err)
	}

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT user_id, mention_name, is_active
		FROM participants
		ORDER BY %s`, r.insertionOrder()))
	if err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to scan legacy roster: %w", err)
	}

	// Drain before writing: a transaction holds one connection and some
	// drivers cannot interleave statements with an open result set.
	var legacyRows []legacyParticipant
	for rows.Next() {
		var p legacyParticipant
		if err := rows.Scan(&p.userID, &p.name, &p.active); err != nil {
			rows.Close()
			return VersionPerGroupRoster, fmt.Errorf("failed to read legacy participant: %w", err)
		}
		legacyRows = append(legacyRows, p)
	}
	if err := rows.Close(); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to close legacy roster rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to iterate legacy roster: %w", err)
	}

	insert := r.dialect.Rebind(`
		INSERT INTO participants_v2 (user_id, mention_name, is_active)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)

	copied := 0
	for _, p := range legacyRows {
		active := true
		if p.active.Valid {
			active = p.active.Bool
		}
		res, err := tx.ExecContext(ctx, insert, p.userID, p.name.String, active)
		if err != nil {
			return VersionPerGroupRoster, fmt.Errorf("failed to copy participant %d: %w", p.userID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			copied++
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE participants`); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to drop legacy roster: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE participants_v2 RENAME TO participants`); err != nil {
		return VersionPerGroupRoster, fmt.Errorf("failed to rename new roster: %w", err)
	}

	events, err := r.importLegacyEvents(ctx, tx)
	if err != nil {
		return VersionPerGroupRoster, err
	}

	r.logger.WithFields(logrus.Fields{
		"legacy_rows":   len(legacyRows),
		"participants":  copied,
		"legacy_events": events,
	}).Info("Collapsed per-group roster into single-key roster")

	return VersionSingleKeyRoster, nil
}

// importLegacyEvents copies the per-group roster generation's smoke_events
// log into trigger_events so counts survive the upgrade. The legacy table is
// left in place.
func (r *Reconciler) importLegacyEvents(ctx context.Context, tx *sql.Tx) (int64, error) {
	var exists int
	var query string
	switch r.dialect {
	case config.DialectPostgres:
		query = `
			SELECT COUNT(*)
			FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'smoke_events'`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'smoke_events'`
	}
	if err := tx.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to look up legacy events: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	millis := "CAST(strftime('%s', timestamp) AS INTEGER) * 1000"
	if r.dialect == config.DialectPostgres {
		millis = "CAST(EXTRACT(EPOCH FROM timestamp) * 1000 AS BIGINT)"
	}

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO trigger_events (chat_id, user_id, created_at)
		SELECT chat_id, user_id, %s
		FROM smoke_events
		WHERE chat_id IS NOT NULL AND user_id IS NOT NULL AND timestamp IS NOT NULL
		ORDER BY id`, millis))
	if err != nil {
		return 0, fmt.Errorf("failed to import legacy events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// hasGroupScopedRoster reports whether chat_id is part of the participants
// primary key.
func (r *Reconciler) hasGroupScopedRoster(ctx context.Context, tx *sql.Tx) (bool, error) {
	var query string
	switch r.dialect {
	case config.DialectPostgres:
		query = `
			SELECT COUNT(*)
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
			WHERE tc.table_schema = current_schema()
				AND tc.table_name = 'participants'
				AND tc.constraint_type = 'PRIMARY KEY'
				AND kcu.column_name = 'chat_id'`
	default:
		query = `
			SELECT COUNT(*)
			FROM pragma_table_info('participants')
			WHERE name = 'chat_id' AND pk > 0`
	}

	var n int
	if err := tx.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to inspect roster key: %w", err)
	}
	return n > 0, nil
}

func (r *Reconciler) rosterTableDDL(table string) string {
	if r.dialect == config.DialectPostgres {
		return fmt.Sprintf(`
			CREATE TABLE %s (
				user_id BIGINT PRIMARY KEY,
				mention_name TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`, table)
	}
	return fmt.Sprintf(`
		CREATE TABLE %s (
			user_id INTEGER PRIMARY KEY,
			mention_name TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`, table)
}

// insertionOrder is the scan order used for first-seen-wins.
func (r *Reconciler) insertionOrder() string {
	if r.dialect == config.DialectPostgres {
		return "ctid"
	}
	return "rowid"
}
