package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/repository"
)

type ledgerRepository struct {
	store
}

// NewLedgerRepository creates a new participation ledger repository
func NewLedgerRepository(db *sql.DB, dialect config.Dialect) repository.LedgerRepository {
	return &ledgerRepository{store{db: db, dialect: dialect}}
}

// Toggle deletes the record if it exists and inserts it otherwise, inside one
// transaction. The insert tolerates a concurrent insert of the same key, so
// racing toggles never surface a constraint error.
func (r *ledgerRepository) Toggle(ctx context.Context, userID, chatID, eventID int64, at time.Time) (models.JoinedState, error) {
	var state models.JoinedState
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.q(`
			DELETE FROM participation_records
			WHERE user_id = ? AND chat_id = ? AND event_id = ?`),
			userID, chatID, eventID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete participation: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n > 0 {
			state = models.StateLeft
			return nil
		}

		if _, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO participation_records (user_id, chat_id, event_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, chat_id, event_id) DO NOTHING`),
			userID, chatID, eventID, toMillis(at),
		); err != nil {
			return fmt.Errorf("failed to insert participation: %w", classify(err))
		}
		state = models.StateJoined
		return nil
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

func (r *ledgerRepository) ListParticipants(ctx context.Context, chatID, eventID int64) ([]*models.Participant, error) {
	query := r.q(`
		SELECT r.user_id, COALESCE(p.mention_name, '')
		FROM participation_records r
		LEFT JOIN participants p ON p.user_id = r.user_id
		WHERE r.chat_id = ? AND r.event_id = ?
		ORDER BY r.created_at ASC, r.user_id ASC`)

	rows, err := r.db.QueryContext(ctx, query, chatID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.DisplayName = displayName(p.DisplayName)
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// Leaderboard orders by count descending, then by user id ascending so that
// ties always come back in the same order.
func (r *ledgerRepository) Leaderboard(ctx context.Context, chatID int64, tr models.TimeRange, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT r.user_id, COALESCE(MAX(p.mention_name), ''), COUNT(*) AS joined
		FROM participation_records r
		LEFT JOIN participants p ON p.user_id = r.user_id
		WHERE r.chat_id = ? AND r.created_at >= ? AND r.created_at < ?
		GROUP BY r.user_id
		ORDER BY joined DESC, r.user_id ASC`

	from, to := rangeArgs(tr)
	args := []any{chatID, from, to}
	if limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		entry := &models.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.DisplayName = displayName(entry.DisplayName)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
