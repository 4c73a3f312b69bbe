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

type triggerRepository struct {
	store
}

// NewTriggerRepository creates a new trigger log repository
func NewTriggerRepository(db *sql.DB, dialect config.Dialect) repository.TriggerRepository {
	return &triggerRepository{store{db: db, dialect: dialect}}
}

func (r *triggerRepository) Record(ctx context.Context, chatID, userID int64, at time.Time) (*models.TriggerEvent, error) {
	query := r.q(`
		INSERT INTO trigger_events (chat_id, user_id, created_at)
		VALUES (?, ?, ?)
		RETURNING id`)

	event := &models.TriggerEvent{
		ChatID:    chatID,
		UserID:    userID,
		CreatedAt: fromMillis(toMillis(at)),
	}

	if err := r.db.QueryRowContext(ctx, query, chatID, userID, toMillis(at)).Scan(&event.ID); err != nil {
		return nil, fmt.Errorf("failed to record trigger event: %w", err)
	}

	return event, nil
}

func (r *triggerRepository) CountInRange(ctx context.Context, chatID int64, tr models.TimeRange) (int, error) {
	query := r.q(`
		SELECT COUNT(*)
		FROM trigger_events
		WHERE chat_id = ? AND created_at >= ? AND created_at < ?`)

	from, to := rangeArgs(tr)

	var count int
	if err := r.db.QueryRowContext(ctx, query, chatID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trigger events: %w", err)
	}
	return count, nil
}

func (r *triggerRepository) History(ctx context.Context, chatID int64, tr models.TimeRange, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT t.created_at, t.user_id, COALESCE(p.mention_name, '')
		FROM trigger_events t
		LEFT JOIN participants p ON p.user_id = t.user_id
		WHERE t.chat_id = ? AND t.created_at >= ? AND t.created_at < ?
		ORDER BY t.created_at DESC, t.id DESC`

	from, to := rangeArgs(tr)
	args := []any{chatID, from, to}
	if limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trigger history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var createdAt int64
		entry := &models.HistoryEntry{}
		if err := rows.Scan(&createdAt, &entry.UserID, &entry.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan trigger history: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entry.DisplayName = displayName(entry.DisplayName)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
