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

type groupRepository struct {
	store
}

// NewGroupRepository creates a new broadcast group repository
func NewGroupRepository(db *sql.DB, dialect config.Dialect) repository.GroupRepository {
	return &groupRepository{store{db: db, dialect: dialect}}
}

func (r *groupRepository) Add(ctx context.Context, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO broadcast_groups (chat_id, created_at)
		VALUES (?, ?)
		ON CONFLICT (chat_id) DO NOTHING`),
		chatID, toMillis(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("failed to add broadcast group: %w", classify(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *groupRepository) Remove(ctx context.Context, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM broadcast_groups WHERE chat_id = ?`), chatID)
	if err != nil {
		return false, fmt.Errorf("failed to remove broadcast group: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *groupRepository) List(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, created_at
		FROM broadcast_groups
		ORDER BY chat_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query broadcast groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var createdAt int64
		g := &models.Group{}
		if err := rows.Scan(&g.ChatID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan broadcast group: %w", err)
		}
		g.CreatedAt = fromMillis(createdAt)
		groups = append(groups, g)
	}

	return groups, rows.Err()
}
