package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/repository"
)

type rosterRepository struct {
	store
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *sql.DB, dialect config.Dialect) repository.RosterRepository {
	return &rosterRepository{store{db: db, dialect: dialect}}
}

func (r *rosterRepository) UpsertSighting(ctx context.Context, userID int64, displayName string) (bool, error) {
	var created bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO participants (user_id, mention_name, is_active)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id) DO NOTHING`),
			userID, displayName, true,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", classify(err))
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n > 0 {
			created = true
			return nil
		}

		// Known participant: the name follows the latest sighting, the
		// subscription flag is sticky.
		if _, err := tx.ExecContext(ctx, r.q(`
			UPDATE participants SET mention_name = ? WHERE user_id = ?`),
			displayName, userID,
		); err != nil {
			return fmt.Errorf("failed to update participant name: %w", classify(err))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *rosterRepository) SetSubscription(ctx context.Context, userID int64, subscribed bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE participants SET is_active = ? WHERE user_id = ?`),
		subscribed, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set subscription: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *rosterRepository) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	p, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return p != nil && p.Subscribed, nil
}

func (r *rosterRepository) GetByID(ctx context.Context, userID int64) (*models.Participant, error) {
	query := r.q(`
		SELECT user_id, mention_name, is_active
		FROM participants
		WHERE user_id = ?`)

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID,
		&p.DisplayName,
		&p.Subscribed,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant by ID: %w", err)
	}

	return p, nil
}

func (r *rosterRepository) ListSubscribed(ctx context.Context) ([]*models.Participant, error) {
	query := r.q(`
		SELECT user_id, mention_name, is_active
		FROM participants
		WHERE is_active = ?
		ORDER BY user_id ASC`)

	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribed participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Subscribed); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}
