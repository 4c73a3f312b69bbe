package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/metrics"
	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/repository"
)

const (
	// DefaultLeaderboardLimit is the number of leaderboard rows shown by default.
	DefaultLeaderboardLimit = 5
	// DefaultHistoryLimit is the number of history rows shown by default.
	DefaultHistoryLimit = 50
)

// Options tunes how the service reads time.
type Options struct {
	// Location is the time zone that decides where "today" starts. UTC when nil.
	Location *time.Location
	// Now replaces time.Now, mainly for tests.
	Now func() time.Time
}

// Service is the central business logic layer that holds all repositories
// and provides the operations the transport layer calls.
type Service struct {
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time

	Roster   repository.RosterRepository
	Triggers repository.TriggerRepository
	Ledger   repository.LedgerRepository
	Groups   *GroupRegistry
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, m *metrics.Metrics,
	roster repository.RosterRepository,
	triggers repository.TriggerRepository,
	ledger repository.LedgerRepository,
	groups *GroupRegistry,
	opts Options,
) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		logger: logger, metrics: m,
		location: opts.Location, now: opts.Now,
		Roster: roster, Triggers: triggers, Ledger: ledger, Groups: groups,
	}
}

// Location returns the time zone used for calendar-day windows.
func (s *Service) Location() *time.Location {
	return s.location
}

// CaptureParticipant records a sighting of a participant. It is safe to call
// on every inbound message. A constraint violation is logged and treated as a
// no-op, so callers must not rely on the write having happened.
func (s *Service) CaptureParticipant(ctx context.Context, userID int64, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.UnknownName
	}

	created, err := s.Roster.UpsertSighting(ctx, userID, displayName)
	if err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err,
			}).Warn("Ignoring roster constraint violation")
			return nil
		}
		return fmt.Errorf("failed to capture participant (user_id=%d): %w", userID, err)
	}

	if created {
		s.metrics.ParticipantAdded()
		s.logger.WithFields(logrus.Fields{
			"user_id":      userID,
			"display_name": displayName,
		}).Info("Added new participant")
	}
	return nil
}

// SetSubscription sets the subscription flag of a known participant. Unknown
// participants are ignored and updated is false.
func (s *Service) SetSubscription(ctx context.Context, userID int64, subscribed bool) (bool, error) {
	updated, err := s.Roster.SetSubscription(ctx, userID, subscribed)
	if err != nil {
		return false, fmt.Errorf("failed to set subscription (user_id=%d): %w", userID, err)
	}
	if !updated {
		s.logger.WithField("user_id", userID).Debug("Subscription change for unknown participant ignored")
	}
	return updated, nil
}

// IsSubscribed reports whether the participant receives announcements.
func (s *Service) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	return s.Roster.IsSubscribed(ctx, userID)
}

// ListSubscribed returns every subscribed participant.
func (s *Service) ListSubscribed(ctx context.Context) ([]*models.Participant, error) {
	return s.Roster.ListSubscribed(ctx)
}

// RecordTrigger appends an announcement to the trigger log.
func (s *Service) RecordTrigger(ctx context.Context, chatID, userID int64) (*models.TriggerEvent, error) {
	event, err := s.Triggers.Record(ctx, chatID, userID, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.TriggerRecorded()
	s.logger.WithFields(logrus.Fields{
		"chat_id":  chatID,
		"user_id":  userID,
		"event_id": event.ID,
	}).Info("Trigger recorded")
	return event, nil
}

// Toggle flips a participant's membership of one announcement.
func (s *Service) Toggle(ctx context.Context, userID, chatID, eventID int64) (models.JoinedState, error) {
	state, err := s.Ledger.Toggle(ctx, userID, chatID, eventID, s.now())
	if err != nil {
		return "", err
	}

	s.metrics.Toggled(string(state))
	s.logger.WithFields(logrus.Fields{
		"chat_id":  chatID,
		"user_id":  userID,
		"event_id": eventID,
		"state":    state,
	}).Debug("Participation toggled")
	return state, nil
}

// ListParticipants returns who joined an announcement, in join order.
func (s *Service) ListParticipants(ctx context.Context, chatID, eventID int64) ([]*models.Participant, error) {
	return s.Ledger.ListParticipants(ctx, chatID, eventID)
}
