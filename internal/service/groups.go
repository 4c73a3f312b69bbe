package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/repository"
)

// GroupRegistry keeps the set of groups that receive the scheduled broadcast.
// The set is cached in memory and persisted through a GroupRepository.
type GroupRegistry struct {
	mu     sync.RWMutex
	repo   repository.GroupRepository
	logger *logrus.Logger
	chats  map[int64]struct{}
}

// NewGroupRegistry creates an empty registry. Call Load to fill it from storage.
func NewGroupRegistry(repo repository.GroupRepository, logger *logrus.Logger) *GroupRegistry {
	return &GroupRegistry{
		repo:   repo,
		logger: logger,
		chats:  make(map[int64]struct{}),
	}
}

// Load replaces the cached set with the persisted one.
func (g *GroupRegistry) Load(ctx context.Context) error {
	groups, err := g.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load broadcast groups: %w", err)
	}

	chats := make(map[int64]struct{}, len(groups))
	for _, grp := range groups {
		chats[grp.ChatID] = struct{}{}
	}

	g.mu.Lock()
	g.chats = chats
	g.mu.Unlock()

	g.logger.WithField("groups", len(chats)).Info("Broadcast groups loaded")
	return nil
}

// Track adds a group. added is false when it was already tracked.
func (g *GroupRegistry) Track(ctx context.Context, chatID int64) (bool, error) {
	added, err := g.repo.Add(ctx, chatID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	_, cached := g.chats[chatID]
	g.chats[chatID] = struct{}{}
	g.mu.Unlock()

	return added || !cached, nil
}

// Untrack removes a group. removed is false when it was not tracked.
func (g *GroupRegistry) Untrack(ctx context.Context, chatID int64) (bool, error) {
	removed, err := g.repo.Remove(ctx, chatID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	_, cached := g.chats[chatID]
	delete(g.chats, chatID)
	g.mu.Unlock()

	return removed || cached, nil
}

// IsTracked reports whether the group receives the broadcast.
func (g *GroupRegistry) IsTracked(chatID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.chats[chatID]
	return ok
}

// Snapshot returns the tracked chat ids in ascending order.
func (g *GroupRegistry) Snapshot() []int64 {
	g.mu.RLock()
	ids := make([]int64, 0, len(g.chats))
	for id := range g.chats {
		ids = append(ids, id)
	}
	g.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
