package service

import (
	"context"
	"testing"

	"github.com/Kerhoff/SmokeBot/internal/repository/sqlstore"
	"github.com/Kerhoff/SmokeBot/internal/testkit"
	"github.com/Kerhoff/SmokeBot/pkg/logger"
)

func TestGroupRegistryPersists(t *testing.T) {
	db := testkit.OpenDatabase(t)
	repo := sqlstore.NewGroupRepository(db.DB, db.Dialect)
	ctx := context.Background()

	reg := NewGroupRegistry(repo, logger.Discard())
	for _, id := range []int64{-300, -100, -200} {
		added, err := reg.Track(ctx, id)
		if err != nil || !added {
			t.Fatalf("track %d: %v, %v", id, added, err)
		}
	}
	if added, err := reg.Track(ctx, -100); err != nil || added {
		t.Fatalf("expected duplicate track to report false, got %v, %v", added, err)
	}
	if removed, err := reg.Untrack(ctx, -200); err != nil || !removed {
		t.Fatalf("untrack: %v, %v", removed, err)
	}
	if removed, err := reg.Untrack(ctx, -200); err != nil || removed {
		t.Fatalf("expected second untrack to report false, got %v, %v", removed, err)
	}

	reloaded := NewGroupRegistry(repo, logger.Discard())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := reloaded.Snapshot()
	if len(got) != 2 || got[0] != -300 || got[1] != -100 {
		t.Fatalf("unexpected snapshot %v", got)
	}
	if !reloaded.IsTracked(-100) || reloaded.IsTracked(-200) {
		t.Fatal("unexpected tracked state after reload")
	}
}
