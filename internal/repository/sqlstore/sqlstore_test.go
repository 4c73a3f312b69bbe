package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/Kerhoff/SmokeBot/internal/repository"
)

func TestClassifyConstraintErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}), true},
		{"postgres other", &pq.Error{Code: "42P01"}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: participants.user_id (1555)"), true},
		{"other", errors.New("database is locked"), false},
	}
	for _, tt := range tests {
		got := errors.Is(classify(tt.err), repository.ErrConstraint)
		if got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
	if classify(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}
