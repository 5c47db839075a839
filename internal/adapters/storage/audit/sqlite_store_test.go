package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"trainerdash/internal/adapters/storage"
	domain "trainerdash/internal/domain/audit"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *SQLiteStore) []domain.Event {
	t.Helper()
	events := []domain.Event{
		domain.NewEvent(7, "coach@example.com", domain.CategoryAuth, domain.ActionLogin, base),
		domain.NewEvent(7, "coach@example.com", domain.CategoryRoutine, domain.ActionCreate, base.Add(time.Hour)).
			WithResource("routine", 31).WithDescription("Push day"),
		domain.NewEvent(9, "admin@example.com", domain.CategoryAssignment, domain.ActionAssign, base.Add(2*time.Hour)).
			WithResource("diet_plan", 4).WithFailure("validation failed"),
	}
	for _, e := range events {
		if err := store.Save(context.Background(), e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	return events
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	events := seed(t, store)

	got, err := store.GetByID(context.Background(), events[1].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ResourceID != "31" || got.Description != "Push day" || got.ActorID != "7" {
		t.Errorf("got %+v", got)
	}
	if !got.Timestamp.Equal(events[1].Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, events[1].Timestamp)
	}

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(missing) err = %v, want sql.ErrNoRows", err)
	}
}

func TestSQLiteStore_SaveRejectsInvalid(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	err := store.Save(context.Background(), domain.NewEvent(1, "", domain.CategoryAuth, domain.ActionLogin, base))
	if !errors.Is(err, domain.ErrMissingActor) {
		t.Errorf("err = %v, want ErrMissingActor", err)
	}
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	seed(t, store)

	tests := []struct {
		name   string
		filter Filter
		limit  int
		want   int
	}{
		{"all newest first", Filter{}, 10, 3},
		{"limit", Filter{}, 2, 2},
		{"by actor", Filter{ActorID: "7"}, 10, 2},
		{"by category", Filter{Category: domain.CategoryRoutine}, 10, 1},
		{"by action", Filter{Action: domain.ActionLogin}, 10, 1},
		{"failures", Filter{Outcome: domain.OutcomeFailure}, 10, 1},
		{"from", Filter{From: base.Add(30 * time.Minute)}, 10, 2},
		{"window", Filter{From: base.Add(30 * time.Minute), To: base.Add(90 * time.Minute)}, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(context.Background(), tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Timestamp.After(got[i-1].Timestamp) {
					t.Errorf("events not ordered newest first: %v after %v", got[i].Timestamp, got[i-1].Timestamp)
				}
			}
		})
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	seed(t, store)

	n, err := store.Prune(context.Background(), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned = %d, want 2", n)
	}
	left, _ := store.List(context.Background(), Filter{}, 10)
	if len(left) != 1 || left[0].Category != domain.CategoryAssignment {
		t.Errorf("left = %+v", left)
	}
}
