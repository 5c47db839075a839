package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainerdash/internal/domain/catalog"
)

func foodsSlot(s *State) *[]catalog.Food { return &s.Foods }

// TestLoad_FetchesOnce verifies filtering reads never go back upstream.
func TestLoad_FetchesOnce(t *testing.T) {
	w := newWorkspace()
	calls := 0
	fetch := func(context.Context) ([]catalog.Food, error) {
		calls++
		return []catalog.Food{{ID: 1, Name: "Rice"}}, nil
	}
	now := time.Now()

	for i := 0; i < 3; i++ {
		foods, err := Load(context.Background(), w, Foods, false, now, fetch, foodsSlot)
		if err != nil || len(foods) != 1 {
			t.Fatalf("Load: %v %v", foods, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}

	Load(context.Background(), w, Foods, true, now, fetch, foodsSlot)
	if calls != 2 {
		t.Errorf("refresh should refetch, calls = %d", calls)
	}

	w.Update(func(s *State) error { s.Invalidate(Foods); return nil })
	Load(context.Background(), w, Foods, false, now, fetch, foodsSlot)
	if calls != 3 {
		t.Errorf("invalidation should refetch, calls = %d", calls)
	}
}

func TestLoad_FailureKeepsCache(t *testing.T) {
	w := newWorkspace()
	ok := func(context.Context) ([]catalog.Food, error) { return []catalog.Food{{ID: 1}}, nil }
	boom := errors.New("down")
	fail := func(context.Context) ([]catalog.Food, error) { return nil, boom }

	Load(context.Background(), w, Foods, false, time.Now(), ok, foodsSlot)
	if _, err := Load(context.Background(), w, Foods, true, time.Now(), fail, foodsSlot); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	w.Update(func(s *State) error {
		if len(s.Foods) != 1 || !s.Loaded(Foods) {
			t.Error("a failed refresh must keep the previous cache")
		}
		return nil
	})
}

func TestLoad_NilBecomesEmpty(t *testing.T) {
	w := newWorkspace()
	got, err := Load(context.Background(), w, Foods, false, time.Now(),
		func(context.Context) ([]catalog.Food, error) { return nil, nil }, foodsSlot)
	if err != nil || got == nil {
		t.Errorf("got %v, %v; want empty non-nil slice", got, err)
	}
}
