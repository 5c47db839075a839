package workspace

import (
	"context"
	"time"
)

// Fetcher loads one collection from upstream.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Load returns collection c from the cache, fetching it first when it was never loaded,
// was invalidated, or refresh is set. slot points at the State field holding c.
// The fetch runs without the workspace lock; a failed fetch leaves the cache untouched.
func Load[T any](ctx context.Context, w *Workspace, c Collection, refresh bool, now time.Time,
	fetch Fetcher[T], slot func(*State) *[]T) ([]T, error) {
	var cached []T
	fresh := false
	w.Update(func(s *State) error {
		if s.Loaded(c) && !refresh {
			cached = *slot(s)
			fresh = true
		}
		return nil
	})
	if fresh {
		return cached, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	w.Update(func(s *State) error {
		*slot(s) = items
		s.MarkLoaded(c, now)
		return nil
	})
	return items, nil
}
