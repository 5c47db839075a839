// Package workspace holds the per-session server memory of the dashboard: the diet plan
// and routine drafts, the assignment modal, and the collections fetched from upstream.
// Nothing here is persisted; a restart or logout discards it.
package workspace

import (
	"errors"
	"sync"
	"time"

	"trainerdash/internal/application/listutil"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

// Collection names a cached upstream list.
type Collection string

const (
	Clients   Collection = "clients"
	Plans     Collection = "plans"
	Foods     Collection = "foods"
	Exercises Collection = "exercises"
	Routines  Collection = "routines"
	DietPlans Collection = "diet_plans"
)

// Collections lists every cacheable collection.
var Collections = []Collection{Clients, Plans, Foods, Exercises, Routines, DietPlans}

// Draft names a draft that can be saved.
type Draft string

const (
	DraftDietPlan Draft = "diet_plan"
	DraftRoutine  Draft = "routine"
)

var ErrSaveInProgress = errors.New("this draft is already being saved")

// State is the mutable content of a workspace. It is only reachable inside Update and View.
type State struct {
	Diet    dietplan.WeeklyPlan
	Routine routine.Routine
	Modal   assignment.Modal

	Clients   []catalog.Client
	Plans     []catalog.Plan
	Foods     []catalog.Food
	Exercises []catalog.Exercise
	Routines  []routine.Remote
	DietPlans []dietplan.Remote

	loadedAt map[Collection]time.Time
	views    map[Collection]*listutil.View
}

// NewDietDraft returns the blank diet plan a workspace starts with.
func NewDietDraft() dietplan.WeeklyPlan {
	return dietplan.New(dietplan.Metadata{Goal: string(catalog.DefaultGoal)})
}

// NewRoutineDraft returns the blank routine a workspace starts with.
func NewRoutineDraft() routine.Routine {
	return routine.New(routine.Metadata{Level: routine.LevelBeginner, EstimatedDuration: routine.DefaultDuration})
}

// Loaded reports whether c has been fetched since the last invalidation.
func (s *State) Loaded(c Collection) bool {
	_, ok := s.loadedAt[c]
	return ok
}

// LoadedAt returns when c was last fetched.
func (s *State) LoadedAt(c Collection) time.Time {
	return s.loadedAt[c]
}

// MarkLoaded records that c was fetched at now.
func (s *State) MarkLoaded(c Collection, now time.Time) {
	s.loadedAt[c] = now
}

// Invalidate forces the next read of c to refetch.
func (s *State) Invalidate(c Collection) {
	delete(s.loadedAt, c)
}

// View returns the remembered list state of c, creating it on first use.
func (s *State) View(c Collection) *listutil.View {
	v, ok := s.views[c]
	if !ok {
		v = listutil.NewView()
		s.views[c] = v
	}
	return v
}

// Workspace is the state of one dashboard session.
// INVARIANT: State is only touched with mu held
type Workspace struct {
	mu     sync.Mutex
	state  State
	saving map[Draft]bool
}

func newWorkspace() *Workspace {
	return &Workspace{
		state: State{
			Diet:     NewDietDraft(),
			Routine:  NewRoutineDraft(),
			loadedAt: map[Collection]time.Time{},
			views:    map[Collection]*listutil.View{},
		},
		saving: map[Draft]bool{},
	}
}

// Update runs fn with exclusive access to the state.
// fn must not block on the network; fetch first, then Update with the result.
func (w *Workspace) Update(fn func(*State) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(&w.state)
}

// UpdateDraft runs fn like Update, unless a save of d is in flight.
// POST: returns ErrSaveInProgress without calling fn while d is being saved
func (w *Workspace) UpdateDraft(d Draft, fn func(*State) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saving[d] {
		return ErrSaveInProgress
	}
	return fn(&w.state)
}

// BeginSave marks d as being saved.
// POST: returns ErrSaveInProgress if a save of d has not ended yet
func (w *Workspace) BeginSave(d Draft) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saving[d] {
		return ErrSaveInProgress
	}
	w.saving[d] = true
	return nil
}

// EndSave releases the save guard of d.
func (w *Workspace) EndSave(d Draft) {
	w.mu.Lock()
	delete(w.saving, d)
	w.mu.Unlock()
}

// Store maps dashboard session ids to workspaces.
type Store struct {
	mu sync.Mutex
	m  map[string]*Workspace
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{m: map[string]*Workspace{}}
}

// Get returns the workspace of sessionID, creating a blank one on first use.
func (s *Store) Get(sessionID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.m[sessionID]
	if !ok {
		w = newWorkspace()
		s.m[sessionID] = w
	}
	return w
}

// Drop discards the workspace of sessionID, drafts included.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
}

// Retain drops every workspace whose session id keep rejects.
func (s *Store) Retain(keep func(sessionID string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id := range s.m {
		if !keep(id) {
			delete(s.m, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
