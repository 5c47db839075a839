package orchestrators

import (
	"context"
	"errors"
	"sync"
	"time"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
	"trainerdash/internal/domain/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

var errUpstream = errors.New("upstream exploded")

type savedRoutine struct {
	id  int64
	req routine.SaveRequest
}

type assignCall struct {
	endpoint string
	payload  any
}

type deleteCall struct {
	resource api.Resource
	id       int64
}

// mockAPIForOrch implements every upstream interface the orchestrators use.
type mockAPIForOrch struct {
	mu    sync.Mutex
	calls map[string]int

	loginResp api.LoginResponse
	loginErr  error

	foods     []catalog.Food
	exercises []catalog.Exercise
	routines  []routine.Remote
	plans     []catalog.Plan
	byGoal    []catalog.Client
	students  []catalog.Client
	listErr   error
	onList    func()

	nextID       int64
	saveErr      error
	savedDiets   []dietplan.SaveRequest
	savedRoutine []savedRoutine

	assignErr error
	assigned  []assignCall

	deleteErr error
	deleted   []deleteCall

	registerErr error
	registered  []catalog.Registration

	updateErr error
	updated   map[int64]catalog.PlanUpdate

	catalogErr     error
	savedFoods     []savedFood
	savedExercises []savedExercise
}

type savedFood struct {
	id int64
	in catalog.FoodInput
}

type savedExercise struct {
	id int64
	in catalog.ExerciseInput
}

func newMockAPI() *mockAPIForOrch {
	return &mockAPIForOrch{calls: map[string]int{}, nextID: 41, updated: map[int64]catalog.PlanUpdate{}}
}

func (m *mockAPIForOrch) hit(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

func (m *mockAPIForOrch) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockAPIForOrch) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockAPIForOrch) list(name string) error {
	m.hit(name)
	if m.onList != nil {
		m.onList()
	}
	return m.listErr
}

func (m *mockAPIForOrch) Login(_ context.Context, email, password string) (api.LoginResponse, error) {
	m.hit("login")
	return m.loginResp, m.loginErr
}

func (m *mockAPIForOrch) ListFoods(context.Context) ([]catalog.Food, error) {
	return m.foods, m.list("foods")
}

func (m *mockAPIForOrch) ListExercises(context.Context) ([]catalog.Exercise, error) {
	return m.exercises, m.list("exercises")
}

func (m *mockAPIForOrch) ListRoutines(context.Context) ([]routine.Remote, error) {
	return m.routines, m.list("routines")
}

func (m *mockAPIForOrch) ListPlans(context.Context) ([]catalog.Plan, error) {
	return m.plans, m.list("plans")
}

func (m *mockAPIForOrch) ListUsersByGoal(_ context.Context, goal string) ([]catalog.Client, error) {
	return m.byGoal, m.list("users_by_goal:" + goal)
}

func (m *mockAPIForOrch) ListMyStudents(context.Context) ([]catalog.Client, error) {
	return m.students, m.list("my_students")
}

func (m *mockAPIForOrch) CreateDietPlan(_ context.Context, req dietplan.SaveRequest) (int64, error) {
	m.hit("create_diet_plan")
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.savedDiets = append(m.savedDiets, req)
	return m.nextID, nil
}

func (m *mockAPIForOrch) SaveRoutine(_ context.Context, id int64, req routine.SaveRequest) (int64, error) {
	m.hit("save_routine")
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.savedRoutine = append(m.savedRoutine, savedRoutine{id: id, req: req})
	if id > 0 {
		return id, nil
	}
	return m.nextID, nil
}

func (m *mockAPIForOrch) Assign(_ context.Context, endpoint string, payload any) error {
	m.hit("assign")
	if m.assignErr != nil {
		return m.assignErr
	}
	m.assigned = append(m.assigned, assignCall{endpoint: endpoint, payload: payload})
	return nil
}

func (m *mockAPIForOrch) DeleteResource(_ context.Context, r api.Resource, id int64) error {
	m.hit("delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, deleteCall{resource: r, id: id})
	return nil
}

func (m *mockAPIForOrch) Register(_ context.Context, reg catalog.Registration) error {
	m.hit("register")
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered = append(m.registered, reg)
	return nil
}

func (m *mockAPIForOrch) UpdatePlan(_ context.Context, id int64, upd catalog.PlanUpdate) error {
	m.hit("update_plan")
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated[id] = upd
	return nil
}

func (m *mockAPIForOrch) SaveFood(_ context.Context, id int64, in catalog.FoodInput) (int64, error) {
	m.hit("save_food")
	if m.catalogErr != nil {
		return 0, m.catalogErr
	}
	m.savedFoods = append(m.savedFoods, savedFood{id: id, in: in})
	if id > 0 {
		return id, nil
	}
	return m.nextID, nil
}

func (m *mockAPIForOrch) SaveExercise(_ context.Context, id int64, in catalog.ExerciseInput) (int64, error) {
	m.hit("save_exercise")
	if m.catalogErr != nil {
		return 0, m.catalogErr
	}
	m.savedExercises = append(m.savedExercises, savedExercise{id: id, in: in})
	if id > 0 {
		return id, nil
	}
	return m.nextID, nil
}

// mockSessionStoreForOrch implements SessionStoreForOrchestrator.
type mockSessionStoreForOrch struct {
	sessions map[string]session.Session
	saveErr  error
}

func newMockSessionStore() *mockSessionStoreForOrch {
	return &mockSessionStoreForOrch{sessions: map[string]session.Session{}}
}

func (m *mockSessionStoreForOrch) Save(_ context.Context, s session.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStoreForOrch) Get(_ context.Context, id string, now time.Time) (session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if s.Expired(now) {
		delete(m.sessions, id)
		return session.Session{}, session.ErrExpired
	}
	return s, nil
}

func (m *mockSessionStoreForOrch) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// mockAuditForOrch implements AuditRecorder.
type mockAuditForOrch struct {
	events []audit.Event
	err    error
}

func (m *mockAuditForOrch) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditForOrch) last() audit.Event {
	if len(m.events) == 0 {
		return audit.Event{}
	}
	return m.events[len(m.events)-1]
}

func testActor() Actor {
	return Actor{
		Session: session.Session{
			ID:    "sess-1",
			Token: "tok",
			User:  session.User{ID: 7, Name: "Coach Ana", Email: "ana@example.com", Role: session.RoleTrainer},
		},
		IP: "10.0.0.1",
	}
}

func newTestWorkspace() *workspace.Workspace {
	return workspace.NewStore().Get("sess-1")
}

var (
	chicken = catalog.Food{ID: 1, Name: "Chicken breast", Category: "Proteína", CaloriesPer100: 165}
	rice    = catalog.Food{ID: 2, Name: "White rice", Category: "Cereal/Grano", CaloriesPer100: 130}
	squat   = catalog.Exercise{ID: 10, Name: "Squat", MuscleGroup: "Legs"}
	bench   = catalog.Exercise{ID: 11, Name: "Bench press", MuscleGroup: "Chest"}
)
