// Package planner owns goals, habits, tasks and focus sessions.
//
// Goal progress is never incremented. After any change to a goal, task,
// habit or focus session every goal is re-derived from its check-ins and
// from the entities linked to it.
package planner

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/idgen"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/outbox"
)

// FinanceBridge books money progress of a goal as real finance activity.
type FinanceBridge interface {
	// FundGoal creates the transaction (or debt payment) behind amount of
	// progress on a money goal and returns its ID. The finance check-in it
	// produces is delivered back to the planner before FundGoal returns.
	FundGoal(ctx context.Context, goal models.Goal, amount float64, note string) (string, error)
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, name events.Name, origin models.Origin, payload any)
}

// Persister accepts deferred storage writes.
type Persister interface {
	Enqueue(name string, fn outbox.WriteFunc)
}

// Config wires a Store. Zero fields get working defaults.
type Config struct {
	IDs       idgen.Generator
	Bus       Publisher
	Persister Persister
	Bridge    FinanceBridge
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type pendingEvent struct {
	name    events.Name
	origin  models.Origin
	payload any
}

// Store is the in-memory planner domain.
type Store struct {
	mu sync.Mutex

	goals    map[string]*models.Goal
	habits   map[string]*models.Habit
	tasks    map[string]*models.Task
	sessions map[string]*models.FocusSession

	ids     idgen.Generator
	bus     Publisher
	persist Persister
	bridge  FinanceBridge
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	pending []pendingEvent
}

// New creates an empty planner store.
func New(cfg Config) *Store {
	s := &Store{
		goals:    make(map[string]*models.Goal),
		habits:   make(map[string]*models.Habit),
		tasks:    make(map[string]*models.Task),
		sessions: make(map[string]*models.FocusSession),

		ids:     cfg.IDs,
		bus:     cfg.Bus,
		persist: cfg.Persister,
		bridge:  cfg.Bridge,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
	if s.ids == nil {
		s.ids = idgen.UUID{}
	}
	if s.persist == nil {
		s.persist = outbox.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetFinanceBridge installs the bridge used to redirect money check-ins.
func (s *Store) SetFinanceBridge(b FinanceBridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridge = b
}

func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	err := fn()
	evs := s.pending
	s.pending = nil
	s.mu.Unlock()

	if s.bus == nil {
		return err
	}
	for _, e := range evs {
		s.bus.Publish(ctx, e.name, e.origin, e.payload)
	}
	return err
}

func (s *Store) emit(name events.Name, origin models.Origin, payload any) {
	if !origin.Propagate() {
		return
	}
	s.pending = append(s.pending, pendingEvent{name: name, origin: origin, payload: payload})
}

func (s *Store) stamp(createdAt, updatedAt *int64) {
	models.Stamp(createdAt, updatedAt, s.now())
}

func (s *Store) today() string {
	return models.DateKey(s.now())
}

// recomputeLocked re-derives habit stats and then every goal. Goals whose
// derived figures moved are persisted.
func (s *Store) recomputeLocked() {
	now := s.now()
	for _, h := range s.habits {
		calculator.DeriveHabitStats(*h, now).Apply(h)
	}

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, *t)
	}
	habits := make([]models.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		habits = append(habits, *h)
	}
	sessions := make([]models.FocusSession, 0, len(s.sessions))
	for _, fs := range s.sessions {
		sessions = append(sessions, *fs)
	}

	for _, g := range s.goals {
		old := cloneGoal(*g)
		calculator.DeriveGoalProgress(*g, tasks, habits, sessions).Apply(g)
		g.Milestones = calculator.StampMilestones(g.Milestones, g.ProgressPercent, now)
		if goalDerivedEqual(old, *g) {
			continue
		}
		s.stamp(&g.CreatedAt, &g.UpdatedAt)
		s.persistGoal(g)
	}
	s.metrics.Recomputed("goal")
}

// Recompute re-derives every habit and goal.
func (s *Store) Recompute(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

// Load replaces the store contents with a persisted snapshot and re-derives
// everything. Nothing is published.
func (s *Store) Load(ctx context.Context, st *models.PlannerState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals = make(map[string]*models.Goal, len(st.Goals))
	for i := range st.Goals {
		g := cloneGoal(st.Goals[i])
		s.goals[g.ID] = &g
	}
	s.habits = make(map[string]*models.Habit, len(st.Habits))
	for i := range st.Habits {
		h := cloneHabit(st.Habits[i])
		s.habits[h.ID] = &h
	}
	s.tasks = make(map[string]*models.Task, len(st.Tasks))
	for i := range st.Tasks {
		t := st.Tasks[i]
		s.tasks[t.ID] = &t
	}
	s.sessions = make(map[string]*models.FocusSession, len(st.FocusSessions))
	for i := range st.FocusSessions {
		fs := st.FocusSessions[i]
		s.sessions[fs.ID] = &fs
	}
	s.recomputeLocked()
	s.logger.Info("Planner state loaded",
		"goals", len(s.goals),
		"habits", len(s.habits),
		"tasks", len(s.tasks),
	)
}

// State returns a copy of every planner collection in creation order.
func (s *Store) State() *models.PlannerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &models.PlannerState{
		Goals:         make([]models.Goal, 0, len(s.goals)),
		Habits:        make([]models.Habit, 0, len(s.habits)),
		Tasks:         make([]models.Task, 0, len(s.tasks)),
		FocusSessions: make([]models.FocusSession, 0, len(s.sessions)),
	}
	for _, g := range s.goals {
		st.Goals = append(st.Goals, cloneGoal(*g))
	}
	sort.Slice(st.Goals, func(i, j int) bool {
		return before(st.Goals[i].CreatedAt, st.Goals[i].ID, st.Goals[j].CreatedAt, st.Goals[j].ID)
	})
	for _, h := range s.habits {
		st.Habits = append(st.Habits, cloneHabit(*h))
	}
	sort.Slice(st.Habits, func(i, j int) bool {
		return before(st.Habits[i].CreatedAt, st.Habits[i].ID, st.Habits[j].CreatedAt, st.Habits[j].ID)
	})
	for _, t := range s.tasks {
		st.Tasks = append(st.Tasks, *t)
	}
	sort.Slice(st.Tasks, func(i, j int) bool {
		return before(st.Tasks[i].CreatedAt, st.Tasks[i].ID, st.Tasks[j].CreatedAt, st.Tasks[j].ID)
	})
	for _, fs := range s.sessions {
		st.FocusSessions = append(st.FocusSessions, *fs)
	}
	sort.Slice(st.FocusSessions, func(i, j int) bool {
		a, b := st.FocusSessions[i], st.FocusSessions[j]
		return before(a.StartedAt, a.ID, b.StartedAt, b.ID)
	})
	return st
}

// Goal returns a copy of the goal with the given ID.
func (s *Store) Goal(id string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, apperr.NotFound("goal", id)
	}
	out := cloneGoal(*g)
	return &out, nil
}

// Habit returns a copy of the habit with the given ID.
func (s *Store) Habit(id string) (*models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, apperr.NotFound("habit", id)
	}
	out := cloneHabit(*h)
	return &out, nil
}

// Task returns a copy of the task with the given ID.
func (s *Store) Task(id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	out := *t
	return &out, nil
}

// FocusSession returns a copy of the session with the given ID.
func (s *Store) FocusSession(id string) (*models.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.sessions[id]
	if !ok {
		return nil, apperr.NotFound("focus session", id)
	}
	out := *fs
	return &out, nil
}

func before(at1 int64, id1 string, at2 int64, id2 string) bool {
	if at1 != at2 {
		return at1 < at2
	}
	return id1 < id2
}

func cloneGoal(g models.Goal) models.Goal {
	g.CheckIns = append([]models.GoalCheckIn(nil), g.CheckIns...)
	g.FinanceContributionIDs = append([]string(nil), g.FinanceContributionIDs...)
	g.LinkedHabitIDs = append([]string(nil), g.LinkedHabitIDs...)
	g.Milestones = append([]models.Milestone(nil), g.Milestones...)
	return g
}

func cloneHabit(h models.Habit) models.Habit {
	h.GoalIDs = append([]string(nil), h.GoalIDs...)
	history := make(map[string]models.HabitDayStatus, len(h.History))
	for k, v := range h.History {
		history[k] = v
	}
	h.History = history
	return h
}

func goalDerivedEqual(a, b models.Goal) bool {
	if a.CurrentValue != b.CurrentValue ||
		a.ProgressPercent != b.ProgressPercent ||
		a.ProgressTargetValue != b.ProgressTargetValue ||
		a.Stats != b.Stats ||
		len(a.FinanceContributionIDs) != len(b.FinanceContributionIDs) ||
		len(a.Milestones) != len(b.Milestones) {
		return false
	}
	for i := range a.FinanceContributionIDs {
		if a.FinanceContributionIDs[i] != b.FinanceContributionIDs[i] {
			return false
		}
	}
	for i := range a.Milestones {
		if a.Milestones[i] != b.Milestones[i] {
			return false
		}
	}
	return true
}

func removeString(list []string, v string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
