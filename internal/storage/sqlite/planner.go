package sqlite

import (
	"context"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateGoal persists a new goal, check-ins included.
func (s *SQLiteStore) CreateGoal(ctx context.Context, g *models.Goal) error {
	return s.put(ctx, colGoals, g.ID, "", g.CreatedAt, g)
}

// UpdateGoal persists a goal's current state.
func (s *SQLiteStore) UpdateGoal(ctx context.Context, g *models.Goal) error {
	return s.put(ctx, colGoals, g.ID, "", g.CreatedAt, g)
}

// DeleteGoal removes a goal.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, id string) error {
	return s.remove(ctx, colGoals, id)
}

// CreateHabit persists a new habit.
func (s *SQLiteStore) CreateHabit(ctx context.Context, h *models.Habit) error {
	return s.put(ctx, colHabits, h.ID, "", h.CreatedAt, h)
}

// UpdateHabit persists a habit's current state.
func (s *SQLiteStore) UpdateHabit(ctx context.Context, h *models.Habit) error {
	return s.put(ctx, colHabits, h.ID, "", h.CreatedAt, h)
}

// DeleteHabit removes a habit.
func (s *SQLiteStore) DeleteHabit(ctx context.Context, id string) error {
	return s.remove(ctx, colHabits, id)
}

// CreateTask persists a new task.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *models.Task) error {
	return s.put(ctx, colTasks, t.ID, "", t.CreatedAt, t)
}

// UpdateTask persists a task's current state.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t *models.Task) error {
	return s.put(ctx, colTasks, t.ID, "", t.CreatedAt, t)
}

// DeleteTask removes a task and its focus sessions.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	if err := s.removeChildren(ctx, colFocusSessions, id); err != nil {
		return err
	}
	return s.remove(ctx, colTasks, id)
}

// SaveFocusSession persists a focus session.
func (s *SQLiteStore) SaveFocusSession(ctx context.Context, fs *models.FocusSession) error {
	return s.put(ctx, colFocusSessions, fs.ID, fs.TaskID, fs.StartedAt, fs)
}
