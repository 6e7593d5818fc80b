package planner

import (
	"context"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage"
)

func (s *Store) persistNewGoal(g *models.Goal) {
	cp := cloneGoal(*g)
	s.persist.Enqueue("goal.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateGoal(ctx, &cp)
	})
}

func (s *Store) persistGoal(g *models.Goal) {
	cp := cloneGoal(*g)
	s.persist.Enqueue("goal.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateGoal(ctx, &cp)
	})
}

func (s *Store) persistDeleteGoal(id string) {
	s.persist.Enqueue("goal.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteGoal(ctx, id)
	})
}

func (s *Store) persistNewHabit(h *models.Habit) {
	cp := cloneHabit(*h)
	s.persist.Enqueue("habit.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateHabit(ctx, &cp)
	})
}

func (s *Store) persistHabit(h *models.Habit) {
	cp := cloneHabit(*h)
	s.persist.Enqueue("habit.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateHabit(ctx, &cp)
	})
}

func (s *Store) persistDeleteHabit(id string) {
	s.persist.Enqueue("habit.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteHabit(ctx, id)
	})
}

func (s *Store) persistNewTask(t *models.Task) {
	cp := *t
	s.persist.Enqueue("task.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateTask(ctx, &cp)
	})
}

func (s *Store) persistTask(t *models.Task) {
	cp := *t
	s.persist.Enqueue("task.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateTask(ctx, &cp)
	})
}

func (s *Store) persistDeleteTask(id string) {
	s.persist.Enqueue("task.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteTask(ctx, id)
	})
}

func (s *Store) persistSession(fs *models.FocusSession) {
	cp := *fs
	s.persist.Enqueue("focus.save", func(ctx context.Context, st storage.Store) error {
		return st.SaveFocusSession(ctx, &cp)
	})
}
