package planner

import (
	"context"
	"strings"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateTask adds a task. A task linked to a goal contributes GoalValue (1
// by default) to it once done.
func (s *Store) CreateTask(ctx context.Context, in models.Task, origin models.Origin) (*models.Task, error) {
	var out models.Task
	err := s.mutate(ctx, func() error {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "task title")
		}
		t := in
		if t.Status == "" {
			t.Status = models.TaskTodo
		}
		if !validTaskStatus(t.Status) {
			return apperr.Validationf(apperr.ErrInvalidStatus, "task status %q", t.Status)
		}
		if t.GoalID != "" {
			if _, ok := s.goals[t.GoalID]; !ok {
				return apperr.NotFound("goal", t.GoalID)
			}
		}
		t.ID = s.ids.New("task")
		t.Title = title
		if t.GoalValue <= 0 || !fx.Finite(t.GoalValue) {
			t.GoalValue = 1
		}
		t.FocusTotalMinutes = 0
		t.CompletedAt = 0
		if t.Status == models.TaskDone {
			t.CompletedAt = s.now().Unix()
		}
		t.CreatedAt, t.UpdatedAt = 0, 0
		s.stamp(&t.CreatedAt, &t.UpdatedAt)

		s.tasks[t.ID] = &t
		s.syncTaskCheckInLocked(&t)
		s.recomputeLocked()
		s.persistNewTask(&t)
		s.emit(events.TaskUpdated, origin, events.TaskEvent{Task: t})
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask edits a task. Completing a linked task adds a task check-in to
// its goal; reopening it or moving it to another goal takes the check-in back.
func (s *Store) UpdateTask(ctx context.Context, id string, upd models.TaskUpdate, origin models.Origin) (*models.Task, error) {
	var out models.Task
	err := s.mutate(ctx, func() error {
		t, ok := s.tasks[id]
		if !ok {
			return apperr.NotFound("task", id)
		}
		if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "task title")
		}
		if upd.Status != nil && !validTaskStatus(*upd.Status) {
			return apperr.Validationf(apperr.ErrInvalidStatus, "task status %q", *upd.Status)
		}
		if upd.GoalID != nil && *upd.GoalID != "" {
			if _, ok := s.goals[*upd.GoalID]; !ok {
				return apperr.NotFound("goal", *upd.GoalID)
			}
		}
		prev := *t

		if upd.Title != nil {
			t.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Status != nil && *upd.Status != t.Status {
			t.Status = *upd.Status
			if t.Status == models.TaskDone {
				t.CompletedAt = s.now().Unix()
			} else {
				t.CompletedAt = 0
			}
		}
		if upd.GoalID != nil {
			t.GoalID = *upd.GoalID
		}
		if upd.GoalValue != nil && *upd.GoalValue > 0 && fx.Finite(*upd.GoalValue) {
			t.GoalValue = *upd.GoalValue
		}
		if upd.DueDate != nil {
			t.DueDate = *upd.DueDate
		}
		s.stamp(&t.CreatedAt, &t.UpdatedAt)

		s.syncTaskCheckInLocked(t)
		s.recomputeLocked()
		s.persistTask(t)
		s.emit(events.TaskUpdated, origin, events.TaskEvent{Task: *t, Previous: &prev})
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTaskStatus moves a task to a new status.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, origin models.Origin) (*models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskUpdate{Status: &status}, origin)
}

// DeleteTask removes a task with its focus sessions and check-ins.
func (s *Store) DeleteTask(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		if _, ok := s.tasks[id]; !ok {
			return apperr.NotFound("task", id)
		}
		delete(s.tasks, id)
		for sid, fs := range s.sessions {
			if fs.TaskID == id {
				delete(s.sessions, sid)
			}
		}
		for _, g := range s.goals {
			if s.removeCheckInsLocked(g, func(c models.GoalCheckIn) bool {
				return c.SourceType == models.SourceTask && c.SourceID == id
			}) > 0 {
				s.stamp(&g.CreatedAt, &g.UpdatedAt)
				s.persistGoal(g)
			}
		}
		s.recomputeLocked()
		s.persistDeleteTask(id)
		return nil
	})
}

// syncTaskCheckInLocked leaves exactly one task check-in on the task's goal
// while the task is done, and none otherwise.
func (s *Store) syncTaskCheckInLocked(t *models.Task) {
	for _, g := range s.goals {
		if s.removeCheckInsLocked(g, func(c models.GoalCheckIn) bool {
			return c.SourceType == models.SourceTask && c.SourceID == t.ID
		}) > 0 && g.ID != t.GoalID {
			s.stamp(&g.CreatedAt, &g.UpdatedAt)
			s.persistGoal(g)
		}
	}
	g, ok := s.goals[t.GoalID]
	if !ok {
		return
	}
	if t.Status == models.TaskDone && !g.IsMoney() {
		s.insertCheckInLocked(g, models.GoalCheckIn{
			Value:      t.GoalValue,
			SourceType: models.SourceTask,
			SourceID:   t.ID,
			DateKey:    models.DateKey(time.Unix(t.CompletedAt, 0).In(s.now().Location())),
			Note:       t.Title,
		})
	}
	s.stamp(&g.CreatedAt, &g.UpdatedAt)
	s.persistGoal(g)
}

func validTaskStatus(st models.TaskStatus) bool {
	switch st {
	case models.TaskTodo, models.TaskInProgress, models.TaskDone, models.TaskCanceled:
		return true
	}
	return false
}
