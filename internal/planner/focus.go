package planner

import (
	"context"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// FocusInput starts a focus session on a task, a goal, or both.
type FocusInput struct {
	TaskID string
	GoalID string
}

// StartFocus opens a running focus session. A todo task moves to in progress.
func (s *Store) StartFocus(ctx context.Context, in FocusInput, origin models.Origin) (*models.FocusSession, error) {
	var out models.FocusSession
	err := s.mutate(ctx, func() error {
		goalID := in.GoalID
		var task *models.Task
		if in.TaskID != "" {
			t, ok := s.tasks[in.TaskID]
			if !ok {
				return apperr.NotFound("task", in.TaskID)
			}
			task = t
			if goalID == "" {
				goalID = t.GoalID
			}
		}
		if goalID != "" {
			if _, ok := s.goals[goalID]; !ok {
				return apperr.NotFound("goal", goalID)
			}
		}
		if task != nil && task.Status == models.TaskTodo {
			prev := *task
			task.Status = models.TaskInProgress
			s.stamp(&task.CreatedAt, &task.UpdatedAt)
			s.persistTask(task)
			s.emit(events.TaskUpdated, origin, events.TaskEvent{Task: *task, Previous: &prev})
		}
		fs := &models.FocusSession{
			ID:        s.ids.New("focus"),
			TaskID:    in.TaskID,
			GoalID:    goalID,
			Status:    models.FocusRunning,
			StartedAt: s.now().Unix(),
		}
		s.sessions[fs.ID] = fs
		s.recomputeLocked()
		s.persistSession(fs)
		out = *fs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FinishFocus completes a running session. Minutes defaults to the elapsed
// time. The task's focus total is re-derived from its completed sessions and
// a duration goal gets a focus check-in.
func (s *Store) FinishFocus(ctx context.Context, id string, minutes float64, origin models.Origin) (*models.FocusSession, error) {
	var out models.FocusSession
	err := s.mutate(ctx, func() error {
		fs, ok := s.sessions[id]
		if !ok {
			return apperr.NotFound("focus session", id)
		}
		if fs.Status != models.FocusRunning {
			return apperr.ErrFocusNotRunning
		}
		now := s.now()
		if minutes <= 0 || !fx.Finite(minutes) {
			minutes = now.Sub(time.Unix(fs.StartedAt, 0)).Minutes()
			if minutes < 0 {
				minutes = 0
			}
		}
		fs.Status = models.FocusCompleted
		fs.Minutes = minutes
		fs.EndedAt = now.Unix()
		s.persistSession(fs)

		if t, ok := s.tasks[fs.TaskID]; ok {
			total := 0.0
			for _, other := range s.sessions {
				if other.TaskID == t.ID && other.Status == models.FocusCompleted {
					total = calculator.Add(total, other.Minutes)
				}
			}
			t.FocusTotalMinutes = total
			s.stamp(&t.CreatedAt, &t.UpdatedAt)
			s.persistTask(t)
		}
		if g, ok := s.goals[fs.GoalID]; ok && g.MetricType == models.MetricDuration {
			s.insertCheckInLocked(g, models.GoalCheckIn{
				Value:      minutes,
				SourceType: models.SourceFocus,
				SourceID:   fs.ID,
			})
			s.stamp(&g.CreatedAt, &g.UpdatedAt)
			s.persistGoal(g)
		}

		s.recomputeLocked()
		s.emit(events.FocusCompleted, origin, events.FocusEvent{Session: *fs})
		out = *fs
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Focus session finished", "session_id", out.ID, "minutes", out.Minutes)
	return &out, nil
}

// CancelFocus abandons a running session. Canceled sessions never count.
func (s *Store) CancelFocus(ctx context.Context, id string, origin models.Origin) (*models.FocusSession, error) {
	var out models.FocusSession
	err := s.mutate(ctx, func() error {
		fs, ok := s.sessions[id]
		if !ok {
			return apperr.NotFound("focus session", id)
		}
		if fs.Status != models.FocusRunning {
			return apperr.ErrFocusNotRunning
		}
		fs.Status = models.FocusCanceled
		fs.EndedAt = s.now().Unix()
		s.persistSession(fs)
		s.recomputeLocked()
		out = *fs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
