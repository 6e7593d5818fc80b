package planner

import (
	"context"
	"strings"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateHabit adds a habit.
func (s *Store) CreateHabit(ctx context.Context, in models.Habit, origin models.Origin) (*models.Habit, error) {
	var out models.Habit
	err := s.mutate(ctx, func() error {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "habit title")
		}
		for key, st := range in.History {
			if !validDateKey(key) {
				return apperr.Validationf(apperr.ErrInvalidDateKey, "got %q", key)
			}
			if !validHabitStatus(st) {
				return apperr.Validationf(apperr.ErrInvalidStatus, "habit day %q", st)
			}
		}
		h := cloneHabit(in)
		h.ID = s.ids.New("habit")
		h.Title = title
		h.CreatedAt, h.UpdatedAt = 0, 0
		s.stamp(&h.CreatedAt, &h.UpdatedAt)

		s.habits[h.ID] = &h
		for key, st := range h.History {
			s.syncHabitCheckInsLocked(&h, key, st)
		}
		s.recomputeLocked()
		s.persistNewHabit(&h)
		out = cloneHabit(h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateHabit edits a habit's title, goal links or archive flag.
func (s *Store) UpdateHabit(ctx context.Context, id string, upd models.HabitUpdate, origin models.Origin) (*models.Habit, error) {
	var out models.Habit
	err := s.mutate(ctx, func() error {
		h, ok := s.habits[id]
		if !ok {
			return apperr.NotFound("habit", id)
		}
		if upd.Title != nil {
			title := strings.TrimSpace(*upd.Title)
			if title == "" {
				return apperr.Validationf(apperr.ErrNameRequired, "habit title")
			}
			h.Title = title
		}
		if upd.GoalIDs != nil {
			h.GoalIDs = append([]string(nil), upd.GoalIDs...)
			for key, st := range h.History {
				s.syncHabitCheckInsLocked(h, key, st)
			}
		}
		if upd.IsArchived != nil {
			h.IsArchived = *upd.IsArchived
		}
		s.stamp(&h.CreatedAt, &h.UpdatedAt)
		s.recomputeLocked()
		s.persistHabit(h)
		out = cloneHabit(*h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LogHabitDay records the outcome of a habit on one day and re-derives its
// streaks and completion rate from the full history.
func (s *Store) LogHabitDay(ctx context.Context, id, dateKey string, status models.HabitDayStatus, origin models.Origin) (*models.Habit, error) {
	if dateKey == "" {
		dateKey = s.today()
	}
	if !validDateKey(dateKey) {
		return nil, apperr.Validationf(apperr.ErrInvalidDateKey, "got %q", dateKey)
	}
	if !validHabitStatus(status) {
		return nil, apperr.Validationf(apperr.ErrInvalidStatus, "habit day %q", status)
	}

	var out models.Habit
	err := s.mutate(ctx, func() error {
		h, ok := s.habits[id]
		if !ok {
			return apperr.NotFound("habit", id)
		}
		if h.History == nil {
			h.History = make(map[string]models.HabitDayStatus)
		}
		h.History[dateKey] = status
		s.syncHabitCheckInsLocked(h, dateKey, status)
		s.stamp(&h.CreatedAt, &h.UpdatedAt)
		s.recomputeLocked()
		s.persistHabit(h)
		s.emit(events.HabitDayEvaluated, origin, events.HabitDayEvent{Habit: cloneHabit(*h), DateKey: dateKey, Status: status})
		out = cloneHabit(*h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHabitDay forgets the outcome of one day.
func (s *Store) ClearHabitDay(ctx context.Context, id, dateKey string, origin models.Origin) (*models.Habit, error) {
	var out models.Habit
	err := s.mutate(ctx, func() error {
		h, ok := s.habits[id]
		if !ok {
			return apperr.NotFound("habit", id)
		}
		delete(h.History, dateKey)
		s.syncHabitCheckInsLocked(h, dateKey, "")
		s.stamp(&h.CreatedAt, &h.UpdatedAt)
		s.recomputeLocked()
		s.persistHabit(h)
		out = cloneHabit(*h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteHabit removes a habit, its goal links and the check-ins it produced.
func (s *Store) DeleteHabit(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		if _, ok := s.habits[id]; !ok {
			return apperr.NotFound("habit", id)
		}
		delete(s.habits, id)
		for _, g := range s.goals {
			changed := false
			if containsString(g.LinkedHabitIDs, id) {
				g.LinkedHabitIDs = removeString(g.LinkedHabitIDs, id)
				changed = true
			}
			if s.removeCheckInsLocked(g, func(c models.GoalCheckIn) bool {
				return c.SourceType == models.SourceHabit && c.SourceID == id
			}) > 0 {
				changed = true
			}
			if changed {
				s.stamp(&g.CreatedAt, &g.UpdatedAt)
				s.persistGoal(g)
			}
		}
		s.recomputeLocked()
		s.persistDeleteHabit(id)
		return nil
	})
}

// syncHabitCheckInsLocked keeps one habit check-in per linked goal and done
// day. Money goals are skipped; they only move with transactions.
func (s *Store) syncHabitCheckInsLocked(h *models.Habit, dateKey string, status models.HabitDayStatus) {
	for _, g := range s.goals {
		linked := containsString(h.GoalIDs, g.ID) || containsString(g.LinkedHabitIDs, h.ID)
		sameDay := func(c models.GoalCheckIn) bool {
			return c.SourceType == models.SourceHabit && c.SourceID == h.ID && c.DateKey == dateKey
		}
		if linked && status == models.HabitDone && !g.IsMoney() {
			s.insertCheckInLocked(g, models.GoalCheckIn{
				Value:      1,
				SourceType: models.SourceHabit,
				SourceID:   h.ID,
				DateKey:    dateKey,
			})
		} else if s.removeCheckInsLocked(g, sameDay) == 0 {
			continue
		}
		s.stamp(&g.CreatedAt, &g.UpdatedAt)
		s.persistGoal(g)
	}
}

func validHabitStatus(st models.HabitDayStatus) bool {
	return st == models.HabitDone || st == models.HabitMiss
}

func parseDateKey(key string) (time.Time, error) {
	return time.Parse(models.DateKeyLayout, key)
}
