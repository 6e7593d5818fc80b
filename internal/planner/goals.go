package planner

import (
	"context"
	"strings"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CheckInInput describes one progress contribution.
type CheckInInput struct {
	GoalID     string
	Value      float64
	Note       string
	SourceType models.CheckInSource
	SourceID   string

	// DateKey defaults to today.
	DateKey string
}

// CreateGoal adds a goal.
func (s *Store) CreateGoal(ctx context.Context, in models.Goal, origin models.Origin) (*models.Goal, error) {
	var out models.Goal
	err := s.mutate(ctx, func() error {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "goal title")
		}
		g := cloneGoal(in)
		g.ID = s.ids.New("goal")
		g.Title = title
		if g.MetricType == "" {
			g.MetricType = models.MetricNone
		}
		if g.Status == "" {
			g.Status = models.GoalActive
		}
		if !validGoalStatus(g.Status) {
			return apperr.Validationf(apperr.ErrInvalidStatus, "goal status %q", g.Status)
		}
		g.Currency = fx.Normalize(g.Currency)
		if !fx.Finite(g.TargetValue) || g.TargetValue < 0 {
			g.TargetValue = 0
		}
		g.CheckIns = nil
		g.FinanceContributionIDs = nil
		g.Milestones = s.withMilestoneIDs(g.Milestones)
		g.CreatedAt, g.UpdatedAt = 0, 0
		s.stamp(&g.CreatedAt, &g.UpdatedAt)

		s.goals[g.ID] = &g
		s.recomputeLocked()
		s.persistNewGoal(&g)
		s.emit(events.GoalCreated, origin, events.GoalEvent{Goal: cloneGoal(g)})
		out = cloneGoal(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Goal created", "goal_id", out.ID, "metric", out.MetricType, "target", out.TargetValue)
	return &out, nil
}

// UpdateGoal edits a goal.
//
// Setting CurrentValue on a money goal does not move progress by itself: the
// increase is published as an unbacked delta so that a real transaction can
// be booked for it. On other goals it is recorded as a manual check-in.
func (s *Store) UpdateGoal(ctx context.Context, id string, upd models.GoalUpdate, origin models.Origin) (*models.Goal, error) {
	var out models.Goal
	err := s.mutate(ctx, func() error {
		g, ok := s.goals[id]
		if !ok {
			return apperr.NotFound("goal", id)
		}
		if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "goal title")
		}
		if upd.Status != nil && !validGoalStatus(*upd.Status) {
			return apperr.Validationf(apperr.ErrInvalidStatus, "goal status %q", *upd.Status)
		}
		prev := cloneGoal(*g)

		if upd.Title != nil {
			g.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.TargetValue != nil && fx.Finite(*upd.TargetValue) && *upd.TargetValue >= 0 {
			g.TargetValue = *upd.TargetValue
		}
		if upd.Status != nil {
			g.Status = *upd.Status
		}
		if upd.FinanceMode != nil {
			g.FinanceMode = *upd.FinanceMode
		}
		if upd.LinkedBudgetID != nil {
			g.LinkedBudgetID = *upd.LinkedBudgetID
		}
		if upd.LinkedDebtID != nil {
			g.LinkedDebtID = *upd.LinkedDebtID
		}
		if upd.LinkedHabitIDs != nil {
			g.LinkedHabitIDs = append([]string(nil), upd.LinkedHabitIDs...)
		}
		if upd.Milestones != nil {
			g.Milestones = s.withMilestoneIDs(upd.Milestones)
		}
		if upd.DueDate != nil {
			g.DueDate = *upd.DueDate
		}

		var unbacked float64
		if upd.CurrentValue != nil && fx.Finite(*upd.CurrentValue) {
			unbacked = s.setCurrentValueLocked(g, *upd.CurrentValue, origin)
		}

		s.stamp(&g.CreatedAt, &g.UpdatedAt)
		s.recomputeLocked()
		s.persistGoal(g)
		s.emit(events.GoalUpdated, origin, events.GoalEvent{
			Goal:          cloneGoal(*g),
			Previous:      &prev,
			UnbackedDelta: unbacked,
		})
		out = cloneGoal(*g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// setCurrentValueLocked applies a directly edited current value and returns
// the part of it that still needs a backing transaction.
func (s *Store) setCurrentValueLocked(g *models.Goal, want float64, origin models.Origin) float64 {
	switch {
	case g.IsMoney():
		if !origin.Propagate() {
			return 0
		}
		delta := calculator.Add(want, -g.CurrentValue)
		if g.TargetValue > 0 {
			if remaining := calculator.Add(g.TargetValue, -g.CurrentValue); delta > remaining {
				delta = remaining
			}
		}
		if delta <= 0 {
			s.logger.Debug("Ignoring money goal decrease without a transaction", "goal_id", g.ID, "want", want)
			return 0
		}
		return delta
	case g.MetricType == models.MetricWeight:
		s.insertCheckInLocked(g, models.GoalCheckIn{
			Value:      want,
			SourceType: models.SourceManual,
			SourceID:   "current-value",
			Note:       "Current value",
		})
	default:
		if delta := calculator.Add(want, -g.CurrentValue); delta != 0 {
			s.insertCheckInLocked(g, models.GoalCheckIn{
				Value:      delta,
				SourceType: models.SourceManual,
				Note:       "Adjusted current value",
			})
		}
	}
	return 0
}

// DeleteGoal removes a goal and unlinks the tasks, habits and focus sessions
// that pointed at it.
func (s *Store) DeleteGoal(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		g, ok := s.goals[id]
		if !ok {
			return apperr.NotFound("goal", id)
		}
		prev := cloneGoal(*g)
		delete(s.goals, id)

		for _, t := range s.tasks {
			if t.GoalID == id {
				t.GoalID = ""
				s.stamp(&t.CreatedAt, &t.UpdatedAt)
				s.persistTask(t)
			}
		}
		for _, h := range s.habits {
			if containsString(h.GoalIDs, id) {
				h.GoalIDs = removeString(h.GoalIDs, id)
				s.stamp(&h.CreatedAt, &h.UpdatedAt)
				s.persistHabit(h)
			}
		}
		for _, fs := range s.sessions {
			if fs.GoalID == id {
				fs.GoalID = ""
				s.persistSession(fs)
			}
		}

		s.recomputeLocked()
		s.persistDeleteGoal(id)
		s.emit(events.GoalDeleted, origin, events.GoalEvent{Goal: prev, Previous: &prev})
		return nil
	})
}

// AddGoalCheckIn records progress on a goal.
//
// Money goals are never credited directly: unless the check-in already comes
// from finance, the amount is booked through the finance bridge and the
// resulting finance check-in is returned. Check-ins with a source ID replace
// an earlier one for the same source and day. On money goals the value is
// clamped to the remaining distance to the target.
func (s *Store) AddGoalCheckIn(ctx context.Context, in CheckInInput, origin models.Origin) (*models.GoalCheckIn, error) {
	if in.SourceType == "" {
		in.SourceType = models.SourceManual
	}
	if in.DateKey != "" && !validDateKey(in.DateKey) {
		return nil, apperr.Validationf(apperr.ErrInvalidDateKey, "got %q", in.DateKey)
	}

	s.mu.Lock()
	g, ok := s.goals[in.GoalID]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("goal", in.GoalID)
	}
	bridge := s.bridge
	redirect := g.IsMoney() && in.SourceType != models.SourceFinance && bridge != nil
	snapshot := cloneGoal(*g)
	s.mu.Unlock()

	if redirect {
		return s.redirectCheckIn(ctx, bridge, snapshot, in)
	}

	var out models.GoalCheckIn
	err := s.mutate(ctx, func() error {
		g, ok := s.goals[in.GoalID]
		if !ok {
			return apperr.NotFound("goal", in.GoalID)
		}
		out = s.insertCheckInLocked(g, models.GoalCheckIn{
			Value:      in.Value,
			Note:       in.Note,
			SourceType: in.SourceType,
			SourceID:   in.SourceID,
			DateKey:    in.DateKey,
		})
		s.stamp(&g.CreatedAt, &g.UpdatedAt)
		s.recomputeLocked()
		s.persistGoal(g)
		s.emit(events.GoalCheckInAdded, origin, events.CheckInEvent{Goal: cloneGoal(*g), CheckIn: out})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) redirectCheckIn(ctx context.Context, bridge FinanceBridge, g models.Goal, in CheckInInput) (*models.GoalCheckIn, error) {
	amount := in.Value
	if !fx.Finite(amount) || amount <= 0 {
		return nil, apperr.Validationf(apperr.ErrInvalidAmount, "money check-ins must be positive")
	}
	if g.TargetValue > 0 {
		if remaining := calculator.Add(g.TargetValue, -g.CurrentValue); amount > remaining {
			amount = remaining
		}
	}
	if amount <= 0 {
		return nil, apperr.Validationf(apperr.ErrInvalidAmount, "goal %s already reached its target", g.ID)
	}

	sourceID, err := bridge.FundGoal(ctx, g, amount, in.Note)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Money check-in redirected to finance", "goal_id", g.ID, "source_id", sourceID, "amount", amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.goals[g.ID]; ok {
		for _, c := range stored.CheckIns {
			if c.SourceType == models.SourceFinance && c.SourceID == sourceID {
				out := c
				return &out, nil
			}
		}
	}
	s.logger.Warn("Redirected check-in did not come back from finance", "goal_id", g.ID, "source_id", sourceID)
	return nil, nil
}

// RemoveGoalCheckIn deletes one check-in. Finance check-ins can only go away
// with their transaction.
func (s *Store) RemoveGoalCheckIn(ctx context.Context, goalID, checkInID string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		g, ok := s.goals[goalID]
		if !ok {
			return apperr.NotFound("goal", goalID)
		}
		idx := -1
		for i, c := range g.CheckIns {
			if c.ID == checkInID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperr.NotFound("check-in", checkInID)
		}
		if g.CheckIns[idx].SourceType == models.SourceFinance && origin.Propagate() {
			return apperr.ErrFinanceCheckIn
		}
		prev := cloneGoal(*g)
		g.CheckIns = append(g.CheckIns[:idx:idx], g.CheckIns[idx+1:]...)
		s.stamp(&g.CreatedAt, &g.UpdatedAt)
		s.recomputeLocked()
		s.persistGoal(g)
		s.emit(events.GoalUpdated, origin, events.GoalEvent{Goal: cloneGoal(*g), Previous: &prev})
		return nil
	})
}

// RemoveFinanceContribution strips the finance check-ins produced by
// sourceID from every goal and returns how many were removed.
func (s *Store) RemoveFinanceContribution(ctx context.Context, sourceID string, origin models.Origin) int {
	var removed int
	_ = s.mutate(ctx, func() error {
		for _, g := range s.goals {
			n := s.removeCheckInsLocked(g, func(c models.GoalCheckIn) bool {
				return c.SourceType == models.SourceFinance && c.SourceID == sourceID
			})
			if n == 0 {
				continue
			}
			removed += n
			s.stamp(&g.CreatedAt, &g.UpdatedAt)
			s.persistGoal(g)
		}
		if removed > 0 {
			s.recomputeLocked()
		}
		return nil
	})
	return removed
}

// insertCheckInLocked adds c to g, replacing a check-in from the same source
// on the same day. Progress is not re-derived here.
func (s *Store) insertCheckInLocked(g *models.Goal, c models.GoalCheckIn) models.GoalCheckIn {
	if !fx.Finite(c.Value) {
		c.Value = 0
	}
	if c.DateKey == "" {
		c.DateKey = s.today()
	}
	c.GoalID = g.ID
	c.CreatedAt = s.now().Unix()

	idx := -1
	if c.SourceID != "" {
		for i, existing := range g.CheckIns {
			if existing.SourceType == c.SourceType && existing.SourceID == c.SourceID && existing.DateKey == c.DateKey {
				idx = i
				break
			}
		}
	}

	if g.IsMoney() && g.TargetValue > 0 {
		current := g.CurrentValue
		if idx >= 0 {
			current = calculator.Add(current, -g.CheckIns[idx].Value)
		}
		remaining := calculator.Add(g.TargetValue, -current)
		if remaining < 0 {
			remaining = 0
		}
		if c.Value > remaining {
			c.Value = remaining
		}
	}

	if idx >= 0 {
		c.ID = g.CheckIns[idx].ID
		g.CheckIns[idx] = c
		return c
	}
	c.ID = s.ids.New("chk")
	g.CheckIns = append(g.CheckIns, c)
	return c
}

func (s *Store) removeCheckInsLocked(g *models.Goal, match func(models.GoalCheckIn) bool) int {
	kept := g.CheckIns[:0:0]
	for _, c := range g.CheckIns {
		if !match(c) {
			kept = append(kept, c)
		}
	}
	n := len(g.CheckIns) - len(kept)
	if n > 0 {
		g.CheckIns = kept
	}
	return n
}

func (s *Store) withMilestoneIDs(ms []models.Milestone) []models.Milestone {
	out := make([]models.Milestone, len(ms))
	copy(out, ms)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = s.ids.New("ms")
		}
	}
	return out
}

func validGoalStatus(st models.GoalStatus) bool {
	switch st {
	case models.GoalActive, models.GoalPaused, models.GoalCompleted, models.GoalArchived:
		return true
	}
	return false
}

func validDateKey(key string) bool {
	_, err := parseDateKey(key)
	return err == nil
}
