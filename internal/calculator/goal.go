package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// GoalDerived holds the derived fields of a goal.
type GoalDerived struct {
	CurrentValue           float64
	ProgressPercent        float64
	ProgressTargetValue    float64
	FinanceContributionIDs []string
	Stats                  models.GoalStats
}

// DeriveGoalProgress recomputes a goal from its check-ins and from the tasks,
// habits and focus sessions linked to it.
//
// Overall progress is the maximum of the task, habit, financial and check-in
// percentages, except that a completed goal is always at 1.
func DeriveGoalProgress(g models.Goal, tasks []models.Task, habits []models.Habit, sessions []models.FocusSession) GoalDerived {
	var d GoalDerived

	// tasks
	goalTasks := make(map[string]bool)
	var done, inProgress float64
	for _, t := range tasks {
		if t.GoalID != g.ID {
			continue
		}
		goalTasks[t.ID] = true
		switch t.Status {
		case models.TaskCanceled:
			continue
		case models.TaskDone:
			done++
			d.Stats.TasksCompleted++
		case models.TaskInProgress:
			inProgress++
		}
		d.Stats.TasksTotal++
	}
	if d.Stats.TasksTotal > 0 {
		d.Stats.TasksProgressPercent = clamp01((done + 0.5*inProgress) / float64(d.Stats.TasksTotal))
	}

	// habits
	linked := make(map[string]bool, len(g.LinkedHabitIDs))
	for _, id := range g.LinkedHabitIDs {
		linked[id] = true
	}
	var rates []float64
	for _, h := range habits {
		if linked[h.ID] || contains(h.GoalIDs, g.ID) {
			rates = append(rates, h.CompletionRate30d)
		}
	}
	if len(rates) > 0 {
		d.Stats.HabitsProgressPercent = clamp01(sum(rates) / float64(len(rates)))
	}

	// focus
	var minutes []float64
	for _, s := range sessions {
		if s.Status != models.FocusCompleted {
			continue
		}
		if s.GoalID == g.ID || goalTasks[s.TaskID] {
			minutes = append(minutes, s.Minutes)
		}
	}
	d.Stats.FocusMinutes = sum(minutes)

	// check-ins
	var values, finance []float64
	seenTx := make(map[string]bool)
	for _, c := range g.CheckIns {
		values = append(values, c.Value)
		if c.SourceType == models.SourceFinance {
			finance = append(finance, c.Value)
			if c.SourceID != "" && !seenTx[c.SourceID] {
				seenTx[c.SourceID] = true
				d.FinanceContributionIDs = append(d.FinanceContributionIDs, c.SourceID)
			}
		}
	}
	d.Stats.FinanceContributed = sum(finance)

	if g.MetricType == models.MetricWeight {
		d.CurrentValue = latestValue(g.CheckIns, g.StartValue)
		d.ProgressTargetValue = math.Abs(g.TargetValue - g.StartValue)
		d.Stats.CheckInProgressPercent = clamp01(ratio(g.StartValue-d.CurrentValue, g.StartValue-g.TargetValue))
	} else {
		d.CurrentValue = sum(values)
		d.ProgressTargetValue = g.TargetValue
		if g.TargetValue > 0 {
			d.Stats.CheckInProgressPercent = clamp01(ratio(d.CurrentValue, g.TargetValue))
		}
	}
	if g.MetricType == models.MetricAmount {
		d.Stats.FinancialProgressPercent = d.Stats.CheckInProgressPercent
	}

	d.ProgressPercent = math.Max(
		math.Max(d.Stats.TasksProgressPercent, d.Stats.HabitsProgressPercent),
		math.Max(d.Stats.FinancialProgressPercent, d.Stats.CheckInProgressPercent),
	)
	if g.Status == models.GoalCompleted {
		d.ProgressPercent = 1
	}
	return d
}

// Apply copies the derived fields onto g.
func (d GoalDerived) Apply(g *models.Goal) {
	g.CurrentValue = d.CurrentValue
	g.ProgressPercent = d.ProgressPercent
	g.ProgressTargetValue = d.ProgressTargetValue
	g.FinanceContributionIDs = d.FinanceContributionIDs
	g.Stats = d.Stats
}

// StampMilestones marks milestones reached by progress as achieved at now.
// Milestones already achieved keep their timestamp, even if progress drops.
func StampMilestones(milestones []models.Milestone, progress float64, now time.Time) []models.Milestone {
	out := make([]models.Milestone, len(milestones))
	copy(out, milestones)
	for i := range out {
		if out[i].AchievedAt == 0 && progress+1e-9 >= out[i].TargetPercent {
			out[i].AchievedAt = now.Unix()
		}
	}
	return out
}

// latestValue returns the value of the most recent check-in, or fallback.
func latestValue(checkIns []models.GoalCheckIn, fallback float64) float64 {
	if len(checkIns) == 0 {
		return fallback
	}
	sorted := make([]models.GoalCheckIn, len(checkIns))
	copy(sorted, checkIns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DateKey != sorted[j].DateKey {
			return sorted[i].DateKey < sorted[j].DateKey
		}
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})
	return sorted[len(sorted)-1].Value
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
