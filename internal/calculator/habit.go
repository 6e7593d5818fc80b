package calculator

import (
	"sort"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// HabitWindowDays is the window of the completion rate.
const HabitWindowDays = 30

// HabitStats holds the derived fields of a habit.
type HabitStats struct {
	StreakCurrent     int
	StreakBest        int
	CompletionRate30d float64
}

// DeriveHabitStats recomputes streaks and the 30-day completion rate from the
// full history of a habit, as of today.
//
// The current streak counts consecutive done days ending today, or ending
// yesterday when today has not been evaluated yet. The completion rate divides
// done days by the days of the window the habit existed for.
func DeriveHabitStats(h models.Habit, today time.Time) HabitStats {
	today = day(today)

	var doneDays []time.Time
	for key, status := range h.History {
		if status != models.HabitDone {
			continue
		}
		t, err := time.ParseInLocation(models.DateKeyLayout, key, today.Location())
		if err != nil {
			continue
		}
		doneDays = append(doneDays, t)
	}
	sort.Slice(doneDays, func(i, j int) bool { return doneDays[i].Before(doneDays[j]) })

	var s HabitStats

	run := 0
	for i, d := range doneDays {
		if i > 0 && d.Equal(doneDays[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > s.StreakBest {
			s.StreakBest = run
		}
	}

	cursor := today
	if h.History[models.DateKey(today)] != models.HabitDone {
		if h.History[models.DateKey(today)] == models.HabitMiss {
			cursor = time.Time{}
		} else {
			cursor = today.AddDate(0, 0, -1)
		}
	}
	for !cursor.IsZero() && h.History[models.DateKey(cursor)] == models.HabitDone {
		s.StreakCurrent++
		cursor = cursor.AddDate(0, 0, -1)
	}

	window := HabitWindowDays
	if h.CreatedAt > 0 {
		created := day(time.Unix(h.CreatedAt, 0).In(today.Location()))
		age := int(today.Sub(created).Hours()/24) + 1
		if age < window {
			window = age
		}
	}
	if window < 1 {
		window = 1
	}
	start := today.AddDate(0, 0, -(window - 1))
	done := 0
	for _, d := range doneDays {
		if !d.Before(start) && !d.After(today) {
			done++
		}
	}
	s.CompletionRate30d = clamp01(float64(done) / float64(window))
	return s
}

// Apply copies the derived fields onto h.
func (s HabitStats) Apply(h *models.Habit) {
	h.StreakCurrent = s.StreakCurrent
	h.StreakBest = s.StreakBest
	h.CompletionRate30d = s.CompletionRate30d
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
