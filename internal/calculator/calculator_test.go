package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTransactionDeltas(t *testing.T) {
	tests := []struct {
		name string
		tx   models.Transaction
		sign float64
		want map[string]float64
	}{
		{
			name: "income adds to account",
			tx:   models.Transaction{Type: models.TransactionIncome, AccountID: "a", Amount: 50},
			sign: 1,
			want: map[string]float64{"a": 50},
		},
		{
			name: "expense reverted",
			tx:   models.Transaction{Type: models.TransactionExpense, AccountID: "a", Amount: 20},
			sign: -1,
			want: map[string]float64{"a": 20},
		},
		{
			name: "cross currency transfer uses ToAmount",
			tx: models.Transaction{
				Type: models.TransactionTransfer, FromAccountID: "usd", ToAccountID: "eur",
				Amount: 100, ToAmount: 90,
			},
			sign: 1,
			want: map[string]float64{"usd": -100, "eur": 90},
		},
		{
			name: "transfer without ToAmount mirrors Amount",
			tx:   models.Transaction{Type: models.TransactionTransfer, FromAccountID: "a", ToAccountID: "b", Amount: 10},
			sign: 1,
			want: map[string]float64{"a": -10, "b": 10},
		},
		{
			name: "non-finite amount is dropped",
			tx:   models.Transaction{Type: models.TransactionIncome, AccountID: "a", Amount: math.NaN()},
			sign: 1,
			want: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransactionDeltas(tt.tx, tt.sign)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for id, want := range tt.want {
				if !approx(got[id], want) {
					t.Errorf("delta[%s] = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestReplayBalances(t *testing.T) {
	accounts := []models.Account{{ID: "a", InitialBalance: 0.1}, {ID: "b", InitialBalance: 0}}
	txs := []models.Transaction{
		{Type: models.TransactionIncome, AccountID: "a", Amount: 0.2},
		{Type: models.TransactionTransfer, FromAccountID: "a", ToAccountID: "b", Amount: 0.1},
		{Type: models.TransactionExpense, AccountID: "ghost", Amount: 5},
	}

	got := ReplayBalances(accounts, txs)
	if got["a"] != 0.2 {
		t.Errorf("a = %v, want exactly 0.2", got["a"])
	}
	if got["b"] != 0.1 {
		t.Errorf("b = %v, want exactly 0.1", got["b"])
	}
	if _, ok := got["ghost"]; ok {
		t.Error("unknown account should not get a balance")
	}
}

func TestDeriveBudget(t *testing.T) {
	entries := func(budgetID string) []models.BudgetEntry {
		return []models.BudgetEntry{
			{BudgetID: budgetID, Type: models.TransactionExpense, AppliedAmountBudgetCurrency: 300},
			{BudgetID: budgetID, Type: models.TransactionIncome, AppliedAmountBudgetCurrency: 50},
			{BudgetID: budgetID, Type: models.TransactionTransfer, AppliedAmountBudgetCurrency: 100},
			{BudgetID: "other", Type: models.TransactionExpense, AppliedAmountBudgetCurrency: 999},
		}
	}

	tests := []struct {
		name   string
		budget models.Budget
		want   BudgetDerived
	}{
		{
			name:   "spending budget",
			budget: models.Budget{ID: "b", TransactionType: models.TransactionExpense, LimitAmount: 500},
			want: BudgetDerived{
				SpentAmount:       400,
				ContributionTotal: 50,
				RemainingAmount:   150,
				PercentUsed:       0.7,
				CurrentBalance:    150,
			},
		},
		{
			name:   "saving budget",
			budget: models.Budget{ID: "b", TransactionType: models.TransactionIncome, LimitAmount: 100},
			want: BudgetDerived{
				SpentAmount:       300,
				ContributionTotal: 150,
				RemainingAmount:   250,
				PercentUsed:       -1.5,
				CurrentBalance:    -150,
			},
		},
		{
			name:   "overspent budget clamps remaining",
			budget: models.Budget{ID: "b", TransactionType: models.TransactionExpense, LimitAmount: 200},
			want: BudgetDerived{
				SpentAmount:       400,
				ContributionTotal: 50,
				RemainingAmount:   0,
				PercentUsed:       1.75,
				CurrentBalance:    -150,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveBudget(tt.budget, entries(tt.budget.ID))
			if got != tt.want {
				t.Errorf("DeriveBudget() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveDebt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d := models.Debt{ID: "d", PrincipalStartAmount: 100, RateOnStart: 2, DueDate: now.Add(-time.Hour).Unix()}

	got := DeriveDebt(d, []models.DebtPayment{
		{DebtID: "d", ConvertedAmountToDebt: 30, ConvertedAmountToBase: 60},
		{DebtID: "x", ConvertedAmountToDebt: 1000},
	}, now)
	if got.PrincipalAmount != 70 || got.PrincipalBaseValue != 140 {
		t.Errorf("principal = %v / %v, want 70 / 140", got.PrincipalAmount, got.PrincipalBaseValue)
	}
	if got.Status != models.DebtOverdue {
		t.Errorf("status = %v, want overdue", got.Status)
	}

	got = DeriveDebt(d, []models.DebtPayment{{DebtID: "d", ConvertedAmountToDebt: 120, ConvertedAmountToBase: 240}}, now)
	if got.PrincipalAmount != 0 || got.Status != models.DebtPaid {
		t.Errorf("overpaid debt = %+v, want 0 and paid", got)
	}
}

func TestDebtStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		principal float64
		due       int64
		want      models.DebtStatus
	}{
		{0.004, 0, models.DebtPaid},
		{10, 0, models.DebtActive},
		{10, now.Add(time.Hour).Unix(), models.DebtActive},
		{10, now.Add(-time.Hour).Unix(), models.DebtOverdue},
	}
	for _, tt := range tests {
		if got := DebtStatus(tt.principal, tt.due, now); got != tt.want {
			t.Errorf("DebtStatus(%v, %v) = %v, want %v", tt.principal, tt.due, got, tt.want)
		}
	}
}

func TestDeriveHabitStats(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Unix()

	tests := []struct {
		name    string
		history map[string]models.HabitDayStatus
		want    HabitStats
	}{
		{
			name: "streak ending today",
			history: map[string]models.HabitDayStatus{
				"2026-03-08": models.HabitDone,
				"2026-03-09": models.HabitDone,
				"2026-03-10": models.HabitDone,
			},
			want: HabitStats{StreakCurrent: 3, StreakBest: 3, CompletionRate30d: 0.3},
		},
		{
			name: "today not yet evaluated",
			history: map[string]models.HabitDayStatus{
				"2026-03-02": models.HabitDone,
				"2026-03-03": models.HabitDone,
				"2026-03-04": models.HabitDone,
				"2026-03-05": models.HabitDone,
				"2026-03-09": models.HabitDone,
			},
			want: HabitStats{StreakCurrent: 1, StreakBest: 4, CompletionRate30d: 0.5},
		},
		{
			name: "missed today breaks the streak",
			history: map[string]models.HabitDayStatus{
				"2026-03-09": models.HabitDone,
				"2026-03-10": models.HabitMiss,
			},
			want: HabitStats{StreakCurrent: 0, StreakBest: 1, CompletionRate30d: 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveHabitStats(models.Habit{History: tt.history, CreatedAt: created}, today)
			if got.StreakCurrent != tt.want.StreakCurrent || got.StreakBest != tt.want.StreakBest {
				t.Errorf("streaks = %d/%d, want %d/%d", got.StreakCurrent, got.StreakBest, tt.want.StreakCurrent, tt.want.StreakBest)
			}
			if !approx(got.CompletionRate30d, tt.want.CompletionRate30d) {
				t.Errorf("rate = %v, want %v", got.CompletionRate30d, tt.want.CompletionRate30d)
			}
		})
	}
}

func TestDeriveGoalProgress(t *testing.T) {
	t.Run("count goal takes the best source", func(t *testing.T) {
		g := models.Goal{
			ID: "g", MetricType: models.MetricCount, TargetValue: 10,
			LinkedHabitIDs: []string{"h1"},
			CheckIns:       []models.GoalCheckIn{{Value: 2}, {Value: 1}},
		}
		tasks := []models.Task{
			{ID: "t1", GoalID: "g", Status: models.TaskDone},
			{ID: "t2", GoalID: "g", Status: models.TaskInProgress},
			{ID: "t3", GoalID: "g", Status: models.TaskCanceled},
			{ID: "t4", GoalID: "other", Status: models.TaskDone},
		}
		habits := []models.Habit{
			{ID: "h1", CompletionRate30d: 0.2},
			{ID: "h2", GoalIDs: []string{"g"}, CompletionRate30d: 0.6},
		}
		sessions := []models.FocusSession{
			{TaskID: "t1", Status: models.FocusCompleted, Minutes: 25},
			{GoalID: "g", Status: models.FocusCompleted, Minutes: 15},
			{GoalID: "g", Status: models.FocusCanceled, Minutes: 90},
		}

		d := DeriveGoalProgress(g, tasks, habits, sessions)
		if d.CurrentValue != 3 {
			t.Errorf("CurrentValue = %v, want 3", d.CurrentValue)
		}
		if d.Stats.TasksTotal != 2 || d.Stats.TasksCompleted != 1 {
			t.Errorf("tasks = %d/%d, want 1/2", d.Stats.TasksCompleted, d.Stats.TasksTotal)
		}
		if !approx(d.Stats.TasksProgressPercent, 0.75) {
			t.Errorf("tasks progress = %v, want 0.75", d.Stats.TasksProgressPercent)
		}
		if !approx(d.Stats.HabitsProgressPercent, 0.4) {
			t.Errorf("habits progress = %v, want 0.4", d.Stats.HabitsProgressPercent)
		}
		if d.Stats.FocusMinutes != 40 {
			t.Errorf("focus = %v, want 40", d.Stats.FocusMinutes)
		}
		if !approx(d.ProgressPercent, 0.75) {
			t.Errorf("progress = %v, want 0.75", d.ProgressPercent)
		}
	})

	t.Run("money goal tracks finance contributions", func(t *testing.T) {
		g := models.Goal{
			ID: "g", MetricType: models.MetricAmount, TargetValue: 200,
			CheckIns: []models.GoalCheckIn{
				{Value: 50, SourceType: models.SourceFinance, SourceID: "tx1"},
				{Value: 30, SourceType: models.SourceFinance, SourceID: "tx2", DateKey: "2026-03-02"},
				{Value: 20, SourceType: models.SourceFinance, SourceID: "tx1", DateKey: "2026-03-03"},
			},
		}
		d := DeriveGoalProgress(g, nil, nil, nil)
		if d.Stats.FinanceContributed != 100 || !approx(d.Stats.FinancialProgressPercent, 0.5) {
			t.Errorf("finance = %v (%v), want 100 (0.5)", d.Stats.FinanceContributed, d.Stats.FinancialProgressPercent)
		}
		if len(d.FinanceContributionIDs) != 2 {
			t.Errorf("contribution ids = %v, want tx1 and tx2", d.FinanceContributionIDs)
		}
	})

	t.Run("weight goal measures distance from start", func(t *testing.T) {
		g := models.Goal{
			ID: "g", MetricType: models.MetricWeight, StartValue: 80, TargetValue: 70,
			CheckIns: []models.GoalCheckIn{
				{Value: 76, DateKey: "2026-03-01"},
				{Value: 74, DateKey: "2026-03-05"},
				{Value: 78, DateKey: "2026-02-20"},
			},
		}
		d := DeriveGoalProgress(g, nil, nil, nil)
		if d.CurrentValue != 74 || d.ProgressTargetValue != 10 || !approx(d.ProgressPercent, 0.6) {
			t.Errorf("weight = %v / %v / %v, want 74 / 10 / 0.6", d.CurrentValue, d.ProgressTargetValue, d.ProgressPercent)
		}
	})

	t.Run("completed goal is full", func(t *testing.T) {
		d := DeriveGoalProgress(models.Goal{ID: "g", Status: models.GoalCompleted, TargetValue: 5}, nil, nil, nil)
		if d.ProgressPercent != 1 {
			t.Errorf("progress = %v, want 1", d.ProgressPercent)
		}
	})
}

func TestStampMilestones(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := []models.Milestone{
		{ID: "m1", TargetPercent: 0.25, AchievedAt: 42},
		{ID: "m2", TargetPercent: 0.5},
		{ID: "m3", TargetPercent: 0.75},
	}

	out := StampMilestones(in, 0.5, now)
	if out[0].AchievedAt != 42 {
		t.Errorf("m1 timestamp changed to %v", out[0].AchievedAt)
	}
	if out[1].AchievedAt != now.Unix() {
		t.Errorf("m2 not stamped")
	}
	if out[2].AchievedAt != 0 {
		t.Errorf("m3 stamped early")
	}
	if in[1].AchievedAt != 0 {
		t.Error("input mutated")
	}
}
