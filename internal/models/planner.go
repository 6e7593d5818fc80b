package models

// MetricType says what a goal measures.
type MetricType string

const (
	MetricAmount   MetricType = "amount"
	MetricCount    MetricType = "count"
	MetricDuration MetricType = "duration"
	MetricWeight   MetricType = "weight"
	MetricCustom   MetricType = "custom"
	MetricNone     MetricType = "none"
)

// FinanceMode says how money moves a financial goal.
type FinanceMode string

const (
	FinanceSave      FinanceMode = "save"
	FinanceSpend     FinanceMode = "spend"
	FinanceDebtClose FinanceMode = "debt_close"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
	GoalArchived  GoalStatus = "archived"
)

// CheckInSource is what produced a check-in.
type CheckInSource string

const (
	SourceManual  CheckInSource = "manual"
	SourceTask    CheckInSource = "task"
	SourceHabit   CheckInSource = "habit"
	SourceFinance CheckInSource = "finance"
	SourceFocus   CheckInSource = "focus"
)

// Goal is a target the user works towards.
type Goal struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	GoalType    string      `json:"goalType"`
	MetricType  MetricType  `json:"metricType"`
	FinanceMode FinanceMode `json:"financeMode,omitempty"`
	Currency    string      `json:"currency,omitempty"`

	// StartValue is only used by weight goals, where progress is the distance travelled from it.
	StartValue  float64 `json:"startValue,omitempty"`
	TargetValue float64 `json:"targetValue"`

	// CurrentValue, ProgressPercent and ProgressTargetValue are derived.
	CurrentValue        float64 `json:"currentValue"`
	ProgressPercent     float64 `json:"progressPercent"`
	ProgressTargetValue float64 `json:"progressTargetValue"`

	CheckIns []GoalCheckIn `json:"checkIns"`

	// FinanceContributionIDs are the transactions behind the goal's finance check-ins.
	FinanceContributionIDs []string `json:"financeContributionIds"`

	LinkedBudgetID string   `json:"linkedBudgetId,omitempty"`
	LinkedDebtID   string   `json:"linkedDebtId,omitempty"`
	LinkedHabitIDs []string `json:"linkedHabitIds,omitempty"`

	Milestones []Milestone `json:"milestones,omitempty"`
	Stats      GoalStats   `json:"stats"`
	Status     GoalStatus  `json:"status"`

	DueDate   int64 `json:"dueDate,omitempty"`
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// IsMoney reports whether the goal is measured in money and backed by a budget or debt.
func (g *Goal) IsMoney() bool {
	return g.MetricType == MetricAmount && (g.LinkedBudgetID != "" || g.LinkedDebtID != "")
}

// GoalUpdate is a partial update. Nil fields are left unchanged.
type GoalUpdate struct {
	Title          *string      `json:"title,omitempty"`
	TargetValue    *float64     `json:"targetValue,omitempty"`
	CurrentValue   *float64     `json:"currentValue,omitempty"`
	Status         *GoalStatus  `json:"status,omitempty"`
	FinanceMode    *FinanceMode `json:"financeMode,omitempty"`
	LinkedBudgetID *string      `json:"linkedBudgetId,omitempty"`
	LinkedDebtID   *string      `json:"linkedDebtId,omitempty"`
	LinkedHabitIDs []string     `json:"linkedHabitIds,omitempty"`
	Milestones     []Milestone  `json:"milestones,omitempty"`
	DueDate        *int64       `json:"dueDate,omitempty"`
}

// GoalStats breaks progress down per source.
type GoalStats struct {
	TasksProgressPercent     float64 `json:"tasksProgressPercent"`
	HabitsProgressPercent    float64 `json:"habitsProgressPercent"`
	FinancialProgressPercent float64 `json:"financialProgressPercent"`
	CheckInProgressPercent   float64 `json:"checkInProgressPercent"`
	TasksTotal               int     `json:"tasksTotal"`
	TasksCompleted           int     `json:"tasksCompleted"`
	FocusMinutes             float64 `json:"focusMinutes"`
	FinanceContributed       float64 `json:"financeContributed"`
}

// Milestone is a progress threshold within a goal.
type Milestone struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	TargetPercent float64 `json:"targetPercent"`
	AchievedAt    int64   `json:"achievedAt,omitempty"`
}

// GoalCheckIn is one progress contribution towards a goal.
// At most one check-in exists per (SourceType, SourceID, DateKey) when SourceID is set.
type GoalCheckIn struct {
	ID         string        `json:"id"`
	GoalID     string        `json:"goalId"`
	Value      float64       `json:"value"`
	Note       string        `json:"note,omitempty"`
	SourceType CheckInSource `json:"sourceType"`
	SourceID   string        `json:"sourceId,omitempty"`
	DateKey    string        `json:"dateKey"`
	CreatedAt  int64         `json:"createdAt"`
}

// HabitDayStatus is the outcome of a habit on one day.
type HabitDayStatus string

const (
	HabitDone HabitDayStatus = "done"
	HabitMiss HabitDayStatus = "miss"
)

// Habit is a recurring behaviour. Streaks and rates are derived from History.
type Habit struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// GoalIDs are the goals this habit feeds.
	GoalIDs []string `json:"goalIds,omitempty"`

	// History maps a date key to that day's outcome.
	History map[string]HabitDayStatus `json:"history"`

	StreakCurrent     int     `json:"streakCurrent"`
	StreakBest        int     `json:"streakBest"`
	CompletionRate30d float64 `json:"completionRate30d"`

	IsArchived bool  `json:"isArchived"`
	CreatedAt  int64 `json:"createdAt"`
	UpdatedAt  int64 `json:"updatedAt"`
}

// HabitUpdate is a partial update. Nil fields are left unchanged.
type HabitUpdate struct {
	Title      *string  `json:"title,omitempty"`
	GoalIDs    []string `json:"goalIds,omitempty"`
	IsArchived *bool    `json:"isArchived,omitempty"`
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCanceled   TaskStatus = "canceled"
)

// Task is a unit of work, optionally linked to a goal.
type Task struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
	GoalID string     `json:"goalId,omitempty"`

	// GoalValue is the amount a completed task contributes to its goal, 1 when unset.
	GoalValue float64 `json:"goalValue,omitempty"`

	FocusTotalMinutes float64 `json:"focusTotalMinutes"`

	DueDate     int64 `json:"dueDate,omitempty"`
	CompletedAt int64 `json:"completedAt,omitempty"`
	CreatedAt   int64 `json:"createdAt"`
	UpdatedAt   int64 `json:"updatedAt"`
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title     *string     `json:"title,omitempty"`
	Status    *TaskStatus `json:"status,omitempty"`
	GoalID    *string     `json:"goalId,omitempty"`
	GoalValue *float64    `json:"goalValue,omitempty"`
	DueDate   *int64      `json:"dueDate,omitempty"`
}

// FocusStatus is the state of a focus session.
type FocusStatus string

const (
	FocusRunning   FocusStatus = "running"
	FocusCompleted FocusStatus = "completed"
	FocusCanceled  FocusStatus = "canceled"
)

// FocusSession is a timed block of work on a task or goal.
type FocusSession struct {
	ID        string      `json:"id"`
	TaskID    string      `json:"taskId,omitempty"`
	GoalID    string      `json:"goalId,omitempty"`
	Status    FocusStatus `json:"status"`
	Minutes   float64     `json:"minutes"`
	StartedAt int64       `json:"startedAt"`
	EndedAt   int64       `json:"endedAt,omitempty"`
}

// PlannerState is a point-in-time copy of every planner collection.
type PlannerState struct {
	Goals         []Goal         `json:"goals"`
	Habits        []Habit        `json:"habits"`
	Tasks         []Task         `json:"tasks"`
	FocusSessions []FocusSession `json:"focusSessions"`
}
