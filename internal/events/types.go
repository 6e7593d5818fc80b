package events

import "github.com/OybekDeveloper/leora.v2-sub001/internal/models"

// Name identifies an event.
type Name string

const (
	TransactionCreated Name = "finance.tx.created"
	TransactionUpdated Name = "finance.tx.updated"
	TransactionDeleted Name = "finance.tx.deleted"
	AccountUpdated     Name = "finance.account.updated"
	BudgetCreated      Name = "finance.budget.created"
	BudgetUpdated      Name = "finance.budget.updated"
	BudgetDeleted      Name = "finance.budget.deleted"
	DebtCreated        Name = "finance.debt.created"
	DebtUpdated        Name = "finance.debt.updated"
	DebtDeleted        Name = "finance.debt.deleted"
	DebtPaymentAdded   Name = "finance.debt.payment_added"
	DebtPaymentDeleted Name = "finance.debt.payment_deleted"

	GoalCreated       Name = "planner.goal.created"
	GoalUpdated       Name = "planner.goal.updated"
	GoalDeleted       Name = "planner.goal.deleted"
	GoalCheckInAdded  Name = "planner.goal.checkin_added"
	HabitDayEvaluated Name = "planner.habit.day_evaluated"
	TaskUpdated       Name = "planner.task.updated"
	FocusCompleted    Name = "planner.focus.completed"
)

// TransactionEvent is the payload of the finance.tx.* events.
type TransactionEvent struct {
	Transaction models.Transaction

	// Previous is the transaction before an update or delete.
	Previous *models.Transaction

	// GoalIDs are the goals the transaction contributes to (directly, through
	// its budget or through its debt).
	GoalIDs []string
}

// AccountEvent is the payload of finance.account.updated.
type AccountEvent struct {
	Account models.Account
}

// BudgetEvent is the payload of the finance.budget.* events.
type BudgetEvent struct {
	Budget   models.Budget
	Previous *models.Budget
}

// DebtEvent is the payload of the finance.debt.* events.
type DebtEvent struct {
	Debt     models.Debt
	Previous *models.Debt
}

// DebtPaymentEvent is the payload of the finance.debt.payment_* events.
type DebtPaymentEvent struct {
	Debt    models.Debt
	Payment models.DebtPayment
}

// GoalEvent is the payload of the planner.goal.* events.
type GoalEvent struct {
	Goal     models.Goal
	Previous *models.Goal

	// UnbackedDelta is progress the user asked for (by editing the current
	// value of a money goal) that no transaction backs yet.
	UnbackedDelta float64
}

// CheckInEvent is the payload of planner.goal.checkin_added.
type CheckInEvent struct {
	Goal    models.Goal
	CheckIn models.GoalCheckIn
}

// HabitDayEvent is the payload of planner.habit.day_evaluated.
type HabitDayEvent struct {
	Habit   models.Habit
	DateKey string
	Status  models.HabitDayStatus
}

// TaskEvent is the payload of planner.task.updated.
type TaskEvent struct {
	Task     models.Task
	Previous *models.Task
}

// FocusEvent is the payload of planner.focus.completed.
type FocusEvent struct {
	Session models.FocusSession
}
