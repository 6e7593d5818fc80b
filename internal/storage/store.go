// Package storage provides abstractions for persistent data storage.
//
// The domain stores keep their own in-memory collections as the source of
// truth for the running session and write through these DAO interfaces
// behind a write-behind outbox. Implementations must make every write
// idempotent: replaying the same operation twice leaves the same row.
package storage

import (
	"context"
	"errors"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// ErrUnavailable means the backend cannot be reached right now. Operations
// that fail with it are kept in the outbox and replayed later.
var ErrUnavailable = errors.New("storage unavailable")

// AccountDAO persists accounts.
type AccountDAO interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id string) error
}

// TransactionDAO persists transactions.
type TransactionDAO interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// BudgetDAO persists budgets and their ledger entries.
type BudgetDAO interface {
	CreateBudget(ctx context.Context, b *models.Budget) error
	UpdateBudget(ctx context.Context, b *models.Budget) error
	DeleteBudget(ctx context.Context, id string) error

	// RecordEntry appends a ledger entry to a budget.
	RecordEntry(ctx context.Context, e *models.BudgetEntry) error
	DeleteEntry(ctx context.Context, id string) error
}

// DebtDAO persists debts and their payments.
type DebtDAO interface {
	CreateDebt(ctx context.Context, d *models.Debt) error
	UpdateDebt(ctx context.Context, d *models.Debt) error
	DeleteDebt(ctx context.Context, id string) error

	// AddPayment appends a payment to a debt.
	AddPayment(ctx context.Context, p *models.DebtPayment) error
	DeletePayment(ctx context.Context, id string) error
}

// CounterpartyDAO persists counterparties.
type CounterpartyDAO interface {
	CreateCounterparty(ctx context.Context, c *models.Counterparty) error
	UpdateCounterparty(ctx context.Context, c *models.Counterparty) error
	DeleteCounterparty(ctx context.Context, id string) error
}

// GoalDAO persists goals (check-ins are stored inside the goal document).
type GoalDAO interface {
	CreateGoal(ctx context.Context, g *models.Goal) error
	UpdateGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, id string) error
}

// HabitDAO persists habits.
type HabitDAO interface {
	CreateHabit(ctx context.Context, h *models.Habit) error
	UpdateHabit(ctx context.Context, h *models.Habit) error
	DeleteHabit(ctx context.Context, id string) error
}

// TaskDAO persists tasks and focus sessions.
type TaskDAO interface {
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	SaveFocusSession(ctx context.Context, s *models.FocusSession) error
}

// FinanceDAO is everything the finance store writes.
type FinanceDAO interface {
	AccountDAO
	TransactionDAO
	BudgetDAO
	DebtDAO
	CounterpartyDAO
}

// PlannerDAO is everything the planner store writes.
type PlannerDAO interface {
	GoalDAO
	HabitDAO
	TaskDAO
}

// Loader reads back a full snapshot at start-up.
type Loader interface {
	LoadFinance(ctx context.Context) (*models.FinanceState, error)
	LoadPlanner(ctx context.Context) (*models.PlannerState, error)
}

// Store defines the full persistence boundary of the engine.
// This abstraction allows swapping storage backends without changing the domain stores.
type Store interface {
	FinanceDAO
	PlannerDAO
	Loader

	// Close releases any resources held by the store.
	Close() error
}
