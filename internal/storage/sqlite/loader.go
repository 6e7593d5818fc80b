package sqlite

import (
	"context"
	"fmt"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// LoadFinance reads every finance collection.
func (s *SQLiteStore) LoadFinance(ctx context.Context) (*models.FinanceState, error) {
	var (
		st  models.FinanceState
		err error
	)
	if st.Accounts, err = list[models.Account](ctx, s, colAccounts); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.Transactions, err = list[models.Transaction](ctx, s, colTransactions); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.Budgets, err = list[models.Budget](ctx, s, colBudgets); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.BudgetEntries, err = list[models.BudgetEntry](ctx, s, colBudgetEntries); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.Debts, err = list[models.Debt](ctx, s, colDebts); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.DebtPayments, err = list[models.DebtPayment](ctx, s, colDebtPayments); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	if st.Counterparties, err = list[models.Counterparty](ctx, s, colCounterparties); err != nil {
		return nil, fmt.Errorf("failed to load finance state: %w", err)
	}
	return &st, nil
}

// LoadPlanner reads every planner collection.
func (s *SQLiteStore) LoadPlanner(ctx context.Context) (*models.PlannerState, error) {
	var (
		st  models.PlannerState
		err error
	)
	if st.Goals, err = list[models.Goal](ctx, s, colGoals); err != nil {
		return nil, fmt.Errorf("failed to load planner state: %w", err)
	}
	if st.Habits, err = list[models.Habit](ctx, s, colHabits); err != nil {
		return nil, fmt.Errorf("failed to load planner state: %w", err)
	}
	if st.Tasks, err = list[models.Task](ctx, s, colTasks); err != nil {
		return nil, fmt.Errorf("failed to load planner state: %w", err)
	}
	if st.FocusSessions, err = list[models.FocusSession](ctx, s, colFocusSessions); err != nil {
		return nil, fmt.Errorf("failed to load planner state: %w", err)
	}
	return &st, nil
}
