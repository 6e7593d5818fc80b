package sqlite

import (
	"context"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateAccount persists a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a *models.Account) error {
	return s.put(ctx, colAccounts, a.ID, "", a.CreatedAt, a)
}

// UpdateAccount persists an account's current state.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	return s.put(ctx, colAccounts, a.ID, "", a.CreatedAt, a)
}

// DeleteAccount removes an account.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	return s.remove(ctx, colAccounts, id)
}

// CreateTransaction persists a new transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.put(ctx, colTransactions, tx.ID, "", tx.CreatedAt, tx)
}

// UpdateTransaction persists a transaction's current state.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.put(ctx, colTransactions, tx.ID, "", tx.CreatedAt, tx)
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	return s.remove(ctx, colTransactions, id)
}

// CreateBudget persists a new budget.
func (s *SQLiteStore) CreateBudget(ctx context.Context, b *models.Budget) error {
	return s.put(ctx, colBudgets, b.ID, "", b.CreatedAt, b)
}

// UpdateBudget persists a budget's current state.
func (s *SQLiteStore) UpdateBudget(ctx context.Context, b *models.Budget) error {
	return s.put(ctx, colBudgets, b.ID, "", b.CreatedAt, b)
}

// DeleteBudget removes a budget and its entries.
func (s *SQLiteStore) DeleteBudget(ctx context.Context, id string) error {
	if err := s.removeChildren(ctx, colBudgetEntries, id); err != nil {
		return err
	}
	return s.remove(ctx, colBudgets, id)
}

// RecordEntry appends a budget ledger entry.
func (s *SQLiteStore) RecordEntry(ctx context.Context, e *models.BudgetEntry) error {
	return s.put(ctx, colBudgetEntries, e.ID, e.BudgetID, e.SnapshottedAt, e)
}

// DeleteEntry removes a budget ledger entry.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	return s.remove(ctx, colBudgetEntries, id)
}

// CreateDebt persists a new debt.
func (s *SQLiteStore) CreateDebt(ctx context.Context, d *models.Debt) error {
	return s.put(ctx, colDebts, d.ID, "", d.CreatedAt, d)
}

// UpdateDebt persists a debt's current state.
func (s *SQLiteStore) UpdateDebt(ctx context.Context, d *models.Debt) error {
	return s.put(ctx, colDebts, d.ID, "", d.CreatedAt, d)
}

// DeleteDebt removes a debt and its payments.
func (s *SQLiteStore) DeleteDebt(ctx context.Context, id string) error {
	if err := s.removeChildren(ctx, colDebtPayments, id); err != nil {
		return err
	}
	return s.remove(ctx, colDebts, id)
}

// AddPayment appends a debt payment.
func (s *SQLiteStore) AddPayment(ctx context.Context, p *models.DebtPayment) error {
	return s.put(ctx, colDebtPayments, p.ID, p.DebtID, p.CreatedAt, p)
}

// DeletePayment removes a debt payment.
func (s *SQLiteStore) DeletePayment(ctx context.Context, id string) error {
	return s.remove(ctx, colDebtPayments, id)
}

// CreateCounterparty persists a new counterparty.
func (s *SQLiteStore) CreateCounterparty(ctx context.Context, c *models.Counterparty) error {
	return s.put(ctx, colCounterparties, c.ID, "", c.CreatedAt, c)
}

// UpdateCounterparty persists a counterparty's current state.
func (s *SQLiteStore) UpdateCounterparty(ctx context.Context, c *models.Counterparty) error {
	return s.put(ctx, colCounterparties, c.ID, "", c.CreatedAt, c)
}

// DeleteCounterparty removes a counterparty.
func (s *SQLiteStore) DeleteCounterparty(ctx context.Context, id string) error {
	return s.remove(ctx, colCounterparties, id)
}
