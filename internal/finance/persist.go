package finance

import (
	"context"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage"
)

// The persist helpers copy the entity before enqueueing so that later
// in-memory mutations never leak into a pending write.

func (s *Store) persistAccount(a *models.Account) {
	cp := *a
	s.persist.Enqueue("account.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateAccount(ctx, &cp)
	})
}

func (s *Store) persistNewAccount(a *models.Account) {
	cp := *a
	s.persist.Enqueue("account.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateAccount(ctx, &cp)
	})
}

func (s *Store) persistDeleteAccount(id string) {
	s.persist.Enqueue("account.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteAccount(ctx, id)
	})
}

func (s *Store) persistNewTransaction(tx *models.Transaction) {
	cp := *tx
	s.persist.Enqueue("transaction.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateTransaction(ctx, &cp)
	})
}

func (s *Store) persistTransaction(tx *models.Transaction) {
	cp := *tx
	s.persist.Enqueue("transaction.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateTransaction(ctx, &cp)
	})
}

func (s *Store) persistDeleteTransaction(id string) {
	s.persist.Enqueue("transaction.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteTransaction(ctx, id)
	})
}

func (s *Store) persistNewBudget(b *models.Budget) {
	cp := cloneBudget(*b)
	s.persist.Enqueue("budget.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateBudget(ctx, &cp)
	})
}

func (s *Store) persistBudget(b *models.Budget) {
	cp := cloneBudget(*b)
	s.persist.Enqueue("budget.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateBudget(ctx, &cp)
	})
}

func (s *Store) persistDeleteBudget(id string) {
	s.persist.Enqueue("budget.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteBudget(ctx, id)
	})
}

func (s *Store) persistEntry(e *models.BudgetEntry) {
	cp := *e
	s.persist.Enqueue("budget.entry.record", func(ctx context.Context, st storage.Store) error {
		return st.RecordEntry(ctx, &cp)
	})
}

func (s *Store) persistDeleteEntry(id string) {
	s.persist.Enqueue("budget.entry.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteEntry(ctx, id)
	})
}

func (s *Store) persistNewDebt(d *models.Debt) {
	cp := *d
	s.persist.Enqueue("debt.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateDebt(ctx, &cp)
	})
}

func (s *Store) persistDebt(d *models.Debt) {
	cp := *d
	s.persist.Enqueue("debt.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateDebt(ctx, &cp)
	})
}

func (s *Store) persistDeleteDebt(id string) {
	s.persist.Enqueue("debt.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteDebt(ctx, id)
	})
}

func (s *Store) persistPayment(p *models.DebtPayment) {
	cp := *p
	s.persist.Enqueue("debt.payment.add", func(ctx context.Context, st storage.Store) error {
		return st.AddPayment(ctx, &cp)
	})
}

func (s *Store) persistDeletePayment(id string) {
	s.persist.Enqueue("debt.payment.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeletePayment(ctx, id)
	})
}

func (s *Store) persistNewCounterparty(c *models.Counterparty) {
	cp := *c
	s.persist.Enqueue("counterparty.create", func(ctx context.Context, st storage.Store) error {
		return st.CreateCounterparty(ctx, &cp)
	})
}

func (s *Store) persistCounterparty(c *models.Counterparty) {
	cp := *c
	s.persist.Enqueue("counterparty.update", func(ctx context.Context, st storage.Store) error {
		return st.UpdateCounterparty(ctx, &cp)
	})
}

func (s *Store) persistDeleteCounterparty(id string) {
	s.persist.Enqueue("counterparty.delete", func(ctx context.Context, st storage.Store) error {
		return st.DeleteCounterparty(ctx, id)
	})
}
