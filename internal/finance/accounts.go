package finance

import (
	"context"
	"strings"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateAccount adds an account. Its current balance starts at the initial balance.
func (s *Store) CreateAccount(ctx context.Context, in models.Account, origin models.Origin) (*models.Account, error) {
	var out models.Account
	err := s.mutate(ctx, func() error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "account")
		}
		if !fx.Finite(in.InitialBalance) {
			in.InitialBalance = 0
		}

		a := in
		a.ID = s.ids.New("acc")
		a.Name = name
		a.Currency = fx.Normalize(a.Currency)
		if a.Currency == "" {
			a.Currency = s.base
		}
		a.CurrentBalance = a.InitialBalance
		a.CreatedAt, a.UpdatedAt = 0, 0
		s.stamp(&a.CreatedAt, &a.UpdatedAt)

		s.accounts[a.ID] = &a
		s.persistNewAccount(&a)
		s.emit(events.AccountUpdated, origin, events.AccountEvent{Account: a})
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account created", "account_id", out.ID, "currency", out.Currency)
	return &out, nil
}

// UpdateAccount edits an account. Changing the initial balance shifts the
// current balance by the same amount.
func (s *Store) UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate, origin models.Origin) (*models.Account, error) {
	var out models.Account
	err := s.mutate(ctx, func() error {
		a, ok := s.accounts[id]
		if !ok {
			return apperr.NotFound("account", id)
		}
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperr.Validationf(apperr.ErrNameRequired, "account")
			}
			a.Name = name
		}
		if upd.Type != nil {
			a.Type = *upd.Type
		}
		if upd.InitialBalance != nil && fx.Finite(*upd.InitialBalance) {
			shift := calculator.Add(*upd.InitialBalance, -a.InitialBalance)
			a.InitialBalance = *upd.InitialBalance
			a.CurrentBalance = calculator.Add(a.CurrentBalance, shift)
		}
		if upd.IsArchived != nil {
			a.IsArchived = *upd.IsArchived
		}
		s.stamp(&a.CreatedAt, &a.UpdatedAt)
		s.persistAccount(a)
		s.emit(events.AccountUpdated, origin, events.AccountEvent{Account: *a})
		out = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveAccount hides an account from pickers without touching its history.
func (s *Store) ArchiveAccount(ctx context.Context, id string, archived bool, origin models.Origin) (*models.Account, error) {
	return s.UpdateAccount(ctx, id, models.AccountUpdate{IsArchived: &archived}, origin)
}

// DeleteAccount removes an account together with every transaction touching
// it. Budgets and debts affected by those transactions are re-derived.
func (s *Store) DeleteAccount(ctx context.Context, id string, origin models.Origin) error {
	var removed int
	err := s.mutate(ctx, func() error {
		if _, ok := s.accounts[id]; !ok {
			return apperr.NotFound("account", id)
		}
		touching := s.sortedTransactionsLocked(func(tx *models.Transaction) bool {
			return tx.AccountID == id || tx.FromAccountID == id || tx.ToAccountID == id
		})
		for _, tx := range touching {
			if err := s.deleteTransactionLocked(ctx, tx.ID, origin); err != nil {
				return err
			}
			removed++
		}
		for _, d := range s.debts {
			if d.FundingAccountID == id {
				d.FundingAccountID = ""
				s.stamp(&d.CreatedAt, &d.UpdatedAt)
				s.persistDebt(d)
			}
		}
		for _, b := range s.budgets {
			if b.AccountID == id {
				b.AccountID = ""
				s.stamp(&b.CreatedAt, &b.UpdatedAt)
				s.persistBudget(b)
			}
		}
		delete(s.accounts, id)
		s.persistDeleteAccount(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Account deleted", "account_id", id, "transactions_removed", removed)
	return nil
}

// snapshotBalances records current balances so changed accounts can be found later.
func (s *Store) snapshotBalances() map[string]float64 {
	out := make(map[string]float64, len(s.accounts))
	for id, a := range s.accounts {
		out[id] = a.CurrentBalance
	}
	return out
}

// persistChangedAccounts writes and announces every account whose balance
// differs from the snapshot.
func (s *Store) persistChangedAccounts(snapshot map[string]float64, origin models.Origin) {
	for id, a := range s.accounts {
		if prev, ok := snapshot[id]; ok && prev == a.CurrentBalance {
			continue
		}
		s.stamp(&a.CreatedAt, &a.UpdatedAt)
		s.persistAccount(a)
		s.emit(events.AccountUpdated, origin, events.AccountEvent{Account: *a})
	}
}

// applyDeltas moves account balances by the deltas of tx times sign.
func (s *Store) applyDeltas(tx *models.Transaction, sign float64) {
	for accountID, delta := range calculator.TransactionDeltas(*tx, sign) {
		a, ok := s.accounts[accountID]
		if !ok {
			s.logger.Warn("Transaction references unknown account", "transaction_id", tx.ID, "account_id", accountID)
			continue
		}
		a.CurrentBalance = calculator.Add(a.CurrentBalance, delta)
	}
}
