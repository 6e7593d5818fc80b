package finance

import (
	"context"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// CreateTransaction records a transaction and propagates it: account
// balances move by its deltas, matching budgets get a ledger entry, a debt it
// repays gets a payment, and every affected aggregate is re-derived.
func (s *Store) CreateTransaction(ctx context.Context, in models.Transaction, origin models.Origin) (*models.Transaction, error) {
	var out models.Transaction
	err := s.mutate(ctx, func() error {
		tx, err := s.createTransactionLocked(ctx, in, origin)
		if err != nil {
			return err
		}
		out = *tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Transaction created",
		"transaction_id", out.ID,
		"type", out.Type,
		"amount", out.Amount,
		"currency", out.Currency,
		"origin", origin,
	)
	return &out, nil
}

func (s *Store) createTransactionLocked(ctx context.Context, in models.Transaction, origin models.Origin) (*models.Transaction, error) {
	tx := in
	if err := s.validateTransactionLocked(&tx); err != nil {
		return nil, err
	}
	tx.ID = s.ids.New("txn")
	tx.CreatedAt, tx.UpdatedAt = 0, 0
	s.freezeLocked(&tx)
	s.stamp(&tx.CreatedAt, &tx.UpdatedAt)

	s.transactions[tx.ID] = &tx
	s.persistNewTransaction(&tx)
	s.applyLocked(&tx, origin)

	s.emit(events.TransactionCreated, origin, events.TransactionEvent{
		Transaction: tx,
		GoalIDs:     s.goalIDsLocked(&tx),
	})
	return &tx, nil
}

// UpdateTransaction edits a transaction. The old version is fully reverted
// (balances, budget entries, debt payments) before the new one is applied,
// and rates are frozen again at edit time.
func (s *Store) UpdateTransaction(ctx context.Context, id string, upd models.TransactionUpdate, origin models.Origin) (*models.Transaction, error) {
	var out models.Transaction
	err := s.mutate(ctx, func() error {
		old, ok := s.transactions[id]
		if !ok {
			return apperr.NotFound("transaction", id)
		}
		prev := *old
		next := prev
		retarget := patchTransaction(&next, upd)
		if err := s.validateTransactionLocked(&next); err != nil {
			return err
		}

		s.revertLocked(&prev, origin)

		next.RateUsedToBase, next.ConvertedAmountToBase = 0, 0
		if retarget && upd.ToAmount == nil {
			next.ToAmount = 0
			next.ToCurrency = ""
		}
		s.freezeLocked(&next)
		s.stamp(&next.CreatedAt, &next.UpdatedAt)

		s.transactions[id] = &next
		s.persistTransaction(&next)
		s.applyLocked(&next, origin)

		s.emit(events.TransactionUpdated, origin, events.TransactionEvent{
			Transaction: next,
			Previous:    &prev,
			GoalIDs:     s.goalIDsLocked(&next),
		})
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTransaction reverts and removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		return s.deleteTransactionLocked(ctx, id, origin)
	})
}

func (s *Store) deleteTransactionLocked(ctx context.Context, id string, origin models.Origin) error {
	tx, ok := s.transactions[id]
	if !ok {
		return apperr.NotFound("transaction", id)
	}
	prev := *tx
	goalIDs := s.goalIDsLocked(&prev)

	s.revertLocked(&prev, origin)
	delete(s.transactions, id)
	s.persistDeleteTransaction(id)

	if prev.FundingDebtID != "" {
		if d, ok := s.debts[prev.FundingDebtID]; ok && d.FundingTransactionID == id {
			d.FundingTransactionID = ""
			s.stamp(&d.CreatedAt, &d.UpdatedAt)
			s.persistDebt(d)
		}
	}

	s.emit(events.TransactionDeleted, origin, events.TransactionEvent{
		Transaction: prev,
		Previous:    &prev,
		GoalIDs:     goalIDs,
	})
	return nil
}

// patchTransaction applies upd to tx and reports whether the amount, currency
// or accounts changed, which invalidates a frozen transfer amount.
func patchTransaction(tx *models.Transaction, upd models.TransactionUpdate) bool {
	retarget := false
	if upd.Type != nil && *upd.Type != tx.Type {
		tx.Type = *upd.Type
		retarget = true
	}
	if upd.AccountID != nil {
		tx.AccountID = *upd.AccountID
	}
	if upd.FromAccountID != nil && *upd.FromAccountID != tx.FromAccountID {
		tx.FromAccountID = *upd.FromAccountID
		retarget = true
	}
	if upd.ToAccountID != nil && *upd.ToAccountID != tx.ToAccountID {
		tx.ToAccountID = *upd.ToAccountID
		retarget = true
	}
	if upd.Amount != nil && *upd.Amount != tx.Amount {
		tx.Amount = *upd.Amount
		retarget = true
	}
	if upd.Currency != nil && fx.Normalize(*upd.Currency) != tx.Currency {
		tx.Currency = fx.Normalize(*upd.Currency)
		retarget = true
	}
	if upd.ToAmount != nil {
		tx.ToAmount = *upd.ToAmount
	}
	if upd.CategoryID != nil {
		tx.CategoryID = *upd.CategoryID
	}
	if upd.BudgetID != nil {
		tx.BudgetID = *upd.BudgetID
	}
	if upd.DebtID != nil {
		tx.DebtID = *upd.DebtID
	}
	if upd.GoalID != nil {
		tx.GoalID = *upd.GoalID
	}
	if upd.Description != nil {
		tx.Description = *upd.Description
	}
	if upd.Date != nil {
		tx.Date = *upd.Date
	}
	return retarget
}

// validateTransactionLocked rejects transactions that cannot be applied.
// Malformed amounts are not rejected; they become zero.
func (s *Store) validateTransactionLocked(tx *models.Transaction) error {
	if !tx.Type.Valid() {
		return apperr.Validationf(apperr.ErrInvalidTransactionType, "got %q", tx.Type)
	}
	if !fx.Finite(tx.Amount) {
		tx.Amount = 0
	}
	if !fx.Finite(tx.ToAmount) {
		tx.ToAmount = 0
	}

	switch tx.Type {
	case models.TransactionTransfer:
		if _, ok := s.accounts[tx.FromAccountID]; !ok {
			return apperr.Validationf(apperr.ErrAccountRequired, "source account %q", tx.FromAccountID)
		}
		if _, ok := s.accounts[tx.ToAccountID]; !ok {
			return apperr.Validationf(apperr.ErrAccountRequired, "destination account %q", tx.ToAccountID)
		}
		if tx.FromAccountID == tx.ToAccountID {
			return apperr.ErrSameAccountTransfer
		}
		tx.AccountID = ""
	default:
		if _, ok := s.accounts[tx.AccountID]; !ok {
			return apperr.Validationf(apperr.ErrAccountRequired, "account %q", tx.AccountID)
		}
		tx.FromAccountID, tx.ToAccountID = "", ""
		tx.ToAmount, tx.ToCurrency = 0, ""
	}
	return nil
}

// freezeLocked fills currencies and freezes conversion rates. Already frozen
// values supplied by the caller are kept.
func (s *Store) freezeLocked(tx *models.Transaction) {
	src := tx.AccountID
	if tx.Type == models.TransactionTransfer {
		src = tx.FromAccountID
	}
	tx.Currency = fx.Normalize(tx.Currency)
	if tx.Currency == "" {
		tx.Currency = s.accounts[src].Currency
	}
	tx.BaseCurrency = fx.Normalize(tx.BaseCurrency)
	if tx.BaseCurrency == "" {
		tx.BaseCurrency = s.base
	}
	if tx.RateUsedToBase <= 0 || !fx.Finite(tx.RateUsedToBase) {
		tx.RateUsedToBase = s.conv.Rate(tx.Currency, tx.BaseCurrency)
	}
	if tx.ConvertedAmountToBase == 0 {
		tx.ConvertedAmountToBase = fx.Apply(tx.Amount, tx.RateUsedToBase)
	}

	if tx.Type == models.TransactionTransfer {
		dest := s.accounts[tx.ToAccountID].Currency
		tx.ToCurrency = fx.Normalize(tx.ToCurrency)
		if tx.ToCurrency == "" {
			tx.ToCurrency = dest
		}
		if tx.ToAmount == 0 {
			tx.ToAmount = s.conv.Convert(tx.Amount, tx.Currency, tx.ToCurrency)
		}
	}
	if tx.Date == 0 {
		tx.Date = s.now().Unix()
	}
}

// applyLocked propagates a stored transaction to balances, budgets and debts.
func (s *Store) applyLocked(tx *models.Transaction, origin models.Origin) {
	snapshot := s.snapshotBalances()
	s.applyDeltas(tx, 1)

	for _, budgetID := range s.recordEntriesLocked(tx) {
		s.rederiveBudgetLocked(budgetID)
		b := s.budgets[budgetID]
		s.emit(events.BudgetUpdated, origin, events.BudgetEvent{Budget: cloneBudget(*b)})
	}
	if debtID := tx.RepaidDebtID(); debtID != "" {
		s.recordTransactionPaymentLocked(tx, debtID, origin)
	}
	s.persistChangedAccounts(snapshot, origin)
}

// revertLocked undoes everything applyLocked did for tx.
func (s *Store) revertLocked(tx *models.Transaction, origin models.Origin) {
	snapshot := s.snapshotBalances()
	s.applyDeltas(tx, -1)

	touched := make(map[string]bool)
	for id, e := range s.entries {
		if e.TransactionID != tx.ID {
			continue
		}
		touched[e.BudgetID] = true
		delete(s.entries, id)
		s.persistDeleteEntry(id)
	}
	for budgetID := range touched {
		if _, ok := s.budgets[budgetID]; !ok {
			continue
		}
		s.rederiveBudgetLocked(budgetID)
		s.emit(events.BudgetUpdated, origin, events.BudgetEvent{Budget: cloneBudget(*s.budgets[budgetID])})
	}

	debts := make(map[string]bool)
	for id, p := range s.payments {
		if p.RelatedTransactionID != tx.ID {
			continue
		}
		debts[p.DebtID] = true
		delete(s.payments, id)
		s.persistDeletePayment(id)
	}
	for debtID := range debts {
		if d, ok := s.debts[debtID]; ok {
			s.rederiveDebtLocked(debtID)
			s.emit(events.DebtUpdated, origin, events.DebtEvent{Debt: *d})
		}
	}
	s.persistChangedAccounts(snapshot, origin)
}

// goalIDsLocked lists the goals tx contributes to: its own goal, the goals of
// the budgets it is attributed to and the goal of the debt it repays.
func (s *Store) goalIDsLocked(tx *models.Transaction) []string {
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		for _, have := range ids {
			if have == id {
				return
			}
		}
		ids = append(ids, id)
	}
	add(tx.GoalID)
	if b, ok := s.budgets[tx.BudgetID]; ok {
		add(b.LinkedGoalID)
	}
	for _, e := range s.entries {
		if e.TransactionID != tx.ID {
			continue
		}
		if b, ok := s.budgets[e.BudgetID]; ok {
			add(b.LinkedGoalID)
		}
	}
	if d, ok := s.debts[tx.RepaidDebtID()]; ok {
		add(d.LinkedGoalID)
	}
	return ids
}

func unixOrNow(ts int64, now time.Time) int64 {
	if ts > 0 {
		return ts
	}
	return now.Unix()
}
