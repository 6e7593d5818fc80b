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

// CreateBudget adds a budget. A new budget starts with no entries.
func (s *Store) CreateBudget(ctx context.Context, in models.Budget, origin models.Origin) (*models.Budget, error) {
	var out models.Budget
	err := s.mutate(ctx, func() error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "budget")
		}
		b := cloneBudget(in)
		b.ID = s.ids.New("bud")
		b.Name = name
		if b.TransactionType == "" {
			b.TransactionType = models.TransactionExpense
		}
		if b.TransactionType != models.TransactionIncome && b.TransactionType != models.TransactionExpense {
			return apperr.Validationf(apperr.ErrInvalidTransactionType, "budget type must be income or expense, got %q", b.TransactionType)
		}
		if !fx.Finite(b.LimitAmount) || b.LimitAmount < 0 {
			b.LimitAmount = 0
		}
		b.Currency = fx.Normalize(b.Currency)
		if b.Currency == "" {
			b.Currency = s.base
		}
		if b.AccountID != "" {
			if _, ok := s.accounts[b.AccountID]; !ok {
				return apperr.Validationf(apperr.ErrAccountRequired, "budget account %q", b.AccountID)
			}
		}
		b.CreatedAt, b.UpdatedAt = 0, 0
		s.stamp(&b.CreatedAt, &b.UpdatedAt)
		calculator.DeriveBudget(b, nil).Apply(&b)

		s.budgets[b.ID] = &b
		s.persistNewBudget(&b)
		s.emit(events.BudgetCreated, origin, events.BudgetEvent{Budget: cloneBudget(b)})
		out = cloneBudget(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Budget created", "budget_id", out.ID, "type", out.TransactionType, "limit", out.LimitAmount)
	return &out, nil
}

// UpdateBudget edits a budget and re-derives it.
func (s *Store) UpdateBudget(ctx context.Context, id string, upd models.BudgetUpdate, origin models.Origin) (*models.Budget, error) {
	var out models.Budget
	err := s.mutate(ctx, func() error {
		b, ok := s.budgets[id]
		if !ok {
			return apperr.NotFound("budget", id)
		}
		prev := cloneBudget(*b)
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperr.Validationf(apperr.ErrNameRequired, "budget")
			}
			b.Name = name
		}
		if upd.AccountID != nil && *upd.AccountID != "" {
			if _, ok := s.accounts[*upd.AccountID]; !ok {
				return apperr.Validationf(apperr.ErrAccountRequired, "budget account %q", *upd.AccountID)
			}
		}
		if upd.LimitAmount != nil && fx.Finite(*upd.LimitAmount) && *upd.LimitAmount >= 0 {
			b.LimitAmount = *upd.LimitAmount
		}
		if upd.CategoryIDs != nil {
			b.CategoryIDs = append([]string(nil), upd.CategoryIDs...)
		}
		if upd.AccountID != nil {
			b.AccountID = *upd.AccountID
		}
		if upd.LinkedGoalID != nil {
			b.LinkedGoalID = *upd.LinkedGoalID
		}
		if upd.IsArchived != nil {
			b.IsArchived = *upd.IsArchived
		}
		s.stamp(&b.CreatedAt, &b.UpdatedAt)
		s.rederiveBudgetLocked(id)
		s.persistBudget(b)
		s.emit(events.BudgetUpdated, origin, events.BudgetEvent{Budget: cloneBudget(*b), Previous: &prev})
		out = cloneBudget(*b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveBudget archives or restores a budget. Archived budgets only receive
// entries from transactions that name them.
func (s *Store) ArchiveBudget(ctx context.Context, id string, archived bool, origin models.Origin) (*models.Budget, error) {
	return s.UpdateBudget(ctx, id, models.BudgetUpdate{IsArchived: &archived}, origin)
}

// DeleteBudget removes a budget and its entries. Transactions and debts that
// referenced it are unlinked; their balances are untouched.
func (s *Store) DeleteBudget(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		b, ok := s.budgets[id]
		if !ok {
			return apperr.NotFound("budget", id)
		}
		prev := cloneBudget(*b)
		for eid, e := range s.entries {
			if e.BudgetID == id {
				delete(s.entries, eid)
			}
		}
		for _, tx := range s.transactions {
			if tx.BudgetID == id {
				tx.BudgetID = ""
				s.stamp(&tx.CreatedAt, &tx.UpdatedAt)
				s.persistTransaction(tx)
			}
		}
		for _, d := range s.debts {
			if d.LinkedBudgetID == id {
				d.LinkedBudgetID = ""
				s.stamp(&d.CreatedAt, &d.UpdatedAt)
				s.persistDebt(d)
			}
		}
		delete(s.budgets, id)
		s.persistDeleteBudget(id)
		s.emit(events.BudgetDeleted, origin, events.BudgetEvent{Budget: prev, Previous: &prev})
		return nil
	})
}

// matchesLocked reports whether tx should be attributed to b.
func (s *Store) matchesLocked(tx *models.Transaction, b *models.Budget) bool {
	if tx.BudgetID == b.ID {
		return true
	}
	if b.IsArchived {
		return false
	}
	if tx.CategoryID != "" {
		for _, c := range b.CategoryIDs {
			if c == tx.CategoryID {
				return true
			}
		}
	}
	if s.matching == MatchCurrency && tx.Type != models.TransactionTransfer {
		return tx.Currency == b.Currency || tx.BaseCurrency == b.Currency
	}
	return false
}

// recordEntriesLocked creates one entry per matching budget and returns the
// IDs of those budgets.
func (s *Store) recordEntriesLocked(tx *models.Transaction) []string {
	var ids []string
	now := s.now().Unix()
	for _, b := range s.budgets {
		if !s.matchesLocked(tx, b) {
			continue
		}
		applied, rate := s.toBudgetCurrency(tx, b.Currency)
		e := &models.BudgetEntry{
			ID:                          s.ids.New("bent"),
			BudgetID:                    b.ID,
			TransactionID:               tx.ID,
			Type:                        tx.Type,
			AppliedAmountBudgetCurrency: applied,
			RateUsedTxnToBudget:         rate,
			SnapshottedAt:               now,
		}
		s.entries[e.ID] = e
		s.persistEntry(e)
		ids = append(ids, b.ID)
	}
	return ids
}

// toBudgetCurrency converts a transaction amount into a budget currency,
// reusing the frozen base rate when the budget is kept in the base currency.
func (s *Store) toBudgetCurrency(tx *models.Transaction, currency string) (float64, float64) {
	switch currency {
	case tx.Currency:
		return tx.Amount, 1
	case tx.BaseCurrency:
		return tx.ConvertedAmountToBase, tx.RateUsedToBase
	}
	rate := s.conv.Rate(tx.Currency, currency)
	return fx.Apply(tx.Amount, rate), rate
}

// rederiveBudgetLocked recomputes a budget from its full entry set and
// persists it if any derived figure moved.
func (s *Store) rederiveBudgetLocked(id string) bool {
	b, ok := s.budgets[id]
	if !ok {
		return false
	}
	old := *b
	calculator.DeriveBudget(*b, s.entriesForLocked(id)).Apply(b)
	s.metrics.Recomputed("budget")
	if old.SpentAmount == b.SpentAmount &&
		old.RemainingAmount == b.RemainingAmount &&
		old.PercentUsed == b.PercentUsed &&
		old.ContributionTotal == b.ContributionTotal &&
		old.CurrentBalance == b.CurrentBalance {
		return false
	}
	s.persistBudget(b)
	return true
}
