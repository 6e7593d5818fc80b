package finance

import (
	"context"
	"fmt"
	"sort"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// DebtInput describes a new debt.
type DebtInput struct {
	Debt models.Debt

	// FundingAmount, when positive, replaces the converted principal as the
	// amount of the funding transaction.
	FundingAmount float64
}

// PaymentInput describes a debt repayment.
type PaymentInput struct {
	DebtID   string
	Amount   float64
	Currency string

	// AccountID, when set, books the payment as a transaction on that account.
	AccountID string

	Note   string
	PaidAt int64
}

// fundingType is the transaction type of the funding transaction that books
// the principal on the funding account.
func (s *Store) fundingType(d models.DebtDirection) models.TransactionType {
	if s.funding == FundingCashFlow {
		if d == models.DebtIOwe {
			return models.TransactionIncome
		}
		return models.TransactionExpense
	}
	if d == models.DebtTheyOweMe {
		return models.TransactionIncome
	}
	return models.TransactionExpense
}

// repaymentType is the opposite of fundingType.
func (s *Store) repaymentType(d models.DebtDirection) models.TransactionType {
	if s.fundingType(d) == models.TransactionIncome {
		return models.TransactionExpense
	}
	return models.TransactionIncome
}

// CreateDebt records a debt. Its counterparty is looked up or created by
// name, and if a funding account is given a funding transaction moves the
// principal through that account.
func (s *Store) CreateDebt(ctx context.Context, in DebtInput, origin models.Origin) (*models.Debt, error) {
	var out models.Debt
	err := s.mutate(ctx, func() error {
		d := in.Debt
		if d.Direction != models.DebtIOwe && d.Direction != models.DebtTheyOweMe {
			return apperr.Validationf(apperr.ErrInvalidDebtDirection, "got %q", d.Direction)
		}
		if !fx.Finite(d.PrincipalOriginalAmount) || d.PrincipalOriginalAmount <= 0 {
			return apperr.Validationf(apperr.ErrInvalidAmount, "principal must be positive")
		}
		if d.FundingAccountID != "" {
			if _, ok := s.accounts[d.FundingAccountID]; !ok {
				return apperr.Validationf(apperr.ErrAccountRequired, "funding account %q", d.FundingAccountID)
			}
		}
		if err := s.resolveCounterpartyLocked(&d); err != nil {
			return err
		}

		d.ID = s.ids.New("debt")
		d.PrincipalOriginalCurrency = fx.Normalize(d.PrincipalOriginalCurrency)
		if d.PrincipalOriginalCurrency == "" {
			d.PrincipalOriginalCurrency = s.base
		}
		d.PrincipalCurrency = fx.Normalize(d.PrincipalCurrency)
		if d.PrincipalCurrency == "" {
			d.PrincipalCurrency = d.PrincipalOriginalCurrency
		}
		d.BaseCurrency = fx.Normalize(d.BaseCurrency)
		if d.BaseCurrency == "" {
			d.BaseCurrency = s.base
		}
		if d.PrincipalStartAmount <= 0 || !fx.Finite(d.PrincipalStartAmount) {
			d.PrincipalStartAmount = s.conv.Convert(d.PrincipalOriginalAmount, d.PrincipalOriginalCurrency, d.PrincipalCurrency)
		}
		if d.RateOnStart <= 0 || !fx.Finite(d.RateOnStart) {
			d.RateOnStart = s.conv.Rate(d.PrincipalCurrency, d.BaseCurrency)
		}
		d.StartDate = unixOrNow(d.StartDate, s.now())
		d.FundingTransactionID = ""
		d.CreatedAt, d.UpdatedAt = 0, 0
		s.stamp(&d.CreatedAt, &d.UpdatedAt)
		calculator.DeriveDebt(d, nil, s.now()).Apply(&d)

		s.debts[d.ID] = &d
		s.persistNewDebt(&d)
		s.emit(events.DebtCreated, origin, events.DebtEvent{Debt: d})

		if d.FundingAccountID != "" {
			acct := s.accounts[d.FundingAccountID]
			amount := in.FundingAmount
			if amount <= 0 || !fx.Finite(amount) {
				amount = s.conv.Convert(d.PrincipalOriginalAmount, d.PrincipalOriginalCurrency, acct.Currency)
			}
			tx, err := s.createTransactionLocked(ctx, models.Transaction{
				Type:          s.fundingType(d.Direction),
				AccountID:     acct.ID,
				Amount:        amount,
				Currency:      acct.Currency,
				FundingDebtID: d.ID,
				Description:   fmt.Sprintf("Debt: %s", d.CounterpartyName),
				Date:          d.StartDate,
			}, origin)
			if err != nil {
				return err
			}
			stored := s.debts[d.ID]
			stored.FundingTransactionID = tx.ID
			s.persistDebt(stored)
		}
		out = *s.debts[d.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Debt created",
		"debt_id", out.ID,
		"direction", out.Direction,
		"principal", out.PrincipalAmount,
		"currency", out.PrincipalCurrency,
	)
	return &out, nil
}

// UpdateDebt edits a debt. Setting PrincipalAmount rebases the opening
// principal so that the remaining principal, after existing payments, equals
// the new value.
func (s *Store) UpdateDebt(ctx context.Context, id string, upd models.DebtUpdate, origin models.Origin) (*models.Debt, error) {
	var out models.Debt
	err := s.mutate(ctx, func() error {
		d, ok := s.debts[id]
		if !ok {
			return apperr.NotFound("debt", id)
		}
		prev := *d
		if upd.Description != nil {
			d.Description = *upd.Description
		}
		if upd.DueDate != nil {
			d.DueDate = *upd.DueDate
		}
		if upd.LinkedGoalID != nil {
			d.LinkedGoalID = *upd.LinkedGoalID
		}
		if upd.LinkedBudgetID != nil {
			d.LinkedBudgetID = *upd.LinkedBudgetID
		}
		if upd.PrincipalAmount != nil && fx.Finite(*upd.PrincipalAmount) && *upd.PrincipalAmount >= 0 {
			paid := 0.0
			for _, p := range s.paymentsForLocked(id) {
				paid = calculator.Add(paid, p.ConvertedAmountToDebt)
			}
			d.PrincipalStartAmount = calculator.Add(*upd.PrincipalAmount, paid)
		}
		s.stamp(&d.CreatedAt, &d.UpdatedAt)
		s.rederiveDebtLocked(id)
		s.persistDebt(d)
		s.emit(events.DebtUpdated, origin, events.DebtEvent{Debt: *d, Previous: &prev})
		out = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDebtPayment records a repayment. With an account it is booked as a
// transaction in the opposite direction of the funding, and the payment is
// derived from that transaction.
func (s *Store) AddDebtPayment(ctx context.Context, in PaymentInput, origin models.Origin) (*models.DebtPayment, error) {
	var out models.DebtPayment
	err := s.mutate(ctx, func() error {
		d, ok := s.debts[in.DebtID]
		if !ok {
			return apperr.NotFound("debt", in.DebtID)
		}
		if !fx.Finite(in.Amount) || in.Amount <= 0 {
			return apperr.Validationf(apperr.ErrInvalidAmount, "payment must be positive")
		}
		currency := fx.Normalize(in.Currency)
		if currency == "" {
			currency = d.PrincipalCurrency
		}

		if in.AccountID != "" {
			acct, ok := s.accounts[in.AccountID]
			if !ok {
				return apperr.Validationf(apperr.ErrAccountRequired, "payment account %q", in.AccountID)
			}
			note := in.Note
			if note == "" {
				note = fmt.Sprintf("Debt payment: %s", d.CounterpartyName)
			}
			tx, err := s.createTransactionLocked(ctx, models.Transaction{
				Type:          s.repaymentType(d.Direction),
				AccountID:     acct.ID,
				Amount:        s.conv.Convert(in.Amount, currency, acct.Currency),
				Currency:      acct.Currency,
				RelatedDebtID: d.ID,
				Description:   note,
				Date:          in.PaidAt,
			}, origin)
			if err != nil {
				return err
			}
			for _, p := range s.payments {
				if p.RelatedTransactionID == tx.ID {
					out = *p
				}
			}
			return nil
		}

		p := s.newPaymentLocked(d, in.Amount, currency, in.PaidAt)
		p.Note = in.Note
		s.payments[p.ID] = p
		s.persistPayment(p)
		s.rederiveDebtLocked(d.ID)
		s.emit(events.DebtPaymentAdded, origin, events.DebtPaymentEvent{Debt: *d, Payment: *p})
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Debt payment added", "debt_id", in.DebtID, "payment_id", out.ID, "amount", out.Amount)
	return &out, nil
}

// DeleteDebtPayment removes a payment. A payment booked through a
// transaction is removed by deleting that transaction.
func (s *Store) DeleteDebtPayment(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		p, ok := s.payments[id]
		if !ok {
			return apperr.NotFound("debt payment", id)
		}
		if p.RelatedTransactionID != "" {
			if _, ok := s.transactions[p.RelatedTransactionID]; ok {
				return s.deleteTransactionLocked(ctx, p.RelatedTransactionID, origin)
			}
		}
		delete(s.payments, id)
		s.persistDeletePayment(id)
		if d, ok := s.debts[p.DebtID]; ok {
			prev := *d
			s.rederiveDebtLocked(d.ID)
			s.emit(events.DebtUpdated, origin, events.DebtEvent{Debt: *d, Previous: &prev})
			s.emit(events.DebtPaymentDeleted, origin, events.DebtPaymentEvent{Debt: *d, Payment: *p})
		}
		return nil
	})
}

// DeleteDebt removes a debt, its payments, and the transactions that funded
// or repaid it.
func (s *Store) DeleteDebt(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		d, ok := s.debts[id]
		if !ok {
			return apperr.NotFound("debt", id)
		}
		prev := *d

		linked := s.sortedTransactionsLocked(func(tx *models.Transaction) bool {
			return tx.FundingDebtID == id || tx.RepaidDebtID() == id
		})
		for _, tx := range linked {
			if err := s.deleteTransactionLocked(ctx, tx.ID, origin); err != nil {
				return err
			}
		}
		var removed []models.DebtPayment
		for pid, p := range s.payments {
			if p.DebtID == id {
				removed = append(removed, *p)
				delete(s.payments, pid)
			}
		}
		sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
		for _, p := range removed {
			s.emit(events.DebtPaymentDeleted, origin, events.DebtPaymentEvent{Debt: prev, Payment: p})
		}
		delete(s.debts, id)
		s.persistDeleteDebt(id)
		s.emit(events.DebtDeleted, origin, events.DebtEvent{Debt: prev, Previous: &prev})
		return nil
	})
}

// RefreshDebtStatuses re-derives every debt against the current clock, which
// turns debts past their due date overdue.
func (s *Store) RefreshDebtStatuses(ctx context.Context, origin models.Origin) int {
	var changed int
	_ = s.mutate(ctx, func() error {
		for id, d := range s.debts {
			prev := *d
			if s.rederiveDebtLocked(id) {
				changed++
				s.emit(events.DebtUpdated, origin, events.DebtEvent{Debt: *d, Previous: &prev})
			}
		}
		return nil
	})
	return changed
}

// recordTransactionPaymentLocked derives a payment from a transaction that
// repays debtID.
func (s *Store) recordTransactionPaymentLocked(tx *models.Transaction, debtID string, origin models.Origin) {
	d, ok := s.debts[debtID]
	if !ok {
		s.logger.Warn("Transaction repays unknown debt", "transaction_id", tx.ID, "debt_id", debtID)
		return
	}
	p := s.newPaymentLocked(d, tx.Amount, tx.Currency, tx.Date)
	p.RelatedTransactionID = tx.ID
	p.Note = tx.Description
	if tx.BaseCurrency == d.BaseCurrency {
		p.RateUsedToBase = tx.RateUsedToBase
		p.ConvertedAmountToBase = tx.ConvertedAmountToBase
	}
	s.payments[p.ID] = p
	s.persistPayment(p)
	s.rederiveDebtLocked(d.ID)
	s.emit(events.DebtPaymentAdded, origin, events.DebtPaymentEvent{Debt: *d, Payment: *p})
}

func (s *Store) newPaymentLocked(d *models.Debt, amount float64, currency string, paidAt int64) *models.DebtPayment {
	toDebt := s.conv.Rate(currency, d.PrincipalCurrency)
	toBase := s.conv.Rate(currency, d.BaseCurrency)
	return &models.DebtPayment{
		ID:                    s.ids.New("dpay"),
		DebtID:                d.ID,
		Amount:                amount,
		Currency:              currency,
		RateUsedToDebt:        toDebt,
		RateUsedToBase:        toBase,
		ConvertedAmountToDebt: fx.Apply(amount, toDebt),
		ConvertedAmountToBase: fx.Apply(amount, toBase),
		PaidAt:                unixOrNow(paidAt, s.now()),
		CreatedAt:             s.now().Unix(),
	}
}

// rederiveDebtLocked recomputes principal and status from the full payment
// set, persisting the debt if anything moved.
func (s *Store) rederiveDebtLocked(id string) bool {
	d, ok := s.debts[id]
	if !ok {
		return false
	}
	old := *d
	calculator.DeriveDebt(*d, s.paymentsForLocked(id), s.now()).Apply(d)
	s.metrics.Recomputed("debt")
	if old.PrincipalAmount == d.PrincipalAmount &&
		old.PrincipalBaseValue == d.PrincipalBaseValue &&
		old.Status == d.Status {
		return false
	}
	s.stamp(&d.CreatedAt, &d.UpdatedAt)
	s.persistDebt(d)
	return true
}
