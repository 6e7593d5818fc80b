package linksync

import (
	"context"
	"fmt"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/finance"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// FundGoal books amount of progress on a money goal as finance activity and
// returns the ID the resulting finance check-in is keyed on.
//
// A budget-linked goal gets a transaction of the budget's type on the
// budget's account. A debt-linked goal gets a debt payment, booked on the
// debt's funding account when it has one.
func (g *Glue) FundGoal(ctx context.Context, goal models.Goal, amount float64, note string) (string, error) {
	if note == "" {
		note = fmt.Sprintf("Goal: %s", goal.Title)
	}

	switch {
	case goal.LinkedBudgetID != "":
		b, err := g.finance.Budget(goal.LinkedBudgetID)
		if err != nil {
			return "", err
		}
		if b.AccountID == "" {
			return "", apperr.Validationf(apperr.ErrBudgetAccountMissing, "budget %s", b.ID)
		}
		acct, err := g.finance.Account(b.AccountID)
		if err != nil {
			return "", fmt.Errorf("budget %s account: %w", b.ID, err)
		}
		currency := goal.Currency
		if currency == "" {
			currency = b.Currency
		}
		tx, err := g.finance.CreateTransaction(ctx, models.Transaction{
			Type:        b.TransactionType,
			AccountID:   acct.ID,
			Amount:      g.conv.Convert(amount, currency, acct.Currency),
			Currency:    acct.Currency,
			BudgetID:    b.ID,
			GoalID:      goal.ID,
			Description: note,
		}, models.OriginUser)
		if err != nil {
			return "", err
		}
		return tx.ID, nil

	case goal.LinkedDebtID != "":
		d, err := g.finance.Debt(goal.LinkedDebtID)
		if err != nil {
			return "", err
		}
		currency := goal.Currency
		if currency == "" {
			currency = d.PrincipalCurrency
		}
		p, err := g.finance.AddDebtPayment(ctx, finance.PaymentInput{
			DebtID:    d.ID,
			Amount:    amount,
			Currency:  currency,
			AccountID: d.FundingAccountID,
			Note:      note,
		}, models.OriginUser)
		if err != nil {
			return "", err
		}
		if p.RelatedTransactionID != "" {
			return p.RelatedTransactionID, nil
		}
		return p.ID, nil
	}
	return "", apperr.Validationf(apperr.ErrGoalNotMoney, "goal %s", goal.ID)
}
