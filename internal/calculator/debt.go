package calculator

import (
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/shopspring/decimal"
)

// DebtDerived holds the derived fields of a debt.
type DebtDerived struct {
	PrincipalAmount    float64
	PrincipalBaseValue float64
	Status             models.DebtStatus
}

// DeriveDebt computes the remaining principal from the opening principal and
// every payment of the debt, clamped at zero, then derives the status.
func DeriveDebt(d models.Debt, payments []models.DebtPayment, now time.Time) DebtDerived {
	principal := decimal.NewFromFloat(d.PrincipalStartAmount)
	base := decimal.NewFromFloat(fx.Apply(d.PrincipalStartAmount, d.RateOnStart))
	for _, p := range payments {
		if p.DebtID != d.ID {
			continue
		}
		principal = principal.Sub(decimal.NewFromFloat(p.ConvertedAmountToDebt))
		base = base.Sub(decimal.NewFromFloat(p.ConvertedAmountToBase))
	}

	out := DebtDerived{
		PrincipalAmount:    principal.InexactFloat64(),
		PrincipalBaseValue: base.InexactFloat64(),
	}
	if out.PrincipalAmount < 0 {
		out.PrincipalAmount = 0
	}
	if out.PrincipalBaseValue < 0 {
		out.PrincipalBaseValue = 0
	}
	out.Status = DebtStatus(out.PrincipalAmount, d.DueDate, now)
	return out
}

// DebtStatus derives the status of a debt: paid once nothing is left, overdue
// once the due date has passed, active otherwise.
func DebtStatus(principal float64, dueDate int64, now time.Time) models.DebtStatus {
	if principal <= epsilon {
		return models.DebtPaid
	}
	if dueDate > 0 && now.Unix() > dueDate {
		return models.DebtOverdue
	}
	return models.DebtActive
}

// Apply copies the derived fields onto d.
func (dd DebtDerived) Apply(d *models.Debt) {
	d.PrincipalAmount = dd.PrincipalAmount
	d.PrincipalBaseValue = dd.PrincipalBaseValue
	d.Status = dd.Status
}
