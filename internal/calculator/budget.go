package calculator

import "github.com/OybekDeveloper/leora.v2-sub001/internal/models"

// BudgetDerived holds the derived fields of a budget.
type BudgetDerived struct {
	SpentAmount       float64
	RemainingAmount   float64
	PercentUsed       float64
	ContributionTotal float64
	CurrentBalance    float64
}

// DeriveBudget computes a budget's derived fields from the complete set of its
// entries. Entries belonging to other budgets are ignored.
//
// Expense budgets: spent is the sum of expense (and transfer) entries, income
// entries are contributions that give room back. Income budgets: contributions
// are the sum of income (and transfer) entries, expense entries are spent out
// of the saved balance. RemainingAmount is clamped at zero, PercentUsed is not.
func DeriveBudget(b models.Budget, entries []models.BudgetEntry) BudgetDerived {
	var spent, contributed []float64
	for _, e := range entries {
		if e.BudgetID != b.ID {
			continue
		}
		switch e.Type {
		case models.TransactionExpense:
			spent = append(spent, e.AppliedAmountBudgetCurrency)
		case models.TransactionIncome:
			contributed = append(contributed, e.AppliedAmountBudgetCurrency)
		case models.TransactionTransfer:
			if b.TransactionType == models.TransactionIncome {
				contributed = append(contributed, e.AppliedAmountBudgetCurrency)
			} else {
				spent = append(spent, e.AppliedAmountBudgetCurrency)
			}
		}
	}

	d := BudgetDerived{
		SpentAmount:       sum(spent),
		ContributionTotal: sum(contributed),
	}

	var used float64
	if b.TransactionType == models.TransactionIncome {
		used = d.ContributionTotal - d.SpentAmount
		d.CurrentBalance = used
	} else {
		used = d.SpentAmount - d.ContributionTotal
		d.CurrentBalance = b.LimitAmount - used
	}

	d.RemainingAmount = b.LimitAmount - used
	if d.RemainingAmount < 0 {
		d.RemainingAmount = 0
	}
	d.PercentUsed = ratio(used, b.LimitAmount)
	return d
}

// Apply copies the derived fields onto b.
func (d BudgetDerived) Apply(b *models.Budget) {
	b.SpentAmount = d.SpentAmount
	b.RemainingAmount = d.RemainingAmount
	b.PercentUsed = d.PercentUsed
	b.ContributionTotal = d.ContributionTotal
	b.CurrentBalance = d.CurrentBalance
}
