package calculator

import (
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionDeltas returns the balance change a transaction applies to each
// account it touches, multiplied by sign (1 to apply, -1 to revert).
//
// Income adds Amount to AccountID, expense subtracts it. A transfer subtracts
// Amount from FromAccountID and adds ToAmount (or Amount when ToAmount is
// unset) to ToAccountID. Zero and non-finite deltas are omitted.
func TransactionDeltas(tx models.Transaction, sign float64) map[string]float64 {
	deltas := make(map[string]float64, 2)
	add := func(accountID string, delta float64) {
		if accountID == "" || delta == 0 || !fx.Finite(delta) {
			return
		}
		deltas[accountID] = decimal.NewFromFloat(deltas[accountID]).
			Add(decimal.NewFromFloat(delta * sign)).InexactFloat64()
	}

	switch tx.Type {
	case models.TransactionIncome:
		add(tx.AccountID, tx.Amount)
	case models.TransactionExpense:
		add(tx.AccountID, -tx.Amount)
	case models.TransactionTransfer:
		add(tx.FromAccountID, -tx.Amount)
		toAmount := tx.ToAmount
		if toAmount == 0 {
			toAmount = tx.Amount
		}
		add(tx.ToAccountID, toAmount)
	}
	return deltas
}

// ReplayBalances derives the current balance of every account from its
// initial balance and the full set of applied transactions.
func ReplayBalances(accounts []models.Account, txs []models.Transaction) map[string]float64 {
	totals := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		totals[a.ID] = decimal.NewFromFloat(a.InitialBalance)
	}
	for _, tx := range txs {
		for accountID, delta := range TransactionDeltas(tx, 1) {
			if cur, ok := totals[accountID]; ok {
				totals[accountID] = cur.Add(decimal.NewFromFloat(delta))
			}
		}
	}

	balances := make(map[string]float64, len(totals))
	for id, d := range totals {
		balances[id] = d.InexactFloat64()
	}
	return balances
}

// Add returns a+b without binary floating point drift.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
