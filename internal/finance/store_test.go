package finance

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/idgen"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) Enqueue(name string, _ outbox.WriteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, name)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op == name {
			n++
		}
	}
	return n
}

type harness struct {
	store  *Store
	bus    *events.Bus
	clock  *clock
	rates  *fx.Table
	writes *recorder
	seen   []events.Event
}

func newHarness(t *testing.T, matching MatchPolicy) *harness {
	t.Helper()
	h := &harness{
		bus:    events.NewBus(),
		clock:  &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		writes: &recorder{},
	}
	h.rates = fx.NewTable("USD").WithClock(h.clock.Now)
	h.rates.SetRates(h.clock.Now().Add(-time.Hour), map[string]float64{"EUR": 0.9, "UZS": 12500})
	h.bus.SubscribeAll(func(_ context.Context, e events.Event) {
		h.seen = append(h.seen, e)
	})
	h.store = New(Config{
		BaseCurrency: "USD",
		Matching:     matching,
		Converter:    h.rates,
		IDs:          idgen.NewSequence(),
		Bus:          h.bus,
		Persister:    h.writes,
		Now:          h.clock.Now,
	})
	return h
}

func (h *harness) account(t *testing.T, name, currency string, initial float64) *models.Account {
	t.Helper()
	a, err := h.store.CreateAccount(context.Background(), models.Account{
		Name:           name,
		Currency:       currency,
		InitialBalance: initial,
	}, models.OriginUser)
	require.NoError(t, err)
	return a
}

func (h *harness) balance(t *testing.T, id string) float64 {
	t.Helper()
	a, err := h.store.Account(id)
	require.NoError(t, err)
	return a.CurrentBalance
}

func (h *harness) names() []events.Name {
	out := make([]events.Name, 0, len(h.seen))
	for _, e := range h.seen {
		out = append(out, e.Name)
	}
	return out
}

func TestTransactionBalances(t *testing.T) {
	ctx := context.Background()

	t.Run("income and expense move the account", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		cash := h.account(t, "Cash", "USD", 100)

		_, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: cash.ID, Amount: 50,
		}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: cash.ID, Amount: 30.1,
		}, models.OriginUser)
		require.NoError(t, err)

		assert.InDelta(t, 119.9, h.balance(t, cash.ID), 1e-9)
	})

	t.Run("transfer across currencies credits the converted amount", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		usd := h.account(t, "USD card", "USD", 500)
		eur := h.account(t, "EUR card", "EUR", 0)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type:          models.TransactionTransfer,
			FromAccountID: usd.ID,
			ToAccountID:   eur.ID,
			Amount:        100,
		}, models.OriginUser)
		require.NoError(t, err)

		assert.Equal(t, "USD", tx.Currency)
		assert.Equal(t, "EUR", tx.ToCurrency)
		assert.InDelta(t, 90, tx.ToAmount, 1e-9)
		assert.InDelta(t, 400, h.balance(t, usd.ID), 1e-9)
		assert.InDelta(t, 90, h.balance(t, eur.ID), 1e-9)
	})

	t.Run("rates are frozen at creation", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		eur := h.account(t, "EUR card", "EUR", 0)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: eur.ID, Amount: 90,
		}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 100, tx.ConvertedAmountToBase, 1e-6)

		h.rates.SetOverride("EUR", "USD", 2)
		got, err := h.store.Transaction(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.RateUsedToBase, got.RateUsedToBase)
		assert.Equal(t, tx.ConvertedAmountToBase, got.ConvertedAmountToBase)
	})

	t.Run("update reverts then reapplies", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 100)
		b := h.account(t, "B", "USD", 100)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 40,
		}, models.OriginUser)
		require.NoError(t, err)

		amount := 10.0
		_, err = h.store.UpdateTransaction(ctx, tx.ID, models.TransactionUpdate{
			AccountID: &b.ID,
			Amount:    &amount,
		}, models.OriginUser)
		require.NoError(t, err)

		assert.InDelta(t, 100, h.balance(t, a.ID), 1e-9)
		assert.InDelta(t, 90, h.balance(t, b.ID), 1e-9)
	})

	t.Run("delete restores the balance", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 100)
		b := h.account(t, "B", "EUR", 0)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionTransfer, FromAccountID: a.ID, ToAccountID: b.ID, Amount: 25,
		}, models.OriginUser)
		require.NoError(t, err)
		require.NoError(t, h.store.DeleteTransaction(ctx, tx.ID, models.OriginUser))

		assert.InDelta(t, 100, h.balance(t, a.ID), 1e-9)
		assert.InDelta(t, 0, h.balance(t, b.ID), 1e-9)
	})

	t.Run("non-finite amounts apply no delta", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 100)

		_, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: math.NaN(),
		}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: a.ID, Amount: math.Inf(1),
		}, models.OriginUser)
		require.NoError(t, err)

		assert.InDelta(t, 100, h.balance(t, a.ID), 1e-9)
	})

	t.Run("recompute matches incremental balances", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 10)
		b := h.account(t, "B", "EUR", 5)
		for i := 0; i < 5; i++ {
			_, err := h.store.CreateTransaction(ctx, models.Transaction{
				Type: models.TransactionTransfer, FromAccountID: a.ID, ToAccountID: b.ID, Amount: 1.1,
			}, models.OriginUser)
			require.NoError(t, err)
		}
		before := h.store.State().Accounts

		h.store.Recompute(ctx)

		assert.Equal(t, before, h.store.State().Accounts)
	})
}

func TestTransactionValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, MatchLinked)
	a := h.account(t, "A", "USD", 100)

	tests := []struct {
		name string
		tx   models.Transaction
		want error
	}{
		{
			name: "unknown type",
			tx:   models.Transaction{Type: "gift", AccountID: a.ID, Amount: 1},
			want: apperr.ErrInvalidTransactionType,
		},
		{
			name: "missing account",
			tx:   models.Transaction{Type: models.TransactionExpense, AccountID: "nope", Amount: 1},
			want: apperr.ErrAccountRequired,
		},
		{
			name: "transfer to self",
			tx:   models.Transaction{Type: models.TransactionTransfer, FromAccountID: a.ID, ToAccountID: a.ID, Amount: 1},
			want: apperr.ErrSameAccountTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.store.CreateTransaction(ctx, tt.tx, models.OriginUser)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, apperr.IsValidation(err))
		})
	}

	assert.Empty(t, h.store.Transactions())
	assert.InDelta(t, 100, h.balance(t, a.ID), 1e-9)

	_, err := h.store.UpdateTransaction(ctx, "missing", models.TransactionUpdate{}, models.OriginUser)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()

	t.Run("expense budget overspend", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 1000)
		b, err := h.store.CreateBudget(ctx, models.Budget{
			Name: "Food", TransactionType: models.TransactionExpense, LimitAmount: 100, CategoryIDs: []string{"food"},
		}, models.OriginUser)
		require.NoError(t, err)

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 150, CategoryID: "food",
		}, models.OriginUser)
		require.NoError(t, err)

		got, err := h.store.Budget(b.ID)
		require.NoError(t, err)
		assert.InDelta(t, 150, got.SpentAmount, 1e-9)
		assert.InDelta(t, 0, got.RemainingAmount, 1e-9)
		assert.InDelta(t, 1.5, got.PercentUsed, 1e-9)
		assert.InDelta(t, -50, got.CurrentBalance, 1e-9)
	})

	t.Run("income budget accumulates contributions", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{
			Name: "Savings", TransactionType: models.TransactionIncome, LimitAmount: 1000,
		}, models.OriginUser)
		require.NoError(t, err)

		for _, amount := range []float64{200, 300} {
			_, err := h.store.CreateTransaction(ctx, models.Transaction{
				Type: models.TransactionIncome, AccountID: a.ID, Amount: amount, BudgetID: b.ID,
			}, models.OriginUser)
			require.NoError(t, err)
		}

		got, err := h.store.Budget(b.ID)
		require.NoError(t, err)
		assert.InDelta(t, 500, got.ContributionTotal, 1e-9)
		assert.InDelta(t, 500, got.CurrentBalance, 1e-9)
		assert.InDelta(t, 500, got.RemainingAmount, 1e-9)
		assert.InDelta(t, 0.5, got.PercentUsed, 1e-9)
	})

	t.Run("entries convert into the budget currency", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{
			Name: "Trip", Currency: "EUR", LimitAmount: 900,
		}, models.OriginUser)
		require.NoError(t, err)

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 100, BudgetID: b.ID,
		}, models.OriginUser)
		require.NoError(t, err)

		entries := h.store.BudgetEntries(b.ID)
		require.Len(t, entries, 1)
		assert.InDelta(t, 90, entries[0].AppliedAmountBudgetCurrency, 1e-9)
		assert.InDelta(t, 0.9, entries[0].RateUsedTxnToBudget, 1e-9)
	})

	t.Run("deleting the transaction removes its entry", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{Name: "Fun", LimitAmount: 50}, models.OriginUser)
		require.NoError(t, err)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 20, BudgetID: b.ID,
		}, models.OriginUser)
		require.NoError(t, err)
		require.NoError(t, h.store.DeleteTransaction(ctx, tx.ID, models.OriginUser))

		got, err := h.store.Budget(b.ID)
		require.NoError(t, err)
		assert.Empty(t, h.store.BudgetEntries(b.ID))
		assert.InDelta(t, 0, got.SpentAmount, 1e-9)
		assert.InDelta(t, 50, got.RemainingAmount, 1e-9)
	})

	t.Run("linked policy ignores unrelated budgets", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{Name: "Other", LimitAmount: 50}, models.OriginUser)
		require.NoError(t, err)

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 20,
		}, models.OriginUser)
		require.NoError(t, err)
		assert.Empty(t, h.store.BudgetEntries(b.ID))
	})

	t.Run("currency policy matches by currency but not transfers", func(t *testing.T) {
		h := newHarness(t, MatchCurrency)
		a := h.account(t, "A", "USD", 100)
		c := h.account(t, "C", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{Name: "All", LimitAmount: 50}, models.OriginUser)
		require.NoError(t, err)

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 20,
		}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionTransfer, FromAccountID: a.ID, ToAccountID: c.ID, Amount: 5,
		}, models.OriginUser)
		require.NoError(t, err)

		assert.Len(t, h.store.BudgetEntries(b.ID), 1)
	})

	t.Run("archived budgets only take explicit transactions", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{Name: "Old", LimitAmount: 50, CategoryIDs: []string{"x"}}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.ArchiveBudget(ctx, b.ID, true, models.OriginUser)
		require.NoError(t, err)

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 1, CategoryID: "x",
		}, models.OriginUser)
		require.NoError(t, err)
		assert.Empty(t, h.store.BudgetEntries(b.ID))

		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 1, BudgetID: b.ID,
		}, models.OriginUser)
		require.NoError(t, err)
		assert.Len(t, h.store.BudgetEntries(b.ID), 1)
	})

	t.Run("limit change re-derives", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		b, err := h.store.CreateBudget(ctx, models.Budget{Name: "Rent", LimitAmount: 100}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 50, BudgetID: b.ID,
		}, models.OriginUser)
		require.NoError(t, err)

		limit := 200.0
		got, err := h.store.UpdateBudget(ctx, b.ID, models.BudgetUpdate{LimitAmount: &limit}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 150, got.RemainingAmount, 1e-9)
		assert.InDelta(t, 0.25, got.PercentUsed, 1e-9)
	})
}

func TestDebts(t *testing.T) {
	ctx := context.Background()

	t.Run("payments pay a debt off", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction:               models.DebtIOwe,
			CounterpartyName:        "Ali",
			PrincipalOriginalAmount: 100,
		}}, models.OriginUser)
		require.NoError(t, err)
		assert.Equal(t, models.DebtActive, d.Status)
		assert.NotEmpty(t, d.CounterpartyID)

		_, err = h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 60}, models.OriginUser)
		require.NoError(t, err)
		got, err := h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 40, got.PrincipalAmount, 1e-9)
		assert.Equal(t, models.DebtActive, got.Status)

		last, err := h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 50}, models.OriginUser)
		require.NoError(t, err)
		got, err = h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0, got.PrincipalAmount, 1e-9)
		assert.Equal(t, models.DebtPaid, got.Status)

		require.NoError(t, h.store.DeleteDebtPayment(ctx, last.ID, models.OriginUser))
		got, err = h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 40, got.PrincipalAmount, 1e-9)
		assert.Equal(t, models.DebtActive, got.Status)
	})

	t.Run("funding does not reduce principal", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)

		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction:               models.DebtIOwe,
			PrincipalOriginalAmount: 200,
			FundingAccountID:        a.ID,
		}}, models.OriginUser)
		require.NoError(t, err)

		require.NotEmpty(t, d.FundingTransactionID)
		assert.InDelta(t, 200, d.PrincipalAmount, 1e-9)
		assert.InDelta(t, -200, h.balance(t, a.ID), 1e-9)
		assert.Empty(t, h.store.DebtPayments(d.ID))
	})

	t.Run("a claim is funded as income and repaid as expense", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 500)

		d, err := h.store.CreateDebt(ctx, DebtInput{
			Debt: models.Debt{
				Direction:               models.DebtTheyOweMe,
				PrincipalOriginalAmount: 100,
				FundingAccountID:        a.ID,
			},
			FundingAmount: 95,
		}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 595, h.balance(t, a.ID), 1e-9)

		funding, err := h.store.Transaction(d.FundingTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionIncome, funding.Type)

		p, err := h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 30, AccountID: a.ID}, models.OriginUser)
		require.NoError(t, err)
		assert.NotEmpty(t, p.RelatedTransactionID)
		assert.InDelta(t, 565, h.balance(t, a.ID), 1e-9)

		got, err := h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 70, got.PrincipalAmount, 1e-9)
	})

	t.Run("cash flow funding moves lent money out and repayment back in", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		h.store.funding = FundingCashFlow
		a := h.account(t, "A", "USD", 500)

		d, err := h.store.CreateDebt(ctx, DebtInput{
			Debt: models.Debt{
				Direction:               models.DebtTheyOweMe,
				PrincipalOriginalAmount: 100,
				FundingAccountID:        a.ID,
			},
			FundingAmount: 95,
		}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 405, h.balance(t, a.ID), 1e-9)

		_, err = h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 30, AccountID: a.ID}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 435, h.balance(t, a.ID), 1e-9)
	})

	t.Run("a repaying transaction is the payment", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 500)
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtIOwe, PrincipalOriginalAmount: 100,
		}}, models.OriginUser)
		require.NoError(t, err)

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionExpense, AccountID: a.ID, Amount: 25, DebtID: d.ID,
		}, models.OriginUser)
		require.NoError(t, err)
		require.Len(t, h.store.DebtPayments(d.ID), 1)

		amount := 40.0
		_, err = h.store.UpdateTransaction(ctx, tx.ID, models.TransactionUpdate{Amount: &amount}, models.OriginUser)
		require.NoError(t, err)
		require.Len(t, h.store.DebtPayments(d.ID), 1)
		got, err := h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 60, got.PrincipalAmount, 1e-9)

		require.NoError(t, h.store.DeleteTransaction(ctx, tx.ID, models.OriginUser))
		got, err = h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.InDelta(t, 100, got.PrincipalAmount, 1e-9)
		assert.Empty(t, h.store.DebtPayments(d.ID))
	})

	t.Run("past due debts turn overdue", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		due := h.clock.Now().Add(24 * time.Hour).Unix()
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtTheyOweMe, PrincipalOriginalAmount: 10, DueDate: due,
		}}, models.OriginUser)
		require.NoError(t, err)
		assert.Equal(t, models.DebtActive, d.Status)

		h.clock.Advance(48 * time.Hour)
		assert.Equal(t, 1, h.store.RefreshDebtStatuses(ctx, models.OriginUser))

		got, err := h.store.Debt(d.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DebtOverdue, got.Status)
	})

	t.Run("principal edit rebases on payments", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtIOwe, PrincipalOriginalAmount: 100,
		}}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 30}, models.OriginUser)
		require.NoError(t, err)

		principal := 50.0
		got, err := h.store.UpdateDebt(ctx, d.ID, models.DebtUpdate{PrincipalAmount: &principal}, models.OriginUser)
		require.NoError(t, err)
		assert.InDelta(t, 50, got.PrincipalAmount, 1e-9)
		assert.InDelta(t, 80, got.PrincipalStartAmount, 1e-9)
	})

	t.Run("delete removes funding and payments", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtIOwe, PrincipalOriginalAmount: 100, FundingAccountID: a.ID,
		}}, models.OriginUser)
		require.NoError(t, err)
		_, err = h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 10, AccountID: a.ID}, models.OriginUser)
		require.NoError(t, err)

		require.NoError(t, h.store.DeleteDebt(ctx, d.ID, models.OriginUser))

		assert.Empty(t, h.store.Transactions())
		assert.Empty(t, h.store.DebtPayments(d.ID))
		assert.InDelta(t, 0, h.balance(t, a.ID), 1e-9)
		_, err = h.store.Debt(d.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("delete announces payments made without an account", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtTheyOweMe, PrincipalOriginalAmount: 300,
		}}, models.OriginUser)
		require.NoError(t, err)
		p, err := h.store.AddDebtPayment(ctx, PaymentInput{DebtID: d.ID, Amount: 120}, models.OriginUser)
		require.NoError(t, err)

		h.seen = nil
		require.NoError(t, h.store.DeleteDebt(ctx, d.ID, models.OriginUser))
		assert.Equal(t, []events.Name{events.DebtPaymentDeleted, events.DebtDeleted}, h.names())
		assert.Equal(t, p.ID, h.seen[0].Payload.(events.DebtPaymentEvent).Payment.ID)
		assert.Empty(t, h.store.DebtPayments(d.ID))
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		_, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: "sideways", PrincipalOriginalAmount: 1,
		}}, models.OriginUser)
		assert.ErrorIs(t, err, apperr.ErrInvalidDebtDirection)

		_, err = h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
			Direction: models.DebtIOwe, PrincipalOriginalAmount: -5,
		}}, models.OriginUser)
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
		assert.Empty(t, h.store.State().Debts)
	})
}

func TestParseFundingPolicy(t *testing.T) {
	assert.Equal(t, FundingClaim, ParseFundingPolicy(""))
	assert.Equal(t, FundingClaim, ParseFundingPolicy("claim"))
	assert.Equal(t, FundingCashFlow, ParseFundingPolicy(" Cash_Flow "))
	assert.Equal(t, FundingClaim, ParseFundingPolicy("other"))
}

func TestCounterparties(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, MatchLinked)

	c, err := h.store.CreateCounterparty(ctx, "  Jane   Doe ", models.OriginUser)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.DisplayName)
	assert.Equal(t, "jane doe", c.SearchKey)

	_, err = h.store.CreateCounterparty(ctx, "JANE DOE", models.OriginUser)
	assert.ErrorIs(t, err, apperr.ErrDuplicateCounterparty)

	_, err = h.store.CreateCounterparty(ctx, "   ", models.OriginUser)
	assert.ErrorIs(t, err, apperr.ErrNameRequired)

	d, err := h.store.CreateDebt(ctx, DebtInput{Debt: models.Debt{
		Direction: models.DebtTheyOweMe, CounterpartyName: "jane doe", PrincipalOriginalAmount: 5,
	}}, models.OriginUser)
	require.NoError(t, err)
	assert.Equal(t, c.ID, d.CounterpartyID)

	err = h.store.DeleteCounterparty(ctx, c.ID, models.OriginUser)
	assert.ErrorIs(t, err, apperr.ErrCounterpartyInUse)

	_, err = h.store.RenameCounterparty(ctx, c.ID, "Jane Smith", models.OriginUser)
	require.NoError(t, err)
	got, err := h.store.Debt(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.CounterpartyName)

	require.NoError(t, h.store.DeleteDebt(ctx, d.ID, models.OriginUser))
	require.NoError(t, h.store.DeleteCounterparty(ctx, c.ID, models.OriginUser))
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, MatchLinked)
	a := h.account(t, "A", "USD", 100)
	b := h.account(t, "B", "USD", 100)
	budget, err := h.store.CreateBudget(ctx, models.Budget{Name: "All", LimitAmount: 100}, models.OriginUser)
	require.NoError(t, err)

	_, err = h.store.CreateTransaction(ctx, models.Transaction{
		Type: models.TransactionExpense, AccountID: a.ID, Amount: 30, BudgetID: budget.ID,
	}, models.OriginUser)
	require.NoError(t, err)
	_, err = h.store.CreateTransaction(ctx, models.Transaction{
		Type: models.TransactionTransfer, FromAccountID: a.ID, ToAccountID: b.ID, Amount: 20,
	}, models.OriginUser)
	require.NoError(t, err)

	require.NoError(t, h.store.DeleteAccount(ctx, a.ID, models.OriginUser))

	assert.Empty(t, h.store.Transactions())
	assert.InDelta(t, 100, h.balance(t, b.ID), 1e-9)
	got, err := h.store.Budget(budget.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.SpentAmount, 1e-9)
}

func TestEventsAndPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("user writes publish after persisting", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		h.seen = nil

		tx, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: a.ID, Amount: 5, GoalID: "goal_1",
		}, models.OriginUser)
		require.NoError(t, err)

		assert.Contains(t, h.names(), events.TransactionCreated)
		assert.Contains(t, h.names(), events.AccountUpdated)
		assert.Equal(t, 1, h.writes.count("transaction.create"))
		assert.Equal(t, 1, h.writes.count("account.update"))

		for _, e := range h.seen {
			if e.Name == events.TransactionCreated {
				payload := e.Payload.(events.TransactionEvent)
				assert.Equal(t, tx.ID, payload.Transaction.ID)
				assert.Equal(t, []string{"goal_1"}, payload.GoalIDs)
			}
		}
	})

	t.Run("sync writes stay silent", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		h.seen = nil

		_, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: a.ID, Amount: 5,
		}, models.OriginSync)
		require.NoError(t, err)

		assert.Empty(t, h.seen)
		assert.InDelta(t, 5, h.balance(t, a.ID), 1e-9)
		assert.Equal(t, 1, h.writes.count("transaction.create"))
	})

	t.Run("handlers may call back into the store", func(t *testing.T) {
		h := newHarness(t, MatchLinked)
		a := h.account(t, "A", "USD", 0)
		events.On(h.bus, events.TransactionCreated, func(ctx context.Context, _ models.Origin, e events.TransactionEvent) {
			_, err := h.store.Account(e.Transaction.AccountID)
			assert.NoError(t, err)
		})

		_, err := h.store.CreateTransaction(ctx, models.Transaction{
			Type: models.TransactionIncome, AccountID: a.ID, Amount: 5,
		}, models.OriginUser)
		require.NoError(t, err)
	})
}

func TestLoadRederives(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, MatchLinked)
	a := h.account(t, "A", "USD", 50)
	b, err := h.store.CreateBudget(ctx, models.Budget{Name: "B", LimitAmount: 100}, models.OriginUser)
	require.NoError(t, err)
	_, err = h.store.CreateTransaction(ctx, models.Transaction{
		Type: models.TransactionExpense, AccountID: a.ID, Amount: 20, BudgetID: b.ID,
	}, models.OriginUser)
	require.NoError(t, err)

	st := h.store.State()
	st.Accounts[0].CurrentBalance = 999
	st.Budgets[0].SpentAmount = 0

	fresh := newHarness(t, MatchLinked)
	fresh.store.Load(ctx, st)

	got, err := fresh.store.Account(a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 30, got.CurrentBalance, 1e-9)
	budget, err := fresh.store.Budget(b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20, budget.SpentAmount, 1e-9)
	assert.Empty(t, fresh.seen)
}

func TestParseMatchPolicy(t *testing.T) {
	assert.Equal(t, MatchCurrency, ParseMatchPolicy(" Currency "))
	assert.Equal(t, MatchLinked, ParseMatchPolicy("linked"))
	assert.Equal(t, MatchLinked, ParseMatchPolicy(""))
}
