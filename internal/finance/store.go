// Package finance owns accounts, transactions, budgets, debts and
// counterparties, and keeps every derived figure consistent with the ledger.
//
// Each mutation runs under the store lock in four steps: apply the change,
// re-derive the affected aggregates, enqueue the writes, and collect events.
// Events are published only after the lock is released so that handlers may
// call back into the store.
package finance

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/calculator"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/idgen"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/outbox"
)

// MatchPolicy decides which budgets a transaction is attributed to.
type MatchPolicy string

const (
	// MatchLinked attributes a transaction to the budget it names and to
	// budgets that list its category.
	MatchLinked MatchPolicy = "linked"

	// MatchCurrency additionally attributes income and expense transactions to
	// every active budget sharing their currency or base currency.
	MatchCurrency MatchPolicy = "currency"
)

// FundingPolicy decides the transaction type a debt's funding transaction is
// booked as. Repayments are booked as the opposite type.
type FundingPolicy string

const (
	// FundingClaim books a they_owe_me debt as income and an i_owe debt as
	// expense.
	FundingClaim FundingPolicy = "claim"

	// FundingCashFlow follows the money: borrowed principal arrives as income
	// and lent principal leaves as expense.
	FundingCashFlow FundingPolicy = "cash_flow"
)

// ParseFundingPolicy maps a config value to a policy, defaulting to FundingClaim.
func ParseFundingPolicy(s string) FundingPolicy {
	if FundingPolicy(strings.ToLower(strings.TrimSpace(s))) == FundingCashFlow {
		return FundingCashFlow
	}
	return FundingClaim
}

// ParseMatchPolicy maps a config value to a policy, defaulting to MatchLinked.
func ParseMatchPolicy(s string) MatchPolicy {
	if MatchPolicy(strings.ToLower(strings.TrimSpace(s))) == MatchCurrency {
		return MatchCurrency
	}
	return MatchLinked
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, name events.Name, origin models.Origin, payload any)
}

// Persister accepts deferred storage writes.
type Persister interface {
	Enqueue(name string, fn outbox.WriteFunc)
}

// Config wires a Store. Zero fields get working defaults.
type Config struct {
	BaseCurrency string
	Matching     MatchPolicy
	Funding      FundingPolicy
	Converter    fx.Converter
	IDs          idgen.Generator
	Bus          Publisher
	Persister    Persister
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

type pendingEvent struct {
	name    events.Name
	origin  models.Origin
	payload any
}

// Store is the in-memory finance domain.
type Store struct {
	mu sync.Mutex

	accounts       map[string]*models.Account
	transactions   map[string]*models.Transaction
	budgets        map[string]*models.Budget
	entries        map[string]*models.BudgetEntry
	debts          map[string]*models.Debt
	payments       map[string]*models.DebtPayment
	counterparties map[string]*models.Counterparty

	base     string
	matching MatchPolicy
	funding  FundingPolicy
	conv     fx.Converter
	ids      idgen.Generator
	bus      Publisher
	persist  Persister
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	pending []pendingEvent
}

// New creates an empty finance store.
func New(cfg Config) *Store {
	s := &Store{
		accounts:       make(map[string]*models.Account),
		transactions:   make(map[string]*models.Transaction),
		budgets:        make(map[string]*models.Budget),
		entries:        make(map[string]*models.BudgetEntry),
		debts:          make(map[string]*models.Debt),
		payments:       make(map[string]*models.DebtPayment),
		counterparties: make(map[string]*models.Counterparty),

		base:     fx.Normalize(cfg.BaseCurrency),
		matching: cfg.Matching,
		funding:  cfg.Funding,
		conv:     cfg.Converter,
		ids:      cfg.IDs,
		bus:      cfg.Bus,
		persist:  cfg.Persister,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if s.base == "" {
		s.base = "USD"
	}
	if s.matching == "" {
		s.matching = MatchLinked
	}
	if s.funding == "" {
		s.funding = FundingClaim
	}
	if s.conv == nil {
		s.conv = fx.Identity{}
	}
	if s.ids == nil {
		s.ids = idgen.UUID{}
	}
	if s.persist == nil {
		s.persist = outbox.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// BaseCurrency returns the currency base-denominated figures use.
func (s *Store) BaseCurrency() string {
	return s.base
}

// Converter returns the converter used to freeze rates.
func (s *Store) Converter() fx.Converter {
	return s.conv
}

// mutate runs fn under the lock and publishes the events it collected once
// the lock is released.
func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	err := fn()
	evs := s.pending
	s.pending = nil
	s.mu.Unlock()

	if s.bus == nil {
		return err
	}
	for _, e := range evs {
		s.bus.Publish(ctx, e.name, e.origin, e.payload)
	}
	return err
}

// emit queues an event unless the mutation came from sync glue.
func (s *Store) emit(name events.Name, origin models.Origin, payload any) {
	if !origin.Propagate() {
		return
	}
	s.pending = append(s.pending, pendingEvent{name: name, origin: origin, payload: payload})
}

func (s *Store) stamp(createdAt, updatedAt *int64) {
	models.Stamp(createdAt, updatedAt, s.now())
}

// Load replaces the store contents with a persisted snapshot and re-derives
// everything. Nothing is published.
func (s *Store) Load(ctx context.Context, st *models.FinanceState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*models.Account, len(st.Accounts))
	for i := range st.Accounts {
		a := st.Accounts[i]
		s.accounts[a.ID] = &a
	}
	s.transactions = make(map[string]*models.Transaction, len(st.Transactions))
	for i := range st.Transactions {
		tx := st.Transactions[i]
		s.transactions[tx.ID] = &tx
	}
	s.budgets = make(map[string]*models.Budget, len(st.Budgets))
	for i := range st.Budgets {
		b := cloneBudget(st.Budgets[i])
		s.budgets[b.ID] = &b
	}
	s.entries = make(map[string]*models.BudgetEntry, len(st.BudgetEntries))
	for i := range st.BudgetEntries {
		e := st.BudgetEntries[i]
		s.entries[e.ID] = &e
	}
	s.debts = make(map[string]*models.Debt, len(st.Debts))
	for i := range st.Debts {
		d := st.Debts[i]
		s.debts[d.ID] = &d
	}
	s.payments = make(map[string]*models.DebtPayment, len(st.DebtPayments))
	for i := range st.DebtPayments {
		p := st.DebtPayments[i]
		s.payments[p.ID] = &p
	}
	s.counterparties = make(map[string]*models.Counterparty, len(st.Counterparties))
	for i := range st.Counterparties {
		c := st.Counterparties[i]
		s.counterparties[c.ID] = &c
	}

	s.recomputeLocked(ctx)
	s.logger.Info("Finance state loaded",
		"accounts", len(s.accounts),
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"debts", len(s.debts),
	)
}

// Recompute rebuilds every derived figure from the raw ledger: account
// balances from initial balances and transactions, budgets from their
// entries, debts from their payments. Figures that changed are persisted.
func (s *Store) Recompute(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked(ctx)
}

func (s *Store) recomputeLocked(ctx context.Context) {
	accounts := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, *a)
	}
	txs := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		txs = append(txs, *tx)
	}
	for id, bal := range calculator.ReplayBalances(accounts, txs) {
		a := s.accounts[id]
		if a.CurrentBalance != bal {
			a.CurrentBalance = bal
			s.persistAccount(a)
		}
	}
	for id := range s.budgets {
		s.rederiveBudgetLocked(id)
	}
	for id := range s.debts {
		s.rederiveDebtLocked(id)
	}
	s.metrics.Recomputed("finance")
}

// State returns a copy of every finance collection in creation order.
func (s *Store) State() *models.FinanceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &models.FinanceState{
		Accounts:       make([]models.Account, 0, len(s.accounts)),
		Transactions:   make([]models.Transaction, 0, len(s.transactions)),
		Budgets:        make([]models.Budget, 0, len(s.budgets)),
		BudgetEntries:  make([]models.BudgetEntry, 0, len(s.entries)),
		Debts:          make([]models.Debt, 0, len(s.debts)),
		DebtPayments:   make([]models.DebtPayment, 0, len(s.payments)),
		Counterparties: make([]models.Counterparty, 0, len(s.counterparties)),
	}
	for _, a := range s.accounts {
		st.Accounts = append(st.Accounts, *a)
	}
	sort.Slice(st.Accounts, func(i, j int) bool {
		return before(st.Accounts[i].CreatedAt, st.Accounts[i].ID, st.Accounts[j].CreatedAt, st.Accounts[j].ID)
	})
	st.Transactions = s.sortedTransactionsLocked(func(*models.Transaction) bool { return true })
	for _, b := range s.budgets {
		st.Budgets = append(st.Budgets, cloneBudget(*b))
	}
	sort.Slice(st.Budgets, func(i, j int) bool {
		return before(st.Budgets[i].CreatedAt, st.Budgets[i].ID, st.Budgets[j].CreatedAt, st.Budgets[j].ID)
	})
	for _, e := range s.entries {
		st.BudgetEntries = append(st.BudgetEntries, *e)
	}
	sort.Slice(st.BudgetEntries, func(i, j int) bool {
		a, b := st.BudgetEntries[i], st.BudgetEntries[j]
		return before(a.SnapshottedAt, a.ID, b.SnapshottedAt, b.ID)
	})
	for _, d := range s.debts {
		st.Debts = append(st.Debts, *d)
	}
	sort.Slice(st.Debts, func(i, j int) bool {
		return before(st.Debts[i].CreatedAt, st.Debts[i].ID, st.Debts[j].CreatedAt, st.Debts[j].ID)
	})
	for _, p := range s.payments {
		st.DebtPayments = append(st.DebtPayments, *p)
	}
	sort.Slice(st.DebtPayments, func(i, j int) bool {
		a, b := st.DebtPayments[i], st.DebtPayments[j]
		return before(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	for _, c := range s.counterparties {
		st.Counterparties = append(st.Counterparties, *c)
	}
	sort.Slice(st.Counterparties, func(i, j int) bool {
		a, b := st.Counterparties[i], st.Counterparties[j]
		return before(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return st
}

// Account returns a copy of the account with the given ID.
func (s *Store) Account(id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account", id)
	}
	out := *a
	return &out, nil
}

// Transaction returns a copy of the transaction with the given ID.
func (s *Store) Transaction(id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, apperr.NotFound("transaction", id)
	}
	out := *tx
	return &out, nil
}

// Transactions returns copies of all transactions in creation order.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTransactionsLocked(func(*models.Transaction) bool { return true })
}

// Budget returns a copy of the budget with the given ID.
func (s *Store) Budget(id string) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, apperr.NotFound("budget", id)
	}
	out := cloneBudget(*b)
	return &out, nil
}

// BudgetEntries returns the ledger entries of a budget.
func (s *Store) BudgetEntries(budgetID string) []models.BudgetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesForLocked(budgetID)
}

// Debt returns a copy of the debt with the given ID.
func (s *Store) Debt(id string) (*models.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return nil, apperr.NotFound("debt", id)
	}
	out := *d
	return &out, nil
}

// DebtPayments returns the payments of a debt.
func (s *Store) DebtPayments(debtID string) []models.DebtPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentsForLocked(debtID)
}

// Counterparty returns a copy of the counterparty with the given ID.
func (s *Store) Counterparty(id string) (*models.Counterparty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counterparties[id]
	if !ok {
		return nil, apperr.NotFound("counterparty", id)
	}
	out := *c
	return &out, nil
}

func (s *Store) sortedTransactionsLocked(keep func(*models.Transaction) bool) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, tx := range s.transactions {
		if keep(tx) {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (s *Store) entriesForLocked(budgetID string) []models.BudgetEntry {
	var out []models.BudgetEntry
	for _, e := range s.entries {
		if e.BudgetID == budgetID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].SnapshottedAt, out[i].ID, out[j].SnapshottedAt, out[j].ID)
	})
	return out
}

func (s *Store) paymentsForLocked(debtID string) []models.DebtPayment {
	var out []models.DebtPayment
	for _, p := range s.payments {
		if p.DebtID == debtID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func before(at1 int64, id1 string, at2 int64, id2 string) bool {
	if at1 != at2 {
		return at1 < at2
	}
	return id1 < id2
}

func cloneBudget(b models.Budget) models.Budget {
	if b.CategoryIDs != nil {
		b.CategoryIDs = append([]string(nil), b.CategoryIDs...)
	}
	return b
}
