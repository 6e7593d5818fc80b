// Package linksync keeps goals consistent with the budgets, debts and
// transactions behind them.
//
// The glue listens to both stores on the event bus. Every write it makes in
// reaction to an event carries models.OriginSync, so the store it writes to
// does not publish again and a goal <-> budget update stops after one hop.
// The one exception is a compensating transaction for unbacked goal progress,
// which is a real user-visible transaction and is published like any other.
package linksync

import (
	"context"
	"log/slog"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/finance"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/planner"
)

// Finance is the part of the finance store the glue reads and writes.
type Finance interface {
	Account(id string) (*models.Account, error)
	Budget(id string) (*models.Budget, error)
	BudgetEntries(budgetID string) []models.BudgetEntry
	Debt(id string) (*models.Debt, error)
	CreateTransaction(ctx context.Context, in models.Transaction, origin models.Origin) (*models.Transaction, error)
	UpdateBudget(ctx context.Context, id string, upd models.BudgetUpdate, origin models.Origin) (*models.Budget, error)
	ArchiveBudget(ctx context.Context, id string, archived bool, origin models.Origin) (*models.Budget, error)
	UpdateDebt(ctx context.Context, id string, upd models.DebtUpdate, origin models.Origin) (*models.Debt, error)
	AddDebtPayment(ctx context.Context, in finance.PaymentInput, origin models.Origin) (*models.DebtPayment, error)
}

// Planner is the part of the planner store the glue reads and writes.
type Planner interface {
	Goal(id string) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id string, upd models.GoalUpdate, origin models.Origin) (*models.Goal, error)
	AddGoalCheckIn(ctx context.Context, in planner.CheckInInput, origin models.Origin) (*models.GoalCheckIn, error)
	RemoveFinanceContribution(ctx context.Context, sourceID string, origin models.Origin) int
}

var (
	_ Finance = (*finance.Store)(nil)
	_ Planner = (*planner.Store)(nil)

	_ planner.FinanceBridge = (*Glue)(nil)
)

// Config wires a Glue.
type Config struct {
	Finance   Finance
	Planner   Planner
	Converter fx.Converter
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Glue is the cross-store synchronization layer. It is also the planner's
// finance bridge.
type Glue struct {
	finance Finance
	planner Planner
	conv    fx.Converter
	logger  *slog.Logger
	metrics *metrics.Metrics

	unsubscribe []func()
}

// New creates a Glue. Call Attach to start listening.
func New(cfg Config) *Glue {
	g := &Glue{
		finance: cfg.Finance,
		planner: cfg.Planner,
		conv:    cfg.Converter,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	if g.conv == nil {
		g.conv = fx.Identity{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Attach subscribes the glue to every event it reacts to.
func (g *Glue) Attach(bus *events.Bus) {
	g.unsubscribe = append(g.unsubscribe,
		events.On(bus, events.TransactionCreated, g.onTransactionChanged),
		events.On(bus, events.TransactionUpdated, g.onTransactionChanged),
		events.On(bus, events.TransactionDeleted, g.onTransactionDeleted),
		events.On(bus, events.DebtPaymentAdded, g.onPaymentAdded),
		events.On(bus, events.DebtPaymentDeleted, g.onPaymentDeleted),
		events.On(bus, events.BudgetUpdated, g.onBudgetUpdated),
		events.On(bus, events.BudgetDeleted, g.onBudgetDeleted),
		events.On(bus, events.DebtDeleted, g.onDebtDeleted),
		events.On(bus, events.GoalCreated, g.onGoalCreated),
		events.On(bus, events.GoalUpdated, g.onGoalUpdated),
		events.On(bus, events.GoalDeleted, g.onGoalDeleted),
	)
}

// Close unsubscribes from the bus.
func (g *Glue) Close() {
	for _, fn := range g.unsubscribe {
		fn()
	}
	g.unsubscribe = nil
}

func (g *Glue) onTransactionChanged(ctx context.Context, _ models.Origin, e events.TransactionEvent) {
	tx := e.Transaction
	if e.Previous != nil {
		g.planner.RemoveFinanceContribution(ctx, tx.ID, models.OriginSync)
	}
	for _, goalID := range e.GoalIDs {
		goal, err := g.planner.Goal(goalID)
		if err != nil {
			g.logger.Debug("Transaction points at a missing goal", "transaction_id", tx.ID, "goal_id", goalID)
			continue
		}
		value := g.contribution(goal, &tx)
		if value == 0 {
			continue
		}
		_, err = g.planner.AddGoalCheckIn(ctx, planner.CheckInInput{
			GoalID:     goal.ID,
			Value:      value,
			Note:       tx.Description,
			SourceType: models.SourceFinance,
			SourceID:   tx.ID,
			DateKey:    models.DateKey(time.Unix(tx.Date, 0).UTC()),
		}, models.OriginSync)
		if err != nil {
			g.logger.Warn("Failed to record goal contribution", "transaction_id", tx.ID, "goal_id", goal.ID, "error", err)
		}
	}
}

func (g *Glue) onTransactionDeleted(ctx context.Context, _ models.Origin, e events.TransactionEvent) {
	g.planner.RemoveFinanceContribution(ctx, e.Transaction.ID, models.OriginSync)
}

// onPaymentAdded credits payments made without an account. Payments booked
// through a transaction reach the goal with that transaction.
func (g *Glue) onPaymentAdded(ctx context.Context, _ models.Origin, e events.DebtPaymentEvent) {
	if e.Payment.RelatedTransactionID != "" || e.Debt.LinkedGoalID == "" {
		return
	}
	goal, err := g.planner.Goal(e.Debt.LinkedGoalID)
	if err != nil || goal.LinkedDebtID != e.Debt.ID {
		return
	}
	value := e.Payment.ConvertedAmountToDebt
	if goal.Currency != "" && goal.Currency != e.Debt.PrincipalCurrency {
		value = g.conv.Convert(e.Payment.Amount, e.Payment.Currency, goal.Currency)
	}
	_, err = g.planner.AddGoalCheckIn(ctx, planner.CheckInInput{
		GoalID:     goal.ID,
		Value:      value,
		Note:       e.Payment.Note,
		SourceType: models.SourceFinance,
		SourceID:   e.Payment.ID,
		DateKey:    models.DateKey(time.Unix(e.Payment.PaidAt, 0).UTC()),
	}, models.OriginSync)
	if err != nil {
		g.logger.Warn("Failed to record debt payment on goal", "payment_id", e.Payment.ID, "goal_id", goal.ID, "error", err)
	}
}

func (g *Glue) onPaymentDeleted(ctx context.Context, _ models.Origin, e events.DebtPaymentEvent) {
	g.planner.RemoveFinanceContribution(ctx, e.Payment.ID, models.OriginSync)
}

// contribution is the signed amount tx adds to goal, in the goal currency.
func (g *Glue) contribution(goal *models.Goal, tx *models.Transaction) float64 {
	if goal.LinkedDebtID != "" && tx.RepaidDebtID() == goal.LinkedDebtID {
		return g.toGoalCurrency(goal, tx.Amount, tx.Currency, tx)
	}

	if goal.LinkedBudgetID != "" {
		if b, err := g.finance.Budget(goal.LinkedBudgetID); err == nil {
			for _, e := range g.finance.BudgetEntries(b.ID) {
				if e.TransactionID != tx.ID {
					continue
				}
				value := e.AppliedAmountBudgetCurrency
				if goal.Currency != "" && goal.Currency != b.Currency {
					value = g.conv.Convert(value, b.Currency, goal.Currency)
				}
				if e.Type == b.TransactionType || e.Type == models.TransactionTransfer {
					return value
				}
				return -value
			}
		}
	}

	var sign float64
	switch goal.FinanceMode {
	case models.FinanceSpend:
		switch tx.Type {
		case models.TransactionExpense:
			sign = 1
		case models.TransactionIncome:
			sign = -1
		}
	case models.FinanceDebtClose:
		return 0
	default:
		switch tx.Type {
		case models.TransactionIncome, models.TransactionTransfer:
			sign = 1
		case models.TransactionExpense:
			sign = -1
		}
	}
	if sign == 0 {
		return 0
	}
	return sign * g.toGoalCurrency(goal, tx.Amount, tx.Currency, tx)
}

func (g *Glue) toGoalCurrency(goal *models.Goal, amount float64, currency string, tx *models.Transaction) float64 {
	switch goal.Currency {
	case "", currency:
		return amount
	case tx.BaseCurrency:
		return tx.ConvertedAmountToBase
	}
	return g.conv.Convert(amount, currency, goal.Currency)
}
