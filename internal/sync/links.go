package linksync

import (
	"context"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

func (g *Glue) onGoalCreated(ctx context.Context, _ models.Origin, e events.GoalEvent) {
	g.link(ctx, e.Goal.ID, "", e.Goal.LinkedBudgetID, "", e.Goal.LinkedDebtID)
}

// onGoalUpdated pushes target and status changes to the linked budget and
// books unbacked progress as a real transaction.
func (g *Glue) onGoalUpdated(ctx context.Context, _ models.Origin, e events.GoalEvent) {
	goal := e.Goal
	prev := e.Previous
	if prev == nil {
		prev = &models.Goal{}
	}

	g.link(ctx, goal.ID, prev.LinkedBudgetID, goal.LinkedBudgetID, prev.LinkedDebtID, goal.LinkedDebtID)

	if goal.LinkedBudgetID != "" {
		if goal.TargetValue != prev.TargetValue && goal.TargetValue > 0 {
			g.pushTarget(ctx, &goal)
		}
		switch {
		case closed(goal.Status) && !closed(prev.Status):
			g.archiveBudget(ctx, goal.LinkedBudgetID, true)
		case !closed(goal.Status) && closed(prev.Status):
			g.archiveBudget(ctx, goal.LinkedBudgetID, false)
		}
	}

	if e.UnbackedDelta > 0 {
		txID, err := g.FundGoal(ctx, goal, e.UnbackedDelta, "Goal progress adjustment")
		if err != nil {
			g.logger.Warn("Failed to back goal progress with a transaction", "goal_id", goal.ID, "amount", e.UnbackedDelta, "error", err)
			return
		}
		g.metrics.Compensated()
		g.logger.Info("Compensating transaction booked", "goal_id", goal.ID, "source_id", txID, "amount", e.UnbackedDelta)
	}
}

func (g *Glue) onGoalDeleted(ctx context.Context, _ models.Origin, e events.GoalEvent) {
	g.link(ctx, e.Goal.ID, e.Goal.LinkedBudgetID, "", e.Goal.LinkedDebtID, "")
}

// onBudgetUpdated pushes a changed limit back to the goal as its target and
// follows relinking done from the budget side. Re-derivations carry no
// previous version and are ignored.
func (g *Glue) onBudgetUpdated(ctx context.Context, _ models.Origin, e events.BudgetEvent) {
	if e.Previous == nil {
		return
	}
	b, prev := e.Budget, e.Previous

	if b.LinkedGoalID != prev.LinkedGoalID {
		if prev.LinkedGoalID != "" {
			g.setGoalBudget(ctx, prev.LinkedGoalID, b.ID, "")
		}
		if b.LinkedGoalID != "" {
			g.setGoalBudget(ctx, b.LinkedGoalID, "", b.ID)
		}
	}

	if b.LinkedGoalID == "" || b.LimitAmount == prev.LimitAmount {
		return
	}
	goal, err := g.planner.Goal(b.LinkedGoalID)
	if err != nil || goal.LinkedBudgetID != b.ID {
		return
	}
	target := b.LimitAmount
	if goal.Currency != "" && goal.Currency != b.Currency {
		target = g.conv.Convert(target, b.Currency, goal.Currency)
	}
	if target == goal.TargetValue {
		return
	}
	if _, err := g.planner.UpdateGoal(ctx, goal.ID, models.GoalUpdate{TargetValue: &target}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to sync goal target from budget", "budget_id", b.ID, "goal_id", goal.ID, "error", err)
	}
}

func (g *Glue) onBudgetDeleted(ctx context.Context, _ models.Origin, e events.BudgetEvent) {
	if e.Budget.LinkedGoalID != "" {
		g.setGoalBudget(ctx, e.Budget.LinkedGoalID, e.Budget.ID, "")
	}
}

func (g *Glue) onDebtDeleted(ctx context.Context, _ models.Origin, e events.DebtEvent) {
	goalID := e.Debt.LinkedGoalID
	if goalID == "" {
		return
	}
	goal, err := g.planner.Goal(goalID)
	if err != nil || goal.LinkedDebtID != e.Debt.ID {
		return
	}
	empty := ""
	if _, err := g.planner.UpdateGoal(ctx, goalID, models.GoalUpdate{LinkedDebtID: &empty}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to unlink goal from deleted debt", "debt_id", e.Debt.ID, "goal_id", goalID, "error", err)
	}
}

// link points budgets and debts at the goal that now claims them and
// releases the ones it let go.
func (g *Glue) link(ctx context.Context, goalID, oldBudget, newBudget, oldDebt, newDebt string) {
	if oldBudget != newBudget {
		if oldBudget != "" {
			g.setBudgetGoal(ctx, oldBudget, goalID, "")
		}
		if newBudget != "" {
			g.setBudgetGoal(ctx, newBudget, "", goalID)
		}
	}
	if oldDebt != newDebt {
		if oldDebt != "" {
			g.setDebtGoal(ctx, oldDebt, goalID, "")
		}
		if newDebt != "" {
			g.setDebtGoal(ctx, newDebt, "", goalID)
		}
	}
}

// setBudgetGoal sets the budget's goal to want. When from is non-empty the
// budget is only touched while it still points at from.
func (g *Glue) setBudgetGoal(ctx context.Context, budgetID, from, want string) {
	b, err := g.finance.Budget(budgetID)
	if err != nil || b.LinkedGoalID == want || (from != "" && b.LinkedGoalID != from) {
		return
	}
	if _, err := g.finance.UpdateBudget(ctx, budgetID, models.BudgetUpdate{LinkedGoalID: &want}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to link budget to goal", "budget_id", budgetID, "goal_id", want, "error", err)
	}
}

func (g *Glue) setDebtGoal(ctx context.Context, debtID, from, want string) {
	d, err := g.finance.Debt(debtID)
	if err != nil || d.LinkedGoalID == want || (from != "" && d.LinkedGoalID != from) {
		return
	}
	if _, err := g.finance.UpdateDebt(ctx, debtID, models.DebtUpdate{LinkedGoalID: &want}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to link debt to goal", "debt_id", debtID, "goal_id", want, "error", err)
	}
}

func (g *Glue) setGoalBudget(ctx context.Context, goalID, from, want string) {
	goal, err := g.planner.Goal(goalID)
	if err != nil || goal.LinkedBudgetID == want || (from != "" && goal.LinkedBudgetID != from) {
		return
	}
	if _, err := g.planner.UpdateGoal(ctx, goalID, models.GoalUpdate{LinkedBudgetID: &want}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to link goal to budget", "goal_id", goalID, "budget_id", want, "error", err)
	}
}

func (g *Glue) pushTarget(ctx context.Context, goal *models.Goal) {
	b, err := g.finance.Budget(goal.LinkedBudgetID)
	if err != nil {
		return
	}
	limit := goal.TargetValue
	if goal.Currency != "" && goal.Currency != b.Currency {
		limit = g.conv.Convert(limit, goal.Currency, b.Currency)
	}
	if limit == b.LimitAmount {
		return
	}
	if _, err := g.finance.UpdateBudget(ctx, b.ID, models.BudgetUpdate{LimitAmount: &limit}, models.OriginSync); err != nil {
		g.logger.Warn("Failed to sync budget limit from goal", "goal_id", goal.ID, "budget_id", b.ID, "error", err)
	}
}

func (g *Glue) archiveBudget(ctx context.Context, budgetID string, archived bool) {
	if _, err := g.finance.ArchiveBudget(ctx, budgetID, archived, models.OriginSync); err != nil {
		g.logger.Warn("Failed to sync budget archive state", "budget_id", budgetID, "archived", archived, "error", err)
	}
}

func closed(st models.GoalStatus) bool {
	return st == models.GoalCompleted || st == models.GoalArchived
}
