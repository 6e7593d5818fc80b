// Package models defines the core domain models for Leora.
//
// # Entity families
//
// Finance:
//   - Account: a wallet or bank account whose balance is replayed from transactions
//   - Transaction: income, expense or transfer between accounts
//   - Budget / BudgetEntry: a spending or saving envelope derived from its ledger entries
//   - Debt / DebtPayment: a loan whose remaining principal is derived from its payments
//   - Counterparty: the other side of a debt
//
// Planner:
//   - Goal / GoalCheckIn: a target whose progress is derived from check-ins, tasks and habits
//   - Habit: a recurring behaviour with a day-keyed completion history
//   - Task / FocusSession: units of work that feed linked goals
//
// # Derived fields
//
// Balances, budget figures, debt principal, habit streaks and goal progress are
// derived fields. They are always recomputed from their source rows and are never
// patched incrementally, so a recompute can be run at any time without drift.
//
// Relationships use ID strings rather than pointers to avoid cycles between the
// finance and planner families.
package models
