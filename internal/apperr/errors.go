// Package apperr defines the error taxonomy shared by the domain stores.
//
// Validation errors stop a mutation before any state changes and are meant to
// be shown to the user. Missing entities wrap ErrNotFound. Soft fallbacks (a
// missing FX rate, a zero delta) and persistence failures are never errors.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every "entity does not exist" error.
var ErrNotFound = errors.New("not found")

// ValidationError is a rejected mutation.
type ValidationError struct {
	Code string
	Msg  string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Is matches validation errors by code so wrapped copies compare equal.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewValidationError creates a validation error with the given code.
func NewValidationError(code, msg string) error {
	return &ValidationError{Code: code, Msg: msg}
}

// Validationf wraps a named validation error with detail, keeping errors.Is working.
func Validationf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NotFound returns an error wrapping ErrNotFound.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s not found: %s: %w", kind, id, ErrNotFound)
}

var (
	ErrDuplicateCounterparty  = NewValidationError("duplicate_counterparty", "counterparty with this name already exists")
	ErrCounterpartyInUse      = NewValidationError("counterparty_in_use", "counterparty is referenced by a debt")
	ErrInvalidAmount          = NewValidationError("invalid_amount", "amount must be a finite number")
	ErrInvalidTransactionType = NewValidationError("invalid_transaction_type", "transaction type must be income, expense or transfer")
	ErrAccountRequired        = NewValidationError("account_required", "transaction needs an existing account")
	ErrSameAccountTransfer    = NewValidationError("same_account_transfer", "transfer needs two different accounts")
	ErrBudgetAccountMissing   = NewValidationError("budget_account_missing", "linked budget has no account to book against")
	ErrGoalNotMoney           = NewValidationError("goal_not_money", "goal is not backed by a budget or debt")
	ErrInvalidDebtDirection   = NewValidationError("invalid_debt_direction", "debt direction must be i_owe or they_owe_me")
	ErrNameRequired           = NewValidationError("name_required", "a name is required")
	ErrInvalidStatus          = NewValidationError("invalid_status", "unknown status")
	ErrInvalidDateKey         = NewValidationError("invalid_date_key", "date key must look like 2006-01-02")
	ErrFinanceCheckIn         = NewValidationError("finance_check_in", "finance check-ins follow their transaction and cannot be removed directly")
	ErrFocusNotRunning        = NewValidationError("focus_not_running", "focus session is not running")
)
