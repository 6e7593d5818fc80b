package service

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
)

// toConnectError maps a store error onto a Connect status code.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, apperr.ErrDuplicateCounterparty):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, apperr.ErrCounterpartyInUse),
		errors.Is(err, apperr.ErrFocusNotRunning),
		errors.Is(err, apperr.ErrFinanceCheckIn),
		errors.Is(err, apperr.ErrBudgetAccountMissing),
		errors.Is(err, apperr.ErrGoalNotMoney):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case apperr.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
