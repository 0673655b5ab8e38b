package balanceerrors

import (
	"net/http"

	"go-hrms/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year is out of range",
		http.StatusBadRequest,
	)
	ErrInvalidTotal = apperror.New(
		apperror.CodeInvalidInput,
		"total_days must be positive",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"balance event amount must be positive",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not provisioned for this employee, category and year",
		http.StatusNotFound,
	)
	ErrBalanceExists = apperror.New(
		apperror.CodeConflict,
		"leave balance already provisioned for this employee, category and year",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient leave balance for the requested days",
		http.StatusUnprocessableEntity,
	)
	ErrLedgerInvariant = apperror.New(
		apperror.CodeInternalError,
		"leave balance bookkeeping invariant violated",
		http.StatusInternalServerError,
	)
)
