package leaveerrors

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
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave category",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrStartDateInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must not be in the past",
		http.StatusBadRequest,
	)
	ErrRangeTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"leave range must not exceed 365 days",
		http.StatusBadRequest,
	)
	ErrInvalidReason = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be non-blank and at most 500 characters",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusUnprocessableEntity,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave status transition",
		http.StatusBadRequest,
	)
	ErrSelfApproval = apperror.New(
		apperror.CodeForbidden,
		"approver cannot decide their own leave request",
		http.StatusForbidden,
	)
	ErrNotDecisionAuthority = apperror.New(
		apperror.CodeForbidden,
		"approver has no decision authority over this employee",
		http.StatusForbidden,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee or an approver may cancel",
		http.StatusForbidden,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting",
		http.StatusBadRequest,
	)
	ErrBackfillNotAllowed = apperror.New(
		apperror.CodeForbidden,
		"backfill requires the leave:backfill permission",
		http.StatusForbidden,
	)
	ErrSubmitForOthersDenied = apperror.New(
		apperror.CodeForbidden,
		"submitting leave for another employee requires decision authority",
		http.StatusForbidden,
	)
)
