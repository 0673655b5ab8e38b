package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	ErrConflict = New(
		CodeConflict,
		"The resource already exists",
		http.StatusConflict,
	)

	// ErrConcurrentModification reports a lost race on a row another
	// transaction holds; callers may retry the whole operation.
	ErrConcurrentModification = New(
		CodeConflict,
		"The record was modified concurrently, please retry",
		http.StatusConflict,
	)

	// ErrTimeout reports an operation that hit its transaction deadline;
	// callers may retry with backoff.
	ErrTimeout = New(
		CodeTimeout,
		"The operation timed out, please retry",
		http.StatusServiceUnavailable,
	)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}
