package apperror

import (
	"context"
	"errors"
	"net/http"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP maps any error onto the wire representation. Unknown errors never
// leak their text to the client; they come back as a generic 500.
func ToHTTP(err error) HTTPError {
	var ae *AppError
	if errors.As(err, &ae) {
		return HTTPError{
			Status:  ae.HTTPStatus,
			Code:    ae.Code,
			Message: ae.Message,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return HTTPError{
			Status:  ErrTimeout.HTTPStatus,
			Code:    ErrTimeout.Code,
			Message: ErrTimeout.Message,
		}
	}

	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: ErrInternal.Message,
	}
}
