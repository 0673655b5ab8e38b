package employee

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/shared/apperror"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "uq_employee_number":
				return employeeerrors.ErrEmployeeNumberAlreadyExists
			case "uq_employee_email":
				return employeeerrors.ErrEmployeeAlreadyExists
			}
		}
	}

	// Some drivers surface the violation as plain text.
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_employee_number") {
		return employeeerrors.ErrEmployeeNumberAlreadyExists
	}
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_employee_email") {
		return employeeerrors.ErrEmployeeAlreadyExists
	}

	return apperror.FromDB(err)
}
