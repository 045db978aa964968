package handler

import (
	"errors"
	"net/http"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://knostfin.app/errors/validation"
	ErrorTypeNotFound     = "https://knostfin.app/errors/not-found"
	ErrorTypeUnauthorized = "https://knostfin.app/errors/unauthorized"
	ErrorTypeConflict     = "https://knostfin.app/errors/conflict"
	ErrorTypeInternal     = "https://knostfin.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// validationErrors maps domain sentinel errors to field-level messages
var validationErrors = map[error]ValidationError{
	domain.ErrLoanNameEmpty:            {Field: "name", Message: "Name is required"},
	domain.ErrLoanNameTooLong:          {Field: "name", Message: "Name must be 200 characters or less"},
	domain.ErrLoanPrincipalInvalid:     {Field: "principal", Message: "Principal must be positive"},
	domain.ErrLoanRateInvalid:          {Field: "annualRate", Message: "Interest rate must not be negative"},
	domain.ErrLoanTenureInvalid:        {Field: "tenureMonths", Message: "Tenure must be at least 1 month"},
	domain.ErrDebtNameEmpty:            {Field: "name", Message: "Name is required"},
	domain.ErrDebtNameTooLong:          {Field: "name", Message: "Name must be 200 characters or less"},
	domain.ErrDebtAmountInvalid:        {Field: "totalAmount", Message: "Amount must be positive"},
	domain.ErrDebtPaymentAmountInvalid: {Field: "amount", Message: "Payment amount must be positive"},
	domain.ErrLedgerCategoryEmpty:      {Field: "category", Message: "Category is required"},
	domain.ErrLedgerAmountInvalid:      {Field: "amount", Message: "Amount must be positive"},
	domain.ErrLedgerMonthYearInvalid:   {Field: "month", Message: "Month must be in YYYY-MM format"},
}

var notFoundErrors = []error{
	domain.ErrLoanNotFound,
	domain.ErrInstallmentNotFound,
	domain.ErrDebtNotFound,
	domain.ErrLedgerEntryNotFound,
}

// domainError translates a service error into the matching problem response;
// unknown errors fall through to a 500 with the given detail
func domainError(c echo.Context, err error, detail string) error {
	for sentinel, ve := range validationErrors {
		if errors.Is(err, sentinel) {
			return NewValidationError(c, "Validation failed", []ValidationError{ve})
		}
	}
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return NewNotFoundError(c, sentinel.Error())
		}
	}
	if errors.Is(err, domain.ErrLedgerEntryMirrored) {
		return NewConflictError(c, domain.ErrLedgerEntryMirrored.Error())
	}
	if errors.Is(err, domain.ErrLoanNotActive) {
		return NewConflictError(c, domain.ErrLoanNotActive.Error())
	}
	return NewInternalError(c, detail)
}
