package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanNameEmpty        = errors.New("loan name is required")
	ErrLoanNameTooLong      = errors.New("loan name must be 200 characters or less")
	ErrLoanPrincipalInvalid = errors.New("loan principal must be positive")
	ErrLoanRateInvalid      = errors.New("interest rate must not be negative")
	ErrLoanTenureInvalid    = errors.New("loan tenure must be at least 1 month")
	ErrLoanNotActive        = errors.New("loan is not active")
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "active"
	LoanStatusClosed     LoanStatus = "closed"
	LoanStatusForeclosed LoanStatus = "foreclosed"
)

// Loan is an installment loan with a fixed EMI reducing-balance schedule
type Loan struct {
	ID           int32           `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	Name         string          `json:"name"`
	Principal    decimal.Decimal `json:"principal"`
	AnnualRate   decimal.Decimal `json:"annualRate"`
	TenureMonths int32           `json:"tenureMonths"`
	EMIAmount    decimal.Decimal `json:"emiAmount"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	Status       LoanStatus      `json:"status"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.Name == "" {
		return ErrLoanNameEmpty
	}
	if len(l.Name) > MaxNameLength {
		return ErrLoanNameTooLong
	}
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if l.AnnualRate.IsNegative() {
		return ErrLoanRateInvalid
	}
	if l.TenureMonths < 1 {
		return ErrLoanTenureInvalid
	}
	return nil
}

// IsActive reports whether the loan still accepts payment mutations
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// LoanPaymentSummary aggregates installment state for one loan
type LoanPaymentSummary struct {
	TotalCount   int32           `json:"totalCount"`
	PaidCount    int32           `json:"paidCount"`
	PendingCount int32           `json:"pendingCount"`
	OverdueCount int32           `json:"overdueCount"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
}

// LoanWithSummary is a loan joined with its installment summary for listings
type LoanWithSummary struct {
	Loan
	Summary LoanPaymentSummary `json:"paymentSummary"`
}

type LoanRepository interface {
	CreateTx(tx interface{}, loan *Loan) (*Loan, error) // Transactional create
	GetByID(userID uuid.UUID, id int32) (*Loan, error)
	GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*Loan, error)
	GetAllByUser(userID uuid.UUID, status *LoanStatus) ([]*Loan, error)
	UpdateMeta(userID uuid.UUID, id int32, name string, notes *string) (*Loan, error)
	UpdateStatusTx(tx interface{}, userID uuid.UUID, id int32, status LoanStatus) (*Loan, error)
	DeleteTx(tx interface{}, userID uuid.UUID, id int32) error
}
