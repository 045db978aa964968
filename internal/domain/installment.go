package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInstallmentNotFound       = errors.New("installment not found")
	ErrInstallmentNumberInvalid  = errors.New("installment number must be at least 1")
	ErrInstallmentAmountInvalid  = errors.New("installment amount must be positive")
	ErrInstallmentLoanIDRequired = errors.New("loan ID is required")
)

// InstallmentStatus is the payment state of a single EMI
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment is one EMI of a loan's amortization schedule.
// OutstandingBalance is the balance remaining after this installment;
// the sequence is non-increasing and ends at zero within rounding tolerance.
type Installment struct {
	ID                 int32             `json:"id"`
	LoanID             int32             `json:"loanId"`
	UserID             uuid.UUID         `json:"userId"`
	Number             int32             `json:"number"`
	DueDate            time.Time         `json:"dueDate"`
	EMIAmount          decimal.Decimal   `json:"emiAmount"`
	PrincipalPaid      decimal.Decimal   `json:"principalPaid"`
	InterestPaid       decimal.Decimal   `json:"interestPaid"`
	OutstandingBalance decimal.Decimal   `json:"outstandingBalance"`
	Status             InstallmentStatus `json:"status"`
	PaidOn             *time.Time        `json:"paidOn,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
}

func (i *Installment) Validate() error {
	if i.LoanID <= 0 {
		return ErrInstallmentLoanIDRequired
	}
	if i.Number < 1 {
		return ErrInstallmentNumberInvalid
	}
	if i.EMIAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInstallmentAmountInvalid
	}
	return nil
}

// Label returns a progress label like "3/12"
func (i *Installment) Label(tenureMonths int32) string {
	return fmt.Sprintf("%d/%d", i.Number, tenureMonths)
}

type InstallmentRepository interface {
	CreateBatchTx(tx interface{}, installments []*Installment) ([]*Installment, error) // Transactional batch create, returns rows with IDs
	GetByID(loanID int32, id int32) (*Installment, error)
	GetByIDForUpdateTx(tx interface{}, loanID int32, id int32) (*Installment, error)
	GetByLoanID(loanID int32) ([]*Installment, error)
	MarkPaidTx(tx interface{}, id int32, paidOn time.Time) (*Installment, error)
	GetByMonth(userID uuid.UUID, monthYear string) ([]*Installment, error)
	GetSummaryByLoan(loanID int32) (*LoanPaymentSummary, error)
	DeleteByLoanTx(tx interface{}, loanID int32) error
}
