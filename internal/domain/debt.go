package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrDebtNotFound             = errors.New("debt not found")
	ErrDebtNameEmpty            = errors.New("debt name is required")
	ErrDebtNameTooLong          = errors.New("debt name must be 200 characters or less")
	ErrDebtAmountInvalid        = errors.New("debt amount must be positive")
	ErrDebtPaymentAmountInvalid = errors.New("payment amount must be positive")
)

// DebtStatus tracks repayment progress; transitions are strictly forward
type DebtStatus string

const (
	DebtStatusPending       DebtStatus = "pending"
	DebtStatusPartiallyPaid DebtStatus = "partially_paid"
	DebtStatusPaid          DebtStatus = "paid"
)

// Debt is a lump-sum obligation repaid in arbitrary increments.
// AmountPaid never decreases and never exceeds TotalAmount.
type Debt struct {
	ID          int32           `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Status      DebtStatus      `json:"status"`
	Creditor    *string         `json:"creditor,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (d *Debt) Validate() error {
	if d.Name == "" {
		return ErrDebtNameEmpty
	}
	if len(d.Name) > MaxNameLength {
		return ErrDebtNameTooLong
	}
	if d.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return ErrDebtAmountInvalid
	}
	return nil
}

// Remaining returns the unpaid balance
func (d *Debt) Remaining() decimal.Decimal {
	return d.TotalAmount.Sub(d.AmountPaid)
}

// StatusFor derives the status implied by an amount-paid value
func (d *Debt) StatusFor(amountPaid decimal.Decimal) DebtStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(d.TotalAmount):
		return DebtStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return DebtStatusPartiallyPaid
	default:
		return DebtStatusPending
	}
}

type DebtRepository interface {
	Create(debt *Debt) (*Debt, error)
	GetByID(userID uuid.UUID, id int32) (*Debt, error)
	GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*Debt, error)
	GetAllByUser(userID uuid.UUID, status *DebtStatus) ([]*Debt, error)
	UpdateMeta(userID uuid.UUID, id int32, name string, creditor *string, dueDate *time.Time, notes *string) (*Debt, error)
	ApplyPaymentTx(tx interface{}, id int32, amountPaid decimal.Decimal, status DebtStatus) (*Debt, error)
	DeleteTx(tx interface{}, userID uuid.UUID, id int32) error
}
