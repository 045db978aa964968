package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLedgerEntryNotFound    = errors.New("ledger entry not found")
	ErrLedgerCategoryEmpty    = errors.New("ledger category is required")
	ErrLedgerAmountInvalid    = errors.New("ledger amount must be positive")
	ErrLedgerMonthYearInvalid = errors.New("month must be in YYYY-MM format")
	ErrLedgerEntryMirrored    = errors.New("ledger entry is managed by its source installment or debt")
)

var monthYearPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonthYear reports whether s is a YYYY-MM bucket key
func ValidMonthYear(s string) bool {
	return monthYearPattern.MatchString(s)
}

// LedgerStatus is the payment state of a ledger entry
type LedgerStatus string

const (
	LedgerStatusPending LedgerStatus = "pending"
	LedgerStatusPaid    LedgerStatus = "paid"
)

// LedgerEntry is one row of the unified monthly-expense ledger. Entries
// mirrored from an installment or a debt payment carry the stored
// back-reference; manual entries carry neither.
type LedgerEntry struct {
	ID            int32           `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Category      string          `json:"category"`
	Description   *string         `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"dueDate"`
	MonthYear     string          `json:"monthYear"`
	Status        LedgerStatus    `json:"status"`
	PaidOn        *time.Time      `json:"paidOn,omitempty"`
	InstallmentID *int32          `json:"installmentId,omitempty"`
	DebtID        *int32          `json:"debtId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (e *LedgerEntry) Validate() error {
	if e.Category == "" {
		return ErrLedgerCategoryEmpty
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrLedgerAmountInvalid
	}
	if !ValidMonthYear(e.MonthYear) {
		return ErrLedgerMonthYearInvalid
	}
	return nil
}

// IsMirrored reports whether the entry is a mirror of an installment or debt payment
func (e *LedgerEntry) IsMirrored() bool {
	return e.InstallmentID != nil || e.DebtID != nil
}

// LedgerSummary aggregates a month bucket for reporting
type LedgerSummary struct {
	TotalCount    int32           `json:"totalCount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
}

type LedgerRepository interface {
	Create(entry *LedgerEntry) (*LedgerEntry, error)
	CreateTx(tx interface{}, entry *LedgerEntry) (*LedgerEntry, error)
	CreateBatchTx(tx interface{}, entries []*LedgerEntry) (int, error)
	GetByID(userID uuid.UUID, id int32) (*LedgerEntry, error)
	GetByMonth(userID uuid.UUID, monthYear string, status *LedgerStatus) ([]*LedgerEntry, error)
	Update(entry *LedgerEntry) (*LedgerEntry, error)
	Delete(userID uuid.UUID, id int32) error
	MarkPaidByInstallmentTx(tx interface{}, installmentID int32, paidOn time.Time) (int64, error)
	DeletePendingByLoanTx(tx interface{}, loanID int32) (int64, error)
	DetachByLoanTx(tx interface{}, loanID int32) (int64, error)
	DetachByDebtTx(tx interface{}, debtID int32) (int64, error)
	SummaryByMonth(userID uuid.UUID, monthYear string) (*LedgerSummary, error)
}
