package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/util"
	"github.com/shopspring/decimal"
)

// LedgerService serves the monthly-expense views and manual entries.
// Mirrored entries (installment- or debt-backed) are read-only here; they
// change only through the engine operations that own them.
type LedgerService struct {
	ledgerRepo domain.LedgerRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo domain.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// CreateEntryInput contains input for a manual ledger entry
type CreateEntryInput struct {
	Category    string
	Description *string
	Amount      decimal.Decimal
	DueDate     time.Time
	Paid        bool
}

// CreateEntry adds a manual entry to the ledger
func (s *LedgerService) CreateEntry(userID uuid.UUID, input CreateEntryInput) (*domain.LedgerEntry, error) {
	dueDate := util.TruncateToDay(input.DueDate)
	if input.DueDate.IsZero() {
		dueDate = util.TruncateToDay(time.Now())
	}

	entry := &domain.LedgerEntry{
		UserID:      userID,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     dueDate,
		MonthYear:   util.MonthKey(dueDate),
		Status:      domain.LedgerStatusPending,
	}
	if input.Paid {
		now := time.Now()
		entry.Status = domain.LedgerStatusPaid
		entry.PaidOn = &now
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return s.ledgerRepo.Create(entry)
}

// GetEntriesByMonth lists a month bucket, optionally filtered by status.
// An empty monthYear defaults to the current month.
func (s *LedgerService) GetEntriesByMonth(userID uuid.UUID, monthYear string, status *domain.LedgerStatus) ([]*domain.LedgerEntry, *domain.LedgerSummary, error) {
	if monthYear == "" {
		monthYear = util.MonthKey(time.Now())
	}
	if !domain.ValidMonthYear(monthYear) {
		return nil, nil, domain.ErrLedgerMonthYearInvalid
	}

	entries, err := s.ledgerRepo.GetByMonth(userID, monthYear, status)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.ledgerRepo.SummaryByMonth(userID, monthYear)
	if err != nil {
		return nil, nil, err
	}
	return entries, summary, nil
}

// UpdateEntryInput contains the mutable fields of a manual entry
type UpdateEntryInput struct {
	Category    string
	Description *string
	Amount      decimal.Decimal
	DueDate     time.Time
	Paid        bool
}

// UpdateEntry modifies a manual ledger entry. Mirrored entries are rejected:
// their state is owned by the installment or debt they mirror.
func (s *LedgerService) UpdateEntry(userID uuid.UUID, entryID int32, input UpdateEntryInput) (*domain.LedgerEntry, error) {
	entry, err := s.ledgerRepo.GetByID(userID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsMirrored() {
		return nil, domain.ErrLedgerEntryMirrored
	}

	dueDate := util.TruncateToDay(input.DueDate)
	if input.DueDate.IsZero() {
		dueDate = entry.DueDate
	}

	entry.Category = input.Category
	entry.Description = input.Description
	entry.Amount = input.Amount
	entry.DueDate = dueDate
	entry.MonthYear = util.MonthKey(dueDate)
	if input.Paid && entry.Status != domain.LedgerStatusPaid {
		now := time.Now()
		entry.Status = domain.LedgerStatusPaid
		entry.PaidOn = &now
	} else if !input.Paid {
		entry.Status = domain.LedgerStatusPending
		entry.PaidOn = nil
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return s.ledgerRepo.Update(entry)
}

// DeleteEntry removes a manual ledger entry; mirrored entries are rejected
func (s *LedgerService) DeleteEntry(userID uuid.UUID, entryID int32) error {
	entry, err := s.ledgerRepo.GetByID(userID, entryID)
	if err != nil {
		return err
	}
	if entry.IsMirrored() {
		return domain.ErrLedgerEntryMirrored
	}
	return s.ledgerRepo.Delete(userID, entryID)
}
