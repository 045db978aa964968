package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newLedgerServiceFixture() (*testutil.MockLedgerRepository, *LedgerService) {
	ledger := testutil.NewMockLedgerRepository()
	return ledger, NewLedgerService(ledger)
}

// CreateEntry tests

func TestCreateEntry_Pending(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	dueDate := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	entry, err := service.CreateEntry(userID, CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
		DueDate:  dueDate,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.Status != domain.LedgerStatusPending {
		t.Errorf("Expected pending entry, got %s", entry.Status)
	}
	if entry.MonthYear != "2025-06" {
		t.Errorf("Expected month 2025-06, got %s", entry.MonthYear)
	}
	if entry.PaidOn != nil {
		t.Error("Expected no paid-on date")
	}
	if entry.IsMirrored() {
		t.Error("Expected manual entry not to be mirrored")
	}
}

func TestCreateEntry_Paid(t *testing.T) {
	_, service := newLedgerServiceFixture()

	entry, err := service.CreateEntry(uuid.New(), CreateEntryInput{
		Category: "Groceries",
		Amount:   decimal.NewFromFloat(82.50),
		DueDate:  time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Paid:     true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.Status != domain.LedgerStatusPaid {
		t.Errorf("Expected paid entry, got %s", entry.Status)
	}
	if entry.PaidOn == nil {
		t.Error("Expected paid-on date")
	}
}

func TestCreateEntry_ZeroDueDateDefaultsToToday(t *testing.T) {
	_, service := newLedgerServiceFixture()

	entry, err := service.CreateEntry(uuid.New(), CreateEntryInput{
		Category: "Utilities",
		Amount:   decimal.NewFromInt(90),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.MonthYear != time.Now().Format("2006-01") {
		t.Errorf("Expected current month, got %s", entry.MonthYear)
	}
}

func TestCreateEntry_EmptyCategory(t *testing.T) {
	_, service := newLedgerServiceFixture()

	_, err := service.CreateEntry(uuid.New(), CreateEntryInput{
		Category: "",
		Amount:   decimal.NewFromInt(10),
	})
	if err != domain.ErrLedgerCategoryEmpty {
		t.Errorf("Expected ErrLedgerCategoryEmpty, got %v", err)
	}
}

func TestCreateEntry_ZeroAmount(t *testing.T) {
	_, service := newLedgerServiceFixture()

	_, err := service.CreateEntry(uuid.New(), CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.Zero,
	})
	if err != domain.ErrLedgerAmountInvalid {
		t.Errorf("Expected ErrLedgerAmountInvalid, got %v", err)
	}
}

// GetEntriesByMonth tests

func TestGetEntriesByMonth(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	june := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Rent", Amount: decimal.NewFromInt(1500), DueDate: june}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Internet", Amount: decimal.NewFromInt(60), DueDate: june, Paid: true}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Rent", Amount: decimal.NewFromInt(1500), DueDate: july}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	entries, summary, err := service.GetEntriesByMonth(userID, "2025-06", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries for June, got %d", len(entries))
	}
	if summary.TotalCount != 2 {
		t.Errorf("Expected summary count 2, got %d", summary.TotalCount)
	}
	if !summary.TotalAmount.Equal(decimal.NewFromInt(1560)) {
		t.Errorf("Expected total 1560, got %s", summary.TotalAmount.String())
	}
	if !summary.PaidAmount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected paid 60, got %s", summary.PaidAmount.String())
	}
	if !summary.PendingAmount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected pending 1500, got %s", summary.PendingAmount.String())
	}
}

func TestGetEntriesByMonth_StatusFilter(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	june := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Rent", Amount: decimal.NewFromInt(1500), DueDate: june}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Internet", Amount: decimal.NewFromInt(60), DueDate: june, Paid: true}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	paid := domain.LedgerStatusPaid
	entries, _, err := service.GetEntriesByMonth(userID, "2025-06", &paid)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 1 || entries[0].Category != "Internet" {
		t.Errorf("Expected only the paid entry, got %d entries", len(entries))
	}
}

func TestGetEntriesByMonth_InvalidMonth(t *testing.T) {
	_, service := newLedgerServiceFixture()

	_, _, err := service.GetEntriesByMonth(uuid.New(), "June 2025", nil)
	if err != domain.ErrLedgerMonthYearInvalid {
		t.Errorf("Expected ErrLedgerMonthYearInvalid, got %v", err)
	}
}

func TestGetEntriesByMonth_EmptyDefaultsToCurrent(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	if _, err := service.CreateEntry(userID, CreateEntryInput{Category: "Rent", Amount: decimal.NewFromInt(1500)}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	entries, _, err := service.GetEntriesByMonth(userID, "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry for the current month, got %d", len(entries))
	}
}

// UpdateEntry tests

func TestUpdateEntry(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	entry, err := service.CreateEntry(userID, CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
		DueDate:  time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	updated, err := service.UpdateEntry(userID, entry.ID, UpdateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1600),
		DueDate:  time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		Paid:     true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !updated.Amount.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("Expected amount 1600, got %s", updated.Amount.String())
	}
	if updated.MonthYear != "2025-07" {
		t.Errorf("Expected month to follow the due date, got %s", updated.MonthYear)
	}
	if updated.Status != domain.LedgerStatusPaid || updated.PaidOn == nil {
		t.Error("Expected entry to be marked paid")
	}
}

func TestUpdateEntry_UnpayClearsPaidOn(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	entry, err := service.CreateEntry(userID, CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
		Paid:     true,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	updated, err := service.UpdateEntry(userID, entry.ID, UpdateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Status != domain.LedgerStatusPending {
		t.Errorf("Expected pending entry, got %s", updated.Status)
	}
	if updated.PaidOn != nil {
		t.Error("Expected paid-on date cleared")
	}
}

func TestUpdateEntry_MirroredRejected(t *testing.T) {
	ledger, service := newLedgerServiceFixture()
	userID := uuid.New()

	installmentID := int32(7)
	mirrored, err := ledger.Create(&domain.LedgerEntry{
		UserID:        userID,
		Category:      "Car loan",
		Amount:        decimal.NewFromInt(500),
		DueDate:       time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		MonthYear:     "2025-06",
		Status:        domain.LedgerStatusPending,
		InstallmentID: &installmentID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = service.UpdateEntry(userID, mirrored.ID, UpdateEntryInput{
		Category: "Car loan",
		Amount:   decimal.NewFromInt(999),
	})
	if err != domain.ErrLedgerEntryMirrored {
		t.Errorf("Expected ErrLedgerEntryMirrored, got %v", err)
	}
}

func TestUpdateEntry_NotFound(t *testing.T) {
	_, service := newLedgerServiceFixture()

	_, err := service.UpdateEntry(uuid.New(), 42, UpdateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
	})
	if err != domain.ErrLedgerEntryNotFound {
		t.Errorf("Expected ErrLedgerEntryNotFound, got %v", err)
	}
}

// DeleteEntry tests

func TestDeleteEntry(t *testing.T) {
	ledger, service := newLedgerServiceFixture()
	userID := uuid.New()

	entry, err := service.CreateEntry(userID, CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := service.DeleteEntry(userID, entry.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ledger.Entries) != 0 {
		t.Error("Expected entry to be deleted")
	}
}

func TestDeleteEntry_MirroredRejected(t *testing.T) {
	ledger, service := newLedgerServiceFixture()
	userID := uuid.New()

	debtID := int32(3)
	mirrored, err := ledger.Create(&domain.LedgerEntry{
		UserID:    userID,
		Category:  "Credit card",
		Amount:    decimal.NewFromInt(200),
		DueDate:   time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		MonthYear: "2025-06",
		Status:    domain.LedgerStatusPaid,
		DebtID:    &debtID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = service.DeleteEntry(userID, mirrored.ID)
	if err != domain.ErrLedgerEntryMirrored {
		t.Errorf("Expected ErrLedgerEntryMirrored, got %v", err)
	}
	if len(ledger.Entries) != 1 {
		t.Error("Expected mirrored entry to survive")
	}
}

func TestDeleteEntry_WrongUser(t *testing.T) {
	_, service := newLedgerServiceFixture()
	userID := uuid.New()

	entry, err := service.CreateEntry(userID, CreateEntryInput{
		Category: "Rent",
		Amount:   decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	err = service.DeleteEntry(uuid.New(), entry.ID)
	if err != domain.ErrLedgerEntryNotFound {
		t.Errorf("Expected ErrLedgerEntryNotFound, got %v", err)
	}
}
