package service

import (
	"time"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/util"
	"github.com/shopspring/decimal"
)

// LedgerMirror projects installments and debt payments into the shared
// monthly-expense ledger, one entry per installment and one per payment
// event. All methods run inside the caller's transaction so the mirror can
// never drift from its source rows.
type LedgerMirror struct {
	ledger domain.LedgerRepository
}

// NewLedgerMirror creates a new LedgerMirror
func NewLedgerMirror(ledger domain.LedgerRepository) *LedgerMirror {
	return &LedgerMirror{ledger: ledger}
}

// MirrorInstallmentsTx inserts one ledger entry per installment. Status and
// paid-on are copied verbatim, so backfilled paid installments land as paid
// ledger rows and historical totals are correct from the first insert.
func (m *LedgerMirror) MirrorInstallmentsTx(tx interface{}, loan *domain.Loan, installments []*domain.Installment) (int, error) {
	entries := make([]*domain.LedgerEntry, 0, len(installments))
	for _, inst := range installments {
		description := "EMI " + inst.Label(loan.TenureMonths)
		installmentID := inst.ID
		entry := &domain.LedgerEntry{
			UserID:        loan.UserID,
			Category:      loan.Name,
			Description:   &description,
			Amount:        inst.EMIAmount,
			DueDate:       inst.DueDate,
			MonthYear:     util.MonthKey(inst.DueDate),
			Status:        domain.LedgerStatusPending,
			InstallmentID: &installmentID,
		}
		if inst.Status == domain.InstallmentStatusPaid {
			entry.Status = domain.LedgerStatusPaid
			entry.PaidOn = inst.PaidOn
		}
		entries = append(entries, entry)
	}
	return m.ledger.CreateBatchTx(tx, entries)
}

// MirrorDebtPaymentTx inserts exactly one paid ledger entry for a payment
// increment, dated at payment time. The amount is the increment actually
// applied, not the debt's running total, so ledger sums reflect cash flow
// per event.
func (m *LedgerMirror) MirrorDebtPaymentTx(tx interface{}, debt *domain.Debt, applied decimal.Decimal, paidAt time.Time) (*domain.LedgerEntry, error) {
	description := "Debt payment"
	debtID := debt.ID
	entry := &domain.LedgerEntry{
		UserID:      debt.UserID,
		Category:    debt.Name,
		Description: &description,
		Amount:      applied,
		DueDate:     util.TruncateToDay(paidAt),
		MonthYear:   util.MonthKey(paidAt),
		Status:      domain.LedgerStatusPaid,
		PaidOn:      &paidAt,
		DebtID:      &debtID,
	}
	return m.ledger.CreateTx(tx, entry)
}

// PurgePendingForLoanTx deletes the loan's pending ledger mirrors. Paid
// mirrors are never touched: future obligations disappear from
// forward-looking reports while historical spend is preserved.
func (m *LedgerMirror) PurgePendingForLoanTx(tx interface{}, loanID int32) (int64, error) {
	return m.ledger.DeletePendingByLoanTx(tx, loanID)
}

// MarkInstallmentPaidTx flips the mirror matched by the stored installment
// back-reference; matching by identity avoids ambiguity when several
// installments share a due date.
func (m *LedgerMirror) MarkInstallmentPaidTx(tx interface{}, installmentID int32, paidOn time.Time) (int64, error) {
	return m.ledger.MarkPaidByInstallmentTx(tx, installmentID, paidOn)
}

// DetachLoanHistoryTx clears installment back-references on the loan's
// remaining (paid) mirrors so the installment rows can be deleted while the
// ledger history survives.
func (m *LedgerMirror) DetachLoanHistoryTx(tx interface{}, loanID int32) (int64, error) {
	return m.ledger.DetachByLoanTx(tx, loanID)
}

// DetachDebtHistoryTx clears debt back-references before a debt row is deleted
func (m *LedgerMirror) DetachDebtHistoryTx(tx interface{}, debtID int32) (int64, error) {
	return m.ledger.DetachByDebtTx(tx, debtID)
}
