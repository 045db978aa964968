package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/util"
	"github.com/knostfin/knost-backend/internal/ws"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TxBeginner starts storage transactions; *pgxpool.Pool satisfies it
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LoanService owns loan lifecycle operations. Every multi-row mutation runs
// in a single transaction: either the loan, its installments and their
// ledger mirrors all land, or none do.
type LoanService struct {
	db              TxBeginner
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	mirror          *LedgerMirror
	eventPublisher  ws.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(db TxBeginner, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository, mirror *LedgerMirror) *LoanService {
	return &LoanService{
		db:              db,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		mirror:          mirror,
	}
}

// SetEventPublisher sets the publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher ws.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(userID uuid.UUID, event ws.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	Name         string
	Principal    decimal.Decimal
	AnnualRate   decimal.Decimal
	TenureMonths int32
	StartDate    time.Time
	Notes        *string
}

// CreateLoanResult is the payload returned by CreateLoan
type CreateLoanResult struct {
	Loan                   *domain.Loan
	Installments           []*domain.Installment
	LedgerEntriesCreated   int
	PastPaymentsAutoMarked int32
	FuturePaymentsPending  int32
}

// CreateLoan computes the amortization schedule for a new loan and persists
// loan, installments and ledger mirrors atomically. Installments due before
// today are backfilled as paid.
func (s *LoanService) CreateLoan(ctx context.Context, userID uuid.UUID, input CreateLoanInput) (*CreateLoanResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrLoanNameEmpty
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrLoanNameTooLong
	}

	// Rejects non-positive principal/tenure and negative rates before any
	// storage access
	emiAmount, err := ComputeEMI(input.Principal, input.AnnualRate, input.TenureMonths)
	if err != nil {
		return nil, err
	}

	startDate := util.TruncateToDay(input.StartDate)
	if input.StartDate.IsZero() {
		startDate = util.TruncateToDay(time.Now())
	}

	loan := &domain.Loan{
		UserID:       userID,
		Name:         name,
		Principal:    input.Principal,
		AnnualRate:   input.AnnualRate,
		TenureMonths: input.TenureMonths,
		EMIAmount:    emiAmount,
		StartDate:    startDate,
		EndDate:      util.AddMonths(startDate, int(input.TenureMonths)),
		Status:       domain.LoanStatusActive,
		Notes:        input.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create loan: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := s.loanRepo.CreateTx(tx, loan)
	if err != nil {
		return nil, err
	}

	schedule := GenerateSchedule(created, time.Now())
	installments, err := s.installmentRepo.CreateBatchTx(tx, schedule)
	if err != nil {
		return nil, err
	}

	ledgerCount, err := s.mirror.MirrorInstallmentsTx(tx, created, installments)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create loan: %w", err)
	}

	var paid, pending int32
	for _, inst := range installments {
		if inst.Status == domain.InstallmentStatusPaid {
			paid++
		} else {
			pending++
		}
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("loan_id", created.ID).
		Int32("tenure_months", created.TenureMonths).
		Int32("backfilled_paid", paid).
		Msg("loan created with schedule")

	s.publishEvent(userID, ws.LoanCreated(created))

	return &CreateLoanResult{
		Loan:                   created,
		Installments:           installments,
		LedgerEntriesCreated:   ledgerCount,
		PastPaymentsAutoMarked: paid,
		FuturePaymentsPending:  pending,
	}, nil
}

// GetLoans retrieves the user's loans with per-loan payment summaries
func (s *LoanService) GetLoans(userID uuid.UUID, status *domain.LoanStatus) ([]*domain.LoanWithSummary, error) {
	loans, err := s.loanRepo.GetAllByUser(userID, status)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.LoanWithSummary, 0, len(loans))
	for _, loan := range loans {
		summary, err := s.installmentRepo.GetSummaryByLoan(loan.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &domain.LoanWithSummary{Loan: *loan, Summary: *summary})
	}
	return result, nil
}

// GetLoanDetails retrieves a loan and its full ordered schedule
func (s *LoanService) GetLoanDetails(userID uuid.UUID, loanID int32) (*domain.Loan, []*domain.Installment, error) {
	loan, err := s.loanRepo.GetByID(userID, loanID)
	if err != nil {
		return nil, nil, err
	}
	installments, err := s.installmentRepo.GetByLoanID(loanID)
	if err != nil {
		return nil, nil, err
	}
	return loan, installments, nil
}

// UpdateLoanMeta updates the editable metadata (name, notes) of a loan
func (s *LoanService) UpdateLoanMeta(userID uuid.UUID, loanID int32, name string, notes *string) (*domain.Loan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrLoanNameEmpty
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrLoanNameTooLong
	}
	return s.loanRepo.UpdateMeta(userID, loanID, name, notes)
}

// CloseLoanResult is the payload returned by close/foreclose/delete
type CloseLoanResult struct {
	Loan                 *domain.Loan
	PendingLedgerDeleted int64
}

// CloseLoan marks a loan closed and purges its pending ledger mirrors
func (s *LoanService) CloseLoan(ctx context.Context, userID uuid.UUID, loanID int32) (*CloseLoanResult, error) {
	return s.settleLoan(ctx, userID, loanID, domain.LoanStatusClosed)
}

// ForecloseLoan marks a loan foreclosed (early payoff); the pending schedule
// is purged from the ledger exactly as on closure
func (s *LoanService) ForecloseLoan(ctx context.Context, userID uuid.UUID, loanID int32) (*CloseLoanResult, error) {
	return s.settleLoan(ctx, userID, loanID, domain.LoanStatusForeclosed)
}

func (s *LoanService) settleLoan(ctx context.Context, userID uuid.UUID, loanID int32, status domain.LoanStatus) (*CloseLoanResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settle loan: %w", err)
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDForUpdateTx(tx, userID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == status {
		// Retried request; the purge already ran
		return &CloseLoanResult{Loan: loan}, nil
	}

	updated, err := s.loanRepo.UpdateStatusTx(tx, userID, loanID, status)
	if err != nil {
		return nil, err
	}

	deleted, err := s.mirror.PurgePendingForLoanTx(tx, loanID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settle loan: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("loan_id", loanID).
		Str("status", string(status)).
		Int64("pending_ledger_deleted", deleted).
		Msg("loan settled")

	s.publishEvent(userID, ws.LoanSettled(updated, deleted))

	return &CloseLoanResult{Loan: updated, PendingLedgerDeleted: deleted}, nil
}

// DeleteLoan removes a loan and its installments. Pending ledger mirrors are
// purged; paid mirrors are detached from their installments and kept as
// historical record.
func (s *LoanService) DeleteLoan(ctx context.Context, userID uuid.UUID, loanID int32) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete loan: %w", err)
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDForUpdateTx(tx, userID, loanID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.mirror.PurgePendingForLoanTx(tx, loan.ID)
	if err != nil {
		return 0, err
	}
	if _, err := s.mirror.DetachLoanHistoryTx(tx, loan.ID); err != nil {
		return 0, err
	}
	if err := s.installmentRepo.DeleteByLoanTx(tx, loan.ID); err != nil {
		return 0, err
	}
	if err := s.loanRepo.DeleteTx(tx, userID, loan.ID); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete loan: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("loan_id", loanID).
		Int64("pending_ledger_deleted", deleted).
		Msg("loan deleted")

	s.publishEvent(userID, ws.LoanDeleted(loanID, deleted))

	return deleted, nil
}

// MarkInstallmentPaidResult is the payload returned by MarkInstallmentPaid
type MarkInstallmentPaidResult struct {
	Installment   *domain.Installment
	LedgerUpdated int64
	AlreadyPaid   bool
}

// MarkInstallmentPaid transitions an installment pending → paid and flips
// its ledger mirror in the same transaction. Marking an already-paid
// installment is a benign no-op, which keeps retries idempotent: the row
// lock serializes concurrent calls and the second sees the paid state.
func (s *LoanService) MarkInstallmentPaid(ctx context.Context, userID uuid.UUID, loanID int32, installmentID int32) (*MarkInstallmentPaidResult, error) {
	loan, err := s.loanRepo.GetByID(userID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, domain.ErrLoanNotActive
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin mark installment paid: %w", err)
	}
	defer tx.Rollback(ctx)

	installment, err := s.installmentRepo.GetByIDForUpdateTx(tx, loan.ID, installmentID)
	if err != nil {
		return nil, err
	}
	if installment.Status == domain.InstallmentStatusPaid {
		return &MarkInstallmentPaidResult{Installment: installment, AlreadyPaid: true}, nil
	}

	now := time.Now()
	updated, err := s.installmentRepo.MarkPaidTx(tx, installment.ID, now)
	if err != nil {
		return nil, err
	}

	ledgerUpdated, err := s.mirror.MarkInstallmentPaidTx(tx, installment.ID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit mark installment paid: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("loan_id", loanID).
		Int32("installment_id", installmentID).
		Msg("installment marked paid")

	s.publishEvent(userID, ws.InstallmentPaid(updated))

	return &MarkInstallmentPaidResult{Installment: updated, LedgerUpdated: ledgerUpdated}, nil
}

// MonthlyEMISummary aggregates the installments due in one month bucket
type MonthlyEMISummary struct {
	TotalEMIs   int32           `json:"totalEmis"`
	Paid        int32           `json:"paid"`
	Pending     int32           `json:"pending"`
	Overdue     int32           `json:"overdue"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
}

// MonthlyEMIDue lists the installments due in a month with a summary.
// An empty monthYear defaults to the current month.
func (s *LoanService) MonthlyEMIDue(userID uuid.UUID, monthYear string) ([]*domain.Installment, *MonthlyEMISummary, error) {
	if monthYear == "" {
		monthYear = util.MonthKey(time.Now())
	}
	if !domain.ValidMonthYear(monthYear) {
		return nil, nil, domain.ErrLedgerMonthYearInvalid
	}

	installments, err := s.installmentRepo.GetByMonth(userID, monthYear)
	if err != nil {
		return nil, nil, err
	}

	summary := &MonthlyEMISummary{
		TotalAmount: decimal.Zero,
		PaidAmount:  decimal.Zero,
	}
	for _, inst := range installments {
		summary.TotalEMIs++
		summary.TotalAmount = summary.TotalAmount.Add(inst.EMIAmount)
		switch inst.Status {
		case domain.InstallmentStatusPaid:
			summary.Paid++
			summary.PaidAmount = summary.PaidAmount.Add(inst.EMIAmount)
		case domain.InstallmentStatusOverdue:
			summary.Overdue++
		default:
			summary.Pending++
		}
	}
	return installments, summary, nil
}
