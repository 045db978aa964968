package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/ws"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DebtService owns debt lifecycle and the payment state machine.
// pending → partially_paid → paid, strictly forward; amount_paid only grows.
type DebtService struct {
	db             TxBeginner
	debtRepo       domain.DebtRepository
	mirror         *LedgerMirror
	eventPublisher ws.EventPublisher
}

// NewDebtService creates a new DebtService
func NewDebtService(db TxBeginner, debtRepo domain.DebtRepository, mirror *LedgerMirror) *DebtService {
	return &DebtService{
		db:       db,
		debtRepo: debtRepo,
		mirror:   mirror,
	}
}

// SetEventPublisher sets the publisher for real-time updates
func (s *DebtService) SetEventPublisher(publisher ws.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DebtService) publishEvent(userID uuid.UUID, event ws.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateDebtInput contains input for creating a debt
type CreateDebtInput struct {
	Name        string
	TotalAmount decimal.Decimal
	Creditor    *string
	DueDate     *time.Time
	Notes       *string
}

// CreateDebt creates a new debt in the pending state
func (s *DebtService) CreateDebt(userID uuid.UUID, input CreateDebtInput) (*domain.Debt, error) {
	debt := &domain.Debt{
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		TotalAmount: input.TotalAmount,
		AmountPaid:  decimal.Zero,
		Status:      domain.DebtStatusPending,
		Creditor:    input.Creditor,
		DueDate:     input.DueDate,
		Notes:       input.Notes,
	}
	if err := debt.Validate(); err != nil {
		return nil, err
	}
	return s.debtRepo.Create(debt)
}

// GetDebts retrieves the user's debts, optionally filtered by status
func (s *DebtService) GetDebts(userID uuid.UUID, status *domain.DebtStatus) ([]*domain.Debt, error) {
	return s.debtRepo.GetAllByUser(userID, status)
}

// GetDebtByID retrieves a debt owned by the user
func (s *DebtService) GetDebtByID(userID uuid.UUID, debtID int32) (*domain.Debt, error) {
	return s.debtRepo.GetByID(userID, debtID)
}

// UpdateDebtMeta updates the editable metadata of a debt; amounts and
// status move only through ApplyPayment
func (s *DebtService) UpdateDebtMeta(userID uuid.UUID, debtID int32, name string, creditor *string, dueDate *time.Time, notes *string) (*domain.Debt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrDebtNameEmpty
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrDebtNameTooLong
	}
	return s.debtRepo.UpdateMeta(userID, debtID, name, creditor, dueDate, notes)
}

// ApplyPaymentResult is the payload returned by ApplyPayment
type ApplyPaymentResult struct {
	Debt               *domain.Debt
	AppliedAmount      decimal.Decimal
	LedgerEntryCreated bool
}

// ApplyPayment records a payment increment against a debt. A nil amount
// means pay-in-full. The increment is clamped so amount_paid never exceeds
// the total; a zero applied amount (already fully paid) creates no ledger
// entry, which makes redundant pay-in-full retries idempotent. Debt update
// and ledger insert commit together or not at all.
func (s *DebtService) ApplyPayment(ctx context.Context, userID uuid.UUID, debtID int32, amount *decimal.Decimal) (*ApplyPaymentResult, error) {
	if amount != nil && amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrDebtPaymentAmountInvalid
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin apply payment: %w", err)
	}
	defer tx.Rollback(ctx)

	debt, err := s.debtRepo.GetByIDForUpdateTx(tx, userID, debtID)
	if err != nil {
		return nil, err
	}

	remaining := debt.Remaining()
	applied := remaining
	if amount != nil && amount.LessThan(remaining) {
		applied = *amount
	}

	if applied.LessThanOrEqual(decimal.Zero) {
		// Debt already settled in full; nothing to record
		return &ApplyPaymentResult{Debt: debt, AppliedAmount: decimal.Zero}, nil
	}

	newAmountPaid := debt.AmountPaid.Add(applied)
	newStatus := debt.StatusFor(newAmountPaid)

	updated, err := s.debtRepo.ApplyPaymentTx(tx, debt.ID, newAmountPaid, newStatus)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.mirror.MirrorDebtPaymentTx(tx, updated, applied, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit apply payment: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("debt_id", debtID).
		Str("applied", applied.StringFixed(2)).
		Str("status", string(newStatus)).
		Msg("debt payment applied")

	s.publishEvent(userID, ws.DebtPaymentRecorded(updated, applied))

	return &ApplyPaymentResult{Debt: updated, AppliedAmount: applied, LedgerEntryCreated: true}, nil
}

// DeleteDebt removes a debt; its payment history in the ledger is detached
// and kept
func (s *DebtService) DeleteDebt(ctx context.Context, userID uuid.UUID, debtID int32) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete debt: %w", err)
	}
	defer tx.Rollback(ctx)

	debt, err := s.debtRepo.GetByIDForUpdateTx(tx, userID, debtID)
	if err != nil {
		return err
	}

	if _, err := s.mirror.DetachDebtHistoryTx(tx, debt.ID); err != nil {
		return err
	}
	if err := s.debtRepo.DeleteTx(tx, userID, debt.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete debt: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("debt_id", debtID).
		Msg("debt deleted")

	return nil
}
