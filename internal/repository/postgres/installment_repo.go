package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knostfin/knost-backend/internal/domain"
)

const installmentColumns = `id, loan_id, user_id, number, due_date, emi_amount,
	principal_paid, interest_paid, outstanding_balance, status, paid_on, created_at`

// InstallmentRepository implements domain.InstallmentRepository using PostgreSQL
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

// CreateBatchTx inserts a full schedule within a transaction and returns the
// rows with their assigned IDs, ordered by installment number
func (r *InstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) ([]*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	created := make([]*domain.Installment, 0, len(installments))
	for _, inst := range installments {
		emiAmount, err := decimalToPgNumeric(inst.EMIAmount)
		if err != nil {
			return nil, err
		}
		principalPaid, err := decimalToPgNumeric(inst.PrincipalPaid)
		if err != nil {
			return nil, err
		}
		interestPaid, err := decimalToPgNumeric(inst.InterestPaid)
		if err != nil {
			return nil, err
		}
		outstanding, err := decimalToPgNumeric(inst.OutstandingBalance)
		if err != nil {
			return nil, err
		}

		row := pgxTx.QueryRow(ctx, `
			INSERT INTO loan_installments (loan_id, user_id, number, due_date,
				emi_amount, principal_paid, interest_paid, outstanding_balance,
				status, paid_on)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+installmentColumns,
			inst.LoanID, inst.UserID, inst.Number, inst.DueDate,
			emiAmount, principalPaid, interestPaid, outstanding,
			string(inst.Status), pgDateFromPtr(inst.PaidOn),
		)
		saved, err := scanInstallment(row)
		if err != nil {
			return nil, err
		}
		created = append(created, saved)
	}
	return created, nil
}

// GetByID retrieves one installment of a loan
func (r *InstallmentRepository) GetByID(loanID int32, id int32) (*domain.Installment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+installmentColumns+`
		FROM loan_installments
		WHERE id = $1 AND loan_id = $2`,
		id, loanID,
	)
	inst, err := scanInstallment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	return inst, nil
}

// GetByIDForUpdateTx retrieves an installment with a row lock so concurrent
// mark-paid calls on the same installment serialize
func (r *InstallmentRepository) GetByIDForUpdateTx(tx interface{}, loanID int32, id int32) (*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		SELECT `+installmentColumns+`
		FROM loan_installments
		WHERE id = $1 AND loan_id = $2
		FOR UPDATE`,
		id, loanID,
	)
	inst, err := scanInstallment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	return inst, nil
}

// GetByLoanID retrieves a loan's full schedule ordered by installment number
func (r *InstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM loan_installments
		WHERE loan_id = $1
		ORDER BY number`,
		loanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// MarkPaidTx marks an installment paid within a transaction
func (r *InstallmentRepository) MarkPaidTx(tx interface{}, id int32, paidOn time.Time) (*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		UPDATE loan_installments
		SET status = $2, paid_on = $3
		WHERE id = $1
		RETURNING `+installmentColumns,
		id, string(domain.InstallmentStatusPaid), paidOn,
	)
	inst, err := scanInstallment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	return inst, nil
}

// GetByMonth retrieves the user's installments due in a YYYY-MM bucket,
// across all of their loans regardless of loan status
func (r *InstallmentRepository) GetByMonth(userID uuid.UUID, monthYear string) ([]*domain.Installment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, loan_id, user_id, number, due_date, emi_amount,
			principal_paid, interest_paid, outstanding_balance, status,
			paid_on, created_at
		FROM loan_installments
		WHERE user_id = $1
			AND to_char(due_date, 'YYYY-MM') = $2
		ORDER BY due_date, loan_id`,
		userID, monthYear,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// GetSummaryByLoan aggregates installment state for one loan
func (r *InstallmentRepository) GetSummaryByLoan(loanID int32) (*domain.LoanPaymentSummary, error) {
	ctx := context.Background()

	var (
		summary   domain.LoanPaymentSummary
		totalPaid pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'overdue'),
			COALESCE(SUM(emi_amount) FILTER (WHERE status = 'paid'), 0)
		FROM loan_installments
		WHERE loan_id = $1`,
		loanID,
	).Scan(
		&summary.TotalCount, &summary.PaidCount, &summary.PendingCount,
		&summary.OverdueCount, &totalPaid,
	)
	if err != nil {
		return nil, err
	}
	summary.TotalPaid = pgNumericToDecimal(totalPaid)
	return &summary, nil
}

// DeleteByLoanTx removes a loan's schedule within a transaction
func (r *InstallmentRepository) DeleteByLoanTx(tx interface{}, loanID int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	_, err = pgxTx.Exec(ctx, `
		DELETE FROM loan_installments
		WHERE loan_id = $1`,
		loanID,
	)
	return err
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var (
		inst          domain.Installment
		emiAmount     pgtype.Numeric
		principalPaid pgtype.Numeric
		interestPaid  pgtype.Numeric
		outstanding   pgtype.Numeric
		status        string
		paidOn        pgtype.Date
		createdAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&inst.ID, &inst.LoanID, &inst.UserID, &inst.Number, &inst.DueDate,
		&emiAmount, &principalPaid, &interestPaid, &outstanding,
		&status, &paidOn, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	inst.EMIAmount = pgNumericToDecimal(emiAmount)
	inst.PrincipalPaid = pgNumericToDecimal(principalPaid)
	inst.InterestPaid = pgNumericToDecimal(interestPaid)
	inst.OutstandingBalance = pgNumericToDecimal(outstanding)
	inst.Status = domain.InstallmentStatus(status)
	inst.PaidOn = ptrFromPgDate(paidOn)
	inst.CreatedAt = createdAt.Time

	return &inst, nil
}

func collectInstallments(rows pgx.Rows) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}
