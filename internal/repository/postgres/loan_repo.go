package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knostfin/knost-backend/internal/domain"
)

const loanColumns = `id, user_id, name, principal, annual_rate, tenure_months,
	emi_amount, start_date, end_date, status, notes, created_at, updated_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// CreateTx creates a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.createLoan(context.Background(), pgxTx, loan)
}

func (r *LoanRepository) createLoan(ctx context.Context, q dbtx, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}

	annualRate, err := decimalToPgNumeric(loan.AnnualRate)
	if err != nil {
		return nil, err
	}

	emiAmount, err := decimalToPgNumeric(loan.EMIAmount)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `
		INSERT INTO loans (user_id, name, principal, annual_rate, tenure_months,
			emi_amount, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loanColumns,
		loan.UserID, loan.Name, principal, annualRate, loan.TenureMonths,
		emiAmount, loan.StartDate, loan.EndDate, string(loan.Status),
		pgTextFromPtr(loan.Notes),
	)
	return scanLoan(row)
}

// GetByID retrieves a loan owned by the user
func (r *LoanRepository) GetByID(userID uuid.UUID, id int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByIDForUpdateTx retrieves a loan with a row lock, serializing
// concurrent mutations of the same loan
func (r *LoanRepository) GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`,
		id, userID,
	)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetAllByUser retrieves the user's loans, optionally filtered by status
func (r *LoanRepository) GetAllByUser(userID uuid.UUID, status *domain.LoanStatus) ([]*domain.Loan, error) {
	ctx := context.Background()

	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// UpdateMeta updates the editable fields (name, notes) of a loan
func (r *LoanRepository) UpdateMeta(userID uuid.UUID, id int32, name string, notes *string) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE loans
		SET name = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+loanColumns,
		id, userID, name, pgTextFromPtr(notes),
	)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// UpdateStatusTx transitions the loan's lifecycle status within a transaction
func (r *LoanRepository) UpdateStatusTx(tx interface{}, userID uuid.UUID, id int32, status domain.LoanStatus) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		UPDATE loans
		SET status = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+loanColumns,
		id, userID, string(status),
	)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// DeleteTx removes a loan within a transaction
func (r *LoanRepository) DeleteTx(tx interface{}, userID uuid.UUID, id int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		DELETE FROM loans
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan       domain.Loan
		principal  pgtype.Numeric
		annualRate pgtype.Numeric
		emiAmount  pgtype.Numeric
		status     string
		notes      pgtype.Text
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&loan.ID, &loan.UserID, &loan.Name, &principal, &annualRate,
		&loan.TenureMonths, &emiAmount, &loan.StartDate, &loan.EndDate,
		&status, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.Principal = pgNumericToDecimal(principal)
	loan.AnnualRate = pgNumericToDecimal(annualRate)
	loan.EMIAmount = pgNumericToDecimal(emiAmount)
	loan.Status = domain.LoanStatus(status)
	loan.Notes = ptrFromPgText(notes)
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time

	return &loan, nil
}
