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
	"github.com/shopspring/decimal"
)

const debtColumns = `id, user_id, name, total_amount, amount_paid, status,
	creditor, due_date, notes, created_at, updated_at`

// DebtRepository implements domain.DebtRepository using PostgreSQL
type DebtRepository struct {
	pool *pgxpool.Pool
}

// NewDebtRepository creates a new DebtRepository
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{pool: pool}
}

// Create creates a new debt
func (r *DebtRepository) Create(debt *domain.Debt) (*domain.Debt, error) {
	ctx := context.Background()

	totalAmount, err := decimalToPgNumeric(debt.TotalAmount)
	if err != nil {
		return nil, err
	}
	amountPaid, err := decimalToPgNumeric(debt.AmountPaid)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO debts (user_id, name, total_amount, amount_paid, status,
			creditor, due_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+debtColumns,
		debt.UserID, debt.Name, totalAmount, amountPaid, string(debt.Status),
		pgTextFromPtr(debt.Creditor), pgDateFromPtr(debt.DueDate),
		pgTextFromPtr(debt.Notes),
	)
	return scanDebt(row)
}

// GetByID retrieves a debt owned by the user
func (r *DebtRepository) GetByID(userID uuid.UUID, id int32) (*domain.Debt, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}
	return debt, nil
}

// GetByIDForUpdateTx retrieves a debt with a row lock, serializing
// concurrent payments against the same debt
func (r *DebtRepository) GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*domain.Debt, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`,
		id, userID,
	)
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}
	return debt, nil
}

// GetAllByUser retrieves the user's debts, optionally filtered by status
func (r *DebtRepository) GetAllByUser(userID uuid.UUID, status *domain.DebtStatus) ([]*domain.Debt, error) {
	ctx := context.Background()

	query := `
		SELECT ` + debtColumns + `
		FROM debts
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

	var debts []*domain.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

// UpdateMeta updates the descriptive fields of a debt; amounts and status
// only change through ApplyPaymentTx
func (r *DebtRepository) UpdateMeta(userID uuid.UUID, id int32, name string, creditor *string, dueDate *time.Time, notes *string) (*domain.Debt, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE debts
		SET name = $3, creditor = $4, due_date = $5, notes = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+debtColumns,
		id, userID, name, pgTextFromPtr(creditor), pgDateFromPtr(dueDate),
		pgTextFromPtr(notes),
	)
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}
	return debt, nil
}

// ApplyPaymentTx persists a new cumulative amount-paid and derived status
// within a transaction
func (r *DebtRepository) ApplyPaymentTx(tx interface{}, id int32, amountPaid decimal.Decimal, status domain.DebtStatus) (*domain.Debt, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	paid, err := decimalToPgNumeric(amountPaid)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `
		UPDATE debts
		SET amount_paid = $2, status = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+debtColumns,
		id, paid, string(status),
	)
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}
	return debt, nil
}

// DeleteTx removes a debt within a transaction
func (r *DebtRepository) DeleteTx(tx interface{}, userID uuid.UUID, id int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		DELETE FROM debts
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDebtNotFound
	}
	return nil
}

func scanDebt(row pgx.Row) (*domain.Debt, error) {
	var (
		debt        domain.Debt
		totalAmount pgtype.Numeric
		amountPaid  pgtype.Numeric
		status      string
		creditor    pgtype.Text
		dueDate     pgtype.Date
		notes       pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(
		&debt.ID, &debt.UserID, &debt.Name, &totalAmount, &amountPaid,
		&status, &creditor, &dueDate, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	debt.TotalAmount = pgNumericToDecimal(totalAmount)
	debt.AmountPaid = pgNumericToDecimal(amountPaid)
	debt.Status = domain.DebtStatus(status)
	debt.Creditor = ptrFromPgText(creditor)
	debt.DueDate = ptrFromPgDate(dueDate)
	debt.Notes = ptrFromPgText(notes)
	debt.CreatedAt = createdAt.Time
	debt.UpdatedAt = updatedAt.Time

	return &debt, nil
}
