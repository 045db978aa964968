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

const ledgerColumns = `id, user_id, category, description, amount, due_date,
	month_year, status, paid_on, installment_id, debt_id, created_at, updated_at`

// LedgerRepository implements domain.LedgerRepository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create creates a manual ledger entry
func (r *LedgerRepository) Create(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	return r.createEntry(context.Background(), r.pool, entry)
}

// CreateTx creates a ledger entry within a transaction
func (r *LedgerRepository) CreateTx(tx interface{}, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.createEntry(context.Background(), pgxTx, entry)
}

// CreateBatchTx inserts mirror entries within a transaction and returns the
// number created
func (r *LedgerRepository) CreateBatchTx(tx interface{}, entries []*domain.LedgerEntry) (int, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()

	for _, entry := range entries {
		if _, err := r.createEntry(ctx, pgxTx, entry); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func (r *LedgerRepository) createEntry(ctx context.Context, q dbtx, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, err
	}

	installmentID := pgtype.Int4{}
	if entry.InstallmentID != nil {
		installmentID.Int32 = *entry.InstallmentID
		installmentID.Valid = true
	}
	debtID := pgtype.Int4{}
	if entry.DebtID != nil {
		debtID.Int32 = *entry.DebtID
		debtID.Valid = true
	}

	row := q.QueryRow(ctx, `
		INSERT INTO ledger_entries (user_id, category, description, amount,
			due_date, month_year, status, paid_on, installment_id, debt_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+ledgerColumns,
		entry.UserID, entry.Category, pgTextFromPtr(entry.Description), amount,
		entry.DueDate, entry.MonthYear, string(entry.Status),
		pgDateFromPtr(entry.PaidOn), installmentID, debtID,
	)
	return scanLedgerEntry(row)
}

// GetByID retrieves a ledger entry owned by the user
func (r *LedgerRepository) GetByID(userID uuid.UUID, id int32) (*domain.LedgerEntry, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	entry, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetByMonth retrieves the user's entries for a YYYY-MM bucket, optionally
// filtered by status
func (r *LedgerRepository) GetByMonth(userID uuid.UUID, monthYear string, status *domain.LedgerStatus) ([]*domain.LedgerEntry, error) {
	ctx := context.Background()

	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1 AND month_year = $2`
	args := []any{userID, monthYear}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, string(*status))
	}
	query += ` ORDER BY due_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update rewrites the editable fields of a manual entry
func (r *LedgerRepository) Update(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE ledger_entries
		SET category = $3, description = $4, amount = $5, due_date = $6,
			month_year = $7, status = $8, paid_on = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+ledgerColumns,
		entry.ID, entry.UserID, entry.Category,
		pgTextFromPtr(entry.Description), amount, entry.DueDate,
		entry.MonthYear, string(entry.Status), pgDateFromPtr(entry.PaidOn),
	)
	updated, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a ledger entry
func (r *LedgerRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM ledger_entries
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerEntryNotFound
	}
	return nil
}

// MarkPaidByInstallmentTx marks the mirror of an installment paid within a
// transaction, returning the number of rows updated
func (r *LedgerRepository) MarkPaidByInstallmentTx(tx interface{}, installmentID int32, paidOn time.Time) (int64, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE ledger_entries
		SET status = $2, paid_on = $3, updated_at = now()
		WHERE installment_id = $1 AND status <> $2`,
		installmentID, string(domain.LedgerStatusPaid), paidOn,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeletePendingByLoanTx purges a loan's pending mirrors within a transaction,
// returning the number deleted. Paid mirrors are untouched.
func (r *LedgerRepository) DeletePendingByLoanTx(tx interface{}, loanID int32) (int64, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		DELETE FROM ledger_entries e
		USING loan_installments i
		WHERE e.installment_id = i.id
			AND i.loan_id = $1
			AND e.status = $2`,
		loanID, string(domain.LedgerStatusPending),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DetachByLoanTx clears the installment back-reference on a loan's remaining
// mirrors so the rows survive schedule deletion as plain history
func (r *LedgerRepository) DetachByLoanTx(tx interface{}, loanID int32) (int64, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE ledger_entries e
		SET installment_id = NULL, updated_at = now()
		FROM loan_installments i
		WHERE e.installment_id = i.id AND i.loan_id = $1`,
		loanID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DetachByDebtTx clears the debt back-reference on payment mirrors so the
// rows survive debt deletion as plain history
func (r *LedgerRepository) DetachByDebtTx(tx interface{}, debtID int32) (int64, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE ledger_entries
		SET debt_id = NULL, updated_at = now()
		WHERE debt_id = $1`,
		debtID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SummaryByMonth aggregates a month bucket
func (r *LedgerRepository) SummaryByMonth(userID uuid.UUID, monthYear string) (*domain.LedgerSummary, error) {
	ctx := context.Background()

	var (
		summary       domain.LedgerSummary
		totalAmount   pgtype.Numeric
		paidAmount    pgtype.Numeric
		pendingAmount pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND month_year = $2`,
		userID, monthYear,
	).Scan(&summary.TotalCount, &totalAmount, &paidAmount, &pendingAmount)
	if err != nil {
		return nil, err
	}

	summary.TotalAmount = pgNumericToDecimal(totalAmount)
	summary.PaidAmount = pgNumericToDecimal(paidAmount)
	summary.PendingAmount = pgNumericToDecimal(pendingAmount)
	return &summary, nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry         domain.LedgerEntry
		description   pgtype.Text
		amount        pgtype.Numeric
		status        string
		paidOn        pgtype.Date
		installmentID pgtype.Int4
		debtID        pgtype.Int4
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.Category, &description, &amount,
		&entry.DueDate, &entry.MonthYear, &status, &paidOn,
		&installmentID, &debtID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Description = ptrFromPgText(description)
	entry.Amount = pgNumericToDecimal(amount)
	entry.Status = domain.LedgerStatus(status)
	entry.PaidOn = ptrFromPgDate(paidOn)
	if installmentID.Valid {
		entry.InstallmentID = &installmentID.Int32
	}
	if debtID.Valid {
		entry.DebtID = &debtID.Int32
	}
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}
