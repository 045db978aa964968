package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockTx is an in-memory stand-in for pgx.Tx. It records commit/rollback
// calls; the mock repositories apply writes immediately, so atomicity is
// asserted through these flags plus injected errors.
type MockTx struct {
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (t *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *MockTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

func (t *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *MockTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *MockTx) Conn() *pgx.Conn { return nil }

// MockTxBeginner hands out MockTx values, keeping each for inspection
type MockTxBeginner struct {
	Txs      []*MockTx
	BeginErr error
	// CommitErr is copied onto every new transaction
	CommitErr error
}

// NewMockTxBeginner creates a new MockTxBeginner
func NewMockTxBeginner() *MockTxBeginner {
	return &MockTxBeginner{}
}

// Begin starts a new mock transaction
func (b *MockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	tx := &MockTx{CommitErr: b.CommitErr}
	b.Txs = append(b.Txs, tx)
	return tx, nil
}

// LastTx returns the most recently started transaction
func (b *MockTxBeginner) LastTx() *MockTx {
	if len(b.Txs) == 0 {
		return nil
	}
	return b.Txs[len(b.Txs)-1]
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans    map[int32]*domain.Loan
	NextID   int32
	CreateFn func(loan *domain.Loan) (*domain.Loan, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:  make(map[int32]*domain.Loan),
		NextID: 1,
	}
}

// CreateTx creates a new loan
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(loan)
	}
	saved := *loan
	saved.ID = m.NextID
	m.NextID++
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	m.Loans[saved.ID] = &saved
	return &saved, nil
}

// GetByID retrieves a loan owned by the user
func (m *MockLoanRepository) GetByID(userID uuid.UUID, id int32) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.UserID != userID {
		return nil, domain.ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

// GetByIDForUpdateTx retrieves a loan within a transaction
func (m *MockLoanRepository) GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*domain.Loan, error) {
	return m.GetByID(userID, id)
}

// GetAllByUser retrieves the user's loans, optionally filtered by status
func (m *MockLoanRepository) GetAllByUser(userID uuid.UUID, status *domain.LoanStatus) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for _, loan := range m.Loans {
		if loan.UserID != userID {
			continue
		}
		if status != nil && loan.Status != *status {
			continue
		}
		copied := *loan
		loans = append(loans, &copied)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// UpdateMeta updates name and notes
func (m *MockLoanRepository) UpdateMeta(userID uuid.UUID, id int32, name string, notes *string) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.UserID != userID {
		return nil, domain.ErrLoanNotFound
	}
	loan.Name = name
	loan.Notes = notes
	loan.UpdatedAt = time.Now()
	copied := *loan
	return &copied, nil
}

// UpdateStatusTx transitions the loan's status
func (m *MockLoanRepository) UpdateStatusTx(tx interface{}, userID uuid.UUID, id int32, status domain.LoanStatus) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.UserID != userID {
		return nil, domain.ErrLoanNotFound
	}
	loan.Status = status
	loan.UpdatedAt = time.Now()
	copied := *loan
	return &copied, nil
}

// DeleteTx removes a loan
func (m *MockLoanRepository) DeleteTx(tx interface{}, userID uuid.UUID, id int32) error {
	loan, ok := m.Loans[id]
	if !ok || loan.UserID != userID {
		return domain.ErrLoanNotFound
	}
	delete(m.Loans, id)
	return nil
}

// MockInstallmentRepository is a mock implementation of domain.InstallmentRepository
type MockInstallmentRepository struct {
	Installments  map[int32]*domain.Installment
	NextID        int32
	CreateBatchFn func(installments []*domain.Installment) ([]*domain.Installment, error)
	MarkPaidFn    func(id int32, paidOn time.Time) (*domain.Installment, error)
}

// NewMockInstallmentRepository creates a new MockInstallmentRepository
func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{
		Installments: make(map[int32]*domain.Installment),
		NextID:       1,
	}
}

// CreateBatchTx inserts a schedule
func (m *MockInstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) ([]*domain.Installment, error) {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(installments)
	}
	created := make([]*domain.Installment, 0, len(installments))
	for _, inst := range installments {
		saved := *inst
		saved.ID = m.NextID
		m.NextID++
		saved.CreatedAt = time.Now()
		m.Installments[saved.ID] = &saved
		copied := saved
		created = append(created, &copied)
	}
	return created, nil
}

// GetByID retrieves one installment of a loan
func (m *MockInstallmentRepository) GetByID(loanID int32, id int32) (*domain.Installment, error) {
	inst, ok := m.Installments[id]
	if !ok || inst.LoanID != loanID {
		return nil, domain.ErrInstallmentNotFound
	}
	copied := *inst
	return &copied, nil
}

// GetByIDForUpdateTx retrieves one installment within a transaction
func (m *MockInstallmentRepository) GetByIDForUpdateTx(tx interface{}, loanID int32, id int32) (*domain.Installment, error) {
	return m.GetByID(loanID, id)
}

// GetByLoanID retrieves a loan's schedule ordered by number
func (m *MockInstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for _, inst := range m.Installments {
		if inst.LoanID != loanID {
			continue
		}
		copied := *inst
		installments = append(installments, &copied)
	}
	sort.Slice(installments, func(i, j int) bool { return installments[i].Number < installments[j].Number })
	return installments, nil
}

// MarkPaidTx marks an installment paid
func (m *MockInstallmentRepository) MarkPaidTx(tx interface{}, id int32, paidOn time.Time) (*domain.Installment, error) {
	if m.MarkPaidFn != nil {
		return m.MarkPaidFn(id, paidOn)
	}
	inst, ok := m.Installments[id]
	if !ok {
		return nil, domain.ErrInstallmentNotFound
	}
	inst.Status = domain.InstallmentStatusPaid
	inst.PaidOn = &paidOn
	copied := *inst
	return &copied, nil
}

// GetByMonth retrieves the user's installments due in a YYYY-MM bucket
func (m *MockInstallmentRepository) GetByMonth(userID uuid.UUID, monthYear string) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for _, inst := range m.Installments {
		if inst.UserID != userID {
			continue
		}
		if inst.DueDate.Format("2006-01") != monthYear {
			continue
		}
		copied := *inst
		installments = append(installments, &copied)
	}
	sort.Slice(installments, func(i, j int) bool {
		return installments[i].DueDate.Before(installments[j].DueDate)
	})
	return installments, nil
}

// GetSummaryByLoan aggregates installment state for one loan
func (m *MockInstallmentRepository) GetSummaryByLoan(loanID int32) (*domain.LoanPaymentSummary, error) {
	summary := &domain.LoanPaymentSummary{TotalPaid: decimal.Zero}
	for _, inst := range m.Installments {
		if inst.LoanID != loanID {
			continue
		}
		summary.TotalCount++
		switch inst.Status {
		case domain.InstallmentStatusPaid:
			summary.PaidCount++
			summary.TotalPaid = summary.TotalPaid.Add(inst.EMIAmount)
		case domain.InstallmentStatusOverdue:
			summary.OverdueCount++
		default:
			summary.PendingCount++
		}
	}
	return summary, nil
}

// DeleteByLoanTx removes a loan's schedule
func (m *MockInstallmentRepository) DeleteByLoanTx(tx interface{}, loanID int32) error {
	for id, inst := range m.Installments {
		if inst.LoanID == loanID {
			delete(m.Installments, id)
		}
	}
	return nil
}

// MockDebtRepository is a mock implementation of domain.DebtRepository
type MockDebtRepository struct {
	Debts          map[int32]*domain.Debt
	NextID         int32
	ApplyPaymentFn func(id int32, amountPaid decimal.Decimal, status domain.DebtStatus) (*domain.Debt, error)
}

// NewMockDebtRepository creates a new MockDebtRepository
func NewMockDebtRepository() *MockDebtRepository {
	return &MockDebtRepository{
		Debts:  make(map[int32]*domain.Debt),
		NextID: 1,
	}
}

// Create creates a new debt
func (m *MockDebtRepository) Create(debt *domain.Debt) (*domain.Debt, error) {
	saved := *debt
	saved.ID = m.NextID
	m.NextID++
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	m.Debts[saved.ID] = &saved
	copied := saved
	return &copied, nil
}

// GetByID retrieves a debt owned by the user
func (m *MockDebtRepository) GetByID(userID uuid.UUID, id int32) (*domain.Debt, error) {
	debt, ok := m.Debts[id]
	if !ok || debt.UserID != userID {
		return nil, domain.ErrDebtNotFound
	}
	copied := *debt
	return &copied, nil
}

// GetByIDForUpdateTx retrieves a debt within a transaction
func (m *MockDebtRepository) GetByIDForUpdateTx(tx interface{}, userID uuid.UUID, id int32) (*domain.Debt, error) {
	return m.GetByID(userID, id)
}

// GetAllByUser retrieves the user's debts, optionally filtered by status
func (m *MockDebtRepository) GetAllByUser(userID uuid.UUID, status *domain.DebtStatus) ([]*domain.Debt, error) {
	var debts []*domain.Debt
	for _, debt := range m.Debts {
		if debt.UserID != userID {
			continue
		}
		if status != nil && debt.Status != *status {
			continue
		}
		copied := *debt
		debts = append(debts, &copied)
	}
	sort.Slice(debts, func(i, j int) bool { return debts[i].ID < debts[j].ID })
	return debts, nil
}

// UpdateMeta updates the descriptive fields of a debt
func (m *MockDebtRepository) UpdateMeta(userID uuid.UUID, id int32, name string, creditor *string, dueDate *time.Time, notes *string) (*domain.Debt, error) {
	debt, ok := m.Debts[id]
	if !ok || debt.UserID != userID {
		return nil, domain.ErrDebtNotFound
	}
	debt.Name = name
	debt.Creditor = creditor
	debt.DueDate = dueDate
	debt.Notes = notes
	debt.UpdatedAt = time.Now()
	copied := *debt
	return &copied, nil
}

// ApplyPaymentTx persists a new cumulative amount-paid and status
func (m *MockDebtRepository) ApplyPaymentTx(tx interface{}, id int32, amountPaid decimal.Decimal, status domain.DebtStatus) (*domain.Debt, error) {
	if m.ApplyPaymentFn != nil {
		return m.ApplyPaymentFn(id, amountPaid, status)
	}
	debt, ok := m.Debts[id]
	if !ok {
		return nil, domain.ErrDebtNotFound
	}
	debt.AmountPaid = amountPaid
	debt.Status = status
	debt.UpdatedAt = time.Now()
	copied := *debt
	return &copied, nil
}

// DeleteTx removes a debt
func (m *MockDebtRepository) DeleteTx(tx interface{}, userID uuid.UUID, id int32) error {
	debt, ok := m.Debts[id]
	if !ok || debt.UserID != userID {
		return domain.ErrDebtNotFound
	}
	delete(m.Debts, id)
	return nil
}

// MockLedgerRepository is a mock implementation of domain.LedgerRepository.
// Purge and detach operations match on installment-to-loan ownership,
// resolved through the linked installment mock.
type MockLedgerRepository struct {
	Entries       map[int32]*domain.LedgerEntry
	NextID        int32
	CreateFn      func(entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	CreateBatchFn func(entries []*domain.LedgerEntry) (int, error)
	// Installments resolves which loan an installment belongs to; link it
	// in tests that exercise purge or detach
	Installments *MockInstallmentRepository
}

// NewMockLedgerRepository creates a new MockLedgerRepository
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Entries: make(map[int32]*domain.LedgerEntry),
		NextID:  1,
	}
}

func (m *MockLedgerRepository) insert(entry *domain.LedgerEntry) *domain.LedgerEntry {
	saved := *entry
	saved.ID = m.NextID
	m.NextID++
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	m.Entries[saved.ID] = &saved
	copied := saved
	return &copied
}

// Create creates a manual ledger entry
func (m *MockLedgerRepository) Create(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	return m.insert(entry), nil
}

// CreateTx creates a ledger entry within a transaction
func (m *MockLedgerRepository) CreateTx(tx interface{}, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	return m.insert(entry), nil
}

// CreateBatchTx inserts mirror entries
func (m *MockLedgerRepository) CreateBatchTx(tx interface{}, entries []*domain.LedgerEntry) (int, error) {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(entries)
	}
	for _, entry := range entries {
		m.insert(entry)
	}
	return len(entries), nil
}

// GetByID retrieves a ledger entry owned by the user
func (m *MockLedgerRepository) GetByID(userID uuid.UUID, id int32) (*domain.LedgerEntry, error) {
	entry, ok := m.Entries[id]
	if !ok || entry.UserID != userID {
		return nil, domain.ErrLedgerEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

// GetByMonth retrieves the user's entries for a YYYY-MM bucket
func (m *MockLedgerRepository) GetByMonth(userID uuid.UUID, monthYear string, status *domain.LedgerStatus) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for _, entry := range m.Entries {
		if entry.UserID != userID || entry.MonthYear != monthYear {
			continue
		}
		if status != nil && entry.Status != *status {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Update rewrites the editable fields of an entry
func (m *MockLedgerRepository) Update(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	existing, ok := m.Entries[entry.ID]
	if !ok || existing.UserID != entry.UserID {
		return nil, domain.ErrLedgerEntryNotFound
	}
	saved := *entry
	saved.CreatedAt = existing.CreatedAt
	saved.UpdatedAt = time.Now()
	m.Entries[saved.ID] = &saved
	copied := saved
	return &copied, nil
}

// Delete removes a ledger entry
func (m *MockLedgerRepository) Delete(userID uuid.UUID, id int32) error {
	entry, ok := m.Entries[id]
	if !ok || entry.UserID != userID {
		return domain.ErrLedgerEntryNotFound
	}
	delete(m.Entries, id)
	return nil
}

// MarkPaidByInstallmentTx marks the mirror of an installment paid
func (m *MockLedgerRepository) MarkPaidByInstallmentTx(tx interface{}, installmentID int32, paidOn time.Time) (int64, error) {
	var updated int64
	for _, entry := range m.Entries {
		if entry.InstallmentID == nil || *entry.InstallmentID != installmentID {
			continue
		}
		if entry.Status == domain.LedgerStatusPaid {
			continue
		}
		entry.Status = domain.LedgerStatusPaid
		entry.PaidOn = &paidOn
		entry.UpdatedAt = time.Now()
		updated++
	}
	return updated, nil
}

// DeletePendingByLoanTx purges a loan's pending mirrors, matching on the
// installment IDs supplied through the installment repository
func (m *MockLedgerRepository) DeletePendingByLoanTx(tx interface{}, loanID int32) (int64, error) {
	var deleted int64
	for id, entry := range m.Entries {
		if entry.InstallmentID == nil || entry.Status != domain.LedgerStatusPending {
			continue
		}
		if m.installmentBelongsToLoan(*entry.InstallmentID, loanID) {
			delete(m.Entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// DetachByLoanTx clears installment back-references for a loan's mirrors
func (m *MockLedgerRepository) DetachByLoanTx(tx interface{}, loanID int32) (int64, error) {
	var detached int64
	for _, entry := range m.Entries {
		if entry.InstallmentID == nil {
			continue
		}
		if m.installmentBelongsToLoan(*entry.InstallmentID, loanID) {
			entry.InstallmentID = nil
			entry.UpdatedAt = time.Now()
			detached++
		}
	}
	return detached, nil
}

// DetachByDebtTx clears debt back-references on payment mirrors
func (m *MockLedgerRepository) DetachByDebtTx(tx interface{}, debtID int32) (int64, error) {
	var detached int64
	for _, entry := range m.Entries {
		if entry.DebtID == nil || *entry.DebtID != debtID {
			continue
		}
		entry.DebtID = nil
		entry.UpdatedAt = time.Now()
		detached++
	}
	return detached, nil
}

// SummaryByMonth aggregates a month bucket
func (m *MockLedgerRepository) SummaryByMonth(userID uuid.UUID, monthYear string) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{
		TotalAmount:   decimal.Zero,
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
	}
	for _, entry := range m.Entries {
		if entry.UserID != userID || entry.MonthYear != monthYear {
			continue
		}
		summary.TotalCount++
		summary.TotalAmount = summary.TotalAmount.Add(entry.Amount)
		if entry.Status == domain.LedgerStatusPaid {
			summary.PaidAmount = summary.PaidAmount.Add(entry.Amount)
		} else {
			summary.PendingAmount = summary.PendingAmount.Add(entry.Amount)
		}
	}
	return summary, nil
}

func (m *MockLedgerRepository) installmentBelongsToLoan(installmentID, loanID int32) bool {
	if m.Installments == nil {
		return false
	}
	inst, ok := m.Installments.Installments[installmentID]
	return ok && inst.LoanID == loanID
}

// MockAPITokenRepository is a mock implementation of domain.APITokenRepository
type MockAPITokenRepository struct {
	ByHash          map[string]*domain.APIToken
	LastUsedUpdates []uuid.UUID
	UpdateFn        func(ctx context.Context, id uuid.UUID) error
}

// NewMockAPITokenRepository creates a new MockAPITokenRepository
func NewMockAPITokenRepository() *MockAPITokenRepository {
	return &MockAPITokenRepository{
		ByHash: make(map[string]*domain.APIToken),
	}
}

// GetByHash retrieves a token by its hash
func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	token, ok := m.ByHash[hash]
	if !ok {
		return nil, domain.ErrAPITokenNotFound
	}
	if token.RevokedAt != nil {
		return nil, domain.ErrAPITokenNotFound
	}
	copied := *token
	return &copied, nil
}

// UpdateLastUsed records the update call
func (m *MockAPITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id)
	}
	m.LastUsedUpdates = append(m.LastUsedUpdates, id)
	return nil
}
