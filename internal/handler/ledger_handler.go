package handler

import (
	"net/http"
	"time"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/middleware"
	"github.com/knostfin/knost-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles ledger-related HTTP requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// LedgerEntryRequest represents the create/update ledger entry request body
type LedgerEntryRequest struct {
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	DueDate     string  `json:"dueDate"`
	Paid        bool    `json:"paid"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID            int32   `json:"id"`
	Category      string  `json:"category"`
	Description   *string `json:"description,omitempty"`
	Amount        string  `json:"amount"`
	DueDate       string  `json:"dueDate"`
	MonthYear     string  `json:"monthYear"`
	Status        string  `json:"status"`
	PaidOn        *string `json:"paidOn,omitempty"`
	InstallmentID *int32  `json:"installmentId,omitempty"`
	DebtID        *int32  `json:"debtId,omitempty"`
	Mirrored      bool    `json:"mirrored"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// LedgerMonthResponse is one month bucket with its summary
type LedgerMonthResponse struct {
	Month   string                `json:"month"`
	Entries []LedgerEntryResponse `json:"entries"`
	Summary LedgerSummaryResponse `json:"summary"`
}

// LedgerSummaryResponse aggregates a month bucket
type LedgerSummaryResponse struct {
	TotalCount    int32  `json:"totalCount"`
	TotalAmount   string `json:"totalAmount"`
	PaidAmount    string `json:"paidAmount"`
	PendingAmount string `json:"pendingAmount"`
}

func (r LedgerEntryRequest) toInput(c echo.Context) (service.CreateEntryInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return service.CreateEntryInput{}, NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var dueDate time.Time
	if r.DueDate != "" {
		dueDate, err = time.Parse("2006-01-02", r.DueDate)
		if err != nil {
			return service.CreateEntryInput{}, NewValidationError(c, "Invalid due date", []ValidationError{
				{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
	}

	return service.CreateEntryInput{
		Category:    r.Category,
		Description: r.Description,
		Amount:      amount,
		DueDate:     dueDate,
		Paid:        r.Paid,
	}, nil
}

// CreateEntry handles POST /api/v1/ledger
func (h *LedgerHandler) CreateEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req LedgerEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, respErr := req.toInput(c)
	if respErr != nil {
		return respErr
	}

	entry, err := h.ledgerService.CreateEntry(userID, input)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create ledger entry")
		return domainError(c, err, "Failed to create ledger entry")
	}
	return c.JSON(http.StatusCreated, toLedgerEntryResponse(entry))
}

// GetMonth handles GET /api/v1/ledger
func (h *LedgerHandler) GetMonth(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var status *domain.LedgerStatus
	switch param := c.QueryParam("status"); param {
	case "", "all":
	case "pending", "paid":
		s := domain.LedgerStatus(param)
		status = &s
	default:
		return NewValidationError(c, "Invalid status filter", []ValidationError{
			{Field: "status", Message: "Must be one of: all, pending, paid"},
		})
	}

	month := c.QueryParam("month")
	entries, summary, err := h.ledgerService.GetEntriesByMonth(userID, month, status)
	if err != nil {
		return domainError(c, err, "Failed to list ledger entries")
	}

	response := LedgerMonthResponse{
		Month:   month,
		Entries: make([]LedgerEntryResponse, len(entries)),
		Summary: LedgerSummaryResponse{
			TotalCount:    summary.TotalCount,
			TotalAmount:   summary.TotalAmount.StringFixed(2),
			PaidAmount:    summary.PaidAmount.StringFixed(2),
			PendingAmount: summary.PendingAmount.StringFixed(2),
		},
	}
	if response.Month == "" && len(entries) > 0 {
		response.Month = entries[0].MonthYear
	}
	for i, entry := range entries {
		response.Entries[i] = toLedgerEntryResponse(entry)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateEntry handles PATCH /api/v1/ledger/:id
func (h *LedgerHandler) UpdateEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)

	entryID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	var req LedgerEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, respErr := req.toInput(c)
	if respErr != nil {
		return respErr
	}

	entry, err := h.ledgerService.UpdateEntry(userID, entryID, service.UpdateEntryInput{
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
		Paid:        input.Paid,
	})
	if err != nil {
		return domainError(c, err, "Failed to update ledger entry")
	}
	return c.JSON(http.StatusOK, toLedgerEntryResponse(entry))
}

// DeleteEntry handles DELETE /api/v1/ledger/:id
func (h *LedgerHandler) DeleteEntry(c echo.Context) error {
	userID := middleware.GetUserID(c)

	entryID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	if err := h.ledgerService.DeleteEntry(userID, entryID); err != nil {
		return domainError(c, err, "Failed to delete ledger entry")
	}
	return c.NoContent(http.StatusNoContent)
}

func toLedgerEntryResponse(entry *domain.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:            entry.ID,
		Category:      entry.Category,
		Description:   entry.Description,
		Amount:        entry.Amount.StringFixed(2),
		DueDate:       entry.DueDate.Format("2006-01-02"),
		MonthYear:     entry.MonthYear,
		Status:        string(entry.Status),
		InstallmentID: entry.InstallmentID,
		DebtID:        entry.DebtID,
		Mirrored:      entry.IsMirrored(),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.PaidOn != nil {
		paidOn := entry.PaidOn.Format("2006-01-02")
		resp.PaidOn = &paidOn
	}
	return resp
}
