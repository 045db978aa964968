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

// DebtHandler handles debt-related HTTP requests
type DebtHandler struct {
	debtService *service.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *service.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// CreateDebtRequest represents the create debt request body
type CreateDebtRequest struct {
	Name        string  `json:"name"`
	TotalAmount string  `json:"totalAmount"`
	Creditor    *string `json:"creditor,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateDebtRequest represents the update debt request body.
// Amounts and status change only through payments
type UpdateDebtRequest struct {
	Name     string  `json:"name"`
	Creditor *string `json:"creditor,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// RecordPaymentRequest represents the record payment request body.
// A missing amount means pay the remaining balance in full
type RecordPaymentRequest struct {
	Amount *string `json:"amount,omitempty"`
}

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	ID          int32   `json:"id"`
	Name        string  `json:"name"`
	TotalAmount string  `json:"totalAmount"`
	AmountPaid  string  `json:"amountPaid"`
	Remaining   string  `json:"remaining"`
	Status      string  `json:"status"`
	Creditor    *string `json:"creditor,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// CreateDebt handles POST /api/v1/debts
func (h *DebtHandler) CreateDebt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateDebtRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	totalAmount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid total amount", []ValidationError{
			{Field: "totalAmount", Message: "Must be a valid decimal number"},
		})
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return NewValidationError(c, "Invalid due date", []ValidationError{
			{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	debt, err := h.debtService.CreateDebt(userID, service.CreateDebtInput{
		Name:        req.Name,
		TotalAmount: totalAmount,
		Creditor:    req.Creditor,
		DueDate:     dueDate,
		Notes:       req.Notes,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create debt")
		return domainError(c, err, "Failed to create debt")
	}

	return c.JSON(http.StatusCreated, toDebtResponse(debt))
}

// GetDebts handles GET /api/v1/debts
func (h *DebtHandler) GetDebts(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var status *domain.DebtStatus
	switch param := c.QueryParam("status"); param {
	case "", "all":
	case "pending", "partially_paid", "paid":
		s := domain.DebtStatus(param)
		status = &s
	default:
		return NewValidationError(c, "Invalid status filter", []ValidationError{
			{Field: "status", Message: "Must be one of: all, pending, partially_paid, paid"},
		})
	}

	debts, err := h.debtService.GetDebts(userID, status)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list debts")
		return NewInternalError(c, "Failed to list debts")
	}

	response := make([]DebtResponse, len(debts))
	for i, debt := range debts {
		response[i] = toDebtResponse(debt)
	}
	return c.JSON(http.StatusOK, response)
}

// GetDebt handles GET /api/v1/debts/:id
func (h *DebtHandler) GetDebt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	debtID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid debt ID", nil)
	}

	debt, err := h.debtService.GetDebtByID(userID, debtID)
	if err != nil {
		return domainError(c, err, "Failed to get debt")
	}
	return c.JSON(http.StatusOK, toDebtResponse(debt))
}

// UpdateDebt handles PATCH /api/v1/debts/:id
func (h *DebtHandler) UpdateDebt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	debtID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid debt ID", nil)
	}

	var req UpdateDebtRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return NewValidationError(c, "Invalid due date", []ValidationError{
			{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	debt, err := h.debtService.UpdateDebtMeta(userID, debtID, req.Name, req.Creditor, dueDate, req.Notes)
	if err != nil {
		return domainError(c, err, "Failed to update debt")
	}
	return c.JSON(http.StatusOK, toDebtResponse(debt))
}

// RecordPayment handles POST /api/v1/debts/:id/payments
func (h *DebtHandler) RecordPayment(c echo.Context) error {
	userID := middleware.GetUserID(c)

	debtID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid debt ID", nil)
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var amount *decimal.Decimal
	if req.Amount != nil && *req.Amount != "" {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid payment amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		amount = &parsed
	}

	result, err := h.debtService.ApplyPayment(c.Request().Context(), userID, debtID, amount)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("debt_id", debtID).Msg("Failed to record debt payment")
		return domainError(c, err, "Failed to record payment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"debt":               toDebtResponse(result.Debt),
		"appliedAmount":      result.AppliedAmount.StringFixed(2),
		"ledgerEntryCreated": result.LedgerEntryCreated,
	})
}

// DeleteDebt handles DELETE /api/v1/debts/:id
func (h *DebtHandler) DeleteDebt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	debtID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid debt ID", nil)
	}

	if err := h.debtService.DeleteDebt(c.Request().Context(), userID, debtID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("debt_id", debtID).Msg("Failed to delete debt")
		return domainError(c, err, "Failed to delete debt")
	}
	return c.NoContent(http.StatusNoContent)
}

// Helper functions

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func toDebtResponse(debt *domain.Debt) DebtResponse {
	resp := DebtResponse{
		ID:          debt.ID,
		Name:        debt.Name,
		TotalAmount: debt.TotalAmount.StringFixed(2),
		AmountPaid:  debt.AmountPaid.StringFixed(2),
		Remaining:   debt.Remaining().StringFixed(2),
		Status:      string(debt.Status),
		Creditor:    debt.Creditor,
		Notes:       debt.Notes,
		CreatedAt:   debt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   debt.UpdatedAt.Format(time.RFC3339),
	}
	if debt.DueDate != nil {
		dueDate := debt.DueDate.Format("2006-01-02")
		resp.DueDate = &dueDate
	}
	return resp
}
