package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/middleware"
	"github.com/knostfin/knost-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	Name         string  `json:"name"`
	Principal    string  `json:"principal"`
	AnnualRate   *string `json:"annualRate,omitempty"`
	TenureMonths int32   `json:"tenureMonths"`
	StartDate    string  `json:"startDate"`
	Notes        *string `json:"notes,omitempty"`
}

// UpdateLoanRequest represents the update loan request body.
// Only name and notes are editable; schedule fields are locked after creation
type UpdateLoanRequest struct {
	Name  string  `json:"name"`
	Notes *string `json:"notes,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID           int32   `json:"id"`
	Name         string  `json:"name"`
	Principal    string  `json:"principal"`
	AnnualRate   string  `json:"annualRate"`
	TenureMonths int32   `json:"tenureMonths"`
	EMIAmount    string  `json:"emiAmount"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Status       string  `json:"status"`
	Notes        *string `json:"notes,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// LoanSummaryResponse represents per-loan installment statistics
type LoanSummaryResponse struct {
	TotalCount   int32  `json:"totalCount"`
	PaidCount    int32  `json:"paidCount"`
	PendingCount int32  `json:"pendingCount"`
	OverdueCount int32  `json:"overdueCount"`
	TotalPaid    string `json:"totalPaid"`
}

// LoanWithSummaryResponse represents a loan with its payment summary
type LoanWithSummaryResponse struct {
	LoanResponse
	PaymentSummary LoanSummaryResponse `json:"paymentSummary"`
}

// InstallmentResponse represents one schedule row in API responses
type InstallmentResponse struct {
	ID                 int32   `json:"id"`
	LoanID             int32   `json:"loanId"`
	Number             int32   `json:"number"`
	DueDate            string  `json:"dueDate"`
	EMIAmount          string  `json:"emiAmount"`
	PrincipalPaid      string  `json:"principalPaid"`
	InterestPaid       string  `json:"interestPaid"`
	OutstandingBalance string  `json:"outstandingBalance"`
	Status             string  `json:"status"`
	PaidOn             *string `json:"paidOn,omitempty"`
}

// CreateLoanResponse is the payload returned on loan creation
type CreateLoanResponse struct {
	Loan                   LoanResponse          `json:"loan"`
	Installments           []InstallmentResponse `json:"installments"`
	LedgerEntriesCreated   int                   `json:"ledgerEntriesCreated"`
	PastPaymentsAutoMarked int32                 `json:"pastPaymentsAutoMarked"`
	FuturePaymentsPending  int32                 `json:"futurePaymentsPending"`
}

// LoanDetailResponse is a loan joined with its full schedule
type LoanDetailResponse struct {
	Loan         LoanResponse          `json:"loan"`
	Installments []InstallmentResponse `json:"installments"`
}

// SettleLoanResponse is the payload returned by close/foreclose
type SettleLoanResponse struct {
	Loan                 LoanResponse `json:"loan"`
	PendingLedgerDeleted int64        `json:"pendingLedgerDeleted"`
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	annualRate := decimal.Zero
	if req.AnnualRate != nil && *req.AnnualRate != "" {
		annualRate, err = decimal.NewFromString(*req.AnnualRate)
		if err != nil {
			return NewValidationError(c, "Invalid interest rate", []ValidationError{
				{Field: "annualRate", Message: "Must be a valid decimal number"},
			})
		}
	}

	var startDate time.Time
	if req.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return NewValidationError(c, "Invalid start date", []ValidationError{
				{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
	}

	result, err := h.loanService.CreateLoan(c.Request().Context(), userID, service.CreateLoanInput{
		Name:         req.Name,
		Principal:    principal,
		AnnualRate:   annualRate,
		TenureMonths: req.TenureMonths,
		StartDate:    startDate,
		Notes:        req.Notes,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create loan")
		return domainError(c, err, "Failed to create loan")
	}

	return c.JSON(http.StatusCreated, CreateLoanResponse{
		Loan:                   toLoanResponse(result.Loan),
		Installments:           toInstallmentResponses(result.Installments),
		LedgerEntriesCreated:   result.LedgerEntriesCreated,
		PastPaymentsAutoMarked: result.PastPaymentsAutoMarked,
		FuturePaymentsPending:  result.FuturePaymentsPending,
	})
}

// GetLoans handles GET /api/v1/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var status *domain.LoanStatus
	switch param := c.QueryParam("status"); param {
	case "", "all":
	case "active", "closed", "foreclosed":
		s := domain.LoanStatus(param)
		status = &s
	default:
		return NewValidationError(c, "Invalid status filter", []ValidationError{
			{Field: "status", Message: "Must be one of: all, active, closed, foreclosed"},
		})
	}

	loans, err := h.loanService.GetLoans(userID, status)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list loans")
		return NewInternalError(c, "Failed to list loans")
	}

	response := make([]LoanWithSummaryResponse, len(loans))
	for i, loan := range loans {
		response[i] = LoanWithSummaryResponse{
			LoanResponse: toLoanResponse(&loan.Loan),
			PaymentSummary: LoanSummaryResponse{
				TotalCount:   loan.Summary.TotalCount,
				PaidCount:    loan.Summary.PaidCount,
				PendingCount: loan.Summary.PendingCount,
				OverdueCount: loan.Summary.OverdueCount,
				TotalPaid:    loan.Summary.TotalPaid.StringFixed(2),
			},
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	userID := middleware.GetUserID(c)

	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, installments, err := h.loanService.GetLoanDetails(userID, loanID)
	if err != nil {
		return domainError(c, err, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, LoanDetailResponse{
		Loan:         toLoanResponse(loan),
		Installments: toInstallmentResponses(installments),
	})
}

// UpdateLoan handles PATCH /api/v1/loans/:id
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	userID := middleware.GetUserID(c)

	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	loan, err := h.loanService.UpdateLoanMeta(userID, loanID, req.Name, req.Notes)
	if err != nil {
		return domainError(c, err, "Failed to update loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// CloseLoan handles POST /api/v1/loans/:id/close
func (h *LoanHandler) CloseLoan(c echo.Context) error {
	return h.settleLoan(c, false)
}

// ForecloseLoan handles POST /api/v1/loans/:id/foreclose
func (h *LoanHandler) ForecloseLoan(c echo.Context) error {
	return h.settleLoan(c, true)
}

func (h *LoanHandler) settleLoan(c echo.Context, foreclose bool) error {
	userID := middleware.GetUserID(c)

	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var result *service.CloseLoanResult
	if foreclose {
		result, err = h.loanService.ForecloseLoan(c.Request().Context(), userID, loanID)
	} else {
		result, err = h.loanService.CloseLoan(c.Request().Context(), userID, loanID)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("loan_id", loanID).Msg("Failed to settle loan")
		return domainError(c, err, "Failed to settle loan")
	}

	return c.JSON(http.StatusOK, SettleLoanResponse{
		Loan:                 toLoanResponse(result.Loan),
		PendingLedgerDeleted: result.PendingLedgerDeleted,
	})
}

// DeleteLoan handles DELETE /api/v1/loans/:id
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	userID := middleware.GetUserID(c)

	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	deleted, err := h.loanService.DeleteLoan(c.Request().Context(), userID, loanID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("loan_id", loanID).Msg("Failed to delete loan")
		return domainError(c, err, "Failed to delete loan")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"pendingLedgerDeleted": deleted,
	})
}

// MarkInstallmentPaid handles POST /api/v1/loans/:id/installments/:installmentId/pay
func (h *LoanHandler) MarkInstallmentPaid(c echo.Context) error {
	userID := middleware.GetUserID(c)

	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}
	installmentID, err := parseIDParam(c, "installmentId")
	if err != nil {
		return NewValidationError(c, "Invalid installment ID", nil)
	}

	result, err := h.loanService.MarkInstallmentPaid(c.Request().Context(), userID, loanID, installmentID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("installment_id", installmentID).Msg("Failed to mark installment paid")
		return domainError(c, err, "Failed to mark installment paid")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"installment":   toInstallmentResponse(result.Installment),
		"ledgerUpdated": result.LedgerUpdated,
		"alreadyPaid":   result.AlreadyPaid,
	})
}

// MonthlyEMIDue handles GET /api/v1/emis
func (h *LoanHandler) MonthlyEMIDue(c echo.Context) error {
	userID := middleware.GetUserID(c)

	installments, summary, err := h.loanService.MonthlyEMIDue(userID, c.QueryParam("month"))
	if err != nil {
		return domainError(c, err, "Failed to list monthly EMIs")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"installments": toInstallmentResponses(installments),
		"summary": map[string]interface{}{
			"totalEmis":   summary.TotalEMIs,
			"paid":        summary.Paid,
			"pending":     summary.Pending,
			"overdue":     summary.Overdue,
			"totalAmount": summary.TotalAmount.StringFixed(2),
			"paidAmount":  summary.PaidAmount.StringFixed(2),
		},
	})
}

// Helper functions

func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id < 1 {
		return 0, strconv.ErrSyntax
	}
	return int32(id), nil
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:           loan.ID,
		Name:         loan.Name,
		Principal:    loan.Principal.StringFixed(2),
		AnnualRate:   loan.AnnualRate.String(),
		TenureMonths: loan.TenureMonths,
		EMIAmount:    loan.EMIAmount.StringFixed(2),
		StartDate:    loan.StartDate.Format("2006-01-02"),
		EndDate:      loan.EndDate.Format("2006-01-02"),
		Status:       string(loan.Status),
		Notes:        loan.Notes,
		CreatedAt:    loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    loan.UpdatedAt.Format(time.RFC3339),
	}
}

func toInstallmentResponse(inst *domain.Installment) InstallmentResponse {
	resp := InstallmentResponse{
		ID:                 inst.ID,
		LoanID:             inst.LoanID,
		Number:             inst.Number,
		DueDate:            inst.DueDate.Format("2006-01-02"),
		EMIAmount:          inst.EMIAmount.StringFixed(2),
		PrincipalPaid:      inst.PrincipalPaid.StringFixed(2),
		InterestPaid:       inst.InterestPaid.StringFixed(2),
		OutstandingBalance: inst.OutstandingBalance.StringFixed(2),
		Status:             string(inst.Status),
	}
	if inst.PaidOn != nil {
		paidOn := inst.PaidOn.Format("2006-01-02")
		resp.PaidOn = &paidOn
	}
	return resp
}

func toInstallmentResponses(installments []*domain.Installment) []InstallmentResponse {
	responses := make([]InstallmentResponse, len(installments))
	for i, inst := range installments {
		responses[i] = toInstallmentResponse(inst)
	}
	return responses
}
