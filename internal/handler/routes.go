package handler

import (
	"github.com/knostfin/knost-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.APITokenAuthMiddleware, rateLimiter *middleware.RateLimiter, loanHandler *LoanHandler, debtHandler *DebtHandler, ledgerHandler *LedgerHandler, wsHandler *WebSocketHandler) {
	// WebSocket endpoint authenticates via query token during the upgrade
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1 (protected)
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.PATCH("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.POST("/:id/close", loanHandler.CloseLoan)
	loans.POST("/:id/foreclose", loanHandler.ForecloseLoan)
	loans.POST("/:id/installments/:installmentId/pay", loanHandler.MarkInstallmentPaid)

	// Monthly EMI due view
	api.GET("/emis", loanHandler.MonthlyEMIDue)

	// Debt routes
	debts := api.Group("/debts")
	debts.POST("", debtHandler.CreateDebt)
	debts.GET("", debtHandler.GetDebts)
	debts.GET("/:id", debtHandler.GetDebt)
	debts.PATCH("/:id", debtHandler.UpdateDebt)
	debts.DELETE("/:id", debtHandler.DeleteDebt)
	debts.POST("/:id/payments", debtHandler.RecordPayment)

	// Ledger routes
	ledger := api.Group("/ledger")
	ledger.POST("", ledgerHandler.CreateEntry)
	ledger.GET("", ledgerHandler.GetMonth)
	ledger.PATCH("/:id", ledgerHandler.UpdateEntry)
	ledger.DELETE("/:id", ledgerHandler.DeleteEntry)
}
