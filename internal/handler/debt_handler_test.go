package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/service"
	"github.com/knostfin/knost-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newDebtHandlerFixture() (*DebtHandler, *service.DebtService) {
	db := testutil.NewMockTxBeginner()
	debtRepo := testutil.NewMockDebtRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	debtService := service.NewDebtService(db, debtRepo, service.NewLedgerMirror(ledgerRepo))
	return NewDebtHandler(debtService), debtService
}

func seedDebt(t *testing.T, debtService *service.DebtService, userID uuid.UUID) *domain.Debt {
	t.Helper()
	debt, err := debtService.CreateDebt(userID, service.CreateDebtInput{
		Name:        "Credit card",
		TotalAmount: decimalFromString(t, "1000"),
	})
	if err != nil {
		t.Fatalf("CreateDebt: %v", err)
	}
	return debt
}

func TestCreateDebtHandler_Success(t *testing.T) {
	e := echo.New()
	handler, _ := newDebtHandlerFixture()

	reqBody := `{
		"name": "Credit card",
		"totalAmount": "5000.00",
		"creditor": "Visa",
		"dueDate": "2025-12-31"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := handler.CreateDebt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response DebtResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "Credit card" {
		t.Errorf("Expected name 'Credit card', got %s", response.Name)
	}
	if response.Status != "pending" {
		t.Errorf("Expected pending debt, got %s", response.Status)
	}
	if response.AmountPaid != "0.00" {
		t.Errorf("Expected amount paid '0.00', got %s", response.AmountPaid)
	}
	if response.Remaining != "5000.00" {
		t.Errorf("Expected remaining '5000.00', got %s", response.Remaining)
	}
}

func TestCreateDebtHandler_InvalidAmount(t *testing.T) {
	e := echo.New()
	handler, _ := newDebtHandlerFixture()

	reqBody := `{"name": "Test", "totalAmount": "abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := handler.CreateDebt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestRecordPaymentHandler_Partial(t *testing.T) {
	e := echo.New()
	handler, debtService := newDebtHandlerFixture()
	userID := uuid.New()
	debt := seedDebt(t, debtService, userID)

	debtID := strconv.Itoa(int(debt.ID))
	reqBody := `{"amount": "300.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts/"+debtID+"/payments", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(debtID)
	setupAuthContext(c, userID)

	if err := handler.RecordPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response struct {
		Debt               DebtResponse `json:"debt"`
		AppliedAmount      string       `json:"appliedAmount"`
		LedgerEntryCreated bool         `json:"ledgerEntryCreated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.AppliedAmount != "300.00" {
		t.Errorf("Expected applied '300.00', got %s", response.AppliedAmount)
	}
	if response.Debt.Status != "partially_paid" {
		t.Errorf("Expected partially_paid, got %s", response.Debt.Status)
	}
	if response.Debt.Remaining != "700.00" {
		t.Errorf("Expected remaining '700.00', got %s", response.Debt.Remaining)
	}
	if !response.LedgerEntryCreated {
		t.Error("Expected a ledger entry")
	}
}

func TestRecordPaymentHandler_PayInFull(t *testing.T) {
	e := echo.New()
	handler, debtService := newDebtHandlerFixture()
	userID := uuid.New()
	debt := seedDebt(t, debtService, userID)

	debtID := strconv.Itoa(int(debt.ID))
	// Empty body means pay whatever remains
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts/"+debtID+"/payments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(debtID)
	setupAuthContext(c, userID)

	if err := handler.RecordPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response struct {
		Debt          DebtResponse `json:"debt"`
		AppliedAmount string       `json:"appliedAmount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.AppliedAmount != "1000.00" {
		t.Errorf("Expected applied '1000.00', got %s", response.AppliedAmount)
	}
	if response.Debt.Status != "paid" {
		t.Errorf("Expected paid, got %s", response.Debt.Status)
	}
}

func TestRecordPaymentHandler_InvalidAmount(t *testing.T) {
	e := echo.New()
	handler, debtService := newDebtHandlerFixture()
	userID := uuid.New()
	debt := seedDebt(t, debtService, userID)

	debtID := strconv.Itoa(int(debt.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts/"+debtID+"/payments", strings.NewReader(`{"amount": "-5"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(debtID)
	setupAuthContext(c, userID)

	if err := handler.RecordPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteDebtHandler(t *testing.T) {
	e := echo.New()
	handler, debtService := newDebtHandlerFixture()
	userID := uuid.New()
	debt := seedDebt(t, debtService, userID)

	debtID := strconv.Itoa(int(debt.ID))
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/debts/"+debtID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(debtID)
	setupAuthContext(c, userID)

	if err := handler.DeleteDebt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

func TestGetDebtHandler_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newDebtHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debts/42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")
	setupAuthContext(c, uuid.New())

	if err := handler.GetDebt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
