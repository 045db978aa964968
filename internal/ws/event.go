package ws

import (
	"encoding/json"
	"time"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Event is a message pushed to a user's connected clients when the ledger
// engine mutates state
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func newEvent(eventType string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event for the wire
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated signals a new loan with its schedule in place
func LoanCreated(loan *domain.Loan) Event {
	return newEvent("loan.created", loan)
}

// LoanSettled signals a loan closed or foreclosed
func LoanSettled(loan *domain.Loan, pendingLedgerDeleted int64) Event {
	return newEvent("loan.settled", map[string]interface{}{
		"loan":                 loan,
		"pendingLedgerDeleted": pendingLedgerDeleted,
	})
}

// LoanDeleted signals a loan removed along with its pending ledger mirrors
func LoanDeleted(loanID int32, pendingLedgerDeleted int64) Event {
	return newEvent("loan.deleted", map[string]interface{}{
		"loanId":               loanID,
		"pendingLedgerDeleted": pendingLedgerDeleted,
	})
}

// InstallmentPaid signals an installment transitioned to paid
func InstallmentPaid(installment *domain.Installment) Event {
	return newEvent("installment.paid", installment)
}

// DebtPaymentRecorded signals a payment increment applied to a debt
func DebtPaymentRecorded(debt *domain.Debt, applied decimal.Decimal) Event {
	return newEvent("debt.payment_recorded", map[string]interface{}{
		"debt":          debt,
		"appliedAmount": applied.StringFixed(2),
	})
}
