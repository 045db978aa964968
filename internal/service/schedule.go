package service

import (
	"time"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/util"
	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the full ordered installment list for a loan.
// Due dates advance one calendar month per period from the start date,
// clamped at month ends. Installments due strictly before today are
// backfilled as already paid (paid on their due date), so retroactively
// registered loans carry their real payment history from the first insert.
func GenerateSchedule(loan *domain.Loan, today time.Time) []*domain.Installment {
	rate := MonthlyRate(loan.AnnualRate)
	balance := loan.Principal
	cutoff := util.TruncateToDay(today)

	installments := make([]*domain.Installment, 0, loan.TenureMonths)
	for i := int32(1); i <= loan.TenureMonths; i++ {
		dueDate := util.AddMonths(loan.StartDate, int(i))
		interest, principal, newBalance := SplitPeriod(balance, rate, loan.EMIAmount)

		// The 2-decimal EMI leaves a few cents of drift over the tenure;
		// the last installment pays off whatever balance remains so the
		// schedule terminates at exactly zero.
		if i == loan.TenureMonths {
			principal = balance
			newBalance = decimal.Zero
		}

		inst := &domain.Installment{
			LoanID:             loan.ID,
			UserID:             loan.UserID,
			Number:             i,
			DueDate:            dueDate,
			EMIAmount:          loan.EMIAmount,
			PrincipalPaid:      principal.Round(2),
			InterestPaid:       interest.Round(2),
			OutstandingBalance: newBalance.Round(2),
			Status:             domain.InstallmentStatusPending,
		}
		if dueDate.Before(cutoff) {
			paidOn := dueDate
			inst.Status = domain.InstallmentStatusPaid
			inst.PaidOn = &paidOn
		}

		installments = append(installments, inst)
		balance = newBalance
	}
	return installments
}
