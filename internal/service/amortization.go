package service

import (
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	decimalOne        = decimal.NewFromInt(1)
	monthsPerYearx100 = decimal.NewFromInt(1200)
)

// MonthlyRate converts an annual percentage rate to a monthly fraction
// (annualRate / 12 / 100)
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(monthsPerYearx100)
}

// ComputeEMI calculates the fixed monthly payment for a reducing-balance
// loan, rounded to currency precision. A zero rate degenerates to simple
// division of the principal across the tenure.
func ComputeEMI(principal, annualRate decimal.Decimal, tenureMonths int32) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrLoanPrincipalInvalid
	}
	if tenureMonths < 1 {
		return decimal.Zero, domain.ErrLoanTenureInvalid
	}
	if annualRate.IsNegative() {
		return decimal.Zero, domain.ErrLoanRateInvalid
	}

	months := decimal.NewFromInt(int64(tenureMonths))
	if annualRate.IsZero() {
		return principal.Div(months).Round(2), nil
	}

	// EMI = P * r * (1+r)^n / ((1+r)^n - 1)
	rate := MonthlyRate(annualRate)
	growth := decimalOne.Add(rate).Pow(months)
	denominator := growth.Sub(decimalOne)
	if denominator.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrLoanRateInvalid
	}

	emi := principal.Mul(rate).Mul(growth).Div(denominator).Round(2)
	if emi.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrLoanPrincipalInvalid
	}
	return emi, nil
}

// SplitPeriod breaks one EMI into interest and principal against the running
// balance. The clamp to zero absorbs terminal rounding drift so a schedule
// never reports a negative balance.
func SplitPeriod(outstanding, monthlyRate, emiAmount decimal.Decimal) (interest, principal, newBalance decimal.Decimal) {
	interest = outstanding.Mul(monthlyRate)
	principal = emiAmount.Sub(interest)
	newBalance = outstanding.Sub(principal)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}
	return interest, principal, newBalance
}
