package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Variant selects the column labels used for the two amount fields.
type Variant string

// Supported ledger variants.
const (
	VariantStatement Variant = "statement" // Deposit / Withdrawal
	VariantBudget    Variant = "budget"    // Income / Expenditure
)

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantStatement:
		return VariantStatement, nil
	case VariantBudget:
		return VariantBudget, nil
	default:
		return "", fmt.Errorf("unknown ledger variant %q", s)
	}
}

// Labels returns the inflow and outflow column names.
func (v Variant) Labels() (inflow, outflow string) {
	if v == VariantBudget {
		return "Income", "Expenditure"
	}
	return "Deposit", "Withdrawal"
}

// TransactionRow is one ledger line.
type TransactionRow struct {
	Date              time.Time
	Inflow            decimal.NullDecimal
	Outflow           decimal.NullDecimal
	RawDate           string
	TransactionDetail string
	Filename          string
	// Skip marks transfers, card payments and balance lines. It is never written.
	Skip bool
}

// FormatAmount renders a nullable amount, blank when absent.
func FormatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
