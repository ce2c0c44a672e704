package model

import "strings"

// Category taxonomy offered to the model.
const (
	CategoryBankStatement       = "Bank Statement"
	CategoryCreditCardStatement = "Credit Card Statement"
	CategoryPayslip             = "Payslip"
	CategoryBenefitLetter       = "Benefit Letter"
	CategoryUtilityBill         = "Utility Bill"
	CategoryDebtLetter          = "Debt Letter"
	CategoryTenancyAgreement    = "Tenancy Agreement"
	CategoryMedicalEvidence     = "Medical Evidence"
	CategoryIdentityDocument    = "Identity Document"
	CategoryCorrespondence      = "Correspondence"
	CategoryOther               = "Other"
)

// Categories returns the taxonomy in prompt order.
func Categories() []string {
	return []string{
		CategoryBankStatement,
		CategoryCreditCardStatement,
		CategoryPayslip,
		CategoryBenefitLetter,
		CategoryUtilityBill,
		CategoryDebtLetter,
		CategoryTenancyAgreement,
		CategoryMedicalEvidence,
		CategoryIdentityDocument,
		CategoryCorrespondence,
		CategoryOther,
	}
}

// IsStatementCategory reports whether a category names a bank or credit card
// statement. Matching is a case-insensitive substring test.
func IsStatementCategory(category string) bool {
	c := strings.ToLower(category)
	return strings.Contains(c, "bank") || strings.Contains(c, "credit card")
}
