package reassemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"identity_doc.pdf", "identity_doc"},
		{"Bank Statement - March 2024.pdf", "bank_statement_march_2024"},
		{"Relevé bancaire Société Générale", "releve_bancaire_societe_generale"},
		{"../../etc/passwd", "etc_passwd"},
		{"   ", "document"},
		{"***.pdf", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestSanitizeNameTruncates(t *testing.T) {
	got := SanitizeName(strings.Repeat("a", 150) + ".pdf")
	assert.Len(t, got, maxNameLength)
}

func TestNameAllocator(t *testing.T) {
	a := newNameAllocator()
	assert.Equal(t, "payslip", a.allocate("payslip.pdf"))
	assert.Equal(t, "payslip_2", a.allocate("Payslip"))
	assert.Equal(t, "payslip_3", a.allocate("PAYSLIP.PDF"))
	assert.Equal(t, "letter", a.allocate("letter.pdf"))
}

func TestFormatPageRanges(t *testing.T) {
	assert.Equal(t, "1-3,7,9-10", formatPageRanges([]int{1, 2, 3, 7, 9, 10}))
	assert.Equal(t, "4", formatPageRanges([]int{4}))
	assert.Equal(t, "", formatPageRanges(nil))
}
