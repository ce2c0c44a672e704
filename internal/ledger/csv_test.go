package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got := Normalize(`2024-01-05, "Transfer to savings", 100.00, , true`)
	assert.Equal(t, `2024-01-05,"Transfer to savings",100.00,,true`, got)
}

func TestNormalizeKeepsLines(t *testing.T) {
	got := Normalize("a, b\n\"c\", d")
	assert.Equal(t, "a,b\n\"c\",d", got)
}

func TestParseRowsDropsSkipRows(t *testing.T) {
	payload := "Date,TransactionDetail,Deposit,Withdrawal,Skip\n" +
		`2024-01-05, "Transfer to savings", 100.00, , true` + "\n" +
		`2024-01-06, "Grocery Store", , 54.30, false` + "\n"

	rows, err := ParseRows(payload, "statement_jan.pdf", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), row.Date)
	assert.Equal(t, "Grocery Store", row.TransactionDetail)
	assert.False(t, row.Inflow.Valid)
	require.True(t, row.Outflow.Valid)
	assert.Equal(t, "54.30", row.Outflow.Decimal.StringFixed(2))
	assert.Equal(t, "statement_jan.pdf", row.Filename)
}

func TestParseRowsWithoutHeader(t *testing.T) {
	payload := "2024-02-01,\"Salary\",1500.00,,false\n\n2024-02-02,\"Coffee, large\",,3.10,false"

	rows, err := ParseRows(payload, "a.pdf", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1500.00", rows[0].Inflow.Decimal.StringFixed(2))
	assert.Equal(t, "Coffee, large", rows[1].TransactionDetail)
}

func TestParseRowsDropsUnreadableRows(t *testing.T) {
	payload := "not a date,\"Mystery\",1.00,,false\n" +
		"2024-03-01,\"Bad amount\",abc,,false\n" +
		"2024-03-02,\"Fine\",,2.00,false\n"

	rows, err := ParseRows(payload, "a.pdf", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fine", rows[0].TransactionDetail)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024/01/05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5 Jan 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"", "", false},
		{"  ", "", false},
		{"£1,234.50", "1234.50", true},
		{"$ 12", "12.00", true},
		{"(7.25)", "-7.25", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Decimal.StringFixed(2))
			}
		})
	}
}
