package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

func TestPrepareLedgerValues(t *testing.T) {
	rows := []model.TransactionRow{
		{
			Date:              time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
			TransactionDetail: "Grocery Store",
			Outflow:           decimal.NewNullDecimal(decimal.RequireFromString("54.30")),
			Filename:          "statement_jan.pdf",
		},
		{
			RawDate:           "sometime",
			TransactionDetail: "Refund",
			Inflow:            decimal.NewNullDecimal(decimal.RequireFromString("12.5")),
			Filename:          "card.pdf",
		},
	}

	values := prepareLedgerValues(rows, model.VariantBudget)
	require.Len(t, values, 3)
	assert.Equal(t, []any{"Date", "TransactionDetail", "Income", "Expenditure", "Filename"}, values[0])
	assert.Equal(t, []any{"2024-01-06", "Grocery Store", "", 54.3, "statement_jan.pdf"}, values[1])
	assert.Equal(t, []any{"sometime", "Refund", 12.5, "", "card.pdf"}, values[2])
}

func TestPrepareLedgerValuesEmpty(t *testing.T) {
	values := prepareLedgerValues(nil, model.VariantStatement)
	require.Len(t, values, 1)
	assert.Equal(t, "Deposit", values[0][2])
}

func TestFindSheet(t *testing.T) {
	tabs := []*sheets.Sheet{
		{Properties: &sheets.SheetProperties{Title: "Summary", SheetId: 0}},
		{Properties: &sheets.SheetProperties{Title: "Ledger", SheetId: 42}},
	}

	id, ok := findSheet(tabs, "Ledger")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = findSheet(tabs, "Missing")
	assert.False(t, ok)
}

func TestFormattingRequestsTargetSheet(t *testing.T) {
	requests := formattingRequests(7, 10)
	require.Len(t, requests, 4)
	assert.Equal(t, int64(7), requests[0].RepeatCell.Range.SheetId)
	assert.Equal(t, int64(10), requests[1].RepeatCell.Range.EndRowIndex)
	assert.Equal(t, int64(1), requests[3].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)
}

func TestClassifyAPIError(t *testing.T) {
	apiErr := func(code int) error {
		return fmt.Errorf("update values: %w", &googleapi.Error{Code: code, Message: http.StatusText(code)})
	}

	tests := []struct {
		name      string
		err       error
		retryable bool
		rateLimit bool
	}{
		{"forbidden", apiErr(http.StatusForbidden), false, false},
		{"not found", apiErr(http.StatusNotFound), false, false},
		{"throttled", apiErr(http.StatusTooManyRequests), true, true},
		{"server error", apiErr(http.StatusServiceUnavailable), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAPIError(tt.err)
			var classified *common.RetryableError
			require.ErrorAs(t, err, &classified)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
			assert.Equal(t, tt.rateLimit, errors.Is(err, common.ErrRateLimit))
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		assert.NoError(t, classifyAPIError(nil))
		plain := errors.New("dial tcp: timeout")
		assert.Same(t, plain, classifyAPIError(plain))
	})
}

func TestClassifiedClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := common.WithRetry(t.Context(), func() error {
		calls++
		return classifyAPIError(&googleapi.Error{Code: http.StatusForbidden})
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
