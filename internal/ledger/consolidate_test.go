package ledger

import (
	"testing"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestConsolidate(t *testing.T) {
	docs := []DocumentLedger{
		{Filename: "a.pdf", Rows: []model.TransactionRow{
			{Date: day(3), TransactionDetail: "a1", Filename: "a.pdf"},
			{Date: day(1), TransactionDetail: "a2", Filename: "a.pdf"},
			{Date: day(2), TransactionDetail: "skipped", Filename: "a.pdf", Skip: true},
		}},
		{Filename: "b.pdf", Rows: []model.TransactionRow{
			{Date: day(3), TransactionDetail: "b1", Filename: "b.pdf"},
			{Date: day(2), TransactionDetail: "b2", Filename: "b.pdf"},
		}},
	}

	l := Consolidate(docs)
	require.Len(t, l.Rows, 4)

	var details []string
	for i, r := range l.Rows {
		details = append(details, r.TransactionDetail)
		if i > 0 {
			assert.False(t, r.Date.Before(l.Rows[i-1].Date))
		}
	}
	assert.Equal(t, []string{"a2", "b2", "a1", "b1"}, details)
	assert.Len(t, l.Documents, 2)
}

func TestConsolidateEmpty(t *testing.T) {
	l := Consolidate(nil)
	assert.Empty(t, l.Rows)
}
