package ledger

import (
	"sort"

	"github.com/Veraticus/the-paper-trail/internal/model"
)

// Ledger is the merged, date-ordered view of every statement document.
type Ledger struct {
	Documents []DocumentLedger
	Rows      []model.TransactionRow
}

// Consolidate merges document rows in document order and sorts them by date.
// Rows on the same date keep their original relative order.
func Consolidate(docs []DocumentLedger) Ledger {
	var rows []model.TransactionRow
	for _, d := range docs {
		for _, r := range d.Rows {
			if r.Skip {
				continue
			}
			rows = append(rows, r)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	return Ledger{Documents: docs, Rows: rows}
}
