package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/Veraticus/the-paper-trail/internal/reassemble"
	"github.com/gocarina/gocsv"
)

// ConsolidatedFile is the name of the merged ledger table.
const ConsolidatedFile = "consolidated.csv"

type statementRecord struct {
	Date              string `csv:"Date"`
	TransactionDetail string `csv:"TransactionDetail"`
	Deposit           string `csv:"Deposit"`
	Withdrawal        string `csv:"Withdrawal"`
	Filename          string `csv:"Filename"`
}

type budgetRecord struct {
	Date              string `csv:"Date"`
	TransactionDetail string `csv:"TransactionDetail"`
	Income            string `csv:"Income"`
	Expenditure       string `csv:"Expenditure"`
	Filename          string `csv:"Filename"`
}

// WriteCSV writes rows as a delimited table with a Filename column.
func WriteCSV(w io.Writer, rows []model.TransactionRow, variant model.Variant) error {
	if variant == model.VariantBudget {
		records := make([]budgetRecord, 0, len(rows))
		for _, r := range rows {
			records = append(records, budgetRecord{
				Date:              formatDate(r),
				TransactionDetail: r.TransactionDetail,
				Income:            model.FormatAmount(r.Inflow),
				Expenditure:       model.FormatAmount(r.Outflow),
				Filename:          r.Filename,
			})
		}
		return gocsv.Marshal(records, w)
	}

	records := make([]statementRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, statementRecord{
			Date:              formatDate(r),
			TransactionDetail: r.TransactionDetail,
			Deposit:           model.FormatAmount(r.Inflow),
			Withdrawal:        model.FormatAmount(r.Outflow),
			Filename:          r.Filename,
		})
	}
	return gocsv.Marshal(records, w)
}

// WriteFiles writes the consolidated table and one table per document into
// dir, returning the paths written.
func WriteFiles(dir string, l Ledger, variant model.Variant) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	var written []string
	write := func(name string, rows []model.TransactionRow) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		defer func() { _ = f.Close() }()

		if err := WriteCSV(f, rows, variant); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if err := write(ConsolidatedFile, l.Rows); err != nil {
		return written, err
	}

	used := map[string]bool{ConsolidatedFile: true}
	for _, d := range l.Documents {
		name := reassemble.SanitizeName(d.Filename) + ".csv"
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d.csv", reassemble.SanitizeName(d.Filename), n)
		}
		used[name] = true

		if err := write(name, d.Rows); err != nil {
			return written, err
		}
	}

	return written, nil
}

func formatDate(r model.TransactionRow) string {
	if r.Date.IsZero() {
		return r.RawDate
	}
	return r.Date.Format("2006-01-02")
}
