package ledger

import (
	"fmt"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet    = "Ledger"
	documentsSheet = "Documents"
)

// WriteWorkbook saves the ledger as an xlsx file with a transactions sheet and
// a per-document totals sheet.
func WriteWorkbook(path string, l Ledger, variant model.Variant) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(documentsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	inflow, outflow := variant.Labels()

	if err := setRow(f, ledgerSheet, 1, "Date", "TransactionDetail", inflow, outflow, "Filename"); err != nil {
		return err
	}
	for i, r := range l.Rows {
		if err := setRow(f, ledgerSheet, i+2, formatDate(r), r.TransactionDetail, cellAmount(r.Inflow), cellAmount(r.Outflow), r.Filename); err != nil {
			return err
		}
	}

	if err := setRow(f, documentsSheet, 1, "Filename", "Category", "Rows", "Total "+inflow, "Total "+outflow); err != nil {
		return err
	}
	for i, d := range l.Documents {
		in, out := totals(d.Rows)
		if err := setRow(f, documentsSheet, i+2, d.Filename, d.Category, len(d.Rows), in.InexactFloat64(), out.InexactFloat64()); err != nil {
			return err
		}
	}

	widths := []struct {
		sheet, from, to string
		width           float64
	}{
		{ledgerSheet, "A", "A", 12},
		{ledgerSheet, "B", "B", 48},
		{ledgerSheet, "C", "D", 14},
		{ledgerSheet, "E", "E", 32},
		{documentsSheet, "A", "B", 32},
	}
	for _, w := range widths {
		if err := f.SetColWidth(w.sheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("failed to size %s columns: %w", w.sheet, err)
		}
	}

	index, _ := f.GetSheetIndex(ledgerSheet)
	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// setRow writes values across one row starting at column A.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to address %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func cellAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}

func totals(rows []model.TransactionRow) (in, out decimal.Decimal) {
	for _, r := range rows {
		if r.Inflow.Valid {
			in = in.Add(r.Inflow.Decimal)
		}
		if r.Outflow.Valid {
			out = out.Add(r.Outflow.Decimal)
		}
	}
	return in, out
}
