package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/shopspring/decimal"
)

var (
	spaceBeforeQuote = regexp.MustCompile(`[ \t]+"`)
	spaceAfterComma  = regexp.MustCompile(`,[ \t]+`)
	amountNoise      = strings.NewReplacer("$", "", "£", "", "€", "", ",", "", " ", "")
)

// dateLayouts are tried in order when parsing a Date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// Normalize strips whitespace before a quote and after a comma so that model
// output such as `2024-01-05, "Rent", 10.00` parses as standard CSV.
func Normalize(payload string) string {
	payload = spaceBeforeQuote.ReplaceAllString(payload, `"`)
	return spaceAfterComma.ReplaceAllString(payload, ",")
}

// ParseRows parses a model CSV payload into ledger rows tagged with filename.
// Columns are positional: Date, TransactionDetail, inflow, outflow, Skip. A
// leading header row is ignored. Blank lines and rows whose Skip column is
// "true" are dropped. Rows with an unreadable date or amount are logged and
// dropped.
func ParseRows(payload, filename string, logger *slog.Logger) ([]model.TransactionRow, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := csv.NewReader(strings.NewReader(Normalize(payload)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows []model.TransactionRow
	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read CSV from %s: %w", filename, err)
		}

		if isBlank(record) {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
			continue
		}

		row, err := parseRecord(record, filename)
		if err != nil {
			logger.Warn("dropping unreadable ledger row", "filename", filename, "line", line, "error", err)
			continue
		}
		if row.Skip {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRecord(record []string, filename string) (model.TransactionRow, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	if len(record) < 2 {
		return model.TransactionRow{}, fmt.Errorf("expected at least 2 columns, got %d", len(record))
	}

	date, err := ParseDate(field(0))
	if err != nil {
		return model.TransactionRow{}, err
	}

	inflow, err := parseAmount(field(2))
	if err != nil {
		return model.TransactionRow{}, err
	}
	outflow, err := parseAmount(field(3))
	if err != nil {
		return model.TransactionRow{}, err
	}

	return model.TransactionRow{
		Date:              date,
		RawDate:           field(0),
		TransactionDetail: field(1),
		Inflow:            inflow,
		Outflow:           outflow,
		Filename:          filename,
		Skip:              field(4) == "true",
	}, nil
}

// ParseDate parses a ledger date in any of the supported layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseAmount(s string) (decimal.NullDecimal, error) {
	s = amountNoise.Replace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d), nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
