// Package ofx turns OFX/QFX statement exports into ledger rows without a
// model call.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// an SGML opening tag alone on its line with no closing bracket
	unclosedTag = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser reads OFX/QFX bank and credit card statements.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "ofx")}
}

// preprocess fixes formatting issues that ofxgo rejects.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTag.ReplaceAllString(content, "$1>")
}

// ParseFile parses an export into rows tagged with filename. Credits become
// inflows and debits become outflows.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader, filename string) ([]model.TransactionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var rows []model.TransactionRow
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		rows = p.appendTransactions(rows, stmt.BankTranList.Transactions, filename)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		rows = p.appendTransactions(rows, stmt.BankTranList.Transactions, filename)
	}

	p.logger.Info("parsed OFX file",
		"filename", filename,
		"rows", len(rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return rows, nil
}

func (p *Parser) appendTransactions(rows []model.TransactionRow, txns []ofxgo.Transaction, filename string) []model.TransactionRow {
	for _, tx := range txns {
		row, err := convert(tx, filename)
		if err != nil {
			p.logger.Warn("dropping unreadable OFX transaction", "fitid", string(tx.FiTID), "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func convert(tx ofxgo.Transaction, filename string) (model.TransactionRow, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("invalid amount: %w", err)
	}

	posted := tx.DtPosted.Time
	date := time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC)

	row := model.TransactionRow{
		Date:              date,
		RawDate:           date.Format("2006-01-02"),
		TransactionDetail: description(tx),
		Filename:          filename,
	}
	if amount.IsNegative() {
		row.Outflow = decimal.NewNullDecimal(amount.Neg())
	} else {
		row.Inflow = decimal.NewNullDecimal(amount)
	}
	return row, nil
}

// description prefers the payee, then NAME, falling back to MEMO when NAME is
// only a transaction type.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
