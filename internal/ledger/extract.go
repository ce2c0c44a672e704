// Package ledger extracts transactions from statement documents with a
// language model and consolidates them into one chronologically ordered ledger.
package ledger

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/Veraticus/the-paper-trail/internal/llm"
	"github.com/Veraticus/the-paper-trail/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var promptTemplate = template.Must(template.ParseFS(templateFS, "templates/extract.tmpl"))

var extractionSchema = llm.MustCompileSchema("extraction", `{
  "type": "object",
  "required": ["category", "csv"],
  "properties": {
    "category": {"type": "string", "minLength": 1},
    "csv": {"type": "string"}
  }
}`)

// Document is one reassembled document's text.
type Document struct {
	Filename string
	Text     string
}

// DocumentLedger holds the surviving rows of one statement document.
type DocumentLedger struct {
	Filename string
	Category string
	Rows     []model.TransactionRow
}

// Failure records a document that could not be extracted.
type Failure struct {
	Err      error
	Filename string
}

// ExtractResult lists per-document outcomes in input order.
type ExtractResult struct {
	Documents []DocumentLedger
	Skipped   []string // not a statement
	Failed    []Failure
}

type extraction struct {
	Category string `json:"category"`
	CSV      string `json:"csv"`
}

// Extractor asks the model for each document's category and transactions.
type Extractor struct {
	client     llm.Client
	logger     *slog.Logger
	onDocument func(done, total int)
	variant    model.Variant
}

// NewExtractor creates an Extractor producing rows for variant.
func NewExtractor(client llm.Client, variant model.Variant, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:  client,
		variant: variant,
		logger:  logger.With("component", "ledger"),
	}
}

// OnDocument registers a progress callback fired after each document.
func (e *Extractor) OnDocument(fn func(done, total int)) {
	e.onDocument = fn
}

// Extract processes documents one at a time. A document that fails is logged
// and recorded; the others still run. Only context cancellation stops early.
func (e *Extractor) Extract(ctx context.Context, docs []Document) (ExtractResult, error) {
	var result ExtractResult

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logger := e.logger.With("filename", doc.Filename)
		dl, isStatement, err := e.extractOne(ctx, doc)
		switch {
		case err != nil:
			logger.Error("extraction failed", "error", err)
			result.Failed = append(result.Failed, Failure{Filename: doc.Filename, Err: err})
		case !isStatement:
			logger.Info("not a statement, skipping", "category", dl.Category)
			result.Skipped = append(result.Skipped, doc.Filename)
		default:
			logger.Info("extracted transactions", "category", dl.Category, "rows", len(dl.Rows))
			result.Documents = append(result.Documents, dl)
		}

		if e.onDocument != nil {
			e.onDocument(i+1, len(docs))
		}
	}

	return result, nil
}

func (e *Extractor) extractOne(ctx context.Context, doc Document) (DocumentLedger, bool, error) {
	prompt, err := e.buildPrompt(doc)
	if err != nil {
		return DocumentLedger{}, false, err
	}

	content, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return DocumentLedger{}, false, err
	}

	var out extraction
	if err := llm.DecodeJSON(content, extractionSchema, &out); err != nil {
		return DocumentLedger{}, false, err
	}

	dl := DocumentLedger{Filename: doc.Filename, Category: out.Category}
	if !model.IsStatementCategory(out.Category) {
		return dl, false, nil
	}

	rows, err := ParseRows(out.CSV, doc.Filename, e.logger)
	if err != nil {
		return dl, true, err
	}
	dl.Rows = rows
	return dl, true, nil
}

func (e *Extractor) buildPrompt(doc Document) (string, error) {
	inflow, outflow := e.variant.Labels()
	data := struct {
		Filename   string
		Text       string
		Inflow     string
		Outflow    string
		Categories []string
	}{
		Filename:   doc.Filename,
		Text:       doc.Text,
		Inflow:     inflow,
		Outflow:    outflow,
		Categories: model.Categories(),
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
