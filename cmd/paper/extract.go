package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/cli"
	"github.com/Veraticus/the-paper-trail/internal/config"
	"github.com/Veraticus/the-paper-trail/internal/ledger"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/Veraticus/the-paper-trail/internal/ocr"
	"github.com/Veraticus/the-paper-trail/internal/ofx"
	"github.com/Veraticus/the-paper-trail/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const ledgerWorkbook = "ledger.xlsx"

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <source>",
		Short: "Build a consolidated transaction ledger from statements",
		Long: `Classify each document and pull the transactions out of every bank and
credit card statement into one ledger ordered by date.

The source is a document or a directory. Text files written by split are
read directly, PDFs without one are run through OCR first, and OFX/QFX
exports are parsed without a model call. The ledger is written to
<source directory>/ledger/.

Examples:
  paper extract ~/Evidence/bundle
  paper extract ~/Evidence/bundle --variant budget --sheets`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().String("variant", "", "column labels: statement (Deposit/Withdrawal) or budget (Income/Expenditure)")
	cmd.Flags().Bool("no-cache", false, "skip cache lookups (results are still stored)")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().Bool("sheets", false, "also upload the ledger to Google Sheets")

	_ = viper.BindPFlag("ledger.variant", cmd.Flags().Lookup("variant"))
	_ = viper.BindPFlag("sheets.enabled", cmd.Flags().Lookup("sheets"))

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	noCache, _ := cmd.Flags().GetBool("no-cache")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	variant, err := model.ParseVariant(viper.GetString("ledger.variant"))
	if err != nil {
		return err
	}

	files, ledgerDir, err := collectExtractInputs(args[0])
	if err != nil {
		return err
	}

	caller, stop := openCaller()
	defer stop()

	client, err := createLLMClient(caller, noCache)
	if err != nil {
		return err
	}

	runs := openHistory(ctx)
	defer runs.close()
	runs.start(ctx, "extract", args[0])
	defer func() { runs.finish(err) }()

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Extracting transactions from %d file(s)", len(files))))

	docs, ofxLedgers, failures := loadDocuments(ctx, files, caller, noCache)

	extractor := ledger.NewExtractor(client, variant, slog.Default())
	var progress *cli.Progress
	if !noProgress && len(docs) > 0 {
		progress = cli.NewProgress(os.Stderr, len(docs), "Extracting")
		extractor.OnDocument(progress.Update)
	}

	result, err := extractor.Extract(ctx, docs)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	merged := ledger.Consolidate(append(result.Documents, ofxLedgers...))
	if len(merged.Documents) == 0 {
		fmt.Println(cli.FormatWarning("No bank or credit card statements found"))
		return nil
	}

	written, err := ledger.WriteFiles(ledgerDir, merged, variant)
	if err != nil {
		return err
	}
	workbook := filepath.Join(ledgerDir, ledgerWorkbook)
	if err := ledger.WriteWorkbook(workbook, merged, variant); err != nil {
		return err
	}
	written = append(written, workbook)

	runs.ledger(ctx, merged.Rows)

	if viper.GetBool("sheets.enabled") {
		uploadLedger(ctx, merged.Rows, variant)
	}

	printExtractSummary(merged, result, failures, written)
	return nil
}

// loadDocuments reads text inputs, OCRs PDFs without companion text and
// parses OFX exports. Unreadable files are logged and counted.
func loadDocuments(ctx context.Context, files []sourceFile, caller *callcache.Caller, noCache bool) ([]ledger.Document, []ledger.DocumentLedger, int) {
	var (
		docs     []ledger.Document
		ofxDocs  []ledger.DocumentLedger
		failures int
		ocrc     *ocr.Client
		ocrErr   error
	)
	parser := ofx.NewParser(slog.Default())

	for _, f := range files {
		logger := slog.With("file", f.Filename)

		switch f.Kind {
		case kindText:
			data, err := os.ReadFile(f.Path)
			if err != nil {
				logger.Error("Failed to read text", "error", err)
				failures++
				continue
			}
			docs = append(docs, ledger.Document{Filename: f.Filename, Text: string(data)})

		case kindPDF:
			if ocrc == nil && ocrErr == nil {
				ocrc, ocrErr = createOCRClient(caller, noCache)
			}
			if ocrErr != nil {
				logger.Error("Cannot OCR PDF", "error", ocrErr)
				failures++
				continue
			}
			text, err := ocrText(ctx, ocrc, f.Path)
			if err != nil {
				logger.Error("Failed to OCR PDF", "error", err)
				failures++
				continue
			}
			docs = append(docs, ledger.Document{Filename: f.Filename, Text: text})

		case kindOFX:
			rows, err := parseOFX(ctx, parser, f)
			if err != nil {
				logger.Error("Failed to parse OFX", "error", err)
				failures++
				continue
			}
			ofxDocs = append(ofxDocs, ledger.DocumentLedger{
				Filename: f.Filename,
				Category: model.CategoryBankStatement,
				Rows:     rows,
			})
		}
	}

	return docs, ofxDocs, failures
}

func ocrText(ctx context.Context, client *ocr.Client, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	pages, err := client.Analyze(ctx, data)
	if err != nil {
		return "", err
	}

	numbers := make([]int, len(pages))
	for i, p := range pages {
		numbers[i] = p.PageNumber
	}
	return strings.Join(model.PageText(pages, numbers), "\n\n"), nil
}

func parseOFX(ctx context.Context, parser *ofx.Parser, f sourceFile) ([]model.TransactionRow, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return parser.ParseFile(ctx, file, f.Filename)
}

// uploadLedger exports rows to Google Sheets. Export failures are reported
// but never fail the run; the local ledger is already written.
func uploadLedger(ctx context.Context, rows []model.TransactionRow, variant model.Variant) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		slog.Error("Google Sheets export is not configured", "error", err)
		fmt.Println(cli.FormatWarning("Skipped Google Sheets export: " + err.Error()))
		return
	}

	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to connect to Google Sheets", "error", err)
		fmt.Println(cli.FormatWarning("Google Sheets export failed"))
		return
	}

	id, err := writer.WriteLedger(ctx, rows, variant)
	if err != nil {
		slog.Error("Failed to upload ledger", "error", err)
		fmt.Println(cli.FormatWarning("Google Sheets export failed"))
		return
	}
	fmt.Println(cli.FormatSuccess("Uploaded ledger to spreadsheet " + id))
}

func printExtractSummary(merged ledger.Ledger, result ledger.ExtractResult, readFailures int, written []string) {
	rows := make([][]string, 0, len(merged.Documents))
	for _, d := range merged.Documents {
		rows = append(rows, []string{d.Filename, d.Category, fmt.Sprintf("%d", len(d.Rows))})
	}

	content := cli.RenderTable([]string{"Document", "Category", "Rows"}, rows)
	content += "\n\n" + cli.BoldStyle.Render(fmt.Sprintf("%d transactions", len(merged.Rows)))
	if n := len(result.Skipped); n > 0 {
		content += "\n" + cli.SubtleStyle.Render(fmt.Sprintf("%d non-statement document(s) skipped", n))
	}
	if n := len(result.Failed) + readFailures; n > 0 {
		content += "\n" + cli.FormatWarning(fmt.Sprintf("%d document(s) failed", n))
	}
	for _, path := range written {
		content += "\n" + cli.SubtleStyle.Render(path)
	}

	fmt.Println(cli.RenderBox(cli.LedgerIcon+" Ledger", content))
}
