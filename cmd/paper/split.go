package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/cli"
	"github.com/Veraticus/the-paper-trail/internal/llm"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/Veraticus/the-paper-trail/internal/ocr"
	"github.com/Veraticus/the-paper-trail/internal/reassemble"
	"github.com/Veraticus/the-paper-trail/internal/segment"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <source>",
		Short: "Split scanned bundles into separate named documents",
		Long: `Run layout OCR over each PDF, classify its pages in overlapping windows,
and write one PDF and one text file per document found, plus a transcript,
a manifest and a report.

The source is a single PDF or a directory of PDFs. Output for each input
goes to <output.dir>/<pdf name>/.

Examples:
  paper split ~/Scans/bundle.pdf
  paper split ~/Scans --output ~/Evidence`,
		Args: cobra.ExactArgs(1),
		RunE: runSplit,
	}

	cmd.Flags().StringP("output", "o", "", "output directory (default: output.dir)")
	cmd.Flags().Bool("no-cache", false, "skip cache lookups (results are still stored)")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	_ = viper.BindPFlag("output.dir", cmd.Flags().Lookup("output"))

	return cmd
}

// splitter runs the OCR, segmentation and reassembly stages for one PDF.
type splitter struct {
	ocr         *ocr.Client
	model       llm.Client
	builder     *reassemble.Builder
	progressOut io.Writer
	outDir      string
	size        int
	stride      int
	noProgress  bool
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noCache, _ := cmd.Flags().GetBool("no-cache")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	pdfs, err := collectPDFs(args[0])
	if err != nil {
		return err
	}

	caller, stop := openCaller()
	defer stop()

	ocrClient, err := createOCRClient(caller, noCache)
	if err != nil {
		return err
	}
	llmClient, err := createLLMClient(caller, noCache)
	if err != nil {
		return err
	}

	s := &splitter{
		ocr:        ocrClient,
		model:      llmClient,
		builder:    reassemble.NewBuilder(reassemble.NewPDFExtractor(), viper.GetInt("reassemble.workers"), slog.Default()),
		outDir:     viper.GetString("output.dir"),
		size:       viper.GetInt("segment.window_size"),
		stride:     viper.GetInt("segment.stride"),
		noProgress: noProgress,
	}

	runs := openHistory(ctx)
	defer runs.close()

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Splitting %d PDF file(s)", len(pdfs))))

	var failed int
	for _, pdf := range pdfs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		runs.start(ctx, "split", pdf)
		result, splitErr := s.split(ctx, pdf)
		if result != nil {
			runs.manifest(ctx, result.Manifest)
		}
		runs.finish(splitErr)

		if splitErr != nil {
			failed++
			slog.Error("Failed to split PDF", "file", pdf, "error", splitErr)
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", filepath.Base(pdf), splitErr)))
			continue
		}
		printSplitSummary(pdf, result)
	}

	if failed == len(pdfs) {
		return fmt.Errorf("all %d PDF file(s) failed to split", failed)
	}
	return nil
}

// split processes one PDF. When segmentation stops early the documents
// classified so far are still written and the error is returned with them.
func (s *splitter) split(ctx context.Context, pdf string) (*reassemble.Result, error) {
	logger := slog.With("file", filepath.Base(pdf))

	data, err := os.ReadFile(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pages, err := s.ocr.Analyze(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	if count, countErr := reassemble.PageCount(pdf); countErr != nil {
		logger.Warn("Could not count PDF pages", "error", countErr)
	} else if count != len(pages) {
		logger.Warn("OCR page count differs from PDF", "pdf_pages", count, "ocr_pages", len(pages))
	}

	segmented, segErr := s.segment(ctx, pages, "Classifying "+filepath.Base(pdf), logger)
	if segErr != nil && len(segmented.Records) == 0 {
		return nil, fmt.Errorf("segmentation failed: %w", segErr)
	}

	stem := strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
	result, err := s.builder.Build(ctx, reassemble.Input{
		SourcePath: pdf,
		OutDir:     filepath.Join(s.outDir, stem),
		Records:    segmented.Records,
		Pages:      pages,
	})
	if err != nil {
		return &result, fmt.Errorf("reassembly failed: %w", err)
	}

	if segErr != nil {
		return &result, fmt.Errorf("segmentation stopped after %d of %d windows: %w",
			segmented.Processed, segmented.Windows, segErr)
	}
	if len(result.Failures) > 0 {
		errs := make([]error, 0, len(result.Failures))
		for _, f := range result.Failures {
			errs = append(errs, fmt.Errorf("%s: %w", f.Filename, f.Err))
		}
		logger.Warn("Some documents could not be written", "failed", len(result.Failures))
		if len(result.Artifacts) == 0 {
			return &result, errors.Join(errs...)
		}
	}

	return &result, nil
}

// segment classifies pages, driving a progress bar unless disabled. The bar is
// closed even when a window fails so later output starts on a fresh line.
func (s *splitter) segment(ctx context.Context, pages []model.Page, label string, logger *slog.Logger) (segment.Result, error) {
	opts := []segment.Option{
		segment.WithGeometry(s.size, s.stride),
		segment.WithLogger(logger),
	}
	if !s.noProgress {
		out := s.progressOut
		if out == nil {
			out = os.Stderr
		}
		windows := len(segment.Partition(pages, s.size, s.stride))
		progress := cli.NewProgress(out, windows, label)
		defer progress.Finish()
		opts = append(opts, segment.WithProgress(progress.Update))
	}

	return segment.NewEngine(s.model, opts...).Segment(ctx, pages)
}

func printSplitSummary(pdf string, result *reassemble.Result) {
	rows := make([][]string, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		rows = append(rows, []string{a.Name + ".pdf", a.Group.Category, fmt.Sprintf("%d", len(a.Group.Pages))})
	}

	content := cli.RenderTable([]string{"Document", "Category", "Pages"}, rows)
	if len(result.Anomalies) > 0 {
		content += "\n\n" + cli.FormatWarning(fmt.Sprintf("%d category conflict(s) logged", len(result.Anomalies)))
	}
	if len(result.Failures) > 0 {
		content += "\n" + cli.FormatWarning(fmt.Sprintf("%d document(s) failed to write", len(result.Failures)))
	}
	content += "\n" + cli.SubtleStyle.Render(result.ManifestPath)

	fmt.Println(cli.RenderBox(filepath.Base(pdf), content))
}
