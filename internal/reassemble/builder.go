// Package reassemble rebuilds per-document artifacts from page classifications:
// one PDF and one text file per document, a full transcript, a manifest and a
// CSV report of the split.
package reassemble

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"golang.org/x/sync/errgroup"
)

// Output file names written next to the per-document artifacts.
const (
	TranscriptFile = "transcript.txt"
	ManifestFile   = "manifest.json"
	ReportFile     = "report.csv"
)

// Input describes one source document and its classification.
type Input struct {
	SourcePath string
	OutDir     string
	Records    []model.ClassificationRecord
	Pages      []model.Page
}

// Artifact is a document written to disk.
type Artifact struct {
	Group    model.DocumentGroup
	Name     string // sanitized base name
	PDFPath  string
	TextPath string
}

// Failure is a document that could not be written.
type Failure struct {
	Err      error
	Filename string
}

// Result lists what Build produced.
type Result struct {
	Artifacts      []Artifact
	Failures       []Failure
	Anomalies      []model.Anomaly
	Manifest       []model.ManifestEntry
	TranscriptPath string
	ManifestPath   string
	ReportPath     string
}

// Builder writes reassembled documents.
type Builder struct {
	extractor PageExtractor
	logger    *slog.Logger
	workers   int
}

// NewBuilder creates a Builder writing up to workers documents at once.
func NewBuilder(extractor PageExtractor, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		extractor: extractor,
		workers:   workers,
		logger:    logger.With("component", "reassemble"),
	}
}

// Build groups the records and writes every artifact. A document that fails to
// write is logged and listed in Result.Failures; documents already written are
// kept and the manifest lists only the documents that completed. An error is
// returned only when the output directory or the run-level files cannot be
// written.
func (b *Builder) Build(ctx context.Context, in Input) (Result, error) {
	if err := os.MkdirAll(in.OutDir, 0750); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	groups, anomalies := Group(in.Records, b.logger)
	result := Result{Anomalies: anomalies}

	names := newNameAllocator()
	planned := make([]Artifact, len(groups))
	for i, g := range groups {
		name := names.allocate(g.Filename)
		planned[i] = Artifact{
			Group:    g,
			Name:     name,
			PDFPath:  filepath.Join(in.OutDir, name+".pdf"),
			TextPath: filepath.Join(in.OutDir, name+".txt"),
		}
	}

	errs := make([]error, len(planned))
	var g errgroup.Group
	g.SetLimit(b.workers)
	for i := range planned {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = b.writeArtifact(in, planned[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range planned {
		if errs[i] != nil {
			b.logger.Error("failed to write document",
				"filename", a.Group.Filename,
				"error", errs[i])
			result.Failures = append(result.Failures, Failure{Filename: a.Group.Filename, Err: errs[i]})
			continue
		}
		result.Artifacts = append(result.Artifacts, a)
		result.Manifest = append(result.Manifest, model.ManifestEntry{
			Filename: a.Name + ".pdf",
			Category: a.Group.Category,
			Summary:  a.Group.Summary,
		})
	}

	result.TranscriptPath = filepath.Join(in.OutDir, TranscriptFile)
	if err := os.WriteFile(result.TranscriptPath, []byte(transcript(in.Pages)), 0600); err != nil {
		return result, fmt.Errorf("failed to write transcript: %w", err)
	}

	result.ManifestPath = filepath.Join(in.OutDir, ManifestFile)
	if err := writeManifest(result.ManifestPath, result.Manifest); err != nil {
		return result, err
	}

	result.ReportPath = filepath.Join(in.OutDir, ReportFile)
	if err := writeReport(result.ReportPath, result.Artifacts); err != nil {
		return result, err
	}

	b.logger.Info("reassembly finished",
		"documents", len(result.Artifacts),
		"failed", len(result.Failures),
		"anomalies", len(result.Anomalies))

	return result, nil
}

// writeArtifact writes the PDF before its text companion so that a failed
// document never leaves a lone .txt behind.
func (b *Builder) writeArtifact(in Input, a Artifact) error {
	if err := b.extractor.ExtractPages(in.SourcePath, a.PDFPath, a.Group.Pages); err != nil {
		_ = os.Remove(a.PDFPath)
		return err
	}

	text := strings.Join(model.PageText(in.Pages, a.Group.Pages), "\n\n")
	if err := os.WriteFile(a.TextPath, []byte(text), 0600); err != nil {
		_ = os.Remove(a.PDFPath)
		_ = os.Remove(a.TextPath)
		return fmt.Errorf("failed to write text: %w", err)
	}

	b.logger.Debug("wrote document", "name", a.Name, "pages", len(a.Group.Pages))
	return nil
}

func transcript(pages []model.Page) string {
	var sb strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&sb, "=== Page %d ===\n%s\n\n", p.PageNumber, p.Text)
	}
	return sb.String()
}

func writeManifest(path string, entries []model.ManifestEntry) error {
	if entries == nil {
		entries = []model.ManifestEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
