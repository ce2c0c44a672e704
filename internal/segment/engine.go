package segment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-paper-trail/internal/llm"
	"github.com/Veraticus/the-paper-trail/internal/model"
)

var recordsSchema = llm.MustCompileSchema("classification_records", `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["pageNumber", "category", "confidence", "filename", "summary"],
    "properties": {
      "pageNumber": {"type": "integer", "minimum": 1},
      "category": {"type": "string", "minLength": 1},
      "confidence": {"type": "integer", "minimum": 0, "maximum": 5},
      "filename": {"type": "string", "minLength": 1},
      "summary": {"type": "string"},
      "statedPageNumber": {"type": ["string", "null"]}
    }
  }
}`)

// Verifier may inspect or repair a window's records before they are committed.
// It receives the state as it was before the window.
type Verifier interface {
	Verify(ctx context.Context, w Window, state *model.WindowState, records []model.ClassificationRecord) ([]model.ClassificationRecord, error)
}

// Result is the outcome of a segmentation run. When Segment returns an error,
// Records holds everything committed before the failing window.
type Result struct {
	Records   []model.ClassificationRecord
	Windows   int
	Processed int
}

// Complete reports whether every window was processed.
func (r Result) Complete() bool {
	return r.Processed == r.Windows
}

// Engine classifies pages window by window.
type Engine struct {
	client   llm.Client
	verifier Verifier
	onWindow func(done, total int)
	logger   *slog.Logger
	size     int
	stride   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeometry overrides window size and stride.
func WithGeometry(size, stride int) Option {
	return func(e *Engine) {
		e.size = size
		e.stride = stride
	}
}

// WithVerifier installs a verification pass.
func WithVerifier(v Verifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// WithProgress registers a callback fired after each committed window.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.onWindow = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine using client for classification.
func NewEngine(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		size:   DefaultWindowSize,
		stride: DefaultStride,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Segment classifies pages in order. Windows run strictly one after another
// because each prompt carries state from the previous window. The first
// failing window stops the run; the partial result is returned with the error.
func (e *Engine) Segment(ctx context.Context, pages []model.Page) (Result, error) {
	windows := Partition(pages, e.size, e.stride)
	result := Result{Windows: len(windows)}
	state := model.NewWindowState()

	for _, w := range windows {
		logger := e.logger.With("window", w.Index, "first_page", w.First(), "last_page", w.Last())

		records, err := e.classify(ctx, w, state)
		if err != nil {
			logger.Error("segmentation stopped", "error", err, "committed_records", len(result.Records))
			return result, fmt.Errorf("window %d (pages %d-%d): %w", w.Index, w.First(), w.Last(), err)
		}

		kept := records[:0]
		for _, rec := range records {
			if state.IsBoundary(rec) {
				logger.Debug("dropping repeated boundary page", "page", rec.PageNumber)
				continue
			}
			kept = append(kept, rec)
		}

		result.Records = append(result.Records, kept...)
		state.Observe(kept)
		result.Processed++

		logger.Info("window classified", "records", len(kept), "filenames", len(state.UsedFilenames()))
		if e.onWindow != nil {
			e.onWindow(result.Processed, result.Windows)
		}
	}

	return result, nil
}

func (e *Engine) classify(ctx context.Context, w Window, state *model.WindowState) ([]model.ClassificationRecord, error) {
	prompt, err := buildPrompt(w, state)
	if err != nil {
		return nil, err
	}

	content, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var records []model.ClassificationRecord
	if err := llm.DecodeJSON(content, recordsSchema, &records); err != nil {
		return nil, err
	}

	if e.verifier != nil {
		records, err = e.verifier.Verify(ctx, w, state, records)
		if err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
	}

	return records, nil
}
