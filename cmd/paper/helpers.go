package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/config"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/Veraticus/the-paper-trail/internal/ocr"
	"github.com/Veraticus/the-paper-trail/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the run history database with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DataPath(viper.GetString("database.path"), "paper.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openCaller loads the call cache and wraps it with a rate limited HTTP
// caller. The returned cleanup stops the limiter.
func openCaller() (*callcache.Caller, func()) {
	store := callcache.Open(config.DataPath(viper.GetString("cache.path"), "cache.json"), slog.Default())

	limiter := callcache.NewRateLimiter(viper.GetInt("llm.rate_limit"))
	caller := callcache.NewCaller(store,
		callcache.WithHTTPClient(&http.Client{Timeout: viper.GetDuration("llm.timeout")}),
		callcache.WithLimiter(limiter),
		callcache.WithLogger(slog.Default()),
	)
	return caller, limiter.Close
}

func useCache(noCache bool) bool {
	return viper.GetBool("cache.enabled") && !noCache
}

// createOCRClient builds the layout analysis client from configuration.
func createOCRClient(caller *callcache.Caller, noCache bool) (*ocr.Client, error) {
	policy := ocr.DefaultPollPolicy()
	if d := viper.GetDuration("ocr.poll_interval"); d > 0 {
		policy.Interval = d
	}
	if m := viper.GetFloat64("ocr.poll_multiplier"); m > 0 {
		policy.Multiplier = m
	}
	if d := viper.GetDuration("ocr.poll_max_interval"); d > 0 {
		policy.MaxInterval = d
	}
	if d := viper.GetDuration("ocr.poll_deadline"); d > 0 {
		policy.Deadline = d
	}

	client, err := ocr.NewClient(ocr.Config{
		Endpoint:   viper.GetString("ocr.endpoint"),
		APIKey:     firstNonEmpty(viper.GetString("ocr.api_key"), os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_KEY")),
		Model:      viper.GetString("ocr.model"),
		APIVersion: viper.GetString("ocr.api_version"),
		Poll:       policy,
		UseCache:   useCache(noCache),
	}, caller, slog.Default())
	if err != nil {
		return nil, common.NewUserError("OCR is not configured (set ocr.endpoint and ocr.api_key)", err)
	}
	return client, nil
}

// history records runs without ever failing them. A nil store disables it.
type history struct {
	store *storage.SQLiteStorage
	runID string
}

func openHistory(ctx context.Context) *history {
	store, err := initStorage(ctx)
	if err != nil {
		slog.Warn("Run history unavailable", "error", err)
		return &history{}
	}
	return &history{store: store}
}

func (h *history) start(ctx context.Context, tool, source string) {
	if h.store == nil {
		return
	}
	id, err := h.store.StartRun(ctx, tool, source)
	if err != nil {
		slog.Warn("Failed to record run start", "error", err)
		return
	}
	h.runID = id
}

func (h *history) manifest(ctx context.Context, entries []model.ManifestEntry) {
	if h.runID == "" {
		return
	}
	if err := h.store.SaveManifest(ctx, h.runID, entries); err != nil {
		slog.Warn("Failed to record manifest", "run_id", h.runID, "error", err)
	}
}

func (h *history) ledger(ctx context.Context, rows []model.TransactionRow) {
	if h.runID == "" {
		return
	}
	if err := h.store.SaveLedgerRows(ctx, h.runID, rows); err != nil {
		slog.Warn("Failed to record ledger rows", "run_id", h.runID, "error", err)
	}
}

func (h *history) finish(runErr error) {
	if h.runID == "" {
		return
	}
	// The run context may already be canceled; the outcome is still recorded.
	if err := h.store.FinishRun(context.Background(), h.runID, runErr); err != nil {
		slog.Warn("Failed to record run outcome", "run_id", h.runID, "error", err)
	}
	h.runID = ""
}

func (h *history) close() {
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		slog.Warn("Failed to close run history", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
