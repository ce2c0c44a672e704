package ocr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/model"
)

// Config holds layout service settings.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	APIVersion string
	Poll       PollPolicy
	UseCache   bool
}

// Client runs layout analysis.
type Client struct {
	caller *callcache.Caller
	poller *Poller
	logger *slog.Logger
	config Config
}

// NewClient creates a layout analysis client. Results are memoized by caller.
func NewClient(cfg Config, caller *callcache.Caller, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: ocr endpoint", common.ErrMissingConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: ocr api key", common.ErrMissingConfig)
	}
	if cfg.Model == "" {
		cfg.Model = "prebuilt-layout"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-07-31"
	}
	if logger == nil {
		logger = slog.Default()
	}

	headers := map[string]string{"Ocp-Apim-Subscription-Key": cfg.APIKey}

	return &Client{
		config: cfg,
		caller: caller,
		poller: NewPoller(caller.HTTPClient(), headers, cfg.Poll, logger.With("component", "ocr.poller")),
		logger: logger.With("component", "ocr"),
	}, nil
}

func (c *Client) analyzeURL() string {
	return fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		strings.TrimRight(c.config.Endpoint, "/"),
		url.PathEscape(c.config.Model),
		url.QueryEscape(c.config.APIVersion))
}

// cacheKey identifies a document by content digest rather than raw bytes.
func (c *Client) cacheKey(doc []byte) string {
	sum := sha256.Sum256(doc)
	return c.analyzeURL() + "#sha256:" + hex.EncodeToString(sum[:])
}

// Analyze returns the document's pages in order.
func (c *Client) Analyze(ctx context.Context, doc []byte) ([]model.Page, error) {
	body, err := c.caller.Memoize(ctx, c.cacheKey(doc), c.config.UseCache, func(ctx context.Context) ([]byte, error) {
		return c.submitAndAwait(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return parsePages(body)
}

// submitAndAwait posts the document and waits for a terminal result.
func (c *Client) submitAndAwait(ctx context.Context, doc []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.config.APIKey)

	resp, err := c.caller.HTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyze response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusAccepted:
		location := resp.Header.Get("Operation-Location")
		if location == "" {
			return nil, fmt.Errorf("analyze accepted without Operation-Location header")
		}
		c.logger.Info("analysis job submitted", "bytes", len(doc))
		return c.poller.Await(ctx, location)
	default:
		return nil, fmt.Errorf("analyze returned status %d: %s", resp.StatusCode, string(body))
	}
}

type analyzeResponse struct {
	AnalyzeResult *struct {
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
			PageNumber int `json:"pageNumber"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Status string `json:"status"`
}

func parsePages(body []byte) ([]model.Page, error) {
	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse analyze result: %w", err)
	}
	if resp.AnalyzeResult == nil || len(resp.AnalyzeResult.Pages) == 0 {
		return nil, common.ErrNoPages
	}

	pages := make([]model.Page, 0, len(resp.AnalyzeResult.Pages))
	for i, p := range resp.AnalyzeResult.Pages {
		number := p.PageNumber
		if number == 0 {
			number = i + 1
		}
		lines := make([]string, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, l.Content)
		}
		pages = append(pages, model.NewPage(number, lines))
	}

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}
