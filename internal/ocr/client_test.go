package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layoutResult = `{
  "status": "succeeded",
  "analyzeResult": {
    "pages": [
      {"pageNumber": 2, "lines": [{"content": "Account summary"}, {"content": "Closing balance 10.00"}]},
      {"pageNumber": 1, "lines": [{"content": "Acme Bank"}, {"content": "Statement"}]}
    ]
  }
}`

type fakeLayoutService struct {
	submits int32
	polls   int32
	async   bool
}

func (f *fakeLayoutService) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch {
		case r.Method == http.MethodPost:
			atomic.AddInt32(&f.submits, 1)
			assert.True(t, strings.Contains(r.URL.Path, "prebuilt-layout:analyze"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "%PDF-1.7 fake", string(body))
			if f.async {
				w.Header().Set("Operation-Location", "http://"+r.Host+"/operations/1")
				w.WriteHeader(http.StatusAccepted)
				return
			}
			_, _ = w.Write([]byte(layoutResult))
		case r.URL.Path == "/operations/1":
			if atomic.AddInt32(&f.polls, 1) < 2 {
				_, _ = w.Write([]byte(`{"status":"running"}`))
				return
			}
			_, _ = w.Write([]byte(layoutResult))
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, endpoint, cachePath string) *Client {
	t.Helper()
	caller := callcache.NewCaller(callcache.Open(cachePath, nil))
	client, err := NewClient(Config{
		Endpoint: endpoint,
		APIKey:   "key",
		Poll:     fastPolicy(),
		UseCache: true,
	}, caller, nil)
	require.NoError(t, err)
	return client
}

func TestAnalyze(t *testing.T) {
	doc := []byte("%PDF-1.7 fake")

	t.Run("immediate result", func(t *testing.T) {
		svc := &fakeLayoutService{}
		server := httptest.NewServer(svc.handler(t))
		defer server.Close()

		pages, err := newTestClient(t, server.URL, "").Analyze(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, 1, pages[0].PageNumber)
		assert.Equal(t, "Acme Bank\nStatement", pages[0].Text)
		assert.Equal(t, 2, pages[1].PageNumber)
		assert.Equal(t, int32(0), atomic.LoadInt32(&svc.polls))
	})

	t.Run("accepted job is polled then memoized", func(t *testing.T) {
		svc := &fakeLayoutService{async: true}
		server := httptest.NewServer(svc.handler(t))
		defer server.Close()

		cachePath := filepath.Join(t.TempDir(), "cache.json")
		pages, err := newTestClient(t, server.URL, cachePath).Analyze(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, int32(1), atomic.LoadInt32(&svc.submits))
		assert.Equal(t, int32(2), atomic.LoadInt32(&svc.polls))

		again, err := newTestClient(t, server.URL, cachePath).Analyze(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, pages, again)
		assert.Equal(t, int32(1), atomic.LoadInt32(&svc.submits))
	})
}

func TestNewClientRequiresConfig(t *testing.T) {
	caller := callcache.NewCaller(callcache.Open("", nil))

	_, err := NewClient(Config{APIKey: "key"}, caller, nil)
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{Endpoint: "http://localhost"}, caller, nil)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestParsePagesEmpty(t *testing.T) {
	_, err := parsePages([]byte(`{"status":"succeeded","analyzeResult":{"pages":[]}}`))
	assert.ErrorIs(t, err, common.ErrNoPages)
}
