package callcache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write(append([]byte("echo:"), body...))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCallerMemoizes(t *testing.T) {
	var hits int32
	server := newEchoServer(t, &hits)
	path := filepath.Join(t.TempDir(), "cache.json")

	req := Request{
		Endpoint: server.URL + "/complete",
		Payload:  []byte(`{"prompt":"hello"}`),
		Headers:  map[string]string{"X-Api-Key": "secret"},
	}

	caller := NewCaller(Open(path, nil))
	first, err := caller.Call(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, `echo:{"prompt":"hello"}`, string(first))

	second, err := caller.Call(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// A fresh process over the same file makes no network call either.
	reloaded := NewCaller(Open(path, nil))
	third, err := reloaded.Call(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCallerKeyIsExactPayload(t *testing.T) {
	var hits int32
	server := newEchoServer(t, &hits)
	caller := NewCaller(Open("", nil))
	headers := map[string]string{"X-Api-Key": "secret"}

	_, err := caller.Call(context.Background(), Request{Endpoint: server.URL, Payload: []byte(`{"a":1,"b":2}`), Headers: headers}, true)
	require.NoError(t, err)
	_, err = caller.Call(context.Background(), Request{Endpoint: server.URL, Payload: []byte(`{"b":2,"a":1}`), Headers: headers}, true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, caller.Store().Len())
}

func TestCallerUseCacheFalse(t *testing.T) {
	var hits int32
	server := newEchoServer(t, &hits)
	caller := NewCaller(Open("", nil))
	req := Request{Endpoint: server.URL, Payload: []byte("x"), Headers: map[string]string{"X-Api-Key": "secret"}}

	for i := 0; i < 2; i++ {
		_, err := caller.Call(context.Background(), req, false)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, caller.Store().Len())
}

func TestCallerDoesNotCacheFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	caller := NewCaller(Open("", nil))
	req := Request{Endpoint: server.URL, Payload: []byte("p")}

	_, err := caller.Call(context.Background(), req, true)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, 0, caller.Store().Len())

	body, err := caller.Call(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(context.Context) error {
	l.waits++
	return nil
}

func TestMemoizeLimiterOnlyOnMiss(t *testing.T) {
	limiter := &countingLimiter{}
	caller := NewCaller(Open("", nil), WithLimiter(limiter))

	fetches := 0
	fetch := func(context.Context) ([]byte, error) {
		fetches++
		return []byte("result"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := caller.Memoize(context.Background(), "job#sha256:abc", true, fetch)
		require.NoError(t, err)
		assert.Equal(t, "result", string(got))
	}

	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, limiter.waits)
}
