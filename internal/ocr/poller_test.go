package ocr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() PollPolicy {
	return PollPolicy{Interval: 5 * time.Millisecond, Multiplier: 1, Deadline: 2 * time.Second}
}

func statusServer(t *testing.T, statuses ...string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		n := int(atomic.AddInt32(&polls, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
	}))
	t.Cleanup(server.Close)
	return server, &polls
}

func TestPollerAwait(t *testing.T) {
	headers := map[string]string{"Ocp-Apim-Subscription-Key": "key"}

	t.Run("polls until succeeded", func(t *testing.T) {
		server, polls := statusServer(t, "notStarted", "running", "running", "succeeded")
		p := NewPoller(server.Client(), headers, fastPolicy(), nil)

		body, err := p.Await(context.Background(), server.URL)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"succeeded"}`, string(body))
		assert.Equal(t, int32(4), atomic.LoadInt32(polls))
	})

	t.Run("unexpected status is a job failure", func(t *testing.T) {
		server, polls := statusServer(t, "running", "failed")
		p := NewPoller(server.Client(), headers, fastPolicy(), nil)

		body, err := p.Await(context.Background(), server.URL)
		require.Error(t, err)
		assert.Nil(t, body)
		assert.ErrorIs(t, err, common.ErrJobFailed)
		assert.Equal(t, int32(2), atomic.LoadInt32(polls))
	})

	t.Run("deadline aborts a job that never finishes", func(t *testing.T) {
		server, _ := statusServer(t, "running")
		policy := fastPolicy()
		policy.Deadline = 60 * time.Millisecond
		p := NewPoller(server.Client(), headers, policy, nil)

		_, err := p.Await(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrPollDeadline)
	})

	t.Run("parent cancellation aborts", func(t *testing.T) {
		server, _ := statusServer(t, "running")
		policy := fastPolicy()
		policy.Deadline = time.Minute
		p := NewPoller(server.Client(), headers, policy, nil)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(30*time.Millisecond, cancel)

		_, err := p.Await(ctx, server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, common.ErrPollDeadline)
	})

	t.Run("request error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		p := NewPoller(server.Client(), headers, fastPolicy(), nil)
		_, err := p.Await(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestPollPolicyBackoff(t *testing.T) {
	p := PollPolicy{Interval: time.Second, Multiplier: 2, MaxInterval: 3 * time.Second}.normalized()

	d := p.Interval
	var got []time.Duration
	for i := 0; i < 4; i++ {
		got = append(got, d)
		d = p.next(d)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, got)

	def := PollPolicy{}.normalized()
	assert.Equal(t, 2*time.Second, def.Interval)
	assert.Equal(t, 2*time.Second, def.next(def.Interval))
	assert.Equal(t, 10*time.Minute, def.Deadline)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "aborted", StateAborted.String())
}
