// Package ocr runs layout analysis on PDF documents through an asynchronous
// analyze-then-poll REST service and memoizes the terminal result.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/common"
)

// State is a job's position in the poll state machine.
type State int

// Job states.
const (
	StateSubmitted State = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Remote job statuses.
const (
	statusNotStarted = "notStarted"
	statusRunning    = "running"
	statusSucceeded  = "succeeded"
)

// PollPolicy controls polling cadence and the overall deadline.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Deadline    time.Duration
	Multiplier  float64
}

// DefaultPollPolicy polls every two seconds for up to ten minutes.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    2 * time.Second,
		Multiplier:  1.0,
		MaxInterval: 30 * time.Second,
		Deadline:    10 * time.Minute,
	}
}

func (p PollPolicy) normalized() PollPolicy {
	def := DefaultPollPolicy()
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	if p.Deadline <= 0 {
		p.Deadline = def.Deadline
	}
	return p
}

func (p PollPolicy) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * p.Multiplier)
	if d > p.MaxInterval {
		d = p.MaxInterval
	}
	return d
}

// Poller waits for a submitted job to reach a terminal state.
type Poller struct {
	httpClient *http.Client
	headers    map[string]string
	logger     *slog.Logger
	policy     PollPolicy
}

// NewPoller creates a poller sending headers on every status request.
func NewPoller(httpClient *http.Client, headers map[string]string, policy PollPolicy, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		httpClient: httpClient,
		headers:    headers,
		policy:     policy.normalized(),
		logger:     logger,
	}
}

type jobStatus struct {
	Status string `json:"status"`
}

// Await polls location until the job succeeds, fails or the deadline passes.
// On success it returns the full terminal response body.
func (p *Poller) Await(ctx context.Context, location string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.policy.Deadline)
	defer cancel()

	logger := p.logger.With("location", location)
	state := StateSubmitted
	transition := func(next State) {
		logger.Debug("job state changed", "from", state, "to", next)
		state = next
	}

	interval := p.policy.Interval
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			transition(StateAborted)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", common.ErrPollDeadline, p.policy.Deadline)
			}
			return nil, ctx.Err()
		case <-timer.C:
		}

		if state == StateSubmitted {
			transition(StatePolling)
		}

		body, status, err := p.fetch(ctx, location)
		if err != nil {
			transition(StateAborted)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", common.ErrPollDeadline, p.policy.Deadline)
			}
			return nil, err
		}

		switch status {
		case statusRunning, statusNotStarted:
			logger.Debug("job still running", "attempt", attempt, "next_poll", interval)
			interval = p.policy.next(interval)
		case statusSucceeded:
			transition(StateSucceeded)
			return body, nil
		default:
			transition(StateFailed)
			logger.Error("analysis job ended in unexpected state", "status", status)
			return nil, fmt.Errorf("%w: status %q", common.ErrJobFailed, status)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, location string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create poll request: %w", err)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("poll request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read poll response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("poll returned status %d: %s", resp.StatusCode, string(body))
	}

	var js jobStatus
	if err := json.Unmarshal(body, &js); err != nil {
		return nil, "", fmt.Errorf("failed to parse poll response: %w", err)
	}

	return body, js.Status, nil
}
