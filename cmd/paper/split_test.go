package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingModel struct{ calls int }

func (m *failingModel) Complete(context.Context, string) (string, error) {
	m.calls++
	return "", errors.New("upstream unavailable")
}

func TestSplitterSegmentClosesProgressOnFailure(t *testing.T) {
	pages := make([]model.Page, 12)
	for i := range pages {
		pages[i] = model.Page{PageNumber: i + 1, Text: fmt.Sprintf("page %d", i+1)}
	}

	var out bytes.Buffer
	llmClient := &failingModel{}
	s := &splitter{model: llmClient, progressOut: &out, size: 10, stride: 9}

	result, err := s.segment(context.Background(), pages, "Classifying bundle.pdf", slog.Default())
	require.Error(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 1, llmClient.calls)
	assert.True(t, strings.HasSuffix(out.String(), "\n"), "progress bar left open: %q", out.String())
}

func TestSplitterSegmentWithoutProgress(t *testing.T) {
	var out bytes.Buffer
	s := &splitter{model: &failingModel{}, progressOut: &out, size: 10, stride: 9, noProgress: true}

	_, err := s.segment(context.Background(), []model.Page{{PageNumber: 1}}, "Classifying", slog.Default())
	require.Error(t, err)
	assert.Empty(t, out.String())
}
