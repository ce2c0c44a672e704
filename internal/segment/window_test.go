package segment

import (
	"fmt"
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/stretchr/testify/assert"
)

func makePages(n int) []model.Page {
	pages := make([]model.Page, n)
	for i := range pages {
		pages[i] = model.Page{PageNumber: i + 1, Text: fmt.Sprintf("text of page %d", i+1)}
	}
	return pages
}

func spans(windows []Window) [][2]int {
	out := make([][2]int, len(windows))
	for i, w := range windows {
		out[i] = [2]int{w.First(), w.Last()}
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		pages int
		want  [][2]int
	}{
		{name: "empty", pages: 0, want: [][2]int{}},
		{name: "three pages", pages: 3, want: [][2]int{{1, 3}}},
		{name: "exactly one window", pages: 10, want: [][2]int{{1, 10}}},
		{name: "eleven pages", pages: 11, want: [][2]int{{1, 10}, {10, 11}}},
		{name: "nineteen pages", pages: 19, want: [][2]int{{1, 10}, {10, 19}}},
		{name: "twenty pages", pages: 20, want: [][2]int{{1, 10}, {10, 19}, {19, 20}}},
		{name: "twenty eight pages", pages: 28, want: [][2]int{{1, 10}, {10, 19}, {19, 28}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := Partition(makePages(tt.pages), DefaultWindowSize, DefaultStride)
			assert.Equal(t, tt.want, spans(windows))
			for i, w := range windows {
				assert.Equal(t, i, w.Index)
				assert.LessOrEqual(t, len(w.Pages), DefaultWindowSize)
			}
		})
	}
}

func TestPartitionConsecutiveWindowsShareOnePage(t *testing.T) {
	windows := Partition(makePages(37), DefaultWindowSize, DefaultStride)
	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1].Last(), windows[i].First(), "window %d", i)
	}
}

func TestPartitionInvalidGeometry(t *testing.T) {
	windows := Partition(makePages(12), 5, 0)
	assert.Equal(t, [][2]int{{1, 5}, {6, 10}, {11, 12}}, spans(windows))
}
