// Package segment splits an ordered sequence of OCR'd pages into logical
// documents by classifying overlapping windows of pages with a language model.
package segment

import "github.com/Veraticus/the-paper-trail/internal/model"

// Default window geometry: ten pages per request, each window after the first
// repeating the last page of the one before.
const (
	DefaultWindowSize = 10
	DefaultStride     = 9
)

// Window is one slice of pages sent in a single request.
type Window struct {
	Pages []model.Page
	Index int
}

// First returns the first page number in the window.
func (w Window) First() int { return w.Pages[0].PageNumber }

// Last returns the last page number in the window.
func (w Window) Last() int { return w.Pages[len(w.Pages)-1].PageNumber }

// Partition cuts pages into windows of at most size pages, starting a new
// window every stride pages. The final window always ends at the last page.
func Partition(pages []model.Page, size, stride int) []Window {
	if len(pages) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultWindowSize
	}
	if stride <= 0 || stride > size {
		stride = size
	}

	var windows []Window
	for start := 0; ; start += stride {
		end := start + size
		if end > len(pages) {
			end = len(pages)
		}
		windows = append(windows, Window{Index: len(windows), Pages: pages[start:end]})
		if end == len(pages) {
			return windows
		}
	}
}
