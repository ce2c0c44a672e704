package model

import "sort"

// ClassificationRecord is the model's verdict for one page.
type ClassificationRecord struct {
	Category         string `json:"category"`
	Filename         string `json:"filename"`
	Summary          string `json:"summary"`
	StatedPageNumber string `json:"statedPageNumber,omitempty"`
	PageNumber       int    `json:"pageNumber"`
	Confidence       int    `json:"confidence"`
}

// WindowState is carried from one segmentation window to the next.
type WindowState struct {
	// LastPageSummary is the final record of the previous window. It is only
	// context for the next window and is never emitted twice.
	LastPageSummary *ClassificationRecord
	usedFilenames   map[string]struct{}
}

// NewWindowState returns an empty state for the first window.
func NewWindowState() *WindowState {
	return &WindowState{usedFilenames: make(map[string]struct{})}
}

// IsBoundary reports whether a record repeats the page carried over from the
// previous window.
func (s *WindowState) IsBoundary(rec ClassificationRecord) bool {
	return s.LastPageSummary != nil && rec.PageNumber == s.LastPageSummary.PageNumber
}

// Observe registers the filenames of a committed window and moves the
// last-page summary forward. Empty windows leave the state unchanged.
func (s *WindowState) Observe(records []ClassificationRecord) {
	if len(records) == 0 {
		return
	}
	for _, rec := range records {
		s.usedFilenames[rec.Filename] = struct{}{}
	}
	last := records[len(records)-1]
	s.LastPageSummary = &last
}

// UsedFilenames returns every filename assigned so far, sorted.
func (s *WindowState) UsedFilenames() []string {
	names := make([]string, 0, len(s.usedFilenames))
	for name := range s.usedFilenames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
