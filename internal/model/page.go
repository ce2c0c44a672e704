// Package model defines the core domain models shared by the OCR, segmentation,
// reassembly and ledger stages.
package model

import "strings"

// Page is a single OCR'd page of a source document.
type Page struct {
	Text       string
	PageNumber int // 1-based position in the source document
}

// NewPage joins OCR line contents into a page.
func NewPage(pageNumber int, lines []string) Page {
	return Page{
		PageNumber: pageNumber,
		Text:       strings.Join(lines, "\n"),
	}
}

// PageText returns the text of the given page numbers in the order requested.
// Page numbers that are not present in pages are skipped.
func PageText(pages []Page, numbers []int) []string {
	byNumber := make(map[int]string, len(pages))
	for _, p := range pages {
		byNumber[p.PageNumber] = p.Text
	}

	texts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if text, ok := byNumber[n]; ok {
			texts = append(texts, text)
		}
	}
	return texts
}
