package reassemble

import (
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageExtractor copies selected pages of a source PDF into a new file.
type PageExtractor interface {
	ExtractPages(src, dst string, pages []int) error
}

// PDFExtractor implements PageExtractor with pdfcpu.
type PDFExtractor struct {
	conf *pdfmodel.Configuration
}

// NewPDFExtractor creates an extractor that tolerates slightly malformed
// scanner output.
func NewPDFExtractor() *PDFExtractor {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return &PDFExtractor{conf: conf}
}

// ExtractPages writes the given 1-based pages of src to dst.
func (e *PDFExtractor) ExtractPages(src, dst string, pages []int) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages selected")
	}

	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}

	if err := api.TrimFile(src, dst, selected, e.conf); err != nil {
		return fmt.Errorf("failed to extract pages from %s: %w", src, err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages in %s: %w", path, err)
	}
	return n, nil
}
