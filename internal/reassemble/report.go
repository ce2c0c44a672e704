package reassemble

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

type reportRow struct {
	Filename  string `csv:"Filename"`
	Category  string `csv:"Category"`
	Summary   string `csv:"Summary"`
	Pages     string `csv:"Pages"`
	PageCount int    `csv:"PageCount"`
}

func writeReport(path string, artifacts []Artifact) error {
	rows := make([]reportRow, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, reportRow{
			Filename:  a.Name + ".pdf",
			Category:  a.Group.Category,
			Summary:   a.Group.Summary,
			Pages:     formatPageRanges(a.Group.Pages),
			PageCount: len(a.Group.Pages),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// formatPageRanges renders sorted page numbers compactly, e.g. "1-3,7".
func formatPageRanges(pages []int) string {
	var parts []string
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(pages[i]))
		} else {
			parts = append(parts, strconv.Itoa(pages[i])+"-"+strconv.Itoa(pages[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
