package reassemble

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/the-paper-trail/internal/model"
)

// Group collects records by filename in first-seen order. The first record of
// a filename fixes its category and summary; later disagreements are returned
// as anomalies and never block grouping. Page numbers in each group are sorted
// and de-duplicated.
func Group(records []model.ClassificationRecord, logger *slog.Logger) ([]model.DocumentGroup, []model.Anomaly) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		groups    []model.DocumentGroup
		anomalies []model.Anomaly
		index     = make(map[string]int)
	)

	for _, rec := range records {
		i, ok := index[rec.Filename]
		if !ok {
			index[rec.Filename] = len(groups)
			groups = append(groups, model.DocumentGroup{
				Filename: rec.Filename,
				Category: rec.Category,
				Summary:  rec.Summary,
				Pages:    []int{rec.PageNumber},
			})
			continue
		}

		g := &groups[i]
		if rec.Category != g.Category {
			a := model.Anomaly{
				Filename: rec.Filename,
				Page:     rec.PageNumber,
				Message:  fmt.Sprintf("category %q conflicts with %q", rec.Category, g.Category),
			}
			logger.Warn("category mismatch within document",
				"filename", a.Filename,
				"page", a.Page,
				"kept", g.Category,
				"ignored", rec.Category)
			anomalies = append(anomalies, a)
		}
		g.Pages = append(g.Pages, rec.PageNumber)
	}

	for i := range groups {
		g := &groups[i]
		sort.Ints(g.Pages)
		deduped := g.Pages[:1]
		for _, p := range g.Pages[1:] {
			if p == deduped[len(deduped)-1] {
				logger.Warn("duplicate page in document", "filename", g.Filename, "page", p)
				anomalies = append(anomalies, model.Anomaly{
					Filename: g.Filename,
					Page:     p,
					Message:  "page classified more than once",
				})
				continue
			}
			deduped = append(deduped, p)
		}
		g.Pages = deduped
	}

	return groups, anomalies
}
