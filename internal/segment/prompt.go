package segment

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Veraticus/the-paper-trail/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var promptTemplate = template.Must(template.ParseFS(templateFS, "templates/segment.tmpl"))

type promptData struct {
	LastPage       string
	Categories     []string
	UsedFilenames  []string
	Pages          []model.Page
	LastPageNumber int
}

// buildPrompt renders the classification request for one window.
func buildPrompt(w Window, state *model.WindowState) (string, error) {
	data := promptData{
		Categories:    model.Categories(),
		UsedFilenames: state.UsedFilenames(),
		Pages:         w.Pages,
	}

	if last := state.LastPageSummary; last != nil {
		encoded, err := json.Marshal(last)
		if err != nil {
			return "", fmt.Errorf("failed to encode last page summary: %w", err)
		}
		data.LastPage = string(encoded)
		data.LastPageNumber = last.PageNumber
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
