package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/reassemble"
)

type sourceKind int

const (
	kindText sourceKind = iota
	kindPDF
	kindOFX
)

// sourceFile is one input of the extract tool. Filename is the document name
// rows are attributed to; for split output it is the PDF even when the
// companion text is read.
type sourceFile struct {
	Path     string
	Filename string
	Kind     sourceKind
}

// collectPDFs returns source when it is a file, or the PDFs directly inside
// it in name order.
func collectPDFs(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, fmt.Errorf("failed to list source directory: %w", err)
	}

	var pdfs []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(source, e.Name()))
		}
	}
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", source)
	}
	return pdfs, nil
}

// collectExtractInputs lists the documents of source and the directory the
// ledger is written to.
func collectExtractInputs(source string) ([]sourceFile, string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source: %w", err)
	}

	dir := source
	var names []string
	if info.IsDir() {
		entries, err := os.ReadDir(source)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list source directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	} else {
		dir = filepath.Dir(source)
		names = []string{filepath.Base(source)}
	}
	sort.Strings(names)

	var files []sourceFile
	seen := make(map[string]bool)
	for _, name := range names {
		if name == reassemble.TranscriptFile {
			continue
		}

		path := filepath.Join(dir, name)
		stem := strings.TrimSuffix(name, filepath.Ext(name))

		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf", ".txt":
			if seen[stem] {
				continue
			}
			seen[stem] = true

			pdfName := name
			if strings.EqualFold(filepath.Ext(name), ".txt") {
				pdfName = findCompanion(dir, stem, ".pdf", name)
			}
			textPath := filepath.Join(dir, stem+".txt")
			if _, err := os.Stat(textPath); err == nil {
				files = append(files, sourceFile{Path: textPath, Filename: pdfName, Kind: kindText})
			} else {
				files = append(files, sourceFile{Path: path, Filename: name, Kind: kindPDF})
			}
		case ".ofx", ".qfx":
			files = append(files, sourceFile{Path: path, Filename: name, Kind: kindOFX})
		}
	}

	if len(files) == 0 {
		return nil, "", fmt.Errorf("no documents found in %s", source)
	}
	return files, filepath.Join(dir, "ledger"), nil
}

// findCompanion returns stem+ext when that file exists beside the text,
// otherwise fallback.
func findCompanion(dir, stem, ext, fallback string) string {
	if _, err := os.Stat(filepath.Join(dir, stem+ext)); err == nil {
		return stem + ext
	}
	return fallback
}
