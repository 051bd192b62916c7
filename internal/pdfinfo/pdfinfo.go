// Package pdfinfo pulls publication metadata out of typeset article PDFs.
package pdfinfo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/srmjournal/oja/internal/source"
)

// Extractor reads the printed page range from an article PDF.
type Extractor interface {
	PageRange(entry source.Entry) (string, error)
}

// Patterns tried in order against the first page's text. Typeset front
// matter varies between volumes, so several layouts are recognized.
var rangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Vol\.\s*\d+\s*,\s*No\.\s*\d+\s*,\s*pp\.\s*(\d+\s*[-\x{2013}\x{2014}]\s*\d+)`),
	regexp.MustCompile(`(?i)pp\.\s*(\d+\s*[-\x{2013}\x{2014}]\s*\d+)`),
	regexp.MustCompile(`(?i)Pages?\s*(\d+\s*[-\x{2013}\x{2014}]\s*\d+)`),
	regexp.MustCompile(`(?i)S\.\s*(\d+\s*[-\x{2013}\x{2014}]\s*\d+)`),
}

// FindRange scans text for a page range and normalizes it to "low-high"
// with a plain hyphen. It returns "" when no pattern matches.
func FindRange(text string) string {
	for _, p := range rangePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return normalizeRange(m[1])
	}
	return ""
}

func normalizeRange(s string) string {
	s = strings.NewReplacer("–", "-", "—", "-", " ", "", "\t", "").Replace(s)
	return s
}

// FileExtractor reads PDFs from disk or archive entries.
type FileExtractor struct{}

// PageRange extracts the page range from the first page of the PDF. A PDF
// without a recognizable range yields "" and no error; the caller decides
// whether missing metadata matters.
func (FileExtractor) PageRange(entry source.Entry) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", entry.Name(), err)
	}
	defer rc.Close()

	reader, err := pdf.NewReader(newBufferedReaderAt(rc), entry.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
	}
	if reader.NumPage() < 1 {
		return "", nil
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to read text from %s: %w", entry.Name(), err)
	}
	return FindRange(text), nil
}
