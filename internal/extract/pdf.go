package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/atsume/pkg/utils"
)

// extractPDF opens content as a paginated document and extracts text page by
// page. Pages are joined with a blank line; an unreadable document fails as a
// whole, while an empty page just contributes no text. The page count is
// reported in metadata.
func extractPDF(content []byte) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := r.NumPage()
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if text = utils.CollapseWhitespace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return &Result{
		Text:   strings.Join(pages, "\n\n"),
		Meta:   map[string]any{"pageCount": numPages, "source": "pdf"},
		Source: "pdf",
	}, nil
}
