// Package extract converts raw document bytes into plain text, one extractor
// per format category. Extractors are pure functions of their input; they do
// not touch storage.
package extract

import (
	"errors"
	"fmt"

	"github.com/hyperjump/atsume/internal/registry"
)

// ErrNoArchiveEntry is returned when an archive holds no markdown or text entry.
var ErrNoArchiveEntry = errors.New("no markdown or text file found in archive")

// ErrUnsupportedCategory is returned when no extractor exists for a category.
var ErrUnsupportedCategory = errors.New("unsupported document category")

// Result is the outcome of one extraction: the plain text, category-specific
// metadata (page count, inner file name, parser warnings), and the identity
// of the extractor that produced the text.
type Result struct {
	Text   string
	Meta   map[string]any
	Source string
}

// Extract dispatches content to the extractor for def's category.
func Extract(content []byte, def *registry.Definition) (*Result, error) {
	if def == nil {
		return nil, ErrUnsupportedCategory
	}
	switch def.Category {
	case registry.CategoryMarkdown:
		return extractMarkdown(content)
	case registry.CategoryText:
		return extractPlain(content)
	case registry.CategoryPDF:
		return extractPDF(content)
	case registry.CategoryDocx:
		return extractDocx(content)
	case registry.CategoryZip:
		return extractArchive(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCategory, def.Category)
	}
}
