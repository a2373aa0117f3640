// Package registry is the static format table: it maps file categories to
// matching rules (extension, MIME type), display labels, and the extraction
// source to dispatch to.
package registry

import (
	"strings"

	"github.com/hyperjump/atsume/internal/models"
)

// Known document categories. CategoryOther marks records whose extension and
// declared type match no registry entry.
const (
	CategoryMarkdown = "markdown"
	CategoryText     = "text"
	CategoryPDF      = "pdf"
	CategoryDocx     = "docx"
	CategoryZip      = "zip"
	CategoryOther    = "other"
)

// Defaults used when a record resolves to no registry entry.
const (
	DefaultLabel = "Other"
	DefaultIcon  = "📎"
)

// Definition describes one supported document category.
type Definition struct {
	Category   string
	Label      string
	Icon       string
	Source     string // extractor identity recorded as textSource
	Extensions []string
	MIMETypes  []string
}

var definitions = []Definition{
	{
		Category:   CategoryMarkdown,
		Label:      "Markdown",
		Icon:       "✍️",
		Source:     "markdown",
		Extensions: []string{".md", ".markdown"},
		MIMETypes:  []string{"text/markdown", "text/x-markdown"},
	},
	{
		Category:   CategoryText,
		Label:      "Plain text",
		Icon:       "📄",
		Source:     "plain-text",
		Extensions: []string{".txt", ".text", ".log"},
		MIMETypes:  []string{"text/plain"},
	},
	{
		Category:   CategoryPDF,
		Label:      "PDF",
		Icon:       "📕",
		Source:     "pdf",
		Extensions: []string{".pdf"},
		MIMETypes:  []string{"application/pdf"},
	},
	{
		Category:   CategoryDocx,
		Label:      "Word",
		Icon:       "📝",
		Source:     "docx",
		Extensions: []string{".docx"},
		MIMETypes:  []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	},
	{
		Category:   CategoryZip,
		Label:      "ZIP archive",
		Icon:       "🗜️",
		Source:     "zip",
		Extensions: []string{".zip"},
		MIMETypes:  []string{"application/zip", "application/x-zip-compressed"},
	},
}

var (
	byExtension = map[string]*Definition{}
	byMIME      = map[string]*Definition{}
	byCategory  = map[string]*Definition{}
)

func init() {
	for i := range definitions {
		def := &definitions[i]
		byCategory[def.Category] = def
		for _, ext := range def.Extensions {
			byExtension[ext] = def
		}
		for _, mime := range def.MIMETypes {
			byMIME[mime] = def
		}
	}
}

// Classify resolves a file name and declared MIME type to a category
// definition. The extension table is consulted first, then the MIME table.
// Returns nil when neither matches; classification is a pure function of
// its inputs.
func Classify(name, declaredType string) *Definition {
	if def, ok := byExtension[models.ExtensionOf(name)]; ok {
		return def
	}
	mime := strings.ToLower(strings.TrimSpace(declaredType))
	// Declared types may carry parameters, e.g. "text/plain; charset=utf-8".
	if base, _, found := strings.Cut(mime, ";"); found {
		mime = strings.TrimSpace(base)
	}
	if def, ok := byMIME[mime]; ok {
		return def
	}
	return nil
}

// ByCategory returns the definition for a normalized category, or nil.
func ByCategory(category string) *Definition {
	return byCategory[category]
}

// LabelFor returns the display label for a category, or DefaultLabel for
// unknown categories.
func LabelFor(category string) string {
	if def := ByCategory(NormalizeCategory(category)); def != nil {
		return def.Label
	}
	return DefaultLabel
}

// NormalizeCategory folds category aliases seen in older records onto the
// canonical category names. Unknown values pass through lowercased.
func NormalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "md", "markdown":
		return CategoryMarkdown
	case "txt", "text", "plain":
		return CategoryText
	case "pdf":
		return CategoryPDF
	case "doc", "docx", "word":
		return CategoryDocx
	case "zip", "compressed":
		return CategoryZip
	case "":
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(category))
	}
}

// DefinitionFor re-derives the category definition for a stored record.
// It tolerates legacy records with a missing or aliased category by falling
// back to the extension and declared type. Returns nil when nothing matches.
func DefinitionFor(rec *models.DocumentRecord) *Definition {
	if rec == nil {
		return nil
	}
	if def := ByCategory(NormalizeCategory(rec.Category)); def != nil {
		return def
	}
	ext := rec.Extension
	if ext == "" {
		ext = models.ExtensionOf(rec.Name)
	}
	if def, ok := byExtension[ext]; ok {
		return def
	}
	if def, ok := byMIME[strings.ToLower(rec.Type)]; ok {
		return def
	}
	return nil
}

// InferCategory returns the registry category for a record, or CategoryOther
// when no definition matches.
func InferCategory(rec *models.DocumentRecord) string {
	if def := DefinitionFor(rec); def != nil {
		return def.Category
	}
	return CategoryOther
}

// Definitions returns the registered category definitions in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// WatchExtensions returns every registered file extension, used by the
// drop-directory watcher to filter events.
func WatchExtensions() []string {
	var exts []string
	for _, def := range definitions {
		exts = append(exts, def.Extensions...)
	}
	return exts
}
