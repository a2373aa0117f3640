// Package projection derives render-ready views of stored documents:
// enrichment with category labels and preview snippets, plus conjunctive
// free-text and category filtering.
package projection

import (
	"sort"
	"strings"

	"github.com/hyperjump/atsume/internal/models"
	"github.com/hyperjump/atsume/internal/registry"
	"github.com/hyperjump/atsume/internal/textmeta"
)

// Status badge labels keyed by record status.
var statusLabels = map[string]string{
	models.StatusProcessing: "Processing",
	models.StatusReady:      "Ready",
	models.StatusError:      "Failed",
}

// EnrichedDocument is a DocumentRecord extended with display fields.
type EnrichedDocument struct {
	models.DocumentRecord
	CategoryLabel string `json:"categoryLabel"`
	Icon          string `json:"icon"`
	TextPreview   string `json:"textPreview"`
	SearchIndex   string `json:"searchIndex"`
	StatusLabel   string `json:"statusLabel"`
}

// Options filter a projection. Both filters are optional and combined
// conjunctively; Category "other" selects records matching no registry entry.
type Options struct {
	Search   string
	Category string
}

// Project enriches records and applies opts, returning the matches sorted
// newest upload first (stable for equal timestamps). Input records are not
// mutated; enrichment works on copies.
func Project(records []*models.DocumentRecord, opts Options) []*EnrichedDocument {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	category := registry.NormalizeCategory(opts.Category)

	var out []*EnrichedDocument
	for _, rec := range records {
		if rec == nil {
			continue
		}
		doc := Enrich(rec)
		if !matchesCategory(doc, category) {
			continue
		}
		if search != "" && !strings.Contains(doc.SearchIndex, search) {
			continue
		}
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out
}

// Enrich builds the display view of one record. The record's category is
// normalized (re-inferred from extension/type when unknown) and metadata
// counts are backfilled for legacy records whose extraction predates them.
func Enrich(rec *models.DocumentRecord) *EnrichedDocument {
	doc := &EnrichedDocument{DocumentRecord: *rec}
	doc.Meta = make(map[string]any, len(rec.Meta))
	for k, v := range rec.Meta {
		doc.Meta[k] = v
	}

	doc.Category = registry.InferCategory(rec)
	if def := registry.ByCategory(doc.Category); def != nil {
		doc.CategoryLabel = def.Label
		doc.Icon = def.Icon
		if doc.TextSource == "" {
			doc.TextSource = def.Source
		}
	} else {
		doc.CategoryLabel = registry.DefaultLabel
		doc.Icon = registry.DefaultIcon
	}

	if doc.TextContent != "" {
		doc.Meta = textmeta.Build(doc.Meta, nil, doc.TextContent)
	}
	if _, ok := statusLabels[doc.Status]; !ok {
		switch {
		case doc.TextContent != "":
			doc.Status = models.StatusReady
		case doc.ErrorMessage != "":
			doc.Status = models.StatusError
		default:
			doc.Status = models.StatusProcessing
		}
	}
	doc.StatusLabel = statusLabels[doc.Status]

	doc.TextPreview = textmeta.Snippet(doc.TextContent, models.SnippetLength)
	doc.SearchIndex = strings.ToLower(doc.Name + " " + doc.TextPreview)
	return doc
}

func matchesCategory(doc *EnrichedDocument, category string) bool {
	switch category {
	case "":
		return true
	case registry.CategoryOther:
		return registry.ByCategory(doc.Category) == nil
	default:
		return doc.Category == category
	}
}
