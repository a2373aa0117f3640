package projection

import (
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/atsume/internal/models"
)

func readyDoc(id, name, category, text string, uploaded time.Time) *models.DocumentRecord {
	return &models.DocumentRecord{
		ID:          id,
		Name:        name,
		Category:    category,
		Extension:   models.ExtensionOf(name),
		UploadDate:  uploaded,
		UpdatedAt:   uploaded,
		Status:      models.StatusReady,
		TextContent: text,
		Meta:        map[string]any{},
	}
}

func TestProject_sortsNewestFirst(t *testing.T) {
	base := time.Now()
	records := []*models.DocumentRecord{
		readyDoc("a", "first.md", "markdown", "alpha", base.Add(-2*time.Hour)),
		readyDoc("b", "second.md", "markdown", "beta", base),
		readyDoc("c", "third.md", "markdown", "gamma", base.Add(-time.Hour)),
	}

	docs := Project(records, Options{})
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	for i, want := range []string{"b", "c", "a"} {
		if docs[i].ID != want {
			t.Errorf("docs[%d].ID = %s, want %s", i, docs[i].ID, want)
		}
	}
}

func TestProject_conjunctiveFilters(t *testing.T) {
	now := time.Now()
	records := []*models.DocumentRecord{
		readyDoc("1", "biology-notes.md", "markdown", "cell membranes and mitochondria", now),
		readyDoc("2", "biology-summary.txt", "text", "photosynthesis overview", now),
		readyDoc("3", "history-notes.md", "markdown", "cell block history", now),
	}

	// Search alone.
	docs := Project(records, Options{Search: "CELL"})
	if len(docs) != 2 {
		t.Fatalf("search matches = %d, want 2", len(docs))
	}

	// Category alone, with alias folding.
	docs = Project(records, Options{Category: "md"})
	if len(docs) != 2 {
		t.Fatalf("category matches = %d, want 2", len(docs))
	}

	// Both filters must hold.
	docs = Project(records, Options{Search: "cell", Category: "markdown"})
	if len(docs) != 2 {
		t.Fatalf("conjunctive matches = %d, want 2", len(docs))
	}
	docs = Project(records, Options{Search: "photosynthesis", Category: "markdown"})
	if len(docs) != 0 {
		t.Fatalf("conjunctive matches = %d, want 0", len(docs))
	}
}

func TestProject_otherCategory(t *testing.T) {
	now := time.Now()
	records := []*models.DocumentRecord{
		readyDoc("known", "notes.md", "markdown", "text", now),
		readyDoc("stray", "scan.jpg", "", "", now),
	}

	docs := Project(records, Options{Category: "other"})
	if len(docs) != 1 || docs[0].ID != "stray" {
		t.Fatalf("other matches = %v", docs)
	}
}

func TestProject_searchCoversNameAndPreview(t *testing.T) {
	now := time.Now()
	records := []*models.DocumentRecord{
		readyDoc("1", "untitled.md", "markdown", "the quick brown fox", now),
	}

	if docs := Project(records, Options{Search: "untitled"}); len(docs) != 1 {
		t.Error("name should be searchable")
	}
	if docs := Project(records, Options{Search: "brown fox"}); len(docs) != 1 {
		t.Error("text preview should be searchable")
	}
	if docs := Project(records, Options{Search: "zebra"}); len(docs) != 0 {
		t.Error("non-matching search should exclude")
	}
}

func TestProject_doesNotMutateInput(t *testing.T) {
	rec := readyDoc("1", "scan.jpg", "", "", time.Now())
	_ = Project([]*models.DocumentRecord{rec}, Options{})
	if rec.Category != "" {
		t.Errorf("input record mutated: Category = %q", rec.Category)
	}
	if len(rec.Meta) != 0 {
		t.Errorf("input record mutated: Meta = %v", rec.Meta)
	}
}

func TestEnrich_labelsAndPreview(t *testing.T) {
	rec := readyDoc("1", "paper.pdf", "pdf", "body of the paper", time.Now())
	doc := Enrich(rec)

	if doc.CategoryLabel != "PDF" || doc.Icon == "" {
		t.Errorf("label = %q, icon = %q", doc.CategoryLabel, doc.Icon)
	}
	if doc.StatusLabel != "Ready" {
		t.Errorf("StatusLabel = %q", doc.StatusLabel)
	}
	if doc.TextPreview != "body of the paper" {
		t.Errorf("TextPreview = %q", doc.TextPreview)
	}
	if !strings.Contains(doc.SearchIndex, "paper.pdf") {
		t.Errorf("SearchIndex = %q", doc.SearchIndex)
	}
}

func TestEnrich_truncatesPreview(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 40)
	doc := Enrich(readyDoc("1", "long.txt", "text", long, time.Now()))
	if n := len([]rune(doc.TextPreview)); n > models.SnippetLength+1 {
		t.Errorf("preview length = %d runes, want at most %d plus ellipsis", n, models.SnippetLength)
	}
	if !strings.HasSuffix(doc.TextPreview, "…") {
		t.Errorf("long preview should be truncated with ellipsis: %q", doc.TextPreview)
	}
}

func TestEnrich_backfillsLegacyMetaAndStatus(t *testing.T) {
	rec := &models.DocumentRecord{
		ID:          "legacy",
		Name:        "old.md",
		Category:    "markdown",
		UploadDate:  time.Now(),
		Status:      "done", // unknown status from an old schema
		TextContent: "legacy extracted text",
		Meta:        map[string]any{},
	}
	doc := Enrich(rec)

	if doc.Status != models.StatusReady {
		t.Errorf("Status = %q, want ready", doc.Status)
	}
	if doc.Meta["charCount"] == nil || doc.Meta["wordCount"] == nil {
		t.Errorf("counts not backfilled: %v", doc.Meta)
	}
	if rec.Status != "done" {
		t.Error("Enrich must not mutate the stored record")
	}
}

func TestEnrich_unknownCategoryFallsBack(t *testing.T) {
	doc := Enrich(readyDoc("1", "scan.jpg", "", "", time.Now()))
	if doc.Category != "other" {
		t.Errorf("Category = %q, want other", doc.Category)
	}
	if doc.CategoryLabel != "Other" || doc.Icon == "" {
		t.Errorf("label = %q, icon = %q", doc.CategoryLabel, doc.Icon)
	}
}
