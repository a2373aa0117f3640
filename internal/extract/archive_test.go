package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractArchive_markdownEntry(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"photos/cover.jpg", "\xff\xd8\xff"},
		{"notes/chapter1.md", "# Chapter One\n\nThe actual content."},
		{"extra.txt", "ignored, the markdown entry comes first"},
	})

	res, err := extractArchive(content)
	if err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if res.Source != "zip-markdown" {
		t.Errorf("Source = %q", res.Source)
	}
	if !strings.Contains(res.Text, "Chapter One") || !strings.Contains(res.Text, "The actual content.") {
		t.Errorf("text = %q", res.Text)
	}
	if strings.Contains(res.Text, "#") {
		t.Errorf("markdown markup survived: %q", res.Text)
	}
	if res.Meta["innerFile"] != "notes/chapter1.md" {
		t.Errorf("innerFile = %v", res.Meta["innerFile"])
	}
	if res.Meta["extractedFiles"] != 2 {
		t.Errorf("extractedFiles = %v, want 2", res.Meta["extractedFiles"])
	}
}

func TestExtractArchive_textEntry(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"README.TXT", "plain text payload"},
	})

	res, err := extractArchive(content)
	if err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if res.Source != "zip-text" {
		t.Errorf("Source = %q", res.Source)
	}
	if res.Text != "plain text payload" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractArchive_noUsableEntry(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"photo.jpg", "\xff\xd8\xff"},
		{"data.bin", "\x00\x01"},
	})

	_, err := extractArchive(content)
	if !errors.Is(err, ErrNoArchiveEntry) {
		t.Fatalf("err = %v, want ErrNoArchiveEntry", err)
	}
}

func TestExtractArchive_corrupt(t *testing.T) {
	if _, err := extractArchive([]byte("not a zip")); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}
