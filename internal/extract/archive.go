package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// extractArchive opens an archive-wrapped document: the first entry with a
// markdown or plain-text extension (case-insensitive) is extracted, markdown
// entries going through the markdown path. The matched entry path and the
// number of candidate entries are reported in metadata. An archive with no
// matching entry is a hard failure.
func extractArchive(content []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var candidates []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".md", ".markdown", ".txt":
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoArchiveEntry
	}

	target := candidates[0]
	rc, err := target.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", target.Name, err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read archive entry %s: %w", target.Name, err)
	}

	isMarkdown := strings.ToLower(path.Ext(target.Name)) != ".txt"
	text := decodeUTF8(data)
	source := "zip-text"
	if isMarkdown {
		text = MarkdownToText(data)
		source = "zip-markdown"
	}

	return &Result{
		Text: text,
		Meta: map[string]any{
			"innerFile":      target.Name,
			"extractedFiles": len(candidates),
			"source":         source,
		},
		Source: source,
	}, nil
}
