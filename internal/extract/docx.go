package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// defaultDocumentXMLPath is the usual location of the document body in a
// .docx package; [Content_Types].xml can override it.
const defaultDocumentXMLPath = "word/document.xml"

const contentTypesPath = "[Content_Types].xml"

const mainPartContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtNode matches <w:t>…</w:t> with any attributes (e.g. xml:space="preserve").
var wtNode = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// Override elements in [Content_Types].xml, both attribute orders.
var (
	partNameFirst    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(mainPartContentType) + `"`)
	contentTypeFirst = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(mainPartContentType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDocx pulls the raw text out of a word-processor document. The .docx
// container is a zip whose main part is located via [Content_Types].xml; all
// <w:t> text nodes of that part are joined with spaces. Recoverable anomalies
// (missing content-types part, fallback to the default document path) are
// collected as warnings in metadata rather than failing the extraction.
func extractDocx(content []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: not a zip archive: %w", err)
	}

	var warnings []string
	docPath := mainDocumentPath(zr)
	if docPath == "" {
		docPath = defaultDocumentXMLPath
		warnings = append(warnings, "main document part not declared, assuming "+defaultDocumentXMLPath)
	}

	docXML, err := readZipEntry(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("read docx part %s: %w", docPath, err)
	}
	if docXML == nil {
		return nil, fmt.Errorf("docx part %s not found", docPath)
	}

	parts := wtNode.FindAllStringSubmatch(string(docXML), -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(decodeXMLEntities(strings.TrimSpace(p[1])))
	}

	meta := map[string]any{"source": "docx"}
	if len(warnings) > 0 {
		meta["warnings"] = warnings
	}
	return &Result{Text: strings.TrimSpace(b.String()), Meta: meta, Source: "docx"}, nil
}

// mainDocumentPath reads [Content_Types].xml and returns the declared main
// document part, without leading slash. Empty when undeclared or unreadable.
func mainDocumentPath(zr *zip.Reader) string {
	data, err := readZipEntry(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if m := partNameFirst.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	if m := contentTypeFirst.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	return ""
}

// readZipEntry returns the contents of the named entry, or nil when absent.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, nil
}

var xmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func decodeXMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return xmlEntities.Replace(s)
}
