package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// buildZip assembles an in-memory zip from name->content pairs, in order.
func buildZip(t *testing.T, entries []struct{ name, content string }) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatalf("write zip entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Ampersand &amp; angle &lt;brackets&gt;</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDocx(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"word/document.xml", documentXML},
	})

	res, err := extractDocx(content)
	if err != nil {
		t.Fatalf("extractDocx: %v", err)
	}
	if res.Source != "docx" {
		t.Errorf("Source = %q", res.Source)
	}
	for _, want := range []string{"Hello", "world", "Ampersand & angle <brackets>"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("text missing %q: %q", want, res.Text)
		}
	}
	if _, ok := res.Meta["warnings"]; ok {
		t.Errorf("unexpected warnings: %v", res.Meta["warnings"])
	}
}

func TestExtractDocx_declaredPartPath(t *testing.T) {
	// The main part can live somewhere other than word/document.xml.
	types := strings.ReplaceAll(contentTypesXML, "/word/document.xml", "/word/document2.xml")
	content := buildZip(t, []struct{ name, content string }{
		{"[Content_Types].xml", types},
		{"word/document2.xml", `<w:document><w:body><w:p><w:r><w:t>Relocated</w:t></w:r></w:p></w:body></w:document>`},
	})

	res, err := extractDocx(content)
	if err != nil {
		t.Fatalf("extractDocx: %v", err)
	}
	if !strings.Contains(res.Text, "Relocated") {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractDocx_missingContentTypes(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"word/document.xml", `<w:document><w:body><w:p><w:r><w:t>Fallback path</w:t></w:r></w:p></w:body></w:document>`},
	})

	res, err := extractDocx(content)
	if err != nil {
		t.Fatalf("extractDocx: %v", err)
	}
	if !strings.Contains(res.Text, "Fallback path") {
		t.Errorf("text = %q", res.Text)
	}
	warnings, _ := res.Meta["warnings"].([]string)
	if len(warnings) == 0 {
		t.Error("expected a warning about the undeclared main part")
	}
}

func TestExtractDocx_notAZip(t *testing.T) {
	if _, err := extractDocx([]byte("this is not a zip archive")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestExtractDocx_missingDocumentPart(t *testing.T) {
	content := buildZip(t, []struct{ name, content string }{
		{"word/styles.xml", "<w:styles/>"},
	})
	if _, err := extractDocx(content); err == nil {
		t.Fatal("expected error when the document part is absent")
	}
}
