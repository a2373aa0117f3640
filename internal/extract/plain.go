package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content verbatim as text, validating it is UTF-8.
// Invalid sequences are replaced with the replacement character.
func extractPlain(content []byte) (*Result, error) {
	return &Result{
		Text:   decodeUTF8(content),
		Meta:   map[string]any{"source": "plain-text"},
		Source: "plain-text",
	}, nil
}

func decodeUTF8(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "�")
}
