// Package textmeta derives document metadata from extracted text: character,
// line, and word counts, an estimated reading time, and a preview snippet.
// Every function is pure and deterministic given its input.
package textmeta

import (
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/hyperjump/atsume/pkg/utils"
)

// wordsPerMinute is the reading speed the time estimate assumes.
const wordsPerMinute = 250

var (
	latinWord = regexp.MustCompile(`[A-Za-z0-9_]+`)
	cjkChar   = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
)

// CharCount returns the length of text in runes.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// CountLines returns the number of lines in text (line breaks + 1), or 0 for
// empty text.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := 1
	for _, r := range text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// CountWords counts Latin-alphanumeric runs plus individual CJK ideographs.
// This mixed-script count is an approximation, not a linguistic tokenizer.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(latinWord.FindAllStringIndex(text, -1)) + len(cjkChar.FindAllStringIndex(text, -1))
}

// ReadingMinutes estimates reading time from a word count, falling back to
// charCount/1.6 when wordCount is zero (scripts without word separation).
// Returns 0 when there is nothing to read, otherwise at least 1.
func ReadingMinutes(wordCount, charCount int) int {
	base := wordCount
	if base == 0 {
		base = int(math.Round(float64(charCount) / 1.6))
	}
	if base == 0 {
		return 0
	}
	minutes := int(math.Round(float64(base) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Snippet returns a whitespace-collapsed preview of text truncated to maxLen
// runes, with an ellipsis marker when truncated.
func Snippet(text string, maxLen int) string {
	return utils.Truncate(utils.CollapseWhitespace(text), maxLen)
}

// Build merges extractor-supplied metadata over existing metadata and fills
// in the derived counts for text. Values already present as numbers (for
// example a page count, or counts computed by an extractor) are kept; the
// derived charCount, lineCount, wordCount, and readingMinutes are only added
// when absent. Empty entries in a warnings list are dropped.
func Build(existing, extracted map[string]any, text string) map[string]any {
	meta := make(map[string]any, len(existing)+len(extracted)+4)
	for k, v := range existing {
		meta[k] = v
	}
	for k, v := range extracted {
		meta[k] = v
	}

	if !isNumber(meta["charCount"]) {
		meta["charCount"] = CharCount(text)
	}
	if !isNumber(meta["lineCount"]) {
		meta["lineCount"] = CountLines(text)
	}
	if !isNumber(meta["wordCount"]) {
		meta["wordCount"] = CountWords(text)
	}
	if !isNumber(meta["readingMinutes"]) {
		if minutes := ReadingMinutes(asInt(meta["wordCount"]), asInt(meta["charCount"])); minutes > 0 {
			meta["readingMinutes"] = minutes
		}
	}

	if warnings, ok := meta["warnings"].([]string); ok {
		var kept []string
		for _, w := range warnings {
			if w != "" {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			meta["warnings"] = kept
		} else {
			delete(meta, "warnings")
		}
	}

	return meta
}

// isNumber reports whether v is a numeric metadata value. JSON round-trips
// turn ints into float64, so both are accepted.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
