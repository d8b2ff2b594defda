// Package normalize repairs OCR-extracted text while preserving structure
// and domain part numbers.
package normalize

import (
	"regexp"
	"strings"
)

// OCR engines routinely emit typographic ligature glyphs for their
// plain-ASCII letter sequences.
var ligatureReplacer = strings.NewReplacer(
	"ﬁ", "fi", // ﬁ
	"ﬂ", "fl", // ﬂ
	"ﬀ", "ff", // ﬀ
	"ﬃ", "ffi", // ﬃ
	"ﬄ", "ffl", // ﬄ
	"ﬅ", "st", // ﬅ
	"ﬆ", "st", // ﬆ
)

// Apostrophes come back from OCR as assorted quote and accent glyphs.
var apostropheReplacer = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"‛", "'", // single high-reversed-9 quotation mark
	"′", "'", // prime
	"`", "'",
	"´", "'", // acute accent
)

var (
	blankRuns      = regexp.MustCompile(`\n{3,}`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
)

// Normalize canonicalizes extracted or OCR'd page text.
//
// Steps, in order: line endings to \n, runs of blank lines collapsed to a
// single blank line, ligature glyphs expanded, apostrophe glyphs unified,
// horizontal whitespace collapsed per line, leading/trailing whitespace
// trimmed. Line breaks are preserved throughout so line-item boundaries
// survive. Normalize is idempotent.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	text = ligatureReplacer.Replace(text)
	text = apostropheReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")

	// Whitespace-only lines emptied above can form fresh blank runs;
	// collapse again so the result is a fixed point.
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Part numbers look like #K-1234-5: a literal #K- prefix, four digits,
// a hyphen, and one final digit.
var (
	partNumberRe      = regexp.MustCompile(`#K-\d{4}-\d\b`)
	partNumberExactRe = regexp.MustCompile(`^#K-\d{4}-\d$`)
)

// PartNumbers extracts every part number token found in text, in order of
// appearance. Normalize never alters these tokens, so extraction before or
// after normalization yields the same set.
func PartNumbers(text string) []string {
	return partNumberRe.FindAllString(text, -1)
}

// ValidPartNumber reports whether s is exactly one part number token.
func ValidPartNumber(s string) bool {
	return partNumberExactRe.MatchString(s)
}

// PartNumberAt reports the boundaries [start,end) of a part number token
// covering position pos in text, if any. Chunking uses this to avoid
// splitting inside a token.
func PartNumberAt(text string, pos int) (int, int, bool) {
	// Tokens are 9 bytes; only a small window around pos can contain one.
	lo := pos - 9
	if lo < 0 {
		lo = 0
	}
	hi := pos + 9
	if hi > len(text) {
		hi = len(text)
	}
	for _, m := range partNumberRe.FindAllStringIndex(text[lo:hi], -1) {
		start, end := lo+m[0], lo+m[1]
		if start < pos && pos < end {
			return start, end, true
		}
	}
	return 0, 0, false
}
