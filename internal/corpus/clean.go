package corpus

import (
	"bytes"
	"regexp"
	"strings"
)

// annotationPattern matches a [[...]] transcription annotation. The lazy
// quantifier closes each span at the nearest "]]".
var annotationPattern = regexp.MustCompile(`\[\[.*?\]\]`)

// CleanText removes every [[...]] annotation span (for example [[inaudible]])
// and trims surrounding whitespace. When a span sits between two runs of
// whitespace only the trailing run is kept, so "Hello [[cough]] world"
// becomes "Hello world". CleanText(CleanText(s)) == CleanText(s).
func CleanText(raw string) string {
	spans := annotationPattern.FindAllStringIndex(raw, -1)
	if len(spans) == 0 {
		return strings.TrimSpace(raw)
	}

	out := make([]byte, 0, len(raw))
	last := 0
	for _, span := range spans {
		out = append(out, raw[last:span[0]]...)
		last = span[1]
		if last == len(raw) || isHorizontalSpace(raw[last]) {
			out = bytes.TrimRight(out, " \t")
		}
	}
	out = append(out, raw[last:]...)
	return strings.TrimSpace(string(out))
}

func isHorizontalSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
