// Package crossref finds branch identifiers in free text.
package crossref

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPattern matches "B", an optional separator and 3-4 digits,
// e.g. B123, b 071, B-4567, B:123.
const DefaultPattern = `(?i)B\s*[-:]?\s*\d{3,4}`

// separatorPattern matches the characters removed during normalization.
var separatorPattern = regexp.MustCompile(`[\s\-:]`)

// Extractor finds and normalizes branch identifiers.
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor compiles pattern into an Extractor. An empty pattern
// selects DefaultPattern.
func NewExtractor(pattern string) (*Extractor, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling identifier pattern %q: %w", pattern, err)
	}
	return &Extractor{pattern: re}, nil
}

// MustNewExtractor is like NewExtractor but panics on an invalid pattern.
func MustNewExtractor(pattern string) *Extractor {
	e, err := NewExtractor(pattern)
	if err != nil {
		panic(err)
	}
	return e
}

// Normalize strips whitespace, hyphens and colons and upper-cases the rest.
func Normalize(raw string) string {
	return strings.ToUpper(separatorPattern.ReplaceAllString(raw, ""))
}

// Extract returns every distinct normalized identifier in text, in the
// order of first occurrence.
func (e *Extractor) Extract(text string) []string {
	if text == "" {
		return nil
	}

	matches := e.pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var result []string
	for _, m := range matches {
		id := Normalize(m)
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// Contains reports whether the normalized identifier id occurs in text.
func (e *Extractor) Contains(text, id string) bool {
	for _, found := range e.Extract(text) {
		if found == id {
			return true
		}
	}
	return false
}
