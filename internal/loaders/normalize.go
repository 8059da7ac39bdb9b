// Package loaders extracts documents from supported file formats.
package loaders

import (
	"regexp"
	"strings"
)

var (
	crlfRe       = regexp.MustCompile(`\r\n?`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	trailingRe   = regexp.MustCompile(`[ \t]+\n`)
	horizSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize canonicalises extracted text: unix line endings, no
// trailing spaces, runs of blank lines collapsed to one paragraph
// break, outer whitespace stripped. Chunk spans index into the result,
// so it is computed exactly once at load time.
func Normalize(text string) string {
	text = crlfRe.ReplaceAllString(text, "\n")
	text = trailingRe.ReplaceAllString(text, "\n")
	text = horizSpaceRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
