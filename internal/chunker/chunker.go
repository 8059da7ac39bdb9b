// Package chunker splits normalised text into token-bounded passages
// while preserving paragraph and sentence boundaries.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default token budgets.
const (
	DefaultTargetTokens  = 200
	DefaultMaxTokens     = 320
	DefaultMinTokens     = 80
	DefaultOverlapTokens = 40
)

var (
	segmentRe  = regexp.MustCompile(`\n\s*\n`)
	sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

// Chunker produces ordered passages covering its input. Passages are
// built from paragraph segments; oversized segments are shrunk along
// sentence boundaries, falling back to fixed-size slicing.
type Chunker struct {
	target  int
	max     int
	min     int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetTokens sets the preferred passage size in tokens.
func WithTargetTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.target = n
		}
	}
}

// WithMaxTokens sets the hard passage size ceiling in tokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.max = n
		}
	}
}

// WithMinTokens sets the minimum size a passage must reach before the
// ceiling may close it.
func WithMinTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.min = n
		}
	}
}

// WithOverlapTokens sets the trailing-token window carried into the
// next passage when one is closed.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		target:  DefaultTargetTokens,
		max:     DefaultMaxTokens,
		min:     DefaultMinTokens,
		overlap: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.min > c.max {
		c.min = c.max
	}
	return c
}

// Passage is one chunk of the input text. StartChar and EndChar form a
// half-open byte span into the input; Text equals input[StartChar:EndChar].
type Passage struct {
	Text       string
	StartChar  int
	EndChar    int
	TokenCount int
	Segments   int
}

// segment is an atomic unit during packing: a trimmed span of the input.
type segment struct {
	text  string
	start int
	end   int
}

// Split chunks text into passages respecting the token budgets.
// Empty or whitespace-only input yields no passages.
func (c *Chunker) Split(text string) []Passage {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []segment
	for _, seg := range paragraphSegments(text) {
		units = append(units, c.shrink(seg)...)
	}

	var passages []Passage
	var current []segment
	currentTokens := 0

	for _, seg := range units {
		segTokens := countTokens(seg.text)
		switch {
		case len(current) == 0:
			current = append(current, seg)
			currentTokens = segTokens

		case currentTokens+segTokens <= c.max:
			current = append(current, seg)
			currentTokens += segTokens

		case currentTokens < c.min:
			// Minimum size takes priority over the ceiling so short
			// tails near a boundary still form a usable passage.
			current = append(current, seg)
			currentTokens += segTokens

		default:
			passages = append(passages, finalize(text, current))
			current = c.overlapTail(current)
			current = append(current, seg)
			currentTokens = 0
			for _, s := range current {
				currentTokens += countTokens(s.text)
			}
		}
	}

	if len(current) > 0 {
		passages = append(passages, finalize(text, current))
	}
	return passages
}

// paragraphSegments splits text on blank-line boundaries, trimming
// whitespace at each segment's edges.
func paragraphSegments(text string) []segment {
	var segs []segment
	last := 0
	for _, m := range segmentRe.FindAllStringIndex(text, -1) {
		if seg, ok := trimSpan(text, last, m[0]); ok {
			segs = append(segs, seg)
		}
		last = m[1]
	}
	if last < len(text) {
		if seg, ok := trimSpan(text, last, len(text)); ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// shrink reduces a segment until every atomic unit fits the ceiling:
// first along sentence boundaries, then by fixed-size slicing when
// sentence splitting cannot reduce it further.
func (c *Chunker) shrink(seg segment) []segment {
	if countTokens(seg.text) <= c.max {
		return []segment{seg}
	}
	sentences := sentenceSegments(seg)
	if len(sentences) > 1 {
		var out []segment
		for _, s := range sentences {
			out = append(out, c.shrink(s)...)
		}
		return out
	}
	return c.slice(seg)
}

// sentenceSegments splits a segment along sentence terminators.
func sentenceSegments(seg segment) []segment {
	var out []segment
	for _, m := range sentenceRe.FindAllStringIndex(seg.text, -1) {
		if s, ok := trimSpan(seg.text, m[0], m[1]); ok {
			out = append(out, segment{
				text:  s.text,
				start: seg.start + s.start,
				end:   seg.start + s.end,
			})
		}
	}
	return out
}

// slice cuts an oversized unit without usable sentence boundaries into
// windows of at most max tokens along word boundaries. An oversized
// unit always has at least two words, so the cut makes progress.
func (c *Chunker) slice(seg segment) []segment {
	words := wordSpans(seg.text)
	if len(words) < 2 {
		return []segment{seg}
	}
	var out []segment
	for i := 0; i < len(words); i += c.max {
		j := i + c.max
		if j > len(words) {
			j = len(words)
		}
		out = append(out, segment{
			text:  seg.text[words[i][0]:words[j-1][1]],
			start: seg.start + words[i][0],
			end:   seg.start + words[j-1][1],
		})
	}
	return out
}

// overlapTail returns the trailing segments of a closed passage that
// fit within the overlap budget, seeding the next passage.
func (c *Chunker) overlapTail(segs []segment) []segment {
	if len(segs) == 0 || c.overlap <= 0 {
		return nil
	}
	budget := 0
	keep := len(segs)
	for i := len(segs) - 1; i >= 0; i-- {
		tokens := countTokens(segs[i].text)
		if budget+tokens > c.overlap {
			break
		}
		budget += tokens
		keep = i
	}
	if keep == len(segs) {
		return nil
	}
	tail := make([]segment, len(segs)-keep)
	copy(tail, segs[keep:])
	return tail
}

// finalize builds a passage spanning from the first to the last segment.
func finalize(text string, segs []segment) Passage {
	start := segs[0].start
	end := segs[len(segs)-1].end
	body := text[start:end]
	return Passage{
		Text:       body,
		StartChar:  start,
		EndChar:    end,
		TokenCount: countTokens(body),
		Segments:   len(segs),
	}
}

// trimSpan narrows [start, end) to exclude leading and trailing
// whitespace. Reports false when nothing remains.
func trimSpan(text string, start, end int) (segment, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return segment{}, false
	}
	return segment{text: text[start:end], start: start, end: end}, true
}

// wordSpans returns the byte spans of whitespace-delimited words.
func wordSpans(text string) [][2]int {
	var spans [][2]int
	inWord := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				spans = append(spans, [2]int{start, i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// countTokens approximates token count as whitespace-delimited words,
// minimum 1.
func countTokens(text string) int {
	n := len(strings.Fields(text))
	if n < 1 {
		return 1
	}
	return n
}
