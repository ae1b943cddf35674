package segment

import (
	"regexp"
	"unicode/utf8"
)

// span is a half-open byte range into the source text.
type span struct {
	start int
	end   int
}

var (
	// paragraphGapPattern matches the blank-line runs separating paragraphs.
	paragraphGapPattern = regexp.MustCompile(`\n\s*\n`)

	// sentencePattern matches a run of text up to and including its
	// terminal punctuation. Text after the last terminator is handled
	// separately so unterminated tails are not lost.
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// splitParagraphs returns the spans of blank-line-delimited paragraphs,
// trimmed of surrounding whitespace.
func splitParagraphs(text string) []span {
	seps := paragraphGapPattern.FindAllStringIndex(text, -1)
	units := make([]span, 0, len(seps)+1)
	start := 0
	for _, sep := range seps {
		units = appendUnit(units, text, start, sep[0])
		start = sep[1]
	}
	return appendUnit(units, text, start, len(text))
}

// splitSentences returns the spans of terminator-delimited sentences,
// trimmed of surrounding whitespace.
func splitSentences(text string) []span {
	matches := sentencePattern.FindAllStringIndex(text, -1)
	units := make([]span, 0, len(matches)+1)
	last := 0
	for _, m := range matches {
		units = appendUnit(units, text, m[0], m[1])
		last = m[1]
	}
	return appendUnit(units, text, last, len(text))
}

// appendUnit appends [start, end) trimmed of surrounding whitespace,
// dropping it if nothing remains.
func appendUnit(units []span, text string, start, end int) []span {
	u := trimSpan(text, start, end)
	if u.end > u.start {
		units = append(units, u)
	}
	return units
}

func trimSpan(text string, start, end int) span {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return span{start, end}
}

// unitSpans accumulates whole units into fragments of at most targetSize
// bytes, seeding each fragment after the first with the previous
// fragment's tail. The first unit of a fragment is taken unconditionally
// so oversized units still make progress.
func unitSpans(text string, units []span, targetSize, overlap int) []span {
	if len(units) == 0 {
		return []span{trimSpan(text, 0, len(text))}
	}

	spans := make([]span, 0, len(units))
	seed := -1
	i := 0
	for i < len(units) {
		start := units[i].start
		if seed >= 0 {
			start = seed
		}
		end := units[i].end
		first := i
		i++
		for i < len(units) && units[i].end-start <= targetSize {
			end = units[i].end
			i++
		}
		spans = append(spans, span{start, end})

		if i < len(units) && overlap > 0 {
			seed = overlapSeed(text, start, end, units[first:i], overlap)
		}
	}
	return spans
}

// overlapSeed picks where the next fragment starts inside the fragment
// that just flushed: the earliest trailing unit boundary whose tail fits
// the overlap budget, else a word-boundary cut inside the last unit that
// keeps at least 75% of the budget, else the exact tail.
func overlapSeed(text string, fragStart, fragEnd int, units []span, overlap int) int {
	if fragEnd-fragStart <= overlap {
		return fragStart
	}

	seed := -1
	for m := len(units) - 1; m >= 0; m-- {
		if fragEnd-units[m].start > overlap {
			break
		}
		seed = units[m].start
	}
	if seed >= 0 {
		return seed
	}

	exact := runeStart(text, fragEnd-overlap)
	pos := exact
	if pos > fragStart && !isSpace(text[pos]) && !isSpace(text[pos-1]) {
		// Mid-word: move past the split word so the seed starts clean.
		for pos < fragEnd && !isSpace(text[pos]) {
			pos++
		}
	}
	for pos < fragEnd && isSpace(text[pos]) {
		pos++
	}
	if fragEnd-pos >= overlap*3/4 {
		return pos
	}
	return exact
}

// runeStart backs pos off to the start of the UTF-8 sequence it lands in.
func runeStart(text string, pos int) int {
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
