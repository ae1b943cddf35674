package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(text string, units []span) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = text[u.start:u.end]
	}
	return out
}

func TestSplitParagraphs(t *testing.T) {
	text := "First paragraph.\n\nSecond one here.\n\n\n  Third indented.  \n\nlast"

	units := splitParagraphs(text)
	assert.Equal(t, []string{
		"First paragraph.",
		"Second one here.",
		"Third indented.",
		"last",
	}, extract(text, units))
}

func TestSplitParagraphs_SingleParagraph(t *testing.T) {
	text := "  one paragraph\nacross two lines  "

	units := splitParagraphs(text)
	require.Len(t, units, 1)
	assert.Equal(t, "one paragraph\nacross two lines", text[units[0].start:units[0].end])
}

func TestSplitSentences(t *testing.T) {
	text := "A first one. Then another! A question? trailing tail"

	units := splitSentences(text)
	assert.Equal(t, []string{
		"A first one.",
		"Then another!",
		"A question?",
		"trailing tail",
	}, extract(text, units))
}

func TestSplitSentences_TerminatorRuns(t *testing.T) {
	text := "Wait!! Really?! Done."

	units := splitSentences(text)
	assert.Equal(t, []string{"Wait!!", "Really?!", "Done."}, extract(text, units))
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	text := "just words without punctuation"

	units := splitSentences(text)
	require.Len(t, units, 1)
	assert.Equal(t, text, text[units[0].start:units[0].end])
}

func TestUnitSpans_OversizedUnit(t *testing.T) {
	text := strings.Repeat("word ", 100) // one unit, no separators

	spans := unitSpans(text, splitParagraphs(text), 100, 20)
	require.Len(t, spans, 1)
	assert.Equal(t, strings.TrimSpace(text), text[spans[0].start:spans[0].end])
}

// When a trailing whole unit fits the overlap budget the next fragment
// starts exactly at that unit's boundary.
func TestUnitSpans_SeedAtUnitBoundary(t *testing.T) {
	sentence := "Sent one is right here." // 23 bytes
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 6))

	spans := unitSpans(text, splitSentences(text), 100, 30)
	require.Len(t, spans, 2)

	assert.Equal(t, span{0, 95}, spans[0])
	assert.Equal(t, 72, spans[1].start, "seed should land on the trailing sentence boundary")
	assert.True(t, strings.HasPrefix(text[spans[1].start:], "Sent"))
	assert.Equal(t, 23, spans[0].end-spans[1].start)
}

func TestOverlapSeed_WordSnap(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("ab ", 100)) // 299 bytes
	units := []span{{0, len(text)}}

	seed := overlapSeed(text, 0, len(text), units, 61)
	// 61 back from the end lands mid-word; the seed advances to the next
	// word start, keeping at least 75% of the overlap.
	assert.Equal(t, 240, seed)
	assert.GreaterOrEqual(t, len(text)-seed, 61*3/4)
}

// A tail with no word boundary close enough falls back to the exact
// overlap cut, even mid-word.
func TestOverlapSeed_ExactTailFallback(t *testing.T) {
	text := strings.Repeat("a", 140) + strings.Repeat("x", 60)
	units := []span{{0, len(text)}}

	seed := overlapSeed(text, 0, len(text), units, 50)
	assert.Equal(t, 150, seed)
}

// A fragment no longer than the overlap is reused whole.
func TestOverlapSeed_TinyFragment(t *testing.T) {
	text := "short tail here"
	units := []span{{0, len(text)}}

	seed := overlapSeed(text, 0, len(text), units, 50)
	assert.Equal(t, 0, seed)
}
