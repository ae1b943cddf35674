package segment

// fixedSpans slides a window of targetSize bytes across text. Each cut
// snaps back to a word boundary when that loses at most 20% of the
// window; the next window starts overlap bytes before the previous end,
// so no text falls between windows.
func fixedSpans(text string, targetSize, overlap int) []span {
	n := len(text)
	spans := make([]span, 0, n/(targetSize-overlap)+1)

	start := 0
	for start < n {
		end := start + targetSize
		if end >= n {
			spans = append(spans, span{start, n})
			break
		}
		end = wordBoundary(text, start, end)
		spans = append(spans, span{start, end})

		next := runeStart(text, end-overlap)
		if next <= start {
			// Overlap close to the window size after a deep snap would
			// stop making progress; give up the overlap for this step.
			next = end
		}
		start = next
	}
	return spans
}

// wordBoundary backs the cut at end off to the nearest preceding
// whitespace when that loses at most 20% of the window. When no boundary
// is close enough the cut stays exact, aligned to a rune start.
func wordBoundary(text string, start, end int) int {
	if isSpace(text[end]) || isSpace(text[end-1]) {
		return end
	}
	budget := (end - start) / 5
	for loss := 1; loss <= budget; loss++ {
		pos := end - loss
		if pos <= start {
			break
		}
		if isSpace(text[pos-1]) {
			return pos
		}
	}
	return runeStart(text, end)
}
