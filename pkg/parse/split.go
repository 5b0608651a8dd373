package parse

import (
	"regexp"
	"strings"
)

// markedSegment is one slice of text introduced by a structural marker, with
// the marker's first capture group separated from the body that follows it.
type markedSegment struct {
	marker string
	body   string
}

// splitMarked cuts text at every match of re and returns the text before the
// first match plus one segment per match. The marker is taken from the first
// capture group; the body runs from the end of the match to the start of the
// next one.
func splitMarked(re *regexp.Regexp, text string) (string, []markedSegment) {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}

	head := text[:locs[0][0]]
	segments := make([]markedSegment, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		marker := ""
		if loc[2] >= 0 {
			marker = text[loc[2]:loc[3]]
		}
		segments = append(segments, markedSegment{
			marker: marker,
			body:   text[loc[1]:end],
		})
	}
	return head, segments
}

// splitBefore cuts text at the start of every match of re, keeping each
// match with the segment it introduces. The slice before the first match is
// included as the first element.
func splitBefore(re *regexp.Regexp, text string) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	segments := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		segments = append(segments, text[prev:loc[0]])
		prev = loc[0]
	}
	segments = append(segments, text[prev:])
	return segments
}

var (
	innerSpacePattern = regexp.MustCompile(`[ \t]+`)
	dashGlyphPattern  = regexp.MustCompile("[–—]")
)

// cleanText flattens a multi-line fragment into a single line: newlines
// become spaces, runs of whitespace collapse, legacy dash glyphs are mapped
// to "-" and stray leading/trailing punctuation is trimmed.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = dashGlyphPattern.ReplaceAllString(text, "-")
	text = innerSpacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, ". ")
	text = strings.TrimSuffix(text, " .")
	return strings.TrimSpace(text)
}
