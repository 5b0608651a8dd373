package parse

import (
	"regexp"
	"strings"
)

var (
	paragraphPattern    = regexp.MustCompile(`\n[ \t]*(§\s*\d+[ºo°]?(?:-[A-Za-z])?\.?|Parágrafo\s+único\.?)[ \t]*`)
	paragraphNumPattern = regexp.MustCompile(`\d+`)
	articleHeadPattern  = regexp.MustCompile(`^Art\.\s+\d+[ºo°]?(?:-[A-Za-z])?\s*\.?[ \t]*`)
	leadingDashPattern  = regexp.MustCompile(`^[-\x{0096}\x{2013}\x{2014}]\s*`)
)

// SplitParagraphs divides an article segment into its caput followed by the
// paragraphs introduced by "§ N" or "Parágrafo único" markers. The caput has
// the leading "Art. N" token and any dash separator stripped before item
// extraction; an article number with nothing after it produces no caput
// block at all. "Parágrafo único" yields the number sentinel "único".
func SplitParagraphs(segment string) []ContentBlock {
	head, segments := splitMarked(paragraphPattern, segment)

	caput := articleHeadPattern.ReplaceAllString(strings.TrimSpace(head), "")
	caput = leadingDashPattern.ReplaceAllString(strings.TrimSpace(caput), "")

	blocks := []ContentBlock{}
	if caput != "" {
		blocks = append(blocks, ContentBlock{
			Kind:    BlockCaput,
			Content: ExtractItems(caput),
		})
	}

	for _, seg := range segments {
		number := ParagraphUnique
		if num := paragraphNumPattern.FindString(seg.marker); num != "" {
			number = num
		}
		body := leadingDashPattern.ReplaceAllString(strings.TrimSpace(seg.body), "")
		blocks = append(blocks, ContentBlock{
			Kind:    BlockParagraph,
			Number:  number,
			Content: ExtractItems(body),
		})
	}
	return blocks
}
