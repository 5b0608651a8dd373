package parse

import "regexp"

var (
	itemPattern    = regexp.MustCompile(`\n[ \t]*([IVXLCDM]{1,7}(?:-[A-Z])?)\s*[-\x{0096}\x{2013}\x{2014}][ \t]*`)
	subItemPattern = regexp.MustCompile(`\n[ \t]*([a-z])\)[ \t]*`)
)

// ExtractItems parses the body of a caput or paragraph into preamble text
// plus its incisos, recursing into alíneas nested under each inciso. When no
// inciso marker is present the body is handed to ExtractSubItems, so a
// Content never carries both Items and SubItems.
func ExtractItems(text string) Content {
	head, segments := splitMarked(itemPattern, text)
	if len(segments) == 0 {
		return ExtractSubItems(text)
	}

	cleaned, metadata := ExtractMetadata(cleanText(head))
	content := Content{Text: cleaned, Metadata: metadata}
	for _, seg := range segments {
		content.Items = append(content.Items, Item{
			Number:  seg.marker,
			Content: ExtractSubItems(seg.body),
		})
	}
	return content
}

// ExtractSubItems parses a body into preamble text plus its alíneas. With no
// alínea marker the whole body becomes preamble text.
func ExtractSubItems(text string) Content {
	head, segments := splitMarked(subItemPattern, text)

	cleaned, metadata := ExtractMetadata(cleanText(head))
	content := Content{Text: cleaned, Metadata: metadata}
	for _, seg := range segments {
		body, meta := ExtractMetadata(cleanText(seg.body))
		content.SubItems = append(content.SubItems, SubItem{
			Letter:   seg.marker,
			Text:     body,
			Metadata: meta,
		})
	}
	return content
}
