package parse

import (
	"regexp"
	"strings"

	"github.com/coolbeans/legisbr/pkg/normalize"
)

// Parser turns raw statute text into a Document. The zero value is not
// usable; construct with NewParser.
type Parser struct {
	Weights ConfidenceWeights
}

// NewParser returns a Parser with the default confidence weights.
func NewParser() *Parser {
	return &Parser{Weights: DefaultConfidenceWeights}
}

var summaryPattern = regexp.MustCompile(`(?:Estabelece|Disp[õo]e|Define|Institui|Regulamenta|Cria|Altera|Aprova|Regula|Disciplina)[^.]+\.`)

// Parse normalizes raw and builds the document tree for the given law code.
// Parsing is deterministic and touches no shared state; a Parser may be used
// from multiple goroutines.
func (p *Parser) Parse(raw, lawCode string) *Document {
	text := normalize.Normalize(raw)

	doc := &Document{
		LawCode: lawCode,
		Summary: extractSummary(text),
	}
	ctr := &counter{}
	doc.Root = p.splitLevel(0, text, lawCode, ctr)
	return doc
}

// ParseLaw parses raw statute text with the default configuration.
func ParseLaw(raw, lawCode string) *Document {
	return NewParser().Parse(raw, lawCode)
}

// extractSummary finds the ementa, the single-sentence statement of purpose
// in the preamble before the first article or hierarchy marker.
func extractSummary(text string) string {
	preamble := text
	if loc := articleSplitPattern.FindStringIndex(text); loc != nil {
		preamble = text[:loc[0]]
	}
	if idx := strings.Index(preamble, "\nTÍTULO"); idx >= 0 {
		preamble = preamble[:idx]
	}
	match := summaryPattern.FindString(preamble)
	if match == "" {
		return ""
	}
	return cleanText(match)
}
