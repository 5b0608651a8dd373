// Package normalize repairs line-wrapping artifacts in raw legislative text
// before structural splitting. Source sites wrap lines inconsistently: markers
// are split across line breaks, ordinal glyphs drift mid-token, and amendment
// annotations span two lines. Every marker-detection regex downstream assumes
// the repairs here already ran.
package normalize

import (
	"regexp"
	"strings"
)

// InternalRefTag marks a line that looks like an article head but is actually
// a citation to another article. The article splitter skips tagged lines, and
// the assembler lowers confidence when the tag leaks into a segment.
const InternalRefTag = "[REF-INTERNA]"

var (
	// Amendment annotation opened on one line and closed on the next.
	splitParenPattern = regexp.MustCompile(`\(([^()\n]*)\n[ \t]*([^()\n]*)\)`)

	// "Parágrafo" separated from "único" by a line break.
	splitUnicoPattern = regexp.MustCompile(`(Parágrafo)\s*\n\s*(único)`)

	// "§" separated from its numeral by one or two line breaks, e.g.
	// "§\n1º" or "§\n1\nº".
	splitSectionSignPattern      = regexp.MustCompile(`(§)[ \t]*\n[ \t]*(\d+)`)
	splitSectionOrdinalPattern   = regexp.MustCompile(`(§[ \t]*\d+)[ \t]*\n[ \t]*([ºo°])`)
	splitDigitOrdinalEndPattern  = regexp.MustCompile(`(\d)[ \t]*\n[ \t]*([ºo°])[ \t]*\n`)
	splitDigitOrdinalMidPattern  = regexp.MustCompile(`(\d)[ \t]*\n[ \t]*([ºo°])[ \t]+`)

	// Hierarchy keyword split from its roman numeral across a line break.
	splitHierarchyPattern = regexp.MustCompile(
		`(T[IÍ]TULO|CAP[IÍ]TULO|SE[ÇC][ÃA]O|SUBSE[ÇC][ÃA]O|LIVRO|PARTE)\s*\n\s*([IVXLCDM]+)`)

	// "Livro N" citation followed by a lone period line. These come from
	// cross references spread over block tags, not structural heads.
	livroCitationPattern = regexp.MustCompile(`\nLivro\s+[IVXLCDM]+\n[ \t]*\.[ \t]*\n`)

	multiSpacePattern = regexp.MustCompile(`[ \t]{2,}`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)

	bareArticleLinePattern = regexp.MustCompile(`^Art\.\s+\d+[ºo°]?(?:-[A-Za-z])?$`)
	lonePunctLinePattern   = regexp.MustCompile(`^[.,;:]$`)
	articleStartPattern    = regexp.MustCompile(`^Art\.\s+\d`)
)

// Normalize applies the full repair pipeline in fixed order. Later passes
// assume earlier ones ran. It never fails: malformed input flows through and
// surfaces later as lower per-article confidence.
func Normalize(raw string) string {
	text := raw
	for _, pass := range passes {
		text = pass.apply(text)
	}
	return text
}

// Passes returns the names of the rewrite passes in application order.
func Passes() []string {
	names := make([]string, len(passes))
	for i, pass := range passes {
		names[i] = pass.name
	}
	return names
}

type rewritePass struct {
	name  string
	apply func(string) string
}

var passes = []rewritePass{
	{"strip-control-glyphs", stripControlGlyphs},
	{"collapse-spaces", collapseSpaces},
	{"rejoin-annotations", rejoinAnnotations},
	{"rejoin-paragrafo-unico", rejoinParagrafoUnico},
	{"rejoin-section-signs", rejoinSectionSigns},
	{"rejoin-digit-ordinals", rejoinDigitOrdinals},
	{"resolve-split-articles", resolveSplitArticles},
	{"rejoin-hierarchy-markers", rejoinHierarchyMarkers},
	{"drop-livro-citations", dropLivroCitations},
	{"collapse-blank-lines", collapseBlankLines},
}

func stripControlGlyphs(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, " ", " ")
	// Degree sign shows up where latin-1 sources meant the ordinal.
	text = strings.ReplaceAll(text, "°", "º")
	return text
}

func collapseSpaces(text string) string {
	return multiSpacePattern.ReplaceAllString(text, " ")
}

func rejoinAnnotations(text string) string {
	return splitParenPattern.ReplaceAllString(text, "($1 $2)")
}

func rejoinParagrafoUnico(text string) string {
	return splitUnicoPattern.ReplaceAllString(text, "$1 $2")
}

func rejoinSectionSigns(text string) string {
	text = splitSectionSignPattern.ReplaceAllString(text, "$1 $2")
	text = splitSectionOrdinalPattern.ReplaceAllString(text, "$1$2")
	return text
}

func rejoinDigitOrdinals(text string) string {
	text = splitDigitOrdinalEndPattern.ReplaceAllString(text, "$1$2\n")
	text = splitDigitOrdinalMidPattern.ReplaceAllString(text, "$1$2 ")
	return text
}

// resolveSplitArticles handles article markers broken into a bare "Art. N"
// line followed by a lone punctuation line. When a third non-blank line opens
// a new article, the bare marker was a citation: tag it so the article
// splitter passes over it. Otherwise the punctuation belongs to the marker
// line and is merged back.
func resolveSplitArticles(text string) string {
	lines := strings.Split(text, "\n")
	var out []string

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if !bareArticleLinePattern.MatchString(line) {
			out = append(out, lines[i])
			continue
		}

		punctIdx := nextNonBlank(lines, i+1)
		if punctIdx == -1 || !lonePunctLinePattern.MatchString(strings.TrimSpace(lines[punctIdx])) {
			out = append(out, lines[i])
			continue
		}

		followIdx := nextNonBlank(lines, punctIdx+1)
		if followIdx != -1 && articleStartPattern.MatchString(strings.TrimSpace(lines[followIdx])) {
			// Citation, not a genuine head.
			out = append(out, InternalRefTag+" "+line+strings.TrimSpace(lines[punctIdx]))
		} else {
			out = append(out, line+strings.TrimSpace(lines[punctIdx]))
		}
		i = punctIdx
	}

	return strings.Join(out, "\n")
}

func nextNonBlank(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

func rejoinHierarchyMarkers(text string) string {
	return splitHierarchyPattern.ReplaceAllString(text, "$1 $2")
}

func dropLivroCitations(text string) string {
	return livroCitationPattern.ReplaceAllString(text, "\n")
}

func collapseBlankLines(text string) string {
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	if !strings.HasPrefix(text, "\n") {
		text = "\n" + text
	}
	return text
}
