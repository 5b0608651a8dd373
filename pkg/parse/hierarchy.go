package parse

import (
	"regexp"
	"strings"
)

// level is one rung of the structural hierarchy. The split pattern matches
// the marker at a line start and captures its number token.
type level struct {
	kind  NodeKind
	split *regexp.Regexp
}

// hierarchyLevels in strict nesting order. Any level may be absent from a
// statute; splitting falls through to the next level when no marker matches.
var hierarchyLevels = []level{
	{KindPart, regexp.MustCompile(`\nPARTE\s+([A-ZÀ-Ü]+)`)},
	{KindBook, regexp.MustCompile(`\nLIVRO\s+([IVXLCDM]+|[A-ZÀ-Ü]+)`)},
	{KindTitle, regexp.MustCompile(`\nT[ÍI]TULO\s+([IVXLCDM]+(?:-[A-Z])?)`)},
	{KindChapter, regexp.MustCompile(`\nCAP[ÍI]TULO\s+([IVXLCDM]+(?:-[A-Z])?)`)},
	{KindSection, regexp.MustCompile(`\n(?:SE[ÇC][ÃA]O|Se[çc][ãa]o)\s+([IVXLCDM]+(?:-[A-Z])?)`)},
	{KindSubsection, regexp.MustCompile(`\n(?:SUBSE[ÇC][ÃA]O|Subse[çc][ãa]o)\s+([IVXLCDM]+(?:-[A-Z])?)`)},
}

var (
	nameStopPattern = regexp.MustCompile(`^(?:Art\.|§|Parágrafo\s|PARTE\s|LIVRO\s|T[ÍI]TULO\s|CAP[ÍI]TULO\s|SE[ÇC][ÃA]O\s|Se[çc][ãa]o\s|SUBSE[ÇC][ÃA]O\s|Subse[çc][ãa]o\s|\[|[IVXLCDM]+(?:-[A-Z])?\s*[-\x{0096}\x{2013}\x{2014}]|[a-z]\)\s)`)
	embeddedPattern = regexp.MustCompile(`\s(?:Art\.\s+\d|§\s*\d|Parágrafo\s+único)`)
	annotationLine  = regexp.MustCompile(`^\([^()]*\)$`)
)

// splitLevel recursively divides block at the markers of hierarchyLevels[idx]
// and below. Content before the first marker, and whole blocks where no
// marker of the current level appears, fall through to the next level so that
// statutes skipping levels still parse.
func (p *Parser) splitLevel(idx int, block, lawCode string, ctr *counter) []Node {
	if idx >= len(hierarchyLevels) {
		return p.assembleArticles(block, lawCode, ctr)
	}

	lvl := hierarchyLevels[idx]
	head, segments := splitMarked(lvl.split, "\n"+strings.TrimLeft(block, " \t\n"))
	if len(segments) == 0 {
		return p.splitLevel(idx+1, block, lawCode, ctr)
	}

	nodes := p.splitLevel(idx+1, head, lawCode, ctr)
	for _, seg := range segments {
		name, rest := extractNodeName(seg.body)
		node := &HierarchyNode{
			Kind:   lvl.kind,
			Number: seg.marker,
			Name:   name,
		}
		node.Children = p.splitLevel(idx+1, rest, lawCode, ctr)
		nodes = append(nodes, node)
	}
	return nodes
}

// extractNodeName pulls the heading lines that follow a hierarchy marker and
// returns the cleaned name plus the remaining block content. Collection
// starts on the marker's own line, skips blank lines and complete
// parenthesized annotations before the name, and stops at two consecutive
// blank lines after the name began or at any line opening like structural
// content. A collected line is truncated where an article or paragraph
// marker appears mid-line, and collection stops there.
func extractNodeName(body string) (string, string) {
	lines := strings.Split(body, "\n")

	var parts []string
	rest := 1

	// remainder of the marker line, after the number token
	if inline := strings.TrimSpace(lines[0]); inline != "" {
		inline = leadingDashPattern.ReplaceAllString(inline, "")
		head, tail := truncateAtMarker(inline)
		if head != "" {
			parts = append(parts, head)
		}
		if tail != "" {
			remainder := tail + "\n" + strings.Join(lines[1:], "\n")
			return cleanText(strings.Join(parts, " ")), remainder
		}
	}

	blankRun := 0
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		rest = i

		if line == "" {
			blankRun++
			if blankRun >= 2 && len(parts) > 0 {
				break
			}
			rest = i + 1
			continue
		}
		blankRun = 0
		if annotationLine.MatchString(line) {
			rest = i + 1
			continue
		}
		if nameStopPattern.MatchString(line) {
			break
		}

		head, tail := truncateAtMarker(line)
		if head != "" {
			parts = append(parts, head)
		}
		rest = i + 1
		if tail != "" {
			remainder := tail + "\n" + strings.Join(lines[i+1:], "\n")
			return cleanText(strings.Join(parts, " ")), remainder
		}
	}

	return cleanText(strings.Join(parts, " ")), strings.Join(lines[rest:], "\n")
}

// truncateAtMarker cuts a heading line where structural content begins
// mid-line, returning the heading part and the content tail.
func truncateAtMarker(line string) (string, string) {
	if loc := embeddedPattern.FindStringIndex(line); loc != nil {
		return strings.TrimSpace(line[:loc[0]]), strings.TrimSpace(line[loc[0]:])
	}
	return line, ""
}
