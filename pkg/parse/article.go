package parse

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/coolbeans/legisbr/pkg/normalize"
)

var (
	articleSplitPattern  = regexp.MustCompile(`\nArt\.\s+\d`)
	articleNumberPattern = regexp.MustCompile(`^Art\.\s+(\d+[ºo°]?(?:-[A-Za-z])?)`)
	bareOrdinalPattern   = regexp.MustCompile(`([0-9])[ºo°]$`)
)

// ConfidenceWeights are the penalties applied when scoring how well an
// article segment matches the expected shape. Scores start at 1.0, subtract
// each triggered penalty and never drop below 0.1.
type ConfidenceWeights struct {
	MissingKeyword float64 // segment does not open with "Art."
	ShortSegment   float64 // segment shorter than 10 characters
	InternalRef    float64 // segment carries an internal-reference tag
	EmptyCaput     float64 // no caput block with non-empty text
}

// DefaultConfidenceWeights holds the calibrated penalty set.
var DefaultConfidenceWeights = ConfidenceWeights{
	MissingKeyword: 0.3,
	ShortSegment:   0.5,
	InternalRef:    0.2,
	EmptyCaput:     0.4,
}

// counter hands out document-wide article ordinals during a single parse.
type counter struct {
	n int
}

func (c *counter) next() int {
	c.n++
	return c.n
}

// assembleArticles splits a hierarchy-free block of text into articles.
// Segments that do not open with "Art." (preamble, tagged internal
// references) are skipped, as are bare citation fragments where punctuation
// follows the article number.
func (p *Parser) assembleArticles(block, lawCode string, ctr *counter) []Node {
	var nodes []Node
	block = "\n" + strings.TrimLeft(block, " \t\n")
	for _, segment := range splitBefore(articleSplitPattern, block) {
		segment = strings.TrimSpace(segment)
		if !strings.HasPrefix(segment, "Art.") {
			continue
		}
		article := p.assembleArticle(segment, lawCode, ctr)
		if article == nil {
			continue
		}
		nodes = append(nodes, article)
	}
	return nodes
}

func (p *Parser) assembleArticle(segment, lawCode string, ctr *counter) *Article {
	number := ""
	if m := articleNumberPattern.FindStringSubmatchIndex(segment); m != nil {
		number = segment[m[2]:m[3]]
		if isCitationFragment(segment[m[3]:]) {
			return nil
		}
	}

	order := ctr.next()
	id := fmt.Sprintf("lei-%s-art-%d", lawCode, order)
	if number != "" {
		id = fmt.Sprintf("lei-%s-art-%s", lawCode, normalizeArticleNumber(number))
	}

	blocks := SplitParagraphs(segment)

	var alterations []Metadata
	for _, block := range blocks {
		alterations = append(alterations, collectMetadata(block.Content)...)
	}

	return &Article{
		ID:          id,
		Order:       order,
		Number:      number,
		Confidence:  p.scoreArticle(segment, blocks),
		RawText:     segment,
		Blocks:      blocks,
		Alterations: alterations,
	}
}

// isCitationFragment reports whether the text right after an article number
// opens with list punctuation, the signature of a citation such as
// "Art. 12, 13 e 14" rather than an article head.
func isCitationFragment(afterNumber string) bool {
	limit := min(len(afterNumber), 3)
	return strings.ContainsAny(afterNumber[:limit], ",;")
}

// normalizeArticleNumber strips a trailing ordinal glyph from a purely
// numeric token ("5º" becomes "5") while leaving letter-suffixed numbers
// intact ("4º-A" stays as written).
func normalizeArticleNumber(number string) string {
	return bareOrdinalPattern.ReplaceAllString(number, "$1")
}

func (p *Parser) scoreArticle(segment string, blocks []ContentBlock) float64 {
	score := 1.0
	if !strings.HasPrefix(segment, "Art.") {
		score -= p.Weights.MissingKeyword
	}
	if len(segment) < 10 {
		score -= p.Weights.ShortSegment
	}
	if strings.Contains(segment, normalize.InternalRefTag) {
		score -= p.Weights.InternalRef
	}
	if !hasCaputText(blocks) {
		score -= p.Weights.EmptyCaput
	}
	if score < 0.1 {
		score = 0.1
	}
	return math.Round(score*100) / 100
}

func hasCaputText(blocks []ContentBlock) bool {
	for _, block := range blocks {
		if block.Kind == BlockCaput && block.Content.Text != "" {
			return true
		}
	}
	return false
}

// Reassemble rebuilds the article's structure from raw, keeping its
// identity (id, order, number). Callers use this after an external repair
// pass rewrites a mangled segment.
func (p *Parser) Reassemble(article *Article, raw string) {
	raw = strings.TrimSpace(raw)
	blocks := SplitParagraphs(raw)

	var alterations []Metadata
	for _, block := range blocks {
		alterations = append(alterations, collectMetadata(block.Content)...)
	}

	article.RawText = raw
	article.Blocks = blocks
	article.Alterations = alterations
	article.Confidence = p.scoreArticle(raw, blocks)
}

// PlainText joins every text fragment of the article, depth first, into one
// searchable string.
func (a *Article) PlainText() string {
	var parts []string
	for _, block := range a.Blocks {
		parts = appendText(parts, block.Content)
	}
	return strings.Join(parts, " ")
}

func appendText(parts []string, content Content) []string {
	if content.Text != "" {
		parts = append(parts, content.Text)
	}
	for _, item := range content.Items {
		parts = appendText(parts, item.Content)
	}
	for _, sub := range content.SubItems {
		if sub.Text != "" {
			parts = append(parts, sub.Text)
		}
	}
	return parts
}

func collectMetadata(content Content) []Metadata {
	out := append([]Metadata(nil), content.Metadata...)
	for _, item := range content.Items {
		out = append(out, collectMetadata(item.Content)...)
	}
	for _, sub := range content.SubItems {
		out = append(out, sub.Metadata...)
	}
	return out
}
