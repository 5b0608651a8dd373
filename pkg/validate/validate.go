// Package validate measures the structural quality of a parsed statute and
// gates pipeline output on it. The central metric is the structural accuracy
// ratio: the share of articles that carry any structure at all.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/coolbeans/legisbr/pkg/parse"
)

var romanNumberPattern = regexp.MustCompile(`^[IVXLCDM]+(-[A-Z])?$`)

// MinStructuralAccuracy is the default gate threshold. Documents scoring
// below it are held back for repair instead of being published.
const MinStructuralAccuracy = 0.95

// ValidationStatus summarizes a report against a threshold.
type ValidationStatus string

const (
	StatusPassed ValidationStatus = "passed"
	StatusFailed ValidationStatus = "failed"
)

// Report holds the counts, flagged article ids and warnings produced by one
// validation run.
type Report struct {
	TotalArticles    int            `json:"total_artigos"`
	TotalTopLevel    int            `json:"total_titulos"`
	ArticlesPerUnit  map[string]int `json:"artigos_por_unidade"`
	EmptyArticles    []string       `json:"artigos_vazios"`
	CaputWithoutText []string       `json:"artigos_sem_texto_caput"`
	RepealedArticles []string       `json:"artigos_revogados"`
	DuplicateIDs     []string       `json:"ids_duplicados"`
	TotalItems       int            `json:"total_incisos"`
	TotalSubItems    int            `json:"total_alineas"`
	Warnings         []string       `json:"warnings"`

	// AccuracyRatio is 1 - empty/total, or 1.0 for an empty document.
	AccuracyRatio float64 `json:"precisao_estrutural"`
}

// Status compares the report's accuracy ratio against threshold.
func (r *Report) Status(threshold float64) ValidationStatus {
	if r.AccuracyRatio >= threshold {
		return StatusPassed
	}
	return StatusFailed
}

// Passed reports whether the document clears the default gate.
func (r *Report) Passed() bool {
	return r.Status(MinStructuralAccuracy) == StatusPassed
}

// Validate inspects every article of doc and builds a Report. An article
// with no blocks at all is a hard defect that lowers the accuracy ratio; a
// caput lacking both preamble text and items is only flagged, since the
// article may still carry its meaning in paragraphs.
func Validate(doc *parse.Document) *Report {
	report := &Report{
		TotalTopLevel:   len(doc.Root),
		ArticlesPerUnit: map[string]int{},
	}

	seen := map[string]int{}
	for _, node := range doc.Root {
		label := unitLabel(node)
		for _, article := range nodeArticles(node) {
			report.TotalArticles++
			report.ArticlesPerUnit[label]++
			seen[article.ID]++
			checkArticle(article, report)
		}
	}

	for id, count := range seen {
		if count > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}

	report.AccuracyRatio = 1.0
	if report.TotalArticles > 0 {
		ratio := 1.0 - float64(len(report.EmptyArticles))/float64(report.TotalArticles)
		report.AccuracyRatio = math.Round(ratio*10000) / 10000
	}
	return report
}

func unitLabel(node parse.Node) string {
	switch n := node.(type) {
	case *parse.HierarchyNode:
		return fmt.Sprintf("%s %s", n.Kind, n.Number)
	case *parse.Article:
		return "sem unidade"
	}
	return "sem unidade"
}

func nodeArticles(node parse.Node) []*parse.Article {
	if article, ok := node.(*parse.Article); ok {
		return []*parse.Article{article}
	}
	doc := parse.Document{Root: []parse.Node{node}}
	return doc.Articles()
}

func checkArticle(article *parse.Article, report *Report) {
	if len(article.Blocks) == 0 {
		report.EmptyArticles = append(report.EmptyArticles, article.ID)
		return
	}

	// A caput counts as having text when it carries a preamble or goes
	// straight into a list; only a caput with neither is worth flagging.
	caputText := ""
	caputOK := false
	for _, block := range article.Blocks {
		content := block.Content
		if block.Kind == parse.BlockCaput {
			caputText = content.Text
			if content.Text != "" || len(content.Items) > 0 || len(content.SubItems) > 0 {
				caputOK = true
			}
		}
		countContent(content, article.ID, report)
	}

	if !caputOK {
		report.CaputWithoutText = append(report.CaputWithoutText, article.ID)
	}
	if isRepealed(article, caputText) {
		report.RepealedArticles = append(report.RepealedArticles, article.ID)
	}
}

func countContent(content parse.Content, articleID string, report *Report) {
	if len(content.Items) > 0 && len(content.SubItems) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%s: incisos e alíneas no mesmo nível", articleID))
	}
	for _, item := range content.Items {
		report.TotalItems++
		if !romanNumberPattern.MatchString(item.Number) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: inciso com numeração irreconhecível %q", articleID, item.Number))
		}
		if item.Content.Text == "" && len(item.Content.SubItems) == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: inciso %s sem conteúdo", articleID, item.Number))
		}
		countContent(item.Content, articleID, report)
	}
	for _, sub := range content.SubItems {
		report.TotalSubItems++
		if len(sub.Letter) != 1 || sub.Letter[0] < 'a' || sub.Letter[0] > 'z' {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: alínea com letra irreconhecível %q", articleID, sub.Letter))
		}
	}
}

func isRepealed(article *parse.Article, caputText string) bool {
	for _, alteration := range article.Alterations {
		if alteration.Kind == parse.MetaRepealed {
			return true
		}
	}
	return strings.Contains(strings.ToLower(caputText), "revogado")
}
