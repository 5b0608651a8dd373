// Package crossref finds citations between provisions: references from one
// article to another within the same law and references out to other laws.
// Matching is deliberately conservative: a bare "art. N" with no verbal
// anchor, no structural detail and no external law nearby is discarded as
// noise.
package crossref

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/coolbeans/legisbr/pkg/parse"
)

// Resolver maps an external law number, digits only, to the identifier of a
// known law. Implementations return "" when the law is not cataloged.
type Resolver interface {
	ResolveLaw(number string) string
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(number string) string

func (f ResolverFunc) ResolveLaw(number string) string { return f(number) }

// CrossReference is one resolved citation. Absent fields marshal as null so
// consumers see a fixed shape.
type CrossReference struct {
	Origin          string // id of the article the citation appears in
	TargetArticle   string // cited article number, normalized
	TargetParagraph string // cited paragraph number, empty when absent
	TargetItem      string // cited inciso numeral, empty when absent
	TargetSubItem   string // cited alínea letter, empty when absent
	ExternalLaw     string // number of the cited law, empty for same-law
	ResolvedID      string // catalog id of the external law, when known
	Snippet         string // surrounding text, at most 120 characters
}

type crossReferenceJSON struct {
	Origin          string  `json:"origem"`
	TargetArticle   string  `json:"destino_art"`
	TargetParagraph *string `json:"destino_para"`
	TargetItem      *string `json:"destino_inc"`
	TargetSubItem   *string `json:"destino_alinea"`
	ExternalLaw     *string `json:"lei_externa"`
	ResolvedID      *string `json:"id_resolvido"`
	Snippet         string  `json:"trecho"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r CrossReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(crossReferenceJSON{
		Origin:          r.Origin,
		TargetArticle:   r.TargetArticle,
		TargetParagraph: optional(r.TargetParagraph),
		TargetItem:      optional(r.TargetItem),
		TargetSubItem:   optional(r.TargetSubItem),
		ExternalLaw:     optional(r.ExternalLaw),
		ResolvedID:      optional(r.ResolvedID),
		Snippet:         r.Snippet,
	})
}

func (r *CrossReference) UnmarshalJSON(data []byte) error {
	var raw crossReferenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = CrossReference{
		Origin:        raw.Origin,
		TargetArticle: raw.TargetArticle,
		Snippet:       raw.Snippet,
	}
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	r.TargetParagraph = deref(raw.TargetParagraph)
	r.TargetItem = deref(raw.TargetItem)
	r.TargetSubItem = deref(raw.TargetSubItem)
	r.ExternalLaw = deref(raw.ExternalLaw)
	r.ResolvedID = deref(raw.ResolvedID)
	return nil
}

const (
	snippetLimit    = 120
	lookBehindChars = 60
)

// referencePattern matches one citation. Group 1 is the optional verbal
// anchor ("nos termos do", "previsto no", ...); its presence is one of the
// signals that keep a match. Groups 2..6 carry article number, paragraph
// number (either "§ N" or "parágrafo N" spelling), inciso and alínea.
var referencePattern = regexp.MustCompile(`(?i)((?:nos?\s+termos?\s+d[oa]s?|conforme\s+disposto\s+n[oa]s?|disposto\s+n[oa]s?|previsto\s+n[oa]s?|na\s+forma\s+d[oa]s?|nos?\s+moldes\s+d[oa]s?|a\s+que\s+se\s+referem?|referid[oa]s?\s+n[oa]s?)\s+)?art(?:igo)?s?\.?\s*(\d+[ºo°]?(?:-[A-Za-z])?)(?:\s*,?\s*(?:§\s*(\d+)[ºo°]?|par[áa]grafo\s+(\d+)[ºo°]?|par[áa]grafo\s+único))?(?:\s*,?\s*inciso\s+([IVXLCDM]+))?(?:\s*,?\s*al[íi]nea\s+['"]?([a-z])['"]?)?`)

var externalLawPattern = regexp.MustCompile(`(?i)d[ao]\s+Lei(?:\s+Complementar)?\s+n[ºo°]?\.?\s*([\d.]+)`)

// ExtractFromText scans one article's flattened text for citations. origin
// is the article id recorded on every kept reference.
func ExtractFromText(text, origin string, resolver Resolver) []CrossReference {
	var refs []CrossReference
	for _, m := range referencePattern.FindAllStringSubmatchIndex(text, -1) {
		group := func(n int) string {
			if m[2*n] < 0 {
				return ""
			}
			return text[m[2*n]:m[2*n+1]]
		}

		anchor := group(1)
		// cited number kept verbatim, ordinal glyph included
		article := group(2)
		paragraph := group(3)
		if paragraph == "" {
			paragraph = group(4)
		}
		item := group(5)
		subItem := group(6)

		// look behind the match for "da Lei nº ..." context
		start := m[0] - lookBehindChars
		if start < 0 {
			start = 0
		}
		context := text[start:m[1]]
		externalLaw := ""
		if law := externalLawPattern.FindStringSubmatch(context); law != nil {
			externalLaw = strings.ReplaceAll(law[1], ".", "")
		}

		hasDetail := paragraph != "" || item != ""
		if anchor == "" && !hasDetail && externalLaw == "" {
			continue
		}

		resolved := ""
		if externalLaw != "" && resolver != nil {
			resolved = resolver.ResolveLaw(externalLaw)
		}

		snippet := text[m[0]:m[1]]
		if runes := []rune(snippet); len(runes) > snippetLimit {
			snippet = string(runes[:snippetLimit])
		}

		refs = append(refs, CrossReference{
			Origin:          origin,
			TargetArticle:   article,
			TargetParagraph: paragraph,
			TargetItem:      item,
			TargetSubItem:   subItem,
			ExternalLaw:     externalLaw,
			ResolvedID:      resolved,
			Snippet:         strings.TrimSpace(snippet),
		})
	}
	return refs
}

// Extract walks every article of doc and collects the citations found in
// their text. resolver may be nil, in which case external laws are reported
// without a resolved id.
func Extract(doc *parse.Document, resolver Resolver) []CrossReference {
	var refs []CrossReference
	for _, article := range doc.Articles() {
		refs = append(refs, ExtractFromText(article.PlainText(), article.ID, resolver)...)
	}
	return refs
}
