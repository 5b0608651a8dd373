package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MetadataKind classifies a parenthesized amendment annotation.
type MetadataKind string

const (
	MetaAmended       MetadataKind = "redacao"
	MetaAdded         MetadataKind = "incluido"
	MetaRepealed      MetadataKind = "revogado"
	MetaRenumbered    MetadataKind = "renumerado"
	MetaSeeAlso       MetadataKind = "vide"
	MetaEffectiveDate MetadataKind = "vigencia"
	MetaVetoed        MetadataKind = "vetado"
	MetaSupplemented  MetadataKind = "acrescido"
	MetaSuppressed    MetadataKind = "suprimido"
)

// Metadata records one amendment annotation found in provision text, such as
// "(Redação dada pela Lei nº 13.105, de 2015)".
type Metadata struct {
	Kind    MetadataKind // empty when no lead word was recognized
	NormRef string       // amending norm reference, empty when absent
	Year    string       // four-digit year, empty when absent
}

type metadataJSON struct {
	Kind    *string `json:"tipo"`
	NormRef *string `json:"norma"`
	Year    *string `json:"ano"`
}

// MarshalJSON writes unknown or absent fields as JSON null.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{}
	if m.Kind != "" {
		kind := string(m.Kind)
		out.Kind = &kind
	}
	if m.NormRef != "" {
		out.NormRef = &m.NormRef
	}
	if m.Year != "" {
		out.Year = &m.Year
	}
	return json.Marshal(out)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw metadataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Metadata{}
	if raw.Kind != nil {
		m.Kind = MetadataKind(*raw.Kind)
	}
	if raw.NormRef != nil {
		m.NormRef = *raw.NormRef
	}
	if raw.Year != nil {
		m.Year = *raw.Year
	}
	return nil
}

var (
	annotationPattern = regexp.MustCompile(`(?i)\((Redação dada|Inclu[íi]d[oa]s?|Revogad[oa]s?|Renumerad[oa]s?|Vide|Vigência|Acrescid[oa]s?|Suprimid[oa]s?|Alterad[oa]s?|VETADO)[^)]*\)`)

	normRefPattern = regexp.MustCompile(`(?i)(?:(?:pel[ao]|d[ao])\s+)?((?:Lei(?:\s+Complementar)?|Decreto(?:-Lei)?|Emenda\s+Constitucional|Medida\s+Provisória)\s+n?[ºo°]?\.?\s*[\d.]+(?:-[A-Za-z]+)?(?:,?\s*de\s+[\d.]+(?:\s*de\s*\w+\s*de\s*)?\d*)?)`)

	yearPattern = regexp.MustCompile(`de\s+(\d{4})|de\s+\d+[ºo°]?\.\d+\.(\d{4})`)
)

// annotation lead words in classification priority order. The first word
// contained in the annotation wins.
var metadataKinds = []struct {
	lead string
	kind MetadataKind
}{
	{"redação dada", MetaAmended},
	{"incluíd", MetaAdded},
	{"incluid", MetaAdded},
	{"revogad", MetaRepealed},
	{"renumerad", MetaRenumbered},
	{"vide", MetaSeeAlso},
	{"vigência", MetaEffectiveDate},
	{"acrescid", MetaSupplemented},
	{"suprimid", MetaSuppressed},
	{"alterad", MetaAmended},
	{"vetado", MetaVetoed},
}

// ExtractMetadata removes amendment annotations from text and returns the
// cleaned text plus one Metadata entry per annotation, in order of
// appearance. When stripping leaves no content behind, a placeholder is
// synthesized: "(VETADO)" for vetoed provisions and "(Revogado)" for
// repeals that name no amending norm; a repeal citing its norm keeps the
// annotation as the sole record.
func ExtractMetadata(text string) (string, []Metadata) {
	matches := annotationPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text), nil
	}

	metadata := make([]Metadata, 0, len(matches))
	for _, raw := range matches {
		metadata = append(metadata, classifyAnnotation(raw))
	}

	cleaned := strings.TrimSpace(annotationPattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		for _, m := range metadata {
			switch {
			case m.Kind == MetaVetoed:
				cleaned = "(VETADO)"
			case m.Kind == MetaRepealed && m.NormRef == "":
				cleaned = "(Revogado)"
			}
			if cleaned != "" {
				break
			}
		}
	}
	return cleaned, metadata
}

func classifyAnnotation(raw string) Metadata {
	lower := strings.ToLower(raw)

	var m Metadata
	for _, entry := range metadataKinds {
		if strings.Contains(lower, entry.lead) {
			m.Kind = entry.kind
			break
		}
	}
	if ref := normRefPattern.FindStringSubmatch(raw); ref != nil {
		m.NormRef = strings.TrimSpace(strings.TrimRight(ref[1], " ,."))
	}
	if year := yearPattern.FindStringSubmatch(raw); year != nil {
		if year[1] != "" {
			m.Year = year[1]
		} else {
			m.Year = year[2]
		}
	}
	return m
}
