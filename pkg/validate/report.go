package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToJSON renders the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToText renders a terminal-friendly summary of the report.
func (r *Report) ToText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Relatório de validação estrutural\n")
	fmt.Fprintf(&b, "=================================\n\n")
	fmt.Fprintf(&b, "Artigos:              %d\n", r.TotalArticles)
	fmt.Fprintf(&b, "Unidades de topo:     %d\n", r.TotalTopLevel)
	fmt.Fprintf(&b, "Incisos:              %d\n", r.TotalItems)
	fmt.Fprintf(&b, "Alíneas:              %d\n", r.TotalSubItems)
	fmt.Fprintf(&b, "Precisão estrutural:  %.2f%%\n", r.AccuracyRatio*100)
	fmt.Fprintf(&b, "Resultado:            %s (limite %.0f%%)\n",
		r.Status(MinStructuralAccuracy), MinStructuralAccuracy*100)

	if len(r.ArticlesPerUnit) > 0 {
		b.WriteString("\nArtigos por unidade:\n")
		units := make([]string, 0, len(r.ArticlesPerUnit))
		for unit := range r.ArticlesPerUnit {
			units = append(units, unit)
		}
		sort.Strings(units)
		for _, unit := range units {
			fmt.Fprintf(&b, "  %-24s %d\n", unit, r.ArticlesPerUnit[unit])
		}
	}

	writeIDList(&b, "Artigos vazios", r.EmptyArticles)
	writeIDList(&b, "Caput sem texto", r.CaputWithoutText)
	writeIDList(&b, "Artigos revogados", r.RepealedArticles)
	writeIDList(&b, "IDs duplicados", r.DuplicateIDs)

	if len(r.Warnings) > 0 {
		b.WriteString("\nAvisos:\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
	}

	return b.String()
}

func writeIDList(b *strings.Builder, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d):\n", label, len(ids))
	for _, id := range ids {
		fmt.Fprintf(b, "  - %s\n", id)
	}
}
