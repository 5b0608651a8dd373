package parse

import (
	"encoding/json"
	"testing"
)

const fixtureLaw = `LEI Nº 99.999, DE 1º DE JANEIRO DE 2024

Dispõe sobre o regime de testes e dá outras providências.

TÍTULO I
DAS DISPOSIÇÕES PRELIMINARES

CAPÍTULO I
DOS PRINCÍPIOS

Art. 1º Fica instituído o regime de testes.
§ 1º O regime aplica-se a todos os órgãos.
§ 2º São objetivos do regime:
I - a transparência;
II - a eficiência.

Art. 2º Para os efeitos desta Lei, considera-se:
I - órgão: unidade administrativa;
II - entidade: pessoa jurídica, nos seguintes casos:
a) autarquia;
b) fundação pública.

CAPÍTULO II
DAS REGRAS GERAIS

Art. 3º O prazo será de trinta dias. (Redação dada pela Lei nº 13.105, de 2015)
Parágrafo único. O prazo pode ser prorrogado.

Seção I
Das Obrigações

Art. 4º-A São obrigações do órgão:
I - publicar os atos;
II - responder aos pedidos.
`

func TestParseLawHierarchy(t *testing.T) {
	doc := ParseLaw(fixtureLaw, "99999")

	if doc.LawCode != "99999" {
		t.Errorf("law code = %q", doc.LawCode)
	}
	if doc.Summary != "Dispõe sobre o regime de testes e dá outras providências." {
		t.Errorf("summary = %q", doc.Summary)
	}

	if len(doc.Root) != 1 {
		t.Fatalf("got %d root nodes, want 1", len(doc.Root))
	}
	title, ok := doc.Root[0].(*HierarchyNode)
	if !ok || title.Kind != KindTitle {
		t.Fatalf("root node = %#v, want title", doc.Root[0])
	}
	if title.Number != "I" || title.Name != "DAS DISPOSIÇÕES PRELIMINARES" {
		t.Errorf("title = %q %q", title.Number, title.Name)
	}

	if len(title.Children) != 2 {
		t.Fatalf("got %d chapters, want 2", len(title.Children))
	}
	ch1 := title.Children[0].(*HierarchyNode)
	if ch1.Kind != KindChapter || ch1.Name != "DOS PRINCÍPIOS" {
		t.Errorf("chapter 1 = %q %q", ch1.Kind, ch1.Name)
	}
	if len(ch1.Children) != 2 {
		t.Fatalf("chapter 1 has %d children, want 2 articles", len(ch1.Children))
	}

	// chapter 2 mixes a direct article with a section
	ch2 := title.Children[1].(*HierarchyNode)
	if len(ch2.Children) != 2 {
		t.Fatalf("chapter 2 has %d children, want 2", len(ch2.Children))
	}
	if _, ok := ch2.Children[0].(*Article); !ok {
		t.Errorf("chapter 2 first child should be the article before the section")
	}
	sec, ok := ch2.Children[1].(*HierarchyNode)
	if !ok || sec.Kind != KindSection || sec.Name != "Das Obrigações" {
		t.Errorf("section = %#v", ch2.Children[1])
	}
	if len(sec.Children) != 1 {
		t.Fatalf("section has %d children, want 1", len(sec.Children))
	}
}

func TestParseLawArticles(t *testing.T) {
	doc := ParseLaw(fixtureLaw, "99999")

	articles := doc.Articles()
	if len(articles) != 4 {
		t.Fatalf("got %d articles, want 4", len(articles))
	}

	wantIDs := []string{
		"lei-99999-art-1",
		"lei-99999-art-2",
		"lei-99999-art-3",
		"lei-99999-art-4º-A",
	}
	for i, article := range articles {
		if article.ID != wantIDs[i] {
			t.Errorf("article %d id = %q, want %q", i, article.ID, wantIDs[i])
		}
		if article.Order != i+1 {
			t.Errorf("article %d order = %d, want %d", i, article.Order, i+1)
		}
		if article.Confidence != 1.0 {
			t.Errorf("article %s confidence = %v, want 1.0", article.ID, article.Confidence)
		}
	}

	first := articles[0]
	if len(first.Blocks) != 3 {
		t.Fatalf("article 1 has %d blocks, want 3", len(first.Blocks))
	}
	if first.Blocks[0].Content.Text != "Fica instituído o regime de testes." {
		t.Errorf("caput = %q", first.Blocks[0].Content.Text)
	}
	if len(first.Blocks[2].Content.Items) != 2 {
		t.Errorf("paragraph 2 items = %+v", first.Blocks[2].Content.Items)
	}

	second := articles[1]
	caput := second.Blocks[0].Content
	if len(caput.Items) != 2 {
		t.Fatalf("article 2 items = %+v", caput.Items)
	}
	if len(caput.Items[1].Content.SubItems) != 2 {
		t.Errorf("article 2 item II sub-items = %+v", caput.Items[1].Content.SubItems)
	}

	third := articles[2]
	if len(third.Alterations) != 1 || third.Alterations[0].Kind != MetaAmended {
		t.Errorf("article 3 alterations = %+v", third.Alterations)
	}
	if third.Blocks[1].Number != ParagraphUnique {
		t.Errorf("article 3 paragraph number = %q", third.Blocks[1].Number)
	}
}

func TestParseLawFlatDocument(t *testing.T) {
	raw := "Art. 1º Fica aprovado o regulamento anexo.\n\nArt. 2º Esta Lei entra em vigor na data de sua publicação."

	doc := ParseLaw(raw, "001")
	if len(doc.Root) != 2 {
		t.Fatalf("got %d root nodes, want 2", len(doc.Root))
	}
	for _, node := range doc.Root {
		if _, ok := node.(*Article); !ok {
			t.Errorf("root node %#v is not an article", node)
		}
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := ParseLaw(fixtureLaw, "99999")

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var checks map[string]any
	if err := json.Unmarshal(data, &checks); err != nil {
		t.Fatal(err)
	}
	lei, ok := checks["lei"].(map[string]any)
	if !ok || lei["codigo"] != "99999" {
		t.Errorf("lei header = %#v", checks["lei"])
	}
	if _, ok := checks["titulos"]; !ok {
		t.Error("missing titulos key")
	}

	var restored Document
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if len(restored.Articles()) != len(doc.Articles()) {
		t.Errorf("round trip lost articles: %d != %d",
			len(restored.Articles()), len(doc.Articles()))
	}
	if restored.Articles()[3].Number != "4º-A" {
		t.Errorf("round trip number = %q", restored.Articles()[3].Number)
	}
}

func TestTerminalContainerUsesArtigosKey(t *testing.T) {
	doc := ParseLaw(fixtureLaw, "99999")
	data, err := json.Marshal(doc.Root[0].(*HierarchyNode).Children[0])
	if err != nil {
		t.Fatal(err)
	}

	var node map[string]any
	if err := json.Unmarshal(data, &node); err != nil {
		t.Fatal(err)
	}
	if _, ok := node["artigos"]; !ok {
		t.Errorf("chapter of articles should marshal under artigos: %s", data)
	}
	if _, ok := node["filhos"]; ok {
		t.Errorf("unexpected filhos key: %s", data)
	}
}

func TestParseLawNameSpansBlankLine(t *testing.T) {
	// A single blank line inside a heading does not end it; two do.
	raw := "TÍTULO I\nDAS DISPOSIÇÕES\n\nTRANSITÓRIAS\n\n\nArt. 1º O regime transitório aplica-se."
	doc := ParseLaw(raw, "77")

	if len(doc.Root) != 1 {
		t.Fatalf("got %d root nodes, want 1", len(doc.Root))
	}
	title, ok := doc.Root[0].(*HierarchyNode)
	if !ok {
		t.Fatalf("root = %T, want hierarchy node", doc.Root[0])
	}
	if title.Name != "DAS DISPOSIÇÕES TRANSITÓRIAS" {
		t.Errorf("name = %q, want heading joined across the blank line", title.Name)
	}
	if articles := doc.Articles(); len(articles) != 1 || articles[0].Number != "1" {
		t.Errorf("articles = %+v", articles)
	}
}
