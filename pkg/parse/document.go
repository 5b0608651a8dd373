// Package parse converts normalized Brazilian statute text into a
// hierarchical document tree: titles, chapters, sections down to articles,
// paragraphs, items (incisos) and sub-items (alíneas).
package parse

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies a hierarchy level. Levels nest strictly in the order
// listed; any level may be absent from a given statute.
type NodeKind string

const (
	KindPart       NodeKind = "parte"
	KindBook       NodeKind = "livro"
	KindTitle      NodeKind = "titulo"
	KindChapter    NodeKind = "capitulo"
	KindSection    NodeKind = "secao"
	KindSubsection NodeKind = "subsecao"
	KindArticle    NodeKind = "artigo"
)

// Node is either a *HierarchyNode or an *Article.
type Node interface {
	NodeKind() NodeKind
}

// Document is the parsed form of one statute.
type Document struct {
	LawCode string
	Summary string
	Root    []Node
}

// HierarchyNode is a non-terminal tree node (title, chapter, ...).
type HierarchyNode struct {
	Kind     NodeKind
	Number   string // roman numeral or word token ("IV", "GERAL")
	Name     string
	Children []Node
}

func (n *HierarchyNode) NodeKind() NodeKind { return n.Kind }

// Article is a terminal tree node holding the parsed provision structure.
type Article struct {
	ID          string         `json:"id"`
	Order       int            `json:"ordem"`
	Number      string         `json:"numero"`
	Confidence  float64        `json:"confianca"`
	RawText     string         `json:"texto_bruto"`
	Blocks      []ContentBlock `json:"estrutura"`
	Alterations []Metadata     `json:"alteracoes,omitempty"`
}

func (a *Article) NodeKind() NodeKind { return KindArticle }

// BlockKind distinguishes an article's main provision from its paragraphs.
type BlockKind string

const (
	BlockCaput     BlockKind = "caput"
	BlockParagraph BlockKind = "paragrafo"
)

// ParagraphUnique is the number sentinel for "Parágrafo único".
const ParagraphUnique = "único"

// ContentBlock is a caput or numbered paragraph within an article.
type ContentBlock struct {
	Kind    BlockKind `json:"tipo"`
	Number  string    `json:"numero,omitempty"`
	Content Content   `json:"conteudo"`
}

// Content is the body of a block or item: preamble text plus optional items
// or sub-items. Items and SubItems are never both populated; sub-items appear
// directly only when no items were found.
type Content struct {
	Text     string     `json:"texto"`
	Metadata []Metadata `json:"metadados,omitempty"`
	Items    []Item     `json:"incisos,omitempty"`
	SubItems []SubItem  `json:"alineas,omitempty"`
}

// Item is an inciso: a roman-numeral clause under a caput or paragraph.
type Item struct {
	Number  string  `json:"numero"`
	Content Content `json:"conteudo"`
}

// SubItem is an alínea: a lettered clause under an item (or directly under a
// caput/paragraph when the item level is absent).
type SubItem struct {
	Letter   string     `json:"letra"`
	Text     string     `json:"texto"`
	Metadata []Metadata `json:"metadados,omitempty"`
}

// Articles returns every article in the document in depth-first order.
func (d *Document) Articles() []*Article {
	var out []*Article
	for _, node := range d.Root {
		collectArticles(node, &out)
	}
	return out
}

func collectArticles(node Node, out *[]*Article) {
	switch n := node.(type) {
	case *Article:
		*out = append(*out, n)
	case *HierarchyNode:
		for _, child := range n.Children {
			collectArticles(child, out)
		}
	}
}

// MarshalJSON writes the persisted document shape:
// {"lei": {"codigo", "ementa"}, "titulos": [...]}.
func (d *Document) MarshalJSON() ([]byte, error) {
	root := d.Root
	if root == nil {
		root = []Node{}
	}
	return json.Marshal(struct {
		Law struct {
			Code    string `json:"codigo"`
			Summary string `json:"ementa"`
		} `json:"lei"`
		Root []Node `json:"titulos"`
	}{
		Law: struct {
			Code    string `json:"codigo"`
			Summary string `json:"ementa"`
		}{Code: d.LawCode, Summary: d.Summary},
		Root: root,
	})
}

// UnmarshalJSON restores a document written by MarshalJSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Law struct {
			Code    string `json:"codigo"`
			Summary string `json:"ementa"`
		} `json:"lei"`
		Root []json.RawMessage `json:"titulos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.LawCode = raw.Law.Code
	d.Summary = raw.Law.Summary
	nodes, err := decodeNodes(raw.Root)
	if err != nil {
		return err
	}
	d.Root = nodes
	return nil
}

// MarshalJSON writes terminal containers (children all articles) under the
// "artigos" key and mixed containers under "filhos".
func (n *HierarchyNode) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []Node{}
	}

	terminal := len(children) > 0
	for _, child := range children {
		if _, ok := child.(*Article); !ok {
			terminal = false
			break
		}
	}

	type header struct {
		Kind   NodeKind `json:"tipo"`
		Number string   `json:"numero"`
		Name   string   `json:"nome"`
	}
	if terminal {
		return json.Marshal(struct {
			header
			Articles []Node `json:"artigos"`
		}{header{n.Kind, n.Number, n.Name}, children})
	}
	return json.Marshal(struct {
		header
		Children []Node `json:"filhos"`
	}{header{n.Kind, n.Number, n.Name}, children})
}

// UnmarshalJSON restores a node written by MarshalJSON, accepting children
// under either "filhos" or "artigos".
func (n *HierarchyNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     NodeKind          `json:"tipo"`
		Number   string            `json:"numero"`
		Name     string            `json:"nome"`
		Children []json.RawMessage `json:"filhos"`
		Articles []json.RawMessage `json:"artigos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Kind = raw.Kind
	n.Number = raw.Number
	n.Name = raw.Name

	rawChildren := raw.Children
	if len(rawChildren) == 0 {
		rawChildren = raw.Articles
	}
	children, err := decodeNodes(rawChildren)
	if err != nil {
		return err
	}
	n.Children = children
	return nil
}

func decodeNodes(raw []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for _, entry := range raw {
		var probe struct {
			Kind NodeKind `json:"tipo"`
		}
		if err := json.Unmarshal(entry, &probe); err != nil {
			return nil, err
		}
		if probe.Kind == KindArticle {
			var article Article
			if err := json.Unmarshal(entry, &article); err != nil {
				return nil, err
			}
			nodes = append(nodes, &article)
			continue
		}
		var node HierarchyNode
		if err := json.Unmarshal(entry, &node); err != nil {
			return nil, err
		}
		nodes = append(nodes, &node)
	}
	return nodes, nil
}

type articleJSON struct {
	ID          string         `json:"id"`
	Order       int            `json:"ordem"`
	Number      string         `json:"numero"`
	Kind        NodeKind       `json:"tipo"`
	Confidence  float64        `json:"confianca"`
	RawText     string         `json:"texto_bruto"`
	Blocks      []ContentBlock `json:"estrutura"`
	Alterations []Metadata     `json:"alteracoes,omitempty"`
}

// MarshalJSON adds the fixed "tipo": "artigo" discriminator.
func (a *Article) MarshalJSON() ([]byte, error) {
	blocks := a.Blocks
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return json.Marshal(articleJSON{
		ID:          a.ID,
		Order:       a.Order,
		Number:      a.Number,
		Kind:        KindArticle,
		Confidence:  a.Confidence,
		RawText:     a.RawText,
		Blocks:      blocks,
		Alterations: a.Alterations,
	})
}

func (a *Article) UnmarshalJSON(data []byte) error {
	var raw articleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind != "" && raw.Kind != KindArticle {
		return fmt.Errorf("node tagged %q is not an article", raw.Kind)
	}
	a.ID = raw.ID
	a.Order = raw.Order
	a.Number = raw.Number
	a.Confidence = raw.Confidence
	a.RawText = raw.RawText
	a.Blocks = raw.Blocks
	a.Alterations = raw.Alterations
	return nil
}

type itemJSON struct {
	Kind    string  `json:"tipo"`
	Number  string  `json:"numero"`
	Content Content `json:"conteudo"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{Kind: "inciso", Number: i.Number, Content: i.Content})
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Number = raw.Number
	i.Content = raw.Content
	return nil
}

type subItemJSON struct {
	Kind     string     `json:"tipo"`
	Letter   string     `json:"letra"`
	Text     string     `json:"texto"`
	Metadata []Metadata `json:"metadados,omitempty"`
}

func (s SubItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(subItemJSON{Kind: "alinea", Letter: s.Letter, Text: s.Text, Metadata: s.Metadata})
}

func (s *SubItem) UnmarshalJSON(data []byte) error {
	var raw subItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Letter = raw.Letter
	s.Text = raw.Text
	s.Metadata = raw.Metadata
	return nil
}
