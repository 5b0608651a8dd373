// Package index maintains a bleve full-text index over parsed articles so
// provisions can be found by their wording across every law in the corpus.
package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"

	"github.com/coolbeans/legisbr/pkg/parse"
)

// Entry is the indexed shape of one article.
type Entry struct {
	Law     string `json:"law"`
	Number  string `json:"number"`
	Summary string `json:"summary"`
	Text    string `json:"text"`
}

// Hit is one search result.
type Hit struct {
	ID     string  `json:"id"`
	Law    string  `json:"law"`
	Number string  `json:"number"`
	Score  float64 `json:"score"`
}

// Build creates a fresh index at path from the given documents, replacing
// any previous index. It returns the number of articles indexed.
func Build(path string, docs []*parse.Document) (int, error) {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.New(path, bleve.NewIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("creating index: %w", err)
	}
	defer idx.Close()

	count := 0
	batch := idx.NewBatch()
	for _, doc := range docs {
		for _, article := range doc.Articles() {
			entry := Entry{
				Law:     doc.LawCode,
				Number:  article.Number,
				Summary: doc.Summary,
				Text:    article.PlainText(),
			}
			if err := batch.Index(article.ID, entry); err != nil {
				return count, fmt.Errorf("indexing %s: %w", article.ID, err)
			}
			count++

			if batch.Size() >= 100 {
				if err := idx.Batch(batch); err != nil {
					return count, fmt.Errorf("writing batch: %w", err)
				}
				batch = idx.NewBatch()
			}
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return count, fmt.Errorf("writing final batch: %w", err)
		}
	}
	return count, nil
}

// Search opens the index at path and runs a query-string query.
func Search(path, query string, limit int) ([]Hit, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	defer idx.Close()

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	req.Fields = []string{"law", "number"}

	result, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hit := Hit{ID: match.ID, Score: match.Score}
		if law, ok := match.Fields["law"].(string); ok {
			hit.Law = law
		}
		if number, ok := match.Fields["number"].(string); ok {
			hit.Number = number
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
