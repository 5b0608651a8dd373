// Package pipeline chains the processing stages for one law: fetch the
// source page, adapt it to plain text, parse the structure, repair weak
// articles, extract cross references and validate against the quality gate.
// Batches run the same chain over a worker pool, one law per job.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coolbeans/legisbr/pkg/adapters"
	"github.com/coolbeans/legisbr/pkg/catalog"
	"github.com/coolbeans/legisbr/pkg/crossref"
	"github.com/coolbeans/legisbr/pkg/fetch"
	"github.com/coolbeans/legisbr/pkg/parse"
	"github.com/coolbeans/legisbr/pkg/repair"
	"github.com/coolbeans/legisbr/pkg/validate"
)

// Options tune a Pipeline.
type Options struct {
	OutDir          string  // where result files land; empty keeps results in memory
	Workers         int     // batch concurrency, defaults to 4
	GateThreshold   float64 // minimum structural accuracy, defaults to validate.MinStructuralAccuracy
	RepairThreshold float64 // articles scoring below this are sent for repair
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.GateThreshold == 0 {
		o.GateThreshold = validate.MinStructuralAccuracy
	}
	if o.RepairThreshold == 0 {
		o.RepairThreshold = 0.75
	}
	return o
}

// Result is the outcome of processing one law.
type Result struct {
	LawCode    string
	Document   *parse.Document
	Refs       []crossref.CrossReference
	Report     *validate.Report
	GatePassed bool
	Repaired   int
	Err        error
}

// Pipeline wires the stages together.
type Pipeline struct {
	catalog  *catalog.Catalog
	fetcher  *fetch.Client
	parser   *parse.Parser
	repairer repair.Repairer
	opts     Options
	log      zerolog.Logger
}

// New builds a Pipeline. fetcher may be nil when only ProcessText is used;
// repairer may be nil to disable the repair stage.
func New(cat *catalog.Catalog, fetcher *fetch.Client, repairer repair.Repairer, opts Options, log zerolog.Logger) *Pipeline {
	if repairer == nil {
		repairer = repair.Noop{}
	}
	return &Pipeline{
		catalog:  cat,
		fetcher:  fetcher,
		parser:   parse.NewParser(),
		repairer: repairer,
		opts:     opts.withDefaults(),
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessLaw runs the full chain for one catalog entry.
func (p *Pipeline) ProcessLaw(ctx context.Context, code string) *Result {
	result := &Result{LawCode: code}

	law, ok := p.catalog.Get(code)
	if !ok {
		result.Err = fmt.Errorf("law %s not in catalog", code)
		return result
	}
	if p.fetcher == nil {
		result.Err = fmt.Errorf("no fetcher configured")
		return result
	}

	page, err := p.fetcher.FetchLaw(ctx, *law)
	if err != nil {
		result.Err = fmt.Errorf("fetching %s: %w", code, err)
		return result
	}

	adapter, err := adapters.Get(law.Source)
	if err != nil {
		result.Err = err
		return result
	}
	text, err := adapter.ExtractText(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		result.Err = fmt.Errorf("adapting %s: %w", code, err)
		return result
	}

	p.processText(ctx, text, normalizedCode(law), result)
	return result
}

// ProcessText runs the chain from already-extracted plain text, skipping
// fetch and adaptation. Used for local files and tests.
func (p *Pipeline) ProcessText(ctx context.Context, text, code string) *Result {
	result := &Result{LawCode: code}
	p.processText(ctx, text, code, result)
	return result
}

func (p *Pipeline) processText(ctx context.Context, text, code string, result *Result) {
	doc := p.parser.Parse(text, code)
	result.Document = doc

	result.Repaired = p.repairWeakArticles(ctx, doc)

	var resolver crossref.Resolver
	if p.catalog != nil {
		resolver = p.catalog
	}
	result.Refs = crossref.Extract(doc, resolver)

	result.Report = validate.Validate(doc)
	result.GatePassed = result.Report.Status(p.opts.GateThreshold) == validate.StatusPassed

	logEvent := p.log.Info()
	if !result.GatePassed {
		logEvent = p.log.Warn()
	}
	logEvent.Str("law", code).
		Int("articles", result.Report.TotalArticles).
		Int("refs", len(result.Refs)).
		Int("repaired", result.Repaired).
		Float64("accuracy", result.Report.AccuracyRatio).
		Bool("gate_passed", result.GatePassed).
		Msg("law processed")

	// Artifacts land on disk either way; the report matters most when the
	// gate fails. The gate itself stays a separate signal.
	if p.opts.OutDir != "" {
		if err := p.writeResult(result, text); err != nil {
			result.Err = err
		}
	}
}

// repairWeakArticles sends low-confidence articles through the repairer and
// keeps the rewrite only when it scores better than the original.
func (p *Pipeline) repairWeakArticles(ctx context.Context, doc *parse.Document) int {
	if _, isNoop := p.repairer.(repair.Noop); isNoop {
		return 0
	}

	repaired := 0
	for _, article := range doc.Articles() {
		if article.Confidence >= p.opts.RepairThreshold {
			continue
		}

		fixed, err := p.repairer.RepairArticle(ctx, article.RawText)
		if err != nil {
			p.log.Warn().Str("article", article.ID).Err(err).Msg("repair failed")
			continue
		}

		before := article.Confidence
		candidate := *article
		p.parser.Reassemble(&candidate, fixed)
		if candidate.Confidence > before {
			*article = candidate
			repaired++
			p.log.Debug().Str("article", article.ID).
				Float64("before", before).Float64("after", article.Confidence).
				Msg("article repaired")
		}
	}
	return repaired
}

func (p *Pipeline) writeResult(result *Result, text string) error {
	if err := os.MkdirAll(p.opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	rawPath := filepath.Join(p.opts.OutDir, result.LawCode+".txt")
	if err := os.WriteFile(rawPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rawPath, err)
	}

	files := map[string]any{
		result.LawCode + ".json":        result.Document,
		result.LawCode + ".refs.json":   result.Refs,
		result.LawCode + ".report.json": result.Report,
	}
	for name, payload := range files {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		path := filepath.Join(p.opts.OutDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func normalizedCode(law *catalog.Law) string {
	// "lei-8078" -> "8078", keeping article ids aligned with the catalog
	if code, found := strings.CutPrefix(law.ID, "lei-"); found && code != "" {
		return code
	}
	return law.Code
}
