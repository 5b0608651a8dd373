package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coolbeans/legisbr/pkg/adapters"
	"github.com/coolbeans/legisbr/pkg/catalog"
	"github.com/coolbeans/legisbr/pkg/crossref"
	"github.com/coolbeans/legisbr/pkg/fetch"
	"github.com/coolbeans/legisbr/pkg/index"
	"github.com/coolbeans/legisbr/pkg/linkcheck"
	"github.com/coolbeans/legisbr/pkg/parse"
	"github.com/coolbeans/legisbr/pkg/pipeline"
	"github.com/coolbeans/legisbr/pkg/repair"
	"github.com/coolbeans/legisbr/pkg/review"
	"github.com/coolbeans/legisbr/pkg/validate"
)

var version = "0.1.0"

var (
	flagVerbose     bool
	flagCatalogPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "legisbr",
		Short: "Structural parser for Brazilian federal legislation",
		Long: `legisbr downloads, parses and validates the full text of Brazilian
federal laws.

It turns the HTML served by the official sources into a structured
document tree (títulos, capítulos, seções, artigos, parágrafos,
incisos, alíneas), extracts cross references between provisions and
holds every result to a structural quality gate before publishing.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&flagCatalogPath, "catalog", "", "catalog YAML file (default: built-in)")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(refsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(pipelineCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

func loadCatalog() (*catalog.Catalog, error) {
	if flagCatalogPath == "" {
		return catalog.Builtin(), nil
	}
	return catalog.Load(flagCatalogPath)
}

func newFetcher(cacheDir string, cat *catalog.Catalog, log zerolog.Logger) (*fetch.Client, error) {
	config := fetch.DefaultConfig()
	config.CacheDir = cacheDir
	config.HostSpacing = fetch.HostSpacingFromCatalog(cat)
	return fetch.New(config, log)
}

// readLawText loads plain text for parsing: a local .txt/.html file, run
// through a source adapter when HTML.
func readLawText(path, source string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".html" && ext != ".htm" {
		return string(data), nil
	}
	adapter, err := adapters.Get(source)
	if err != nil {
		return "", err
	}
	return adapter.ExtractText(strings.NewReader(string(data)), "text/html")
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <code>",
		Short: "Download the full-text page of a cataloged law",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			output, _ := cmd.Flags().GetString("output")

			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			law, ok := cat.Get(args[0])
			if !ok {
				return fmt.Errorf("law %s not in catalog", args[0])
			}

			client, err := newFetcher(cacheDir, cat, logger())
			if err != nil {
				return err
			}
			result, err := client.FetchLaw(cmd.Context(), *law)
			if err != nil {
				return err
			}

			if output == "" {
				output = lawCode(*law) + ".html"
			}
			if err := os.WriteFile(output, result.Body, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("Fetched %s (%d bytes, cache: %v) -> %s\n",
				law.Name, len(result.Body), result.FromCache, output)
			return nil
		},
	}
	cmd.Flags().String("cache-dir", defaultCacheDir(), "page cache directory")
	cmd.Flags().StringP("output", "o", "", "output file (default <code>.html)")
	return cmd
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a statute file into the structured document tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _ := cmd.Flags().GetString("law")
			source, _ := cmd.Flags().GetString("source")
			output, _ := cmd.Flags().GetString("output")

			if code == "" {
				return fmt.Errorf("--law flag is required")
			}

			text, err := readLawText(args[0], source)
			if err != nil {
				return err
			}

			doc := parse.ParseLaw(text, code)
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding document: %w", err)
			}

			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("Parsed %d articles -> %s\n", len(doc.Articles()), output)
			return nil
		},
	}
	cmd.Flags().String("law", "", "law code used in article ids")
	cmd.Flags().String("source", "planalto", "adapter for HTML input")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func refsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs <document.json>",
		Short: "Extract cross references from a parsed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			refs := crossref.Extract(doc, cat)
			data, err := json.MarshalIndent(refs, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding references: %w", err)
			}
			fmt.Println(string(data))
			fmt.Fprintf(os.Stderr, "%d references\n", len(refs))
			return nil
		},
	}
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Run the structural quality checks on a parsed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			report := validate.Validate(doc)
			if asJSON {
				data, err := report.ToJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(report.ToText())
			}

			if report.Status(threshold) == validate.StatusFailed {
				return fmt.Errorf("structural accuracy %.4f below threshold %.2f",
					report.AccuracyRatio, threshold)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit the report as JSON")
	cmd.Flags().Float64("threshold", validate.MinStructuralAccuracy, "gate threshold")
	return cmd
}

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline [codes...]",
		Short: "Fetch, parse, repair and validate laws end to end",
		Long: `Run the full chain for one or more cataloged laws. With no
arguments every law in the catalog is processed. Documents that clear
the structural gate are written to the output directory; the others are
reported and held back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			workers, _ := cmd.Flags().GetInt("workers")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			log := logger()
			cat, err := loadCatalog()
			if err != nil {
				return err
			}

			codes := args
			if len(codes) == 0 {
				for _, law := range cat.Laws {
					codes = append(codes, law.Code)
				}
			}

			fetcher, err := newFetcher(cacheDir, cat, log)
			if err != nil {
				return err
			}

			p := pipeline.New(cat, fetcher, repair.FromEnv(log), pipeline.Options{
				OutDir:        outDir,
				Workers:       workers,
				GateThreshold: threshold,
			}, log)

			results := p.ProcessBatch(cmd.Context(), codes)

			failed := 0
			for _, result := range results {
				switch {
				case result.Err != nil:
					failed++
					fmt.Printf("FAIL  %-10s %v\n", result.LawCode, result.Err)
				case !result.GatePassed:
					failed++
					fmt.Printf("GATE  %-10s accuracy %.4f, %d empty articles\n",
						result.LawCode, result.Report.AccuracyRatio, len(result.Report.EmptyArticles))
				default:
					fmt.Printf("OK    %-10s %d articles, %d refs, %d repaired\n",
						result.LawCode, result.Report.TotalArticles, len(result.Refs), result.Repaired)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d laws failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().String("out", "out", "output directory for published documents")
	cmd.Flags().String("cache-dir", defaultCacheDir(), "page cache directory")
	cmd.Flags().Int("workers", 4, "concurrent laws")
	cmd.Flags().Float64("threshold", validate.MinStructuralAccuracy, "gate threshold")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the laws in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			check, _ := cmd.Flags().GetBool("check")

			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			if !check {
				for _, law := range cat.Laws {
					fmt.Printf("%-10s %-12s %-8s %s\n", law.Code, law.ID, law.Source, law.Name)
				}
				return nil
			}

			checker := linkcheck.New(linkcheck.DefaultConfig(), logger())
			report := checker.CheckCatalog(cmd.Context(), cat)
			for _, result := range report.Results {
				mark := "OK"
				if !result.OK() {
					mark = "BROKEN"
				}
				fmt.Printf("%-7s %-10s %d %s\n", mark, result.Code, result.StatusCode, result.URL)
			}
			if report.Broken > 0 {
				return fmt.Errorf("%d of %d source URLs broken", report.Broken, report.Checked)
			}
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "verify that every source URL still resolves")
	return cmd
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <documents...>",
		Short: "Build the full-text search index from parsed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath, _ := cmd.Flags().GetString("index")

			var docs []*parse.Document
			for _, path := range args {
				doc, err := readDocument(path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			count, err := index.Build(indexPath, docs)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d articles from %d documents -> %s\n", count, len(docs), indexPath)
			return nil
		},
	}
	cmd.Flags().String("index", "articles.bleve", "index location")
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed articles by their wording",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath, _ := cmd.Flags().GetString("index")
			limit, _ := cmd.Flags().GetInt("limit")

			hits, err := index.Search(indexPath, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for _, hit := range hits {
				fmt.Printf("%-24s lei %-8s art. %-6s %.3f\n", hit.ID, hit.Law, hit.Number, hit.Score)
			}
			return nil
		},
	}
	cmd.Flags().String("index", "articles.bleve", "index location")
	cmd.Flags().Int("limit", 10, "maximum results")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve processed laws for review over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			dataDir, _ := cmd.Flags().GetString("data")
			indexPath, _ := cmd.Flags().GetString("index")

			log := logger()
			cat, err := loadCatalog()
			if err != nil {
				return err
			}

			server := review.New(dataDir, indexPath, cat, log)
			log.Info().Str("addr", addr).Str("data", dataDir).Msg("review server listening")
			return http.ListenAndServe(addr, server.Handler())
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("data", "out", "pipeline output directory")
	cmd.Flags().String("index", "", "search index location (optional)")
	return cmd
}

func readDocument(path string) (*parse.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc parse.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &doc, nil
}

func lawCode(law catalog.Law) string {
	if code, found := strings.CutPrefix(law.ID, "lei-"); found && code != "" {
		return code
	}
	return law.Code
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".legisbr-cache"
	}
	return filepath.Join(home, ".cache", "legisbr")
}
