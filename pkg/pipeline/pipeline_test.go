package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/legisbr/pkg/catalog"
	"github.com/coolbeans/legisbr/pkg/fetch"
)

const cleanLaw = "Dispõe sobre o regime de testes.\n\nArt. 1º Fica instituído o regime, observado o disposto no art. 6º da Lei nº 8.078, de 1990.\n\nArt. 2º Esta Lei entra em vigor na data de sua publicação."

func testPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	return New(catalog.Builtin(), nil, nil, opts, zerolog.Nop())
}

func TestProcessTextCleanLaw(t *testing.T) {
	p := testPipeline(t, Options{})

	result := p.ProcessText(context.Background(), cleanLaw, "9999")
	require.NoError(t, result.Err)
	require.NotNil(t, result.Document)

	assert.Len(t, result.Document.Articles(), 2)
	assert.True(t, result.GatePassed)
	assert.Equal(t, 1.0, result.Report.AccuracyRatio)

	require.Len(t, result.Refs, 1)
	assert.Equal(t, "lei-9999-art-1", result.Refs[0].Origin)
	assert.Equal(t, "8078", result.Refs[0].ExternalLaw)
	assert.Equal(t, "lei-8078", result.Refs[0].ResolvedID, "catalog should resolve the cited law")
}

func TestProcessTextGateFailure(t *testing.T) {
	outDir := t.TempDir()
	p := testPipeline(t, Options{OutDir: outDir})

	// second article is an empty shell, accuracy drops to 0.5
	result := p.ProcessText(context.Background(), "Art. 1º Texto válido do artigo.\n\nArt. 2º", "1")
	require.NoError(t, result.Err)
	assert.False(t, result.GatePassed)

	// the report is written even on gate failure; the gate is a signal,
	// not a publication filter for the artifacts
	data, err := os.ReadFile(filepath.Join(outDir, "1.report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "precisao_estrutural")

	_, err = os.Stat(filepath.Join(outDir, "1.json"))
	assert.NoError(t, err, "structure JSON missing on gate failure")
}

func TestProcessTextWritesOutputs(t *testing.T) {
	outDir := t.TempDir()
	p := testPipeline(t, Options{OutDir: outDir})

	result := p.ProcessText(context.Background(), cleanLaw, "9999")
	require.NoError(t, result.Err)
	require.True(t, result.GatePassed)

	for _, name := range []string{"9999.txt", "9999.json", "9999.refs.json", "9999.report.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "missing %s", name)
	}
}

type fakeRepairer struct {
	calls int
	fixed string
}

func (f *fakeRepairer) RepairArticle(_ context.Context, raw string) (string, error) {
	f.calls++
	return f.fixed, nil
}

func TestRepairStageImprovesWeakArticle(t *testing.T) {
	repairer := &fakeRepairer{fixed: "Art. 9º O texto restaurado do artigo aplica-se integralmente."}
	p := New(catalog.Builtin(), nil, repairer, Options{}, zerolog.Nop())

	// bare marker parses as an empty article with floor confidence
	result := p.ProcessText(context.Background(), "Art. 1º Texto válido do artigo.\n\nArt. 9º", "7")
	assert.Equal(t, 1, repairer.calls, "only the weak article goes to repair")
	assert.Equal(t, 1, result.Repaired)

	articles := result.Document.Articles()
	require.Len(t, articles, 2)
	assert.Equal(t, 1.0, articles[1].Confidence)
	assert.True(t, result.GatePassed, "repair should lift the document past the gate")
}

func TestRepairKeptOnlyWhenBetter(t *testing.T) {
	// an empty rewrite scores the confidence floor, same as the original
	repairer := &fakeRepairer{fixed: ""}
	p := New(catalog.Builtin(), nil, repairer, Options{}, zerolog.Nop())

	result := p.ProcessText(context.Background(), "Art. 9º", "7")
	assert.Equal(t, 1, repairer.calls)
	assert.Equal(t, 0, result.Repaired)

	article := result.Document.Articles()[0]
	assert.Equal(t, "Art. 9º", article.RawText, "worse rewrite must be discarded")
}

func TestProcessLawFetchesAndAdapts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
<p>Art. 1º Fica instituído o cadastro nacional.</p>
<p>Art. 2º <strike>O prazo é de dez dias.</strike> O prazo é de vinte dias.</p>
</body></html>`)
	}))
	defer srv.Close()

	cat, err := catalog.Parse([]byte(fmt.Sprintf(`laws:
  - code: "4242"
    id: lei-4242
    name: Lei de Teste
    source: planalto
    url: %s
`, srv.URL)))
	require.NoError(t, err)

	fetcher, err := fetch.New(fetch.Config{CacheDir: t.TempDir(), CacheTTL: 1, Timeout: 0, RetryCount: 0, RetryDelay: 0}, zerolog.Nop())
	require.NoError(t, err)

	p := New(cat, fetcher, nil, Options{}, zerolog.Nop())
	result := p.ProcessLaw(context.Background(), "4242")
	require.NoError(t, result.Err)

	articles := result.Document.Articles()
	require.Len(t, articles, 2)
	assert.Equal(t, "lei-4242-art-1", articles[0].ID)
	assert.NotContains(t, articles[1].RawText, "dez dias", "struck text must not survive adaptation")
	assert.Contains(t, articles[1].RawText, "vinte dias")
}

func TestProcessLawUnknownCode(t *testing.T) {
	p := testPipeline(t, Options{})
	result := p.ProcessLaw(context.Background(), "424242")
	assert.Error(t, result.Err)
}

func TestProcessBatchKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>Art. 1º Conteúdo mínimo do artigo.</p>")
	}))
	defer srv.Close()

	var yaml string
	codes := []string{"101", "102", "103", "104"}
	yaml = "laws:\n"
	for _, code := range codes {
		yaml += fmt.Sprintf("  - code: %q\n    id: lei-%s\n    name: Lei %s\n    source: senado\n    url: %s/%s\n", code, code, code, srv.URL, code)
	}
	cat, err := catalog.Parse([]byte(yaml))
	require.NoError(t, err)

	fetcher, err := fetch.New(fetch.Config{Timeout: 0, RetryCount: 0}, zerolog.Nop())
	require.NoError(t, err)

	p := New(cat, fetcher, nil, Options{Workers: 3}, zerolog.Nop())
	results := p.ProcessBatch(context.Background(), codes)

	require.Len(t, results, len(codes))
	for i, result := range results {
		require.NoError(t, result.Err, "law %s", codes[i])
		assert.Equal(t, codes[i], result.LawCode)
		assert.Len(t, result.Document.Articles(), 1)
	}
}
