package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `laws:
  - code: "8.078"
    id: lei-8078
    name: Código de Defesa do Consumidor
    source: planalto
    url: https://example.test/l8078.htm
  - code: "9099"
    id: lei-9099
    name: Juizados Especiais
    source: senado
    url: https://example.test/l9099.htm
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Laws, 2)

	law, ok := c.Get("8.078")
	require.True(t, ok)
	assert.Equal(t, "lei-8078", law.ID)
	assert.Equal(t, "planalto", law.Source)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse([]byte("laws: []\n"))
	assert.Error(t, err)
}

func TestGetNormalizesSeparators(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	// dotted entry found by bare digits, bare entry found by dotted query
	_, ok := c.Get("8078")
	assert.True(t, ok)
	_, ok = c.Get("9.099")
	assert.True(t, ok)
}

func TestResolveLaw(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, "lei-8078", c.ResolveLaw("8078"))
	assert.Equal(t, "", c.ResolveLaw("99999"))
}

func TestBuiltinCatalog(t *testing.T) {
	c := Builtin()
	require.NotEmpty(t, c.Laws)

	law, ok := c.Get("13105")
	require.True(t, ok)
	assert.Equal(t, "lei-13105", law.ID)

	for _, entry := range c.Laws {
		assert.NotEmpty(t, entry.URL, "law %s has no URL", entry.Code)
		assert.NotEmpty(t, entry.Source, "law %s has no source", entry.Code)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	original := Builtin()
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, len(original.Laws), len(loaded.Laws))
	assert.Equal(t, "lei-8078", loaded.ResolveLaw("8.078"))
}

func TestSourceConfigDefaults(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	planalto := c.SourceConfig("planalto")
	assert.Equal(t, "www.planalto.gov.br", planalto.Domain)
	assert.Equal(t, 30, planalto.RateLimit)

	unknown := c.SourceConfig("diario")
	assert.Equal(t, 30, unknown.RateLimit)
	assert.Equal(t, 30, unknown.Timeout)
}

func TestSourceConfigOverride(t *testing.T) {
	withSources := catalogYAML + `sources:
  planalto:
    domain: www.planalto.gov.br
    rate_limit: 10
    timeout: 60
`
	c, err := Parse([]byte(withSources))
	require.NoError(t, err)

	planalto := c.SourceConfig("planalto")
	assert.Equal(t, 10, planalto.RateLimit)
	assert.Equal(t, 60, planalto.Timeout)

	// Sources absent from the file keep the built-in settings.
	senado := c.SourceConfig("senado")
	assert.Equal(t, 60, senado.RateLimit)
}
