// Package catalog holds the registry of known laws: their codes, canonical
// ids, display names and source locations. A catalog is loaded from a YAML
// file or taken from the built-in set, and doubles as the resolver used when
// cross references cite external laws.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Law is one catalog entry.
type Law struct {
	Code   string `yaml:"code"`   // number as cited, e.g. "8.078" or "8078"
	ID     string `yaml:"id"`     // canonical id, e.g. "lei-8078"
	Name   string `yaml:"name"`   // display name
	Source string `yaml:"source"` // adapter name: planalto, senado, camara
	URL    string `yaml:"url"`    // full text location
}

// SourceConfig holds per-site fetch manners. The official archives throttle
// aggressively, so each source carries its own pace.
type SourceConfig struct {
	Domain    string `yaml:"domain"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
	Timeout   int    `yaml:"timeout"`    // seconds per request
}

// Catalog is a set of laws addressable by code.
type Catalog struct {
	Laws    []Law                   `yaml:"laws"`
	Sources map[string]SourceConfig `yaml:"sources,omitempty"`

	byNumber map[string]*Law
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(c.Laws) == 0 {
		return nil, fmt.Errorf("catalog has no laws")
	}
	c.reindex()
	return &c, nil
}

// Builtin returns the compiled-in catalog of widely cited federal laws.
func Builtin() *Catalog {
	c := &Catalog{Laws: builtinLaws, Sources: builtinSources()}
	c.reindex()
	return c
}

// SourceConfig returns the fetch settings for a source name, falling back to
// the built-in defaults when the catalog file does not override them.
func (c *Catalog) SourceConfig(name string) SourceConfig {
	if config, ok := c.Sources[name]; ok {
		return config
	}
	if config, ok := builtinSources()[name]; ok {
		return config
	}
	return SourceConfig{RateLimit: 30, Timeout: 30}
}

func (c *Catalog) reindex() {
	c.byNumber = make(map[string]*Law, len(c.Laws))
	for i := range c.Laws {
		law := &c.Laws[i]
		c.byNumber[normalizeNumber(law.Code)] = law
	}
}

// Get looks a law up by its code, tolerating thousand separators.
func (c *Catalog) Get(code string) (*Law, bool) {
	law, ok := c.byNumber[normalizeNumber(code)]
	return law, ok
}

// ResolveLaw implements the cross-reference resolver contract: it maps a
// cited law number, digits only, to the catalog id, or "" when unknown.
func (c *Catalog) ResolveLaw(number string) string {
	if law, ok := c.Get(number); ok {
		return law.ID
	}
	return ""
}

// Save writes the catalog back to a YAML file.
func (c *Catalog) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", path, err)
	}
	return nil
}

func normalizeNumber(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), ".", "")
}

func builtinSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		"planalto": {Domain: "www.planalto.gov.br", RateLimit: 30, Timeout: 30},
		"senado":   {Domain: "legis.senado.leg.br", RateLimit: 60, Timeout: 20},
		"camara":   {Domain: "www2.camara.leg.br", RateLimit: 60, Timeout: 20},
	}
}

var builtinLaws = []Law{
	{
		Code:   "8.078",
		ID:     "lei-8078",
		Name:   "Código de Defesa do Consumidor",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/leis/l8078compilado.htm",
	},
	{
		Code:   "8.666",
		ID:     "lei-8666",
		Name:   "Lei de Licitações (1993)",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/leis/l8666cons.htm",
	},
	{
		Code:   "9.099",
		ID:     "lei-9099",
		Name:   "Juizados Especiais Cíveis e Criminais",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/leis/l9099.htm",
	},
	{
		Code:   "10.406",
		ID:     "lei-10406",
		Name:   "Código Civil",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/leis/2002/l10406compilada.htm",
	},
	{
		Code:   "13.105",
		ID:     "lei-13105",
		Name:   "Código de Processo Civil",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/_ato2015-2018/2015/lei/l13105.htm",
	},
	{
		Code:   "13.709",
		ID:     "lei-13709",
		Name:   "Lei Geral de Proteção de Dados Pessoais",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/_ato2015-2018/2018/lei/l13709.htm",
	},
	{
		Code:   "12.527",
		ID:     "lei-12527",
		Name:   "Lei de Acesso à Informação",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/_ato2011-2014/2011/lei/l12527.htm",
	},
	{
		Code:   "7.347",
		ID:     "lei-7347",
		Name:   "Lei da Ação Civil Pública",
		Source: "planalto",
		URL:    "https://www.planalto.gov.br/ccivil_03/leis/l7347orig.htm",
	},
}
