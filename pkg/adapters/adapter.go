// Package adapters converts HTML from the official publication sites into
// the plain text the parser expects. Each source has its own quirks: legacy
// latin-1 encodings, struck-through revoked wording, navigation chrome mixed
// into the content.
package adapters

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Adapter turns one source site's HTML into parser-ready plain text.
type Adapter interface {
	// Name is the identifier used in catalog entries.
	Name() string

	// ExtractText reads an HTML document and returns plain text with
	// block elements separated by newlines. contentType is the HTTP
	// Content-Type header, used for charset detection; it may be empty.
	ExtractText(r io.Reader, contentType string) (string, error)
}

var registry = map[string]Adapter{}

func register(a Adapter) {
	registry[a.Name()] = a
}

// Get returns the adapter registered under name.
func Get(name string) (Adapter, error) {
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source adapter %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names lists the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeReader wraps r so the HTML parser sees UTF-8. Charset detection
// follows the Content-Type header and in-document meta tags; the planalto
// archive predates UTF-8 and defaults to windows-1252 when nothing is
// declared.
func decodeReader(r io.Reader, contentType string) (io.Reader, error) {
	if contentType != "" {
		decoded, err := charset.NewReader(r, contentType)
		if err != nil {
			return nil, fmt.Errorf("charset detection: %w", err)
		}
		return decoded, nil
	}
	return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
}

// blockTags force a line break in the extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
	"table": true, "blockquote": true,
}

// skipTags never contribute text.
var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "noscript": true,
}

// extractText walks an HTML tree and linearizes its visible text. Tags
// listed in extraSkip are dropped along with their subtree, which is how
// site adapters exclude struck-through revoked wording.
func extractText(root *html.Node, extraSkip map[string]bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] || extraSkip[n.Data] {
				return
			}
			if blockTags[n.Data] {
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(root)
	return b.String()
}

// parseAndExtract is the shared path: decode, parse, linearize.
func parseAndExtract(r io.Reader, contentType string, extraSkip map[string]bool) (string, error) {
	decoded, err := decodeReader(r, contentType)
	if err != nil {
		return "", err
	}
	root, err := html.Parse(decoded)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	return extractText(root, extraSkip), nil
}
