package adapters

import "io"

// Camara reads statute pages from the chamber of deputies portal, which
// mixes struck-through revocations with navigation chrome.
type Camara struct{}

func init() { register(Camara{}) }

func (Camara) Name() string { return "camara" }

var camaraSkip = map[string]bool{
	"strike": true, "s": true, "del": true,
	"nav": true, "header": true, "footer": true,
}

func (Camara) ExtractText(r io.Reader, contentType string) (string, error) {
	return parseAndExtract(r, contentType, camaraSkip)
}
