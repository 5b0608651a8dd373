package adapters

import "io"

// Senado reads statute pages from the federal senate's legislation portal.
// The portal serves clean UTF-8 markup; only standard chrome needs skipping.
type Senado struct{}

func init() { register(Senado{}) }

func (Senado) Name() string { return "senado" }

var senadoSkip = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
}

func (Senado) ExtractText(r io.Reader, contentType string) (string, error) {
	return parseAndExtract(r, contentType, senadoSkip)
}
