package adapters

import "io"

// Planalto reads the compiled statute pages of planalto.gov.br, the
// presidential archive. Revoked wording appears struck through on those
// pages and must not reach the parser, or every amended article would carry
// both the old and the new text.
type Planalto struct{}

func init() { register(Planalto{}) }

func (Planalto) Name() string { return "planalto" }

var planaltoSkip = map[string]bool{
	"strike": true, "s": true, "del": true,
}

func (Planalto) ExtractText(r io.Reader, contentType string) (string, error) {
	return parseAndExtract(r, contentType, planaltoSkip)
}
