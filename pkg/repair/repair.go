// Package repair rewrites article segments the heuristic parser scored as
// suspicious. The pipeline hands a low-confidence raw segment to a Repairer
// and re-parses whatever comes back; the default implementation asks a
// language model to restore the line structure the source site mangled.
package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repairer attempts to fix one mangled article segment. Implementations
// return the repaired plain text, or an error when no repair is possible.
type Repairer interface {
	RepairArticle(ctx context.Context, raw string) (string, error)
}

// Noop returns segments unchanged. Used when no API key is configured so
// the pipeline degrades to heuristics only.
type Noop struct{}

func (Noop) RepairArticle(_ context.Context, raw string) (string, error) {
	return raw, nil
}

// APIKeyEnv names the environment variable holding the model API key.
const APIKeyEnv = "LEGISBR_REPAIR_API_KEY"

// FromEnv returns a model-backed repairer when the API key is set, Noop
// otherwise.
func FromEnv(log zerolog.Logger) Repairer {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		log.Debug().Msg("no repair API key, segment repair disabled")
		return Noop{}
	}
	return NewModelRepairer(key, "", log)
}

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	defaultModel    = "claude-3-5-haiku-latest"
	apiVersion      = "2023-06-01"
)

const systemPrompt = `Você recebe o texto bruto de um artigo de lei brasileira cuja estrutura foi danificada (quebras de linha perdidas, marcadores partidos). Reescreva o texto restaurando a estrutura original: caput na primeira linha iniciando com "Art. N", cada parágrafo em linha própria iniciando com "§ N" ou "Parágrafo único.", cada inciso em linha própria iniciando com o numeral romano seguido de " - ", cada alínea em linha própria iniciando com a letra seguida de ")". Não altere, acrescente nem remova palavras do texto legal. Responda apenas com o texto reestruturado.`

// ModelRepairer restructures segments through the Anthropic Messages API.
type ModelRepairer struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// NewModelRepairer builds a repairer for the given key. model may be empty
// to use the default.
func NewModelRepairer(apiKey, model string, log zerolog.Logger) *ModelRepairer {
	if model == "" {
		model = defaultModel
	}
	return &ModelRepairer{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      log.With().Str("component", "repair").Logger(),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *ModelRepairer) RepairArticle(ctx context.Context, raw string) (string, error) {
	body, err := json.Marshal(request{
		Model:     r.model,
		MaxTokens: 2048,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: raw}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding repair request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building repair request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", r.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("repair api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading repair response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("repair api HTTP %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding repair response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("repair api error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	repaired := strings.TrimSpace(out.String())
	if repaired == "" {
		return "", fmt.Errorf("repair api returned no text")
	}

	r.log.Debug().Int("in_bytes", len(raw)).Int("out_bytes", len(repaired)).
		Msg("segment repaired")
	return repaired, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
