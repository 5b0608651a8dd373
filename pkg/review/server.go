// Package review serves processed laws over HTTP for manual inspection:
// the parsed structure, the validation report, the extracted cross
// references and full-text search across articles.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/coolbeans/legisbr/pkg/catalog"
	"github.com/coolbeans/legisbr/pkg/index"
	"github.com/coolbeans/legisbr/pkg/parse"
)

// Server exposes pipeline output from a data directory.
type Server struct {
	dataDir   string
	indexPath string
	catalog   *catalog.Catalog
	log       zerolog.Logger
	router    chi.Router
}

// New builds a Server reading from dataDir. indexPath may be empty to
// disable the search endpoint.
func New(dataDir, indexPath string, cat *catalog.Catalog, log zerolog.Logger) *Server {
	s := &Server{
		dataDir:   dataDir,
		indexPath: indexPath,
		catalog:   cat,
		log:       log.With().Str("component", "review").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/laws", s.handleListLaws)
	r.Route("/laws/{code}", func(r chi.Router) {
		r.Get("/", s.handleLawFile(".json"))
		r.Get("/report", s.handleLawFile(".report.json"))
		r.Get("/refs", s.handleLawFile(".refs.json"))
		r.Get("/weak", s.handleWeakArticles)
	})
	r.Get("/search", s.handleSearch)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type lawListing struct {
	Code      string `json:"code"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	Processed bool   `json:"processed"`
}

func (s *Server) handleListLaws(w http.ResponseWriter, _ *http.Request) {
	listings := make([]lawListing, 0, len(s.catalog.Laws))
	for _, law := range s.catalog.Laws {
		_, err := os.Stat(s.dataPath(lawFileCode(law), ".json"))
		listings = append(listings, lawListing{
			Code:      law.Code,
			ID:        law.ID,
			Name:      law.Name,
			Source:    law.Source,
			Processed: err == nil,
		})
	}
	writeJSON(w, http.StatusOK, listings)
}

// handleLawFile serves one of the per-law artifacts produced by the
// pipeline, passing the stored JSON through untouched.
func (s *Server) handleLawFile(suffix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		data, err := os.ReadFile(s.dataPath(code, suffix))
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("law %s not processed", code))
			return
		}
		if err != nil {
			s.log.Error().Err(err).Str("code", code).Msg("reading law file")
			writeError(w, http.StatusInternalServerError, "read failure")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

type weakArticle struct {
	ID         string  `json:"id"`
	Number     string  `json:"numero"`
	Confidence float64 `json:"confianca"`
	RawText    string  `json:"texto_bruto"`
}

// handleWeakArticles lists the articles of a law below a confidence
// threshold, the ones worth a manual look.
func (s *Server) handleWeakArticles(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	threshold := 0.75
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			writeError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = parsed
	}

	data, err := os.ReadFile(s.dataPath(code, ".json"))
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("law %s not processed", code))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("reading law file")
		writeError(w, http.StatusInternalServerError, "read failure")
		return
	}

	var doc parse.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("decoding law file")
		writeError(w, http.StatusInternalServerError, "decode failure")
		return
	}

	weak := make([]weakArticle, 0)
	for _, article := range doc.Articles() {
		if article.Confidence < threshold {
			weak = append(weak, weakArticle{
				ID:         article.ID,
				Number:     article.Number,
				Confidence: article.Confidence,
				RawText:    article.RawText,
			})
		}
	}
	writeJSON(w, http.StatusOK, weak)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.indexPath == "" {
		writeError(w, http.StatusNotImplemented, "search index not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	hits, err := index.Search(s.indexPath, query, limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("search failed")
		writeError(w, http.StatusInternalServerError, "search failure")
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) dataPath(code, suffix string) string {
	return filepath.Join(s.dataDir, code+suffix)
}

// lawFileCode mirrors how the pipeline names output files: the digits of
// the catalog id when present, the raw code otherwise.
func lawFileCode(law catalog.Law) string {
	if len(law.ID) > 4 && law.ID[:4] == "lei-" {
		return law.ID[4:]
	}
	return law.Code
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
