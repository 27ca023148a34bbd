package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/glossary"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/service"
)

type classifyRequest struct {
	Question string                      `json:"question"`
	Options  intelligence.ContextOptions `json:"options"`
}

type classifyResponse struct {
	intelligence.QuestionContext
	Description    string `json:"description"`
	LikelyAPIQuery bool   `json:"likelyApiQuestion"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var body classifyRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	qc := s.deps.Pipeline.Run(body.Question, body.Options)
	s.deps.Metrics.ObserveQuestion(qc)
	writeJSON(w, http.StatusOK, classifyResponse{
		QuestionContext: qc,
		Description:     qc.Classification.Intent.Describe(),
		LikelyAPIQuery:  intelligence.IsLikelyAPIQuestion(body.Question),
	})
}

type glossaryResponse struct {
	Version     string                 `json:"version"`
	LastUpdated string                 `json:"lastUpdated"`
	Categories  []string               `json:"categories"`
	Terms       []domain.GlossaryEntry `json:"terms"`
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	g := s.deps.Pipeline.Glossary()
	terms := g.Terms
	if category := r.URL.Query().Get("category"); category != "" {
		terms = glossary.EntriesByCategory(g, category)
	}
	if terms == nil {
		terms = []domain.GlossaryEntry{}
	}
	writeJSON(w, http.StatusOK, glossaryResponse{
		Version:     g.Version,
		LastUpdated: g.LastUpdated,
		Categories:  glossary.Categories(g),
		Terms:       terms,
	})
}

func (s *Server) handleGlossarySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	threshold := glossary.DefaultThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be a number between 0 and 1")
			return
		}
		threshold = v
	}
	writeJSON(w, http.StatusOK, glossary.Search(q, s.deps.Pipeline.Glossary(), threshold))
}

type operationsResponse struct {
	Categories []domain.Category      `json:"categories"`
	Operations []domain.OperationInfo `json:"operations"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.deps.Catalog.SDL()))
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	cat := s.deps.Catalog
	ops := cat.ListOperations()
	if category := r.URL.Query().Get("category"); category != "" {
		ops = cat.OperationsByCategory(category)
	}
	if ops == nil {
		ops = []domain.OperationInfo{}
	}
	writeJSON(w, http.StatusOK, operationsResponse{Categories: cat.Categories(), Operations: ops})
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	op, err := s.deps.Catalog.Lookup(r.PathValue("name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleSnippets(w http.ResponseWriter, r *http.Request) {
	op, err := s.deps.Catalog.Lookup(r.PathValue("name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	endpoint := s.opts.GraphQLEndpoint
	if e := r.URL.Query().Get("endpoint"); e != "" {
		endpoint = e
	}
	snippets := service.GenerateSnippets(service.SnippetOptions{
		Query:     op.ExampleQuery,
		Variables: op.ExampleVariables,
		Endpoint:  endpoint,
	})

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		writeJSON(w, http.StatusOK, snippets)
		return
	}
	text, ok := snippets.Get(lang)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown lang %q, want one of %s", lang, strings.Join(service.SnippetLanguages, ", ")))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lang": lang, "snippet": text})
}

func (s *Server) handlePlaygroundExecute(w http.ResponseWriter, r *http.Request) {
	var req service.HTTPRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	res, err := s.deps.Playground.Execute(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// unreachable target
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePlaygroundHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hist, err := s.deps.Playground.History(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handlePlaygroundClear(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Playground.ClearHistory(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status          string `json:"status"`
	Assistant       bool   `json:"assistant"`
	GlossaryVersion string `json:"glossaryVersion"`
	Operations      int    `json:"operations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Assistant:       s.deps.Assistant.Available(r.Context()),
		GlossaryVersion: s.deps.Pipeline.Glossary().Version,
		Operations:      len(s.deps.Catalog.ListOperations()),
	})
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}
