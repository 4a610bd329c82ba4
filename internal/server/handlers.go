package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/rulemaker/pkg/buildinfo"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/io"
	"github.com/matzehuels/rulemaker/pkg/pipeline"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

// ValidateResponse is the body of POST /v1/validate.
type ValidateResponse struct {
	Errors   []string `json:"errors"`
	Isolated []string `json:"isolated"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	rl, ok := s.readRule(w, r)
	if !ok {
		return
	}
	d, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), rl, s.options(rl, ""))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheStatus(hit))
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	rl, ok := s.readRule(w, r)
	if !ok {
		return
	}

	opts := s.options(rl, format)
	opts.Selected = r.URL.Query().Get("selected")
	d, err := s.runner.Layout(r.Context(), rl, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("X-Cache", cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	rl, ok := s.readRule(w, r)
	if !ok {
		return
	}
	resp := ValidateResponse{Errors: rl.Validate(), Isolated: []string{}}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	for _, step := range rl.FindIsolatedSteps() {
		resp.Isolated = append(resp.Isolated, step.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) options(rl *rule.Rule, format string) pipeline.Options {
	opts := pipeline.Options{Rule: rl, Config: s.diagram, Logger: s.logger}
	if format != "" {
		opts.Formats = []string{format}
	}
	return opts
}

func (s *Server) readRule(w http.ResponseWriter, r *http.Request) (*rule.Rule, bool) {
	rl, err := io.ReadRule(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rl, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		err = errs.Wrap(errs.ErrCodeInvalidInput, err, "Request body exceeds %d bytes", tooLarge.Limit)
	case errs.IsInputError(err):
		status = http.StatusBadRequest
	}

	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errs.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
