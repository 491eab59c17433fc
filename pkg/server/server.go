package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slated-ai/slated/pkg/assist"
	"github.com/slated-ai/slated/pkg/broker"
	"github.com/slated-ai/slated/pkg/config"
	"github.com/slated-ai/slated/pkg/metrics"
	"github.com/slated-ai/slated/pkg/models"
)

// Server exposes the assist service over HTTP.
type Server struct {
	cfg    *config.Config
	assist *assist.Service
	mux    *http.ServeMux
}

// New creates a Server wired with all routes. m may be nil to disable the
// scrape endpoint.
func New(cfg *config.Config, svc *assist.Service, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:    cfg,
		assist: svc,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/assist/status", s.handleStatus)
	s.mux.HandleFunc("/v1/assist/generate", s.handleGenerate)
	s.mux.HandleFunc("/v1/assist/insights", s.handleInsights)
	s.mux.HandleFunc("/v1/assist/recommendations", s.handleRecommendations)
	if m != nil {
		s.mux.Handle("/metrics", m.Handler())
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("slated assist listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.assist.Status(r.Context()))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.assist.Generate(r.Context(), req)
	if err != nil {
		writeAssistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req models.InsightsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.assist.Insights(r.Context(), req.Summary)
	if err != nil {
		writeAssistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.assist.Recommendations(r.Context(), req)
	if err != nil {
		writeAssistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody rejects non-POST methods and malformed JSON. It reports whether
// the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeAssistError maps service errors onto HTTP statuses: validation to 400,
// timeout to 504, anything else from the backend to 502.
func writeAssistError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assist.ErrMissingPrompt),
		errors.Is(err, assist.ErrMissingSummary),
		errors.Is(err, assist.ErrMissingGaps):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, broker.ErrTimeout):
		writeJSONError(w, http.StatusGatewayTimeout, err.Error())
	default:
		logrus.Warnf("server: assist request failed: %v", err)
		writeJSONError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("server: encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"assist_error","code":%d}}`, message, code)
}
