package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slated-ai/slated/pkg/assist"
	"github.com/slated-ai/slated/pkg/backend"
	"github.com/slated-ai/slated/pkg/broker"
	"github.com/slated-ai/slated/pkg/cache"
	"github.com/slated-ai/slated/pkg/config"
	"github.com/slated-ai/slated/pkg/metrics"
	"github.com/slated-ai/slated/pkg/models"
)

// fakeInference mimics the backend's generate and tags endpoints.
type fakeInference struct {
	generateCalls atomic.Int64
	delay         time.Duration
	response      string
}

func (f *fakeInference) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		f.generateCalls.Add(1)
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": f.response})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.1:8b","size":4920000000}]}`))
	})
	return mux
}

func setupServer(t *testing.T, f *fakeInference, callTimeout time.Duration) *Server {
	t.Helper()
	upstream := httptest.NewServer(f.handler())
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Backend.URL = upstream.URL
	cfg.Backend.ProbeTimeout = time.Second

	client := backend.New(cfg.Backend.URL)
	c := cache.New(cfg.Broker.CacheTTL, cfg.Broker.CacheMaxEntries)
	b := broker.New(client, c, cfg.Broker.MaxConcurrent, callTimeout)
	m := metrics.New(b.Stats)
	svc := assist.New(b, client, cfg, nil, m)
	return New(cfg, svc, m)
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	f := &fakeInference{response: "Hello from the model."}
	srv := setupServer(t, f, time.Second)

	body := `{"prompt":"hello","target":"llama3.1:8b"}`
	w := postJSON(t, srv, "/v1/assist/generate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "Hello from the model." {
		t.Errorf("unexpected response %q", resp.Response)
	}
	if resp.Cached {
		t.Error("first request should not be cached")
	}

	// Identical request is served from the cache.
	w2 := postJSON(t, srv, "/v1/assist/generate", body)
	var resp2 models.GenerateResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &resp2); err != nil {
		t.Fatal(err)
	}
	if !resp2.Cached {
		t.Error("second identical request should be cached")
	}
	if got := f.generateCalls.Load(); got != 1 {
		t.Errorf("backend should be called once, got %d", got)
	}
}

func TestGenerateValidation(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "ok"}, time.Second)

	cases := []string{
		`{}`,
		`{"prompt":"   "}`,
		`{"prompt":42}`,
		`not json`,
	}
	for _, body := range cases {
		w := postJSON(t, srv, "/v1/assist/generate", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestGenerateTimeout(t *testing.T) {
	f := &fakeInference{response: "too late", delay: 200 * time.Millisecond}
	srv := setupServer(t, f, 20*time.Millisecond)

	w := postJSON(t, srv, "/v1/assist/generate", `{"prompt":"slow"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "ok"}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/assist/status", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var status models.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if !status.BackendAvailable {
		t.Error("expected backend available")
	}
	if len(status.AvailableTargets) != 1 || status.AvailableTargets[0].Name != "llama3.1:8b" {
		t.Errorf("unexpected targets: %+v", status.AvailableTargets)
	}
	if status.Queue.MaxConcurrent != config.Default().Broker.MaxConcurrent {
		t.Errorf("unexpected maxConcurrent %d", status.Queue.MaxConcurrent)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "Paperwork is in decent shape."}, time.Second)

	body := `{"analysisSummary":{"production":"Night Shift","documentCount":12}}`
	w := postJSON(t, srv, "/v1/assist/insights", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response == "" {
		t.Error("expected a response")
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	f := &fakeInference{response: "- Chase the two unsigned deal memos this week.\n- Schedule the missing safety meeting."}
	srv := setupServer(t, f, time.Second)

	body := `{"gaps":[{"category":"contracts","description":"two deal memos unsigned"}],"context":{"production":"Night Shift"}}`
	w := postJSON(t, srv, "/v1/assist/recommendations", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.RecommendationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations, got %v", resp.Recommendations)
	}
}

func TestRecommendationsValidation(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "ok"}, time.Second)

	w := postJSON(t, srv, "/v1/assist/recommendations", `{"gaps":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty gaps, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "ok"}, time.Second)

	postJSON(t, srv, "/v1/assist/generate", `{"prompt":"hello"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "slated_assist_requests_total") {
		t.Error("expected request counter in scrape output")
	}
	if !strings.Contains(w.Body.String(), "slated_broker_in_flight") {
		t.Error("expected in-flight gauge in scrape output")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := setupServer(t, &fakeInference{response: "ok"}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/assist/generate", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/assist/status", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
