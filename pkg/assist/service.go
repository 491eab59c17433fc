package assist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/slated-ai/slated/pkg/broker"
	"github.com/slated-ai/slated/pkg/config"
	"github.com/slated-ai/slated/pkg/metrics"
	"github.com/slated-ai/slated/pkg/models"
	"github.com/slated-ai/slated/pkg/tracker"
)

// Validation errors, rejected before anything reaches the broker.
var (
	ErrMissingPrompt  = errors.New("prompt is required and must be non-empty text")
	ErrMissingSummary = errors.New("analysis summary must name a production")
	ErrMissingGaps    = errors.New("at least one gap is required")
)

// Prober answers liveness and model-listing questions about the backend.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) ([]models.TargetInfo, bool)
	Endpoint() string
}

// Service translates assist calls into broker submissions. It holds no
// concurrency logic of its own.
type Service struct {
	broker  *broker.Broker
	prober  Prober
	cfg     *config.Config
	tracker tracker.Tracker  // optional
	metrics *metrics.Metrics // optional
}

// New wires a Service. tracker and metrics may be nil.
func New(b *broker.Broker, p Prober, cfg *config.Config, tr tracker.Tracker, m *metrics.Metrics) *Service {
	return &Service{broker: b, prober: p, cfg: cfg, tracker: tr, metrics: m}
}

// Status reports backend liveness and broker load. The probe runs under its
// own short timeout and is independent of queue state.
func (s *Service) Status(ctx context.Context) models.StatusResponse {
	targets, available := s.prober.Probe(ctx, s.cfg.Backend.ProbeTimeout)
	if targets == nil {
		targets = []models.TargetInfo{}
	}
	return models.StatusResponse{
		BackendAvailable: available,
		BackendEndpoint:  s.prober.Endpoint(),
		AvailableTargets: targets,
		Queue:            s.broker.Stats(),
	}
}

// Generate runs a caller-supplied prompt through the broker.
func (s *Service) Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	if isBlank(req.Prompt) {
		return nil, ErrMissingPrompt
	}
	return s.run(ctx, models.KindGenerate, s.resolveTarget(req.Target), req.Prompt, req.Parameters)
}

// Insights summarizes structured document-analysis data.
func (s *Service) Insights(ctx context.Context, summary models.AnalysisSummary) (*models.GenerateResponse, error) {
	if isBlank(summary.Production) {
		return nil, ErrMissingSummary
	}
	return s.run(ctx, models.KindInsights, s.resolveTarget(""), insightsPrompt(summary), insightsParameters())
}

// Recommendations turns a gap list into a short list of action items.
func (s *Service) Recommendations(ctx context.Context, req models.RecommendationsRequest) (*models.RecommendationsResponse, error) {
	if len(req.Gaps) == 0 {
		return nil, ErrMissingGaps
	}
	resp, err := s.run(ctx, models.KindRecommendations, s.resolveTarget(""), recommendationsPrompt(req), recommendationsParameters())
	if err != nil {
		return nil, err
	}
	return &models.RecommendationsResponse{
		Recommendations: parseRecommendations(resp.Response),
		DurationMs:      resp.DurationMs,
		Cached:          resp.Cached,
	}, nil
}

func (s *Service) resolveTarget(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.Backend.DefaultTarget
}

// run submits one request, waits for its terminal outcome, and records it.
func (s *Service) run(ctx context.Context, kind, target, prompt string, params map[string]any) (*models.GenerateResponse, error) {
	start := time.Now()
	handle := s.broker.Submit(ctx, broker.Request{
		Target:     target,
		Prompt:     prompt,
		Parameters: params,
	})
	res := handle.Wait(ctx)
	elapsed := time.Since(start)

	s.record(kind, target, prompt, res, elapsed)

	if res.Err != nil {
		return nil, res.Err
	}
	return &models.GenerateResponse{
		Response:   res.Response,
		DurationMs: elapsed.Milliseconds(),
		Cached:     res.Cached,
	}, nil
}

func (s *Service) record(kind, target, prompt string, res broker.Result, elapsed time.Duration) {
	outcome := models.OutcomeOK
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
		outcome = models.OutcomeError
		if errors.Is(res.Err, broker.ErrTimeout) {
			outcome = models.OutcomeTimeout
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveRequest(kind, outcome, res.Cached, elapsed)
	}
	if s.tracker == nil {
		return
	}

	rec := models.RequestRecord{
		ID:            uuid.New().String(),
		Kind:          kind,
		Target:        target,
		PromptChars:   len(prompt),
		ResponseChars: len(res.Response),
		DurationMs:    elapsed.Milliseconds(),
		Cached:        res.Cached,
		Outcome:       outcome,
		Error:         errText,
		CreatedAt:     time.Now().UTC(),
	}
	go func() {
		if err := s.tracker.Record(context.Background(), rec); err != nil {
			logrus.Warnf("assist: request log error: %v", err)
		}
	}()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
