package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/slated-ai/slated/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	rec := models.RequestRecord{
		ID:            "req-1",
		Kind:          models.KindGenerate,
		Target:        "llama3.1:8b",
		PromptChars:   42,
		ResponseChars: 128,
		DurationMs:    950,
		Outcome:       models.OutcomeOK,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tr.Record(ctx, rec); err != nil {
		t.Fatal(err)
	}

	records, err := tr.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != "req-1" {
		t.Errorf("unexpected id %s", records[0].ID)
	}
	if records[0].DurationMs != 950 {
		t.Errorf("expected 950ms, got %d", records[0].DurationMs)
	}
}

func TestSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	recs := []models.RequestRecord{
		{ID: "a", Kind: models.KindGenerate, Target: "m", DurationMs: 100, Outcome: models.OutcomeOK},
		{ID: "b", Kind: models.KindGenerate, Target: "m", DurationMs: 300, Cached: true, Outcome: models.OutcomeOK},
		{ID: "c", Kind: models.KindGenerate, Target: "m", DurationMs: 200, Outcome: models.OutcomeTimeout},
		{ID: "d", Kind: models.KindInsights, Target: "m", DurationMs: 400, Outcome: models.OutcomeError, Error: "backend returned 500"},
	}
	for _, r := range recs {
		if err := tr.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	summaries, err := tr.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(summaries))
	}

	gen := summaries[0]
	if gen.Kind != models.KindGenerate {
		t.Fatalf("expected generate first, got %s", gen.Kind)
	}
	if gen.Requests != 3 {
		t.Errorf("expected 3 generate requests, got %d", gen.Requests)
	}
	if gen.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", gen.CacheHits)
	}
	if gen.Timeouts != 1 {
		t.Errorf("expected 1 timeout, got %d", gen.Timeouts)
	}
	if gen.AvgDurationMs != 200 {
		t.Errorf("expected avg 200ms, got %d", gen.AvgDurationMs)
	}

	ins := summaries[1]
	if ins.Errors != 1 {
		t.Errorf("expected 1 insights error, got %d", ins.Errors)
	}
}

func TestRecentLimit(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_ = tr.Record(ctx, models.RequestRecord{
			ID: string(rune('a' + i)), Kind: models.KindGenerate, Target: "m",
			Outcome: models.OutcomeOK, CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	records, err := tr.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "e" {
		t.Errorf("expected newest record first, got %s", records[0].ID)
	}
}
