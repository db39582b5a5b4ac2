package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/aluiziolira/go-scrape-competitors/models"
)

type mockWriter struct {
	mu          sync.Mutex
	batches     [][]models.ScrapeResult
	closed      bool
	writeErr    error
	validateErr error
}

func (mw *mockWriter) Write(results []models.ScrapeResult) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]models.ScrapeResult, len(results))
	copy(copyBatch, results)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func (mw *mockWriter) written() []models.ScrapeResult {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var out []models.ScrapeResult
	for _, batch := range mw.batches {
		out = append(out, batch...)
	}
	return out
}

func newTestPipeline(t *testing.T, writer OutputWriter) *Pipeline {
	t.Helper()
	p, err := NewPipeline(writer, config.DefaultConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func item(title, link string) models.Item {
	return models.Item{
		Title:     title,
		Link:      link,
		ScrapedAt: time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	}
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	first := models.ScrapeResult{
		Name:   "Hacker News",
		URL:    "https://news.ycombinator.com/",
		Dedupe: true,
		Items: []models.Item{
			item("Show HN: a thing", "https://example.test/post/1"),
			item("", "https://example.test/post/2"),
			item("Show HN: same thing", "https://example.test/post/1#comments"),
		},
	}
	second := models.ScrapeResult{
		Name:   "Lobsters",
		URL:    "https://lobste.rs/",
		Dedupe: true,
		Items: []models.Item{
			item("Cross-posted", "https://EXAMPLE.test/post/1"),
			item("Fresh", "https://example.test/post/3"),
		},
	}

	if err := p.Process(first, second); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	written := writer.written()
	if len(written) != 2 {
		t.Fatalf("written results = %d, want 2", len(written))
	}
	if got := len(written[0].Items); got != 1 {
		t.Fatalf("first target items = %d, want 1", got)
	}
	if got := len(written[1].Items); got != 1 || written[1].Items[0].Title != "Fresh" {
		t.Fatalf("second target items = %+v, want only Fresh", written[1].Items)
	}

	metrics := p.GetMetrics()
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation["invalid_record"] != 1 {
		t.Fatalf("invalid_record = %d, want 1", validation["invalid_record"])
	}
	if validation["duplicate_link"] != 2 {
		t.Fatalf("duplicate_link = %d, want 2", validation["duplicate_link"])
	}
	if got := metrics["processed_items"].(int64); got != 2 {
		t.Fatalf("processed_items = %d, want 2", got)
	}
}

func TestPipelineKeepsDuplicatesWhenDedupeDisabled(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	result := models.ScrapeResult{
		Name: "Anthropic",
		URL:  "https://www.anthropic.com/news",
		Items: []models.Item{
			item("Announcements Claude", "https://www.anthropic.com/news/claude"),
			item("Product Claude", "https://www.anthropic.com/news/claude"),
		},
	}
	if err := p.Process(result); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(writer.written()[0].Items); got != 2 {
		t.Fatalf("items = %d, want 2", got)
	}
}

func TestPipelinePreservesOrderAndFailures(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	names := []string{"OpenAI", "Anthropic", "Google AI"}
	for _, name := range names {
		result := models.ScrapeResult{Name: name, URL: "https://example.test/" + name}
		if name == "Anthropic" {
			result.Error = "timeout"
		}
		if err := p.Process(result); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	written := writer.written()
	if len(written) != len(names) {
		t.Fatalf("written = %d, want %d", len(written), len(names))
	}
	for i, name := range names {
		if written[i].Name != name {
			t.Fatalf("result[%d] = %q, want %q", i, written[i].Name, name)
		}
		if written[i].Items == nil {
			t.Fatalf("result[%d] items is nil, want empty slice", i)
		}
	}
	if got := p.GetMetrics()["failed_targets"].(int64); got != 1 {
		t.Fatalf("failed_targets = %d, want 1", got)
	}
	if !writer.closed {
		t.Fatalf("writer was not closed")
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := newTestPipeline(t, &mockWriter{})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(models.ScrapeResult{Name: "late"}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestPipelineCloseReportsWriteError(t *testing.T) {
	writeErr := errors.New("disk full")
	p := newTestPipeline(t, &mockWriter{writeErr: writeErr})

	if err := p.Process(models.ScrapeResult{Name: "OpenAI"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if err := p.Process(models.ScrapeResult{Name: "late"}); !errors.Is(err, writeErr) {
		t.Fatalf("expected sticky write error, got %v", err)
	}
}
