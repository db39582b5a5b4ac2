package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/models"
)

// EmptySectionText is written under a target that yielded no items.
const EmptySectionText = "No recent updates found."

// MarkdownWriter renders the human-readable report.
type MarkdownWriter struct {
	file        *os.File
	writer      *bufio.Writer
	title       string
	generatedAt time.Time
	mu          sync.Mutex
}

// NewMarkdownWriter creates filename and remembers the report header.
func NewMarkdownWriter(filename, title string, generatedAt time.Time) (*MarkdownWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create markdown file: %w", err)
	}

	return &MarkdownWriter{
		file:        f,
		writer:      bufio.NewWriter(f),
		title:       title,
		generatedAt: generatedAt,
	}, nil
}

// Write renders one section per result, in order.
func (mw *MarkdownWriter) Write(results []models.ScrapeResult) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if _, err := mw.writer.WriteString(RenderMarkdown(mw.title, mw.generatedAt, results)); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	if err := mw.writer.Flush(); err != nil {
		return fmt.Errorf("flush markdown writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if err := mw.writer.Flush(); err != nil {
		return fmt.Errorf("flush markdown writer: %w", err)
	}
	return mw.file.Close()
}

// Validate ensures the report has content.
func (mw *MarkdownWriter) Validate() error {
	return validateFile(mw.file.Name(), "markdown")
}

// RenderMarkdown builds the report text. Optional item fields that are
// empty are left out.
func RenderMarkdown(title string, generatedAt time.Time, results []models.ScrapeResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}
	fmt.Fprintf(&b, "**Sources:** %s\n\n", strings.Join(names, ", "))
	b.WriteString("---\n\n")

	for _, result := range results {
		fmt.Fprintf(&b, "## %s\n\n", result.Name)
		fmt.Fprintf(&b, "**Source:** %s\n\n", result.URL)

		if result.Failed() {
			fmt.Fprintf(&b, "_Fetch failed: %s_\n\n", result.Error)
		}

		if len(result.Items) == 0 {
			b.WriteString(EmptySectionText + "\n\n")
		} else {
			fmt.Fprintf(&b, "Latest %d updates:\n\n", len(result.Items))
			for i, item := range result.Items {
				writeItem(&b, i+1, item)
			}
		}

		b.WriteString("---\n\n")
	}

	return b.String()
}

func writeItem(b *strings.Builder, n int, item models.Item) {
	fmt.Fprintf(b, "### %d. %s\n\n", n, item.Title)

	fields := []struct {
		label string
		value string
	}{
		{"Category", item.Category},
		{"Link", item.Link},
		{"Date", item.Date},
		{"Score", item.Score},
		{"Discussion", item.Comments},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(b, "**%s:** %s\n\n", field.label, field.value)
	}
}
