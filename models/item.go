// Package models defines data structures for the tracker.
package models

import "time"

// Target is one site configured for scraping. Selector locates the candidate
// nodes; the optional sub-selectors override the default field readers.
type Target struct {
	Name             string `json:"name" yaml:"name"`
	URL              string `json:"url" yaml:"url"`
	Selector         string `json:"selector" yaml:"selector"`
	TitleSelector    string `json:"title_selector,omitempty" yaml:"title_selector,omitempty"`
	LinkSelector     string `json:"link_selector,omitempty" yaml:"link_selector,omitempty"`
	DateSelector     string `json:"date_selector,omitempty" yaml:"date_selector,omitempty"`
	ScoreSelector    string `json:"score_selector,omitempty" yaml:"score_selector,omitempty"`
	CommentsSelector string `json:"comments_selector,omitempty" yaml:"comments_selector,omitempty"`
	MaxItems         int    `json:"max_items,omitempty" yaml:"max_items,omitempty"`
	Dedupe           bool   `json:"dedupe,omitempty" yaml:"dedupe,omitempty"`

	// SiblingRow marks listings that keep score and comments in the row
	// after each candidate, as Hacker News does.
	SiblingRow bool `json:"sibling_row,omitempty" yaml:"sibling_row,omitempty"`
}

// Item is the record produced from one candidate node. Only Title is
// guaranteed to be present.
type Item struct {
	Title     string    `json:"title" csv:"title"`
	Link      string    `json:"link,omitempty" csv:"link"`
	Category  string    `json:"category,omitempty" csv:"category"`
	Date      string    `json:"date,omitempty" csv:"date"`
	Score     string    `json:"score,omitempty" csv:"score"`
	Comments  string    `json:"comments,omitempty" csv:"comments"`
	ScrapedAt time.Time `json:"scraped_at" csv:"scraped_at"`
}

// ScrapeResult is the outcome for one target in one run.
type ScrapeResult struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Selector  string    `json:"selector"`
	Items     []Item    `json:"items"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`

	// Dedupe mirrors Target.Dedupe for the pipeline.
	Dedupe bool `json:"-"`
}

// Failed reports whether the fetch for this target failed.
func (r ScrapeResult) Failed() bool {
	return r.Error != ""
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Results      []ScrapeResult
	StartTime    time.Time
	EndTime      time.Time
	TotalItems   int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
	RequestCount int
}
