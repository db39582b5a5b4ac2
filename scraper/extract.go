package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/aluiziolira/go-scrape-competitors/parser"
)

// Default field readers, used when a target does not declare its own.
const (
	DefaultTitleSelector    = "h1, h2, h3, h4, h5, h6"
	DefaultLinkSelector     = "a[href]"
	DefaultDateSelector     = "time, [class*='date']"
	DefaultScoreSelector    = ".score"
	DefaultCommentsSelector = "a:contains('comment')"
)

// Extractor turns markup into a bounded, ordered list of items.
type Extractor struct {
	labels []string
	now    func() time.Time
}

// NewExtractor builds an extractor that splits the given category labels off
// item titles.
func NewExtractor(labels []string) *Extractor {
	return &Extractor{
		labels: append([]string(nil), labels...),
		now:    time.Now,
	}
}

// Extract runs target.Selector over markup and reads up to maxItems items in
// document order. A selector that matches nothing yields an empty slice.
func (x *Extractor) Extract(target models.Target, markup string, maxItems int) ([]models.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []models.Item{}, fmt.Errorf("parse markup: %w", err)
	}

	if maxItems <= 0 {
		return []models.Item{}, nil
	}

	candidates := doc.Find(target.Selector)
	items := make([]models.Item, 0, min(candidates.Length(), maxItems))
	if !target.Dedupe {
		candidates = candidates.Slice(0, min(candidates.Length(), maxItems))
	}

	seen := make(map[string]struct{})
	scrapedAt := x.now()
	candidates.EachWithBreak(func(_ int, node *goquery.Selection) bool {
		item, ok := x.extractItem(target, node, scrapedAt)
		if !ok {
			return true
		}
		if target.Dedupe && item.Link != "" {
			key := parser.DedupeKey(item.Link)
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}
		}
		items = append(items, item)
		return len(items) < maxItems
	})

	return items, nil
}

func (x *Extractor) extractItem(target models.Target, node *goquery.Selection, scrapedAt time.Time) (models.Item, bool) {
	title := readTitle(node, target.TitleSelector)
	if title == "" {
		return models.Item{}, false
	}

	item := models.Item{
		Link:      parser.NormalizeLink(target.URL, readLink(node, target.LinkSelector)),
		Date:      readDate(node, target.DateSelector),
		Score:     readAux(target, node, orDefault(target.ScoreSelector, DefaultScoreSelector)),
		Comments:  readAux(target, node, orDefault(target.CommentsSelector, DefaultCommentsSelector)),
		ScrapedAt: scrapedAt,
	}
	item.Category, item.Title = parser.SplitCategory(title, x.labels)
	if item.Category == "" {
		// Card layouts put the label in its own element next to the heading.
		item.Category, _ = parser.SplitCategory(node.Text(), x.labels)
	}
	return item, true
}

func readTitle(node *goquery.Selection, selector string) string {
	title := parser.CleanText(node.Find(orDefault(selector, DefaultTitleSelector)).First().Text())
	if title == "" && node.Is("a") {
		title = parser.CleanText(node.Text())
	}
	return title
}

func readLink(node *goquery.Selection, selector string) string {
	if selector != "" {
		href, _ := node.Find(selector).First().Attr("href")
		return href
	}
	if node.Is(DefaultLinkSelector) {
		href, _ := node.Attr("href")
		return href
	}
	if href, ok := node.Find(DefaultLinkSelector).First().Attr("href"); ok {
		return href
	}
	href, _ := node.Closest(DefaultLinkSelector).Attr("href")
	return href
}

func readDate(node *goquery.Selection, selector string) string {
	el := node.Find(orDefault(selector, DefaultDateSelector)).First()
	if el.Length() == 0 {
		return ""
	}
	if text := parser.CleanText(el.Text()); text != "" {
		return text
	}
	datetime, _ := el.Attr("datetime")
	return strings.TrimSpace(datetime)
}

// readAux looks inside the node. Targets with SiblingRow set also look in
// the following row, unless that row is itself a candidate.
func readAux(target models.Target, node *goquery.Selection, selector string) string {
	if text := parser.CleanText(node.Find(selector).First().Text()); text != "" {
		return text
	}
	if !target.SiblingRow {
		return ""
	}
	next := node.Next()
	if next.Is(target.Selector) {
		return ""
	}
	return parser.CleanText(next.Find(selector).First().Text())
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
