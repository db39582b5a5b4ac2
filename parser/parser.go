package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/aluiziolira/go-scrape-competitors/models"
)

// categorySeparators are trimmed between a category label and the title.
const categorySeparators = " \t:|-–—·"

// DefaultCategoryLabels is the label set seen on company news listings.
var DefaultCategoryLabels = []string{"Announcements", "Policy", "Research", "Product", "Societal Impacts"}

// ValidateItem ensures the extractor captured the required fields.
func ValidateItem(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("item missing title")
	}
	return nil
}

// CleanText collapses internal whitespace and trims the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeLink turns href into an absolute URL scoped to base. Absolute
// URLs are returned unchanged, root-relative paths are prefixed with the
// scheme and host of base, anything else is resolved against base.
func NormalizeLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		if strings.EqualFold(ref.Scheme, "javascript") {
			return ""
		}
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return href
	}

	switch {
	case strings.HasPrefix(href, "//"):
		return baseURL.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return baseURL.Scheme + "://" + baseURL.Host + href
	default:
		return baseURL.ResolveReference(ref).String()
	}
}

// SplitCategory splits a leading category label off title. The first label
// in list order that prefixes the title wins. A title that is nothing but a
// label, or whose remainder starts with another label, is left alone so that
// splitting the result again never strips more.
func SplitCategory(title string, labels []string) (category, rest string) {
	title = CleanText(title)
	for _, label := range labels {
		if label == "" || !strings.HasPrefix(title, label) {
			continue
		}
		remainder := strings.TrimSpace(strings.TrimLeft(title[len(label):], categorySeparators))
		if remainder == "" || hasLabelPrefix(remainder, labels) {
			return "", title
		}
		return label, remainder
	}
	return "", title
}

func hasLabelPrefix(text string, labels []string) bool {
	for _, label := range labels {
		if label != "" && strings.HasPrefix(text, label) {
			return true
		}
	}
	return false
}

// ValidateLabels rejects label sets in which one label prefixes another,
// which would make category stripping order dependent.
func ValidateLabels(labels []string) error {
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("category label %d is empty", i)
		}
		for j, other := range labels {
			if i != j && strings.HasPrefix(other, label) {
				return fmt.Errorf("category label %q is a prefix of %q", label, other)
			}
		}
	}
	return nil
}

// DedupeKey returns the key used to collapse candidates that point at the
// same page.
func DedupeKey(link string) string {
	normalized, err := purell.NormalizeURLString(link,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	if err != nil {
		return strings.TrimSpace(link)
	}
	return normalized
}
