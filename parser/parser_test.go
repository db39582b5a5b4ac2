package parser

import (
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/models"
)

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *models.Item
		wantErr bool
	}{
		{
			name: "valid item",
			item: &models.Item{
				Title:     "Introducing Something",
				Link:      "https://acme.test/news/x",
				ScrapedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name:    "title only",
			item:    &models.Item{Title: "Bare"},
			wantErr: false,
		},
		{
			name:    "missing title",
			item:    &models.Item{Link: "https://acme.test/news/x"},
			wantErr: true,
		},
		{
			name:    "whitespace title",
			item:    &models.Item{Title: "  \n\t"},
			wantErr: true,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLink(t *testing.T) {
	const base = "https://acme.test/news"

	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{name: "root relative", href: "/news/x", expected: "https://acme.test/news/x"},
		{name: "absolute", href: "https://other.test/a?b=1", expected: "https://other.test/a?b=1"},
		{name: "absolute keeps case", href: "HTTPS://Other.test/A", expected: "HTTPS://Other.test/A"},
		{name: "protocol relative", href: "//cdn.acme.test/p", expected: "https://cdn.acme.test/p"},
		{name: "document relative", href: "item?id=42", expected: "https://acme.test/item?id=42"},
		{name: "surrounding whitespace", href: "  /news/y  ", expected: "https://acme.test/news/y"},
		{name: "empty", href: "", expected: ""},
		{name: "fragment only", href: "#top", expected: ""},
		{name: "javascript", href: "javascript:void(0)", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLink(base, tt.href)
			if got != tt.expected {
				t.Fatalf("NormalizeLink(%q) = %q, want %q", tt.href, got, tt.expected)
			}
			if again := NormalizeLink(base, got); again != got {
				t.Fatalf("NormalizeLink not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeLinkHNBase(t *testing.T) {
	got := NormalizeLink("https://news.ycombinator.com", "item?id=1")
	if got != "https://news.ycombinator.com/item?id=1" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitCategory(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		wantCategory string
		wantTitle    string
	}{
		{name: "colon separator", title: "Policy: Our New Stance", wantCategory: "Policy", wantTitle: "Our New Stance"},
		{name: "concatenated text", title: "AnnouncementsIntroducing Claude", wantCategory: "Announcements", wantTitle: "Introducing Claude"},
		{name: "space separator", title: "Societal Impacts  How people use AI", wantCategory: "Societal Impacts", wantTitle: "How people use AI"},
		{name: "dash separator", title: "Research - Interpretability", wantCategory: "Research", wantTitle: "Interpretability"},
		{name: "no label", title: "Quarterly update", wantCategory: "", wantTitle: "Quarterly update"},
		{name: "label only", title: "Product", wantCategory: "", wantTitle: "Product"},
		{name: "label not at start", title: "New Policy work", wantCategory: "", wantTitle: "New Policy work"},
		{name: "stacked labels", title: "Policy Research: Model welfare", wantCategory: "", wantTitle: "Policy Research: Model welfare"},
		{name: "stacked labels without space", title: "ProductResearch preview", wantCategory: "", wantTitle: "ProductResearch preview"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, title := SplitCategory(tt.title, DefaultCategoryLabels)
			if category != tt.wantCategory || title != tt.wantTitle {
				t.Fatalf("SplitCategory(%q) = (%q, %q), want (%q, %q)", tt.title, category, title, tt.wantCategory, tt.wantTitle)
			}

			again, stripped := SplitCategory(title, DefaultCategoryLabels)
			if again != "" || stripped != title {
				t.Fatalf("stripping is not idempotent: %q -> (%q, %q)", title, again, stripped)
			}
		})
	}
}

func TestValidateLabels(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		wantErr bool
	}{
		{name: "defaults", labels: DefaultCategoryLabels, wantErr: false},
		{name: "empty set", labels: nil, wantErr: false},
		{name: "prefix clash", labels: []string{"Product", "Product Launch"}, wantErr: true},
		{name: "duplicate", labels: []string{"Policy", "Policy"}, wantErr: true},
		{name: "blank label", labels: []string{"Policy", " "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabels(tt.labels)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabels(%v) error = %v, wantErr %v", tt.labels, err, tt.wantErr)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Hello\n\t  world  "); got != "Hello world" {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestDedupeKey(t *testing.T) {
	a := DedupeKey("https://Acme.test/news/x#section")
	b := DedupeKey("https://acme.test/news/x")
	if a != b {
		t.Fatalf("DedupeKey mismatch: %q vs %q", a, b)
	}
}
