package entity

import (
	"sort"
	"strings"
	"time"
)

// MaxArticles caps how many articles are kept per symbol.
const MaxArticles = 50

// Article is one company news item.
type Article struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source,omitempty"` // publisher, not the data provider
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NormalizeArticles drops items without a headline, removes duplicate URLs,
// orders the rest newest first and keeps at most MaxArticles. It never
// returns nil.
func NormalizeArticles(items []Article) []Article {
	out := make([]Article, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, a := range items {
		a.Headline = strings.TrimSpace(a.Headline)
		if a.Headline == "" {
			continue
		}
		if a.URL != "" {
			if seen[a.URL] {
				continue
			}
			seen[a.URL] = true
		}
		a.PublishedAt = a.PublishedAt.UTC()
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if len(out) > MaxArticles {
		out = out[:MaxArticles]
	}
	return out
}
