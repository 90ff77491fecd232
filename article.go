package headlines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Article is one input text record. Fields the engine does not know about
// are kept in Extra and written back unchanged in the report.
type Article struct {
	ID            int            `json:"-"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Link          string         `json:"link,omitempty"`
	PublishedDate string         `json:"published_date,omitempty"`
	Source        string         `json:"source,omitempty"`
	Extra         map[string]any `json:"-"`
}

var knownArticleFields = []string{"title", "content", "link", "published_date", "source"}

// contentFallbacks are read in order when an article has no "content" field.
var contentFallbacks = []string{"full_text", "summary", "description"}

var publishedLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON tolerates missing or non-string title/content and keeps unknown fields.
func (a *Article) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Article{
		Title:         stringField(raw, "title"),
		Content:       stringField(raw, "content"),
		Link:          stringField(raw, "link"),
		PublishedDate: stringField(raw, "published_date"),
		Source:        stringField(raw, "source"),
	}
	if _, ok := raw["content"]; !ok {
		for _, key := range contentFallbacks {
			if v := stringField(raw, key); v != "" {
				a.Content = v
				break
			}
		}
	}

	for _, key := range knownArticleFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}

// MarshalJSON writes the known fields back together with Extra.
func (a Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.fields())
}

func (a Article) fields() map[string]any {
	out := make(map[string]any, len(a.Extra)+len(knownArticleFields))
	for k, v := range a.Extra {
		out[k] = v
	}
	out["title"] = a.Title
	out["content"] = a.Content
	if a.Link != "" {
		out["link"] = a.Link
	}
	if a.PublishedDate != "" {
		out["published_date"] = a.PublishedDate
	}
	if a.Source != "" {
		out["source"] = a.Source
	}
	return out
}

// PublishedAt parses PublishedDate. ok is false when the date is missing or in an unknown layout.
func (a Article) PublishedAt() (t time.Time, ok bool) {
	s := strings.TrimSpace(a.PublishedDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

// LoadArticles reads a JSON array of articles and assigns stable indices.
func LoadArticles(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles file: %w", err)
	}
	return ParseArticles(data)
}

// ParseArticles decodes a JSON array of articles. An empty array is valid.
func ParseArticles(data []byte) ([]Article, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse articles: %w", err)
	}
	for i := range articles {
		articles[i].ID = i
	}
	return articles, nil
}

// FilterRecent keeps articles published within maxAge of now. Articles without a
// parseable date are kept. Indices are reassigned so they stay dense.
func FilterRecent(articles []Article, now time.Time, maxAge time.Duration) []Article {
	if maxAge <= 0 {
		return articles
	}
	cutoff := now.Add(-maxAge)
	kept := make([]Article, 0, len(articles))
	for _, a := range articles {
		if t, ok := a.PublishedAt(); ok && t.Before(cutoff) {
			continue
		}
		a.ID = len(kept)
		kept = append(kept, a)
	}
	return kept
}
