package headlines

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnclusteredKey is the report key of the unclustered bucket.
const UnclusteredKey = "unclustered"

// ReportArticle is an article annotated with its member score. Score is nil
// for unclustered articles and is then left out of the JSON.
type ReportArticle struct {
	Article
	Score *float64
}

func (r ReportArticle) MarshalJSON() ([]byte, error) {
	fields := r.fields()
	if r.Score != nil {
		fields["similarity_score"] = finiteScore(*r.Score)
	}
	return marshalUnescaped(fields)
}

func (r *ReportArticle) UnmarshalJSON(data []byte) error {
	if err := r.Article.UnmarshalJSON(data); err != nil {
		return err
	}
	r.Score = nil
	if v, ok := r.Extra["similarity_score"].(float64); ok {
		r.Score = &v
	}
	delete(r.Extra, "similarity_score")
	if len(r.Extra) == 0 {
		r.Extra = nil
	}
	return nil
}

// ClusterEntry is the serialized form of one cluster or of the unclustered bucket.
type ClusterEntry struct {
	Articles     []ReportArticle `json:"articles"`
	Keywords     []string        `json:"keywords"`
	ArticleCount int             `json:"article_count"`
}

// ReportEntries maps cluster keys to entries in report order.
type ReportEntries = orderedmap.OrderedMap[string, ClusterEntry]

// ReportCluster is one group of the report.
type ReportCluster struct {
	ID        int
	Articles  []ReportArticle
	Keywords  []string
	MeanScore float64
}

// Size returns the member count.
func (c ReportCluster) Size() int { return len(c.Articles) }

// Report is the final result of a clustering run.
type Report struct {
	Clusters    []ReportCluster
	Unclustered []ReportArticle
	Quality     Quality
}

// BuildReport assembles clusters in assignment order with their members in
// ranking order. keywords[id] belongs to cluster id. Membership is taken
// from a unchanged.
func BuildReport(articles []Article, a Assignment, keywords [][]string) (*Report, error) {
	if len(articles) != a.Len() {
		return nil, fmt.Errorf("%w: %d articles but %d assignments", ErrDimensionMismatch, len(articles), a.Len())
	}

	report := &Report{Clusters: make([]ReportCluster, 0, len(a.Clusters))}
	for id, members := range a.Clusters {
		c := ReportCluster{ID: id, Articles: make([]ReportArticle, 0, len(members))}
		if id < len(keywords) {
			c.Keywords = TruncateKeywords(keywords[id])
		}
		total := 0.0
		for _, m := range members {
			score := finiteScore(a.Scores[m])
			total += score
			c.Articles = append(c.Articles, ReportArticle{Article: articles[m], Score: &score})
		}
		if len(members) > 0 {
			c.MeanScore = total / float64(len(members))
		}
		report.Clusters = append(report.Clusters, c)
	}
	for _, i := range a.Unclustered() {
		report.Unclustered = append(report.Unclustered, ReportArticle{Article: articles[i]})
	}
	return report, nil
}

// Entries returns the serializable view: clusters keyed by id, then the
// unclustered bucket when it is not empty.
func (r *Report) Entries() *ReportEntries {
	entries := orderedmap.New[string, ClusterEntry]()
	for _, c := range r.Clusters {
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		entries.Set(strconv.Itoa(c.ID), ClusterEntry{
			Articles:     c.Articles,
			Keywords:     keywords,
			ArticleCount: len(c.Articles),
		})
	}
	if len(r.Unclustered) > 0 {
		entries.Set(UnclusteredKey, ClusterEntry{
			Articles:     r.Unclustered,
			Keywords:     []string{UnclusteredKeyword},
			ArticleCount: len(r.Unclustered),
		})
	}
	return entries
}

// MarshalJSON writes the entries in report order. Article text is not HTML escaped.
func (r *Report) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for pair := r.Entries().Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalUnescaped(pair.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalUnescaped(pair.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalUnescaped(v any) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// ReportFilename returns <prefix>_<YYYYMMDD_HHMMSS>.json for t.
func ReportFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, t.Format("20060102_150405"))
}

// SaveReport writes the report into dir and returns the file path.
func SaveReport(r *Report, dir, prefix string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Marshal the report to JSON without HTML escaping
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(dir, ReportFilename(prefix, now))
	if err := os.WriteFile(path, buffer.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// LoadReport reads a saved report, keeping its cluster order.
func LoadReport(path string) (*ReportEntries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	entries := orderedmap.New[string, ClusterEntry]()
	if err := json.Unmarshal(data, entries); err != nil {
		return nil, fmt.Errorf("failed to parse report file: %w", err)
	}
	return entries, nil
}

// LatestReport returns the newest <prefix>_*.json report in dir.
func LatestReport(dir, prefix string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}
	var names []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %s_*.json report in %s", prefix, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// CleanReports removes the <prefix>_*.json and <prefix>_*.html reports in dir
// and returns how many were removed. Other files are left alone. A missing
// dir is not an error.
func CleanReports(dir, prefix string) (int, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}
	removed := 0
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		if ext := filepath.Ext(name); ext != ".json" && ext != ".html" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove report: %w", err)
		}
		removed++
	}
	return removed, nil
}
