package headlines

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArticles() []Article {
	return []Article{
		{ID: 0, Title: "Fed raises rates", Content: "The Federal Reserve raised rates.", Source: "Wire", Link: "https://example.com/0"},
		{ID: 1, Title: "Rates go up", Content: "Powell announced a hike.", Source: "Daily", Extra: map[string]any{"author": "A"}},
		{ID: 2, Title: "Cup final tonight", Content: "Fans gather & wait <live>.", Source: "Sports"},
	}
}

func sampleAssignment() Assignment {
	return Assignment{
		Labels:   []int{0, 0, Unclustered},
		Scores:   []float64{0.95, 0.9, 0},
		Clusters: [][]int{{0, 1}},
	}
}

func TestBuildReport(t *testing.T) {
	report, err := BuildReport(sampleArticles(), sampleAssignment(), [][]string{{"Federal Reserve", "Powell"}})
	require.NoError(t, err)

	require.Len(t, report.Clusters, 1)
	var c ReportCluster = report.Clusters[0]
	assert.Equal(t, 0, c.ID)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, []string{"Federal Reserve", "Powell"}, c.Keywords)
	assert.InDelta(t, 0.925, c.MeanScore, 1e-12)
	assert.Equal(t, "Fed raises rates", c.Articles[0].Title)
	require.NotNil(t, c.Articles[0].Score)
	assert.Equal(t, 0.95, *c.Articles[0].Score)

	require.Len(t, report.Unclustered, 1)
	assert.Equal(t, "Cup final tonight", report.Unclustered[0].Title)
	assert.Nil(t, report.Unclustered[0].Score)

	entries := report.Entries()
	var keys []string
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"0", UnclusteredKey}, keys)

	unclustered, ok := entries.Get(UnclusteredKey)
	require.True(t, ok)
	assert.Equal(t, []string{UnclusteredKeyword}, unclustered.Keywords)
	assert.Equal(t, 1, unclustered.ArticleCount)
}

func TestBuildReportWithoutUnclustered(t *testing.T) {
	a := Assignment{Labels: []int{0, 1}, Scores: []float64{1, 1}, Clusters: [][]int{{0}, {1}}}
	report, err := BuildReport(sampleArticles()[:2], a, nil)
	require.NoError(t, err)

	entries := report.Entries()
	assert.Equal(t, 2, entries.Len())
	_, ok := entries.Get(UnclusteredKey)
	assert.False(t, ok)

	first, _ := entries.Get("0")
	assert.NotNil(t, first.Keywords)
	assert.Empty(t, first.Keywords)
}

func TestBuildReportEmpty(t *testing.T) {
	report, err := BuildReport(nil, newAssignment(0), nil)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestBuildReportLengthMismatch(t *testing.T) {
	_, err := BuildReport(sampleArticles()[:2], sampleAssignment(), nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestReportJSON(t *testing.T) {
	report, err := BuildReport(sampleArticles(), sampleAssignment(), [][]string{{"Federal Reserve"}})
	require.NoError(t, err)

	data, err := report.MarshalJSON()
	require.NoError(t, err)

	assert.Less(t, bytes.Index(data, []byte(`"0"`)), bytes.Index(data, []byte(`"unclustered"`)))
	assert.Contains(t, string(data), "Fans gather & wait <live>.")

	var got map[string]struct {
		Articles     []map[string]any `json:"articles"`
		Keywords     []string         `json:"keywords"`
		ArticleCount int              `json:"article_count"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	cluster := got["0"]
	assert.Equal(t, 2, cluster.ArticleCount)
	assert.Equal(t, []string{"Federal Reserve"}, cluster.Keywords)
	assert.Equal(t, 0.95, cluster.Articles[0]["similarity_score"])
	assert.Equal(t, "https://example.com/0", cluster.Articles[0]["link"])
	assert.Equal(t, "A", cluster.Articles[1]["author"])

	unclustered := got[UnclusteredKey]
	assert.Equal(t, []string{"unclustered"}, unclustered.Keywords)
	assert.NotContains(t, unclustered.Articles[0], "similarity_score")
	assert.Equal(t, "Sports", unclustered.Articles[0]["source"])
}

func TestReportCoercesNonFiniteScores(t *testing.T) {
	a := Assignment{
		Labels:   []int{0, 0},
		Scores:   []float64{math.NaN(), math.Inf(1)},
		Clusters: [][]int{{0, 1}},
	}
	report, err := BuildReport(sampleArticles()[:2], a, nil)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var got map[string]ClusterEntry
	require.NoError(t, json.Unmarshal(data, &got))
	articles := got["0"].Articles
	require.Len(t, articles, 2)
	assert.Equal(t, 0.0, *articles[0].Score)
	assert.Equal(t, 1.0, *articles[1].Score)
	assert.Equal(t, 0.5, report.Clusters[0].MeanScore)
}

func TestSaveAndLoadReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	report, err := BuildReport(sampleArticles(), sampleAssignment(), [][]string{{"Powell"}})
	require.NoError(t, err)

	path, err := SaveReport(report, dir, "news_clusters", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "news_clusters_20240305_140709.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"0\": {")
	assert.Contains(t, string(raw), "Fans gather & wait <live>.")
	assert.NotContains(t, string(raw), `\u0026`)

	entries, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, 2, entries.Len())
	assert.Equal(t, "0", entries.Oldest().Key)
	assert.Equal(t, UnclusteredKey, entries.Newest().Key)

	cluster := entries.Oldest().Value
	require.Len(t, cluster.Articles, 2)
	assert.Equal(t, "Fed raises rates", cluster.Articles[0].Title)
	require.NotNil(t, cluster.Articles[0].Score)
	assert.Equal(t, 0.95, *cluster.Articles[0].Score)
	assert.Nil(t, cluster.Articles[0].Extra)
	assert.Equal(t, map[string]any{"author": "A"}, cluster.Articles[1].Extra)
	assert.Nil(t, entries.Newest().Value.Articles[0].Score)
}

func TestLatestReport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"news_clusters_20240101_000000.json",
		"news_clusters_20240305_140709.json",
		"news_clusters_20240201_000000.json",
		"other_20250101_000000.json",
		"news_clusters_20240305_140709.html",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	path, err := LatestReport(dir, "news_clusters")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "news_clusters_20240305_140709.json"), path)

	_, err = LatestReport(dir, "missing")
	assert.Error(t, err)
}

func TestReportFilename(t *testing.T) {
	now := time.Date(2023, 12, 31, 23, 59, 1, 0, time.UTC)
	assert.Equal(t, "clusters_20231231_235901.json", ReportFilename("clusters", now))
}

func TestCleanReports(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"news_clusters_20240305_101500.json",
		"news_clusters_20240305_101500.html",
		"news_clusters_notes.txt",
		"articles.json",
		"daily_20240305_101500.json",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	removed, err := CleanReports(dir, "news_clusters")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range left {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"news_clusters_notes.txt", "articles.json", "daily_20240305_101500.json"}, names)

	removed, err = CleanReports(filepath.Join(dir, "missing"), "news_clusters")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
