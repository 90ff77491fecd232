package headlines

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	previewWidth = 100
	titleWidth   = 80
)

// PrintReport writes a human readable summary of the report to w.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintln(w, "=====================================")
	fmt.Fprintln(w, "        NEWS CLUSTERING REPORT")
	fmt.Fprintln(w, "=====================================")
	fmt.Fprintf(w, "📊 Articles Processed: %d → %d clusters, %d unclustered\n",
		r.Quality.Articles, len(r.Clusters), len(r.Unclustered))
	if r.Quality.Clusters > 1 {
		fmt.Fprintf(w, "📈 Silhouette Score: %.3f\n", r.Quality.Silhouette)
	}
	if r.Quality.Assessment != "" {
		fmt.Fprintf(w, "🎯 Quality Assessment: %s\n", r.Quality.Assessment)
	}
	if len(r.Quality.SourceDistribution) > 0 {
		fmt.Fprintln(w, "\n👥 Source Distribution:")
		sources := make([]string, 0, len(r.Quality.SourceDistribution))
		for source := range r.Quality.SourceDistribution {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(w, "  %s: %d articles\n", source, r.Quality.SourceDistribution[source])
		}
	}

	for _, c := range r.Clusters {
		fmt.Fprintf(w, "\n📌 CLUSTER %d\n", c.ID)
		fmt.Fprintf(w, "📊 Number of articles: %d (mean score %.3f)\n", c.Size(), c.MeanScore)
		fmt.Fprintf(w, "🔑 Keywords: %s\n", strings.Join(c.Keywords, ", "))
		printArticles(w, c.Articles)
	}

	if len(r.Unclustered) > 0 {
		fmt.Fprintln(w, "\n🗂  UNCLUSTERED")
		fmt.Fprintf(w, "📊 Number of articles: %d\n", len(r.Unclustered))
		printArticles(w, r.Unclustered)
	}
	fmt.Fprintln(w, "=====================================")
}

func printArticles(w io.Writer, articles []ReportArticle) {
	for i, article := range articles {
		fmt.Fprintf(w, "  %d. %s\n", i+1, runewidth.Truncate(oneLine(article.Title), titleWidth, "..."))
		if article.Score != nil {
			fmt.Fprintf(w, "     Similarity Score: %.3f\n", *article.Score)
		}
		if article.Content != "" {
			fmt.Fprintf(w, "     %s\n", runewidth.Truncate(oneLine(article.Content), previewWidth, "..."))
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
