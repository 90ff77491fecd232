package headlines

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReport(t *testing.T) {
	articles := sampleArticles()
	articles[0].Content = strings.Repeat("long content ", 20)

	report, err := BuildReport(articles, sampleAssignment(), [][]string{{"Federal Reserve", "Powell"}})
	require.NoError(t, err)
	report.Quality = Quality{Articles: 3, Clusters: 1, Unclustered: 1}

	var buf bytes.Buffer
	PrintReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "📌 CLUSTER 0")
	assert.Contains(t, out, "Number of articles: 2")
	assert.Contains(t, out, "🔑 Keywords: Federal Reserve, Powell")
	assert.Contains(t, out, "1. Fed raises rates")
	assert.Contains(t, out, "Similarity Score: 0.950")
	assert.Contains(t, out, "UNCLUSTERED")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "Silhouette")

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), previewWidth+10)
	}
}

func TestPrintReportWideRunes(t *testing.T) {
	articles := []Article{{Title: strings.Repeat("東京", 60), Content: "本文"}}
	a := Assignment{Labels: []int{0}, Scores: []float64{1}, Clusters: [][]int{{0}}}
	report, err := BuildReport(articles, a, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintReport(&buf, report)
	assert.Contains(t, buf.String(), "東京...")
}
