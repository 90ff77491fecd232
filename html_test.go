package headlines

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	report, err := BuildReport(sampleArticles(), sampleAssignment(), [][]string{{"Federal Reserve", "Powell"}})
	require.NoError(t, err)

	md := RenderMarkdown(report.Entries())
	assert.Contains(t, md, "## Cluster 0: Federal Reserve, Powell\n")
	assert.Contains(t, md, "*2 articles*")
	assert.Contains(t, md, "- [Fed raises rates](https://example.com/0) (Wire, score 0.950)")
	assert.Contains(t, md, "- Rates go up (Daily, score 0.900)")
	assert.Contains(t, md, "## Unclustered\n")
	assert.Contains(t, md, "- Cup final tonight (Sports)\n")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\*b\_c \[d\] &lt;e&gt;`, escapeMarkdown("a*b_c\n[d] <e>"))
}

func TestRenderHTML(t *testing.T) {
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	out, err := RenderHTML("## Cluster 0: NASA\n\n- [Launch](https://example.com/launch)\n", now)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>News Clusters</title>")
	assert.Contains(t, out, "5 March 2024")
	assert.Contains(t, out, `<h2 id="cluster-0-nasa">Cluster 0: NASA</h2>`)
	assert.Contains(t, out, `<a href="https://example.com/launch">Launch</a>`)
	assert.Contains(t, out, "max-width: 860px")
}
