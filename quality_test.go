package headlines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoGroups(t *testing.T) (*SimilarityMatrix, *DistanceMatrix) {
	return mustSimilarity(t, [][]float64{
		{1, 0.9, 0.1, 0.1},
		{0.9, 1, 0.1, 0.1},
		{0.1, 0.1, 1, 0.9},
		{0.1, 0.1, 0.9, 1},
	})
}

func TestMeasureQuality(t *testing.T) {
	sim, dist := twoGroups(t)
	a, err := Cluster(sim, dist, HierarchicalAgglomerative{SimilarityThreshold: 0.5, MinClusterSize: 2})
	require.NoError(t, err)

	articles := []Article{{Source: "Wire"}, {Source: "Daily"}, {Source: "Wire"}, {Source: "Wire"}}
	q := MeasureQuality(articles, dist, a)

	assert.Equal(t, 4, q.Articles)
	assert.Equal(t, 2, q.Clusters)
	assert.Equal(t, 0, q.Unclustered)
	assert.InDelta(t, 8.0/9.0, q.Silhouette, 1e-9)
	assert.Equal(t, 1, q.CrossSourceGroups)
	assert.Equal(t, map[string]int{"Wire": 3, "Daily": 1}, q.SourceDistribution)
	assert.Equal(t, "Excellent cluster separation with balanced grouping", q.Assessment)
}

func TestSilhouetteScore(t *testing.T) {
	_, dist := twoGroups(t)

	t.Run("single cluster", func(t *testing.T) {
		a := Assignment{Labels: []int{0, 0, 0, 0}, Scores: make([]float64, 4), Clusters: [][]int{{0, 1, 2, 3}}}
		assert.Equal(t, 0.0, silhouetteScore(dist, a))
	})

	t.Run("singleton members score zero", func(t *testing.T) {
		a := Assignment{Labels: []int{0, 0, 1, Unclustered}, Scores: make([]float64, 4), Clusters: [][]int{{0, 1}, {2}}}
		assert.InDelta(t, (2*8.0/9.0)/3, silhouetteScore(dist, a), 1e-9)
	})

	t.Run("no distances", func(t *testing.T) {
		a := Assignment{Labels: []int{0, 1}, Scores: make([]float64, 2), Clusters: [][]int{{0}, {1}}}
		assert.Equal(t, 0.0, silhouetteScore(nil, a))
	})
}
