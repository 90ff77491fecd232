package headlines

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicModelAssignment(t *testing.T) {
	topics := TopicModelOutput{
		Topics:     []int{1, 1, -1, 0},
		Confidence: []float64{0.5, 0.9, 0.3, 0.7},
		Keywords: map[string][]string{
			"1": {"rates", "inflation", "fed", "bank", "economy", "jobs", "markets"},
			"0": {"football"},
		},
	}

	a, keywords, err := topics.Assignment(4)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {3}}, a.Clusters)
	assert.Equal(t, []int{0, 0, Unclustered, 1}, a.Labels)
	assert.Equal(t, []float64{0.5, 0.9, 0, 0.7}, a.Scores)
	assert.Equal(t, [][]string{{"rates", "inflation", "fed", "bank", "economy"}, {"football"}}, keywords)
}

func TestTopicModelAssignmentErrors(t *testing.T) {
	t.Run("topic count mismatch", func(t *testing.T) {
		_, _, err := TopicModelOutput{Topics: []int{0}}.Assignment(2)
		assert.ErrorIs(t, err, ErrCollaborator)
	})

	t.Run("confidence count mismatch", func(t *testing.T) {
		_, _, err := TopicModelOutput{Topics: []int{0, 0}, Confidence: []float64{1}}.Assignment(2)
		assert.ErrorIs(t, err, ErrCollaborator)
	})
}

func TestTopicModelNonFiniteConfidence(t *testing.T) {
	topics := TopicModelOutput{
		Topics:     []int{0, 0, 0},
		Confidence: []float64{math.NaN(), math.Inf(1), math.Inf(-1)},
	}
	a, keywords, err := topics.Assignment(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, -1}, a.Scores)
	assert.Equal(t, [][]int{{1, 0, 2}}, a.Clusters)
	assert.Equal(t, [][]string{{}}, keywords)
}

func TestLoadTopicModelOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topics":[0,-1],"confidence":[0.8,0.1],"keywords":{"0":["a","b"]}}`), 0644))

	topics, err := LoadTopicModelOutput(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, -1}, topics.Topics)
	assert.Equal(t, []string{"a", "b"}, topics.Keywords["0"])

	_, err = LoadTopicModelOutput(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
