package headlines

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClusterConfigIsValid(t *testing.T) {
	cfg := DefaultClusterConfig()
	require.NoError(t, cfg.Validate())

	s, err := cfg.ClusterStrategy()
	require.NoError(t, err)
	assert.Equal(t, HierarchicalAgglomerative{SimilarityThreshold: 0.5, MinClusterSize: 2, Linkage: LinkageComplete}, s)
	assert.Equal(t, NormalizeOptions{TitleRepeat: 2, MaxSentences: 3}, cfg.NormalizeOptions())
}

func TestLoadClusterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategy: Density
min_similarity: 0.4
min_members: 3
entity_categories: [ORG, PERSON]
failure_policy: fallback
`), 0644))

	cfg, err := LoadClusterConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyName("Density"), cfg.Strategy)
	assert.Equal(t, 0.4, cfg.MinSimilarity)
	assert.Equal(t, 3, cfg.MinMembers)
	assert.Equal(t, []string{"ORG", "PERSON"}, cfg.EntityCategories)
	assert.Equal(t, Fallback, cfg.FailurePolicy)

	// Unset keys keep their defaults.
	assert.Equal(t, 0.6, cfg.Threshold)
	assert.Equal(t, 2, cfg.TitleRepeat)
	assert.Equal(t, "news_clusters", cfg.Prefix)

	s, err := cfg.ClusterStrategy()
	require.NoError(t, err)
	assert.Equal(t, DensityBased{MinSimilarity: 0.4, MinMembers: 3}, s)
}

func TestLoadClusterConfigErrors(t *testing.T) {
	_, err := LoadClusterConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: [not a number"), 0644))
	_, err = LoadClusterConfig(path)
	assert.Error(t, err)

	cfg, err := LoadClusterConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultClusterConfig(), cfg)
}

func TestClusterConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ClusterConfig)
		field  string
	}{
		{"unknown strategy", func(c *ClusterConfig) { c.Strategy = "kmeans" }, "strategy"},
		{"threshold out of range", func(c *ClusterConfig) { c.Strategy = StrategyThreshold; c.Threshold = 1.5 }, "threshold"},
		{"min members below one", func(c *ClusterConfig) { c.Strategy = StrategyDensity; c.MinMembers = 0 }, "min_members"},
		{"title repeat below one", func(c *ClusterConfig) { c.TitleRepeat = 0 }, "title_repeat"},
		{"negative max sentences", func(c *ClusterConfig) { c.MaxSentences = -1 }, "max_sentences"},
		{"unknown failure policy", func(c *ClusterConfig) { c.FailurePolicy = "retry" }, "failure_policy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClusterConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestResolveClusterConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := ResolveClusterConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultClusterConfig(), cfg)
	assert.Equal(t, "output", cfg.ReportDir())

	require.NoError(t, os.WriteFile(DefaultConfigPath, []byte("output_dir: reports\nprefix: daily\n"), 0644))
	cfg, err = ResolveClusterConfig("")
	require.NoError(t, err)
	assert.Equal(t, "reports", cfg.ReportDir())
	assert.Equal(t, "daily", cfg.Prefix)

	require.NoError(t, os.WriteFile("other.yaml", []byte("output_dir: \"\"\n"), 0644))
	cfg, err = ResolveClusterConfig("other.yaml")
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.ReportDir())

	_, err = ResolveClusterConfig("missing.yaml")
	assert.Error(t, err)
}
