package headlines

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all environment variables
var Config struct {
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	EmbeddingModel        string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIDeployment string
}

// FailurePolicy decides what happens when a collaborator returns nothing for an item.
type FailurePolicy string

const (
	// FailFast aborts the run on the first missing vector or candidate list.
	FailFast FailurePolicy = "fail-fast"
	// Fallback substitutes a zero vector or an empty candidate list.
	Fallback FailurePolicy = "fallback"
)

// DefaultEntityCategories are the named-entity labels accepted as keyword candidates.
var DefaultEntityCategories = []string{"EVENT", "ORG", "PERSON", "LOC", "GPE"}

// ClusterConfig is the full parameter set of one clustering run.
type ClusterConfig struct {
	Strategy StrategyName `yaml:"strategy"`

	// Strategy A
	Threshold float64 `yaml:"threshold"`

	// Strategy B
	MinSimilarity float64 `yaml:"min_similarity"`
	MinMembers    int     `yaml:"min_members"`

	// Strategy C
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinClusterSize      int     `yaml:"min_cluster_size"`
	Linkage             string  `yaml:"linkage"`

	TitleRepeat  int `yaml:"title_repeat"`
	MaxSentences int `yaml:"max_sentences"`

	EntityCategories []string      `yaml:"entity_categories"`
	FailurePolicy    FailurePolicy `yaml:"failure_policy"`

	OutputDir string `yaml:"output_dir"`
	Prefix    string `yaml:"prefix"`
}

// DefaultClusterConfig returns the parameters used when no config file is given.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Strategy:            StrategyHierarchical,
		Threshold:           0.6,
		MinSimilarity:       0.3,
		MinMembers:          2,
		SimilarityThreshold: 0.5,
		MinClusterSize:      2,
		Linkage:             LinkageComplete,
		TitleRepeat:         2,
		MaxSentences:        3,
		EntityCategories:    append([]string(nil), DefaultEntityCategories...),
		FailurePolicy:       FailFast,
		OutputDir:           "output",
		Prefix:              "news_clusters",
	}
}

// LoadClusterConfig reads a YAML file on top of the defaults. An empty path returns the defaults.
func LoadClusterConfig(path string) (ClusterConfig, error) {
	cfg := DefaultClusterConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath is read when no config file is named and it exists.
const DefaultConfigPath = "cluster.yaml"

// ResolveClusterConfig loads path over the defaults. An empty path falls back
// to DefaultConfigPath when that file exists, and to the defaults otherwise.
func ResolveClusterConfig(path string) (ClusterConfig, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err != nil {
			return DefaultClusterConfig(), nil
		}
		path = DefaultConfigPath
	}
	cfg, err := LoadClusterConfig(path)
	if err != nil {
		return cfg, err
	}
	log.Debug().Str("path", path).Msg("Loaded cluster configuration")
	return cfg, nil
}

// ReportDir is the directory reports are written to and cleaned from.
func (c ClusterConfig) ReportDir() string {
	if c.OutputDir == "" {
		return "."
	}
	return c.OutputDir
}

// Validate rejects parameters that cannot produce a meaningful run.
func (c ClusterConfig) Validate() error {
	if _, err := c.ClusterStrategy(); err != nil {
		return err
	}
	if c.TitleRepeat < 1 {
		return &ConfigError{Field: "title_repeat", Reason: "must be at least 1"}
	}
	if c.MaxSentences < 0 {
		return &ConfigError{Field: "max_sentences", Reason: "must not be negative"}
	}
	switch c.FailurePolicy {
	case FailFast, Fallback:
	default:
		return &ConfigError{Field: "failure_policy", Reason: fmt.Sprintf("unknown policy %q", c.FailurePolicy)}
	}
	return nil
}

// ClusterStrategy builds the strategy variant selected by Strategy.
func (c ClusterConfig) ClusterStrategy() (Strategy, error) {
	var s Strategy
	switch StrategyName(strings.ToLower(string(c.Strategy))) {
	case StrategyThreshold:
		s = ThresholdGreedy{Threshold: c.Threshold}
	case StrategyDensity:
		s = DensityBased{MinSimilarity: c.MinSimilarity, MinMembers: c.MinMembers}
	case StrategyHierarchical:
		s = HierarchicalAgglomerative{
			SimilarityThreshold: c.SimilarityThreshold,
			MinClusterSize:      c.MinClusterSize,
			Linkage:             c.Linkage,
		}
	default:
		return nil, &ConfigError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", c.Strategy)}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NormalizeOptions returns the TextNormalizer settings of this run.
func (c ClusterConfig) NormalizeOptions() NormalizeOptions {
	return NormalizeOptions{TitleRepeat: c.TitleRepeat, MaxSentences: c.MaxSentences}
}
