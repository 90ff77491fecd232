package headlines

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	topicsPath string
	noCache    bool
	overrides  ClusterConfig
)

var ClusterArticlesCmd = &cobra.Command{
	Use:   "cluster-articles",
	Short: "Cluster articles and write the cluster report",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()

		cfg, err := clusterConfig(cmd)
		if err != nil {
			return err
		}
		articles, err := loadInput(now)
		if err != nil {
			return err
		}

		var store *EmbeddingStore
		if !noCache {
			store, err = OpenEmbeddingStore(storePath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close database")
				}
			}()
		}

		embedder, err := newEmbedder(store)
		if err != nil {
			if topicsPath == "" {
				return err
			}
			log.Warn().Err(err).Msg("No embedder, quality summary will be skipped")
			embedder = nil
		}
		extractor, err := newEntityExtractor(store)
		if err != nil {
			return err
		}

		pipeline, err := NewPipeline(cfg, embedder, extractor)
		if err != nil {
			return err
		}

		var report *Report
		if topicsPath != "" {
			topics, err := LoadTopicModelOutput(topicsPath)
			if err != nil {
				return err
			}
			report, err = pipeline.RunTopics(cmd.Context(), articles, topics)
			if err != nil {
				return err
			}
		} else {
			report, err = pipeline.Run(cmd.Context(), articles)
			if err != nil {
				return err
			}
		}

		PrintReport(cmd.OutOrStdout(), report)

		path, err := SaveReport(report, cfg.OutputDir, cfg.Prefix, now)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("clusters", len(report.Clusters)).Msg("Cluster report saved")
		return nil
	},
}

func init() {
	addInputFlags(ClusterArticlesCmd)
	f := ClusterArticlesCmd.Flags()
	f.StringVar(&provider, "provider", ProviderOpenAI, "embedding provider: openai or tfidf")
	f.StringVar(&topicsPath, "topics", "", "use a topic model output file instead of a clustering strategy")
	f.BoolVar(&noCache, "no-cache", false, "do not read or write the SQLite cache")

	f.StringVar((*string)(&overrides.Strategy), "strategy", "", "clustering strategy: threshold, density or hierarchical")
	f.Float64Var(&overrides.Threshold, "threshold", 0, "threshold strategy: minimum similarity to the anchor")
	f.Float64Var(&overrides.MinSimilarity, "min-similarity", 0, "density strategy: neighbourhood similarity")
	f.IntVar(&overrides.MinMembers, "min-members", 0, "density strategy: neighbours needed for a core point")
	f.Float64Var(&overrides.SimilarityThreshold, "similarity-threshold", 0, "hierarchical strategy: merge cut")
	f.IntVar(&overrides.MinClusterSize, "min-cluster-size", 0, "hierarchical strategy: smaller clusters are dissolved")
	f.IntVar(&overrides.TitleRepeat, "title-repeat", 0, "times the title is repeated before the content")
	f.IntVar(&overrides.MaxSentences, "max-sentences", 0, "content sentences kept, 0 keeps all")
	f.StringSliceVar(&overrides.EntityCategories, "categories", nil, "entity categories accepted as keywords")
	f.StringVar(&overrides.OutputDir, "output", "", "report output directory")
	f.StringVar(&overrides.Prefix, "prefix", "", "report file name prefix")
}

// clusterConfig loads --config (or cluster.yaml when present) over the
// defaults and applies the flags the user set explicitly.
func clusterConfig(cmd *cobra.Command) (ClusterConfig, error) {
	cfg, err := ResolveClusterConfig(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("failure-policy") {
		cfg.FailurePolicy = FailurePolicy(policy)
	}
	if flags.Changed("strategy") {
		cfg.Strategy = overrides.Strategy
	}
	if flags.Changed("threshold") {
		cfg.Threshold = overrides.Threshold
	}
	if flags.Changed("min-similarity") {
		cfg.MinSimilarity = overrides.MinSimilarity
	}
	if flags.Changed("min-members") {
		cfg.MinMembers = overrides.MinMembers
	}
	if flags.Changed("similarity-threshold") {
		cfg.SimilarityThreshold = overrides.SimilarityThreshold
	}
	if flags.Changed("min-cluster-size") {
		cfg.MinClusterSize = overrides.MinClusterSize
	}
	if flags.Changed("title-repeat") {
		cfg.TitleRepeat = overrides.TitleRepeat
	}
	if flags.Changed("max-sentences") {
		cfg.MaxSentences = overrides.MaxSentences
	}
	if flags.Changed("categories") {
		cfg.EntityCategories = overrides.EntityCategories
	}
	if flags.Changed("output") {
		cfg.OutputDir = overrides.OutputDir
	}
	if flags.Changed("prefix") {
		cfg.Prefix = overrides.Prefix
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.OutputDir = cfg.ReportDir()
	return cfg, nil
}
