package headlines

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sosodev/duration"
	"github.com/spf13/cobra"
)

// Embedding providers selectable with --provider.
const (
	ProviderOpenAI = "openai"
	ProviderTFIDF  = "tfidf"
)

// Flags shared by the pipeline steps.
var (
	articlesPath string
	storePath    string
	provider     string
	maxAge       string
	configPath   string
	policy       string
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&articlesPath, "articles", "articles.json", "JSON array of articles")
	cmd.Flags().StringVar(&storePath, "db", DefaultStorePath, "SQLite cache of embeddings and entities")
	cmd.Flags().StringVar(&maxAge, "max-age", "", "only keep articles published within this ISO-8601 duration (e.g. P2D)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML cluster configuration (default cluster.yaml when present)")
	cmd.Flags().StringVar(&policy, "failure-policy", string(FailFast), "what to do when a provider returns nothing: fail-fast or fallback")
}

var EmbedArticlesCmd = &cobra.Command{
	Use:   "embed-articles",
	Short: "Generate embeddings for all articles and cache them",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := loadInput(time.Now())
		if err != nil {
			return err
		}

		store, err := OpenEmbeddingStore(storePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}()

		cfg, err := clusterConfig(cmd)
		if err != nil {
			return err
		}
		embedder, err := newEmbedder(store)
		if err != nil {
			return err
		}

		texts := NewNormalizer(cfg.NormalizeOptions(), nil).NormalizeArticles(articles)
		vectors, err := Vectorize(cmd.Context(), embedder, texts, cfg.FailurePolicy)
		if err != nil {
			return fmt.Errorf("failed to embed articles: %w", err)
		}

		embeddings, entities, err := store.Counts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count cache rows: %w", err)
		}
		log.Info().
			Int("articles", len(vectors)).
			Int("cached_embeddings", embeddings).
			Int("cached_entities", entities).
			Msg("Article embedding complete")
		return nil
	},
}

func init() {
	addInputFlags(EmbedArticlesCmd)
	EmbedArticlesCmd.Flags().StringVar(&provider, "provider", ProviderOpenAI, "embedding provider: openai or tfidf")
}

// loadInput reads --articles and applies the --max-age window.
func loadInput(now time.Time) ([]Article, error) {
	articles, err := LoadArticles(articlesPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("articles", len(articles)).Str("path", articlesPath).Msg("Loaded articles")

	if maxAge == "" {
		return articles, nil
	}
	window, err := parseMaxAge(maxAge)
	if err != nil {
		return nil, err
	}
	recent := FilterRecent(articles, now, window)
	log.Info().Int("kept", len(recent)).Int("dropped", len(articles)-len(recent)).Dur("window", window).Msg("Applied max-age window")
	return recent, nil
}

func parseMaxAge(s string) (time.Duration, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, &ConfigError{Field: "max_age", Reason: fmt.Sprintf("invalid ISO-8601 duration %q: %v", s, err)}
	}
	window := d.ToTimeDuration()
	if window <= 0 {
		return 0, &ConfigError{Field: "max_age", Reason: "must be positive"}
	}
	return window, nil
}

// newEmbedder builds the provider selected by --provider. OpenAI vectors go
// through the cache when store is not nil.
func newEmbedder(store *EmbeddingStore) (Embedder, error) {
	switch strings.ToLower(provider) {
	case ProviderTFIDF:
		return TFIDFEmbedder{MaxFeatures: DefaultMaxFeatures}, nil
	case ProviderOpenAI, "":
		if Config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: missing required environment variable: OPENAI_API_KEY", ErrInvalidConfig)
		}
		var embedder Embedder = NewOpenAIEmbedder(Config.OpenAIAPIKey, Config.OpenAIBaseURL, Config.EmbeddingModel)
		if store != nil {
			embedder = NewCachedEmbedder(store, embedder)
		}
		return embedder, nil
	default:
		return nil, &ConfigError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
}
