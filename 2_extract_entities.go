package headlines

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var entityConcurrency int

var ExtractEntitiesCmd = &cobra.Command{
	Use:   "extract-entities",
	Short: "Extract named entities of all articles and cache them",
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

		extractor, err := newEntityExtractor(store)
		if err != nil {
			return err
		}
		if extractor == nil {
			return fmt.Errorf("%w: missing required environment variable: AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY or AZURE_OPENAI_DEPLOYMENT", ErrInvalidConfig)
		}

		cfg, err := clusterConfig(cmd)
		if err != nil {
			return err
		}
		candidates, err := ExtractCandidates(cmd.Context(), extractor, EntityTexts(articles), cfg.FailurePolicy, entityConcurrency)
		if err != nil {
			return fmt.Errorf("failed to extract entities: %w", err)
		}

		total := 0
		for _, c := range candidates {
			total += len(c)
		}
		log.Info().Int("articles", len(articles)).Int("entities", total).Msg("Entity extraction complete")
		return nil
	},
}

func init() {
	addInputFlags(ExtractEntitiesCmd)
	ExtractEntitiesCmd.Flags().IntVar(&entityConcurrency, "concurrency", DefaultEntityConcurrency, "parallel extraction requests")
}

// newEntityExtractor returns the cached Azure extractor, or nil when Azure
// OpenAI is not configured.
func newEntityExtractor(store *EmbeddingStore) (EntityExtractor, error) {
	if Config.AzureOpenAIEndpoint == "" || Config.AzureOpenAIAPIKey == "" || Config.AzureOpenAIDeployment == "" {
		return nil, nil
	}
	client := NewAzureClient(Config.AzureOpenAIEndpoint, Config.AzureOpenAIAPIKey, Config.AzureOpenAIDeployment)
	azure, err := NewAzureEntityExtractor(client)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return azure, nil
	}
	return NewCachedEntityExtractor(store, azure), nil
}
