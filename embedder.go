package headlines

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultEmbeddingModel is used when EMBEDDING_MODEL is not set.
	DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Large

	defaultEmbeddingBatchSize = 256
)

// Embedder maps texts to vectors. The result is index-aligned with texts;
// an entry may be nil when the provider returned nothing for that text.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Vectorize embeds texts with e. Blank texts get a zero vector without
// reaching the provider. Provider failures and missing vectors abort the run
// with ErrCollaborator under FailFast and become zero vectors under Fallback.
func Vectorize(ctx context.Context, e Embedder, texts []string, policy FailurePolicy) ([][]float64, error) {
	var (
		pending []string
		indexes []int
	)
	for i, text := range texts {
		if strings.TrimSpace(text) != "" {
			pending = append(pending, text)
			indexes = append(indexes, i)
		}
	}

	vectors := make([][]float64, len(texts))
	if len(pending) > 0 {
		embedded, err := e.Embed(ctx, pending)
		if err != nil {
			if policy != Fallback {
				return nil, fmt.Errorf("%w: %s embedding: %w", ErrCollaborator, e.Model(), err)
			}
			log.Warn().Err(err).Str("model", e.Model()).Int("texts", len(pending)).Msg("Embedding failed, using zero vectors")
			embedded = nil
		}
		for k, i := range indexes {
			if k < len(embedded) && len(embedded[k]) > 0 {
				vectors[i] = embedded[k]
			}
		}
	}

	dim := 0
	for _, v := range vectors {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}

	missing := 0
	for i, v := range vectors {
		if v != nil {
			continue
		}
		if strings.TrimSpace(texts[i]) != "" {
			if policy != Fallback {
				return nil, fmt.Errorf("%w: %s returned no vector for item %d", ErrCollaborator, e.Model(), i)
			}
			missing++
		}
		vectors[i] = make([]float64, dim)
	}
	if missing > 0 {
		log.Warn().Int("missing", missing).Str("model", e.Model()).Msg("Replaced missing vectors with zero vectors")
	}
	return vectors, nil
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	batchSize int
}

// NewOpenAIEmbedder returns an embedder for model. An empty baseURL uses the
// public API and an empty model uses DefaultEmbeddingModel.
func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     model,
		batchSize: defaultEmbeddingBatchSize,
	}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
			Model:          openai.EmbeddingModel(e.model),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
		}

		for _, data := range resp.Data {
			i := start + int(data.Index)
			if i < start || i >= end {
				continue
			}
			out[i] = data.Embedding
		}
		log.Debug().Int("batch_start", start).Int("batch_size", end-start).Int("returned", len(resp.Data)).Msg("Embedded batch")
	}
	return out, nil
}
