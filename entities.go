package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultEntityConcurrency bounds parallel extractor calls.
const DefaultEntityConcurrency = 4

// EntityExtractor surfaces keyword candidates from the raw text of one article.
type EntityExtractor interface {
	Name() string
	Extract(ctx context.Context, text string) ([]CandidateTerm, error)
}

// ExtractCandidates runs x over texts with at most concurrency calls in
// flight. The result is index-aligned with texts. Blank texts yield an empty
// list. Under FailFast the first failure cancels the rest and is returned
// wrapped in ErrCollaborator; under Fallback a failed item gets an empty list.
func ExtractCandidates(ctx context.Context, x EntityExtractor, texts []string, policy FailurePolicy, concurrency int) ([][]CandidateTerm, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([][]CandidateTerm, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = []CandidateTerm{}
			continue
		}
		g.Go(func() error {
			terms, err := x.Extract(ctx, text)
			if err != nil {
				if policy != Fallback {
					return fmt.Errorf("%w: %s entity extraction for item %d: %w", ErrCollaborator, x.Name(), i, err)
				}
				log.Warn().Err(err).Int("item", i).Str("extractor", x.Name()).Msg("Entity extraction failed, using no candidates")
				terms = nil
			}
			if terms == nil {
				terms = []CandidateTerm{}
			}
			out[i] = terms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type entityExtractionResponse struct {
	Entities []CandidateTerm `json:"entities" jsonschema:"description=Named entities mentioned in the article"`
}

// AzureEntityExtractor asks an Azure OpenAI deployment for the named
// entities of a text using structured output.
type AzureEntityExtractor struct {
	client *AzureClient
	schema map[string]any
}

// NewAzureEntityExtractor returns an extractor backed by client.
func NewAzureEntityExtractor(client *AzureClient) (*AzureEntityExtractor, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(&entityExtractionResponse{})

	// Ensure the schema has the required type field
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	return &AzureEntityExtractor{client: client, schema: schema}, nil
}

func (x *AzureEntityExtractor) Name() string { return "azure:" + x.client.Deployment }

func (x *AzureEntityExtractor) Extract(ctx context.Context, text string) ([]CandidateTerm, error) {
	requestBody := map[string]any{
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": "You extract named entities from news articles. Label each entity with one category: EVENT, ORG, PERSON, LOC, GPE or OTHER. Copy entity text exactly as it appears.",
			},
			{
				"role":    "user",
				"content": fmt.Sprintf("List the named entities in this article:\n\n%s", text),
			},
		},
		"max_tokens":  1000,
		"temperature": 0.0,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "entity_extraction",
				"schema": x.schema,
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	responseBody, err := x.client.ChatCompletion(ctx, jsonBody)
	if err != nil {
		return nil, err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(responseBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no content in response")
	}

	var extraction entityExtractionResponse
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}
	return extraction.Entities, nil
}

// CachedEntityExtractor serves candidate lists from an EmbeddingStore.
type CachedEntityExtractor struct {
	store *EmbeddingStore
	next  EntityExtractor
}

func NewCachedEntityExtractor(store *EmbeddingStore, next EntityExtractor) *CachedEntityExtractor {
	return &CachedEntityExtractor{store: store, next: next}
}

func (c *CachedEntityExtractor) Name() string { return c.next.Name() }

func (c *CachedEntityExtractor) Extract(ctx context.Context, text string) ([]CandidateTerm, error) {
	key := CacheKey(c.next.Name(), text)
	terms, ok, err := c.store.Entities(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return terms, nil
	}

	terms, err = c.next.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveEntities(ctx, key, c.next.Name(), terms); err != nil {
		return nil, err
	}
	return terms, nil
}
