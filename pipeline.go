package headlines

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Pipeline runs normalize, vectorize, similarity, cluster and summarize
// over one batch. Collaborators are owned by the caller.
type Pipeline struct {
	Normalizer *Normalizer
	Embedder   Embedder
	// Entities may be nil, in which case clusters get no keywords.
	Entities    EntityExtractor
	Strategy    Strategy
	Keywords    *KeywordExtractor
	Policy      FailurePolicy
	Concurrency int
}

// NewPipeline validates cfg and wires the given collaborators.
func NewPipeline(cfg ClusterConfig, embedder Embedder, entities EntityExtractor) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := cfg.ClusterStrategy()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Normalizer:  NewNormalizer(cfg.NormalizeOptions(), nil),
		Embedder:    embedder,
		Entities:    entities,
		Strategy:    strategy,
		Keywords:    NewKeywordExtractor(cfg.EntityCategories),
		Policy:      cfg.FailurePolicy,
		Concurrency: DefaultEntityConcurrency,
	}, nil
}

// Run clusters articles. An empty batch gives an empty report.
func (p *Pipeline) Run(ctx context.Context, articles []Article) (*Report, error) {
	if p.Strategy == nil {
		return nil, &ConfigError{Field: "strategy", Reason: "is required"}
	}
	if err := p.Strategy.Validate(); err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		log.Info().Msg("Empty batch, nothing to cluster")
		return &Report{}, nil
	}
	if p.Embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrCollaborator)
	}

	texts := p.Normalizer.NormalizeArticles(articles)
	vectors, err := Vectorize(ctx, p.Embedder, texts, p.Policy)
	if err != nil {
		return nil, err
	}
	log.Info().Int("articles", len(articles)).Str("model", p.Embedder.Model()).Msg("Vectorized articles")

	sim, err := ComputeSimilarity(vectors)
	if err != nil {
		return nil, err
	}
	dist := sim.Distance()

	assignment, err := Cluster(sim, dist, p.Strategy)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("strategy", string(p.Strategy.Name())).
		Int("clusters", len(assignment.Clusters)).
		Int("unclustered", len(assignment.Unclustered())).
		Msg("Clustered articles")

	candidates, err := p.candidates(ctx, articles)
	if err != nil {
		return nil, err
	}

	report, err := BuildReport(articles, assignment, p.Keywords.ClusterKeywords(assignment, candidates))
	if err != nil {
		return nil, err
	}
	report.Quality = MeasureQuality(articles, dist, assignment)
	log.Info().Float64("silhouette", report.Quality.Silhouette).Str("assessment", report.Quality.Assessment).Msg("Clustering quality")
	return report, nil
}

// RunTopics builds the report from a topic model's output instead of a
// clustering strategy. Keywords come from the topic model.
func (p *Pipeline) RunTopics(ctx context.Context, articles []Article, topics TopicModelOutput) (*Report, error) {
	assignment, keywords, err := topics.Assignment(len(articles))
	if err != nil {
		return nil, err
	}
	log.Info().Int("topics", len(assignment.Clusters)).Int("outliers", len(assignment.Unclustered())).Msg("Loaded topic model output")

	var dist *DistanceMatrix
	if p.Embedder != nil && len(articles) > 0 {
		vectors, err := Vectorize(ctx, p.Embedder, p.Normalizer.NormalizeArticles(articles), p.Policy)
		if err != nil {
			return nil, err
		}
		sim, err := ComputeSimilarity(vectors)
		if err != nil {
			return nil, err
		}
		dist = sim.Distance()
	}

	report, err := BuildReport(articles, assignment, keywords)
	if err != nil {
		return nil, err
	}
	report.Quality = MeasureQuality(articles, dist, assignment)
	return report, nil
}

func (p *Pipeline) candidates(ctx context.Context, articles []Article) ([][]CandidateTerm, error) {
	if p.Entities == nil {
		log.Warn().Msg("No entity extractor configured, clusters will have no keywords")
		return nil, nil
	}
	candidates, err := ExtractCandidates(ctx, p.Entities, EntityTexts(articles), p.Policy, p.Concurrency)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, c := range candidates {
		total += len(c)
	}
	log.Info().Int("candidates", total).Str("extractor", p.Entities.Name()).Msg("Extracted keyword candidates")
	return candidates, nil
}

// EntityTexts returns the raw text handed to entity extraction for each article.
func EntityTexts(articles []Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		parts := make([]string, 0, 2)
		if t := strings.TrimSpace(a.Title); t != "" {
			parts = append(parts, t)
		}
		if c := strings.TrimSpace(a.Content); c != "" {
			parts = append(parts, c)
		}
		out[i] = strings.Join(parts, "\n\n")
	}
	return out
}
