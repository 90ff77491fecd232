package headlines

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// NormalizeOptions controls how the vectorization input is built.
type NormalizeOptions struct {
	// TitleRepeat is how many times the title is written before the content.
	TitleRepeat int
	// MaxSentences keeps only the first N content sentences. Zero keeps everything.
	MaxSentences int
}

// SentenceSplitter breaks text into sentences.
type SentenceSplitter interface {
	Sentences(text string) []string
}

// UAX29Splitter splits on Unicode sentence boundaries.
type UAX29Splitter struct{}

func (UAX29Splitter) Sentences(text string) []string {
	var out []string
	iter := sentences.FromString(text)
	for iter.Next() {
		if s := strings.TrimSpace(iter.Value()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Normalizer builds the canonical text fed to an Embedder.
type Normalizer struct {
	opts     NormalizeOptions
	splitter SentenceSplitter
}

// NewNormalizer returns a Normalizer. A nil splitter uses UAX29Splitter.
func NewNormalizer(opts NormalizeOptions, splitter SentenceSplitter) *Normalizer {
	if opts.TitleRepeat < 1 {
		opts.TitleRepeat = 1
	}
	if splitter == nil {
		splitter = UAX29Splitter{}
	}
	return &Normalizer{opts: opts, splitter: splitter}
}

// Normalize returns the title repeated TitleRepeat times followed by the
// (possibly truncated) content. Empty inputs give a shorter but valid string.
func (n *Normalizer) Normalize(title, content string) string {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if n.opts.MaxSentences > 0 && content != "" {
		sents := n.splitter.Sentences(content)
		if len(sents) > n.opts.MaxSentences {
			sents = sents[:n.opts.MaxSentences]
		}
		content = strings.Join(sents, " ")
	}

	parts := make([]string, 0, n.opts.TitleRepeat+1)
	if title != "" {
		for range n.opts.TitleRepeat {
			parts = append(parts, title)
		}
	}
	if content != "" {
		parts = append(parts, content)
	}
	return strings.Join(parts, " ")
}

// NormalizeArticles normalizes every article, keeping index alignment.
func (n *Normalizer) NormalizeArticles(articles []Article) []string {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = n.Normalize(a.Title, a.Content)
	}
	return texts
}
