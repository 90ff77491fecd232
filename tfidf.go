package headlines

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary.
const DefaultMaxFeatures = 1000

// TFIDFEmbedder vectorizes a batch offline with unigram and bigram TF-IDF
// weights. The vocabulary is fit on the batch being embedded, so vectors
// from different calls are not comparable.
type TFIDFEmbedder struct {
	// MaxFeatures keeps the most frequent terms of the batch. Zero keeps all.
	MaxFeatures int
}

func (e TFIDFEmbedder) Model() string { return "tfidf" }

func (e TFIDFEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	n := len(texts)
	counts := make([]map[string]float64, n)
	df := make(map[string]int)
	total := make(map[string]float64)

	for i, text := range texts {
		counts[i] = make(map[string]float64)
		for _, term := range terms(text) {
			counts[i][term]++
			total[term]++
		}
		for term := range counts[i] {
			df[term]++
		}
	}

	vocabulary := make([]string, 0, len(df))
	for term := range df {
		vocabulary = append(vocabulary, term)
	}
	if e.MaxFeatures > 0 && len(vocabulary) > e.MaxFeatures {
		sort.Slice(vocabulary, func(a, b int) bool {
			if total[vocabulary[a]] != total[vocabulary[b]] {
				return total[vocabulary[a]] > total[vocabulary[b]]
			}
			return vocabulary[a] < vocabulary[b]
		})
		vocabulary = vocabulary[:e.MaxFeatures]
	}
	sort.Strings(vocabulary)

	idf := make([]float64, len(vocabulary))
	for k, term := range vocabulary {
		idf[k] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([][]float64, n)
	for i := range texts {
		v := make([]float64, len(vocabulary))
		norm := 0.0
		for k, term := range vocabulary {
			w := counts[i][term] * idf[k]
			v[k] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range v {
				v[k] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

// terms returns the lowercase unigrams and adjacent-word bigrams of text,
// stop words and single-character tokens removed.
func terms(text string) []string {
	var tokens []string
	iter := words.FromString(strings.ToLower(text))
	for iter.Next() {
		token := iter.Value()
		if utf8.RuneCountInString(token) < 2 || !isWordToken(token) {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}

	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 1; i < len(tokens); i++ {
		out = append(out, tokens[i-1]+" "+tokens[i])
	}
	return out
}

func isWordToken(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var stopWords = func() map[string]struct{} {
	list := strings.Fields(`
		a about above after again against all almost also although always am among an and another any
		anyone anything are around as at be became because become been before being below between both
		but by can cannot could did do does doing done down during each either else enough even ever
		every few for from further get gets had has have having he her here hers herself him himself his
		how however i if in into is it its itself just least less many may me might more most much must
		my myself neither no nor not now of off often on once one only or other others our ours ourselves
		out over own per perhaps please put rather re same see seem seemed seems several she should since
		so some still such than that the their theirs them themselves then there these they this those
		though through thus to together too toward towards under until up upon us very via was we well
		were what whatever when where whether which while who whole whom whose why will with within
		without would yet you your yours yourself yourselves
	`)
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return set
}()
