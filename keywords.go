package headlines

import (
	"sort"
	"strings"
)

// MaxKeywords is the most keywords a cluster carries.
const MaxKeywords = 5

// UnclusteredKeyword is the fixed keyword of the unclustered bucket.
const UnclusteredKeyword = "unclustered"

// CandidateTerm is a keyword candidate surfaced by an entity extractor.
type CandidateTerm struct {
	Text     string `json:"text" jsonschema:"description=The entity exactly as written in the text"`
	Category string `json:"category" jsonschema:"enum=EVENT,enum=ORG,enum=PERSON,enum=LOC,enum=GPE,enum=OTHER,description=Entity category"`
}

// KeywordExtractor ranks candidate terms of a cluster's members.
type KeywordExtractor struct {
	accepted map[string]bool
}

// NewKeywordExtractor accepts candidates whose category is in categories
// (case-insensitive). No categories means DefaultEntityCategories.
func NewKeywordExtractor(categories []string) *KeywordExtractor {
	if len(categories) == 0 {
		categories = DefaultEntityCategories
	}
	accepted := make(map[string]bool, len(categories))
	for _, c := range categories {
		accepted[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return &KeywordExtractor{accepted: accepted}
}

// Extract counts accepted candidate terms over the members' documents and
// returns up to MaxKeywords of them, most frequent first. Ties keep the
// order in which the terms were first seen.
func (k *KeywordExtractor) Extract(members []int, candidates [][]CandidateTerm) []string {
	counts := make(map[string]int)
	var seen []string
	for _, m := range members {
		if m < 0 || m >= len(candidates) {
			continue
		}
		for _, c := range candidates[m] {
			text := strings.TrimSpace(c.Text)
			if text == "" || !k.accepted[strings.ToUpper(c.Category)] {
				continue
			}
			if counts[text] == 0 {
				seen = append(seen, text)
			}
			counts[text]++
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return counts[seen[i]] > counts[seen[j]]
	})
	return TruncateKeywords(seen)
}

// TruncateKeywords returns at most MaxKeywords terms of an already ranked list.
func TruncateKeywords(ranked []string) []string {
	out := make([]string, 0, min(len(ranked), MaxKeywords))
	for _, term := range ranked {
		if len(out) == MaxKeywords {
			break
		}
		out = append(out, term)
	}
	return out
}

// ClusterKeywords computes the keywords of every cluster in a.
func (k *KeywordExtractor) ClusterKeywords(a Assignment, candidates [][]CandidateTerm) [][]string {
	out := make([][]string, len(a.Clusters))
	for id, members := range a.Clusters {
		out[id] = k.Extract(members, candidates)
	}
	return out
}
