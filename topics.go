package headlines

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

// TopicModelOutput is what an external topic model hands over: one topic per
// document (-1 for outliers), a confidence per document and ranked terms per topic.
type TopicModelOutput struct {
	Topics     []int               `json:"topics"`
	Confidence []float64           `json:"confidence"`
	Keywords   map[string][]string `json:"keywords"`
}

// LoadTopicModelOutput reads a topic model output file.
func LoadTopicModelOutput(path string) (TopicModelOutput, error) {
	var out TopicModelOutput
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("failed to read topics file: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse topics file: %w", err)
	}
	return out, nil
}

// Assignment converts the topic model output for n documents into an
// Assignment plus the precomputed keywords of each cluster id. Clusters are
// numbered in order of first appearance; members are ranked by confidence.
func (t TopicModelOutput) Assignment(n int) (Assignment, [][]string, error) {
	if len(t.Topics) != n {
		return Assignment{}, nil, fmt.Errorf("%w: topic model labelled %d documents, batch has %d", ErrCollaborator, len(t.Topics), n)
	}
	if t.Confidence != nil && len(t.Confidence) != n {
		return Assignment{}, nil, fmt.Errorf("%w: topic model scored %d documents, batch has %d", ErrCollaborator, len(t.Confidence), n)
	}

	a := newAssignment(n)
	byTopic := make(map[int][]int)
	var order []int
	for i, topic := range t.Topics {
		if topic < 0 {
			continue
		}
		if _, ok := byTopic[topic]; !ok {
			order = append(order, topic)
		}
		byTopic[topic] = append(byTopic[topic], i)
	}

	keywords := make([][]string, 0, len(order))
	for _, topic := range order {
		members := byTopic[topic]
		for _, m := range members {
			if t.Confidence != nil {
				a.Scores[m] = finiteScore(t.Confidence[m])
			}
		}
		sort.SliceStable(members, func(i, j int) bool {
			return a.Scores[members[i]] > a.Scores[members[j]]
		})
		a.addCluster(members)
		keywords = append(keywords, TruncateKeywords(t.Keywords[strconv.Itoa(topic)]))
	}
	return a, keywords, nil
}

// finiteScore coerces a score to a finite float: NaN becomes 0 and
// infinities are clamped to the similarity range.
func finiteScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return 1
	case math.IsInf(v, -1):
		return -1
	}
	return v
}
