package headlines

import (
	"fmt"
	"sort"
)

// Unclustered is the label of items that belong to no cluster.
const Unclustered = -1

// StrategyName selects one of the interchangeable clustering policies.
type StrategyName string

const (
	StrategyThreshold    StrategyName = "threshold"
	StrategyDensity      StrategyName = "density"
	StrategyHierarchical StrategyName = "hierarchical"
)

// LinkageComplete measures cluster distance as the largest member-to-member distance.
const LinkageComplete = "complete"

// Strategy is a clustering policy over a precomputed similarity/distance pair.
// It is implemented by ThresholdGreedy, DensityBased and HierarchicalAgglomerative.
type Strategy interface {
	Name() StrategyName
	Validate() error
	assign(sim *SimilarityMatrix, dist *DistanceMatrix) Assignment
}

// Assignment maps every item index to a cluster id or Unclustered.
type Assignment struct {
	// Labels[i] is the cluster id of item i, or Unclustered.
	Labels []int
	// Scores[i] is the member score of item i inside its cluster. It is 0 for unclustered items.
	Scores []float64
	// Clusters[id] lists the members of cluster id, most representative first.
	Clusters [][]int
}

func newAssignment(n int) Assignment {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Unclustered
	}
	return Assignment{Labels: labels, Scores: make([]float64, n)}
}

// addCluster records members (already ordered) as a new cluster and returns its id.
func (a *Assignment) addCluster(members []int) int {
	id := len(a.Clusters)
	for _, m := range members {
		a.Labels[m] = id
	}
	a.Clusters = append(a.Clusters, members)
	return id
}

// Len returns the number of items covered by the assignment.
func (a Assignment) Len() int { return len(a.Labels) }

// Unclustered returns the unclustered item indices in input order.
func (a Assignment) Unclustered() []int {
	var out []int
	for i, l := range a.Labels {
		if l == Unclustered {
			out = append(out, i)
		}
	}
	return out
}

// Cluster runs strategy over the matrices. An empty batch yields an empty assignment.
func Cluster(sim *SimilarityMatrix, dist *DistanceMatrix, strategy Strategy) (Assignment, error) {
	if strategy == nil {
		return Assignment{}, &ConfigError{Field: "strategy", Reason: "is not set"}
	}
	if err := strategy.Validate(); err != nil {
		return Assignment{}, err
	}
	if sim.Len() != dist.Len() {
		return Assignment{}, fmt.Errorf("%w: similarity has %d items, distance has %d", ErrDimensionMismatch, sim.Len(), dist.Len())
	}
	if sim.Len() == 0 {
		return newAssignment(0), nil
	}
	return strategy.assign(sim, dist), nil
}

// averageSimilarity returns, for each member, its mean similarity to the other members.
// A lone member scores 1.0, its self-similarity.
func averageSimilarity(sim *SimilarityMatrix, members []int) map[int]float64 {
	avg := make(map[int]float64, len(members))
	for _, m := range members {
		if len(members) == 1 {
			avg[m] = 1
			continue
		}
		total := 0.0
		for _, o := range members {
			if o != m {
				total += sim.At(m, o)
			}
		}
		avg[m] = total / float64(len(members)-1)
	}
	return avg
}

// rankMembers sorts members by average similarity, highest first, and stores the scores.
// Ties keep the lower index first.
func (a *Assignment) rankMembers(sim *SimilarityMatrix, members []int) []int {
	avg := averageSimilarity(sim, members)
	ranked := append([]int(nil), members...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if avg[ranked[i]] != avg[ranked[j]] {
			return avg[ranked[i]] > avg[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	for _, m := range ranked {
		a.Scores[m] = avg[m]
	}
	return ranked
}
