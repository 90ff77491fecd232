package headlines

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
)

// HierarchicalAgglomerative merges clusters bottom-up with complete linkage
// until the closest pair is farther apart than 1 - SimilarityThreshold.
// Clusters smaller than MinClusterSize are dissolved into Unclustered.
// Members are ranked by mean similarity to the rest of their cluster.
type HierarchicalAgglomerative struct {
	SimilarityThreshold float64
	MinClusterSize      int
	Linkage             string
}

func (HierarchicalAgglomerative) Name() StrategyName { return StrategyHierarchical }

func (h HierarchicalAgglomerative) Validate() error {
	if !(h.SimilarityThreshold > 0 && h.SimilarityThreshold < 1) {
		return &ConfigError{Field: "similarity_threshold", Reason: fmt.Sprintf("must be in (0,1), got %g", h.SimilarityThreshold)}
	}
	if h.MinClusterSize < 1 {
		return &ConfigError{Field: "min_cluster_size", Reason: fmt.Sprintf("must be at least 1, got %d", h.MinClusterSize)}
	}
	if h.Linkage != "" && h.Linkage != LinkageComplete {
		return &ConfigError{Field: "linkage", Reason: fmt.Sprintf("only %q is supported, got %q", LinkageComplete, h.Linkage)}
	}
	return nil
}

func (h HierarchicalAgglomerative) assign(sim *SimilarityMatrix, dist *DistanceMatrix) Assignment {
	n := dist.Len()
	cut := 1 - h.SimilarityThreshold

	// Initialize: each point is its own cluster
	clusters := make([][]int, n)
	linkage := make([][]float64, n)
	for i := range n {
		clusters[i] = []int{i}
		linkage[i] = make([]float64, n)
		for j := range n {
			linkage[i][j] = dist.At(i, j)
		}
	}
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	for len(active) > 1 {
		minDist := math.Inf(1)
		mergeI, mergeJ := -1, -1
		for a := 0; a < len(active); a++ {
			for b := a + 1; b < len(active); b++ {
				if d := linkage[active[a]][active[b]]; d < minDist {
					minDist = d
					mergeI, mergeJ = a, b
				}
			}
		}
		if mergeI == -1 || minDist > cut {
			break
		}

		ci, cj := active[mergeI], active[mergeJ]
		clusters[ci] = append(clusters[ci], clusters[cj]...)
		clusters[cj] = nil
		for _, ck := range active {
			if ck == ci || ck == cj {
				continue
			}
			d := math.Max(linkage[ci][ck], linkage[cj][ck])
			linkage[ci][ck] = d
			linkage[ck][ci] = d
		}
		active = append(active[:mergeJ], active[mergeJ+1:]...)

		log.Debug().Float64("distance", minDist).Int("remaining", len(active)).Msg("Merged clusters")
	}

	var kept [][]int
	dissolved := 0
	for _, c := range active {
		members := clusters[c]
		if len(members) < h.MinClusterSize {
			dissolved += len(members)
			continue
		}
		sort.Ints(members)
		kept = append(kept, members)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i][0] < kept[j][0] })

	a := newAssignment(n)
	for _, members := range kept {
		a.addCluster(a.rankMembers(sim, members))
	}
	log.Debug().Int("clusters", len(kept)).Int("dissolved", dissolved).Msg("Hierarchical cut complete")
	return a
}
