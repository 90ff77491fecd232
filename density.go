package headlines

import "fmt"

// DensityBased is DBSCAN over the precomputed distance matrix with
// eps = 1 - MinSimilarity. An item is a core point when at least MinMembers
// other items lie within eps of it. Items reachable from no core point are
// left unclustered as noise.
type DensityBased struct {
	MinSimilarity float64
	MinMembers    int
}

func (DensityBased) Name() StrategyName { return StrategyDensity }

func (d DensityBased) Validate() error {
	if !(d.MinSimilarity > 0 && d.MinSimilarity < 1) {
		return &ConfigError{Field: "min_similarity", Reason: fmt.Sprintf("must be in (0,1), got %g", d.MinSimilarity)}
	}
	if d.MinMembers < 1 {
		return &ConfigError{Field: "min_members", Reason: fmt.Sprintf("must be at least 1, got %d", d.MinMembers)}
	}
	return nil
}

func (d DensityBased) assign(sim *SimilarityMatrix, dist *DistanceMatrix) Assignment {
	n := dist.Len()
	eps := 1 - d.MinSimilarity

	visited := make([]bool, n)
	clusterID := make([]int, n)
	for i := range clusterID {
		clusterID[i] = Unclustered
	}

	var groups [][]int
	for i := range n {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := findNeighbors(dist, i, eps)
		if len(neighbors) < d.MinMembers {
			continue
		}
		expandCluster(dist, i, neighbors, len(groups), eps, d.MinMembers, visited, clusterID)
		groups = append(groups, nil)
	}

	for i, cid := range clusterID {
		if cid != Unclustered {
			groups[cid] = append(groups[cid], i)
		}
	}

	a := newAssignment(n)
	for _, members := range groups {
		a.addCluster(a.rankMembers(sim, members))
	}
	return a
}

// findNeighbors finds all points within eps distance of the given point
func findNeighbors(dist *DistanceMatrix, pointIdx int, eps float64) []int {
	var neighbors []int
	for i := 0; i < dist.Len(); i++ {
		if i != pointIdx && dist.At(pointIdx, i) <= eps {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}

// expandCluster grows a cluster from a core point. Border points join without
// propagating further.
func expandCluster(dist *DistanceMatrix, pointIdx int, neighbors []int, cid int, eps float64, minMembers int, visited []bool, pointClusterID []int) {
	pointClusterID[pointIdx] = cid

	queued := make([]bool, dist.Len())
	queued[pointIdx] = true
	for _, nIdx := range neighbors {
		queued[nIdx] = true
	}

	for i := 0; i < len(neighbors); i++ {
		nIdx := neighbors[i]

		if !visited[nIdx] {
			visited[nIdx] = true
			if next := findNeighbors(dist, nIdx, eps); len(next) >= minMembers {
				for _, q := range next {
					if !queued[q] {
						queued[q] = true
						neighbors = append(neighbors, q)
					}
				}
			}
		}

		if pointClusterID[nIdx] == Unclustered {
			pointClusterID[nIdx] = cid
		}
	}
}
