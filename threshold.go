package headlines

import "fmt"

// ThresholdGreedy is single-pass star clustering. Items are visited in input
// order; the first unassigned item anchors a cluster and takes every other
// unassigned item whose similarity to it exceeds Threshold. Membership is not
// transitive, so the result depends on input order.
type ThresholdGreedy struct {
	Threshold float64
}

func (ThresholdGreedy) Name() StrategyName { return StrategyThreshold }

func (t ThresholdGreedy) Validate() error {
	if !(t.Threshold > 0 && t.Threshold < 1) {
		return &ConfigError{Field: "threshold", Reason: fmt.Sprintf("must be in (0,1), got %g", t.Threshold)}
	}
	return nil
}

// assign gives each member the similarity to its anchor as score. The anchor
// scores its own similarity, 1.0, so an item with no neighbours ends up as a
// singleton cluster.
func (t ThresholdGreedy) assign(sim *SimilarityMatrix, _ *DistanceMatrix) Assignment {
	n := sim.Len()
	a := newAssignment(n)

	for i := 0; i < n; i++ {
		if a.Labels[i] != Unclustered {
			continue
		}
		var members []int
		for j := 0; j < n; j++ {
			if a.Labels[j] != Unclustered {
				continue
			}
			if s := sim.At(i, j); s > t.Threshold {
				members = append(members, j)
				a.Scores[j] = s
			}
		}
		a.addCluster(members)
	}

	return a
}
