package headlines

import (
	"math"
	"strings"
)

// Quality summarizes how well separated the clusters of a run are.
type Quality struct {
	Articles           int            `json:"articles"`
	Clusters           int            `json:"clusters"`
	Unclustered        int            `json:"unclustered"`
	Silhouette         float64        `json:"silhouette_score"`
	CrossSourceGroups  int            `json:"cross_source_clusters"`
	SourceDistribution map[string]int `json:"source_distribution"`
	Assessment         string         `json:"assessment"`
}

// MeasureQuality computes the quality summary of an assignment.
func MeasureQuality(articles []Article, dist *DistanceMatrix, a Assignment) Quality {
	q := Quality{
		Articles:           a.Len(),
		Clusters:           len(a.Clusters),
		Unclustered:        len(a.Unclustered()),
		Silhouette:         silhouetteScore(dist, a),
		SourceDistribution: make(map[string]int),
	}
	for _, members := range a.Clusters {
		sources := make(map[string]struct{})
		for _, m := range members {
			if m < len(articles) && articles[m].Source != "" {
				sources[articles[m].Source] = struct{}{}
			}
		}
		if len(sources) > 1 {
			q.CrossSourceGroups++
		}
	}
	for _, article := range articles {
		if article.Source != "" {
			q.SourceDistribution[article.Source]++
		}
	}
	q.Assessment = assessQuality(q)
	return q
}

// silhouetteScore is the mean silhouette over clustered items, using the
// cosine distance matrix. Unclustered items do not take part. Members of
// single-item clusters score 0.
func silhouetteScore(dist *DistanceMatrix, a Assignment) float64 {
	if len(a.Clusters) <= 1 || dist == nil {
		return 0.0
	}

	total := 0.0
	count := 0
	for clusterID, members := range a.Clusters {
		for _, i := range members {
			count++
			if len(members) == 1 {
				continue
			}

			// Average distance to points in the same cluster (a)
			same := 0.0
			for _, j := range members {
				if j != i {
					same += dist.At(i, j)
				}
			}
			same /= float64(len(members) - 1)

			// Minimum average distance to points in other clusters (b)
			nearest := math.Inf(1)
			for otherID, other := range a.Clusters {
				if otherID == clusterID {
					continue
				}
				avg := 0.0
				for _, j := range other {
					avg += dist.At(i, j)
				}
				avg /= float64(len(other))
				nearest = math.Min(nearest, avg)
			}

			if m := math.Max(same, nearest); m > 0 {
				total += (nearest - same) / m
			}
		}
	}
	if count == 0 {
		return 0.0
	}
	return total / float64(count)
}

func assessQuality(q Quality) string {
	var assessment []string

	switch {
	case q.Clusters <= 1:
		assessment = append(assessment, "Not enough clusters to measure separation")
	case q.Silhouette > 0.7:
		assessment = append(assessment, "Excellent cluster separation")
	case q.Silhouette > 0.5:
		assessment = append(assessment, "Good cluster separation")
	case q.Silhouette > 0.25:
		assessment = append(assessment, "Moderate cluster separation")
	case q.Silhouette > 0:
		assessment = append(assessment, "Weak cluster separation")
	default:
		assessment = append(assessment, "Poor cluster separation - clusters may overlap")
	}

	if q.Clusters > 0 {
		avgClusterSize := float64(q.Articles-q.Unclustered) / float64(q.Clusters)
		if avgClusterSize < 1.5 {
			assessment = append(assessment, "mostly single-article clusters")
		} else if avgClusterSize > 15 {
			assessment = append(assessment, "major story themes identified")
		} else {
			assessment = append(assessment, "balanced grouping")
		}
	}

	return strings.Join(assessment, " with ")
}
