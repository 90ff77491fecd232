package headlines

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTolerance bounds |sim[i][j]-sim[j][i]| accepted from precomputed matrices.
const symmetryTolerance = 1e-9

// SimilarityMatrix holds pairwise cosine similarity of one batch.
// The diagonal is 1.0 for every item.
type SimilarityMatrix struct {
	n int
	m *mat.SymDense
}

// DistanceMatrix holds clip(1 - similarity, 0, 2).
type DistanceMatrix struct {
	n int
	m *mat.SymDense
}

// ComputeSimilarity returns the cosine similarity matrix of vectors.
// Zero vectors have similarity 0 to every other vector. Non-finite
// components are treated as 0.
func ComputeSimilarity(vectors [][]float64) (*SimilarityMatrix, error) {
	n := len(vectors)
	if n == 0 {
		return &SimilarityMatrix{}, nil
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	sim := mat.NewSymDense(n, nil)
	if dim > 0 {
		data := make([]float64, 0, n*dim)
		for _, v := range vectors {
			data = append(data, unitVector(v)...)
		}
		sim.SymOuterK(1, mat.NewDense(n, dim, data))
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim.SetSym(i, j, clip(sim.At(i, j), -1, 1))
		}
		sim.SetSym(i, i, 1)
	}
	return &SimilarityMatrix{n: n, m: sim}, nil
}

// NewSimilarityMatrix wraps precomputed similarities. The diagonal is forced to 1.0.
func NewSimilarityMatrix(values [][]float64) (*SimilarityMatrix, error) {
	n := len(values)
	if n == 0 {
		return &SimilarityMatrix{}, nil
	}
	for i, row := range values {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrNotSymmetric, i, len(row), n)
		}
	}

	sim := mat.NewSymDense(n, nil)
	for i, row := range values {
		for j := i + 1; j < n; j++ {
			if math.Abs(row[j]-values[j][i]) > symmetryTolerance {
				return nil, fmt.Errorf("%w: sim[%d][%d]=%g but sim[%d][%d]=%g", ErrNotSymmetric, i, j, row[j], j, i, values[j][i])
			}
			sim.SetSym(i, j, finiteOr(row[j], 0))
		}
		sim.SetSym(i, i, 1)
	}
	return &SimilarityMatrix{n: n, m: sim}, nil
}

// Len returns the number of items.
func (s *SimilarityMatrix) Len() int { return s.n }

// At returns sim[i][j].
func (s *SimilarityMatrix) At(i, j int) float64 { return s.m.At(i, j) }

// Distance derives the distance matrix clip(1 - sim, 0, 2).
func (s *SimilarityMatrix) Distance() *DistanceMatrix {
	if s.n == 0 {
		return &DistanceMatrix{}
	}
	d := mat.NewSymDense(s.n, nil)
	for i := 0; i < s.n; i++ {
		for j := i; j < s.n; j++ {
			d.SetSym(i, j, clip(1-s.m.At(i, j), 0, 2))
		}
	}
	return &DistanceMatrix{n: s.n, m: d}
}

// Len returns the number of items.
func (d *DistanceMatrix) Len() int { return d.n }

// At returns dist[i][j].
func (d *DistanceMatrix) At(i, j int) float64 { return d.m.At(i, j) }

// unitVector returns the L2-normalized copy of v; a zero vector stays zero.
func unitVector(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := 0.0
	for i, x := range v {
		x = finiteOr(x, 0)
		out[i] = x
		norm += x * x
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
