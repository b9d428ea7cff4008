package vectorindex

import (
	"fmt"
	"math"
	"sort"
)

// Index is a flat Euclidean-distance nearest-neighbor index over
// fixed-dimension float32 vectors. It is append-only: there is no
// update or delete primitive, removal means rebuilding a new Index
// from the retained vectors. The Index itself is not goroutine-safe;
// callers serialize access.
type Index struct {
	dim     int
	vectors [][]float32
}

// Hit is a single nearest-neighbor search result.
type Hit struct {
	Position int
	Distance float64
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorindex: invalid dimension %d", dim)
	}
	return &Index{dim: dim}, nil
}

// Dimension returns the configured vector dimension.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Size returns the number of stored vectors.
func (ix *Index) Size() int {
	return len(ix.vectors)
}

// Add appends a vector and returns its position, which equals the
// index size before the insert.
func (ix *Index) Add(vec []float32) (int, error) {
	if len(vec) != ix.dim {
		return 0, fmt.Errorf("vectorindex: vector dimension %d, index expects %d", len(vec), ix.dim)
	}
	pos := len(ix.vectors)
	stored := make([]float32, ix.dim)
	copy(stored, vec)
	ix.vectors = append(ix.vectors, stored)
	return pos, nil
}

// Vector returns the stored vector at the given position.
func (ix *Index) Vector(pos int) ([]float32, error) {
	if pos < 0 || pos >= len(ix.vectors) {
		return nil, fmt.Errorf("vectorindex: position %d out of range [0,%d)", pos, len(ix.vectors))
	}
	return ix.vectors[pos], nil
}

// Snapshot returns a read-only view of the index at its current size.
// Stored vectors are never mutated in place, so the view stays valid
// while the original keeps growing.
func (ix *Index) Snapshot() *Index {
	return &Index{
		dim:     ix.dim,
		vectors: ix.vectors[:len(ix.vectors):len(ix.vectors)],
	}
}

// Search returns the k nearest vectors to query by Euclidean distance,
// closest first. k is clamped to the current size.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("vectorindex: query dimension %d, index expects %d", len(query), ix.dim)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Position: i, Distance: euclidean(query, v)}
	}
	// Stable so equidistant vectors come back in insertion order.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	return hits[:k], nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
