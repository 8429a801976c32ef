// Package vector holds the float32 helpers shared by the in-process vector backends.
package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is empty, zero or the
// lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Normalize scales v to unit length in place.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// Serialize converts a float32 slice to a little-endian byte slice.
func Serialize(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize is the inverse of Serialize.
func Deserialize(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to deserialize vector: %w", err)
	}
	return vec, nil
}

// Scored pairs an item index with its similarity.
type Scored struct {
	Index int
	Score float32
}

// TopK ranks candidates against query and returns at most k, best first.
func TopK(query []float32, candidates [][]float32, k int) []Scored {
	if k <= 0 {
		return nil
	}
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Index: i, Score: Cosine(query, c)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
