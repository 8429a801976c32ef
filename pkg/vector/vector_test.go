package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	blob, err := Serialize(in)
	require.NoError(t, err)
	assert.Len(t, blob, 12)

	out, err := Deserialize(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Deserialize([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{0, 1}, {1, 0}, {1, 1}}

	got := TopK(query, candidates, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)

	assert.Nil(t, TopK(query, candidates, 0))
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}
