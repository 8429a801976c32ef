package inmemory

import (
	"context"
	"testing"

	"github.com/sandevgo/svim/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Vectors {
	t.Helper()
	ctx := context.Background()
	v := NewVectors()
	require.NoError(t, v.CreateCollection(ctx, 2))
	require.NoError(t, v.Upsert(ctx, []core.Point{
		{ID: "b", Vector: []float32{1, 0}, Payload: map[string]any{"userId": "u1", "content": "corte"}},
		{ID: "a", Vector: []float32{0, 1}, Payload: map[string]any{"userId": "u1", "content": "unha"}},
		{ID: "c", Vector: []float32{1, 0}, Payload: map[string]any{"userId": "u2", "content": "corte"}},
	}))
	return v
}

func TestVectors_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	v := NewVectors()

	exists, err := v.CollectionExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, v.Upsert(ctx, []core.Point{{ID: "x"}}), "upsert before create")

	require.NoError(t, v.CreateCollection(ctx, 2))
	exists, err = v.CollectionExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, v.CreatePayloadIndex(ctx, "userId"))
	assert.ErrorIs(t, v.CreatePayloadIndex(ctx, "userId"), core.ErrIndexExists)
}

func TestVectors_ScrollFiltersAndOrdersByID(t *testing.T) {
	v := seeded(t)

	got, err := v.Scroll(context.Background(), core.Filter{Must: []core.FieldMatch{{Key: "userId", Value: "u1"}}}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	limited, err := v.Scroll(context.Background(), core.Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestVectors_SearchRanksByCosine(t *testing.T) {
	v := seeded(t)

	got, err := v.Search(context.Background(), []float32{1, 0.1}, core.Filter{Must: []core.FieldMatch{{Key: "userId", Value: "u1"}}}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Greater(t, got[0].Score, float32(0.9))
}

func TestVectors_DimensionMismatch(t *testing.T) {
	v := seeded(t)
	err := v.Upsert(context.Background(), []core.Point{{ID: "d", Vector: []float32{1, 2, 3}}})
	assert.Error(t, err)
}
