package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/svim/internal/core"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_MigratesFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "svim.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// reopening is idempotent
	db2, err := NewDB(ctx, path)
	require.NoError(t, err)
	db2.Close()
}

func TestVectors_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	v := NewVectors(newTestDB(t), "memory")

	exists, err := v.CollectionExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.Error(t, v.Upsert(ctx, []core.Point{{ID: "a", Vector: []float32{1, 0}}}), "collection must exist")

	require.NoError(t, v.CreateCollection(ctx, 2))
	require.NoError(t, v.CreateCollection(ctx, 2))

	exists, err = v.CollectionExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, v.CreatePayloadIndex(ctx, core.PayloadUserID))
	err = v.CreatePayloadIndex(ctx, core.PayloadUserID)
	assert.ErrorIs(t, err, core.ErrIndexExists)

	assert.Error(t, v.CreatePayloadIndex(ctx, "bad'field"))
}

func TestVectors_ScrollAndSearch(t *testing.T) {
	ctx := context.Background()
	v := NewVectors(newTestDB(t), "memory")
	require.NoError(t, v.CreateCollection(ctx, 2))

	points := []core.Point{
		{ID: "c", Vector: []float32{0, 1}, Payload: map[string]any{"sessionId": "s1", "userId": "42", "content": "corte"}},
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"sessionId": "s1", "userId": "42", "content": "escova"}},
		{ID: "b", Vector: []float32{0.9, 0.1}, Payload: map[string]any{"sessionId": "s2", "userId": "42", "content": "unha"}},
	}
	require.NoError(t, v.Upsert(ctx, points))

	got, err := v.Scroll(ctx, core.Filter{Must: []core.FieldMatch{{Key: "sessionId", Value: "s1"}}}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "escova", got[0].Payload["content"])

	got, err = v.Scroll(ctx, core.Filter{}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	hits, err := v.Search(ctx, []float32{1, 0}, core.Filter{Must: []core.FieldMatch{{Key: "userId", Value: "42"}}}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)

	_, err = v.Scroll(ctx, core.Filter{Must: []core.FieldMatch{{Key: "x') OR 1=1 --", Value: "1"}}}, 10)
	assert.Error(t, err)
}

func TestVectors_UpsertReplacesAndChecksDimension(t *testing.T) {
	ctx := context.Background()
	v := NewVectors(newTestDB(t), "memory")
	require.NoError(t, v.CreateCollection(ctx, 2))

	require.NoError(t, v.Upsert(ctx, []core.Point{{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"content": "old"}}}))
	require.NoError(t, v.Upsert(ctx, []core.Point{{ID: "a", Vector: []float32{0, 1}, Payload: map[string]any{"content": "new"}}}))

	got, err := v.Scroll(ctx, core.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Payload["content"])

	assert.Error(t, v.Upsert(ctx, []core.Point{{ID: "b", Vector: []float32{1, 0, 0}}}))
	assert.NoError(t, v.Upsert(ctx, nil))
}

func TestInteractions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewInteractions(db)

	require.NoError(t, s.UpsertSession(ctx, "42", "s1", "open"))
	require.NoError(t, s.UpsertSession(ctx, "42", "s1", "closed"))

	var status string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT status FROM svim_sessions WHERE session_id = ?`, "s1").Scan(&status))
	assert.Equal(t, "closed", status)

	require.NoError(t, s.LogInteraction(ctx, core.Interaction{
		UserID:    "42",
		SessionID: "s1",
		Intent:    "reply",
		Request:   map[string]string{"message": "oi"},
		Response:  map[string]string{"reply": "Olá!"},
	}))

	n, err := s.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var req string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT request_json FROM interaction_logs`).Scan(&req))
	assert.JSONEq(t, `{"message":"oi"}`, req)
}
