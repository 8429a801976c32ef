package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/svim/internal/core"
)

func TestInteractions(t *testing.T) {
	dsn := os.Getenv("SVIM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SVIM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	session := uuid.NewString()
	require.NoError(t, s.UpsertSession(ctx, "42", session, "open"))
	require.NoError(t, s.UpsertSession(ctx, "42", session, "open"))

	require.NoError(t, s.LogInteraction(ctx, core.Interaction{
		UserID:    "42",
		SessionID: session,
		Intent:    "reply",
		Request:   map[string]string{"message": "oi"},
		Response:  map[string]string{"reply": "Olá!"},
	}))

	n, err := s.Count(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
