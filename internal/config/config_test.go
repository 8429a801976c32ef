package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("SVIM_MEMORY_BACKEND", "")
	t.Setenv("SVIM_EMBEDDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.App.RecentK)
	assert.Equal(t, 4, cfg.App.SemanticK)
	assert.Equal(t, 4000, cfg.App.ContextMaxChars)
	assert.Equal(t, 1500, cfg.App.StoreMaxChars)
	assert.Equal(t, 5, cfg.App.ToolMaxCalls)
	assert.Equal(t, "svim_conversations", cfg.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Qdrant.VectorSize)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 10*time.Second, cfg.Booking.Timeout())
	assert.Equal(t, "none", cfg.ResolvedMemoryBackend())
	assert.Equal(t, EmbedderOpenAI, cfg.ResolvedEmbedder())
}

func TestResolvedEmbedder(t *testing.T) {
	t.Setenv("SVIM_EMBEDDER", "hashing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EmbedderHashing, cfg.ResolvedEmbedder())

	cfg.App.Embedder = "bogus"
	assert.Equal(t, EmbedderOpenAI, cfg.ResolvedEmbedder())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SVIM_TOOL_MAX_CALLS", "2")
	t.Setenv("HTTP_TIMEOUT", "2.5")
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("SVIM_MEMORY_BACKEND", "auto")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.App.ToolMaxCalls)
	assert.Equal(t, 2500*time.Millisecond, cfg.Booking.Timeout())
	assert.Equal(t, "qdrant", cfg.ResolvedMemoryBackend())
}

func TestResolvedMemoryBackend_Explicit(t *testing.T) {
	cfg := &Config{App: AppConfig{MemoryBackend: "sqlite"}, Qdrant: QdrantConfig{URL: "http://q"}}
	assert.Equal(t, "sqlite", cfg.ResolvedMemoryBackend())

	cfg.App.MemoryBackend = "memory"
	assert.Equal(t, "memory", cfg.ResolvedMemoryBackend())

	cfg.App.MemoryBackend = "bogus"
	assert.Equal(t, "qdrant", cfg.ResolvedMemoryBackend())
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SVIM=Salao Teste\nSVIM_RECENT_K=9\n"), 0o600))
	t.Setenv("SVIM_RECENT_K", "3")
	t.Setenv("SVIM", "")
	os.Unsetenv("SVIM")

	loaded, err := LoadEnvFiles(dir)
	require.NoError(t, err)
	require.Contains(t, loaded, filepath.Join(dir, ".env"))

	assert.Equal(t, "Salao Teste", os.Getenv("SVIM"))
	assert.Equal(t, "3", os.Getenv("SVIM_RECENT_K"))
}

func TestResolveRuntimePath_Absolute(t *testing.T) {
	assert.Equal(t, "/srv/svim", ResolveRuntimePath("/srv/svim"))
}
