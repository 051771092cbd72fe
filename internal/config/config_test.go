package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-embedding-001", cfg.Embedder.Model)
	assert.Equal(t, 3072, cfg.Embedder.Dimension)
	assert.Equal(t, "gemini-2.0-flash", cfg.Generator.Model)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, "memory", cfg.Session.Type)
	assert.Equal(t, 50, cfg.Index.BatchSize)
	assert.Equal(t, 2, cfg.Index.MaxBatchRetries)
	assert.Equal(t, []string{"CS", "DS", "STAT", "MATH", "STS"}, cfg.Index.Subjects)
	assert.Equal(t, WeightsConfig{Description: 3, Title: 2, Prerequisites: 2, Subject: 1, Cluster: 2}, cfg.Weights)
	assert.Equal(t, 0.72, cfg.Reviews.MatchThreshold)
	assert.Equal(t, 10, cfg.Chat.TopK)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	orig := defaultConfig()
	orig.VectorStore = VectorStoreConfig{
		Type:   "qdrant",
		Qdrant: &QdrantConfig{URL: "http://localhost:6333", Collection: "courses"},
	}
	orig.Index.Term = "1268"
	orig.Clusters = []ClusterConfig{
		{Name: "ML Track", Description: "Machine learning courses", Courses: []string{"CS 4774"}},
	}
	require.NoError(t, Save(path, orig))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant", got.VectorStore.Type)
	require.NotNil(t, got.VectorStore.Qdrant)
	assert.Equal(t, "courses", got.VectorStore.Qdrant.Collection)
	assert.Equal(t, "1268", got.Index.Term)
	require.Len(t, got.Clusters, 1)
	assert.Equal(t, []string{"CS 4774"}, got.Clusters[0].Courses)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := &AppConfig{}
	partial.Index.Term = "1268"
	require.NoError(t, Save(path, partial))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1268", got.Index.Term)
	assert.Equal(t, 50, got.Index.BatchSize)
	assert.Equal(t, 3072, got.Embedder.Dimension)
}
