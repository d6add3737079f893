package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "http", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.NotEmpty(t, cfg.Paths.Code)
	assert.NotEmpty(t, cfg.Paths.Docs)
	assert.Equal(t, 768, cfg.Chunking.CodeChunkSize)
	assert.Equal(t, 1200, cfg.Chunking.DocChunkSize)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Embedding.Model, cfg.Embedding.Model)
	assert.Equal(t, filepath.Join(dir, ".lattice"), cfg.Storage.DataDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".lattice"), 0o755))
	yaml := "embedding:\n  dimensions: 768\nchunking:\n  code_chunk_size: 500\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lattice", "config.yml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 500, cfg.Chunking.CodeChunkSize)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LATTICE_EMBEDDING_ENDPOINT", "http://example.test/embed")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/embed", cfg.Embedding.Endpoint)
}

func TestValidate_RejectsInvalidProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "bogus"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidProvider)
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Dimensions = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidDimensions)
}

func TestValidate_RejectsEmptyEndpointForHTTPProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Endpoint = ""
	assert.ErrorIs(t, Validate(cfg), ErrEmptyEndpoint)
}

func TestValidate_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	cfg := Default()
	cfg.Chunking.Overlap = cfg.Chunking.CodeChunkSize
	assert.ErrorIs(t, Validate(cfg), ErrInvalidOverlap)
}

func TestValidate_RejectsNonPositiveCacheCapacity(t *testing.T) {
	cfg := Default()
	cfg.Cache.Capacity = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidCacheCapacity)
}

func TestValidate_AccumulatesMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "bogus"
	cfg.Embedding.Dimensions = -1
	cfg.Cache.Capacity = -5

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.ErrorIs(t, err, ErrInvalidCacheCapacity)
}
