package config

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider.
	ErrInvalidProvider = errors.New("invalid embedding provider")
	// ErrInvalidDimensions indicates a non-positive embedding dimension.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")
	// ErrEmptyEndpoint indicates a missing embedding endpoint for the http provider.
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	// ErrInvalidOverlap indicates an overlap that is negative or not smaller than its chunk size.
	ErrInvalidOverlap = errors.New("invalid overlap")
	// ErrInvalidCacheCapacity indicates a non-positive result-cache capacity.
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")
	// ErrInvalidGlob indicates a paths.* pattern that gobwas/glob rejects.
	ErrInvalidGlob = errors.New("invalid glob pattern")
)

// Validate checks that cfg is internally consistent, mirroring the
// teacher's internal/config.Validate shape (accumulate every error, then
// join).
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidCacheCapacity, cfg.Cache.Capacity))
	}

	return errors.Join(errs...)
}

func validateEmbedding(e *EmbeddingConfig) error {
	switch e.Provider {
	case "http", "mock":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, e.Provider)
	}
	if e.Dimensions <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimensions, e.Dimensions)
	}
	if e.Provider == "http" && e.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	return nil
}

// validatePaths checks that every glob override compiles, since a bad
// pattern here would otherwise only surface once the indexer runs.
func validatePaths(p *PathsConfig) error {
	var errs []error
	for _, group := range [][]string{p.Code, p.Docs, p.Ignore} {
		for _, pattern := range group {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidGlob, pattern, err))
			}
		}
	}
	return errors.Join(errs...)
}

func validateChunking(c *ChunkingConfig) error {
	if c.CodeChunkSize <= 0 || c.DocChunkSize <= 0 {
		return fmt.Errorf("%w: code=%d doc=%d", ErrInvalidChunkSize, c.CodeChunkSize, c.DocChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.CodeChunkSize || c.Overlap >= c.DocChunkSize {
		return fmt.Errorf("%w: %d", ErrInvalidOverlap, c.Overlap)
	}
	return nil
}
