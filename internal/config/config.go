// Package config loads lattice's configuration from .lattice/config.yml
// with environment-variable overrides, grounded on the teacher's
// internal/config package (Config struct + Default() + Loader), extended
// with the store/job/cache directories and result-cache capacity this
// rework's ambient stack needs.
package config

// Config is the complete lattice configuration, loadable from
// .lattice/config.yml with LATTICE_* environment variable overrides.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
}

// EmbeddingConfig configures the injected embedding engine (internal/embedding).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`     // "http" or "mock"
	Model      string `yaml:"model" mapstructure:"model"`           // e.g. "BAAI/bge-small-en-v1.5"
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"` // embedding vector dimensions
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`     // e.g. "http://127.0.0.1:8121/embed"
}

// PathsConfig defines which files to index and which to ignore, supplementing
// internal/classify's fixed rule cascade with config-driven glob overrides.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for code files
	Docs   []string `yaml:"docs" mapstructure:"docs"`     // glob patterns for documentation
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore, beyond internal/classify.IgnoredDirs
}

// ChunkingConfig overrides internal/chunk's size/overlap presets (spec §4.2).
type ChunkingConfig struct {
	CodeChunkSize int `yaml:"code_chunk_size" mapstructure:"code_chunk_size"` // characters per code chunk
	DocChunkSize  int `yaml:"doc_chunk_size" mapstructure:"doc_chunk_size"`   // characters per doc/web chunk
	Overlap       int `yaml:"overlap" mapstructure:"overlap"`                 // shared sliding-window overlap
}

// StorageConfig locates the data directory holding stores.json, jobs/,
// lance/, fts/, repos/, and code-graph/ (spec §6 on-disk layout).
type StorageConfig struct {
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
	Compress bool   `yaml:"compress" mapstructure:"compress"` // gzip-compress the chromem-go vector tables on disk
}

// CacheConfig sizes the recency-biased result cache (spec §4.9).
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// Default returns a configuration with sensible defaults, mirroring the
// teacher's Default() shape.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "http",
			Model:      "BAAI/bge-small-en-v1.5",
			Dimensions: 384,
			Endpoint:   "http://127.0.0.1:8121/embed",
		},
		Paths: PathsConfig{
			Code: []string{
				"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs",
				"**/*.py", "**/*.rs", "**/*.go", "**/*.rb", "**/*.java",
				"**/*.c", "**/*.cpp", "**/*.h", "**/*.hpp", "**/*.php",
				"**/*.kt", "**/*.swift", "**/*.sh",
			},
			Docs: []string{
				"**/*.md", "**/*.mdx", "**/*.rst", "**/*.txt",
			},
			Ignore: []string{
				"node_modules/**", ".git/**", "dist/**", "build/**",
				".venv/**", "__pycache__/**", "coverage/**",
			},
		},
		Chunking: ChunkingConfig{
			CodeChunkSize: 768,
			DocChunkSize:  1200,
			Overlap:       100,
		},
		Storage: StorageConfig{
			DataDir:  ".lattice",
			Compress: false,
		},
		Cache: CacheConfig{
			Capacity: 1000,
		},
	}
}
