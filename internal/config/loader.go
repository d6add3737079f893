package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration from file and environment variables, priority
// defaults -> config file -> environment (env wins), mirroring the
// teacher's internal/config.Loader.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at rootDir, where
// .lattice/config.yml is searched for.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".lattice")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("LATTICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Storage.DataDir != "" && !filepath.IsAbs(cfg.Storage.DataDir) {
		cfg.Storage.DataDir = filepath.Join(l.rootDir, cfg.Storage.DataDir)
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("embedding.provider")
	v.BindEnv("embedding.model")
	v.BindEnv("embedding.dimensions")
	v.BindEnv("embedding.endpoint")
	v.BindEnv("chunking.code_chunk_size")
	v.BindEnv("chunking.doc_chunk_size")
	v.BindEnv("chunking.overlap")
	v.BindEnv("storage.data_dir")
	v.BindEnv("storage.compress")
	v.BindEnv("cache.capacity")
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)

	v.SetDefault("paths.code", d.Paths.Code)
	v.SetDefault("paths.docs", d.Paths.Docs)
	v.SetDefault("paths.ignore", d.Paths.Ignore)

	v.SetDefault("chunking.code_chunk_size", d.Chunking.CodeChunkSize)
	v.SetDefault("chunking.doc_chunk_size", d.Chunking.DocChunkSize)
	v.SetDefault("chunking.overlap", d.Chunking.Overlap)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.compress", d.Storage.Compress)

	v.SetDefault("cache.capacity", d.Cache.Capacity)
}

// Load is a convenience function loading config rooted at the current
// working directory's ancestor rootDir.
func Load(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
