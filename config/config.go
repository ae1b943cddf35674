// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads and persists the YAML application configuration
// used by the corpus CLI. Values translate into the typed configs of
// the library packages; durations are expressed in plain integer units
// (seconds, milliseconds) so the file stays hand-editable.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/ingest"
	"github.com/poiesic/corpus/retrieval"
	"github.com/poiesic/corpus/segment"
)

// StorageConfig locates the on-disk databases.
type StorageConfig struct {
	// Path is the data directory; the document store and the cache live
	// in subdirectories under it.
	Path string `yaml:"path"`
}

// AIConfig configures the embedding and completion provider. The API
// token is never stored in the file; TokenEnv names the environment
// variable it is read from.
type AIConfig struct {
	Host            string `yaml:"host"`
	EmbeddingHost   string `yaml:"embedding_host,omitempty"`
	CompletionHost  string `yaml:"completion_host,omitempty"`
	EmbeddingModel  string `yaml:"embedding_model"`
	CompletionModel string `yaml:"completion_model"`
	Dimensions      int    `yaml:"dimensions"`
	TokenEnv        string `yaml:"token_env"`
}

// EmbeddingConfig tunes the embedding pipeline.
type EmbeddingConfig struct {
	BatchSize        int `yaml:"batch_size"`
	MaxRetries       int `yaml:"max_retries"`
	RetryBaseDelayMS int `yaml:"retry_base_delay_ms"`
	BatchIntervalMS  int `yaml:"batch_interval_ms"`
	CacheTTLSecs     int `yaml:"cache_ttl_secs"`
}

// SegmentConfig configures document chunking.
type SegmentConfig struct {
	Method     string `yaml:"method"`
	TargetSize int    `yaml:"target_size"`
	Overlap    int    `yaml:"overlap"`
}

// RetrievalConfig tunes the search engine.
type RetrievalConfig struct {
	Limit              int     `yaml:"limit"`
	Threshold          float32 `yaml:"threshold"`
	CacheTTLSecs       int     `yaml:"cache_ttl_secs"`
	DuplicateThreshold float32 `yaml:"duplicate_threshold"`
	StatsWorkers       int     `yaml:"stats_workers"`
}

// IngestConfig tunes the ingestion orchestrator.
type IngestConfig struct {
	QueueCapacity       int     `yaml:"queue_capacity"`
	StuckAfterHours     int     `yaml:"stuck_after_hours"`
	ConfidenceFloor     float32 `yaml:"confidence_floor"`
	MaxWordsPerFragment int     `yaml:"max_words_per_fragment"`
	DuplicateThreshold  float32 `yaml:"duplicate_threshold"`
	PageSize            int     `yaml:"page_size"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Dirs       []string `yaml:"dirs,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	AI        AIConfig        `yaml:"ai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Segment   SegmentConfig   `yaml:"segment"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./corpus.yaml first, then the user config path. If
// neither exists, it writes the defaults to the user path and returns
// them. A .env file in the working directory is loaded first so the
// token environment variable can live next to the project.
func LoadDefault() (*AppConfig, string, error) {
	_ = godotenv.Load()

	cwdPath := "corpus.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every section by converting it into its typed
// package config.
func (c *AppConfig) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("config: storage path is required")
	}
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	if err := c.EmbeddingConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.SegmentOptions(); err != nil {
		return err
	}
	if err := c.RetrievalConfig().Validate(); err != nil {
		return err
	}
	ingestCfg, err := c.IngestConfig()
	if err != nil {
		return err
	}
	return ingestCfg.Validate()
}

// AIConfig converts the ai section, resolving the API token from the
// configured environment variable. The shared host applies first so
// the per-service hosts can override it.
func (c *AppConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithDimensions(c.AI.Dimensions),
	}
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.CompletionHost != "" {
		opts = append(opts, ai.WithCompletionHost(c.AI.CompletionHost))
	}
	if token := os.Getenv(c.AI.TokenEnv); token != "" {
		opts = append(opts, ai.WithToken(token))
	}
	return ai.NewConfig(opts...)
}

// EmbeddingConfig converts the embedding section. Model and dimensions
// come from the ai section: the provider decides what vectors it
// produces.
func (c *AppConfig) EmbeddingConfig() embedding.Config {
	return embedding.Config{
		Model:          c.AI.EmbeddingModel,
		Dimensions:     c.AI.Dimensions,
		BatchSize:      c.Embedding.BatchSize,
		MaxRetries:     c.Embedding.MaxRetries,
		RetryBaseDelay: time.Duration(c.Embedding.RetryBaseDelayMS) * time.Millisecond,
		BatchInterval:  time.Duration(c.Embedding.BatchIntervalMS) * time.Millisecond,
		CacheTTL:       time.Duration(c.Embedding.CacheTTLSecs) * time.Second,
	}
}

// SegmentOptions converts the segment section.
func (c *AppConfig) SegmentOptions() (segment.Options, error) {
	method, err := core.ParseSegmentMethod(c.Segment.Method)
	if err != nil {
		return segment.Options{}, fmt.Errorf("config: %w", err)
	}
	opts := segment.Options{
		Method:     method,
		TargetSize: c.Segment.TargetSize,
		Overlap:    c.Segment.Overlap,
	}
	if err := opts.Validate(); err != nil {
		return segment.Options{}, err
	}
	return opts, nil
}

// RetrievalConfig converts the retrieval section.
func (c *AppConfig) RetrievalConfig() retrieval.Config {
	return retrieval.Config{
		Limit:              c.Retrieval.Limit,
		Threshold:          c.Retrieval.Threshold,
		CacheTTL:           time.Duration(c.Retrieval.CacheTTLSecs) * time.Second,
		DuplicateThreshold: c.Retrieval.DuplicateThreshold,
		StatsWorkers:       c.Retrieval.StatsWorkers,
	}
}

// IngestConfig converts the ingest section, folding in the segment
// defaults.
func (c *AppConfig) IngestConfig() (ingest.Config, error) {
	segOpts, err := c.SegmentOptions()
	if err != nil {
		return ingest.Config{}, err
	}
	return ingest.Config{
		Segment:             segOpts,
		QueueCapacity:       c.Ingest.QueueCapacity,
		StuckAfter:          time.Duration(c.Ingest.StuckAfterHours) * time.Hour,
		ConfidenceFloor:     c.Ingest.ConfidenceFloor,
		MaxWordsPerFragment: c.Ingest.MaxWordsPerFragment,
		DuplicateThreshold:  c.Ingest.DuplicateThreshold,
		PageSize:            c.Ingest.PageSize,
	}, nil
}

// Debounce converts the watch section's debounce delay.
func (c *AppConfig) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// SlogLevel maps the configured level name onto a slog level. Unknown
// names fall back to info.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "corpus", "config.yaml"), nil
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "corpus-data"
	}
	return filepath.Join(home, ".local", "share", "corpus")
}

// defaultConfig translates the library packages' own defaults into the
// file representation, so the generated file and the in-process
// defaults never drift.
func defaultConfig() *AppConfig {
	aiDefaults := ai.DefaultConfig()
	embedDefaults := embedding.DefaultConfig()
	segDefaults := segment.DefaultOptions()
	searchDefaults := retrieval.DefaultConfig()
	ingestDefaults := ingest.DefaultConfig()

	return &AppConfig{
		Storage: StorageConfig{Path: defaultDataPath()},
		AI: AIConfig{
			Host:            aiDefaults.EmbeddingHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			CompletionModel: aiDefaults.CompletionModel,
			Dimensions:      aiDefaults.Dimensions,
			TokenEnv:        "CORPUS_API_TOKEN",
		},
		Embedding: EmbeddingConfig{
			BatchSize:        embedDefaults.BatchSize,
			MaxRetries:       embedDefaults.MaxRetries,
			RetryBaseDelayMS: int(embedDefaults.RetryBaseDelay / time.Millisecond),
			BatchIntervalMS:  int(embedDefaults.BatchInterval / time.Millisecond),
			CacheTTLSecs:     int(embedDefaults.CacheTTL / time.Second),
		},
		Segment: SegmentConfig{
			Method:     segDefaults.Method.String(),
			TargetSize: segDefaults.TargetSize,
			Overlap:    segDefaults.Overlap,
		},
		Retrieval: RetrievalConfig{
			Limit:              searchDefaults.Limit,
			Threshold:          searchDefaults.Threshold,
			CacheTTLSecs:       int(searchDefaults.CacheTTL / time.Second),
			DuplicateThreshold: searchDefaults.DuplicateThreshold,
			StatsWorkers:       searchDefaults.StatsWorkers,
		},
		Ingest: IngestConfig{
			QueueCapacity:       ingestDefaults.QueueCapacity,
			StuckAfterHours:     int(ingestDefaults.StuckAfter / time.Hour),
			ConfidenceFloor:     ingestDefaults.ConfidenceFloor,
			MaxWordsPerFragment: ingestDefaults.MaxWordsPerFragment,
			DuplicateThreshold:  ingestDefaults.DuplicateThreshold,
			PageSize:            ingestDefaults.PageSize,
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".md"},
			DebounceMS: int(ingest.DefaultDebounce / time.Millisecond),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// applyDefaults fills zero-valued fields so a sparse hand-written file
// still yields a complete configuration.
func applyDefaults(cfg *AppConfig) {
	defaults := defaultConfig()

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}

	if cfg.AI.Host == "" && cfg.AI.EmbeddingHost == "" && cfg.AI.CompletionHost == "" {
		cfg.AI.Host = defaults.AI.Host
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaults.AI.EmbeddingModel
	}
	if cfg.AI.CompletionModel == "" {
		cfg.AI.CompletionModel = defaults.AI.CompletionModel
	}
	if cfg.AI.Dimensions == 0 {
		cfg.AI.Dimensions = defaults.AI.Dimensions
	}
	if cfg.AI.TokenEnv == "" {
		cfg.AI.TokenEnv = defaults.AI.TokenEnv
	}

	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = defaults.Embedding.BatchSize
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = defaults.Embedding.MaxRetries
	}
	if cfg.Embedding.RetryBaseDelayMS == 0 {
		cfg.Embedding.RetryBaseDelayMS = defaults.Embedding.RetryBaseDelayMS
	}
	if cfg.Embedding.BatchIntervalMS == 0 {
		cfg.Embedding.BatchIntervalMS = defaults.Embedding.BatchIntervalMS
	}
	if cfg.Embedding.CacheTTLSecs == 0 {
		cfg.Embedding.CacheTTLSecs = defaults.Embedding.CacheTTLSecs
	}

	if cfg.Segment.Method == "" {
		cfg.Segment.Method = defaults.Segment.Method
	}
	if cfg.Segment.TargetSize == 0 {
		cfg.Segment.TargetSize = defaults.Segment.TargetSize
	}
	if cfg.Segment.Overlap == 0 {
		cfg.Segment.Overlap = defaults.Segment.Overlap
	}

	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = defaults.Retrieval.Limit
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = defaults.Retrieval.Threshold
	}
	if cfg.Retrieval.CacheTTLSecs == 0 {
		cfg.Retrieval.CacheTTLSecs = defaults.Retrieval.CacheTTLSecs
	}
	if cfg.Retrieval.DuplicateThreshold == 0 {
		cfg.Retrieval.DuplicateThreshold = defaults.Retrieval.DuplicateThreshold
	}
	if cfg.Retrieval.StatsWorkers == 0 {
		cfg.Retrieval.StatsWorkers = defaults.Retrieval.StatsWorkers
	}

	if cfg.Ingest.QueueCapacity == 0 {
		cfg.Ingest.QueueCapacity = defaults.Ingest.QueueCapacity
	}
	if cfg.Ingest.StuckAfterHours == 0 {
		cfg.Ingest.StuckAfterHours = defaults.Ingest.StuckAfterHours
	}
	if cfg.Ingest.ConfidenceFloor == 0 {
		cfg.Ingest.ConfidenceFloor = defaults.Ingest.ConfidenceFloor
	}
	if cfg.Ingest.MaxWordsPerFragment == 0 {
		cfg.Ingest.MaxWordsPerFragment = defaults.Ingest.MaxWordsPerFragment
	}
	if cfg.Ingest.DuplicateThreshold == 0 {
		cfg.Ingest.DuplicateThreshold = defaults.Ingest.DuplicateThreshold
	}
	if cfg.Ingest.PageSize == 0 {
		cfg.Ingest.PageSize = defaults.Ingest.PageSize
	}

	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = defaults.Watch.Extensions
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = defaults.Watch.DebounceMS
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
}
