// Package config implements the single-struct configuration surface
// (§10.3): every knob named in §6 lives on one YAML-tagged Config,
// loaded with defaults → user config → project config → environment
// variable precedence, mirroring the teacher's own layered config
// loader.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete docsearch configuration.
type Config struct {
	Version        int                  `yaml:"version" json:"version"`
	Cache          CacheConfig          `yaml:"cache" json:"cache"`
	Hybrid         HybridConfig         `yaml:"hybrid" json:"hybrid"`
	Fusion         FusionConfig         `yaml:"fusion" json:"fusion"`
	QueryExpansion QueryExpansionConfig `yaml:"query_expansion" json:"query_expansion"`
	Ranking        RankingConfig        `yaml:"ranking" json:"ranking"`
	Indexing       IndexingConfig       `yaml:"indexing" json:"indexing"`
	VectorBackend  VectorBackendConfig  `yaml:"vector_backend" json:"vector_backend"`
	Server         ServerConfig         `yaml:"server" json:"server"`
	Logging        LoggingConfig        `yaml:"logging" json:"logging"`
}

// CacheLayerConfig sizes and bounds one of the four cache layers (§4.10).
type CacheLayerConfig struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
	MaxSizeMB  int `yaml:"max_size_mb" json:"max_size_mb"`
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
}

// CacheConfig configures every cache layer plus the shared TTL sweep.
type CacheConfig struct {
	Query                  CacheLayerConfig `yaml:"query" json:"query"`
	Embedding              CacheLayerConfig `yaml:"embedding" json:"embedding"`
	BM25                   CacheLayerConfig `yaml:"bm25" json:"bm25"`
	Fusion                 CacheLayerConfig `yaml:"fusion" json:"fusion"`
	CleanupIntervalSeconds int              `yaml:"cleanup_interval_seconds" json:"cleanup_interval_seconds"`
}

// HybridMode selects how the retrieval stage runs the BM25 and vector
// engines relative to each other (§6 hybrid.mode).
type HybridMode string

const (
	HybridParallel        HybridMode = "parallel"
	HybridSequential      HybridMode = "sequential"
	HybridBM25ThenVector  HybridMode = "bm25_then_vector"
)

// HybridConfig selects the retrieval execution mode.
type HybridConfig struct {
	Mode               HybridMode `yaml:"mode" json:"mode"`
	SequentialN        int        `yaml:"sequential_n" json:"sequential_n"`
	BM25ThenVectorK    int        `yaml:"bm25_then_vector_k" json:"bm25_then_vector_k"`
}

// FusionNormalization selects the score-normalization method (§4.7).
type FusionNormalization string

const (
	NormalizationMinMax FusionNormalization = "min_max"
	NormalizationZScore FusionNormalization = "z_score"
)

// FusionConfig configures score fusion weights and normalization.
type FusionConfig struct {
	WeightBM25     float64             `yaml:"weight_bm25" json:"weight_bm25"`
	WeightVector   float64             `yaml:"weight_vector" json:"weight_vector"`
	Normalization  FusionNormalization `yaml:"normalization" json:"normalization"`
}

// QueryExpansionConfig configures the Query Enhancement Stage (§4.2).
type QueryExpansionConfig struct {
	MaxExpansions          int     `yaml:"max_expansions" json:"max_expansions"`
	MaxTermsPerExpansion   int     `yaml:"max_terms_per_expansion" json:"max_terms_per_expansion"`
	OriginalWeight         float64 `yaml:"original_weight" json:"original_weight"`
	ExpansionWeight        float64 `yaml:"expansion_weight" json:"expansion_weight"`
	EnableSynonyms         bool    `yaml:"enable_synonyms" json:"enable_synonyms"`
	EnableMorphological    bool    `yaml:"enable_morphological" json:"enable_morphological"`
	EnableContextual       bool    `yaml:"enable_contextual" json:"enable_contextual"`
}

// RankingConfig configures the Result Ranking Stage (§4.9).
type RankingConfig struct {
	LengthPenaltyThreshold int     `yaml:"length_penalty_threshold" json:"length_penalty_threshold"`
	LengthPenaltyFactor    float64 `yaml:"length_penalty_factor" json:"length_penalty_factor"`
	TitleBoost             float64 `yaml:"title_boost" json:"title_boost"`
	FreshnessWeight        float64 `yaml:"freshness_weight" json:"freshness_weight"`
	RerankEnabled          bool    `yaml:"rerank_enabled" json:"rerank_enabled"`
}

// IndexingStrategyName selects the chunking/normalization tradeoff (§4.3).
type IndexingStrategyName string

const (
	StrategyStandard  IndexingStrategyName = "standard"
	StrategyFast      IndexingStrategyName = "fast"
	StrategyPrecision IndexingStrategyName = "precision"
)

// IndexingConfig configures the Indexing Strategy.
type IndexingConfig struct {
	Strategy          IndexingStrategyName `yaml:"strategy" json:"strategy"`
	ChunkSize         int                   `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap      int                   `yaml:"chunk_overlap" json:"chunk_overlap"`
	MaxConcurrentDocs int                   `yaml:"max_concurrent_docs" json:"max_concurrent_docs"`
}

// VectorBackendKind selects the Vector Store Contract implementation (§4.4).
type VectorBackendKind string

const (
	VectorBackendMemory   VectorBackendKind = "memory"
	VectorBackendEmbedded VectorBackendKind = "embedded"
	VectorBackendRemote   VectorBackendKind = "remote"
)

// VectorBackendConfig selects and tunes the vector store backend.
type VectorBackendConfig struct {
	Kind       VectorBackendKind `yaml:"kind" json:"kind"`
	Dimensions int               `yaml:"dimensions" json:"dimensions"`
	Metric     string            `yaml:"metric" json:"metric"`
	M          int               `yaml:"m" json:"m"`
	EfSearch   int               `yaml:"ef_search" json:"ef_search"`
	RemoteAddr string            `yaml:"remote_addr" json:"remote_addr"`
}

// ServerConfig configures the boundary's transport-facing defaults.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// LoggingConfig configures the rotating structured logger (§10.1).
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	OutputPath string `yaml:"output_path" json:"output_path"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	AlsoStderr bool   `yaml:"also_stderr" json:"also_stderr"`
}

// NewConfig returns a Config populated with the documented defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Cache: CacheConfig{
			Query:                  CacheLayerConfig{MaxEntries: 1000, MaxSizeMB: 32, TTLSeconds: 300},
			Embedding:              CacheLayerConfig{MaxEntries: 5000, MaxSizeMB: 64, TTLSeconds: 3600},
			BM25:                   CacheLayerConfig{MaxEntries: 2000, MaxSizeMB: 32, TTLSeconds: 300},
			Fusion:                 CacheLayerConfig{MaxEntries: 1000, MaxSizeMB: 16, TTLSeconds: 300},
			CleanupIntervalSeconds: 60,
		},
		Hybrid: HybridConfig{
			Mode:            HybridParallel,
			SequentialN:     0,
			BM25ThenVectorK: 50,
		},
		Fusion: FusionConfig{
			WeightBM25:    0.4,
			WeightVector:  0.6,
			Normalization: NormalizationMinMax,
		},
		QueryExpansion: QueryExpansionConfig{
			MaxExpansions:        3,
			MaxTermsPerExpansion: 2,
			OriginalWeight:       1.0,
			ExpansionWeight:      0.6,
			EnableSynonyms:       true,
			EnableMorphological:  true,
			EnableContextual:     false,
		},
		Ranking: RankingConfig{
			LengthPenaltyThreshold: 2000,
			LengthPenaltyFactor:    0.1,
			TitleBoost:             0.15,
			FreshnessWeight:        0.05,
			RerankEnabled:          false,
		},
		Indexing: IndexingConfig{
			Strategy:          StrategyStandard,
			ChunkSize:         1500,
			ChunkOverlap:      200,
			MaxConcurrentDocs: runtime.NumCPU(),
		},
		VectorBackend: VectorBackendConfig{
			Kind:       VectorBackendEmbedded,
			Dimensions: 384,
			Metric:     "cosine",
			M:          16,
			EfSearch:   20,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: defaultLogPath(),
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
			AlsoStderr: false,
		},
	}
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docsearch", "docsearch.log")
	}
	return filepath.Join(home, ".docsearch", "docsearch.log")
}

// GetUserConfigPath returns the path to the user/global configuration
// file, following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "docsearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if present.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file, or returns a nil
// config and nil error if none exists.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration for dir, applying (in increasing precedence):
// hardcoded defaults, the user/global config, the project config
// (.docsearch.yaml in dir), then DOCSEARCH_* environment overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .docsearch.yaml or .docsearch.yml from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".docsearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".docsearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges other's non-zero fields into c. These fields are not
// merged and keep c's value: query_expansion.enable_*, ranking.rerank_enabled,
// vector_backend.{metric,m,ef_search} and logging.{format,max_size_mb,
// max_backups,max_age_days,also_stderr}.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	mergeLayer(&c.Cache.Query, other.Cache.Query)
	mergeLayer(&c.Cache.Embedding, other.Cache.Embedding)
	mergeLayer(&c.Cache.BM25, other.Cache.BM25)
	mergeLayer(&c.Cache.Fusion, other.Cache.Fusion)
	if other.Cache.CleanupIntervalSeconds != 0 {
		c.Cache.CleanupIntervalSeconds = other.Cache.CleanupIntervalSeconds
	}

	if other.Hybrid.Mode != "" {
		c.Hybrid.Mode = other.Hybrid.Mode
	}
	if other.Hybrid.SequentialN != 0 {
		c.Hybrid.SequentialN = other.Hybrid.SequentialN
	}
	if other.Hybrid.BM25ThenVectorK != 0 {
		c.Hybrid.BM25ThenVectorK = other.Hybrid.BM25ThenVectorK
	}

	if other.Fusion.WeightBM25 != 0 {
		c.Fusion.WeightBM25 = other.Fusion.WeightBM25
	}
	if other.Fusion.WeightVector != 0 {
		c.Fusion.WeightVector = other.Fusion.WeightVector
	}
	if other.Fusion.Normalization != "" {
		c.Fusion.Normalization = other.Fusion.Normalization
	}

	if other.QueryExpansion.MaxExpansions != 0 {
		c.QueryExpansion.MaxExpansions = other.QueryExpansion.MaxExpansions
	}
	if other.QueryExpansion.MaxTermsPerExpansion != 0 {
		c.QueryExpansion.MaxTermsPerExpansion = other.QueryExpansion.MaxTermsPerExpansion
	}
	if other.QueryExpansion.OriginalWeight != 0 {
		c.QueryExpansion.OriginalWeight = other.QueryExpansion.OriginalWeight
	}
	if other.QueryExpansion.ExpansionWeight != 0 {
		c.QueryExpansion.ExpansionWeight = other.QueryExpansion.ExpansionWeight
	}

	if other.Ranking.LengthPenaltyThreshold != 0 {
		c.Ranking.LengthPenaltyThreshold = other.Ranking.LengthPenaltyThreshold
	}
	if other.Ranking.LengthPenaltyFactor != 0 {
		c.Ranking.LengthPenaltyFactor = other.Ranking.LengthPenaltyFactor
	}
	if other.Ranking.TitleBoost != 0 {
		c.Ranking.TitleBoost = other.Ranking.TitleBoost
	}
	if other.Ranking.FreshnessWeight != 0 {
		c.Ranking.FreshnessWeight = other.Ranking.FreshnessWeight
	}

	if other.Indexing.Strategy != "" {
		c.Indexing.Strategy = other.Indexing.Strategy
	}
	if other.Indexing.ChunkSize != 0 {
		c.Indexing.ChunkSize = other.Indexing.ChunkSize
	}
	if other.Indexing.ChunkOverlap != 0 {
		c.Indexing.ChunkOverlap = other.Indexing.ChunkOverlap
	}
	if other.Indexing.MaxConcurrentDocs != 0 {
		c.Indexing.MaxConcurrentDocs = other.Indexing.MaxConcurrentDocs
	}

	if other.VectorBackend.Kind != "" {
		c.VectorBackend.Kind = other.VectorBackend.Kind
	}
	if other.VectorBackend.Dimensions != 0 {
		c.VectorBackend.Dimensions = other.VectorBackend.Dimensions
	}
	if other.VectorBackend.RemoteAddr != "" {
		c.VectorBackend.RemoteAddr = other.VectorBackend.RemoteAddr
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.OutputPath != "" {
		c.Logging.OutputPath = other.Logging.OutputPath
	}
}

func mergeLayer(dst *CacheLayerConfig, src CacheLayerConfig) {
	if src.MaxEntries != 0 {
		dst.MaxEntries = src.MaxEntries
	}
	if src.MaxSizeMB != 0 {
		dst.MaxSizeMB = src.MaxSizeMB
	}
	if src.TTLSeconds != 0 {
		dst.TTLSeconds = src.TTLSeconds
	}
}

// applyEnvOverrides applies DOCSEARCH_* environment variable overrides,
// the highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSEARCH_FUSION_WEIGHT_BM25"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Fusion.WeightBM25 = w
		}
	}
	if v := os.Getenv("DOCSEARCH_FUSION_WEIGHT_VECTOR"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Fusion.WeightVector = w
		}
	}
	if v := os.Getenv("DOCSEARCH_HYBRID_MODE"); v != "" {
		c.Hybrid.Mode = HybridMode(v)
	}
	if v := os.Getenv("DOCSEARCH_VECTOR_BACKEND"); v != "" {
		c.VectorBackend.Kind = VectorBackendKind(v)
	}
	if v := os.Getenv("DOCSEARCH_VECTOR_BACKEND_REMOTE_ADDR"); v != "" {
		c.VectorBackend.RemoteAddr = v
	}
	if v := os.Getenv("DOCSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCSEARCH_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("DOCSEARCH_INDEXING_STRATEGY"); v != "" {
		c.Indexing.Strategy = IndexingStrategyName(v)
	}
	if v := os.Getenv("DOCSEARCH_INDEXING_MAX_CONCURRENT_DOCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.MaxConcurrentDocs = n
		}
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate enforces the documented constraints: fusion weights sum to
// 1.0, TTLs non-negative, limits positive.
func (c *Config) Validate() error {
	sum := c.Fusion.WeightBM25 + c.Fusion.WeightVector
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("fusion.weight_bm25 + fusion.weight_vector must equal 1.0, got %.2f", sum)
	}
	if c.Fusion.WeightBM25 < 0 || c.Fusion.WeightBM25 > 1 {
		return fmt.Errorf("fusion.weight_bm25 must be between 0 and 1, got %f", c.Fusion.WeightBM25)
	}
	if c.Fusion.WeightVector < 0 || c.Fusion.WeightVector > 1 {
		return fmt.Errorf("fusion.weight_vector must be between 0 and 1, got %f", c.Fusion.WeightVector)
	}

	for name, layer := range map[string]CacheLayerConfig{
		"cache.query": c.Cache.Query, "cache.embedding": c.Cache.Embedding,
		"cache.bm25": c.Cache.BM25, "cache.fusion": c.Cache.Fusion,
	} {
		if layer.TTLSeconds < 0 {
			return fmt.Errorf("%s.ttl_seconds must be non-negative, got %d", name, layer.TTLSeconds)
		}
		if layer.MaxEntries < 0 {
			return fmt.Errorf("%s.max_entries must be non-negative, got %d", name, layer.MaxEntries)
		}
	}
	if c.Cache.CleanupIntervalSeconds < 0 {
		return fmt.Errorf("cache.cleanup_interval_seconds must be non-negative, got %d", c.Cache.CleanupIntervalSeconds)
	}

	if c.Indexing.ChunkSize <= 0 {
		return fmt.Errorf("indexing.chunk_size must be positive, got %d", c.Indexing.ChunkSize)
	}
	if c.Indexing.ChunkOverlap < 0 {
		return fmt.Errorf("indexing.chunk_overlap must be non-negative, got %d", c.Indexing.ChunkOverlap)
	}
	if c.Indexing.MaxConcurrentDocs <= 0 {
		return fmt.Errorf("indexing.max_concurrent_docs must be positive, got %d", c.Indexing.MaxConcurrentDocs)
	}

	validStrategies := map[IndexingStrategyName]bool{StrategyStandard: true, StrategyFast: true, StrategyPrecision: true}
	if !validStrategies[c.Indexing.Strategy] {
		return fmt.Errorf("indexing.strategy must be 'standard', 'fast', or 'precision', got %s", c.Indexing.Strategy)
	}

	validBackends := map[VectorBackendKind]bool{VectorBackendMemory: true, VectorBackendEmbedded: true, VectorBackendRemote: true}
	if !validBackends[c.VectorBackend.Kind] {
		return fmt.Errorf("vector_backend.kind must be 'memory', 'embedded', or 'remote', got %s", c.VectorBackend.Kind)
	}
	if c.VectorBackend.Dimensions <= 0 {
		return fmt.Errorf("vector_backend.dimensions must be positive, got %d", c.VectorBackend.Dimensions)
	}
	if c.VectorBackend.Kind == VectorBackendRemote && c.VectorBackend.RemoteAddr == "" {
		return fmt.Errorf("vector_backend.remote_addr is required when vector_backend.kind is 'remote'")
	}

	validModes := map[HybridMode]bool{HybridParallel: true, HybridSequential: true, HybridBM25ThenVector: true}
	if !validModes[c.Hybrid.Mode] {
		return fmt.Errorf("hybrid.mode must be 'parallel', 'sequential', or 'bm25_then_vector', got %s", c.Hybrid.Mode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeNewDefaults fills zero-valued fields added in later releases with
// their documented defaults, returning the dotted field names touched.
// Used when loading a config file written by an older version.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Cache.CleanupIntervalSeconds == 0 {
		c.Cache.CleanupIntervalSeconds = defaults.Cache.CleanupIntervalSeconds
		added = append(added, "cache.cleanup_interval_seconds")
	}
	if c.QueryExpansion.MaxExpansions == 0 {
		c.QueryExpansion.MaxExpansions = defaults.QueryExpansion.MaxExpansions
		added = append(added, "query_expansion.max_expansions")
	}
	if c.Ranking.LengthPenaltyThreshold == 0 {
		c.Ranking.LengthPenaltyThreshold = defaults.Ranking.LengthPenaltyThreshold
		added = append(added, "ranking.length_penalty_threshold")
	}
	if c.Indexing.MaxConcurrentDocs == 0 {
		c.Indexing.MaxConcurrentDocs = defaults.Indexing.MaxConcurrentDocs
		added = append(added, "indexing.max_concurrent_docs")
	}
	if c.VectorBackend.Dimensions == 0 {
		c.VectorBackend.Dimensions = defaults.VectorBackend.Dimensions
		added = append(added, "vector_backend.dimensions")
	}

	return added
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
