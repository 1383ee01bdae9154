package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 0.4, cfg.Fusion.WeightBM25)
	assert.Equal(t, 0.6, cfg.Fusion.WeightVector)
	assert.Equal(t, NormalizationMinMax, cfg.Fusion.Normalization)
	assert.Equal(t, HybridParallel, cfg.Hybrid.Mode)
	assert.Equal(t, StrategyStandard, cfg.Indexing.Strategy)
	assert.Equal(t, 1500, cfg.Indexing.ChunkSize)
	assert.Equal(t, VectorBackendEmbedded, cfg.VectorBackend.Kind)
	assert.Equal(t, 384, cfg.VectorBackend.Dimensions)
	require.NoError(t, cfg.Validate())
}

func TestLoadYamlFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
fusion:
  weight_bm25: 0.3
  weight_vector: 0.7
hybrid:
  mode: sequential
indexing:
  chunk_size: 800
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docsearch.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Fusion.WeightBM25)
	assert.Equal(t, 0.7, cfg.Fusion.WeightVector)
	assert.Equal(t, HybridMode("sequential"), cfg.Hybrid.Mode)
	assert.Equal(t, 800, cfg.Indexing.ChunkSize)
}

func TestLoadWithNoProjectConfigReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Fusion, cfg.Fusion)
}

func TestLoadEnvVarOverridesFusionWeights(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSEARCH_FUSION_WEIGHT_BM25", "0.8")
	t.Setenv("DOCSEARCH_FUSION_WEIGHT_VECTOR", "0.2")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Fusion.WeightBM25)
	assert.Equal(t, 0.2, cfg.Fusion.WeightVector)
}

func TestLoadEnvVarOverridesTakePrecedenceOverProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docsearch.yaml"), []byte("hybrid:\n  mode: bm25_then_vector\n"), 0644))
	t.Setenv("DOCSEARCH_HYBRID_MODE", "parallel")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, HybridParallel, cfg.Hybrid.Mode)
}

func TestLoadEnvVarOverridesVectorBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSEARCH_VECTOR_BACKEND", "remote")
	t.Setenv("DOCSEARCH_VECTOR_BACKEND_REMOTE_ADDR", "localhost:6334")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, VectorBackendRemote, cfg.VectorBackend.Kind)
	assert.Equal(t, "localhost:6334", cfg.VectorBackend.RemoteAddr)
}

func TestGetUserConfigPathRespectsXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := GetUserConfigPath()
	assert.Equal(t, filepath.Join(dir, "docsearch", "config.yaml"), path)
}

func TestLoadUserConfigOverridesDefaults(t *testing.T) {
	xdgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgDir)
	userConfigDir := filepath.Join(xdgDir, "docsearch")
	require.NoError(t, os.MkdirAll(userConfigDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userConfigDir, "config.yaml"), []byte("ranking:\n  title_boost: 0.4\n"), 0644))

	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.Ranking.TitleBoost)
}

func TestLoadProjectConfigOverridesUserConfig(t *testing.T) {
	xdgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgDir)
	userConfigDir := filepath.Join(xdgDir, "docsearch")
	require.NoError(t, os.MkdirAll(userConfigDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userConfigDir, "config.yaml"), []byte("ranking:\n  title_boost: 0.4\n"), 0644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docsearch.yaml"), []byte("ranking:\n  title_boost: 0.9\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Ranking.TitleBoost)
}

func TestUserConfigExistsFalseWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, UserConfigExists())
}

func TestValidateRejectsFusionWeightsNotSummingToOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Fusion.WeightBM25 = 0.9
	cfg.Fusion.WeightVector = 0.9
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownHybridMode(t *testing.T) {
	cfg := NewConfig()
	cfg.Hybrid.Mode = "banana"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownIndexingStrategy(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.Strategy = "banana"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveChunkSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRemoteBackendWithoutAddr(t *testing.T) {
	cfg := NewConfig()
	cfg.VectorBackend.Kind = VectorBackendRemote
	cfg.VectorBackend.RemoteAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsRemoteBackendWithAddr(t *testing.T) {
	cfg := NewConfig()
	cfg.VectorBackend.Kind = VectorBackendRemote
	cfg.VectorBackend.RemoteAddr = "localhost:6334"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg := NewConfig()
	cfg.Fusion.WeightBM25 = 0.3
	cfg.Fusion.WeightVector = 0.7

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 0.3, loaded.Fusion.WeightBM25)
	assert.Equal(t, 0.7, loaded.Fusion.WeightVector)
}
