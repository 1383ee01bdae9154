package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/doylet/docsearch/internal/analytics"
	"github.com/doylet/docsearch/internal/boundary"
	"github.com/doylet/docsearch/internal/cache"
	"github.com/doylet/docsearch/internal/config"
	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/embedding"
	"github.com/doylet/docsearch/internal/fusion"
	"github.com/doylet/docsearch/internal/health"
	"github.com/doylet/docsearch/internal/indexing"
	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/merge"
	"github.com/doylet/docsearch/internal/metadata"
	"github.com/doylet/docsearch/internal/pipeline"
	"github.com/doylet/docsearch/internal/queryenhance"
	"github.com/doylet/docsearch/internal/ranking"
	"github.com/doylet/docsearch/internal/retrieval"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// findRoot returns dir if non-empty, else the current working directory.
func findRoot(dir string) string {
	if dir != "" {
		return dir
	}
	root, err := os.Getwd()
	if err != nil {
		return "."
	}
	return root
}

// dataDirFor returns the .docsearch data directory under root.
func dataDirFor(root string) string {
	return filepath.Join(root, ".docsearch")
}

// openedService bundles a boundary.Service with the stores it opened, so
// callers can persist and close them in the right order.
type openedService struct {
	Service *boundary.Service
	vector  vectorstore.Store
	lexical lexstore.Store
	md      *metadata.Store
	vecPath string
	cache   *cache.Manager
}

// Close persists the embedded vector index (if used) and closes every
// opened store.
func (o *openedService) Close() error {
	if o.cache != nil {
		o.cache.Close()
	}
	if es, ok := o.vector.(*vectorstore.EmbeddedStore); ok && o.vecPath != "" {
		if err := es.Save(o.vecPath); err != nil {
			return err
		}
	}
	if err := o.vector.Close(); err != nil {
		return err
	}
	if err := o.lexical.Close(); err != nil {
		return err
	}
	return o.md.Close()
}

// cacheManagerFromConfig builds the Cache Layer (§4.10) manager from cfg's
// cache section, converting its on-disk units (megabytes, seconds) into the
// Layer's native bytes and time.Duration.
func cacheManagerFromConfig(cfg config.CacheConfig) *cache.Manager {
	layer := func(lc config.CacheLayerConfig) cache.LayerConfig {
		return cache.LayerConfig{
			MaxEntries:   lc.MaxEntries,
			MaxSizeBytes: int64(lc.MaxSizeMB) << 20,
			TTL:          time.Duration(lc.TTLSeconds) * time.Second,
		}
	}
	return cache.NewManager(cache.Config{
		Query:           layer(cfg.Query),
		Embedding:       layer(cfg.Embedding),
		BM25:            layer(cfg.BM25),
		Fusion:          layer(cfg.Fusion),
		CleanupInterval: time.Duration(cfg.CleanupIntervalSeconds) * time.Second,
	})
}

// openService opens (or creates) every store under dataDir per cfg and
// wires them into a boundary.Service, following the same retrieval ->
// merge -> rank pipeline shape regardless of caller (daemon, local search,
// index, status).
func openService(ctx context.Context, dataDir string, cfg *config.Config) (*openedService, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	md, err := metadata.Open(filepath.Join(dataDir, "metadata.db"))
	if err != nil {
		return nil, err
	}

	lex, err := lexstore.New(filepath.Join(dataDir, "bm25.bleve"), lexstore.DefaultConfig())
	if err != nil {
		_ = md.Close()
		return nil, err
	}

	vec, vecPath, err := openVectorStore(cfg, dataDir)
	if err != nil {
		_ = lex.Close()
		_ = md.Close()
		return nil, err
	}

	emb := embedding.NewCachedEmbedder(
		embedding.NewStaticEmbedder(cfg.VectorBackend.Dimensions),
		cfg.Cache.Embedding.MaxEntries,
	)

	strategy := indexingStrategyFromConfig(cfg.Indexing.Strategy)
	ix := indexing.New(vec, lex, emb, md, strategy)

	p := buildPipeline(cfg, vec, lex, emb)

	reg := health.NewRegistry()
	reg.Register("vector_store", health.VectorStoreCheck(vec))
	reg.Register("lexical_store", health.LexicalStoreCheck(lex))
	reg.Register("metadata_store", health.MetadataStoreCheck(md))
	reg.Register("dimension_parity", health.DimensionParityCheck(vec, cfg.VectorBackend.Dimensions))

	svc := boundary.New(p, ix, md, reg, reg, analytics.NewRecorder())

	mgr := cacheManagerFromConfig(cfg.Cache)
	svc.SetCache(mgr)

	slog.Debug("opened service",
		slog.String("data_dir", dataDir),
		slog.String("vector_backend", string(cfg.VectorBackend.Kind)),
		slog.String("hybrid_mode", string(cfg.Hybrid.Mode)))

	return &openedService{Service: svc, vector: vec, lexical: lex, md: md, vecPath: vecPath, cache: mgr}, nil
}

// openVectorStore constructs the configured vector backend, loading a
// persisted embedded index from dataDir if present. vecPath is non-empty
// only for the embedded backend, telling Close where to Save to.
func openVectorStore(cfg *config.Config, dataDir string) (vectorstore.Store, string, error) {
	vcfg := vectorstore.Config{
		Dimensions: cfg.VectorBackend.Dimensions,
		Metric:     vectorstore.MetricCosine,
		M:          cfg.VectorBackend.M,
		EfSearch:   cfg.VectorBackend.EfSearch,
	}

	switch cfg.VectorBackend.Kind {
	case config.VectorBackendRemote:
		store, err := vectorstore.NewRemoteStore(vectorstore.RemoteOptions{
			Host:           cfg.VectorBackend.RemoteAddr,
			CollectionName: "docsearch",
		}, vcfg)
		return store, "", err

	case config.VectorBackendMemory:
		return vectorstore.NewMemoryStore(vcfg), "", nil

	default: // config.VectorBackendEmbedded
		store := vectorstore.NewEmbeddedStore(vcfg)
		path := filepath.Join(dataDir, "vectors.hnsw")
		if _, err := os.Stat(path); err == nil {
			if err := store.Load(path); err != nil {
				return nil, "", err
			}
		}
		return store, path, nil
	}
}

func indexingStrategyFromConfig(name config.IndexingStrategyName) indexing.Strategy {
	switch name {
	case config.StrategyFast:
		return indexing.FastStrategy
	case config.StrategyPrecision:
		return indexing.PrecisionStrategy
	default:
		return indexing.StandardStrategy
	}
}

// buildPipeline assembles the Enhancement -> Retrieval -> Merge -> Ranking
// stage chain from cfg, mirroring internal/daemon's own test fixture.
func buildPipeline(cfg *config.Config, vec vectorstore.Store, lex lexstore.Store, emb embedding.Embedder) *pipeline.Pipeline {
	retrievalStage := retrieval.NewStage(vec, lex, emb)
	retrievalStage.Mode = retrievalModeFromConfig(cfg.Hybrid.Mode)
	retrievalStage.Threshold = cfg.Hybrid.SequentialN
	retrievalStage.RerankCount = cfg.Hybrid.BM25ThenVectorK

	normalization, _ := core.ParseNormalizationMethod(string(cfg.Fusion.Normalization))
	retrievalStage.Fuser = fusion.NewFuser(normalization)
	retrievalStage.Weights.BM25 = cfg.Fusion.WeightBM25
	retrievalStage.Weights.Vector = cfg.Fusion.WeightVector

	enhanceStage := queryenhance.NewStage(queryenhance.Config{
		MaxExpansions:        cfg.QueryExpansion.MaxExpansions,
		MaxTermsPerExpansion: cfg.QueryExpansion.MaxTermsPerExpansion,
	})

	rankStage := ranking.NewStage(ranking.Config{
		Weights: ranking.Weights{
			VectorSimilarity: 0.5,
			LexicalSignal:    0.3,
			TitleBoost:       cfg.Ranking.TitleBoost,
			Freshness:        cfg.Ranking.FreshnessWeight,
			LengthPenalty:    cfg.Ranking.LengthPenaltyFactor,
		},
		LengthThreshold: cfg.Ranking.LengthPenaltyThreshold,
	})

	builder := pipeline.NewBuilder()
	if cfg.QueryExpansion.EnableSynonyms || cfg.QueryExpansion.EnableMorphological {
		builder = builder.AddOptional(&pipeline.EnhancementStage{Enhancer: enhanceStage})
	}
	builder = builder.
		Add(&pipeline.RetrievalStage{Retriever: retrievalStage}).
		Add(&pipeline.MergeStage{Strategy: merge.MergeWithProvenance, MaxResults: 100}).
		Add(&pipeline.RankingStage{Ranker: rankStage})

	return builder.Build()
}

func retrievalModeFromConfig(mode config.HybridMode) retrieval.Mode {
	switch mode {
	case config.HybridSequential:
		return retrieval.Sequential
	case config.HybridBM25ThenVector:
		return retrieval.BM25ThenVector
	default:
		return retrieval.Parallel
	}
}
