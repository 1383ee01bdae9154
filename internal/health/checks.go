package health

import (
	"context"
	"fmt"

	"github.com/doylet/docsearch/internal/lexstore"
	"github.com/doylet/docsearch/internal/metadata"
	"github.com/doylet/docsearch/internal/vectorstore"
)

// VectorStoreCheck reports the vector store reachable and its current
// vector count.
func VectorStoreCheck(store vectorstore.Store) CheckFunc {
	return func(ctx context.Context) (Status, string, error) {
		count, err := store.Count(ctx)
		if err != nil {
			return StatusUnhealthy, "", fmt.Errorf("vector store: %w", err)
		}
		return StatusHealthy, fmt.Sprintf("%d vectors", count), nil
	}
}

// LexicalStoreCheck reports the lexical store reachable and its current
// chunk count.
func LexicalStoreCheck(store lexstore.Store) CheckFunc {
	return func(ctx context.Context) (Status, string, error) {
		count, err := store.Count(ctx)
		if err != nil {
			return StatusUnhealthy, "", fmt.Errorf("lexical store: %w", err)
		}
		return StatusHealthy, fmt.Sprintf("%d chunks", count), nil
	}
}

// MetadataStoreCheck reports the metadata store reachable and lists its
// known collections.
func MetadataStoreCheck(store *metadata.Store) CheckFunc {
	return func(ctx context.Context) (Status, string, error) {
		collections, err := store.ListCollections(ctx)
		if err != nil {
			return StatusUnhealthy, "", fmt.Errorf("metadata store: %w", err)
		}
		return StatusHealthy, fmt.Sprintf("%d collections", len(collections)), nil
	}
}

// DimensionParityCheck flags a vector store configured for a different
// width than the active embedder produces; a mismatch here means vector
// search fails for every query and retrieval runs on lexical hits alone,
// so it is reported as Degraded rather than Unhealthy.
func DimensionParityCheck(store vectorstore.Store, embedderDimensions int) CheckFunc {
	return func(ctx context.Context) (Status, string, error) {
		storeDims := store.Dimensions()
		if storeDims != embedderDimensions {
			return StatusDegraded,
				fmt.Sprintf("vector store expects %d dims, embedder produces %d", storeDims, embedderDimensions),
				nil
		}
		return StatusHealthy, fmt.Sprintf("%d dims", storeDims), nil
	}
}
