package vectorstore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
)

// qdrantNamespace derives deterministic point UUIDs from a ChunkId so that
// re-indexing the same chunk overwrites the same Qdrant point instead of
// leaking orphans, mirroring the embedded backend's lazy-update semantics
// without needing a server-side ID lookup first.
var qdrantNamespace = uuid.NewSHA1(uuid.Nil, []byte("docsearch.vectorstore.remote"))

const payloadChunkIDField = "docsearch_chunk_id"

// RemoteStore is the `vector_backend: Remote` backend: a Qdrant collection
// accessed over gRPC. The collection must already exist with a vector size
// matching cfg.Dimensions; RemoteStore does not attempt schema migration.
type RemoteStore struct {
	client     *qdrant.Client
	collection string
	cfg        Config
	breaker    *docerr.CircuitBreaker
}

// RemoteOptions configures the Qdrant connection.
type RemoteOptions struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
}

// NewRemoteStore dials a Qdrant instance and wraps opts.CollectionName as a
// Store. It does not create the collection; use EnsureCollection for that.
func NewRemoteStore(opts RemoteOptions, cfg Config) (*RemoteStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, docerr.TransientBackend("connect to qdrant", err)
	}
	return &RemoteStore{
		client:     client,
		collection: opts.CollectionName,
		cfg:        cfg,
		breaker:    docerr.NewCircuitBreaker("qdrant-" + opts.CollectionName),
	}, nil
}

// EnsureCollection creates the backing collection if it does not already
// exist, sized for cfg.Dimensions.
func (s *RemoteStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return docerr.TransientBackend("check qdrant collection", err)
	}
	if exists {
		return nil
	}

	distance := qdrant.Distance_Cosine
	if s.cfg.Metric == MetricEuclidean {
		distance = qdrant.Distance_Euclid
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.cfg.Dimensions),
			Distance: distance,
		}),
	})
	if err != nil {
		return docerr.TransientBackend("create qdrant collection", err)
	}
	return nil
}

func chunkPointID(id core.ChunkId) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(qdrantNamespace, []byte(id.String())).String())
}

func (s *RemoteStore) Insert(ctx context.Context, docs []VectorDoc) error {
	if len(docs) == 0 {
		return nil
	}
	for _, d := range docs {
		if len(d.Vector) != s.cfg.Dimensions {
			return docerr.Validation("vector dimension mismatch").
				WithDetail(dimDetail(s.cfg.Dimensions, len(d.Vector)))
		}
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, d := range docs {
		payload, err := encodePayload(d.ChunkID, d.Payload)
		if err != nil {
			return docerr.Internal("encode vector payload").WithDetail(err.Error())
		}
		points = append(points, &qdrant.PointStruct{
			Id:      chunkPointID(d.ChunkID),
			Vectors: qdrant.NewVectors(d.Vector...),
			Payload: payload,
		})
	}

	return docerr.Retry(ctx, docerr.DefaultRetryConfig(), func() error {
		return s.breaker.Execute(func() error {
			_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: s.collection,
				Points:         points,
			})
			if err != nil {
				return docerr.TransientBackend("upsert vectors into qdrant", err)
			}
			return nil
		})
	})
}

// Search queries Qdrant through s.breaker, so repeated RPC failures fail
// fast with an empty result instead of piling up latency on every request.
func (s *RemoteStore) Search(ctx context.Context, query []float32, k int, filter *Filter) ([]Hit, error) {
	if len(query) != s.cfg.Dimensions {
		return nil, docerr.Validation("vector dimension mismatch").
			WithDetail(dimDetail(s.cfg.Dimensions, len(query)))
	}

	limit := uint64(k)
	var results []*qdrant.ScoredPoint
	err := docerr.Retry(ctx, docerr.DefaultRetryConfig(), func() error {
		return s.breaker.Execute(func() error {
			r, err := s.client.Query(ctx, &qdrant.QueryPoints{
				CollectionName: s.collection,
				Query:          qdrant.NewQuery(query...),
				Filter:         toQdrantFilter(filter),
				Limit:          &limit,
				WithPayload:    qdrant.NewWithPayload(true),
			})
			if err != nil {
				return docerr.TransientBackend("query qdrant", err)
			}
			results = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		chunkID, payload, err := decodePayload(r.GetPayload())
		if err != nil {
			continue // payload from a point this store didn't write
		}
		hits = append(hits, Hit{ChunkID: chunkID, Score: float64(r.GetScore()), Payload: payload})
	}
	return hits, nil
}

func (s *RemoteStore) Delete(ctx context.Context, ids []core.ChunkId) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = chunkPointID(id)
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return docerr.TransientBackend("delete vectors from qdrant", err)
	}
	return nil
}

func (s *RemoteStore) Has(ctx context.Context, id core.ChunkId) (bool, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{chunkPointID(id)},
	})
	if err != nil {
		return false, docerr.TransientBackend("get vector from qdrant", err)
	}
	return len(points) > 0, nil
}

func (s *RemoteStore) Get(ctx context.Context, id core.ChunkId) (Payload, bool, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{chunkPointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return Payload{}, false, docerr.TransientBackend("get vector from qdrant", err)
	}
	if len(points) == 0 {
		return Payload{}, false, nil
	}
	_, payload, err := decodePayload(points[0].GetPayload())
	if err != nil {
		return Payload{}, false, docerr.Internal("decode vector payload").WithDetail(err.Error())
	}
	return payload, true, nil
}

func (s *RemoteStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection})
	if err != nil {
		return 0, docerr.TransientBackend("count qdrant points", err)
	}
	return int(count), nil
}

func (s *RemoteStore) Dimensions() int { return s.cfg.Dimensions }

func (s *RemoteStore) Close() error { return s.client.Close() }

// encodedPayload is the JSON blob stashed in a Qdrant point's payload under
// payloadChunkIDField, carrying everything needed to reconstruct a Hit
// without a second round trip to the lexical store.
type encodedPayload struct {
	ChunkID     string   `json:"chunk_id"`
	DocID       string   `json:"doc_id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	URI         string   `json:"uri"`
	SectionPath []string `json:"section_path,omitempty"`
	Collection  *string  `json:"collection,omitempty"`
}

func encodePayload(id core.ChunkId, p Payload) (map[string]*qdrant.Value, error) {
	enc := encodedPayload{
		ChunkID:     id.String(),
		DocID:       p.DocID.String(),
		Title:       p.Title,
		Content:     p.Content,
		URI:         p.URI,
		SectionPath: p.SectionPath,
		Collection:  p.Collection,
	}
	raw, err := json.Marshal(enc)
	if err != nil {
		return nil, err
	}
	return qdrant.NewValueMap(map[string]any{payloadChunkIDField: string(raw)}), nil
}

func decodePayload(raw map[string]*qdrant.Value) (core.ChunkId, Payload, error) {
	v, ok := raw[payloadChunkIDField]
	if !ok {
		return core.ChunkId{}, Payload{}, docerr.Internal("missing chunk payload field")
	}
	var enc encodedPayload
	if err := json.Unmarshal([]byte(v.GetStringValue()), &enc); err != nil {
		return core.ChunkId{}, Payload{}, err
	}
	chunkID, err := core.ParseChunkId(enc.ChunkID)
	if err != nil {
		return core.ChunkId{}, Payload{}, err
	}
	docID, err := core.ParseDocId(enc.DocID)
	if err != nil {
		return core.ChunkId{}, Payload{}, err
	}
	return chunkID, Payload{
		DocID:       docID,
		Title:       enc.Title,
		Content:     enc.Content,
		URI:         enc.URI,
		SectionPath: enc.SectionPath,
		Collection:  enc.Collection,
	}, nil
}

func toQdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil {
		return nil
	}
	var must []*qdrant.Condition
	if filter.Collection != nil {
		must = append(must, qdrant.NewMatch("collection", *filter.Collection))
	}
	if len(filter.DocIDs) > 0 {
		ids := make([]string, 0, len(filter.DocIDs))
		for id := range filter.DocIDs {
			ids = append(ids, id.String())
		}
		must = append(must, qdrant.NewMatchKeywords("doc_id", ids...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

var _ Store = (*RemoteStore)(nil)
