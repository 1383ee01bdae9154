package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doylet/docsearch/internal/analytics"
	"github.com/doylet/docsearch/internal/boundary"
	"github.com/doylet/docsearch/internal/embedding"
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

// newTestService builds a minimal, fully wired boundary.Service for
// exercising the daemon over a real Unix socket, matching the fixture
// internal/boundary's own tests use.
func newTestService(t *testing.T) *boundary.Service {
	t.Helper()
	vec := vectorstore.NewMemoryStore(vectorstore.DefaultConfig(16))
	lex, err := lexstore.New("", lexstore.DefaultConfig())
	require.NoError(t, err)
	emb := embedding.NewStaticEmbedder(16)
	md, err := metadata.Open("")
	require.NoError(t, err)
	t.Cleanup(func() {
		vec.Close()
		lex.Close()
		md.Close()
	})

	ix := indexing.New(vec, lex, emb, md, indexing.StandardStrategy)
	t.Cleanup(ix.Close)

	retrievalStage := retrieval.NewStage(vec, lex, emb)
	enhanceStage := queryenhance.NewStage(queryenhance.DefaultConfig())
	rankStage := ranking.NewStage(ranking.DefaultConfig())
	p := pipeline.NewBuilder().
		AddOptional(&pipeline.EnhancementStage{Enhancer: enhanceStage}).
		Add(&pipeline.RetrievalStage{Retriever: retrievalStage}).
		Add(&pipeline.MergeStage{Strategy: merge.MergeWithProvenance, MaxResults: 10}).
		Add(&pipeline.RankingStage{Ranker: rankStage}).
		Build()

	reg := health.NewRegistry()
	reg.Register("vector_store", health.VectorStoreCheck(vec))

	return boundary.New(p, ix, md, reg, reg, analytics.NewRecorder())
}

// daemonTestSocketPath creates a unique socket path for daemon tests.
func daemonTestSocketPath(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join("/tmp", fmt.Sprintf("docsearch-daemon-test-%d.sock", time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(socketPath) })
	return socketPath
}

func TestServiceHandler_HandleSearch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.IndexDocument(ctx, "docs", "guide.md", "guide.md",
		[]byte("search engines combine lexical and vector retrieval for documents"))
	require.NoError(t, err)

	h := NewServiceHandler(svc)
	results, err := h.HandleSearch(ctx, SearchParams{Query: "vector retrieval", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].DocID, "docs")
}

func TestServiceHandler_HandleSearch_InvalidParams(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	h := NewServiceHandler(svc)

	_, err := h.HandleSearch(ctx, SearchParams{Query: ""})
	require.Error(t, err)
}

func TestServiceHandler_GetStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", []byte("content about hybrid retrieval"))
	require.NoError(t, err)

	h := NewServiceHandler(svc)
	status := h.GetStatus(ctx)

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.ReadinessStatus)
	assert.Equal(t, 1, status.CollectionsLoaded)
}

func TestServiceHandler_GetStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.IndexDocument(ctx, "docs", "a.md", "a.md", []byte("content about hybrid retrieval"))
	require.NoError(t, err)

	h := NewServiceHandler(svc)
	_, err = h.HandleSearch(ctx, SearchParams{Query: "hybrid retrieval", Limit: 10})
	require.NoError(t, err)

	stats := h.GetStats()
	assert.Equal(t, int64(1), stats.TotalQueries)
}

func TestDaemon_EndToEndSearchOverSocket(t *testing.T) {
	socketPath := daemonTestSocketPath(t)
	svc := newTestService(t)

	ctx := context.Background()
	_, err := svc.IndexDocument(ctx, "docs", "guide.md", "guide.md",
		[]byte("hybrid search fuses bm25 and vector similarity"))
	require.NoError(t, err)

	srv, err := NewServer(socketPath)
	require.NoError(t, err)
	srv.SetHandler(NewServiceHandler(svc))

	srvCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.ListenAndServe(srvCtx) }()
	time.Sleep(50 * time.Millisecond)

	client := NewClient(Config{SocketPath: socketPath, Timeout: 5 * time.Second})
	require.True(t, client.IsRunning())

	results, err := client.Search(ctx, SearchParams{Query: "vector similarity", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 1, status.CollectionsLoaded)
}

func TestDaemon_RawSearchRequestOverWire(t *testing.T) {
	socketPath := daemonTestSocketPath(t)
	svc := newTestService(t)

	ctx := context.Background()
	_, err := svc.IndexDocument(ctx, "docs", "guide.md", "guide.md",
		[]byte("hybrid search combines lexical and semantic signals"))
	require.NoError(t, err)

	srv, err := NewServer(socketPath)
	require.NoError(t, err)
	srv.SetHandler(NewServiceHandler(svc))

	srvCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.ListenAndServe(srvCtx) }()
	time.Sleep(50 * time.Millisecond)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	req := Request{
		JSONRPC: "2.0",
		Method:  MethodSearch,
		Params:  SearchParams{Query: "semantic signals", Limit: 5},
		ID:      "wire-1",
	}
	require.NoError(t, json.NewEncoder(conn).Encode(req))

	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	require.Nil(t, resp.Error)

	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var results []SearchResult
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
}

func TestPIDFile_ReflectsDaemonProcess(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "daemon.pid")

	pf := NewPIDFile(pidPath)
	require.NoError(t, pf.Write())
	assert.True(t, pf.IsRunning())

	pid, err := pf.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestDaemonConfig_StalePIDIsNotRunning(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "daemon.pid")
	require.NoError(t, os.WriteFile(pidPath, []byte("4194304"), 0644))

	pf := NewPIDFile(pidPath)
	assert.False(t, pf.IsRunning())
}
