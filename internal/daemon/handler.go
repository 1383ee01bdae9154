package daemon

import (
	"context"

	"github.com/doylet/docsearch/internal/boundary"
)

// ServiceHandler adapts a boundary.Service to the RequestHandler interface,
// binding the daemon's JSON-RPC surface to the transport-agnostic
// operation surface (§4.11) instead of any search logic of its own.
type ServiceHandler struct {
	svc *boundary.Service
}

// NewServiceHandler wraps svc as a RequestHandler.
func NewServiceHandler(svc *boundary.Service) *ServiceHandler {
	return &ServiceHandler{svc: svc}
}

// HandleSearch runs params through the boundary service and projects the
// result onto the wire SearchResult shape.
func (h *ServiceHandler) HandleSearch(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	req := params.ToSearchRequest()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := h.svc.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, NewSearchResult(r))
	}
	return results, nil
}

// GetStatus reports the daemon's liveness and readiness status plus the
// number of collections currently tracked.
func (h *ServiceHandler) GetStatus(ctx context.Context) StatusResult {
	live := h.svc.Health(ctx)
	ready := h.svc.ReadinessStatus(ctx)

	collections := 0
	if names, err := h.svc.ListCollections(ctx); err == nil {
		collections = len(names)
	}

	return StatusResult{
		Status:            live.Status.String(),
		ReadinessStatus:   ready.Status.String(),
		CollectionsLoaded: collections,
	}
}

// GetStats reports the query telemetry accumulated since the daemon
// started, or a zero-value StatsResult if no analytics.Recorder is wired.
func (h *ServiceHandler) GetStats() StatsResult {
	if h.svc.Analytics == nil {
		return StatsResult{}
	}
	return NewStatsResult(h.svc.Analytics.Snapshot())
}
