// Package pipeline implements the Pipeline Runtime (§4.1): an ordered,
// immutable-after-build sequence of stages over a *core.SearchContext,
// with per-stage timing, a fatal/optional failure policy, and an overall
// deadline.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/doylet/docsearch/internal/core"
	"github.com/doylet/docsearch/internal/docerr"
)

// DefaultTimeout bounds the whole pipeline run when Builder.WithTimeout is
// not called.
const DefaultTimeout = 5 * time.Second

// Stage is one named step in the pipeline. Execute may read and extend
// ctx's SearchContext; it MUST NOT remove prior results except as part of
// its documented role (dedup, ranking truncation).
type Stage interface {
	Name() string
	Execute(ctx context.Context, sc *core.SearchContext) error
}

// namedStage pairs a Stage with whether its failure is fatal to the
// request.
type namedStage struct {
	stage    Stage
	optional bool
}

// Builder assembles a Pipeline. Stage order is explicit and fixed once
// Build is called.
type Builder struct {
	stages  []namedStage
	timeout time.Duration
}

// NewBuilder returns an empty Builder using DefaultTimeout.
func NewBuilder() *Builder {
	return &Builder{timeout: DefaultTimeout}
}

// Add appends a fatal stage: its error aborts the whole request.
func (b *Builder) Add(stage Stage) *Builder {
	b.stages = append(b.stages, namedStage{stage: stage})
	return b
}

// AddOptional appends a stage whose failure is logged and swallowed,
// leaving the context unchanged but marked degraded.
func (b *Builder) AddOptional(stage Stage) *Builder {
	b.stages = append(b.stages, namedStage{stage: stage, optional: true})
	return b
}

// WithTimeout overrides DefaultTimeout for the built Pipeline.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// Build freezes the stage sequence into a Pipeline.
func (b *Builder) Build() *Pipeline {
	stages := make([]namedStage, len(b.stages))
	copy(stages, b.stages)
	timeout := b.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{stages: stages, timeout: timeout}
}

// Pipeline is an immutable, ordered stage sequence.
type Pipeline struct {
	stages  []namedStage
	timeout time.Duration
}

// Execute validates req, runs every stage in order against a fresh
// SearchContext, and returns the populated context or the first fatal
// stage's error.
func (p *Pipeline) Execute(ctx context.Context, req core.SearchRequest) (*core.SearchContext, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sc := core.NewSearchContext(req)

	for _, ns := range p.stages {
		start := time.Now()
		err := ns.stage.Execute(ctx, sc)
		sc.Metadata.RecordTiming(ns.stage.Name(), time.Since(start))

		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return nil, docerr.Timeout("pipeline deadline exceeded").WithDetail(ns.stage.Name())
		}

		if !ns.optional {
			return nil, err
		}

		slog.Warn("optional pipeline stage failed, continuing degraded",
			slog.String("stage", ns.stage.Name()),
			slog.String("error", err.Error()))
		sc.Metadata.MarkDegraded(ns.stage.Name() + ": " + err.Error())
	}

	return sc, nil
}
