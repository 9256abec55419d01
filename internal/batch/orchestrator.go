// Package batch runs a per-chunk transformation over a table on a bounded
// worker pool and reassembles the results in input order.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// DefaultChunkSize is the number of rows handed to one task.
const DefaultChunkSize = 1000

// ChunkFunc transforms one chunk. The chunk is a private copy; the function
// may modify it and return it or return a new table.
type ChunkFunc func(ctx context.Context, index int, chunk *domain.Table) (*domain.Table, error)

// ProgressFunc is called once per finished chunk. Calls are serialized and
// completed increases by one each time.
type ProgressFunc func(completed, total int)

// Chunk is a half-open row range [Start, End).
type Chunk struct {
	Index int
	Start int
	End   int
}

// Chunks splits n rows into contiguous chunks of at most size rows.
func Chunks(n, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out []Chunk
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, Chunk{Index: len(out), Start: start, End: end})
	}
	return out
}

// Orchestrator fans chunks out to workers.
type Orchestrator struct {
	chunkSize int
	workers   int
	logger    *slog.Logger
}

// New creates an Orchestrator. Non-positive values select the defaults:
// DefaultChunkSize rows and GOMAXPROCS workers.
func New(chunkSize, workers int, logger *slog.Logger) *Orchestrator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		chunkSize: chunkSize,
		workers:   workers,
		logger:    logger.With(slog.String("component", "batch")),
	}
}

// ChunkSize returns the configured chunk size.
func (o *Orchestrator) ChunkSize() int { return o.chunkSize }

// Run applies fn to every chunk of t and concatenates the results in chunk
// order. The first chunk error fails the whole run and no partial table is
// returned. Chunks are not cancelled when a sibling fails.
func (o *Orchestrator) Run(ctx context.Context, t *domain.Table, fn ChunkFunc, progress ProgressFunc) (*domain.Table, error) {
	chunks := Chunks(t.Len(), o.chunkSize)
	if len(chunks) == 0 {
		// An empty input still runs once so the output schema is derived.
		chunks = []Chunk{{}}
	}
	total := len(chunks)
	results := make([]*domain.Table, total)
	start := time.Now()

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, c := range chunks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = apperrors.NewTaskError(c.Index, fmt.Errorf("panic: %v", r))
				}
			}()

			out, err := fn(ctx, c.Index, t.Slice(c.Start, c.End))
			if err != nil {
				return apperrors.NewTaskError(c.Index, err)
			}
			results[c.Index] = out

			mu.Lock()
			completed++
			if progress != nil {
				progress(completed, total)
			}
			mu.Unlock()

			o.logger.DebugContext(ctx, "chunk finished",
				slog.Int("chunk", c.Index),
				slog.Int("rows", c.End-c.Start))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.ErrorContext(ctx, "batch failed",
			slog.Int("chunks", total),
			slog.String("error", err.Error()))
		return nil, err
	}

	out := assemble(results)
	o.logger.InfoContext(ctx, "batch completed",
		slog.Int("chunks", total),
		slog.Int("rows", out.Len()),
		slog.Int("workers", o.workers),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

// assemble concatenates chunk results. The schema is the first chunk's
// columns followed by any column a later chunk introduced.
func assemble(results []*domain.Table) *domain.Table {
	out := domain.NewTable()
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, c := range r.Columns {
			out.AddColumn(c)
		}
		out.Rows = append(out.Rows, r.Rows...)
	}
	return out
}
