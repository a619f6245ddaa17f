// Package parallel provides the execution strategies used to run per-cell
// grid work. Every strategy hands out disjoint, contiguous [lo, hi) index
// ranges that together cover [0, n), so callers that write only out[lo:hi]
// need no locking and get the same result under any strategy.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of cells handed to a worker at a time.
// Large enough to amortise scheduling, small enough to balance rows of
// uneven cost.
const DefaultChunkSize = 64

// Executor runs body over disjoint ranges covering [0, n) and returns once
// every call has finished.
type Executor interface {
	For(n int, body func(lo, hi int))
}

// Sequential runs the whole range on the calling goroutine.
type Sequential struct{}

// For calls body(0, n) once.
func (Sequential) For(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	body(0, n)
}

// Chunked splits the range into ChunkSize pieces and runs them on at most
// Workers goroutines. Zero values select DefaultChunkSize and GOMAXPROCS.
type Chunked struct {
	Workers   int
	ChunkSize int
}

// For runs body over chunks in parallel. Ranges that fit in a single chunk
// run inline.
func (c Chunked) For(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunk := chunkSizeOrDefault(c.ChunkSize)
	if n <= chunk {
		body(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(workersOrDefault(c.Workers))
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			body(lo, hi)
			return nil
		})
	}
	// body never fails; Wait only joins.
	_ = g.Wait()
}

// New picks an executor for the given worker count: one worker means
// Sequential, anything else Chunked.
func New(workers, chunkSize int) Executor {
	if workers == 1 {
		return Sequential{}
	}
	return Chunked{Workers: workers, ChunkSize: chunkSize}
}

// OrSequential returns e, or Sequential when e is nil.
func OrSequential(e Executor) Executor {
	if e == nil {
		return Sequential{}
	}
	return e
}

func workersOrDefault(w int) int {
	if w <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return w
}

func chunkSizeOrDefault(c int) int {
	if c <= 0 {
		return DefaultChunkSize
	}
	return c
}
