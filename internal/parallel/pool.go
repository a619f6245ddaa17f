package parallel

import (
	"sync"
	"sync/atomic"
)

// Pool is a persistent set of goroutines for callers that run many grid
// operations back to back. Each worker owns a queue and steals from the
// others when its own is empty.
//
// Pool is safe for concurrent use. Close waits for in-flight For calls.
type Pool struct {
	workers   int
	chunkSize int

	queues []chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	// mu is held for reading by For and for writing by Close, so no work is
	// queued after the workers have drained and exited.
	mu      sync.RWMutex
	running atomic.Bool
}

// NewPool starts a pool. Non-positive arguments select GOMAXPROCS workers
// and DefaultChunkSize.
func NewPool(workers, chunkSize int) *Pool {
	workers = workersOrDefault(workers)

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers:   workers,
		chunkSize: chunkSizeOrDefault(chunkSize),
		queues:    make([]chan func(), workers),
		done:      make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// Workers reports the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// For splits [0, n) into chunks, distributes them round-robin and waits for
// all of them. On a closed pool the range runs inline.
func (p *Pool) For(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() || n <= p.chunkSize {
		body(0, n)
		return
	}

	var pending sync.WaitGroup
	for k, lo := 0, 0; lo < n; k, lo = k+1, lo+p.chunkSize {
		hi := min(lo+p.chunkSize, n)
		pending.Add(1)
		p.queues[k%p.workers] <- func() {
			defer pending.Done()
			body(lo, hi)
		}
	}
	pending.Wait()
}

// Close stops the workers after pending work has run. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}
