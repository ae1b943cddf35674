package ingest

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/corpus/core"
)

// job is one unit of queued document processing.
type job struct {
	documentID core.ID
	opts       ProcessOptions
}

// jobQueue is a bounded FIFO of processing jobs drained by a single
// worker. Jobs enqueued while a drain runs join the backlog and are
// picked up by the running drain, so a second drain never starts.
type jobQueue struct {
	mu       sync.Mutex
	jobs     []job
	capacity int
	draining bool

	pool *ants.Pool
	run  func(job)
}

func newJobQueue(capacity int, run func(job)) (*jobQueue, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	return &jobQueue{
		capacity: capacity,
		pool:     pool,
		run:      run,
	}, nil
}

// enqueue appends a job and starts a drain if none is running.
func (q *jobQueue) enqueue(j job) error {
	q.mu.Lock()
	if len(q.jobs) >= q.capacity {
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.jobs = append(q.jobs, j)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if !start {
		return nil
	}
	if err := q.pool.Submit(q.drain); err != nil {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
		return fmt.Errorf("starting queue drain: %w", err)
	}
	return nil
}

// drain pops and runs jobs until the backlog is empty.
func (q *jobQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.run(j)
	}
}

// depth reports queued jobs plus the one currently draining.
func (q *jobQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.jobs)
	if q.draining {
		n++
	}
	return n
}

func (q *jobQueue) release() {
	q.pool.Release()
}
