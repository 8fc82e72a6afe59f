// Package workerpool wraps an ants goroutine pool behind a small surface
// used by the reconciliation engine to fan classification work across
// partitions of the transaction set.
package workerpool

import (
	"errors"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// ErrInvalidSize is returned when the requested pool size is not positive.
var ErrInvalidSize = errors.New("worker pool size must be positive")

// Pool is a fixed-size goroutine pool with logged lifecycle.
type Pool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// New creates a worker pool with the specified size. Non-positive sizes are
// rejected; ants would otherwise treat them as an unbounded pool.
func New(size int, logger *slog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Pool{
		pool:   pool,
		logger: logger,
	}, nil
}

// Submit hands a task to the pool. It blocks until a worker is available.
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Running returns the number of running workers in the pool.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (p *Pool) Capacity() int {
	return p.pool.Cap()
}

// Release gracefully shuts down the worker pool.
func (p *Pool) Release() {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}
