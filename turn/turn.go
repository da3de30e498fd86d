// Package turn serializes row output across workers. Exactly one turn is in circulation and it is
// passed from worker to worker in id order, 0, 1, ..., workers-1, 0, ... Each worker waits on its own
// single slot signal, so handing the turn over wakes exactly the next worker and no one polls.
package turn

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrInvalidWorkers = errors.New("worker count must be greater than zero")
	ErrUnknownWorker  = errors.New("unknown worker")
	ErrNotYourTurn    = errors.New("released a turn that was not held")
)

type Token struct {
	// current is only advanced by the worker holding the turn. It is atomic so a misplaced Release
	// can check it without racing the holder.
	current atomic.Int64
	slots   []chan struct{}
	workers int
}

// New creates a token for workers workers with the turn given to worker 0.
func New(workers int) (*Token, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}

	token := &Token{
		slots:   make([]chan struct{}, workers),
		workers: workers,
	}
	for i := range token.slots {
		token.slots[i] = make(chan struct{}, 1)
	}
	token.slots[0] <- struct{}{}

	return token, nil
}

func (t *Token) Workers() int {
	return t.workers
}

// Acquire blocks until it is workerID's turn or ctx is done. On success the caller holds the only
// permission to write and must call Release exactly once.
func (t *Token) Acquire(ctx context.Context, workerID int) error {
	if workerID < 0 || workerID >= t.workers {
		return fmt.Errorf("%w: %d of %d", ErrUnknownWorker, workerID, t.workers)
	}

	select {
	case <-t.slots[workerID]:
	case <-ctx.Done():
		return ctx.Err()
	}

	if current := int(t.current.Load()); current != workerID {
		// a turn arrived on the wrong slot, the cycle is corrupt
		return fmt.Errorf("%w: worker %d woke during turn %d", ErrNotYourTurn, workerID, current)
	}
	return nil
}

// Release advances the turn to the next worker id and wakes that worker.
func (t *Token) Release(workerID int) error {
	if workerID < 0 || workerID >= t.workers {
		return fmt.Errorf("%w: %d of %d", ErrUnknownWorker, workerID, t.workers)
	}
	current := int(t.current.Load())
	if current != workerID {
		return fmt.Errorf("%w: worker %d during turn %d", ErrNotYourTurn, workerID, current)
	}

	next := (current + 1) % t.workers
	t.current.Store(int64(next))
	select {
	case t.slots[next] <- struct{}{}:
		return nil
	default:
		return fmt.Errorf("%w: worker %d already signalled", ErrNotYourTurn, next)
	}
}
