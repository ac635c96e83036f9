package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrShutdown is returned when processing on a queue that has been shut down
var ErrShutdown = errors.New("queue has been shutdown")

// Queue is a worker queue with a fixed amount of workers
type Queue[T, R any] struct {
	ctx     context.Context
	workers int
	queue   chan job[T, R]
	handler func(context.Context, T) (R, error)
}

type job[T, R any] struct {
	ctx    context.Context
	data   T
	result chan jobResult[R]
}

type jobResult[R any] struct {
	result R
	err    error
}

// New creates a new Queue with the specified amount of workers
// The queue shuts down when the given context is canceled
func New[T, R any](ctx context.Context, workers int, handler func(context.Context, T) (R, error)) *Queue[T, R] {
	return &Queue[T, R]{
		ctx:     ctx,
		workers: workers,
		queue:   make(chan job[T, R]),
		handler: handler,
	}
}

// Run starts the workers and blocks until the queue is shut down
func (q *Queue[T, R]) Run() {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.worker()
		}()
	}

	wg.Wait()
}

func (q *Queue[T, R]) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case j := <-q.queue:
			if err := j.ctx.Err(); err != nil {
				j.result <- jobResult[R]{err: err}
				continue
			}

			result, err := q.handler(j.ctx, j.data)
			j.result <- jobResult[R]{
				result: result,
				err:    err,
			}
		}
	}
}

// Process adds a job to the queue, waits for it to process, and returns the result
func (q *Queue[T, R]) Process(ctx context.Context, data T) (R, error) {
	var zero R

	if q.ctx.Err() != nil {
		return zero, ErrShutdown
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// Buffered so that workers never block on callers that have given up
	resultChan := make(chan jobResult[R], 1)

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.ctx.Done():
		return zero, ErrShutdown
	case q.queue <- job[T, R]{ctx: ctx, data: data, result: resultChan}:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return zero, result.err
		}

		return result.result, nil
	}
}
