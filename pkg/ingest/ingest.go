// Package ingest feeds batches of messages into the engine and writes
// snapshots to sqlite in the background.
package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/japaniel/blini/pkg/markov"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Learner is the part of the engine the Ingester drives. Tokenize must be
// safe for concurrent use; Learn is only ever called from one goroutine.
type Learner interface {
	Tokenize(input string) []string
	Learn(tokens []string, tags markov.Tags) bool
}

// Message is one utterance to learn.
type Message struct {
	Text string
	Tags markov.Tags
}

// Ingester tokenizes messages concurrently and learns them in input order.
type Ingester struct {
	Engine Learner
	// BatchSize is how often, in messages, OnProgress is called.
	BatchSize int
	// Logger is used for informational messages. nil means no logging.
	Logger *zap.Logger
	// OnProgress is called periodically with the number of processed messages and total messages.
	OnProgress func(current, total int)
	// OnLearned is called, in order, for every message that added to the chain.
	OnLearned func(Message)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(engine Learner) *Ingester {
	return &Ingester{
		Engine:    engine,
		BatchSize: 50,
		Workers:   4, // Default worker count
	}
}

// tokenized holds a message after the CPU-bound tokenization step.
type tokenized struct {
	Index  int
	Tokens []string
}

// Ingest learns msgs and returns how many of them added to the chain.
// Tokenization runs on the worker pool; learning happens on a single
// consumer goroutine in the original message order, so the engine sees the
// same sequence of mutations as a serial loop would produce.
func (ig *Ingester) Ingest(ctx context.Context, msgs []Message) (int, error) {
	total := len(msgs)
	if total == 0 {
		return 0, nil
	}
	logger := ig.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}
	batch := ig.BatchSize
	if batch <= 0 {
		batch = 50
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	defer wp.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan tokenized, workers*2)
	doneCh := make(chan error, 1)
	learned := 0

	wp.Start(ctx)

	go func() {
		buffer := make(map[int]tokenized)
		next := 0
		for next < total {
			if err := ctx.Err(); err != nil {
				doneCh <- err
				return
			}
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			case res := <-resultCh:
				buffer[res.Index] = res
			}

			// Learn every contiguous finished message.
			for {
				item, ok := buffer[next]
				if !ok || ctx.Err() != nil {
					break
				}
				delete(buffer, next)

				msg := msgs[item.Index]
				if ig.Engine.Learn(item.Tokens, msg.Tags) {
					learned++
					if ig.OnLearned != nil {
						ig.OnLearned(msg)
					}
				}
				next++
				if ig.OnProgress != nil && (next%batch == 0 || next == total) {
					ig.OnProgress(next, total)
				}
			}
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i := range msgs {
		// handle early exit if consumer failed
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx := i
		job := func(ctx context.Context) error {
			res := tokenized{Index: idx, Tokens: ig.Engine.Tokenize(msgs[idx].Text)}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || err == ErrPoolClosed {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	consumerErr := <-doneCh
	if submitErr != nil {
		logger.Warn("Ingest aborted", zap.Error(submitErr))
		return learned, submitErr
	}
	if consumerErr != nil {
		return learned, consumerErr
	}
	logger.Info("Ingest complete", zap.Int("messages", total), zap.Int("learned", learned))
	return learned, nil
}
