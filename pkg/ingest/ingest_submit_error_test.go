package ingest

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestIngestHandlesSubmitError(t *testing.T) {
	ingester := NewIngester(&recordingLearner{})
	// Inject failing pool so first Submit() returns an error
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	// Run ingest and expect it to return quickly with the submit error
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	count, err := ingester.Ingest(ctx, messages("one", "two", "three"))
	if err == nil || err.Error() != "submit failed" {
		t.Fatalf("expected submit error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing learned, got %d", count)
	}
}
