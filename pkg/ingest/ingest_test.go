package ingest

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/japaniel/blini/pkg/markov"
)

// recordingLearner tokenizes on whitespace with random delays so workers
// finish out of order, and records the order Learn is called in.
type recordingLearner struct {
	mu      sync.Mutex
	learned []string
	calls   int
}

func (r *recordingLearner) Tokenize(input string) []string {
	time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
	return strings.Fields(input)
}

func (r *recordingLearner) Learn(tokens []string, tags markov.Tags) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(tokens) == 0 {
		return false
	}
	r.learned = append(r.learned, strings.Join(tokens, " "))
	return true
}

func messages(texts ...string) []Message {
	out := make([]Message, len(texts))
	for i, t := range texts {
		out[i] = Message{Text: t}
	}
	return out
}

func TestIngestLearnsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var texts []string
	for i := 0; i < 200; i++ {
		texts = append(texts, strings.Repeat("w", i%7+1)+" message")
	}
	learner := &recordingLearner{}
	ingester := NewIngester(learner)
	ingester.Workers = 8
	ingester.BatchSize = 30

	var progress []int
	ingester.OnProgress = func(current, total int) {
		if total != len(texts) {
			t.Errorf("progress total %d, want %d", total, len(texts))
		}
		progress = append(progress, current)
	}

	count, err := ingester.Ingest(context.Background(), messages(texts...))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if count != len(texts) {
		t.Errorf("Expected %d learned messages, got %d", len(texts), count)
	}
	if diff := cmp.Diff(texts, learner.learned); diff != "" {
		t.Fatalf("learn order mismatch (-want +got):\n%s", diff)
	}
	wantProgress := []int{30, 60, 90, 120, 150, 180, 200}
	if diff := cmp.Diff(wantProgress, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestSkipsEmptyMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	learner := &recordingLearner{}
	ingester := NewIngester(learner)

	var seen []string
	ingester.OnLearned = func(m Message) { seen = append(seen, m.Text) }

	count, err := ingester.Ingest(context.Background(), messages("hello there", "   ", "", "bye"))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 learned messages, got %d", count)
	}
	if learner.calls != 4 {
		t.Errorf("Expected Learn to be called 4 times, got %d", learner.calls)
	}
	if diff := cmp.Diff([]string{"hello there", "bye"}, seen); diff != "" {
		t.Errorf("OnLearned mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestNothing(t *testing.T) {
	count, err := NewIngester(&recordingLearner{}).Ingest(context.Background(), nil)
	if err != nil || count != 0 {
		t.Fatalf("Ingest(nil) = %d, %v", count, err)
	}
}

func TestIngestContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	texts := make([]string, 100)
	for i := range texts {
		texts[i] = "Test message"
	}
	learner := &recordingLearner{}
	ingester := NewIngester(learner)
	ingester.BatchSize = 10

	// Create a context that is ALREADY canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := ingester.Ingest(ctx, messages(texts...))
	if count != 0 {
		t.Errorf("Expected 0 learned messages with cancelled context, got %d", count)
	}
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
	if len(learner.learned) != 0 {
		t.Errorf("Learn called after cancellation: %v", learner.learned)
	}
}
