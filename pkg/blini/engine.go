// Package blini is the chat bot engine: it learns from messages, generates
// new ones from the learned chain, and keeps the registry of caption images.
//
// An Engine does no locking. Callers serialize Learn, ProcessInput,
// RemoveTag and the image mutators; Generate may run concurrently with
// itself as long as no mutation is in flight.
package blini

import (
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/blini/pkg/images"
	"github.com/japaniel/blini/pkg/markov"
	"github.com/japaniel/blini/pkg/segment"
)

// Version returns the current version of the package.
func Version() string { return "0.2.0" }

// Tokenizer splits raw text into tokens.
type Tokenizer interface {
	Tokenize(input string) []string
}

// Engine owns one chain and one image registry.
type Engine struct {
	tokenizer Tokenizer
	chain     *markov.Chain
	images    *images.Registry
	maxChain  int
	rand      markov.Rand
	logger    *zap.Logger
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenizer replaces the default kagome-backed tokenizer.
func WithTokenizer(t Tokenizer) Option { return func(e *Engine) { e.tokenizer = t } }

// WithChain starts the engine from an existing chain, e.g. a restored snapshot.
func WithChain(c *markov.Chain) Option { return func(e *Engine) { e.chain = c } }

// WithImages starts the engine from an existing image registry.
func WithImages(r *images.Registry) Option { return func(e *Engine) { e.images = r } }

// WithMaxChain caps the number of words generated per call.
func WithMaxChain(n int) Option { return func(e *Engine) { e.maxChain = n } }

// WithRand sets the random source used for sampling. A *rand.Rand is not
// safe for concurrent Generate calls.
func WithRand(r markov.Rand) Option { return func(e *Engine) { e.rand = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// New creates an engine. Without WithTokenizer it loads the kagome IPA dictionary.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		maxChain: markov.DefaultMaxSteps,
		rand:     markov.GlobalRand,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tokenizer == nil {
		a, err := segment.NewAnalyzer()
		if err != nil {
			return nil, err
		}
		e.tokenizer = a
	}
	if e.chain == nil {
		e.chain = markov.New()
	}
	if e.images == nil {
		e.images = images.NewRegistry()
	}
	if e.maxChain <= 0 {
		e.maxChain = markov.DefaultMaxSteps
	}
	return e, nil
}

// Chain returns the engine's chain. Mutating it directly bypasses observers.
func (e *Engine) Chain() *markov.Chain { return e.chain }

// Images returns the engine's image registry.
func (e *Engine) Images() *images.Registry { return e.images }

// MaxChain returns the generation step limit.
func (e *Engine) MaxChain() int { return e.maxChain }

// Tokenize splits input with the engine's tokenizer.
func (e *Engine) Tokenize(input string) []string {
	return e.tokenizer.Tokenize(input)
}

// Learn records an already tokenized utterance. It reports whether anything
// was recorded and notifies observers only in that case.
func (e *Engine) Learn(tokens []string, tags markov.Tags) bool {
	if !e.chain.Learn(tokens, tags) {
		e.logger.Debug("Ignored empty utterance")
		return false
	}
	e.logger.Debug("Learned utterance", zap.Int("tokens", len(tokens)), zap.Int("contexts", e.chain.Len()))
	e.notify(Event{Kind: ChainChanged})
	return true
}

// ProcessInput tokenizes input and learns it.
func (e *Engine) ProcessInput(input string, tags markov.Tags) bool {
	return e.Learn(e.Tokenize(input), tags)
}

// Generate produces a new message. With a seed, the output starts with the
// seed's tokens and continues from its last two; if no continuation exists
// the seed is returned followed by "?". Generate never fails: an empty
// result is returned as "?".
func (e *Engine) Generate(seed string, f markov.Filter) string {
	opts := markov.WalkOptions{
		Filter:   f,
		MaxSteps: e.maxChain,
		Rand:     e.rand,
	}
	if seed != "" {
		opts.Seeded = true
		opts.Seed = e.Tokenize(seed)
	}

	w := e.chain.Walk(opts)
	if w.Stranded {
		return segment.TrimSpaces(strings.Join(w.Words, " ") + "?")
	}
	out := segment.TrimSpaces(strings.Join(w.Words, " "))
	if out == "" {
		return "?"
	}
	return out
}

// FilterChain returns a copy of the chain restricted to entries matching f.
func (e *Engine) FilterChain(f markov.Filter) *markov.Chain {
	return e.chain.Keep(f)
}

// RemoveTag drops the entries removed by f from every context.
func (e *Engine) RemoveTag(f markov.Filter) {
	if f.IsZero() {
		return
	}
	before := e.chain.Size()
	e.chain = e.chain.Remove(f)
	e.logger.Info("Removed tagged entries",
		zap.String("tag", f.Name),
		zap.Int("removed", before-e.chain.Size()))
	e.notify(Event{Kind: ChainChanged})
}

// AddImage registers url without validation.
func (e *Engine) AddImage(url string, tags markov.Tags) bool {
	if !e.images.Add(url, tags) {
		return false
	}
	e.notify(Event{Kind: ImagesChanged})
	return true
}

// ProcessImage validates img and registers it.
func (e *Engine) ProcessImage(img images.Image, tags markov.Tags) bool {
	if !e.images.Process(img, tags) {
		e.logger.Debug("Rejected image", zap.String("url", img.URL))
		return false
	}
	e.notify(Event{Kind: ImagesChanged})
	return true
}

// RemoveImage unregisters url, e.g. after it failed to load.
func (e *Engine) RemoveImage(url string) bool {
	if !e.images.Delete(url) {
		return false
	}
	e.notify(Event{Kind: ImagesChanged})
	return true
}

// FilterImages returns a copy of the registry restricted to images matching f.
func (e *Engine) FilterImages(f markov.Filter) *images.Registry {
	return e.images.Keep(f)
}

// RemoveImageTag drops the images removed by f.
func (e *Engine) RemoveImageTag(f markov.Filter) {
	if f.IsZero() {
		return
	}
	e.images = e.images.Remove(f)
	e.notify(Event{Kind: ImagesChanged})
}

// RandomImage picks a base image for a caption.
func (e *Engine) RandomImage(f markov.Filter) (images.Record, bool) {
	return e.images.Keep(f).Random(e.rand)
}
