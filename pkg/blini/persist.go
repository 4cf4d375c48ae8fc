package blini

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/blini/pkg/images"
	"github.com/japaniel/blini/pkg/markov"
)

// Snapshot keys used with Storage.
const (
	DictionaryKey = "bliniDictionary"
	ImagesKey     = "bliniImages"
)

// EventKind identifies which structure a mutation touched.
type EventKind int

const (
	ChainChanged EventKind = iota + 1
	ImagesChanged
)

func (k EventKind) String() string {
	switch k {
	case ChainChanged:
		return "chain"
	case ImagesChanged:
		return "images"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is emitted after every successful mutation.
type Event struct {
	Kind EventKind
}

// Observer receives mutation events synchronously on the mutating goroutine.
// Observers must not block; hand slow work off elsewhere.
type Observer func(Event)

// Subscribe registers o for all future mutation events.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Engine) notify(ev Event) {
	for _, o := range e.observers {
		o(ev)
	}
}

// Storage is the associative string store snapshots are written to.
type Storage interface {
	SetItem(key, value string) error
}

// Loader reads snapshots back. ok is false when key was never written.
type Loader interface {
	GetItem(key string) (value string, ok bool, err error)
}

// PersistTo writes a snapshot of the changed structure to s after every
// mutation. Write failures are logged and otherwise ignored; the engine keeps
// working from memory.
func (e *Engine) PersistTo(s Storage) {
	e.Subscribe(func(ev Event) {
		key, value, err := e.snapshot(ev.Kind)
		if err != nil {
			e.logger.Warn("Failed to encode snapshot", zap.Stringer("kind", ev.Kind), zap.Error(err))
			return
		}
		if err := s.SetItem(key, value); err != nil {
			e.logger.Warn("Failed to save snapshot", zap.String("key", key), zap.Error(err))
		}
	})
}

func (e *Engine) snapshot(kind EventKind) (string, string, error) {
	var (
		key string
		v   any
	)
	switch kind {
	case ChainChanged:
		key, v = DictionaryKey, e.chain
	case ImagesChanged:
		key, v = ImagesKey, e.images
	default:
		return "", "", fmt.Errorf("unknown event kind %v", kind)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	return key, string(b), nil
}

// Restore loads both snapshots from l. Missing keys leave the corresponding
// structure empty. Restore does not notify observers.
func Restore(l Loader) (*markov.Chain, *images.Registry, error) {
	chain := markov.New()
	reg := images.NewRegistry()

	if v, ok, err := l.GetItem(DictionaryKey); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", DictionaryKey, err)
	} else if ok {
		if err := json.Unmarshal([]byte(v), chain); err != nil {
			return nil, nil, err
		}
	}

	if v, ok, err := l.GetItem(ImagesKey); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", ImagesKey, err)
	} else if ok {
		if err := json.Unmarshal([]byte(v), reg); err != nil {
			return nil, nil, err
		}
	}
	return chain, reg, nil
}
