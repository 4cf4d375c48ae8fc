// Package markov implements an order-2 Markov chain whose candidate entries
// carry free-form tags. It has no I/O; callers tokenize input and persist
// snapshots themselves.
package markov

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Sentinel marks the start and end of a learned utterance. Tokens are produced
// by whitespace splitting, so no real token can ever equal it.
const Sentinel = "\n"

// Tags is an open set of tag name/value pairs attached to an entry.
// A tag whose value is empty is treated as absent.
type Tags map[string]string

// Has reports whether the tag is present with a non-empty value.
func (t Tags) Has(name string) bool {
	return t[name] != ""
}

// Key is the two-token context preceding a predicted token. Order matters.
type Key struct {
	First  string
	Second string
}

// StartKey is the context used when generation starts at an utterance boundary.
var StartKey = Key{First: Sentinel, Second: Sentinel}

// Entry is one observed continuation of a context.
type Entry struct {
	Word string `json:"word"`
	Tags Tags   `json:"tags,omitempty"`
}

// Chain maps contexts to the ordered list of observed continuations.
// It provides no locking: callers serialize mutation.
type Chain struct {
	entries map[Key][]Entry
	// order holds keys in first-insertion order so snapshots and
	// whole-chain filters are deterministic.
	order []Key
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{entries: make(map[Key][]Entry)}
}

// Add records word as a continuation of ctx. It refuses empty words and the
// degenerate all-sentinel triple, returning false in that case.
func (c *Chain) Add(word string, ctx Key, tags Tags) bool {
	if word == "" {
		return false
	}
	if ctx == StartKey && word == Sentinel {
		return false
	}
	list, ok := c.entries[ctx]
	if !ok {
		c.order = append(c.order, ctx)
	}
	c.entries[ctx] = append(list, Entry{Word: word, Tags: tags})
	return true
}

// Candidates returns the entries recorded for ctx. The returned slice must
// not be modified.
func (c *Chain) Candidates(ctx Key) []Entry {
	return c.entries[ctx]
}

// Keys returns every context in insertion order.
func (c *Chain) Keys() []Key {
	out := make([]Key, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of contexts.
func (c *Chain) Len() int { return len(c.order) }

// Size returns the total number of entries across all contexts.
func (c *Chain) Size() int {
	n := 0
	for _, list := range c.entries {
		n += len(list)
	}
	return n
}

// mapEntries builds a new chain with the same keys, each list replaced by fn(list).
// Lists are clipped so appends on either chain never write into shared storage.
func (c *Chain) mapEntries(fn func([]Entry) []Entry) *Chain {
	out := &Chain{
		entries: make(map[Key][]Entry, len(c.entries)),
		order:   make([]Key, len(c.order)),
	}
	copy(out.order, c.order)
	for _, k := range c.order {
		out.entries[k] = slices.Clip(fn(c.entries[k]))
	}
	return out
}

// snapshotContext is the JSON form of one context and its entries.
type snapshotContext struct {
	Context [2]string `json:"context"`
	Entries []Entry   `json:"entries"`
}

// MarshalJSON encodes the chain as an ordered list of contexts.
func (c *Chain) MarshalJSON() ([]byte, error) {
	out := make([]snapshotContext, 0, len(c.order))
	for _, k := range c.order {
		entries := c.entries[k]
		if entries == nil {
			entries = []Entry{}
		}
		out = append(out, snapshotContext{
			Context: [2]string{k.First, k.Second},
			Entries: entries,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces the chain's contents with a snapshot produced by MarshalJSON.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var in []snapshotContext
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode chain snapshot: %w", err)
	}
	c.entries = make(map[Key][]Entry, len(in))
	c.order = c.order[:0]
	for _, sc := range in {
		k := Key{First: sc.Context[0], Second: sc.Context[1]}
		if _, dup := c.entries[k]; !dup {
			c.order = append(c.order, k)
		}
		c.entries[k] = append(c.entries[k], sc.Entries...)
	}
	return nil
}
