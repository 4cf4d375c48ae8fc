// Package images keeps the registry of base images that generated captions
// are drawn onto.
package images

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"slices"
	"strings"

	"github.com/japaniel/blini/pkg/markov"
)

const (
	// DefaultMaxAspectRatio rejects images too long or too tall to caption.
	DefaultMaxAspectRatio = 2.5
)

// DefaultExtensions are the file types accepted by Process.
var DefaultExtensions = []string{"gif", "jpg", "jpeg", "png"}

// Image describes a candidate image as seen in a message attachment.
type Image struct {
	URL    string
	Width  int
	Height int
}

// Record is a registered image.
type Record struct {
	URL  string      `json:"-"`
	Tags markov.Tags `json:"tags,omitempty"`
}

// Registry maps image URLs to their tags, preserving insertion order.
// Like the chain, it provides no locking.
type Registry struct {
	// MaxAspectRatio and Extensions drive Process validation.
	MaxAspectRatio float64
	Extensions     []string

	records map[string]Record
	order   []string
}

// NewRegistry returns an empty registry with default validation rules.
func NewRegistry() *Registry {
	return &Registry{
		MaxAspectRatio: DefaultMaxAspectRatio,
		Extensions:     slices.Clone(DefaultExtensions),
		records:        make(map[string]Record),
	}
}

// Add registers url with tags. It returns false if url is already registered.
func (r *Registry) Add(url string, tags markov.Tags) bool {
	if url == "" {
		return false
	}
	if _, ok := r.records[url]; ok {
		return false
	}
	r.records[url] = Record{URL: url, Tags: tags}
	r.order = append(r.order, url)
	return true
}

// Valid reports whether img has known dimensions, an accepted extension and
// an acceptable aspect ratio.
func (r *Registry) Valid(img Image) bool {
	if img.Width <= 0 || img.Height <= 0 {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(img.URL), "."))
	if !slices.Contains(r.Extensions, ext) {
		return false
	}
	w, h := float64(img.Width), float64(img.Height)
	return math.Max(w/h, h/w) <= r.MaxAspectRatio
}

// Process validates img and registers it. It reports whether the image was added.
func (r *Registry) Process(img Image, tags markov.Tags) bool {
	if !r.Valid(img) {
		return false
	}
	return r.Add(img.URL, tags)
}

// Delete removes url from the registry. It reports whether it was present.
func (r *Registry) Delete(url string) bool {
	if _, ok := r.records[url]; !ok {
		return false
	}
	delete(r.records, url)
	r.order = slices.DeleteFunc(r.order, func(u string) bool { return u == url })
	return true
}

// Get returns the record for url.
func (r *Registry) Get(url string) (Record, bool) {
	rec, ok := r.records[url]
	return rec, ok
}

// Records returns all records in insertion order.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, r.records[u])
	}
	return out
}

// Len returns the number of registered images.
func (r *Registry) Len() int { return len(r.order) }

// Random picks a registered image uniformly.
func (r *Registry) Random(rnd markov.Rand) (Record, bool) {
	if len(r.order) == 0 {
		return Record{}, false
	}
	if rnd == nil {
		rnd = markov.GlobalRand
	}
	return r.records[r.order[rnd.IntN(len(r.order))]], true
}

// Keep returns a new registry holding the images matching f.
func (r *Registry) Keep(f markov.Filter) *Registry {
	return r.selectRecords(func(rec Record) bool { return f.Matches(rec.Tags) })
}

// Remove returns a new registry without the images carrying f's tag.
//
// Unlike markov.Remove, untagged images are dropped too when a tag name is
// given: only images tagged with a different value survive.
func (r *Registry) Remove(f markov.Filter) *Registry {
	return r.selectRecords(func(rec Record) bool {
		if f.IsZero() {
			return true
		}
		return rec.Tags.Has(f.Name) && f.HasValue && rec.Tags[f.Name] != f.Value
	})
}

func (r *Registry) selectRecords(pred func(Record) bool) *Registry {
	out := &Registry{
		MaxAspectRatio: r.MaxAspectRatio,
		Extensions:     slices.Clone(r.Extensions),
		records:        make(map[string]Record),
	}
	for _, u := range r.order {
		if rec := r.records[u]; pred(rec) {
			out.records[u] = rec
			out.order = append(out.order, u)
		}
	}
	return out
}

// MarshalJSON encodes the registry as {url: {"tags": {...}}}.
func (r *Registry) MarshalJSON() ([]byte, error) {
	// encoding/json sorts map keys, which keeps snapshots stable.
	m := make(map[string]Record, len(r.records))
	for u, rec := range r.records {
		m[u] = rec
	}
	return json.Marshal(m)
}

// UnmarshalJSON replaces the registry's contents with a snapshot. Records are
// ordered by URL since the snapshot format carries no insertion order.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var m map[string]Record
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode image snapshot: %w", err)
	}
	if r.Extensions == nil {
		r.Extensions = slices.Clone(DefaultExtensions)
	}
	if r.MaxAspectRatio == 0 {
		r.MaxAspectRatio = DefaultMaxAspectRatio
	}
	r.records = make(map[string]Record, len(m))
	r.order = r.order[:0]
	urls := make([]string, 0, len(m))
	for u := range m {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	for _, u := range urls {
		rec := m[u]
		rec.URL = u
		r.records[u] = rec
		r.order = append(r.order, u)
	}
	return nil
}
