package classify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/abelbrown/mentions/internal/logging"
)

// Namespace is the fixed key-value namespace product overrides live under.
const Namespace = "product_overrides"

// ErrNoOverrides is returned when a classifier has no override layer.
var ErrNoOverrides = errors.New("classify: no override store configured")

// Persister is the durable key-value store behind Overrides.
// store.Store satisfies it.
type Persister interface {
	LoadNamespace(namespace string) (map[string]string, error)
	Put(namespace, key, value string) error
	Delete(namespace, key string) error
}

// Overrides holds manual product labels keyed by post id.
//
// Reads are served from memory; writes go through to the persister first so
// the in-memory view never claims a label that failed to persist.
// Safe for concurrent use.
type Overrides struct {
	mu      sync.RWMutex
	labels  map[int64]string
	persist Persister
}

// NewOverrides creates an override layer and loads any persisted entries.
// p may be nil for a memory-only layer. Malformed persisted entries (a key
// that is not a post id, or a blank label) are skipped.
func NewOverrides(p Persister) (*Overrides, error) {
	o := &Overrides{
		labels:  make(map[int64]string),
		persist: p,
	}
	if p == nil {
		return o, nil
	}

	entries, err := p.LoadNamespace(Namespace)
	if err != nil {
		return o, fmt.Errorf("load overrides: %w", err)
	}
	for key, value := range entries {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			logging.Warn("Skipping malformed override key", "key", key)
			continue
		}
		label := strings.TrimSpace(value)
		if label == "" {
			continue
		}
		o.labels[id] = label
	}
	return o, nil
}

// Get returns the override for postID, if any.
func (o *Overrides) Get(postID int64) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	label, ok := o.labels[postID]
	if !ok || label == "" {
		return "", false
	}
	return label, true
}

// Set records label for postID. A blank label deletes the entry.
func (o *Overrides) Set(postID int64, label string) error {
	label = strings.TrimSpace(label)
	key := strconv.FormatInt(postID, 10)

	o.mu.Lock()
	defer o.mu.Unlock()

	if label == "" {
		if o.persist != nil {
			if err := o.persist.Delete(Namespace, key); err != nil {
				return fmt.Errorf("delete override %d: %w", postID, err)
			}
		}
		delete(o.labels, postID)
		return nil
	}

	if o.persist != nil {
		if err := o.persist.Put(Namespace, key, label); err != nil {
			return fmt.Errorf("save override %d: %w", postID, err)
		}
	}
	o.labels[postID] = label
	return nil
}

// All returns a copy of every override.
func (o *Overrides) All() map[int64]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[int64]string, len(o.labels))
	for id, label := range o.labels {
		out[id] = label
	}
	return out
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.labels)
}
