package keyzone

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when a key id is not registered.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidZone is returned for zones without positive width and height.
	ErrInvalidZone = errors.New("invalid zone")
	// ErrEmptyID is returned when a key is added without an identifier.
	ErrEmptyID = errors.New("key id is required")
)

// Placement used when a key is added without an explicit zone.
const (
	DefaultKeyWidth = 100
	DefaultKeyGap   = 10
	DefaultKeyTop   = 50
	DefaultKeyBot   = 250
	DefaultFirstX   = 50
)

// Registry is the in-memory set of keys, safe for concurrent use.
// Adding an existing id overwrites it.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]Key
}

// NewRegistry creates a registry holding the given keys.
func NewRegistry(keys ...Key) *Registry {
	r := &Registry{keys: make(map[string]Key, len(keys))}
	for _, k := range keys {
		r.keys[k.ID] = k
	}
	return r
}

// Add inserts or overwrites the key with the given id.
func (r *Registry) Add(id, sound string, zone Zone) error {
	if id == "" {
		return ErrEmptyID
	}
	if !zone.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidZone, zone)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[id] = Key{ID: id, Sound: sound, Zone: zone}
	return nil
}

// Remove deletes a key. Unknown ids return ErrNotFound.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[id]; !ok {
		return ErrNotFound
	}
	delete(r.keys, id)
	return nil
}

// UpdateZone replaces the zone of an existing key.
func (r *Registry) UpdateZone(id string, zone Zone) error {
	if !zone.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidZone, zone)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return ErrNotFound
	}
	k.Zone = zone
	r.keys[id] = k
	return nil
}

// UpdateSound replaces the sound of an existing key.
func (r *Registry) UpdateSound(id, sound string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return ErrNotFound
	}
	k.Sound = sound
	r.keys[id] = k
	return nil
}

// Get returns the key with the given id.
func (r *Registry) Get(id string) (Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[id]
	if !ok {
		return Key{}, ErrNotFound
	}
	return k, nil
}

// List returns a copy of all keys ordered by id.
// The copy is safe to iterate while the registry is being edited.
func (r *Registry) List() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.keys))
	for _, k := range r.keys {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].ID < keys[j].ID
	})
	return keys
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Replace swaps the whole key set, e.g. after loading a layout file.
// If any key has an empty id or an invalid zone the registry is left
// unchanged.
func (r *Registry) Replace(keys []Key) error {
	next := make(map[string]Key, len(keys))
	for _, k := range keys {
		if k.ID == "" {
			return ErrEmptyID
		}
		if !k.Zone.Valid() {
			return fmt.Errorf("%w: key %s %s", ErrInvalidZone, k.ID, k.Zone)
		}
		next[k.ID] = k
	}

	r.mu.Lock()
	r.keys = next
	r.mu.Unlock()
	return nil
}

// NextZone returns a zone to the right of the right-most key, or the
// first slot when the registry is empty. Keys starting at the same x are
// ordered by their right edge, then by id.
func (r *Registry) NextZone() Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found     bool
		rightmost Key
	)
	for _, k := range r.keys {
		if !found || rightOf(k, rightmost) {
			rightmost = k
			found = true
		}
	}

	x1 := DefaultFirstX
	if found {
		x1 = rightmost.Zone.X2 + DefaultKeyGap
	}
	return Zone{X1: x1, Y1: DefaultKeyTop, X2: x1 + DefaultKeyWidth, Y2: DefaultKeyBot}
}

func rightOf(a, b Key) bool {
	if a.Zone.X1 != b.Zone.X1 {
		return a.Zone.X1 > b.Zone.X1
	}
	if a.Zone.X2 != b.Zone.X2 {
		return a.Zone.X2 > b.Zone.X2
	}
	return a.ID > b.ID
}
