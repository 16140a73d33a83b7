package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/stockgrid/internal/product"
)

// Loader fetches the full record collection from an external source.
type Loader interface {
	Fetch(ctx context.Context) ([]product.Product, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]product.Product, error)

func (f LoaderFunc) Fetch(ctx context.Context) ([]product.Product, error) { return f(ctx) }

// ErrNotFound matches any *NotFoundError with errors.Is.
var ErrNotFound = errors.New("product not found")

// ErrInvalidID is returned by Replace for a collection whose ids are not
// positive and unique.
var ErrInvalidID = errors.New("product ids must be positive and unique")

// NotFoundError reports a mutation that targeted an id the store no longer has.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadError wraps a failed fetch. The previous collection stays in place.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "load products: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Products            []product.Product
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive load failures
}

// IsOffline returns true when the source has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store owns the authoritative product collection. Every mutation re-emits
// the whole collection to subscribers.
type Store struct {
	// writeMu serializes mutations together with their emission so that
	// subscribers see collections in the order they were written.
	writeMu sync.Mutex

	mu       sync.RWMutex
	loader   Loader
	snapshot Snapshot

	subMu   sync.Mutex
	subs    map[int]func([]product.Product)
	nextSub int
}

// New returns a store that loads from loader. A zero Store is also usable;
// it just has nothing to Load from.
func New(loader Loader) *Store {
	return &Store{loader: loader}
}

// Subscribe registers fn to receive the full collection after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]product.Product)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func([]product.Product))
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Load fetches from the loader and replaces the collection. On failure the
// previous collection is kept and a *LoadError is returned.
func (s *Store) Load(ctx context.Context) ([]product.Product, error) {
	if s.loader == nil {
		err := &LoadError{Err: errors.New("no source configured")}
		s.RecordLoadError(err.Err)
		return nil, err
	}
	items, err := s.loader.Fetch(ctx)
	if err == nil {
		err = s.Replace(items)
	}
	if err != nil {
		s.RecordLoadError(err)
		return nil, &LoadError{Err: err}
	}
	return product.Clone(items), nil
}

// Replace installs an already fetched collection. A collection with a
// missing or repeated id is rejected and the current one kept.
func (s *Store) Replace(items []product.Product) error {
	if err := checkIDs(items); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.snapshot.Products = product.Clone(items)
	s.snapshot.Loaded = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	out := product.Clone(s.snapshot.Products)
	s.mu.Unlock()

	s.emit(out)
	return nil
}

// RecordLoadError notes a failed fetch without touching the collection.
func (s *Store) RecordLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
}

// Create assigns the next id to draft and appends it.
func (s *Store) Create(draft product.Product) (product.Product, error) {
	if err := draft.Validate(); err != nil {
		return product.Product{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := 1
	for _, p := range s.snapshot.Products {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	draft.ID = next
	s.snapshot.Products = append(s.snapshot.Products, draft)
	out := product.Clone(s.snapshot.Products)
	s.mu.Unlock()

	s.emit(out)
	return draft, nil
}

// Update merges patch into the record with the given id.
func (s *Store) Update(id int, patch product.Patch) (product.Product, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return product.Product{}, &NotFoundError{ID: id}
	}
	updated := s.snapshot.Products[idx].Apply(patch)
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return product.Product{}, err
	}
	s.snapshot.Products[idx] = updated
	out := product.Clone(s.snapshot.Products)
	s.mu.Unlock()

	s.emit(out)
	return updated, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(id int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	s.snapshot.Products = append(s.snapshot.Products[:idx:idx], s.snapshot.Products[idx+1:]...)
	out := product.Clone(s.snapshot.Products)
	s.mu.Unlock()

	s.emit(out)
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return product.Product{}, &NotFoundError{ID: id}
	}
	return s.snapshot.Products[idx], nil
}

// Products returns a copy of the current collection.
func (s *Store) Products() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return product.Clone(s.snapshot.Products)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Products = product.Clone(s.snapshot.Products)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int) int {
	for i, p := range s.snapshot.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func checkIDs(items []product.Product) error {
	seen := make(map[int]struct{}, len(items))
	for i, p := range items {
		if p.ID <= 0 {
			return fmt.Errorf("item %d (%q) has id %d: %w", i, p.Name, p.ID, ErrInvalidID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("item %d (%q) repeats id %d: %w", i, p.Name, p.ID, ErrInvalidID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// emit runs with writeMu held but outside mu, so subscribers may read the
// store but must not write to it.
func (s *Store) emit(items []product.Product) {
	s.subMu.Lock()
	fns := make([]func([]product.Product), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(product.Clone(items))
	}
}
