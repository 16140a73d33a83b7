// Package state owns the authoritative product collection for stockgrid.
//
// # Overview
//
// Store is the single source of truth that both the terminal editor and the
// catalog server mutate. It is populated by a bulk Load from a Loader (HTTP,
// file or MongoDB source) and changed by Create, Update and Delete.
//
//	Loader ──Fetch──→ Store.Load ──┐
//	                               ├─→ emit(full collection) ─→ subscribers
//	Create / Update / Delete ──────┘                            (grid controller)
//
// # Emission
//
// Every successful mutation re-emits the entire collection, never a diff.
// Consumers recompute their visible page from scratch, which keeps them free
// of incremental-update bookkeeping. Subscribers are called outside the data
// lock, in subscription order, each with its own copy. Writes are serialized
// with their emission, so a subscriber never sees an older collection after a
// newer one. A subscriber may read the store but must not write to it.
//
// # Load Semantics
//
//	// Success: replace the collection
//	store.Load(ctx)
//	→ snapshot.Products = fetched
//	→ snapshot.LastError = nil, ConsecutiveFailures = 0
//
//	// Failure: keep old data, record error
//	→ snapshot.Products = <unchanged>
//	→ snapshot.LastError = err, ConsecutiveFailures++
//	→ returns *LoadError
//
// A fetched collection must carry positive, unique ids; otherwise Load fails
// with a *LoadError wrapping ErrInvalidID and the old collection stays.
// Retrying is the caller's job.
//
// # Errors
//
//   - *NotFoundError: Update/Delete on an id that is gone (matches ErrNotFound)
//   - *LoadError: the source failed; wraps the cause
//   - *product.ValidationError: Create/Update with a record that breaks field rules
//
// # Concurrency
//
// Store is guarded by a sync.RWMutex because `stockgrid serve` mutates it from
// concurrent HTTP handlers. Snapshot and Products return defensive copies.
// The zero value is ready to use.
package state
