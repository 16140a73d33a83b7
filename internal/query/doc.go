// Package query turns a record collection and a declarative view State into
// the page the grid renders.
//
// Apply runs three steps in a fixed order: filter (Total is counted here),
// stable multi-key sort, then the [Skip, Skip+Take) window. It is pure, so the
// UI can call it on every render and every store emission without caching.
//
// State helpers (NextPage, PrevPage, ToggleSort, WithFilter) return new values
// and never mutate the receiver's slices.
package query
