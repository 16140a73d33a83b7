// Package grid coordinates the product grid: the view state, the single
// edit session and the store writes behind them.
//
// The controller subscribes to the store and recomputes the visible page
// from the full collection on every emission. Any view-state change (page,
// sort, filter, page size) closes an open draft because the edited row is
// addressed by its position on the page, not by id. An emission that moves
// a different record into the edited row closes the draft as well.
//
// Save and Remove return an Outcome. NeedsReload means the store reported the
// target record as gone and the caller should reload from the source.
// PersistErr means the store accepted the change but writing it back to the
// source failed.
package grid
