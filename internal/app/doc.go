// Package app is the composition root for stockgrid.
//
// Run wires the interactive grid:
//
//  1. Load .env, the TOML config and command-line overrides
//  2. Load user preferences (theme, page size)
//  3. Open a file-backed zap logger; the terminal belongs to the UI
//  4. Open the configured product source (file, http or mongo)
//  5. Create the state.Store and the badger key-value store
//  6. Restore the saved search criteria and turn them into the initial filter
//  7. Bind a grid.Controller to the store, writing commits back to the source
//  8. Start the Bubble Tea program, plus optional background reload triggers
//
// Background reloads never touch the store directly. A Refresher on a cron
// schedule and, for file sources, an fsnotify watcher both send
// ui.ReloadMsg into the program so loads are started from the UI loop.
//
// Serve wires the same source and store behind the Gin catalog server with
// Prometheus metrics, running the HTTP listener, the file watcher and the
// shutdown hook in one errgroup.
//
// While loads keep failing the Refresher backs off exponentially (2s base,
// doubled per consecutive failure, capped at 30s) by skipping cron ticks.
package app
