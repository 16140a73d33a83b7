// Package ui is the Bubble Tea front end for the product grid.
//
// The root Model owns no product data. It forwards key presses to a
// grid.Controller as intents (page, sort, add, edit, save, remove) and
// redraws from the controller's View after every message. Loads and writes
// run as tea.Cmds so the event loop never blocks on the source; background
// triggers such as the file watcher or the refresh schedule deliver a
// ReloadMsg through tea.Program.Send.
//
// Layout, top to bottom: a header with source and load state, a command bar
// for the current mode, the grid box with its pager, and a status line.
// While a row is open the grid renders it inline as text inputs and lists
// field errors beneath it. The search form opens as a modal and its values
// persist through searchform.Form.
//
// Key bindings live in keys.go and are listed by the ? overlay.
package ui
