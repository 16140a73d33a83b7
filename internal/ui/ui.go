package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/five82/stockgrid/internal/edit"
	"github.com/five82/stockgrid/internal/grid"
	"github.com/five82/stockgrid/internal/prefs"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/searchform"
	"github.com/five82/stockgrid/internal/state"
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Controller  *grid.Controller
	Store       *state.Store
	Form        *searchform.Form
	Criteria    searchform.Criteria
	Prefs       prefs.Prefs
	PrefsPath   string
	SourceLabel string
	LogPath     string
	Logger      *zap.Logger
}

// Model is the root Bubble Tea model for the product grid.
type Model struct {
	// Configuration
	ctx         context.Context
	ctrl        *grid.Controller
	store       *state.Store
	form        *searchform.Form
	prefs       prefs.Prefs
	prefsPath   string
	sourceLabel string
	logPath     string
	logger      *zap.Logger
	keys        keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state, refreshed from the controller after every message
	view        grid.View
	snapshot    state.Snapshot
	selectedRow int
	loading     bool
	busy        bool

	editor   editor
	criteria searchform.Criteria

	showHelp bool
	modal    Modal

	status        status
	reloadLimiter *rate.Limiter
}

// New creates the grid model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	form := opts.Form
	if form == nil {
		form = searchform.New(nil)
	}

	m := Model{
		ctx:           ctx,
		ctrl:          opts.Controller,
		store:         opts.Store,
		form:          form,
		prefs:         opts.Prefs,
		prefsPath:     opts.PrefsPath,
		sourceLabel:   opts.SourceLabel,
		logPath:       opts.LogPath,
		logger:        logger,
		keys:          DefaultKeyMap(),
		theme:         GetTheme(opts.Prefs.Theme),
		criteria:      opts.Criteria,
		reloadLimiter: rate.NewLimiter(rate.Every(ReloadThrottle), 1),
	}
	m.refresh()
	return m
}

// Messages

// ReloadMsg asks the model to reload the collection from its source.
// Background triggers send it through tea.Program.Send.
type ReloadMsg struct{}

type loadedMsg struct {
	count int
	err   error
}

type savedMsg struct {
	outcome grid.Outcome
	err     error
}

type removedMsg struct {
	outcome grid.Outcome
	err     error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return ReloadMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReloadMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, loadCmd(m.ctx, m.store)

	case loadedMsg:
		m.loading = false
		m.refresh()
		m.settlePage()
		if msg.err != nil {
			m.logger.Warn("load failed", zap.Error(msg.err))
			m.status = errorStatus("Load failed: " + rootCause(msg.err))
		} else {
			m.status = infoStatus(fmt.Sprintf("Loaded %d products", msg.count))
		}
		return m, nil

	case savedMsg:
		m.busy = false
		m.refresh()
		m.settlePage()
		return m, m.handleWrite("Saved", msg.outcome, msg.err)

	case removedMsg:
		m.busy = false
		m.refresh()
		m.settlePage()
		return m, m.handleWrite("Removed", msg.outcome, msg.err)

	case searchSubmitMsg:
		return m.applySearch(msg.criteria)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey routes a key to the overlay, the open editor or the grid.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if m.view.Session.Active() {
		return m.handleEditKey(msg)
	}
	return m.handleGridKey(msg)
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := len(m.view.Result.Page)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()

	case key.Matches(msg, m.keys.Reload):
		return m.Update(ReloadMsg{})

	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < rows-1 {
			m.selectedRow++
		}

	case key.Matches(msg, m.keys.PrevPage):
		m.ctrl.PrevPage()
		m.selectedRow = 0

	case key.Matches(msg, m.keys.NextPage):
		m.ctrl.NextPage()
		m.selectedRow = 0

	case key.Matches(msg, m.keys.Bigger):
		m.resizePage(1)

	case key.Matches(msg, m.keys.Smaller):
		m.resizePage(-1)

	case key.Matches(msg, m.keys.SortColumn):
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(product.Fields) {
			m.ctrl.ToggleSort(product.Fields[idx])
			m.selectedRow = 0
		}

	case key.Matches(msg, m.keys.Add):
		m.ctrl.Add()
		m.status = status{}

	case key.Matches(msg, m.keys.Edit):
		if rows == 0 {
			return m, nil
		}
		if err := m.ctrl.Edit(m.selectedRow); err != nil {
			m.status = errorStatus(err.Error())
		} else {
			m.status = status{}
		}

	case key.Matches(msg, m.keys.Remove):
		if rows == 0 || m.busy {
			return m, nil
		}
		m.busy = true
		m.refresh()
		return m, removeCmd(m.ctx, m.ctrl, m.selectedRow)

	case key.Matches(msg, m.keys.Search):
		m.modal = newSearchModal(m.criteria)

	case key.Matches(msg, m.keys.Logs):
		if m.logPath == "" {
			m.status = warnStatus("Logging to stderr, no log file to show")
			return m, nil
		}
		m.modal = newLogModal(m.logPath)

	case key.Matches(msg, m.keys.ClearSearch):
		if m.criteria.IsZero() {
			return m, nil
		}
		return m.applySearch(searchform.Criteria{})
	}

	m.refresh()
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.status = infoStatus("Edit cancelled")
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		m.busy = true
		return m, saveCmd(m.ctx, m.ctrl)

	case key.Matches(msg, m.keys.NextField):
		m.editor.next()
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.editor.prev()
		return m, nil
	}

	if m.editor.focused() == product.FieldDiscontinued {
		if key.Matches(msg, m.keys.Toggle) || msg.String() == "x" {
			if err := m.ctrl.ToggleDiscontinued(); err != nil && !errors.Is(err, edit.ErrNoSession) {
				m.status = errorStatus(err.Error())
			}
			m.refresh()
		}
		return m, nil
	}

	field, value, changed, cmd := m.editor.update(msg)
	if changed {
		// Parse failures are recorded on the session as field errors.
		if err := m.ctrl.SetField(field, value); errors.Is(err, edit.ErrNoSession) {
			m.logger.Debug("field change without open session", zap.String("field", string(field)))
		}
		m.refresh()
	}
	return m, cmd
}

// handleWrite reports the outcome of a save or remove.
func (m *Model) handleWrite(verb string, out grid.Outcome, err error) tea.Cmd {
	switch {
	case err == nil && out.PersistErr != nil:
		m.status = warnStatus(fmt.Sprintf("%s %s, but write-back failed: %s", verb, out.Record.Name, rootCause(out.PersistErr)))
	case err == nil:
		m.status = infoStatus(fmt.Sprintf("%s %s", verb, out.Record.Name))
	case product.FieldErrors(err) != nil:
		m.status = errorStatus("Fix the highlighted fields")
	case out.NeedsReload:
		m.status = warnStatus("Product no longer exists, reloading")
		if m.reloadLimiter.Allow() {
			return func() tea.Msg { return ReloadMsg{} }
		}
	default:
		m.logger.Warn("write failed", zap.String("op", verb), zap.Error(err))
		m.status = errorStatus(rootCause(err))
	}
	return nil
}

func (m Model) applySearch(c searchform.Criteria) (tea.Model, tea.Cmd) {
	filter, err := m.form.Submit(c)
	if err != nil && filter == nil && !c.IsZero() {
		m.status = errorStatus(err.Error())
		return m, nil
	}
	if err != nil {
		m.logger.Warn("search criteria not saved", zap.Error(err))
	}
	m.criteria = c
	m.ctrl.SetFilter(filter)
	m.selectedRow = 0
	if c.IsZero() {
		m.status = infoStatus("Search cleared")
	} else {
		m.status = infoStatus("Search applied")
	}
	m.refresh()
	return m, nil
}

func (m *Model) resizePage(delta int) {
	size := m.view.State.Take + delta
	if size < minPageSize || size > maxPageSize {
		return
	}
	m.ctrl.SetPageSize(size)
	m.selectedRow = 0
	m.prefs.PageSize = size
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", zap.Error(err))
	}
}

// refresh pulls the current page and session from the controller.
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.view = m.ctrl.View()
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if n := len(m.view.Result.Page); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
	if row, ok := m.view.Session.Row(); ok {
		m.selectedRow = row
	}
	m.editor.sync(m.view.Session)
}

// settlePage steps back while the current page is empty but earlier ones
// are not, which happens when the last row of the last page goes away.
// An open draft pins the page since leaving it would discard the draft.
func (m *Model) settlePage() {
	for m.ctrl != nil && len(m.view.Result.Page) == 0 && m.view.State.Skip > 0 && !m.view.Session.Active() {
		skip := m.view.State.Skip
		m.ctrl.PrevPage()
		m.refresh()
		if m.view.State.Skip == skip {
			return
		}
	}
}

// Commands

func loadCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, LoadTimeout)
		defer cancel()
		items, err := store.Load(ctx)
		return loadedMsg{count: len(items), err: err}
	}
}

func saveCmd(ctx context.Context, ctrl *grid.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
		defer cancel()
		out, err := ctrl.Save(ctx)
		return savedMsg{outcome: out, err: err}
	}
}

func removeCmd(ctx context.Context, ctrl *grid.Controller, row int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
		defer cancel()
		out, err := ctrl.Remove(ctx, row)
		return removedMsg{outcome: out, err: err}
	}
}

// rootCause strips wrapping so the status line stays short.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
