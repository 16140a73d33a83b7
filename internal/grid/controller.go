package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/stockgrid/internal/edit"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/query"
	"github.com/five82/stockgrid/internal/state"
)

// ErrRowOutOfRange is returned for a row index outside the current page.
var ErrRowOutOfRange = errors.New("row is not on the current page")

// ErrNoSession is returned by draft operations while no row is open.
var ErrNoSession = edit.ErrNoSession

// Store is the slice of state.Store the controller drives.
type Store interface {
	Products() []product.Product
	Subscribe(fn func([]product.Product)) (cancel func())
	Create(draft product.Product) (product.Product, error)
	Update(id int, patch product.Patch) (product.Product, error)
	Delete(id int) error
}

// Persister writes the whole collection back to its source after a commit.
type Persister interface {
	Save(ctx context.Context, items []product.Product) error
}

// Outcome describes side effects of Save and Remove the caller must act on.
type Outcome struct {
	Record      product.Product
	NeedsReload bool
	PersistErr  error
}

// View is everything the renderer needs for one frame.
type View struct {
	State   query.State
	Result  query.Result
	Session edit.Session
}

// Controller turns user intents into session transitions and store writes,
// and keeps the rendered page in sync with the store.
type Controller struct {
	store     Store
	persister Persister
	logger    *zap.Logger

	mu      sync.Mutex
	records []product.Product
	state   query.State
	result  query.Result
	session edit.Session

	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPersister writes the collection back after every committed change.
func WithPersister(p Persister) Option {
	return func(c *Controller) { c.persister = p }
}

// New binds a controller to store, starting from initial.
func New(store Store, initial query.State, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: zap.NewNop(),
		state:  initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.records = store.Products()
	c.result = query.Apply(c.records, c.state)
	c.unsubscribe = store.Subscribe(c.onEmit)
	return c
}

// Close detaches from the store.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// View returns the current state, page and session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{State: c.state, Result: c.result, Session: c.session}
}

// Session returns the current edit session.
func (c *Controller) Session() edit.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetViewState replaces the view state. Any open session is closed because
// its row index is relative to the page being replaced.
func (c *Controller) SetViewState(next query.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(next)
}

// NextPage moves to the following page if there is one.
func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(c.state.NextPage(c.result.Total))
}

// PrevPage moves to the previous page if there is one.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(c.state.PrevPage())
}

// ToggleSort cycles the sort on field.
func (c *Controller) ToggleSort(field product.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(c.state.ToggleSort(field))
}

// SetFilter replaces the filter and returns to the first page.
func (c *Controller) SetFilter(f *query.CompositeFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(c.state.WithFilter(f))
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(take int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(c.state.WithPageSize(take))
}

// Add opens a new-record draft, discarding any open one.
func (c *Controller) Add() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked("add")
	c.session = c.session.Add()
}

// Edit opens row of the current page, discarding any open draft.
func (c *Controller) Edit(row int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row < 0 || row >= len(c.result.Page) {
		return fmt.Errorf("edit row %d of %d: %w", row, len(c.result.Page), ErrRowOutOfRange)
	}
	c.discardLocked("edit")
	c.session = c.session.Edit(row, c.result.Page[row])
	return nil
}

// SetField updates one draft field from form text.
func (c *Controller) SetField(field product.Field, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.session.WithField(field, raw)
	c.session = next
	return err
}

// ToggleDiscontinued flips the draft's discontinued flag.
func (c *Controller) ToggleDiscontinued() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.session.ToggleDiscontinued()
	c.session = next
	return err
}

// Cancel drops the open draft without writing anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = c.session.Cancel()
}

// Save validates the draft and writes it. A validation failure keeps the
// session open with field errors. A stale record closes the session and asks
// the caller to reload.
func (c *Controller) Save(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	rec, checked, err := c.session.Commit()
	c.session = checked
	adding := checked.Mode() == edit.Adding
	c.mu.Unlock()
	if err != nil {
		return Outcome{}, err
	}

	// The store emits synchronously into onEmit, so mu must not be held here.
	var saved product.Product
	if adding {
		saved, err = c.store.Create(rec)
	} else {
		saved, err = c.store.Update(rec.ID, product.PatchFrom(rec))
	}

	// Another intent may have replaced the session while the store was
	// written. Only the committed one is closed or annotated.
	c.mu.Lock()
	current := sameSession(c.session, checked)
	if err != nil {
		var nf *state.NotFoundError
		switch {
		case errors.As(err, &nf):
			c.logger.Warn("save target no longer exists", zap.Int("id", nf.ID))
			if current {
				c.session = c.session.Cancel()
			}
			c.mu.Unlock()
			return Outcome{NeedsReload: true}, err
		case product.FieldErrors(err) != nil && current:
			c.session = c.session.WithErrors(product.FieldErrors(err))
		}
		c.mu.Unlock()
		return Outcome{}, err
	}
	if current {
		c.session = c.session.Cancel()
	}
	c.mu.Unlock()

	if adding {
		c.logger.Info("product created", zap.Int("id", saved.ID), zap.String("name", saved.Name))
	} else {
		c.logger.Info("product updated", zap.Int("id", saved.ID))
	}
	return Outcome{Record: saved, PersistErr: c.persist(ctx)}, nil
}

// Remove deletes the record shown at row. Removal does not depend on the edit
// session, but removing the row under edit closes it.
func (c *Controller) Remove(ctx context.Context, row int) (Outcome, error) {
	c.mu.Lock()
	if row < 0 || row >= len(c.result.Page) {
		n := len(c.result.Page)
		c.mu.Unlock()
		return Outcome{}, fmt.Errorf("remove row %d of %d: %w", row, n, ErrRowOutOfRange)
	}
	target := c.result.Page[row]
	if c.session.IsEditing(row) {
		c.session = c.session.Cancel()
	}
	c.mu.Unlock()

	if err := c.store.Delete(target.ID); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			c.logger.Warn("remove target no longer exists", zap.Int("id", target.ID))
			return Outcome{Record: target, NeedsReload: true}, err
		}
		return Outcome{}, err
	}
	c.logger.Info("product removed", zap.Int("id", target.ID))
	return Outcome{Record: target, PersistErr: c.persist(ctx)}, nil
}

// Refresh recomputes the page from the store without an emission.
func (c *Controller) Refresh() {
	c.onEmit(c.store.Products())
}

func (c *Controller) persist(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	if err := c.persister.Save(ctx, c.store.Products()); err != nil {
		c.logger.Warn("write back failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *Controller) onEmit(items []product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = items
	c.result = query.Apply(c.records, c.state)
	c.revalidateLocked()
}

func (c *Controller) setStateLocked(next query.State) {
	if next.Equal(c.state) {
		return
	}
	if c.session.Active() {
		c.logger.Debug("view changed, closing edit", zap.Stringer("mode", c.session.Mode()))
		c.session = c.session.Cancel()
	}
	c.state = next
	c.result = query.Apply(c.records, c.state)
}

// revalidateLocked closes an edit whose row no longer shows the record the
// draft was opened from.
func (c *Controller) revalidateLocked() {
	row, ok := c.session.Row()
	if !ok {
		return
	}
	if row >= len(c.result.Page) || c.result.Page[row].ID != c.session.Draft().ID {
		c.logger.Debug("edited row left the page, closing edit", zap.Int("row", row))
		c.session = c.session.Cancel()
	}
}

func sameSession(a, b edit.Session) bool {
	if a.Mode() != b.Mode() || a.Draft() != b.Draft() {
		return false
	}
	ra, _ := a.Row()
	rb, _ := b.Row()
	return ra == rb
}

func (c *Controller) discardLocked(reason string) {
	if c.session.Active() {
		c.logger.Debug("discarding open draft", zap.String("reason", reason), zap.Stringer("mode", c.session.Mode()))
	}
}
