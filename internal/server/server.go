// Package server exposes a product store over HTTP for `stockgrid serve`.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/stockgrid/internal/metrics"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/state"
)

const requestIDHeader = "X-Request-ID"

// Persister writes the collection back to its source after a change.
type Persister interface {
	Save(ctx context.Context, items []product.Product) error
}

// Options configures the HTTP handler.
type Options struct {
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Persister Persister
}

// Handler serves the catalog API.
type Handler struct {
	store     *state.Store
	logger    *zap.Logger
	metrics   *metrics.Metrics
	persister Persister
}

// productList and errorBody are the wire shapes shared with httpsource.
type productList struct {
	Items []product.Product `json:"items"`
	Total int               `json:"total"`
}

type replaceBody struct {
	Items []product.Product `json:"items"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// New wires the Gin engine with routes and middlewares.
func New(store *state.Store, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := &Handler{
		store:     store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		persister: opts.Persister,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	h.metrics.SetProducts(len(store.Products()))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(zapLoggerMiddleware(h.logger))
	r.Use(metricsMiddleware(h.metrics))

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api/products")
	api.GET("", h.list)
	api.PUT("", h.replace)
	api.POST("", h.create)
	api.GET("/:id", h.get)
	api.PUT("/:id", h.update)
	api.DELETE("/:id", h.remove)

	h.logger.Info("router initialized")
	return r
}

func (h *Handler) health(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "products": len(snap.Products)})
}

func (h *Handler) list(c *gin.Context) {
	items := h.store.Products()
	if items == nil {
		items = []product.Product{}
	}
	c.JSON(http.StatusOK, productList{Items: items, Total: len(items)})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.store.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) create(c *gin.Context) {
	var p product.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	p.ID = 0
	created, err := h.store.Create(p)
	h.record("create", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.persist(c.Request.Context())
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch product.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	updated, err := h.store.Update(id, patch)
	h.record("update", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.persist(c.Request.Context())
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.store.Delete(id)
	h.record("delete", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.persist(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) replace(c *gin.Context) {
	var body replaceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	for _, p := range body.Items {
		if err := p.Validate(); err != nil {
			h.fail(c, err)
			return
		}
	}
	if err := h.store.Replace(body.Items); err != nil {
		h.record("replace", err)
		if errors.Is(err, state.ErrInvalidID) {
			c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	h.record("replace", nil)
	h.persist(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) record(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
		h.metrics.SetProducts(len(h.store.Products()))
	case errors.Is(err, state.ErrNotFound):
		result = "not_found"
	case product.FieldErrors(err) != nil, errors.Is(err, state.ErrInvalidID):
		result = "invalid"
	default:
		result = "error"
	}
	h.metrics.RecordMutation(op, result)
}

func (h *Handler) persist(ctx context.Context) {
	if h.persister == nil {
		return
	}
	if err := h.persister.Save(ctx, h.store.Products()); err != nil {
		h.logger.Warn("write back failed", zap.Error(err))
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if fields := product.FieldErrors(err); fields != nil {
		out := make(map[string]string, len(fields))
		for f, msg := range fields {
			out[string(f)] = msg
		}
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Fields: out})
		return
	}
	if errors.Is(err, state.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	h.logger.Error("request failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDHeader)))
	c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDHeader)))
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.IncRequestsInFlight()
		defer m.DecRequestsInFlight()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
