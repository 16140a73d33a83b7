// Package httpsource loads and writes the product collection through the
// catalog HTTP API served by `stockgrid serve`.
//
// # Endpoints
//
//   - GET /api/products: full collection as {"items": [...], "total": n}
//   - PUT /api/products: replace the collection with {"items": [...]}
//
// # Request Handling
//
// Requests go through a resty client that:
//   - uses the caller's context for cancellation
//   - applies a 5 second timeout
//   - sets Accept, User-Agent (stockgrid/0.1) and a fresh X-Request-ID
//
// Any status >= 400 comes back as *APIError carrying the server's message
// and, for validation failures, the per-field messages.
//
// A bare host:port is accepted for the base URL; http:// is assumed and any
// path, query or fragment is dropped.
package httpsource
