package httpsource

import "github.com/five82/stockgrid/internal/product"

// ListResponse mirrors GET /api/products.
type ListResponse struct {
	Items []product.Product `json:"items"`
	Total int               `json:"total"`
}

// ReplaceRequest is the body of PUT /api/products.
type ReplaceRequest struct {
	Items []product.Product `json:"items"`
}

// ErrorResponse is the error body the catalog API returns for 4xx/5xx.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
