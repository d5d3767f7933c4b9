package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const adminPrefix = "/admin"

// Stats returns dashboard figures for period (week when empty).
func (c *Client) Stats(ctx context.Context, token, period string) (*AdminStats, error) {
	if strings.TrimSpace(period) == "" {
		period = "week"
	}
	var out AdminStats
	in := c.admin("admin.stats", http.MethodGet, "/stats", token)
	in.query = url.Values{"period": {period}}
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Inventory(ctx context.Context, token string) (*InventoryStats, error) {
	var out InventoryStats
	if err := c.do(ctx, c.admin("admin.inventory", http.MethodGet, "/inventory", token), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Forecasts(ctx context.Context, token string) ([]SalesForecast, error) {
	var out []SalesForecast
	err := c.do(ctx, c.admin("admin.forecasts", http.MethodGet, "/forecasts", token), &out)
	return out, err
}

func (c *Client) CustomerSegments(ctx context.Context, token string) ([]CustomerSegment, error) {
	var out []CustomerSegment
	err := c.do(ctx, c.admin("admin.segments", http.MethodGet, "/customer-segments", token), &out)
	return out, err
}

func (c *Client) BatchUpdateProducts(ctx context.Context, token string, updates []BatchUpdate) ([]Product, error) {
	var out []Product
	in := c.admin("admin.products.batch", http.MethodPatch, "/products/batch", token)
	in.body = map[string]any{"updates": updates}
	err := c.do(ctx, in, &out)
	return out, err
}

func (c *Client) BatchUpdateOrders(ctx context.Context, token string, updates []BatchUpdate) ([]Order, error) {
	var out []Order
	in := c.admin("admin.orders.batch", http.MethodPatch, "/orders/batch", token)
	in.body = map[string]any{"updates": updates}
	err := c.do(ctx, in, &out)
	return out, err
}

// ImportProducts uploads a product file as the multipart field "file".
func (c *Client) ImportProducts(ctx context.Context, token, filename string, file io.Reader) (*ImportResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build import form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close import form: %w", err)
	}

	var out ImportResult
	in := c.admin("admin.products.import", http.MethodPost, "/products/import", token)
	in.rawBody = &buf
	in.contentType = form.FormDataContentType()
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportProducts streams the export file. The caller closes the body.
func (c *Client) ExportProducts(ctx context.Context, token string, filters ExportFilters) (io.ReadCloser, string, error) {
	in := c.admin("admin.products.export", http.MethodGet, "/products/export", token)
	in.query = filters.values()
	resp, err := c.send(ctx, in)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) admin(endpoint, method, path, token string) call {
	return call{endpoint: endpoint, method: method, path: adminPrefix + path, token: token, fallback: adminErrorMessage}
}

func (f ExportFilters) values() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinStock != nil {
		q.Set("minStock", strconv.Itoa(*f.MinStock))
	}
	if f.MaxStock != nil {
		q.Set("maxStock", strconv.Itoa(*f.MaxStock))
	}
	if f.DateFrom != "" {
		q.Set("dateFrom", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("dateTo", f.DateTo)
	}
	return q
}
