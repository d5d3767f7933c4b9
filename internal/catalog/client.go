package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const defaultAvatar = "https://api.dicebear.com/7.x/avataaars/svg"

// Client talks to the remote catalog/user REST API. It keeps no state
// between calls and never retries.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	metrics *metrics.UpstreamMetrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(cfg config.CatalogConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{baseURL: base, http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type call struct {
	endpoint    string
	method      string
	path        string
	query       url.Values
	token       string
	body        any
	rawBody     io.Reader
	contentType string
	fallback    string
}

// send executes the call and returns the response for 2xx answers. The
// caller owns the body.
func (c *Client) send(ctx context.Context, in call) (*http.Response, error) {
	target := *c.baseURL
	target.Path = target.Path + in.path
	if len(in.query) > 0 {
		target.RawQuery = in.query.Encode()
	}

	body := in.rawBody
	contentType := in.contentType
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", in.endpoint, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", in.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(in.endpoint, 0, time.Since(started))
		return nil, fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}
	c.metrics.ObserveRequest(in.endpoint, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		fallback := in.fallback
		if fallback == "" {
			fallback = defaultErrorMessage
		}
		return nil, newAPIError(resp.StatusCode, raw, fallback)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, in call, dest any) error {
	resp, err := c.send(ctx, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", in.endpoint, err)
	}
	return nil
}

func (c *Client) ListProducts(ctx context.Context, offset, limit int) ([]Product, error) {
	var out []Product
	q := url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(limit)}}
	err := c.do(ctx, call{endpoint: "products.list", method: http.MethodGet, path: "/products", query: q}, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	var out Product
	if err := c.do(ctx, call{endpoint: "products.get", method: http.MethodGet, path: "/products/" + strconv.Itoa(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, call{endpoint: "categories.list", method: http.MethodGet, path: "/categories"}, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, token string, id int, patch ProductPatch) (*Product, error) {
	var out Product
	in := call{endpoint: "products.update", method: http.MethodPatch, path: "/products/" + strconv.Itoa(id), token: token, body: patch}
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, call{endpoint: "auth.login", method: http.MethodPost, path: "/auth/login", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	var out User
	body := map[string]string{"email": email, "password": password, "name": name, "avatar": defaultAvatar}
	if err := c.do(ctx, call{endpoint: "users.create", method: http.MethodPost, path: "/users", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, call{endpoint: "auth.profile", method: http.MethodGet, path: "/auth/profile", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfileUpdate) (*User, error) {
	var out User
	in := call{endpoint: "auth.profile.update", method: http.MethodPatch, path: "/auth/profile", token: token, body: patch}
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, token string, prefs UserPreferences) (*UserPreferences, error) {
	var out UserPreferences
	in := call{endpoint: "users.preferences", method: http.MethodPatch, path: "/users/preferences", token: token, body: prefs}
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	err := c.do(ctx, call{endpoint: "orders.list", method: http.MethodGet, path: "/orders", token: token}, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int, status string) (*Order, error) {
	var out Order
	in := call{endpoint: "orders.update", method: http.MethodPatch, path: "/orders/" + strconv.Itoa(id), token: token, body: map[string]string{"status": status}}
	if err := c.do(ctx, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
