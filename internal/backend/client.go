// Package backend wraps the hosted relational and identity service behind
// typed Go calls. Response shapes are decoded at this boundary: a call either
// returns the payload or a typed error, never a half-populated object.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"smashtrack/internal/config"
	"smashtrack/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Rows is the relational half of the backend: filtered reads and single
// atomic writes against named tables, plus server-side functions.
type Rows interface {
	Select(ctx context.Context, table string, q *Query, out any) error
	Insert(ctx context.Context, table string, payload any, out any) error
	Update(ctx context.Context, table string, patch map[string]any, q *Query) error
	Delete(ctx context.Context, table string, q *Query) error
	Rpc(ctx context.Context, fn string, params map[string]any, out any) error
}

// Client is the process-wide handle to the hosted backend. It is constructed
// once, holds no mutable state after construction, and is safe to share.
type Client struct {
	baseURL string
	key     string
	http    *fasthttp.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BackendURL,
		key:     cfg.BackendKey,
		logger:  logger,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *Client) Select(ctx context.Context, table string, q *Query, out any) error {
	return c.rows(ctx, fasthttp.MethodGet, table, q, nil, "", out)
}

// Insert writes one row and decodes the created representation into out.
func (c *Client) Insert(ctx context.Context, table string, payload any, out any) error {
	return c.rows(ctx, fasthttp.MethodPost, table, nil, payload, "return=representation", out)
}

func (c *Client) Update(ctx context.Context, table string, patch map[string]any, q *Query) error {
	return c.rows(ctx, fasthttp.MethodPatch, table, q, patch, "return=minimal", nil)
}

func (c *Client) Delete(ctx context.Context, table string, q *Query) error {
	return c.rows(ctx, fasthttp.MethodDelete, table, q, nil, "return=minimal", nil)
}

func (c *Client) Rpc(ctx context.Context, fn string, params map[string]any, out any) error {
	path := "/rest/v1/rpc/" + fn
	if params == nil {
		params = map[string]any{}
	}
	return c.request(ctx, fasthttp.MethodPost, path, nil, params, "", restError, out)
}

func (c *Client) rows(ctx context.Context, method, table string, q *Query, body any, prefer string, out any) error {
	path := "/rest/v1/" + table
	var query url.Values
	if q != nil {
		query = q.values()
	}
	return c.request(ctx, method, path, query, body, prefer, restError, out)
}

// request performs one round trip. The access token, when set, replaces the
// service key as the bearer so the backend evaluates row ownership as that
// user; the api key header always carries the service key.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, prefer string, decodeErr func(status int, body []byte) error, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if tok, ok := accessTokenFrom(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(encoded)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			return fmt.Errorf("backend request failed: %w", err)
		}
	} else {
		if err := c.http.Do(req, resp); err != nil {
			return fmt.Errorf("backend request failed: %w", err)
		}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		c.logger.Debug().Int("status", status).Str("method", method).Str("path", path).Msg("backend rejected request")
		return decodeErr(status, resp.Body())
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

type restErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

func restError(status int, body []byte) error {
	var parsed restErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		return &domain.PersistenceError{Status: status, Message: string(body)}
	}
	return &domain.PersistenceError{Status: status, Code: parsed.Code, Message: parsed.Message}
}

type tokenKey struct{}

// WithAccessToken scopes subsequent backend calls on this context to the
// given user session instead of the service key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func accessTokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}

// Query builds the filter portion of a rows request. Only exact-match
// filters, ordering and a limit are needed here.
type Query struct {
	filters [][2]string
	order   string
	limit   int
}

func NewQuery() *Query {
	return &Query{}
}

// Eq adds an exact-match filter on a column.
func (q *Query) Eq(column, value string) *Query {
	q.filters = append(q.filters, [2]string{column, value})
	return q
}

// OrderDesc sorts the result newest-first on the column.
func (q *Query) OrderDesc(column string) *Query {
	q.order = column + ".desc"
	return q
}

func (q *Query) OrderAsc(column string) *Query {
	q.order = column + ".asc"
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) values() url.Values {
	v := url.Values{}
	v.Set("select", "*")
	for _, f := range q.filters {
		v.Set(f[0], "eq."+f[1])
	}
	if q.order != "" {
		v.Set("order", q.order)
	}
	if q.limit > 0 {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v
}
