package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oahelper-api/internal/platform/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func init() {
	// numeric columns travel as JSON numbers in both directions
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	restPrefix   = "/rest/v1/"
	objectAccept = "application/vnd.pgrst.object+json"
)

type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

// Client talks to the hosted database through its PostgREST interface.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *logrus.Entry
	metrics    *metrics.Metrics
}

func New(cfg Config, log *logrus.Entry, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		metrics:    m,
	}
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusError is a non-2xx answer from the REST interface.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// ErrNoRows is returned by InsertReturning when the representation is empty.
var ErrNoRows = errors.New("supabase: no rows returned")

// Do executes one request. Only transport failures are returned as errors;
// the caller inspects Response.Status.
func (c *Client) Do(ctx context.Context, method, path string, q *Query, body any, headers map[string]string) (*Response, error) {
	url := c.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		url += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	table := strings.TrimPrefix(path, restPrefix)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveSupabase(method, table, false)
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "path": path}).Error("supabase: request failed")
		return nil, fmt.Errorf("supabase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveSupabase(method, table, false)
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
	c.metrics.ObserveSupabase(method, table, out.Success())
	if out.Success() {
		c.log.WithFields(logrus.Fields{"method": method, "path": path, "status": out.Status}).Debug("supabase: OK")
	}
	return out, nil
}

func (c *Client) expect(ctx context.Context, method, path string, q *Query, body any, headers map[string]string) (*Response, error) {
	resp, err := c.Do(ctx, method, path, q, body, headers)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.Status,
			"body":   string(resp.Body),
		}).Warn("supabase: non-2xx")
		return nil, &StatusError{Method: method, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	return resp, nil
}

func withColumns(q *Query) *Query {
	q = q.Clone()
	if q.columns == "" {
		q.columns = "*"
	}
	return q
}

// Select decodes every matching row into dest, which must point to a slice.
func (c *Client) Select(ctx context.Context, table string, q *Query, dest any) error {
	resp, err := c.expect(ctx, http.MethodGet, restPrefix+table, withColumns(q), nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}

// SelectOne asks for a single object. Zero rows (404/406) is reported as
// found=false with a nil error; every other failure is an error.
func (c *Client) SelectOne(ctx context.Context, table string, q *Query, dest any) (bool, error) {
	path := restPrefix + table
	resp, err := c.Do(ctx, http.MethodGet, path, withColumns(q), nil, map[string]string{"Accept": objectAccept})
	if err != nil {
		return false, err
	}
	if resp.Status == http.StatusNotFound || resp.Status == http.StatusNotAcceptable {
		return false, nil
	}
	if !resp.Success() {
		c.log.WithFields(logrus.Fields{"table": table, "status": resp.Status, "body": string(resp.Body)}).Warn("supabase: select failed")
		return false, &StatusError{Method: http.MethodGet, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", table, err)
	}
	return true, nil
}

// Count returns the exact row count, or 0 when the count cannot be obtained.
func (c *Client) Count(ctx context.Context, table string, q *Query) int {
	resp, err := c.Do(ctx, http.MethodGet, restPrefix+table, q, nil, map[string]string{
		"Prefer": "count=exact",
		"Range":  "0-0",
	})
	if err != nil || !resp.Success() {
		return 0
	}
	contentRange := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(contentRange[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

func (c *Client) Insert(ctx context.Context, table string, payload any) error {
	_, err := c.expect(ctx, http.MethodPost, restPrefix+table, nil, payload, map[string]string{"Prefer": "return=minimal"})
	return err
}

// InsertReturning inserts payload and decodes the first returned row into dest.
func (c *Client) InsertReturning(ctx context.Context, table string, payload any, dest any) error {
	resp, err := c.expect(ctx, http.MethodPost, restPrefix+table, nil, payload, map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return err
	}
	return decodeFirst(table, resp.Body, dest)
}

// Upsert inserts or merges on the given conflict columns (primary key when none).
func (c *Client) Upsert(ctx context.Context, table string, payload any, onConflict ...string) error {
	var q *Query
	if len(onConflict) > 0 {
		q = NewQuery().OnConflict(onConflict...)
	}
	_, err := c.expect(ctx, http.MethodPost, restPrefix+table, q, payload, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=representation",
	})
	return err
}

func (c *Client) Patch(ctx context.Context, table string, q *Query, payload any) error {
	_, err := c.expect(ctx, http.MethodPatch, restPrefix+table, q, payload, map[string]string{"Prefer": "return=minimal"})
	return err
}

// PatchReturning decodes the updated rows into dest, which must point to a slice.
func (c *Client) PatchReturning(ctx context.Context, table string, q *Query, payload any, dest any) error {
	resp, err := c.expect(ctx, http.MethodPatch, restPrefix+table, q, payload, map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, table string, q *Query) error {
	_, err := c.expect(ctx, http.MethodDelete, restPrefix+table, q, nil, nil)
	return err
}

// RPC calls a stored procedure. dest may be nil when the result is not needed.
func (c *Client) RPC(ctx context.Context, function string, params any, dest any) error {
	if params == nil {
		params = map[string]any{}
	}
	resp, err := c.expect(ctx, http.MethodPost, restPrefix+"rpc/"+function, nil, params, nil)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return fmt.Errorf("decode rpc %s: %w", function, err)
	}
	return nil
}

func decodeFirst(table string, body []byte, dest any) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}
