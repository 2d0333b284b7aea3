// Package datastore reads order rows from the hosted datastore's REST
// endpoint (PostgREST conventions) and mirrors them into local storage.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"

	"storefront/internal"
	"storefront/internal/config"
	"storefront/internal/util"
)

// StatusError captures non-2xx responses from the datastore.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

type Client struct {
	cfg     config.Config
	http    *retryablehttp.Client
	limiter *RateLimiter
}

// Page selects a window of rows ordered by updated_at, id.
type Page struct {
	Limit        int
	Offset       int
	UpdatedAfter string
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	limiter := NewRateLimiter(cfg.DatastoreRateLimitRPS)

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: time.Duration(cfg.DatastoreTimeoutMs) * time.Millisecond}
	if usesOAuth(cfg) {
		rc.HTTPClient = oauthHTTPClient(cfg)
	}
	rc.RetryMax = cfg.DatastoreMaxRetries
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 4 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	rc.PrepareRetry = func(req *http.Request) error {
		return limiter.Wait(req.Context())
	}

	return &Client{cfg: cfg, http: rc, limiter: limiter}
}

func usesOAuth(cfg config.Config) bool {
	return strings.TrimSpace(cfg.DatastoreTokenURL) != ""
}

// oauthHTTPClient fetches and refreshes a client-credentials token; it
// replaces the API key as bearer on every request.
func oauthHTTPClient(cfg config.Config) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.DatastoreClientID,
		ClientSecret: cfg.DatastoreClientSecret,
		TokenURL:     cfg.DatastoreTokenURL,
	}
	hc := cc.Client(context.Background())
	hc.Timeout = time.Duration(cfg.DatastoreTimeoutMs) * time.Millisecond
	return hc
}

func (c *Client) ListOrders(ctx context.Context, page Page) ([]internal.OrderRecord, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "updated_at.asc,id.asc")
	if page.Limit > 0 {
		params.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		params.Set("offset", strconv.Itoa(page.Offset))
	}
	if strings.TrimSpace(page.UpdatedAfter) != "" {
		params.Set("updated_at", "gt."+page.UpdatedAfter)
	}

	body, err := c.fetchJSON(ctx, "list orders", c.cfg.DatastoreTable, params)
	if err != nil {
		return nil, err
	}
	return decodeOrders(body)
}

func (c *Client) fetchJSON(ctx context.Context, operation, table string, params url.Values) ([]byte, error) {
	if strings.TrimSpace(c.cfg.DatastoreURL) == "" {
		return nil, errors.New("missing DATASTORE_URL")
	}
	if strings.TrimSpace(c.cfg.DatastoreAPIKey) == "" && !usesOAuth(c.cfg) {
		return nil, errors.New("missing DATASTORE_API_KEY")
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.DatastoreURL, "/") + "/rest/v1/" + url.PathEscape(table))
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.DatastoreAPIKey != "" {
		req.Header.Set("apikey", c.cfg.DatastoreAPIKey)
	}
	if !usesOAuth(c.cfg) {
		req.Header.Set("Authorization", "Bearer "+c.cfg.DatastoreAPIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func decodeOrders(body []byte) ([]internal.OrderRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("datastore returned invalid JSON")
	}
	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("datastore returned %s, want an array of rows", rows.Type)
	}

	out := make([]internal.OrderRecord, 0, len(rows.Array()))
	rows.ForEach(func(_, row gjson.Result) bool {
		if o, ok := toOrderRecord(row); ok {
			out = append(out, o)
		}
		return true
	})
	return out, nil
}

// toOrderRecord keeps items exactly as the row carried it; normalization
// happens later, on read.
func toOrderRecord(row gjson.Result) (internal.OrderRecord, bool) {
	id := strings.TrimSpace(row.Get("id").String())
	if id == "" {
		return internal.OrderRecord{}, false
	}

	o := internal.OrderRecord{
		ID:            id,
		Subtotal:      floatField(row.Get("subtotal")),
		Total:         floatField(row.Get("total")),
		Status:        row.Get("status").String(),
		CustomerName:  row.Get("customer_name").String(),
		CustomerEmail: row.Get("customer_email").String(),
		CustomerPhone: row.Get("customer_phone").String(),
		CreatedAt:     row.Get("created_at").String(),
		UpdatedAt:     row.Get("updated_at").String(),
	}
	if items := row.Get("items"); items.Exists() && items.Type != gjson.Null {
		o.Items = util.JSONValue(items)
	}
	return o, true
}

func floatField(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		return util.FloatPtr(r.Float())
	case gjson.String:
		if f, ok := util.ParseNumber(r.Str); ok {
			return util.FloatPtr(f)
		}
	}
	return nil
}
