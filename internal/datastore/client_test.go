package datastore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/orderitems"
	"storefront/internal/storage"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.Config {
	return config.Config{
		DatastoreURL:          "https://example.test",
		DatastoreAPIKey:       "test-key",
		DatastoreTable:        "orders",
		DatastoreRateLimitRPS: 1000,
		DatastoreTimeoutMs:    5000,
		DatastorePageSize:     2,
		DatastoreMaxRetries:   3,
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func useTransport(c *Client, fn roundTripFunc) {
	c.http.HTTPClient = &http.Client{Transport: fn}
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 2 * time.Millisecond
}

func TestListOrdersRetriesAndDecodes(t *testing.T) {
	attempt := 0
	client := NewClient(testConfig(), nil)
	useTransport(client, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/rest/v1/orders" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-key" || r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing auth headers: %v", r.Header)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Fatalf("limit=%s", got)
		}
		attempt++
		if attempt == 1 {
			return jsonResponse(http.StatusInternalServerError, `{"message":"boom"}`), nil
		}
		return jsonResponse(http.StatusOK, `[
			{"id": 17, "items": "[{\"name\":\"Red Shirt\",\"price\":\"499\"}]", "total": "998", "status": "paid", "updated_at": "2026-01-01T00:00:00Z"},
			{"id": "o-2", "items": [{"product": {"name": "Shoe"}}], "subtotal": 10, "updated_at": "2026-01-02T00:00:00Z"},
			{"id": null, "items": []}
		]`), nil
	})

	orders, err := client.ListOrders(context.Background(), Page{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
	if len(orders) != 2 {
		t.Fatalf("len=%d", len(orders))
	}
	if orders[0].ID != "17" || orders[0].Total == nil || *orders[0].Total != 998 {
		t.Fatalf("first=%+v", orders[0])
	}
	if _, ok := orders[0].Items.(string); !ok {
		t.Fatalf("string items should stay text, got %T", orders[0].Items)
	}
	items := orderitems.Normalize(orders[1])
	if len(items) != 1 || items[0].ProductName != "Shoe" {
		t.Fatalf("items=%+v", items)
	}
}

func TestListOrdersStatusError(t *testing.T) {
	client := NewClient(testConfig(), nil)
	useTransport(client, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"message":"invalid key"}`), nil
	})

	_, err := client.ListOrders(context.Background(), Page{Limit: 2})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err=%v", err)
	}
}

func TestListOrdersRequiresConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DatastoreAPIKey = ""
	if _, err := NewClient(cfg, nil).ListOrders(context.Background(), Page{}); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestListOrdersWithClientCredentials(t *testing.T) {
	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenCalls++
			if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
				t.Errorf("grant=%q err=%v", r.Form.Get("grant_type"), err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`)
		case "/rest/v1/orders":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				t.Errorf("authorization=%q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"o-1","items":"SKU-1"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.DatastoreURL = srv.URL
	cfg.DatastoreAPIKey = ""
	cfg.DatastoreTokenURL = srv.URL + "/token"
	cfg.DatastoreClientID = "svc"
	cfg.DatastoreClientSecret = "secret"

	client := NewClient(cfg, nil)
	for i := 0; i < 2; i++ {
		orders, err := client.ListOrders(context.Background(), Page{Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		if len(orders) != 1 || orders[0].ID != "o-1" {
			t.Fatalf("orders=%+v", orders)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token fetched %d times", tokenCalls)
	}
}

func TestSyncPagesAndStoresCursor(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	pages := map[string]string{
		"":  `[{"id":"a","items":"SKU-1","updated_at":"2026-01-01T00:00:00Z"},{"id":"b","items":null,"updated_at":"2026-01-03T00:00:00Z"}]`,
		"2": `[{"id":"c","items":{"name":"Cap"},"updated_at":"2026-01-02T00:00:00Z"}]`,
	}
	var seenCursor string
	svc := NewSyncService(db, testConfig(), nil)
	useTransport(svc.client, func(r *http.Request) (*http.Response, error) {
		seenCursor = r.URL.Query().Get("updated_at")
		body, ok := pages[r.URL.Query().Get("offset")]
		if !ok {
			t.Fatalf("unexpected offset %s", r.URL.Query().Get("offset"))
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	count, err := svc.InitialSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("count=%d", count)
	}
	cursor, err := db.GetMetadata(LastSyncKey)
	if err != nil || cursor == nil || *cursor != "2026-01-03T00:00:00Z" {
		t.Fatalf("cursor=%v err=%v", cursor, err)
	}

	capOrder, err := db.MustOrder("c")
	if err != nil {
		t.Fatal(err)
	}
	if items := orderitems.Normalize(capOrder); len(items) != 1 || items[0].ProductName != "Cap" {
		t.Fatalf("items=%+v", items)
	}

	pages[""] = `[]`
	if _, err := svc.IncrementalSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if seenCursor != "gt.2026-01-03T00:00:00Z" {
		t.Fatalf("incremental filter=%q", seenCursor)
	}
}
