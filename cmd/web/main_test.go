package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/zchwyng/musadora/pkg/catalog"
	"github.com/zchwyng/musadora/pkg/db"
	"github.com/zchwyng/musadora/pkg/handlers"
)

// fakeCatalog serves canned storefronts and items so the routed endpoints can
// be exercised without hitting the real API.
type fakeCatalog struct {
	stores []catalog.Storefront
	items  map[catalog.Storefront][]catalog.Item
}

func (f *fakeCatalog) Storefronts(ctx context.Context) ([]catalog.Storefront, error) {
	return f.stores, nil
}

func (f *fakeCatalog) Items(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind) ([]catalog.Item, error) {
	return f.items[sf], nil
}

func (f *fakeCatalog) Search(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind, term string, limit int) ([]catalog.Item, error) {
	return f.items[sf], nil
}

// newServer creates an HTTP server with all routes registered using in-memory
// dependencies.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc := &fakeCatalog{
		stores: []catalog.Storefront{"us", "gb"},
		items: map[catalog.Storefront][]catalog.Item{
			"us": {{ID: "1", Name: "Pop"}},
			"gb": {{ID: "1", Name: "Pop"}, {ID: "2", Name: "Grime"}},
		},
	}
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	log := logrus.New()
	log.SetOutput(io.Discard)
	app := &handlers.Application{
		Catalog: fc,
		DB:      database,
		SignKey: []byte("test-key"),
		Log:     log,
	}
	srv := httptest.NewServer(routes(app, log))
	t.Cleanup(srv.Close)
	return srv
}

// TestAggregateEndpoint exercises the federated aggregation route end to end.
func TestAggregateEndpoint(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/catalog/aggregate?kind=genres")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var body struct {
		State string         `json:"state"`
		Items []catalog.Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.State != "done" || len(body.Items) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

// TestStorefrontsEndpoint verifies routing and the security middleware.
func TestStorefrontsEndpoint(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/storefronts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

// TestMetricsEndpoint ensures the Prometheus handler is mounted.
func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

// TestHistoryRequiresSession rejects anonymous history writes.
func TestHistoryRequiresSession(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Post(srv.URL+"/api/history", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
}
