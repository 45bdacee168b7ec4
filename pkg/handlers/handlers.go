// Package handlers contains the HTTP handlers of the web application. This
// file holds the Application struct that bundles shared dependencies and the
// catalog endpoints, including the federated all-storefront aggregation.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zchwyng/musadora/pkg/catalog"
	"github.com/zchwyng/musadora/pkg/db"
	"github.com/zchwyng/musadora/pkg/links"
)

// CatalogService is the subset of the platform client the catalog endpoints
// need. It extends the aggregator's contract with text search so fakes can
// stand in during tests.
type CatalogService interface {
	catalog.Service
	Search(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind, term string, limit int) ([]catalog.Item, error)
}

// Application holds the methods for the routes and the dependencies they
// share.
type Application struct {
	Catalog    CatalogService
	Ratings    RatingService
	Library    LibraryService
	Aggregator catalog.Aggregator
	Links      links.Resolvers
	DB         *db.DB
	SignKey    []byte
	Log        *logrus.Logger
}

func (app *Application) logger() *logrus.Logger {
	if app.Log == nil {
		return logrus.StandardLogger()
	}
	return app.Log
}

// StorefrontsJSON lists every storefront identifier known to the platform.
func (app *Application) StorefrontsJSON(w http.ResponseWriter, r *http.Request) {
	stores, err := app.Catalog.Storefronts(r.Context())
	if err != nil {
		app.logger().WithError(err).Error("list storefronts")
		respondJSONError(w, http.StatusBadGateway, "failed to list storefronts")
		return
	}
	respondJSON(w, stores)
}

// CatalogJSON returns one resource collection from a single storefront. The
// storefront and kind query parameters are required.
func (app *Application) CatalogJSON(w http.ResponseWriter, r *http.Request) {
	sf := catalog.Storefront(r.URL.Query().Get("storefront"))
	kind := catalog.ItemKind(r.URL.Query().Get("kind"))
	items, err := app.Catalog.Items(r.Context(), sf, kind)
	if err != nil {
		app.respondCatalogError(w, err)
		return
	}
	respondJSON(w, items)
}

// aggregateResponse is the JSON shape of a federated aggregation call.
type aggregateResponse struct {
	State    string          `json:"state"`
	Items    []catalog.Item  `json:"items"`
	Failures []failureDetail `json:"failures,omitempty"`
}

type failureDetail struct {
	Storefront catalog.Storefront `json:"storefront"`
	Error      string             `json:"error"`
}

// AggregateJSON fans one catalog request out across every storefront and
// returns the merged result. Query parameters: kind (required), limit and
// policy ("best-effort" or "fail-fast") override the configured defaults.
func (app *Application) AggregateJSON(w http.ResponseWriter, r *http.Request) {
	kind := catalog.ItemKind(r.URL.Query().Get("kind"))
	agg := app.Aggregator
	if agg.Service == nil {
		agg.Service = app.Catalog
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			agg.Limit = n
		}
	}
	switch r.URL.Query().Get("policy") {
	case "fail-fast":
		agg.Policy = catalog.FailFast
	case "best-effort":
		agg.Policy = catalog.BestEffort
	}
	if agg.Log == nil {
		agg.Log = app.logger()
	}

	start := time.Now()
	res, err := agg.Aggregate(r.Context(), kind)
	observeAggregation(kind, res, time.Since(start))
	if err != nil {
		app.logger().WithFields(logrus.Fields{
			"kind":  kind,
			"state": res.State.String(),
		}).WithError(err).Error("aggregate catalog")
		app.respondCatalogError(w, err)
		return
	}
	out := aggregateResponse{State: res.State.String(), Items: res.Items}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureDetail{Storefront: f.Storefront, Error: f.Err.Error()})
	}
	respondJSON(w, out)
}

// SearchJSON queries one storefront's catalog by term.
func (app *Application) SearchJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sf := catalog.Storefront(q.Get("storefront"))
	kind := catalog.ItemKind(q.Get("kind"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	items, err := app.Catalog.Search(r.Context(), sf, kind, q.Get("term"), limit)
	if err != nil {
		app.respondCatalogError(w, err)
		return
	}
	respondJSON(w, items)
}

// LinksJSON resolves a track on the configured external providers.
func (app *Application) LinksJSON(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	matches, err := app.Links.FindAll(r.Context(), name, r.URL.Query().Get("artist"))
	if err != nil {
		app.logger().WithError(err).Error("resolve links")
		respondJSONError(w, http.StatusBadGateway, "all providers failed")
		return
	}
	if matches == nil {
		matches = []links.Match{}
	}
	respondJSON(w, matches)
}

// respondCatalogError maps the error taxonomy onto HTTP statuses. Config
// defects are the caller's fault, an upstream 404 means the resource does not
// exist (an unrated item, for instance) and everything else is an upstream
// problem.
func (app *Application) respondCatalogError(w http.ResponseWriter, err error) {
	var (
		ce  *catalog.ConfigError
		te  *catalog.TimeoutError
		tre *catalog.TransportError
	)
	switch {
	case errors.As(err, &ce):
		respondJSONError(w, http.StatusBadRequest, ce.Error())
	case errors.As(err, &te):
		respondJSONError(w, http.StatusGatewayTimeout, te.Error())
	case errors.As(err, &tre) && tre.Status == http.StatusNotFound:
		respondJSONError(w, http.StatusNotFound, tre.Error())
	default:
		respondJSONError(w, http.StatusBadGateway, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
