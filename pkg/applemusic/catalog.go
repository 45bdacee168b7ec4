// Catalog endpoints: per-storefront resource listings, point lookups by ID
// and text search. Items is the fetcher the federated aggregator fans out
// with, so its validation errors must come back as ConfigError rather than a
// failed request.
package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zchwyng/musadora/pkg/catalog"
)

var errEmptyData = errors.New("empty data array")

func catalogPath(sf catalog.Storefront, kind catalog.ItemKind) (string, error) {
	if !validStorefront(sf) {
		return "", &catalog.ConfigError{Op: "catalog", Detail: "invalid storefront " + string(sf)}
	}
	if !kind.Valid() {
		return "", &catalog.ConfigError{Op: "catalog", Detail: "unknown item kind " + string(kind)}
	}
	return "/v1/catalog/" + string(sf) + "/" + string(kind), nil
}

// Items fetches one resource collection scoped to a single storefront,
// following pagination to the end. Together with Storefronts it satisfies
// catalog.Service.
func (c *Client) Items(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind) ([]catalog.Item, error) {
	path, err := catalogPath(sf, kind)
	if err != nil {
		return nil, err
	}
	resources, err := c.getPaged(ctx, path, url.Values{"limit": {"100"}})
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(resources))
	for i, r := range resources {
		items[i] = r.item()
	}
	return items, nil
}

// ByIDs fetches specific catalog resources by their identifiers. The result
// preserves the API's response order, which may differ from the input order.
func (c *Client) ByIDs(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind, ids ...string) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return nil, &catalog.ConfigError{Op: "byIDs", Detail: "at least one id required"}
	}
	path, err := catalogPath(sf, kind)
	if err != nil {
		return nil, err
	}
	resources, err := c.getPaged(ctx, path, url.Values{"ids": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(resources))
	for i, r := range resources {
		items[i] = r.item()
	}
	return items, nil
}

// Search queries the storefront catalog for term, restricted to the given
// resource kind. Up to limit results are returned; limit defaults to 5 and is
// capped at 25 by the API.
func (c *Client) Search(ctx context.Context, sf catalog.Storefront, kind catalog.ItemKind, term string, limit int) ([]catalog.Item, error) {
	if term == "" {
		return nil, &catalog.ConfigError{Op: "search", Detail: "empty search term"}
	}
	if !validStorefront(sf) {
		return nil, &catalog.ConfigError{Op: "search", Detail: "invalid storefront " + string(sf)}
	}
	if !kind.Valid() {
		return nil, &catalog.ConfigError{Op: "search", Detail: "unknown item kind " + string(kind)}
	}
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{
		"term":  {term},
		"types": {string(kind)},
		"limit": {strconv.Itoa(limit)},
	}
	resp, err := c.do(ctx, http.MethodGet, "/v1/catalog/"+string(sf)+"/search", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// Search nests one page per requested type under "results".
	var body struct {
		Results map[string]page `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &catalog.DecodeError{Err: err}
	}
	var items []catalog.Item
	for _, r := range body.Results[string(kind)].Data {
		items = append(items, r.item())
	}
	return items, nil
}
