package applemusic

import (
	"context"
	"net/url"

	"github.com/zchwyng/musadora/pkg/catalog"
)

// Storefronts lists the identifiers of every regional storefront known to the
// platform. It implements the enumerator half of catalog.Service; the
// aggregator calls it exactly once per aggregation.
func (c *Client) Storefronts(ctx context.Context) ([]catalog.Storefront, error) {
	resources, err := c.getPaged(ctx, "/v1/storefronts", url.Values{"limit": {"100"}})
	if err != nil {
		return nil, err
	}
	stores := make([]catalog.Storefront, 0, len(resources))
	for _, r := range resources {
		stores = append(stores, catalog.Storefront(r.ID))
	}
	return stores, nil
}

// Storefront returns a single storefront entry with its localisation
// attributes (name, default language and so on).
func (c *Client) Storefront(ctx context.Context, sf catalog.Storefront) (catalog.Item, error) {
	if !validStorefront(sf) {
		return catalog.Item{}, &catalog.ConfigError{Op: "storefront", Detail: "invalid storefront " + string(sf)}
	}
	resources, err := c.getPaged(ctx, "/v1/storefronts/"+string(sf), nil)
	if err != nil {
		return catalog.Item{}, err
	}
	if len(resources) == 0 {
		return catalog.Item{}, &catalog.DecodeError{Err: errEmptyData}
	}
	return resources[0].item(), nil
}
