// Package catalog defines the generic types used when talking to the music
// platform's catalog and the federated aggregator that combines results from
// every regional storefront. Concrete API access lives in pkg/applemusic; by
// depending on this package the rest of the application stays agnostic about
// the transport.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storefront identifies a regional variant of the catalog, e.g. "us" or "gb".
// Values are supplied by the platform's storefront directory and treated as
// opaque.
type Storefront string

// ItemKind names a catalog resource collection. The constants below cover the
// kinds exposed by the platform's catalog endpoints.
type ItemKind string

const (
	KindGenres    ItemKind = "genres"
	KindSongs     ItemKind = "songs"
	KindAlbums    ItemKind = "albums"
	KindArtists   ItemKind = "artists"
	KindPlaylists ItemKind = "playlists"
	KindStations  ItemKind = "stations"
)

// Valid reports whether k is one of the known resource kinds. Request builders
// reject unknown kinds before constructing a URL.
func (k ItemKind) Valid() bool {
	switch k {
	case KindGenres, KindSongs, KindAlbums, KindArtists, KindPlaylists, KindStations:
		return true
	}
	return false
}

// Item is a single catalog resource. Only ID and Name participate in
// aggregation; Attributes carries the rest of the payload verbatim so callers
// can decode provider specific fields themselves.
type Item struct {
	ID         string          `json:"id"`
	Kind       ItemKind        `json:"type"`
	Name       string          `json:"name"`
	Href       string          `json:"href,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func (i Item) String() string {
	return fmt.Sprintf("%s/%s %q", i.Kind, i.ID, i.Name)
}

// Service is the contract the aggregator requires from a platform client.
// Storefronts enumerates the regional catalogs; Items fetches one resource
// collection scoped to a single storefront. Both honour context cancellation.
type Service interface {
	Storefronts(ctx context.Context) ([]Storefront, error)
	Items(ctx context.Context, storefront Storefront, kind ItemKind) ([]Item, error)
}

var _ Service = (ServiceFuncs{})

// ServiceFuncs adapts plain functions to the Service interface. It is mainly
// useful in tests and for small wrappers.
type ServiceFuncs struct {
	StorefrontsFunc func(ctx context.Context) ([]Storefront, error)
	ItemsFunc       func(ctx context.Context, storefront Storefront, kind ItemKind) ([]Item, error)
}

func (s ServiceFuncs) Storefronts(ctx context.Context) ([]Storefront, error) {
	return s.StorefrontsFunc(ctx)
}

func (s ServiceFuncs) Items(ctx context.Context, storefront Storefront, kind ItemKind) ([]Item, error) {
	return s.ItemsFunc(ctx, storefront, kind)
}
