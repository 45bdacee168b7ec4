// Package spotify wraps the official Spotify client library to resolve
// catalog songs to their Spotify counterparts. Authentication uses the client
// credentials flow which is sufficient for catalog search; no user login is
// involved. Errors are returned directly from the underlying client so
// callers can inspect them if needed.
//
// The wrapped library does not accept a context, so cancellation is checked
// explicitly before each call.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/zchwyng/musadora/pkg/links"
)

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	Search(query string, t spotify.SearchType) (*spotify.SearchResult, error)
}

// Client resolves tracks against the Spotify catalog.
type Client struct {
	client searcher
}

// Compile-time interface check ensuring Client satisfies the links.Resolver
// interface used by the handlers.
var _ links.Resolver = (*Client)(nil)

// NewClient authenticates using the client credentials flow and returns a
// Client ready for lookups. clientID and clientSecret come from the Spotify
// developer dashboard.
func NewClient(clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}

	token, err := config.Token(context.Background())
	if err != nil {
		return nil, err
	}

	c := spotify.Authenticator{}.NewClient(token)
	return &Client{client: &c}, nil
}

// FindTrack implements links.Resolver by searching Spotify for the track name
// and artist and returning the first hit. A "no tracks found" error is
// returned when nothing matches.
func (c *Client) FindTrack(ctx context.Context, name, artist string) (links.Match, error) {
	if err := ctx.Err(); err != nil {
		return links.Match{}, err
	}
	q := name
	if artist != "" {
		q = fmt.Sprintf("%s artist:%s", name, artist)
	}
	results, err := c.client.Search(q, spotify.SearchTypeTrack)
	if err != nil {
		return links.Match{}, err
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return links.Match{}, fmt.Errorf("no tracks found")
	}
	t := results.Tracks.Tracks[0]
	m := links.Match{
		Provider: "spotify",
		ID:       string(t.ID),
		Name:     t.Name,
		URL:      t.ExternalURLs["spotify"],
	}
	if len(t.Artists) > 0 {
		m.Artist = t.Artists[0].Name
	}
	if m.URL == "" {
		m.URL = "https://open.spotify.com/track/" + m.ID
	}
	return m, nil
}
