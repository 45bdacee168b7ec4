// Package tidal resolves tracks against the public Tidal API. Only basic
// track search is supported. A token is required which can be obtained from
// the Tidal web player; the client does not perform authentication itself.
package tidal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zchwyng/musadora/pkg/links"
)

// Client queries the Tidal API. A valid Token from the Tidal web player is
// required. If HTTP is nil a client with a 10 second timeout is created on
// first use. CountryCode controls localisation and defaults to "US".
type Client struct {
	Token       string
	CountryCode string
	HTTP        *http.Client

	httpOnce sync.Once
}

// Ensure interface compliance.
var _ links.Resolver = (*Client)(nil)

// httpClient performs the lazy init exactly once; FindTrack is called
// concurrently by the resolver fan-out.
func (c *Client) httpClient() *http.Client {
	c.httpOnce.Do(func() {
		if c.HTTP == nil {
			c.HTTP = &http.Client{Timeout: 10 * time.Second}
		}
	})
	return c.HTTP
}

// FindTrack implements links.Resolver by searching Tidal for the track name
// and artist and returning the first hit.
func (c *Client) FindTrack(ctx context.Context, name, artist string) (links.Match, error) {
	if c.Token == "" {
		return links.Match{}, fmt.Errorf("token required")
	}
	cc := c.CountryCode
	if cc == "" {
		cc = "US"
	}
	q := name
	if artist != "" {
		q = name + " " + artist
	}
	params := url.Values{
		"query":       {q},
		"limit":       {"1"},
		"offset":      {"0"},
		"countryCode": {cc},
		"token":       {c.Token},
	}
	u := "https://api.tidal.com/v1/search/tracks?" + params.Encode()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return links.Match{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return links.Match{}, fmt.Errorf("tidal search error: %s", resp.Status)
	}
	var body struct {
		Tracks struct {
			Items []struct {
				ID     int64  `json:"id"`
				Title  string `json:"title"`
				Artist struct {
					Name string `json:"name"`
				} `json:"artist"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// Invalid JSON means the API changed or the token is invalid.
		return links.Match{}, err
	}
	if len(body.Tracks.Items) == 0 {
		return links.Match{}, fmt.Errorf("no tracks found")
	}
	item := body.Tracks.Items[0]
	return links.Match{
		Provider: "tidal",
		ID:       fmt.Sprintf("%d", item.ID),
		Name:     item.Title,
		Artist:   item.Artist.Name,
		URL:      fmt.Sprintf("https://tidal.com/browse/track/%d", item.ID),
	}, nil
}
