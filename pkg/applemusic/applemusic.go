// Package applemusic wraps the Apple Music web API. It implements the
// catalog.Service interface used by the federated aggregator and exposes the
// rest of the convenience surface: point lookups, catalog search, library
// listings and rating passthrough. A developer token is required for every
// call; endpoints under /v1/me additionally need a music user token. The zero
// value plus a DeveloperToken is ready for use; an http.Client with a
// reasonable timeout is created when HTTP is nil.
package applemusic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/zchwyng/musadora/pkg/catalog"
)

const defaultBaseURL = "https://api.music.apple.com"

// Client provides access to the Apple Music API. BaseURL may be overridden in
// tests; it defaults to the production host.
type Client struct {
	DeveloperToken string
	// UserToken is the Music-User-Token value required by library and
	// rating endpoints. Catalog calls work without it.
	UserToken string
	BaseURL   string
	HTTP      *http.Client

	httpOnce sync.Once
}

// Ensure interface compliance at compile time.
var _ catalog.Service = (*Client)(nil)

// httpClient returns the configured HTTP client, creating one with a sane
// timeout on first use. One client is shared by every concurrent request, so
// the lazy init must happen exactly once.
func (c *Client) httpClient() *http.Client {
	c.httpOnce.Do(func() {
		if c.HTTP == nil {
			c.HTTP = &http.Client{Timeout: 10 * time.Second}
		}
	})
	return c.HTTP
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return defaultBaseURL
}

// do builds and executes one API request. Non-2xx responses are drained and
// reported as TransportError; the caller owns the body otherwise.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	if c.DeveloperToken == "" {
		return nil, &catalog.ConfigError{Op: method + " " + path, Detail: "developer token required"}
	}
	u := c.baseURL() + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		// A bad URL here means the storefront or kind slipped past
		// validation; not something a retry can fix.
		return nil, &catalog.ConfigError{Op: method + " " + path, Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.DeveloperToken)
	if c.UserToken != "" {
		req.Header.Set("Music-User-Token", c.UserToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &catalog.TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &catalog.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("%s %s: %s", method, path, resp.Status)}
	}
	return resp, nil
}

// resource mirrors the subset of an Apple Music resource object needed to
// build a catalog.Item. Attributes is kept raw so nothing is lost.
type resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Href       string          `json:"href"`
	Attributes json.RawMessage `json:"attributes"`
}

// page is one page of a paginated resource response. Next holds the path of
// the following page when more data is available.
type page struct {
	Data []resource `json:"data"`
	Next string     `json:"next"`
}

func (r resource) item() catalog.Item {
	it := catalog.Item{
		ID:         r.ID,
		Kind:       catalog.ItemKind(r.Type),
		Href:       r.Href,
		Attributes: r.Attributes,
	}
	if len(r.Attributes) > 0 {
		var attrs struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(r.Attributes, &attrs) == nil {
			it.Name = attrs.Name
		}
	}
	return it
}

// decodePage reads one response body into a page. The body is closed.
func decodePage(body io.ReadCloser) (page, error) {
	defer body.Close()
	var p page
	if err := json.NewDecoder(body).Decode(&p); err != nil {
		return page{}, &catalog.DecodeError{Err: err}
	}
	return p, nil
}

// getPaged fetches path and follows next links until the API stops returning
// them, accumulating every resource along the way.
func (c *Client) getPaged(ctx context.Context, path string, q url.Values) ([]resource, error) {
	var out []resource
	for {
		resp, err := c.do(ctx, http.MethodGet, path, q, nil)
		if err != nil {
			return nil, err
		}
		p, err := decodePage(resp.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Data...)
		if p.Next == "" {
			return out, nil
		}
		// next is a full path including its own query string, so the
		// original parameters must not be re-applied.
		path, q = p.Next, nil
	}
}

// validStorefront keeps obviously malformed storefront codes out of request
// paths. Codes are short lowercase ISO country identifiers.
func validStorefront(sf catalog.Storefront) bool {
	if len(sf) < 2 || len(sf) > 3 {
		return false
	}
	for _, r := range string(sf) {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
