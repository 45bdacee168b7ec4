// Library listings for the signed-in user. These endpoints paginate with
// offset/next links which getPaged follows transparently.
package applemusic

import (
	"context"
	"net/url"

	"github.com/zchwyng/musadora/pkg/catalog"
)

func (c *Client) libraryItems(ctx context.Context, op, segment string) ([]catalog.Item, error) {
	if c.UserToken == "" {
		return nil, &catalog.ConfigError{Op: op, Detail: "music user token required"}
	}
	resources, err := c.getPaged(ctx, "/v1/me/library/"+segment, url.Values{"limit": {"100"}})
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(resources))
	for i, r := range resources {
		items[i] = r.item()
	}
	return items, nil
}

// LibrarySongs returns every song in the user's library.
func (c *Client) LibrarySongs(ctx context.Context) ([]catalog.Item, error) {
	return c.libraryItems(ctx, "librarySongs", "songs")
}

// LibraryAlbums returns every album in the user's library.
func (c *Client) LibraryAlbums(ctx context.Context) ([]catalog.Item, error) {
	return c.libraryItems(ctx, "libraryAlbums", "albums")
}

// LibraryPlaylists returns every playlist in the user's library.
func (c *Client) LibraryPlaylists(ctx context.Context) ([]catalog.Item, error) {
	return c.libraryItems(ctx, "libraryPlaylists", "playlists")
}

// RecentlyPlayed returns the user's recently played resources, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context) ([]catalog.Item, error) {
	if c.UserToken == "" {
		return nil, &catalog.ConfigError{Op: "recentlyPlayed", Detail: "music user token required"}
	}
	resources, err := c.getPaged(ctx, "/v1/me/recent/played", nil)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(resources))
	for i, r := range resources {
		items[i] = r.item()
	}
	return items, nil
}
