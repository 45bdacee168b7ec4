package spotify

import (
	"context"
	"errors"
	"testing"

	libspotify "github.com/zmb3/spotify"
)

type fakeSearcher struct {
	lastQuery string
	lastType  libspotify.SearchType
	result    *libspotify.SearchResult
	err       error
}

func (f *fakeSearcher) Search(query string, t libspotify.SearchType) (*libspotify.SearchResult, error) {
	f.lastQuery = query
	f.lastType = t
	return f.result, f.err
}

func TestFindTrackFound(t *testing.T) {
	track := libspotify.FullTrack{SimpleTrack: libspotify.SimpleTrack{
		ID:      "1",
		Name:    "Song",
		Artists: []libspotify.SimpleArtist{{Name: "Artist"}},
		ExternalURLs: map[string]string{
			"spotify": "https://open.spotify.com/track/1",
		},
	}}
	sr := &libspotify.SearchResult{Tracks: &libspotify.FullTrackPage{Tracks: []libspotify.FullTrack{track}}}
	fs := &fakeSearcher{result: sr}
	c := &Client{client: fs}

	got, err := c.FindTrack(context.Background(), "Song", "Artist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "1" || got.Artist != "Artist" || got.URL == "" {
		t.Errorf("unexpected match: %+v", got)
	}
	if fs.lastQuery != "Song artist:Artist" || fs.lastType != libspotify.SearchTypeTrack {
		t.Errorf("Search called with %s %v", fs.lastQuery, fs.lastType)
	}
}

func TestFindTrackNotFound(t *testing.T) {
	sr := &libspotify.SearchResult{Tracks: &libspotify.FullTrackPage{}}
	c := &Client{client: &fakeSearcher{result: sr}}

	_, err := c.FindTrack(context.Background(), "missing", "")
	if err == nil || err.Error() != "no tracks found" {
		t.Fatalf("expected no tracks found error, got %v", err)
	}
}

func TestFindTrackError(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("boom")}
	c := &Client{client: fs}

	_, err := c.FindTrack(context.Background(), "fail", "")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestFindTrackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Client{client: &fakeSearcher{}}
	if _, err := c.FindTrack(ctx, "x", ""); err == nil {
		t.Fatal("expected context error")
	}
}
