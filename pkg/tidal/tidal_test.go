package tidal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type rt struct {
	status int
	body   string
}

func (r rt) RoundTrip(*http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	if r.body != "" {
		rec.WriteString(r.body)
	}
	rec.WriteHeader(r.status)
	return rec.Result(), nil
}

// TestFindTrack verifies JSON decoding and match construction.
func TestFindTrack(t *testing.T) {
	data := `{"tracks":{"items":[{"id":1,"title":"Song","artist":{"name":"Art"}}]}}`
	c := &Client{Token: "t", HTTP: &http.Client{Transport: rt{status: 200, body: data}}}
	m, err := c.FindTrack(context.Background(), "Song", "Art")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Provider != "tidal" || m.Name != "Song" || m.URL == "" {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestFindTrackStatus(t *testing.T) {
	c := &Client{Token: "t", HTTP: &http.Client{Transport: rt{status: 500}}}
	if _, err := c.FindTrack(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error")
	}
}

// TestHTTPClientConcurrentInit: the resolver fan-out calls FindTrack from
// several goroutines at once, so the lazy client init must be race-free.
// Run with -race.
func TestHTTPClientConcurrentInit(t *testing.T) {
	c := &Client{Token: "t"}
	clients := make([]*http.Client, 8)
	var wg sync.WaitGroup
	for i := range clients {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			clients[i] = c.httpClient()
		}()
	}
	wg.Wait()
	for i, got := range clients {
		if got == nil || got != clients[0] {
			t.Fatalf("goroutine %d saw client %p, want %p", i, got, clients[0])
		}
	}
}

func TestFindTrackNoToken(t *testing.T) {
	c := &Client{}
	if _, err := c.FindTrack(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error")
	}
}
