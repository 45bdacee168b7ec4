// Package links resolves a catalog song to its counterparts on other
// streaming services so the application can offer "listen elsewhere" links.
// Each Resolver wraps one external provider; Resolvers fans a lookup out to
// all of them concurrently and keeps whatever succeeded.
package links

import (
	"context"
	"sync"
)

// Match is one provider's best hit for a track lookup.
type Match struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
}

// Resolver looks a track up on a single external provider.
type Resolver interface {
	FindTrack(ctx context.Context, name, artist string) (Match, error)
}

// Resolvers queries every configured provider at once. A failing provider
// does not prevent matches from the others; an error is only returned when
// every provider fails.
type Resolvers []Resolver

func (rs Resolvers) FindAll(ctx context.Context, name, artist string) ([]Match, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	type result struct {
		match Match
		err   error
	}
	var wg sync.WaitGroup
	resCh := make(chan result, len(rs))
	for _, r := range rs {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.FindTrack(ctx, name, artist)
			resCh <- result{match: m, err: err}
		}()
	}
	wg.Wait()
	close(resCh)
	var matches []Match
	var firstErr error
	for r := range resCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		matches = append(matches, r.match)
	}
	if len(matches) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return matches, nil
}
