// Library and listening-history endpoints. Library listings pass through to
// the platform; history and insights are served from the local database.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/zchwyng/musadora/pkg/catalog"
)

// LibraryService is the subset of the platform client used by the library
// endpoints.
type LibraryService interface {
	LibrarySongs(ctx context.Context) ([]catalog.Item, error)
	LibraryAlbums(ctx context.Context) ([]catalog.Item, error)
	LibraryPlaylists(ctx context.Context) ([]catalog.Item, error)
	RecentlyPlayed(ctx context.Context) ([]catalog.Item, error)
}

// LibraryJSON lists the user's library resources. The segment query parameter
// selects songs, albums, playlists or recent plays and defaults to songs.
func (app *Application) LibraryJSON(w http.ResponseWriter, r *http.Request) {
	var (
		items []catalog.Item
		err   error
	)
	switch r.URL.Query().Get("segment") {
	case "albums":
		items, err = app.Library.LibraryAlbums(r.Context())
	case "playlists":
		items, err = app.Library.LibraryPlaylists(r.Context())
	case "recent":
		items, err = app.Library.RecentlyPlayed(r.Context())
	default:
		items, err = app.Library.LibrarySongs(r.Context())
	}
	if err != nil {
		app.respondCatalogError(w, err)
		return
	}
	respondJSON(w, items)
}

// AddHistoryJSON records one listening event for the signed-in user.
func (app *Application) AddHistoryJSON(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if app.DB == nil {
		http.Error(w, "db not configured", http.StatusInternalServerError)
		return
	}
	var req struct {
		ItemID string `json:"item_id"`
		Genre  string `json:"genre"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == "" {
		respondJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if err := app.DB.AddHistory(r.Context(), user, req.ItemID, req.Genre, time.Now()); err != nil {
		http.Error(w, "failed to save history", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// InsightsJSON returns the most played genres for a configurable period
// controlled by the 'days' query parameter.
func (app *Application) InsightsJSON(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if app.DB == nil {
		http.Error(w, "db not configured", http.StatusInternalServerError)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	res, err := app.DB.TopGenresSince(r.Context(), user, since)
	if err != nil {
		http.Error(w, "failed to load insights", http.StatusInternalServerError)
		return
	}
	respondJSON(w, res)
}

// InsightsMonthlyJSON groups play counts by month starting from an optional
// 'since' query parameter (YYYY-MM-DD). If omitted a one year lookback is
// used.
func (app *Application) InsightsMonthlyJSON(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if app.DB == nil {
		http.Error(w, "db not configured", http.StatusInternalServerError)
		return
	}
	sinceStr := r.URL.Query().Get("since")
	since := time.Now().AddDate(-1, 0, 0)
	if sinceStr != "" {
		if t, err := time.Parse("2006-01-02", sinceStr); err == nil {
			since = t
		}
	}
	res, err := app.DB.MonthlyPlayCountsSince(r.Context(), user, since)
	if err != nil {
		http.Error(w, "failed to load insights", http.StatusInternalServerError)
		return
	}
	respondJSON(w, res)
}
