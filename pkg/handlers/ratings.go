// Rating endpoints. Calls are passed through to the platform and, when a
// signed-in session exists, mirrored into the local database so the values
// can be listed without another platform round trip.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/zchwyng/musadora/pkg/catalog"
)

// RatingService is the subset of the platform client used by the rating
// endpoints.
type RatingService interface {
	Rating(ctx context.Context, kind catalog.ItemKind, id string) (int, error)
	AddRating(ctx context.Context, kind catalog.ItemKind, id string, value int) error
	DeleteRating(ctx context.Context, kind catalog.ItemKind, id string) error
}

// RatingJSON returns the platform rating for one resource.
func (app *Application) RatingJSON(w http.ResponseWriter, r *http.Request) {
	kind := catalog.ItemKind(r.URL.Query().Get("kind"))
	id := r.URL.Query().Get("id")
	v, err := app.Ratings.Rating(r.Context(), kind, id)
	if err != nil {
		app.respondCatalogError(w, err)
		return
	}
	respondJSON(w, map[string]int{"value": v})
}

// AddRatingJSON sets the rating for one resource on the platform and mirrors
// it locally for the signed-in user.
func (app *Application) AddRatingJSON(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind  string `json:"kind"`
		ID    string `json:"id"`
		Value int    `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind == "" || req.ID == "" {
		respondJSONError(w, http.StatusBadRequest, "kind and id are required")
		return
	}
	if err := app.Ratings.AddRating(r.Context(), catalog.ItemKind(req.Kind), req.ID, req.Value); err != nil {
		app.respondCatalogError(w, err)
		return
	}
	if user, ok := app.currentUser(r); ok && app.DB != nil {
		if err := app.DB.SaveRating(r.Context(), user, req.Kind, req.ID, req.Value); err != nil {
			app.logger().WithError(err).Warn("mirror rating")
		}
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteRatingJSON removes the rating from the platform and from the local
// mirror.
func (app *Application) DeleteRatingJSON(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	id := r.URL.Query().Get("id")
	if err := app.Ratings.DeleteRating(r.Context(), catalog.ItemKind(kind), id); err != nil {
		app.respondCatalogError(w, err)
		return
	}
	if user, ok := app.currentUser(r); ok && app.DB != nil {
		if err := app.DB.DeleteRating(r.Context(), user, kind, id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			app.logger().WithError(err).Warn("unmirror rating")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyRatingsJSON lists the signed-in user's mirrored ratings.
func (app *Application) MyRatingsJSON(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if app.DB == nil {
		http.Error(w, "db not configured", http.StatusInternalServerError)
		return
	}
	rs, err := app.DB.ListRatings(r.Context(), user)
	if err != nil {
		http.Error(w, "failed to load ratings", http.StatusInternalServerError)
		return
	}
	respondJSON(w, rs)
}
