// Command web starts the musadora HTTP server. Configuration comes from an
// optional YAML file (CONFIG_PATH) with environment variables taking
// precedence; an Apple Music developer token and a cookie signing key are
// required. The server serves a JSON API plus Prometheus metrics.

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zchwyng/musadora/pkg/applemusic"
	"github.com/zchwyng/musadora/pkg/catalog"
	"github.com/zchwyng/musadora/pkg/config"
	"github.com/zchwyng/musadora/pkg/db"
	"github.com/zchwyng/musadora/pkg/handlers"
	"github.com/zchwyng/musadora/pkg/links"
	"github.com/zchwyng/musadora/pkg/spotify"
	"github.com/zchwyng/musadora/pkg/tidal"
)

// routes registers every endpoint on a fresh mux wrapped with the shared
// middleware.
func routes(app *handlers.Application, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/storefronts", app.StorefrontsJSON)
	mux.HandleFunc("/api/catalog", app.CatalogJSON)
	mux.HandleFunc("/api/catalog/aggregate", app.AggregateJSON)
	mux.HandleFunc("/api/search", app.SearchJSON)
	mux.HandleFunc("/api/links", app.LinksJSON)
	mux.HandleFunc("/api/library", app.LibraryJSON)
	mux.HandleFunc("/api/ratings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			app.AddRatingJSON(w, r)
		case http.MethodDelete:
			app.DeleteRatingJSON(w, r)
		default:
			app.RatingJSON(w, r)
		}
	})
	mux.HandleFunc("/api/ratings/mine", app.MyRatingsJSON)
	mux.HandleFunc("/api/history", app.AddHistoryJSON)
	mux.HandleFunc("/api/insights", app.InsightsJSON)
	mux.HandleFunc("/api/insights/monthly", app.InsightsMonthlyJSON)
	mux.HandleFunc("/login", app.Login)
	mux.Handle("/metrics", promhttp.Handler())
	return handlers.SecurityHeaders(handlers.RequestLogger(log, mux))
}

// main configures application dependencies and starts the HTTP server.
func main() {
	log := logrus.New()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	// The platform client serves double duty: it is the catalog fetcher
	// the aggregator fans out with and the passthrough for ratings and
	// library calls.
	am := &applemusic.Client{
		DeveloperToken: cfg.AppleMusic.DeveloperToken,
		UserToken:      cfg.AppleMusic.UserToken,
	}

	policy := catalog.BestEffort
	if cfg.Aggregation.Policy == "fail-fast" {
		policy = catalog.FailFast
	}
	agg := catalog.Aggregator{
		Service: am,
		Limit:   cfg.Aggregation.Limit,
		Policy:  policy,
		Timeout: time.Duration(cfg.Aggregation.Timeout),
		Log:     log,
	}

	// External link resolvers are optional; each one is only wired when
	// its credentials are present.
	var resolvers links.Resolvers
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		sc, err := spotify.NewClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			log.WithError(err).Fatal("spotify client init")
		}
		resolvers = append(resolvers, sc)
	}
	if cfg.Tidal.Token != "" {
		resolvers = append(resolvers, &tidal.Client{Token: cfg.Tidal.Token, CountryCode: cfg.Tidal.CountryCode})
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("db init")
	}
	defer database.Close()

	app := &handlers.Application{
		Catalog:    am,
		Ratings:    am,
		Library:    am,
		Aggregator: agg,
		Links:      resolvers,
		DB:         database,
		SignKey:    []byte(cfg.SigningKey),
		Log:        log,
	}

	log.WithField("addr", cfg.Addr).Info("starting server")
	if err := http.ListenAndServe(cfg.Addr, routes(app, log)); err != nil {
		log.WithError(err).Fatal("http server error")
	}
}
