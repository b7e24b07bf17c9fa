package routes

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedreader-be/handlers"
	"feedreader-be/middleware"
	"feedreader-be/utils"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         *slog.Logger
}

func SetupRoutes(h *handlers.Handler, opts Options) *mux.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := mux.NewRouter()

	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Metrics)
	router.Use(middleware.BodyLimit(opts.MaxBodyBytes))

	// Handle all OPTIONS requests globally before route matching
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Public routes
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api.HandleFunc("/sanitize", h.Sanitize).Methods(http.MethodPost)
	api.HandleFunc("/sanitizer/policy", h.GetPolicy).Methods(http.MethodGet)

	api.HandleFunc("/articles", h.GetArticles).Methods(http.MethodGet)
	api.HandleFunc("/articles/slug/{slug}", h.GetArticleBySlug).Methods(http.MethodGet)
	api.HandleFunc("/articles/{id:[0-9a-z]+}", h.GetArticleByID).Methods(http.MethodGet)

	api.HandleFunc("/feed.atom", h.GetAtomFeed).Methods(http.MethodGet)
	api.HandleFunc("/feed.rss", h.GetRSSFeed).Methods(http.MethodGet)

	// Ingest routes - require a service token with the ingest scope
	ingest := api.PathPrefix("/articles").Subrouter()
	ingest.Use(middleware.Auth(opts.JWTSecret))
	ingest.Use(middleware.RequireScope(utils.ScopeIngest))
	ingest.HandleFunc("", h.CreateArticle).Methods(http.MethodPost)
	ingest.HandleFunc("/{id:[0-9a-z]+}", h.DeleteArticle).Methods(http.MethodDelete)

	return router
}
