package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/handlers"
	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/observability"
	"github.com/ecoguard/ecoguard/internal/repository/postgres"
	rediscache "github.com/ecoguard/ecoguard/internal/repository/redis"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// Router holds the HTTP router and its dependencies
type Router struct {
	chi.Router
	logger *zap.Logger
}

// RouterConfig contains configuration for the router
type RouterConfig struct {
	Service      handlers.AnalysisService
	Repos        *postgres.Repositories
	DB           *postgres.DB
	Cache        *rediscache.Cache
	Keys         handlers.KeyTester
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	EnableCORS   bool
	RateLimit    int
	UserIDHeader string
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	r.Use(chimw.Timeout(120 * time.Second))

	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.HTTPMiddleware)
	}

	// CORS configuration
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check endpoints (no identity required)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(cfg.DB, cfg.Cache))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(cfg.UserIDHeader).Handler)

		// Rate limiting (if Redis is available)
		if cfg.Cache != nil && cfg.RateLimit > 0 {
			r.Use(middleware.NewRateLimitMiddleware(cfg.Cache, cfg.RateLimit, true).Handler)
		}

		// Initialize handlers
		analysisHandler := handlers.NewAnalysisHandler(cfg.Service, cfg.Repos.History, cfg.Logger)
		progressHandler := handlers.NewProgressHandler(
			cfg.Repos.Progress,
			cfg.Repos.History,
			cfg.Repos.Settings,
			cfg.Repos.Comparisons,
			cfg.Logger,
		)
		settingsHandler := handlers.NewSettingsHandler(cfg.Repos.Settings, cfg.Keys, cfg.Logger)
		comparisonHandler := handlers.NewComparisonHandler(
			cfg.Repos.Comparisons,
			cfg.Repos.History,
			cfg.Repos.Progress,
			cfg.Logger,
		)

		// Analysis routes
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", analysisHandler.Create)
			r.Get("/", analysisHandler.List)
			r.Get("/{id}", analysisHandler.Get)
		})
		r.Post("/scrape", analysisHandler.Scrape)

		// Progress routes
		r.Route("/progress", func(r chi.Router) {
			r.Get("/", progressHandler.Get)
			r.Get("/challenge", progressHandler.Challenge)
		})
		r.Get("/carbon", progressHandler.Carbon)
		r.Get("/export", progressHandler.Export)
		r.Delete("/data", progressHandler.DeleteData)

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.Get)
			r.Put("/", settingsHandler.Update)
			r.Post("/test-key", settingsHandler.TestKey)
		})

		// Comparison routes
		r.Route("/comparisons", func(r chi.Router) {
			r.Get("/", comparisonHandler.List)
			r.Post("/", comparisonHandler.Add)
			r.Delete("/{domain}", comparisonHandler.Delete)
		})
	})

	return &Router{
		Router: r,
		logger: cfg.Logger,
	}
}

// healthHandler returns basic health status
func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "ecoguard-api",
	})
}

// readyHandler checks if all dependencies are ready
func readyHandler(db *postgres.DB, cache *rediscache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		allHealthy := true

		if db != nil {
			if err := db.Health(r.Context()); err != nil {
				checks["database"] = "unhealthy: " + err.Error()
				allHealthy = false
			} else {
				checks["database"] = "healthy"
			}
		} else {
			checks["database"] = "not configured"
		}

		if cache != nil {
			if err := cache.Health(r.Context()); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
				allHealthy = false
			} else {
				checks["redis"] = "healthy"
			}
		} else {
			checks["redis"] = "not configured"
		}

		status := http.StatusOK
		statusText := "ready"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		httputil.JSON(w, status, map[string]any{
			"status": statusText,
			"checks": checks,
		})
	}
}
