package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/faerion/keygate/internal/api/handlers"
	mw "github.com/faerion/keygate/internal/api/middleware"
	"github.com/faerion/keygate/internal/auth"
	"github.com/faerion/keygate/internal/config"
	"github.com/faerion/keygate/internal/domain"
	"github.com/faerion/keygate/internal/service"
	"github.com/faerion/keygate/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request counters for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	appStore := store.NewAppStore(db)
	userStore := store.NewUserStore(db)
	licenseStore := store.NewLicenseStore(db)
	eventStore := store.NewAuthEventStore(db)

	// Auth primitives
	tokens := auth.NewTokenIssuer(config.JWTSecret(), config.UserTokenTTL(), config.AdminTokenTTL())

	// Services
	auditSvc := service.NewAuditService(eventStore, service.NewAuditFilter(service.DefaultAuditDenylist()), logger)
	notifier := service.NewWebhookNotifier(config.WebhookTimeout(), logger)
	authSvc := service.NewAuthService(appStore, userStore, licenseStore, auditSvc, notifier, tokens, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	sessionHandler := handlers.NewSessionHandler(authSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters): the rate limiter runs before any
	// auth logic so rejected requests never reach the state machine.
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRequests(), config.RateLimitWindow(), config.RateLimitScope()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/init", authHandler.Init)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/license", authHandler.LicenseLogin)

			// Token-authenticated endpoints
			r.Group(func(r chi.Router) {
				r.Use(mw.SessionAuth(tokens, userStore))
				r.Get("/validate", sessionHandler.Validate)
				r.Post("/logout", sessionHandler.Logout)
				r.Get("/userinfo", sessionHandler.UserInfo)
			})
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.AppStore       = (*store.AppStore)(nil)
	_ domain.UserStore      = (*store.UserStore)(nil)
	_ domain.LicenseStore   = (*store.LicenseStore)(nil)
	_ domain.AuthEventStore = (*store.AuthEventStore)(nil)
	_ domain.WebhookClient  = (*service.WebhookNotifier)(nil)
)
