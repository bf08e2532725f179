package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamepoints/internal/api/apierr"
	"github.com/mcoot/gamepoints/internal/api/handler"
	apimiddleware "github.com/mcoot/gamepoints/internal/api/middleware"
	"github.com/mcoot/gamepoints/internal/api/response"
	"github.com/mcoot/gamepoints/internal/metrics"
	"github.com/mcoot/gamepoints/internal/middleware"
	"github.com/mcoot/gamepoints/internal/services/auth"
	"github.com/mcoot/gamepoints/internal/services/ledger"
	"github.com/mcoot/gamepoints/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Ledger      *ledger.Service
	Hub         *sse.Hub
	// Metrics is optional; when set every API route is instrumented
	Metrics *metrics.Metrics
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.AuthService)
	ledgerHandler := handler.NewLedgerHandler(cfg.Ledger)
	eventsHandler := handler.NewEventsHandler(cfg.Hub)

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, apierr.WritePanic)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	if cfg.Metrics != nil {
		api.Use(cfg.Metrics.Instrument)
	}

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Session routes
	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("/current", sessionHandler.Delete).Methods(http.MethodDelete)

	// Read-only ledger routes
	api.HandleFunc("/ledger", ledgerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", ledgerHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/players/{player}", ledgerHandler.Info).Methods(http.MethodGet)
	api.HandleFunc("/players/{player}/balance", ledgerHandler.Balance).Methods(http.MethodGet)
	api.HandleFunc("/players/{player}/history/{timestamp}/{game_id}", ledgerHandler.History).Methods(http.MethodGet)

	// Mutations require a session; the ledger decides whether the caller may act
	mutations := api.PathPrefix("/players").Subrouter()
	mutations.Use(authMiddleware)
	mutations.HandleFunc("/{player}/awards", ledgerHandler.Award).Methods(http.MethodPost)
	mutations.HandleFunc("/{player}/reset", ledgerHandler.Reset).Methods(http.MethodPost)

	// Live event stream (no auth, read-only)
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
