package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/crcon-linkbot/internal/api/handler"
	"github.com/mcoot/crcon-linkbot/internal/api/middleware"
	"github.com/mcoot/crcon-linkbot/internal/api/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	APITokenHash string

	Health       handler.HealthReporter
	Connection   handler.ConnectionTester
	Resolver     handler.Resolver
	Vip          handler.VipChecker
	Broadcaster  handler.Broadcaster
	Links        handler.LinkReader
	Leaderboards handler.LeaderboardBuilder
	Scheduler    handler.JobRunner
	HubManager   *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	statusHandler := handler.NewStatusHandler(cfg.Health, cfg.Connection)
	playerHandler := handler.NewPlayerHandler(cfg.Resolver, cfg.Vip)
	broadcastHandler := handler.NewBroadcastHandler(cfg.Broadcaster, cfg.Logger)
	linkHandler := handler.NewLinkHandler(cfg.Links)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Leaderboards, cfg.HubManager)
	jobHandler := handler.NewJobHandler(cfg.Scheduler)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.APITokenHash)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)

	// Everything else requires the admin token
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/status", statusHandler.Status).Methods(http.MethodGet)
	protected.HandleFunc("/players/resolve", playerHandler.Resolve).Methods(http.MethodGet)
	protected.HandleFunc("/vip/{stable_id}", playerHandler.Vip).Methods(http.MethodGet)
	protected.HandleFunc("/broadcast", broadcastHandler.Send).Methods(http.MethodPost)

	protected.HandleFunc("/links", linkHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/links/{discord_id}", linkHandler.Get).Methods(http.MethodGet)

	protected.HandleFunc("/leaderboard", leaderboardHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/leaderboard/events", leaderboardHandler.Events).Methods(http.MethodGet)

	protected.HandleFunc("/jobs", jobHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/jobs/{name}/run", jobHandler.Run).Methods(http.MethodPost)

	return r
}
