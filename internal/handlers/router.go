package handlers

import (
	"net/http"

	"propfirm/internal/config"
	"propfirm/internal/middleware"
	"propfirm/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	cfg        config.Config
	service    ChallengeService
	admin      AdminStore
	audit      AuditStore
	reconciler ReconcileStore
	hub        *websocket.Hub
	upgrader   gorilla.Upgrader
	logger     *zap.Logger
}

func New(cfg config.Config, service ChallengeService, admin AdminStore, audit AuditStore, reconciler ReconcileStore, hub *websocket.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:        cfg,
		service:    service,
		admin:      admin,
		audit:      audit,
		reconciler: reconciler,
		hub:        hub,
		upgrader:   websocket.Upgrader(cfg.Origins()),
		logger:     logger,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(h.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", totalCountHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/challenge-types", h.ListChallengeTypes)
		r.Post("/challenges", h.CreateChallenge)
		r.Get("/challenges", h.ListChallenges)
		r.Get("/challenges/{id}", h.GetChallenge)
		r.Get("/challenges/{id}/trades", h.ListTrades)
		r.Post("/trades", h.RecordTrade)
		r.Get("/leaderboard", h.Leaderboard)
	})
	router.With(middleware.QueryAuth(h.cfg.JWTSecret)).Get("/ws/challenges", h.WSChallenges)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.With(middleware.RequireAdmin(h.admin, middleware.RoleChallengesRead)).Get("/challenges", h.AdminListChallenges)
		r.With(middleware.RequireAdmin(h.admin, middleware.RoleChallengesRead)).Get("/challenges/{id}", h.AdminGetChallenge)
		r.With(middleware.RequireAdmin(h.admin, middleware.RoleChallengesOverride)).Post("/challenges/{id}/override-status", h.OverrideStatus)
		r.With(middleware.RequireAdmin(h.admin, middleware.RoleAuditRead)).Get("/audit", h.ListAuditLogs)
		r.With(middleware.RequireAdmin(h.admin, middleware.RoleAuditRead)).Get("/reconcile", h.Reconcile)
	})
	return router
}
