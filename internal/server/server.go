package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/config"
	"github.com/dukerupert/taskchamp/internal/email"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/handler"
	"github.com/dukerupert/taskchamp/internal/metrics"
	"github.com/dukerupert/taskchamp/internal/middleware"
	"github.com/dukerupert/taskchamp/internal/storage"
	"github.com/dukerupert/taskchamp/internal/viewstate"
	ws "github.com/dukerupert/taskchamp/internal/websocket"
)

type Server struct {
	db          *sql.DB
	gw          *gateway.Local
	hub         *ws.Hub
	metrics     *metrics.Metrics
	registry    *viewstate.Registry
	rateLimiter *middleware.RateLimiter

	authH      *handler.AuthHandler
	pageH      *handler.PageHandler
	adminH     *handler.AdminHandler
	dashboardH *handler.DashboardHandler
	apiH       *handler.APIHandler

	logger *slog.Logger
}

// New wires the gateway, view-state registry and handlers. Optional backends
// (S3 storage, Postmark mail) are only attached when configured.
func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	m := metrics.New()
	hub := ws.NewHub(logger.With("component", "websocket"), func(n int) {
		m.ActiveClients.Set(float64(n))
	})

	opts := []gateway.Option{
		gateway.WithPublisher(hub),
		gateway.WithMetrics(m),
		gateway.WithLogger(logger),
	}
	if bucket := storage.NewBucket(cfg.Storage); bucket.Configured() {
		opts = append(opts, gateway.WithBucket(bucket))
	} else {
		logger.Info("object storage not configured, image uploads disabled")
	}
	if cfg.ResetEnabled() {
		opts = append(opts,
			gateway.WithMailer(email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.BaseURL)),
			gateway.WithResetTokens(auth.NewResetTokens(cfg.ResetSecret, cfg.ResetTokenTTL)),
		)
	}
	gw := gateway.New(db, cfg.Gateway, opts...)

	registry := viewstate.NewRegistry(cfg.ViewStateTTL, m.ObserveStale)
	screens := handler.NewScreens(gw, registry, m, cfg.Poll, logger.With("component", "screen"))
	render := handler.NewRenderer(logger.With("component", "template"))

	return &Server{
		db:          db,
		gw:          gw,
		hub:         hub,
		metrics:     m,
		registry:    registry,
		rateLimiter: middleware.NewRateLimiter(),
		authH:       handler.NewAuthHandler(gw, screens, render, cfg.CookieSecure, logger.With("component", "auth")),
		pageH:       handler.NewPageHandler(gw, screens, render, logger.With("component", "page")),
		adminH:      handler.NewAdminHandler(screens, render, logger.With("component", "admin")),
		dashboardH:  handler.NewDashboardHandler(screens, render, logger.With("component", "dashboard")),
		apiH:        handler.NewAPIHandler(gw, screens, logger.With("component", "api")),
		logger:      logger,
	}
}

// Gateway returns the backend, for the CLI and cleanup tasks.
func (s *Server) Gateway() *gateway.Local {
	return s.gw
}

// Registry returns the view-state registry for the idle sweeper.
func (s *Server) Registry() *viewstate.Registry {
	return s.registry
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("GET /login", s.authH.LoginPage)
	mux.HandleFunc("POST /login", s.rateLimitedHandler("login", s.authH.Login))
	mux.HandleFunc("GET /signup", s.authH.SignupPage)
	mux.HandleFunc("POST /signup", s.rateLimitedHandler("signup", s.authH.Signup))
	mux.HandleFunc("GET /reset", s.authH.ResetPage)
	mux.HandleFunc("POST /reset", s.rateLimitedHandler("reset", s.authH.ResetRequest))
	mux.HandleFunc("GET /reset/confirm", s.authH.ResetConfirmPage)
	mux.HandleFunc("POST /reset/confirm", s.rateLimitedHandler("reset_confirm", s.authH.ResetConfirm))
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, handler.TopicResolver(s.gw), s.logger.With("component", "websocket")))
	mux.HandleFunc("GET /partials/clock", s.pageH.Clock)

	// Share links are read-only and never touch a session.
	mux.HandleFunc("GET /{shareID}", s.pageH.Share)
	mux.HandleFunc("GET /partials/share/{shareID}", s.pageH.SharePartial)

	s.registerProtectedRoutes(mux)
	s.registerAPIRoutes(mux)

	return middleware.Metrics(s.metrics)(
		middleware.RequestLogger(s.logger.With("component", "http"))(mux),
	)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(prefix string, h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP(prefix), 10, time.Minute)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	protect := middleware.RequireAuth(s.gw)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	// Full pages
	handle("GET /{$}", s.pageH.Home)
	handle("GET /master-report", s.pageH.MasterReport)
	handle("POST /partials/view-mode", s.pageH.SetViewMode)

	// Admin screen partials (HTMX)
	handle("GET /partials/admin", s.adminH.Panel)
	handle("POST /partials/admin/members", s.adminH.AddMember)
	handle("POST /partials/admin/members/{id}/select", s.adminH.Select)
	handle("PUT /partials/admin/members/{id}", s.adminH.RenameMember)
	handle("DELETE /partials/admin/members/{id}", s.adminH.DeleteMember)
	handle("PUT /partials/admin/members/{id}/target", s.adminH.SetTargetPoints)
	handle("POST /partials/admin/members/{id}/images/{kind}", s.adminH.UploadImage)
	handle("POST /partials/admin/tasks", s.adminH.AddTask)
	handle("POST /partials/admin/tasks/reorder", s.adminH.Reorder)
	handle("POST /partials/admin/tasks/{id}/toggle", s.adminH.ToggleTask)
	handle("PUT /partials/admin/tasks/{id}", s.adminH.RenameTask)

	// Member dashboard partials (HTMX)
	handle("GET /partials/dashboard", s.dashboardH.Panel)
	handle("POST /partials/dashboard/members/{id}/bonus", s.dashboardH.Bonus)
	handle("POST /partials/dashboard/members/{id}/penalty", s.dashboardH.Penalty)
	handle("POST /partials/dashboard/members/{id}/reward", s.dashboardH.Reward)
	handle("POST /partials/dashboard/members/{id}/reorder", s.dashboardH.Reorder)
	handle("POST /partials/dashboard/tasks/{id}/toggle", s.dashboardH.ToggleTask)
	handle("POST /partials/dashboard/refresh", s.dashboardH.RefreshDay)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	protect := middleware.RequireAPIAuth(s.gw)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	handle("GET /api/members", s.apiH.ListMembers)
	handle("POST /api/members", s.apiH.CreateMember)
	handle("GET /api/members/{id}", s.apiH.GetMember)
	handle("GET /api/members/{id}/tasks", s.apiH.ListTasks)
	handle("POST /api/members/{id}/tasks", s.apiH.CreateTask)
	handle("POST /api/members/{id}/bonus", s.apiH.Bonus)
	handle("POST /api/members/{id}/penalty", s.apiH.Penalty)
	handle("POST /api/members/{id}/reward", s.apiH.Reward)
	handle("GET /api/members/{id}/reports/weekly", s.apiH.WeeklyReport)
	handle("GET /api/members/{id}/reports/monthly", s.apiH.MonthlyReport)
	handle("GET /api/members/{id}/rewards", s.apiH.RewardsHistory)
	handle("POST /api/tasks/{id}/toggle", s.apiH.ToggleTask)
	handle("POST /api/tasks/positions", s.apiH.UpdatePositions)
	handle("POST /api/refresh", s.apiH.RefreshDay)
	handle("GET /api/master-report", s.apiH.MasterReport)
}
