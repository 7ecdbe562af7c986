package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rdavies/planwell/internal/assistant"
	"github.com/rdavies/planwell/internal/handler"
	"github.com/rdavies/planwell/internal/metrics"
	"github.com/rdavies/planwell/internal/middleware"
	"github.com/rdavies/planwell/internal/store"
	ws "github.com/rdavies/planwell/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	taskH        *handler.TaskHandler
	goalH        *handler.GoalHandler
	journalH     *handler.JournalHandler
	dashboardH   *handler.DashboardHandler
	achievementH *handler.AchievementHandler
	assistantH   *handler.AssistantHandler
	adminH       *handler.AdminHandler
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, assistantCfg assistant.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	taskStore := store.NewTaskStore(db)
	goalStore := store.NewGoalStore(db)
	journalStore := store.NewJournalStore(db)
	achievementStore := store.NewAchievementStore(db)

	engine := metrics.NewEngine(taskStore, goalStore, achievementStore, logger.With("component", "metrics"))
	assistantClient := assistant.NewClient(assistantCfg)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		taskH:        handler.NewTaskHandler(taskStore, engine, hub, logger.With("component", "task")),
		goalH:        handler.NewGoalHandler(goalStore, hub, logger.With("component", "goal")),
		journalH:     handler.NewJournalHandler(journalStore, hub, logger.With("component", "journal")),
		dashboardH:   handler.NewDashboardHandler(engine, achievementStore, logger.With("component", "dashboard")),
		achievementH: handler.NewAchievementHandler(achievementStore),
		assistantH:   handler.NewAssistantHandler(assistantClient, taskStore, hub, logger.With("component", "assistant")),
		adminH:       handler.NewAdminHandler(userStore),
		userStore:    userStore,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// UserStore returns the user store for admin bootstrap.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me/password", s.authH.ChangePassword)

	// Task API routes
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("PUT /api/tasks/{id}/status", s.taskH.UpdateStatus)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Goal API routes
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("GET /api/goals/{id}", s.goalH.Get)
	mux.HandleFunc("PUT /api/goals/{id}", s.goalH.Update)
	mux.HandleFunc("PUT /api/goals/{id}/progress", s.goalH.SetProgress)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	// Journal API routes, keyed by entry date
	mux.HandleFunc("POST /api/journal", s.journalH.Create)
	mux.HandleFunc("GET /api/journal", s.journalH.List)
	mux.HandleFunc("GET /api/journal/{date}", s.journalH.GetByDate)
	mux.HandleFunc("PUT /api/journal/{date}", s.journalH.UpdateByDate)
	mux.HandleFunc("DELETE /api/journal/{date}", s.journalH.DeleteByDate)

	// Derived metrics
	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Dashboard)
	mux.HandleFunc("GET /api/analytics", s.dashboardH.Analytics)
	mux.HandleFunc("GET /api/achievements", s.achievementH.List)

	// Assistant: propose drafts, then persist reviewed ones
	mux.HandleFunc("POST /api/assistant/propose", s.assistantH.Propose)
	mux.HandleFunc("POST /api/assistant/tasks", s.assistantH.CreateTasks)

	// Admin
	mux.Handle("GET /api/admin/users", middleware.RequireAdmin(http.HandlerFunc(s.adminH.ListUsers)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
