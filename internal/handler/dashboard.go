package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/metrics"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/quote"
	"github.com/rdavies/planwell/internal/store"
)

type DashboardHandler struct {
	engine       *metrics.Engine
	achievements *store.AchievementStore
	logger       *slog.Logger
}

func NewDashboardHandler(engine *metrics.Engine, as *store.AchievementStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{engine: engine, achievements: as, logger: logger}
}

type dashboardResponse struct {
	Stats        *metrics.Stats      `json:"stats"`
	Quote        string              `json:"quote"`
	Achievements []model.Achievement `json:"achievements"`
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now().UTC()

	stats, err := h.engine.Stats(userID, now)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	earned, err := h.achievements.List(userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if earned == nil {
		earned = []model.Achievement{}
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats:        stats,
		Quote:        quote.OfTheDay(now),
		Achievements: earned,
	})
}

type analyticsResponse struct {
	Stats      *metrics.Stats         `json:"stats"`
	Categories map[model.Category]int `json:"categories"`
	Priorities map[model.Priority]int `json:"priorities"`
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	stats, err := h.engine.Stats(userID, time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	categories, err := h.engine.CategoryBreakdown(userID, true)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	priorities, err := h.engine.PriorityBreakdown(userID, true)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyticsResponse{
		Stats:      stats,
		Categories: categories,
		Priorities: priorities,
	})
}
