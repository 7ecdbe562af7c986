package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
	"github.com/rdavies/planwell/internal/websocket"
)

type GoalHandler struct {
	goals  *store.GoalStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGoalHandler(gs *store.GoalStore, hub *websocket.Hub, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: gs, hub: hub, logger: logger}
}

func (h *GoalHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type goalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	target, err := parseDate(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_date must be YYYY-MM-DD")
		return
	}

	var goal *model.Goal
	err = withBusyRetry(r.Context(), func() error {
		var err error
		goal, err = h.goals.Create(userID, req.Title, req.Description, target)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("goal", "created", goal.ID, nil))
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	status := r.URL.Query().Get("status")
	switch status {
	case "", model.GoalActive, model.GoalCompleted:
	default:
		writeError(w, http.StatusBadRequest, "unknown goal status "+status)
		return
	}

	goals, err := h.goals.List(userID, status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	goal, err := h.goals.GetByID(userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	target, err := parseDate(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_date must be YYYY-MM-DD")
		return
	}

	var goal *model.Goal
	err = withBusyRetry(r.Context(), func() error {
		var err error
		goal, err = h.goals.Update(userID, id, req.Title, req.Description, target)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("goal", "updated", goal.ID, nil))
	writeJSON(w, http.StatusOK, goal)
}

type progressRequest struct {
	Progress int `json:"progress"`
}

func (h *GoalHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var goal *model.Goal
	err = withBusyRetry(r.Context(), func() error {
		var err error
		goal, err = h.goals.SetProgress(userID, id, req.Progress)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("goal", "progress", goal.ID, map[string]any{"progress": goal.Progress}))
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = withBusyRetry(r.Context(), func() error {
		return h.goals.Delete(userID, id)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("goal", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
