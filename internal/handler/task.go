package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/metrics"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
	"github.com/rdavies/planwell/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	engine *metrics.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, engine *metrics.Engine, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, engine: engine, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type taskRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	DueDate        string   `json:"due_date"`
	EstimatedHours float64  `json:"estimated_hours"`
	Tags           []string `json:"tags"`
}

func (r taskRequest) draft() (model.TaskDraft, error) {
	due, err := parseDate(r.DueDate)
	if err != nil {
		return model.TaskDraft{}, err
	}
	return model.TaskDraft{
		Title:          r.Title,
		Description:    r.Description,
		Category:       model.Category(r.Category),
		Priority:       model.Priority(r.Priority),
		DueDate:        due,
		EstimatedHours: r.EstimatedHours,
		Tags:           r.Tags,
	}, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	var task *model.Task
	err = withBusyRetry(r.Context(), func() error {
		var err error
		task, err = h.tasks.Create(userID, draft)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var filter store.TaskFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = &status
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := model.ParseCategory(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Category = &category
	}

	tasks, err := h.tasks.List(userID, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	var task *model.Task
	err = withBusyRetry(r.Context(), func() error {
		var err error
		task, err = h.tasks.Update(userID, id, draft)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, task)
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Task     *model.Task             `json:"task"`
	Unlocked []model.AchievementKind `json:"unlocked,omitempty"`
}

// UpdateStatus transitions a task and, when it enters Completed, runs
// achievement evaluation. The status change stands even if evaluation
// fails; the failure is logged and the response just omits unlocks.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var task *model.Task
	err = withBusyRetry(r.Context(), func() error {
		var err error
		task, err = h.tasks.UpdateStatus(userID, id, model.Status(req.Status))
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := statusResponse{Task: task}
	if task.Status == model.StatusCompleted {
		unlocked, err := h.engine.Evaluate(userID, time.Now().UTC())
		if err != nil {
			h.logger.Error("achievement evaluation failed", "user_id", userID, "task_id", id, "error", err)
		}
		resp.Unlocked = unlocked
		for _, kind := range unlocked {
			h.broadcast(userID, websocket.NewMessage("achievement", "unlocked", 0, map[string]any{"kind": string(kind)}))
		}
	}

	h.broadcast(userID, websocket.NewMessage("task", "status", task.ID, map[string]any{"status": string(task.Status)}))
	writeJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = withBusyRetry(r.Context(), func() error {
		return h.tasks.Delete(userID, id)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
