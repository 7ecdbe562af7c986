package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rdavies/planwell/internal/assistant"
	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
	"github.com/rdavies/planwell/internal/websocket"
)

type AssistantHandler struct {
	client *assistant.Client
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewAssistantHandler(client *assistant.Client, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{client: client, tasks: ts, hub: hub, logger: logger}
}

type assistantRequest struct {
	Prompt string `json:"prompt"`
}

type assistantResponse struct {
	Drafts []model.TaskDraft `json:"drafts"`
}

// Propose asks the language model to break the prompt into task drafts.
// Nothing is persisted; the caller reviews the drafts and submits the
// ones it wants through Create.
func (h *AssistantHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	drafts, err := h.client.ProposeTasks(r.Context(), req.Prompt, time.Now().UTC())
	if err != nil {
		if errors.Is(err, assistant.ErrExternalService) {
			h.logger.Warn("assistant proposal failed", "error", err)
			writeError(w, http.StatusBadGateway, "assistant unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, assistantResponse{Drafts: drafts})
}

type createTasksRequest struct {
	Drafts []model.TaskDraft `json:"drafts"`
}

// CreateTasks persists reviewed drafts through the regular task path,
// so validation and scoping are identical to manual creation.
func (h *AssistantHandler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Drafts) == 0 {
		writeError(w, http.StatusBadRequest, "drafts are required")
		return
	}

	created := make([]model.Task, 0, len(req.Drafts))
	for _, draft := range req.Drafts {
		var task *model.Task
		err := withBusyRetry(r.Context(), func() error {
			var err error
			task, err = h.tasks.Create(userID, draft)
			return err
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		created = append(created, *task)
	}

	for _, task := range created {
		if h.hub != nil {
			h.hub.Broadcast(userID, websocket.NewMessage("task", "created", task.ID, nil))
		}
	}
	writeJSON(w, http.StatusCreated, created)
}
