package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
	"github.com/rdavies/planwell/internal/websocket"
)

type JournalHandler struct {
	journal *store.JournalStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewJournalHandler(js *store.JournalStore, hub *websocket.Hub, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: js, hub: hub, logger: logger}
}

func (h *JournalHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type journalRequest struct {
	EntryDate          string `json:"entry_date"`
	Mood               int    `json:"mood"`
	Gratitude          string `json:"gratitude"`
	Highlights         string `json:"highlights"`
	Challenges         string `json:"challenges"`
	TomorrowPriorities string `json:"tomorrow_priorities"`
}

func (r journalRequest) entry() (model.JournalEntry, error) {
	date := time.Now().UTC()
	if r.EntryDate != "" {
		parsed, err := parseDate(r.EntryDate)
		if err != nil {
			return model.JournalEntry{}, err
		}
		date = *parsed
	}
	return model.JournalEntry{
		EntryDate:          date,
		Mood:               r.Mood,
		Gratitude:          r.Gratitude,
		Highlights:         r.Highlights,
		Challenges:         r.Challenges,
		TomorrowPriorities: r.TomorrowPriorities,
	}, nil
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	draft, err := req.entry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "entry_date must be YYYY-MM-DD")
		return
	}

	var entry *model.JournalEntry
	err = withBusyRetry(r.Context(), func() error {
		var err error
		entry, err = h.journal.Create(userID, draft)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("journal", "created", entry.ID, nil))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	entries, err := h.journal.List(userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *JournalHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entry, err := h.journal.GetByDate(userID, date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) UpdateByDate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	draft, err := req.entry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "entry_date must be YYYY-MM-DD")
		return
	}

	var entry *model.JournalEntry
	err = withBusyRetry(r.Context(), func() error {
		var err error
		entry, err = h.journal.UpdateByDate(userID, date, draft)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("journal", "updated", entry.ID, nil))
	writeJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) DeleteByDate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	err = withBusyRetry(r.Context(), func() error {
		return h.journal.Delete(userID, date)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("journal", "deleted", 0, map[string]any{"date": date.Format("2006-01-02")}))
	w.WriteHeader(http.StatusNoContent)
}
