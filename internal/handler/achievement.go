package handler

import (
	"net/http"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

type AchievementHandler struct {
	achievements *store.AchievementStore
}

func NewAchievementHandler(as *store.AchievementStore) *AchievementHandler {
	return &AchievementHandler{achievements: as}
}

func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	earned, err := h.achievements.List(userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if earned == nil {
		earned = []model.Achievement{}
	}
	writeJSON(w, http.StatusOK, earned)
}
