package handler

import (
	"net/http"

	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

type AdminHandler struct {
	users *store.UserStore
}

func NewAdminHandler(us *store.UserStore) *AdminHandler {
	return &AdminHandler{users: us}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
