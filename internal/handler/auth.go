package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

const sessionCookieName = "planwell_session"

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var user *model.User
	err := withBusyRetry(r.Context(), func() error {
		var err error
		user, err = h.users.Create(req.Username, req.Password, req.Email, model.RoleStandard)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		writeStoreError(w, err)
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("session create after register failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusCreated, user)
		return
	}

	h.setSessionCookie(w, sess)
	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		// Bad username and bad password look identical to the caller.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.setSessionCookie(w, sess)
	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Warn("session delete failed", "session_id", ac.SessionID, "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the authenticated user's credential after
// re-verifying the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if _, err := h.users.Authenticate(user.Username, req.CurrentPassword); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	err = withBusyRetry(r.Context(), func() error {
		return h.users.SetPassword(userID, req.NewPassword)
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.logger.Info("password changed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
