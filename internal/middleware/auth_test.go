package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rdavies/planwell/internal/auth"
	"github.com/rdavies/planwell/internal/database"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

func setupAuth(t *testing.T) (*store.SessionStore, *store.UserStore, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	u, err := users.Create("alice", "pw", "", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return store.NewSessionStore(db), users, u
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	sessions, users, _ := setupAuth(t)

	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsUnknownToken(t *testing.T) {
	sessions, users, _ := setupAuth(t)

	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bad token")
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	sessions, users, u := setupAuth(t)
	sess, err := sessions.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got auth.AuthContext
	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != u.ID || got.Role != model.RoleAdmin || got.SessionID != sess.ID {
		t.Errorf("auth context = %+v", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/users", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, Role: model.RoleStandard}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("standard user: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/users", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, Role: model.RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", rec.Code)
	}
}
