package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

func fakeProvider(t *testing.T, modelText string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") == "" {
			t.Error("missing api key header")
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": modelText}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, WithHTTPClient(srv.Client()))
}

var today = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func TestProposeTasks(t *testing.T) {
	srv := fakeProvider(t, `{"tasks": [
		{"title": "Finish report", "description": "Q3 numbers", "category": "Work",
		 "priority": "High", "due_date": "2026-08-22", "estimated_hours": 3}
	]}`, http.StatusOK)
	defer srv.Close()

	drafts, err := testClient(srv).ProposeTasks(context.Background(), "finish the report by friday", today)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
	d := drafts[0]
	if d.Title != "Finish report" || d.Category != model.CategoryWork || d.Priority != model.PriorityHigh {
		t.Errorf("draft = %+v", d)
	}
	if d.DueDate == nil || !d.DueDate.Equal(time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("due date = %v", d.DueDate)
	}
	if d.EstimatedHours != 3 {
		t.Errorf("hours = %v", d.EstimatedHours)
	}
}

func TestProposeTasksStripsMarkdownFence(t *testing.T) {
	srv := fakeProvider(t, "```json\n{\"tasks\": [{\"title\": \"Walk\", \"category\": \"Health\", \"priority\": \"low\"}]}\n```", http.StatusOK)
	defer srv.Close()

	drafts, err := testClient(srv).ProposeTasks(context.Background(), "daily walk", today)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Priority != model.PriorityLow {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestProposeTasksDefaults(t *testing.T) {
	srv := fakeProvider(t, `{"tasks": [{"title": ""}]}`, http.StatusOK)
	defer srv.Close()

	drafts, err := testClient(srv).ProposeTasks(context.Background(), "something", today)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	d := drafts[0]
	if d.Title != "Untitled Task" {
		t.Errorf("title = %q", d.Title)
	}
	if d.Category != model.CategoryOther || d.Priority != model.PriorityMedium {
		t.Errorf("defaults = %q/%q", d.Category, d.Priority)
	}
	if d.DueDate == nil || !d.DueDate.Equal(today.AddDate(0, 0, 1)) {
		t.Errorf("due date = %v, want tomorrow", d.DueDate)
	}
	if d.EstimatedHours != 1 {
		t.Errorf("hours = %v, want 1", d.EstimatedHours)
	}
}

func TestProposeTasksRejectsUnknownEnum(t *testing.T) {
	srv := fakeProvider(t, `{"tasks": [{"title": "x", "category": "Chores"}]}`, http.StatusOK)
	defer srv.Close()

	_, err := testClient(srv).ProposeTasks(context.Background(), "x", today)
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}

func TestProposeTasksProviderError(t *testing.T) {
	srv := fakeProvider(t, "", http.StatusTooManyRequests)
	defer srv.Close()

	_, err := testClient(srv).ProposeTasks(context.Background(), "x", today)
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}

func TestProposeTasksMalformedOutput(t *testing.T) {
	srv := fakeProvider(t, "Sure! Here are some tasks for you.", http.StatusOK)
	defer srv.Close()

	_, err := testClient(srv).ProposeTasks(context.Background(), "x", today)
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}

func TestProposeTasksUnconfigured(t *testing.T) {
	c := NewClient(Config{})
	if c.Configured() {
		t.Error("client without key reports configured")
	}
	_, err := c.ProposeTasks(context.Background(), "x", today)
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}
