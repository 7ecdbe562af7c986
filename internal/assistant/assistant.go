// Package assistant bridges free-form natural language to structured
// task proposals via a hosted text-generation API. The bridge only
// proposes: drafts it returns are applied through the same store path
// as manual entry, so no invariant check is bypassed.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

// ErrExternalService wraps every provider failure: transport errors,
// non-200 statuses, rate limits, and unparseable output. The caller gets
// one reported error; the bridge never retries on its own.
var ErrExternalService = errors.New("assistant service error")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
)

const systemPrompt = `You are a productivity assistant. Convert user requests into structured tasks.
Return ONLY a valid JSON object with a "tasks" key containing an array of task objects.
Each task must have: title, description, category (Work/Personal/Health/Learning/Finance/Other),
priority (High/Medium/Low), due_date (YYYY-MM-DD), estimated_hours (number).`

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	config     Config
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// proposal mirrors the JSON shape the model is instructed to emit.
type proposal struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Priority       string  `json:"priority"`
	DueDate        string  `json:"due_date"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// ProposeTasks sends the user's request to the provider and returns
// validated task drafts. Missing fields are defaulted (category Other,
// priority Medium, due date tomorrow, one estimated hour); values
// outside the closed enums make the whole response malformed.
func (c *Client) ProposeTasks(ctx context.Context, userPrompt string, today time.Time) ([]model.TaskDraft, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("missing API key: %w", ErrExternalService)
	}

	text, err := c.generate(ctx, systemPrompt+"\n\n"+userPrompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tasks []proposal `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		return nil, fmt.Errorf("parse model output: %v: %w", err, ErrExternalService)
	}

	drafts := make([]model.TaskDraft, 0, len(payload.Tasks))
	for _, p := range payload.Tasks {
		d, err := p.toDraft(today)
		if err != nil {
			return nil, fmt.Errorf("invalid proposal: %v: %w", err, ErrExternalService)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request: %v: %w", err, ErrExternalService)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %w", resp.StatusCode, ErrExternalService)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode provider response: %v: %w", err, ErrExternalService)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty provider response: %w", ErrExternalService)
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences unwraps a markdown code fence if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func (p proposal) toDraft(today time.Time) (model.TaskDraft, error) {
	var d model.TaskDraft

	d.Title = strings.TrimSpace(p.Title)
	if d.Title == "" {
		d.Title = "Untitled Task"
	}
	d.Description = p.Description

	category, err := parseCategory(p.Category)
	if err != nil {
		return d, err
	}
	d.Category = category

	priority, err := parsePriority(p.Priority)
	if err != nil {
		return d, err
	}
	d.Priority = priority

	if p.DueDate == "" {
		tomorrow := today.AddDate(0, 0, 1)
		d.DueDate = &tomorrow
	} else {
		due, err := time.Parse("2006-01-02", p.DueDate)
		if err != nil {
			return d, fmt.Errorf("due date %q", p.DueDate)
		}
		d.DueDate = &due
	}

	if p.EstimatedHours < 0 {
		return d, fmt.Errorf("estimated hours %v", p.EstimatedHours)
	}
	d.EstimatedHours = p.EstimatedHours
	if d.EstimatedHours == 0 {
		d.EstimatedHours = 1
	}

	d.Tags = []string{}
	return d, nil
}

// parseCategory matches case-insensitively and defaults the empty
// string; a non-empty unknown value is malformed output, not a default.
func parseCategory(s string) (model.Category, error) {
	if s == "" {
		return model.CategoryOther, nil
	}
	for _, c := range model.Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("category %q", s)
}

func parsePriority(s string) (model.Priority, error) {
	if s == "" {
		return model.PriorityMedium, nil
	}
	for _, p := range model.Priorities() {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("priority %q", s)
}
