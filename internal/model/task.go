package model

import (
	"fmt"
	"time"
)

// Category, Priority and Status are closed enumerations. Values arriving
// from the outside (forms, assistant proposals) must go through the Parse
// functions; unknown strings are rejected, never coerced.

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryHealth   Category = "Health"
	CategoryLearning Category = "Learning"
	CategoryFinance  Category = "Finance"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryWork, CategoryPersonal, CategoryHealth,
		CategoryLearning, CategoryFinance, CategoryOther,
	}
}

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryWork, CategoryPersonal, CategoryHealth,
		CategoryLearning, CategoryFinance, CategoryOther:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

type Task struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       Category   `json:"category"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours float64    `json:"estimated_hours"`
	Tags           []string   `json:"tags"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// TaskDraft is a task proposal before it has an identity: what the
// assistant bridge produces and what create requests reduce to.
type TaskDraft struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       Category   `json:"category"`
	Priority       Priority   `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours float64    `json:"estimated_hours"`
	Tags           []string   `json:"tags"`
}
