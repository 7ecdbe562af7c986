package model

import "time"

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Goal struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
	Progress    int        `json:"progress"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Completed reports whether the goal has reached full progress. The
// stored status column is always derived from Progress on write, so the
// two never disagree.
func (g *Goal) Completed() bool {
	return g.Progress == 100
}
