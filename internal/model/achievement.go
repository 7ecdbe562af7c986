package model

import "time"

type AchievementKind string

const (
	FirstSteps     AchievementKind = "first_steps"
	GettingStarted AchievementKind = "getting_started"
	HalfwayHero    AchievementKind = "halfway_hero"
	CenturyClub    AchievementKind = "century_club"
	WeekWarrior    AchievementKind = "week_warrior"
	MonthlyMaster  AchievementKind = "monthly_master"
)

// Achievement is a one-time unlock record. Rows are append-only: created
// once when the unlock condition first holds, never mutated or deleted.
type Achievement struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Kind        AchievementKind `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	EarnedAt    time.Time       `json:"earned_at"`
}
