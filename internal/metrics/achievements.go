package metrics

import (
	"time"

	"github.com/rdavies/planwell/internal/model"
)

// badge pairs an achievement kind with its unlock predicate input: a
// lifetime completed-task threshold or a streak-length threshold.
type badge struct {
	kind        model.AchievementKind
	name        string
	description string
	icon        string
	completed   int64 // unlock when lifetime completions reach this
	streak      int   // unlock when current streak reaches this
}

var badges = []badge{
	{kind: model.FirstSteps, name: "First Steps", description: "Completed 5 tasks", icon: "🌱", completed: 5},
	{kind: model.GettingStarted, name: "Getting Started", description: "Completed 25 tasks", icon: "🚀", completed: 25},
	{kind: model.HalfwayHero, name: "Halfway Hero", description: "Completed 50 tasks", icon: "⭐", completed: 50},
	{kind: model.CenturyClub, name: "Century Club", description: "Completed 100 tasks", icon: "💯", completed: 100},
	{kind: model.WeekWarrior, name: "Week Warrior", description: "7-day streak", icon: "🔥", streak: 7},
	{kind: model.MonthlyMaster, name: "Monthly Master", description: "30-day streak", icon: "👑", streak: 30},
}

func (b badge) unlocked(completed int64, streak int) bool {
	if b.completed > 0 {
		return completed >= b.completed
	}
	return streak >= b.streak
}

// Evaluate inserts an achievement row for every badge whose predicate
// newly holds and returns the kinds unlocked by this call. Safe to run
// after every completion: already-held badges are skipped and the
// UNIQUE(user_id, kind) index absorbs races between evaluations.
func (e *Engine) Evaluate(userID int64, now time.Time) ([]model.AchievementKind, error) {
	_, completed, err := e.tasks.Counts(userID)
	if err != nil {
		return nil, err
	}
	streak, err := e.Streak(userID, now)
	if err != nil {
		return nil, err
	}

	var unlocked []model.AchievementKind
	for _, b := range badges {
		if !b.unlocked(completed, streak) {
			continue
		}
		has, err := e.achievements.Has(userID, b.kind)
		if err != nil {
			return unlocked, err
		}
		if has {
			continue
		}
		inserted, err := e.achievements.Insert(userID, b.kind, b.name, b.description, b.icon, now)
		if err != nil {
			return unlocked, err
		}
		if inserted {
			e.logger.Info("achievement unlocked", "user_id", userID, "kind", b.kind)
			unlocked = append(unlocked, b.kind)
		}
	}
	return unlocked, nil
}
