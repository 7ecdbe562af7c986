// Package metrics computes derived read-side views over the record
// stores: completion rates, streaks, breakdowns and achievement
// unlocks. Nothing here is persisted except achievement rows; every
// value is recomputed from current data on each call.
package metrics

import (
	"log/slog"
	"time"

	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

type Engine struct {
	tasks        *store.TaskStore
	goals        *store.GoalStore
	achievements *store.AchievementStore
	logger       *slog.Logger
}

func NewEngine(tasks *store.TaskStore, goals *store.GoalStore, achievements *store.AchievementStore, logger *slog.Logger) *Engine {
	return &Engine{tasks: tasks, goals: goals, achievements: achievements, logger: logger}
}

// Stats is the dashboard aggregate.
type Stats struct {
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	WeekCompleted  int64   `json:"week_completed"`
	CompletionRate float64 `json:"completion_rate"` // percent, 0-100
	Streak         int     `json:"streak"`
	ActiveGoals    int64   `json:"active_goals"`
}

// CompletionRate returns completed/total as a percentage over tasks
// created at or after the cutoff. An empty window is 0, never an error.
func (e *Engine) CompletionRate(userID int64, since time.Time) (float64, error) {
	total, completed, err := e.tasks.CountsCreatedSince(userID, since)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(completed) / float64(total) * 100, nil
}

// Streak counts consecutive calendar days with at least one completion,
// walking backward from today. A day with a completion today counts; a
// today with none yet does not break the run, it just doesn't extend it.
func (e *Engine) Streak(userID int64, today time.Time) (int, error) {
	times, err := e.tasks.CompletionTimes(userID)
	if err != nil {
		return 0, err
	}
	return streakFrom(completionDays(times), midnight(today)), nil
}

// completionDays reduces timestamps (newest first) to distinct calendar
// days, still newest first.
func completionDays(times []time.Time) []time.Time {
	var days []time.Time
	for _, t := range times {
		d := midnight(t)
		if len(days) == 0 || !days[len(days)-1].Equal(d) {
			days = append(days, d)
		}
	}
	return days
}

func streakFrom(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	cursor := today
	if !days[0].Equal(today) {
		// Nothing completed yet today; the streak stands as of yesterday.
		cursor = today.AddDate(0, 0, -1)
	}

	streak := 0
	for _, d := range days {
		if !d.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CategoryBreakdown returns task counts per category. With zeroFill the
// full enum set is present, empty categories included.
func (e *Engine) CategoryBreakdown(userID int64, zeroFill bool) (map[model.Category]int, error) {
	counts, err := e.tasks.CategoryCounts(userID)
	if err != nil {
		return nil, err
	}
	if zeroFill {
		for _, c := range model.Categories() {
			if _, ok := counts[c]; !ok {
				counts[c] = 0
			}
		}
	}
	return counts, nil
}

// PriorityBreakdown returns task counts per priority, zero-filled over
// the enum set on request.
func (e *Engine) PriorityBreakdown(userID int64, zeroFill bool) (map[model.Priority]int, error) {
	counts, err := e.tasks.PriorityCounts(userID)
	if err != nil {
		return nil, err
	}
	if zeroFill {
		for _, p := range model.Priorities() {
			if _, ok := counts[p]; !ok {
				counts[p] = 0
			}
		}
	}
	return counts, nil
}

// Stats assembles the dashboard numbers in one call.
func (e *Engine) Stats(userID int64, now time.Time) (*Stats, error) {
	total, completed, err := e.tasks.Counts(userID)
	if err != nil {
		return nil, err
	}

	weekCompleted, err := e.tasks.CountCompletedSince(userID, now.UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	streak, err := e.Streak(userID, now)
	if err != nil {
		return nil, err
	}

	activeGoals, err := e.goals.CountActive(userID)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		TotalTasks:     total,
		CompletedTasks: completed,
		WeekCompleted:  weekCompleted,
		Streak:         streak,
		ActiveGoals:    activeGoals,
	}
	if total > 0 {
		s.CompletionRate = float64(completed) / float64(total) * 100
	}
	return s, nil
}
