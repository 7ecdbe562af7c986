package metrics

import (
	"testing"

	"github.com/rdavies/planwell/internal/model"
)

func containsKind(kinds []model.AchievementKind, kind model.AchievementKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func TestEvaluateFirstSteps(t *testing.T) {
	f := setup(t)

	for i := 0; i < 4; i++ {
		f.completeOn(t, day(-1))
	}
	unlocked, err := f.engine.Evaluate(f.userID, day(0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(unlocked) != 0 {
		t.Errorf("unlocked %v after 4 completions", unlocked)
	}

	// The 5th completion crosses the threshold.
	f.completeOn(t, day(-1))
	unlocked, err = f.engine.Evaluate(f.userID, day(0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !containsKind(unlocked, model.FirstSteps) {
		t.Errorf("unlocked = %v, want first_steps", unlocked)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	f := setup(t)

	for i := 0; i < 6; i++ {
		f.completeOn(t, day(-1))
	}
	if _, err := f.engine.Evaluate(f.userID, day(0)); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	unlocked, err := f.engine.Evaluate(f.userID, day(0))
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(unlocked) != 0 {
		t.Errorf("re-evaluation unlocked %v again", unlocked)
	}

	list, err := f.engine.achievements.List(f.userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("achievement rows = %d, want exactly 1", len(list))
	}
	if list[0].Kind != model.FirstSteps {
		t.Errorf("kind = %q", list[0].Kind)
	}
}

func TestEvaluateStreakBadge(t *testing.T) {
	f := setup(t)

	// A 7-day streak with only 7 completions: Week Warrior unlocks on
	// streak length, First Steps on the count, and the count-only badges
	// past 7 stay locked.
	for i := 1; i <= 7; i++ {
		f.completeOn(t, day(-i))
	}

	unlocked, err := f.engine.Evaluate(f.userID, day(0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !containsKind(unlocked, model.WeekWarrior) {
		t.Errorf("unlocked = %v, want week_warrior", unlocked)
	}
	if !containsKind(unlocked, model.FirstSteps) {
		t.Errorf("unlocked = %v, want first_steps too", unlocked)
	}
	if containsKind(unlocked, model.GettingStarted) {
		t.Errorf("getting_started should need 25 completions, got unlocked at 7")
	}
}

func TestEvaluateBrokenStreakKeepsBadge(t *testing.T) {
	f := setup(t)

	for i := 1; i <= 7; i++ {
		f.completeOn(t, day(-i))
	}
	if _, err := f.engine.Evaluate(f.userID, day(0)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Ten days later the streak is gone, but the unlock is append-only.
	streak, err := f.engine.Streak(f.userID, day(10))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Errorf("streak = %d, want 0 after gap", streak)
	}
	has, err := f.engine.achievements.Has(f.userID, model.WeekWarrior)
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if !has {
		t.Error("week_warrior badge should survive a broken streak")
	}
}
