package metrics

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/rdavies/planwell/internal/database"
	"github.com/rdavies/planwell/internal/model"
	"github.com/rdavies/planwell/internal/store"
)

type fixture struct {
	db     *sql.DB
	tasks  *store.TaskStore
	goals  *store.GoalStore
	engine *Engine
	userID int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create("alice", "pw", "", model.RoleStandard)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tasks := store.NewTaskStore(db)
	goals := store.NewGoalStore(db)
	achievements := store.NewAchievementStore(db)
	return &fixture{
		db:     db,
		tasks:  tasks,
		goals:  goals,
		engine: NewEngine(tasks, goals, achievements, slog.Default()),
		userID: u.ID,
	}
}

// completeOn creates a task and backdates its completion to the given day.
func (f *fixture) completeOn(t *testing.T, day time.Time) {
	t.Helper()
	task, err := f.tasks.Create(f.userID, model.TaskDraft{
		Title:    "t",
		Category: model.CategoryWork,
		Priority: model.PriorityLow,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := f.tasks.UpdateStatus(f.userID, task.ID, model.StatusCompleted); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if _, err := f.db.Exec(`UPDATE tasks SET completed_at = ? WHERE id = ?`, day.UTC(), task.ID); err != nil {
		t.Fatalf("backdate completion: %v", err)
	}
}

func day(offset int) time.Time {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestCompletionRateEmptyWindow(t *testing.T) {
	f := setup(t)

	rate, err := f.engine.CompletionRate(f.userID, day(-30))
	if err != nil {
		t.Fatalf("completion rate: %v", err)
	}
	if rate != 0 {
		t.Errorf("rate = %v, want 0 for empty window", rate)
	}
}

func TestCompletionRate(t *testing.T) {
	f := setup(t)

	task, _ := f.tasks.Create(f.userID, model.TaskDraft{Title: "a", Category: model.CategoryWork, Priority: model.PriorityLow})
	f.tasks.Create(f.userID, model.TaskDraft{Title: "b", Category: model.CategoryWork, Priority: model.PriorityLow})
	f.tasks.UpdateStatus(f.userID, task.ID, model.StatusCompleted)

	rate, err := f.engine.CompletionRate(f.userID, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("completion rate: %v", err)
	}
	if rate != 50 {
		t.Errorf("rate = %v, want 50", rate)
	}
}

func TestStreakEmptyData(t *testing.T) {
	f := setup(t)

	streak, err := f.engine.Streak(f.userID, day(0))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Errorf("streak = %d, want 0", streak)
	}
}

func TestStreakMissingTodayDoesNotBreak(t *testing.T) {
	f := setup(t)

	// Completions on today-1, today-2, today-3; none on today-4 or today.
	f.completeOn(t, day(-1))
	f.completeOn(t, day(-2))
	f.completeOn(t, day(-3))

	streak, err := f.engine.Streak(f.userID, day(0))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 3 {
		t.Errorf("streak = %d, want 3", streak)
	}
}

func TestStreakTodayCounts(t *testing.T) {
	f := setup(t)

	f.completeOn(t, day(0))
	f.completeOn(t, day(-1))

	streak, err := f.engine.Streak(f.userID, day(0))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 2 {
		t.Errorf("streak = %d, want 2", streak)
	}
}

func TestStreakBreaksOnGap(t *testing.T) {
	f := setup(t)

	f.completeOn(t, day(0))
	f.completeOn(t, day(-1))
	// gap at -2
	f.completeOn(t, day(-3))

	streak, err := f.engine.Streak(f.userID, day(0))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 2 {
		t.Errorf("streak = %d, want 2", streak)
	}
}

func TestStreakMultipleCompletionsSameDay(t *testing.T) {
	f := setup(t)

	f.completeOn(t, day(-1))
	f.completeOn(t, day(-1).Add(3*time.Hour))

	streak, err := f.engine.Streak(f.userID, day(0))
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 1 {
		t.Errorf("streak = %d, want 1", streak)
	}
}

func TestCategoryBreakdownZeroFill(t *testing.T) {
	f := setup(t)

	f.tasks.Create(f.userID, model.TaskDraft{Title: "a", Category: model.CategoryHealth, Priority: model.PriorityLow})

	counts, err := f.engine.CategoryBreakdown(f.userID, true)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(counts) != len(model.Categories()) {
		t.Errorf("zero-filled breakdown has %d keys, want %d", len(counts), len(model.Categories()))
	}
	if counts[model.CategoryHealth] != 1 || counts[model.CategoryFinance] != 0 {
		t.Errorf("counts = %v", counts)
	}

	sparse, err := f.engine.CategoryBreakdown(f.userID, false)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(sparse) != 1 {
		t.Errorf("sparse breakdown = %v", sparse)
	}
}

func TestStatsFreshUser(t *testing.T) {
	f := setup(t)

	stats, err := f.engine.Stats(f.userID, day(0))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 0 || stats.CompletionRate != 0 || stats.Streak != 0 || stats.ActiveGoals != 0 {
		t.Errorf("fresh user stats = %+v", stats)
	}
}

func TestStatsScenario(t *testing.T) {
	f := setup(t)

	// Five completions on five consecutive days ending yesterday.
	for i := 1; i <= 5; i++ {
		f.completeOn(t, day(-i))
	}
	f.goals.Create(f.userID, "goal", "", nil)

	stats, err := f.engine.Stats(f.userID, day(0))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 5 || stats.CompletedTasks != 5 {
		t.Errorf("totals = %d/%d", stats.CompletedTasks, stats.TotalTasks)
	}
	if stats.CompletionRate != 100 {
		t.Errorf("rate = %v, want 100", stats.CompletionRate)
	}
	if stats.Streak != 5 {
		t.Errorf("streak = %d, want 5", stats.Streak)
	}
	if stats.ActiveGoals != 1 {
		t.Errorf("active goals = %d, want 1", stats.ActiveGoals)
	}
}
