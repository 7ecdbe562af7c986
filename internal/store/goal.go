package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var targetDate sql.NullTime
	err := scanner.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &targetDate, &g.Progress, &g.Status, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}
	return &g, nil
}

const goalCols = `id, user_id, title, description, target_date, progress, status, created_at`

// goalStatus derives the stored status column from progress so the two
// never drift apart.
func goalStatus(progress int) string {
	if progress >= 100 {
		return model.GoalCompleted
	}
	return model.GoalActive
}

func (s *GoalStore) Create(userID int64, title, description string, targetDate *time.Time) (*model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidState)
	}

	result, err := s.db.Exec(
		`INSERT INTO goals (user_id, title, description, target_date) VALUES (?, ?, ?, ?)`,
		userID, title, description, targetDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", mapSQLiteErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *GoalStore) GetByID(userID, id int64) (*model.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// List returns the user's goals, optionally filtered by status
// ("active" or "completed"; empty string means all).
func (s *GoalStore) List(userID int64, status string) ([]model.Goal, error) {
	query := `SELECT ` + goalCols + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY target_date IS NULL, target_date ASC, created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) Update(userID, id int64, title, description string, targetDate *time.Time) (*model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidState)
	}

	result, err := s.db.Exec(
		`UPDATE goals SET title = ?, description = ?, target_date = ? WHERE id = ? AND user_id = ?`,
		title, description, targetDate, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", mapSQLiteErr(err))
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

// SetProgress sets the progress percentage. Values may move downward —
// users correct overestimates — but must stay within 0..100.
func (s *GoalStore) SetProgress(userID, id int64, progress int) (*model.Goal, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("progress %d out of range: %w", progress, ErrInvalidState)
	}

	result, err := s.db.Exec(
		`UPDATE goals SET progress = ?, status = ? WHERE id = ? AND user_id = ?`,
		progress, goalStatus(progress), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("set goal progress: %w", mapSQLiteErr(err))
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func (s *GoalStore) Delete(userID, id int64) error {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", mapSQLiteErr(err))
	}
	return requireRow(result)
}

// CountActive returns how many goals are still in progress.
func (s *GoalStore) CountActive(userID int64) (int64, error) {
	var n int64
	row := s.db.QueryRow(`SELECT COUNT(*) FROM goals WHERE user_id = ? AND status = ?`, userID, model.GoalActive)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count active goals: %w", mapSQLiteErr(err))
	}
	return n, nil
}
