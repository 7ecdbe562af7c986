package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskFilter narrows List results. Nil fields match everything.
type TaskFilter struct {
	Status   *model.Status
	Category *model.Category
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var dueDate, completedAt sql.NullTime
	var tags string
	err := scanner.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.Priority,
		&t.Status, &dueDate, &t.EstimatedHours, &tags, &t.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

const taskCols = `id, user_id, title, description, category, priority, status, due_date, estimated_hours, tags, created_at, completed_at`

func validateDraft(d *model.TaskDraft) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidState)
	}
	if _, err := model.ParseCategory(string(d.Category)); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidState)
	}
	if _, err := model.ParsePriority(string(d.Priority)); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidState)
	}
	if d.EstimatedHours < 0 {
		return fmt.Errorf("estimated hours must be non-negative: %w", ErrInvalidState)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return nil
}

// Create inserts a new Pending task for the given user.
func (s *TaskStore) Create(userID int64, d model.TaskDraft) (*model.Task, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (user_id, title, description, category, priority, status, due_date, estimated_hours, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, d.Title, d.Description, d.Category, d.Priority, model.StatusPending,
		d.DueDate, d.EstimatedHours, string(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", mapSQLiteErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

// GetByID returns the task only if it belongs to userID. A task owned by
// another user is reported as ErrNotFound, same as a missing one.
func (s *TaskStore) GetByID(userID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List(userID int64, f TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, *f.Status)
	}
	if f.Category != nil {
		query += ` AND category = ?`
		args = append(args, *f.Category)
	}
	query += ` ORDER BY due_date IS NULL, due_date ASC, created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update replaces the task's editable fields. Status and completed_at
// are not touched here; use UpdateStatus for transitions.
func (s *TaskStore) Update(userID, id int64, d model.TaskDraft) (*model.Task, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	result, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, category = ?, priority = ?, due_date = ?, estimated_hours = ?, tags = ?
		 WHERE id = ? AND user_id = ?`,
		d.Title, d.Description, d.Category, d.Priority, d.DueDate, d.EstimatedHours, string(tags),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", mapSQLiteErr(err))
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

// UpdateStatus transitions the task and keeps the completed_at invariant
// in the same statement: stamped on entering Completed, cleared on
// leaving it. Completing an already-completed task keeps the original
// timestamp.
func (s *TaskStore) UpdateStatus(userID, id int64, status model.Status) (*model.Task, error) {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidState)
	}

	var result sql.Result
	var err error
	if status == model.StatusCompleted {
		result, err = s.db.Exec(
			`UPDATE tasks SET status = ?, completed_at = COALESCE(completed_at, ?) WHERE id = ? AND user_id = ?`,
			status, time.Now().UTC(), id, userID,
		)
	} else {
		result, err = s.db.Exec(
			`UPDATE tasks SET status = ?, completed_at = NULL WHERE id = ? AND user_id = ?`,
			status, id, userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", mapSQLiteErr(err))
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func (s *TaskStore) Delete(userID, id int64) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", mapSQLiteErr(err))
	}
	return requireRow(result)
}

// Counts returns lifetime task totals for the user.
func (s *TaskStore) Counts(userID int64) (total, completed int64, err error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*), COUNT(completed_at) FROM tasks WHERE user_id = ?`,
		userID,
	)
	if err := row.Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", mapSQLiteErr(err))
	}
	return total, completed, nil
}

// CountsCreatedSince returns totals over the window of tasks created at
// or after the cutoff.
func (s *TaskStore) CountsCreatedSince(userID int64, since time.Time) (total, completed int64, err error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*), COUNT(completed_at) FROM tasks WHERE user_id = ? AND created_at >= ?`,
		userID, since.UTC(),
	)
	if err := row.Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("count tasks since: %w", mapSQLiteErr(err))
	}
	return total, completed, nil
}

// CountCompletedSince returns how many tasks were completed at or after
// the cutoff.
func (s *TaskStore) CountCompletedSince(userID int64, since time.Time) (int64, error) {
	var n int64
	row := s.db.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND completed_at IS NOT NULL AND completed_at >= ?`,
		userID, since.UTC(),
	)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed since: %w", mapSQLiteErr(err))
	}
	return n, nil
}

// CompletionTimes returns the completed_at timestamps for the user's
// completed tasks, newest first.
func (s *TaskStore) CompletionTimes(userID int64) ([]time.Time, error) {
	rows, err := s.db.Query(
		`SELECT completed_at FROM tasks WHERE user_id = ? AND completed_at IS NOT NULL ORDER BY completed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("completion times: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan completion time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// CategoryCounts returns the number of tasks per category.
func (s *TaskStore) CategoryCounts(userID int64) (map[model.Category]int, error) {
	rows, err := s.db.Query(
		`SELECT category, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var c model.Category
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// PriorityCounts returns the number of tasks per priority.
func (s *TaskStore) PriorityCounts(userID int64) (map[model.Priority]int, error) {
	rows, err := s.db.Query(
		`SELECT priority, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY priority`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("priority counts: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	counts := make(map[model.Priority]int)
	for rows.Next() {
		var p model.Priority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		counts[p] = n
	}
	return counts, rows.Err()
}

// requireRow turns a zero-row write into ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
