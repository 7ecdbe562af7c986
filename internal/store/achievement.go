package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rdavies/planwell/internal/model"
)

type AchievementStore struct {
	db *sql.DB
}

func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

func scanAchievement(scanner interface{ Scan(...any) error }) (*model.Achievement, error) {
	var a model.Achievement
	err := scanner.Scan(&a.ID, &a.UserID, &a.Kind, &a.Name, &a.Description, &a.Icon, &a.EarnedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const achievementCols = `id, user_id, kind, name, description, icon, earned_at`

// Insert records an unlock. Achievements are append-only and keyed by
// (user, kind); inserting an already-unlocked kind is a no-op, which
// keeps re-evaluation idempotent even when two requests race.
func (s *AchievementStore) Insert(userID int64, kind model.AchievementKind, name, description, icon string, earnedAt time.Time) (bool, error) {
	_, err := s.db.Exec(
		`INSERT INTO achievements (user_id, kind, name, description, icon, earned_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, kind, name, description, icon, earnedAt.UTC(),
	)
	if err != nil {
		mapped := mapSQLiteErr(err)
		if errors.Is(mapped, ErrDuplicateEntry) {
			return false, nil
		}
		return false, fmt.Errorf("insert achievement: %w", mapped)
	}
	return true, nil
}

// Has reports whether the user already holds the given kind.
func (s *AchievementStore) Has(userID int64, kind model.AchievementKind) (bool, error) {
	var one int
	row := s.db.QueryRow(`SELECT 1 FROM achievements WHERE user_id = ? AND kind = ?`, userID, kind)
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check achievement: %w", err)
	}
	return true, nil
}

func (s *AchievementStore) List(userID int64) ([]model.Achievement, error) {
	rows, err := s.db.Query(
		`SELECT `+achievementCols+` FROM achievements WHERE user_id = ? ORDER BY earned_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, *a)
	}
	return achievements, rows.Err()
}
