package models

import (
	"database/sql"
	"time"
)

// UserStatsID is the fixed primary key of the single user_stats row.
// The app tracks one signed-in profile per device.
const UserStatsID = 1

// UserStats holds the gamified progress of the current user
type UserStats struct {
	ID                      int           `json:"id" db:"id"`
	Level                   int           `json:"level" db:"level"`
	CurrentXP               int           `json:"current_xp" db:"current_xp"`
	XPToNextLevel           int           `json:"xp_to_next_level" db:"xp_to_next_level"` // threshold for the current level
	DayStreak               int           `json:"day_streak" db:"day_streak"`
	LastLoginDate           sql.NullInt64 `json:"last_login_date" db:"last_login_date"` // epoch milliseconds
	TotalScans              int           `json:"total_scans" db:"total_scans"`
	ScenariosMastered       int           `json:"scenarios_mastered" db:"scenarios_mastered"`
	HighPronunciationScores int           `json:"high_pronunciation_scores" db:"high_pronunciation_scores"` // scores above 80
	WordsLearned            int           `json:"words_learned" db:"words_learned"`
}

// NewUserStats returns the default stats for a fresh profile
func NewUserStats() *UserStats {
	return &UserStats{
		ID:            UserStatsID,
		Level:         1,
		CurrentXP:     0,
		XPToNextLevel: 100,
		DayStreak:     0,
	}
}

// LastLogin returns the last login time, if any
func (s *UserStats) LastLogin() (time.Time, bool) {
	if !s.LastLoginDate.Valid {
		return time.Time{}, false
	}
	return time.UnixMilli(s.LastLoginDate.Int64), true
}

// SetLastLogin records the last login time as epoch milliseconds
func (s *UserStats) SetLastLogin(t time.Time) {
	s.LastLoginDate = sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
