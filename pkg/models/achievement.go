package models

import (
	"database/sql"
	"time"
)

// Achievement represents a one-time-unlockable milestone
type Achievement struct {
	ID            string        `json:"id" db:"id"` // stable key, e.g. "FIRST_SCAN"
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Icon          string        `json:"icon" db:"icon"`
	XPReward      int           `json:"xp_reward" db:"xp_reward"`
	IsUnlocked    bool          `json:"is_unlocked" db:"is_unlocked"`
	UnlockDate    sql.NullInt64 `json:"unlock_date" db:"unlock_date"` // epoch milliseconds
	RequiredCount int           `json:"required_count" db:"required_count"`
}

// UnlockedAt returns the unlock time, if the achievement has been unlocked
func (a *Achievement) UnlockedAt() (time.Time, bool) {
	if !a.UnlockDate.Valid {
		return time.Time{}, false
	}
	return time.UnixMilli(a.UnlockDate.Int64), true
}
