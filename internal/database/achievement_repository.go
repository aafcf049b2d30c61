package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bisbi/pkg/models"
)

// AchievementRepository handles database operations for the achievement catalog
type AchievementRepository struct{}

// NewAchievementRepository creates a new repository instance
func NewAchievementRepository() *AchievementRepository {
	return &AchievementRepository{}
}

// GetAll returns the full achievement catalog
func (r *AchievementRepository) GetAll() ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := DB.Select(&achievements, "SELECT * FROM achievements ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %v", err)
	}
	return achievements, nil
}

// GetByID returns one achievement. Returns (nil, nil) for an unknown id;
// the progression engine treats that as "never unlocks", not an error.
func (r *AchievementRepository) GetByID(id string) (*models.Achievement, error) {
	var achievement models.Achievement
	err := DB.Get(&achievement, "SELECT * FROM achievements WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement by ID: %v", err)
	}
	return &achievement, nil
}

// SeedIfAbsent inserts catalog entries that do not exist yet. Existing rows,
// unlocked or not, are never overwritten; safe to call on every startup.
func (r *AchievementRepository) SeedIfAbsent(achievements []models.Achievement) error {
	query := `
		INSERT INTO achievements (id, name, description, icon, xp_reward, is_unlocked, unlock_date, required_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	for _, a := range achievements {
		_, err := DB.Exec(
			query,
			a.ID,
			a.Name,
			a.Description,
			a.Icon,
			a.XPReward,
			a.IsUnlocked,
			a.UnlockDate,
			a.RequiredCount,
		)
		if err != nil {
			return fmt.Errorf("failed to seed achievement %s: %v", a.ID, err)
		}
	}
	achievementNotifier.broadcast()
	return nil
}

// UnlockIfLocked flips the achievement to unlocked and stamps the unlock date,
// only if it is currently locked. Returns the number of rows changed (0 or 1).
// The single conditional statement is the at-most-once unlock guard: two
// concurrent callers cannot both observe a row change for the same id.
func (r *AchievementRepository) UnlockIfLocked(id string, unlockTime time.Time) (int64, error) {
	result, err := DB.Exec(
		"UPDATE achievements SET is_unlocked = 1, unlock_date = $1 WHERE id = $2 AND is_unlocked = 0",
		unlockTime.UnixMilli(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to unlock achievement: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows > 0 {
		achievementNotifier.broadcast()
	}
	return rows, nil
}

// Watch returns a live stream of the full catalog, re-emitted after every
// committed change
func (r *AchievementRepository) Watch(ctx context.Context) <-chan []models.Achievement {
	out := make(chan []models.Achievement, 1)
	sig := achievementNotifier.subscribe()

	go func() {
		defer close(out)
		defer achievementNotifier.unsubscribe(sig)

		emit := func() {
			achievements, err := r.GetAll()
			if err != nil {
				return
			}
			select {
			case out <- achievements:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- achievements:
				default:
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				emit()
			}
		}
	}()

	return out
}
