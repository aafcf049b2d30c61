package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/bisbi/pkg/models"
)

// StatsRepository handles database operations for the single user stats row
type StatsRepository struct{}

// NewStatsRepository creates a new repository instance
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// GetSnapshot returns a point-in-time read of the stats row.
// Returns (nil, nil) when the row does not exist yet.
func (r *StatsRepository) GetSnapshot() (*models.UserStats, error) {
	var stats models.UserStats
	err := DB.Get(&stats, "SELECT * FROM user_stats WHERE id = $1", models.UserStatsID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %v", err)
	}
	return &stats, nil
}

// Upsert replaces the stats row entirely (last-writer-wins)
func (r *StatsRepository) Upsert(stats *models.UserStats) error {
	stats.ID = models.UserStatsID
	query := `
		INSERT INTO user_stats (
			id, level, current_xp, xp_to_next_level, day_streak, last_login_date,
			total_scans, scenarios_mastered, high_pronunciation_scores, words_learned
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			level = excluded.level,
			current_xp = excluded.current_xp,
			xp_to_next_level = excluded.xp_to_next_level,
			day_streak = excluded.day_streak,
			last_login_date = excluded.last_login_date,
			total_scans = excluded.total_scans,
			scenarios_mastered = excluded.scenarios_mastered,
			high_pronunciation_scores = excluded.high_pronunciation_scores,
			words_learned = excluded.words_learned
	`
	_, err := DB.Exec(
		query,
		stats.ID,
		stats.Level,
		stats.CurrentXP,
		stats.XPToNextLevel,
		stats.DayStreak,
		stats.LastLoginDate,
		stats.TotalScans,
		stats.ScenariosMastered,
		stats.HighPronunciationScores,
		stats.WordsLearned,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user stats: %v", err)
	}
	statsNotifier.broadcast()
	return nil
}

// EnsureExists creates the default stats row if it is absent
func (r *StatsRepository) EnsureExists() (*models.UserStats, error) {
	stats, err := r.GetSnapshot()
	if err != nil {
		return nil, err
	}
	if stats != nil {
		return stats, nil
	}
	stats = models.NewUserStats()
	if err := r.Upsert(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Watch returns a live stream of the stats row. The current row (if any) is
// emitted immediately, then again after every committed write. Emissions
// conflate: a slow receiver observes the latest state, not every intermediate.
func (r *StatsRepository) Watch(ctx context.Context) <-chan models.UserStats {
	out := make(chan models.UserStats, 1)
	sig := statsNotifier.subscribe()

	go func() {
		defer close(out)
		defer statsNotifier.unsubscribe(sig)

		emit := func() {
			stats, err := r.GetSnapshot()
			if err != nil || stats == nil {
				return
			}
			select {
			case out <- *stats:
			default:
				// Replace the pending value with the newer one
				select {
				case <-out:
				default:
				}
				select {
				case out <- *stats:
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
