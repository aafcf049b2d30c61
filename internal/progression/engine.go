package progression

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
)

const (
	// BaseXPPerLevelMultiplier sets the per-level threshold: level N needs
	// N * multiplier XP to reach level N+1
	BaseXPPerLevelMultiplier = 100

	// ScenarioMasteredXP is awarded by RecordScenarioMastered itself
	ScenarioMasteredXP = 20

	// ScanXP and WordLearnedXP are awarded by the caller as a separate
	// AddXP call after the matching record operation, never fused into it
	ScanXP        = 5
	WordLearnedXP = 5

	// HighPronunciationThreshold is the score a pronunciation attempt must
	// exceed to count toward PRONUNCIATION_PRO
	HighPronunciationThreshold = 80
)

// Engine applies XP, recomputes streaks, records per-action counters and
// unlocks achievements. Every public operation is serialized by one mutex, so
// a read-modify-write on the stats row cannot race another operation.
type Engine struct {
	mu           sync.Mutex
	stats        *database.StatsRepository
	achievements *database.AchievementRepository
	now          func() time.Time

	subMu sync.Mutex
	subs  map[chan models.Achievement]struct{}
}

// New creates an engine over the given stores
func New(stats *database.StatsRepository, achievements *database.AchievementRepository) *Engine {
	return &Engine{
		stats:        stats,
		achievements: achievements,
		now:          time.Now,
		subs:         make(map[chan models.Achievement]struct{}),
	}
}

// Seed inserts the built-in achievement catalog (insert-if-absent) and makes
// sure the stats row exists. Call once at startup; safe to repeat.
func (e *Engine) Seed() error {
	if err := e.achievements.SeedIfAbsent(DefaultCatalog()); err != nil {
		return err
	}
	_, err := e.stats.EnsureExists()
	return err
}

// Unlocks returns a channel of achievement-unlocked events. The stream is
// multicast and non-replaying: a subscriber only sees unlocks that happen
// while it is subscribed. The channel closes when ctx is cancelled.
func (e *Engine) Unlocks(ctx context.Context) <-chan models.Achievement {
	ch := make(chan models.Achievement, 8)
	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	go func() {
		<-ctx.Done()
		e.subMu.Lock()
		delete(e.subs, ch)
		e.subMu.Unlock()
		close(ch)
	}()

	return ch
}

func (e *Engine) emit(a models.Achievement) {
	e.subMu.Lock()
	for ch := range e.subs {
		select {
		case ch <- a:
		default:
			// Fire-once notification, not a durable queue
		}
	}
	e.subMu.Unlock()
}

// AddXP credits XP and applies as many level-ups as the amount covers.
// The threshold is consumed iteratively because it changes with each new
// level; a single large amount may cross several levels.
func (e *Engine) AddXP(amount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addXP(amount)
}

func (e *Engine) addXP(amount int) error {
	stats, err := e.stats.EnsureExists()
	if err != nil {
		return err
	}

	currentXP := stats.CurrentXP + amount
	level := stats.Level
	threshold := stats.XPToNextLevel

	for currentXP >= threshold {
		level++
		currentXP -= threshold
		threshold = level * BaseXPPerLevelMultiplier
	}

	stats.Level = level
	stats.CurrentXP = currentXP
	stats.XPToNextLevel = threshold
	if err := e.stats.Upsert(stats); err != nil {
		return err
	}

	return e.checkAllAchievements()
}

// UpdateDayStreakOnLogin recomputes the consecutive-day streak from calendar
// dates. Same-day re-entry leaves the streak alone but still refreshes the
// last-login timestamp; a gap of more than one day resets to 1.
func (e *Engine) UpdateDayStreakOnLogin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.stats.EnsureExists()
	if err != nil {
		return err
	}

	now := e.now()
	newStreak := stats.DayStreak
	if last, ok := stats.LastLogin(); !ok {
		newStreak = 1
	} else {
		switch diff := daysBetween(last, now); {
		case diff == 1:
			newStreak++
		case diff > 1:
			newStreak = 1
		default:
			// Same day, or a clock rollback: leave the streak alone
		}
	}

	stats.DayStreak = newStreak
	stats.SetLastLogin(now)
	if err := e.stats.Upsert(stats); err != nil {
		return err
	}

	return e.checkAchievement(AchievementStreak3Days, newStreak)
}

// daysBetween returns the whole calendar days from a to b, ignoring
// time of day
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}

// RecordScan counts a completed scan. Scan XP is awarded by the caller with a
// separate AddXP(ScanXP).
func (e *Engine) RecordScan() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.stats.EnsureExists()
	if err != nil {
		return err
	}
	stats.TotalScans++
	if err := e.stats.Upsert(stats); err != nil {
		return err
	}

	snapshot, err := e.stats.GetSnapshot()
	if err != nil || snapshot == nil {
		// The increment is already committed; only the check is skipped
		log.Printf("skipping achievement check after scan: %v", err)
		return nil
	}
	return e.checkAchievement(AchievementFirstScan, snapshot.TotalScans)
}

// RecordScenarioMastered counts a mastered scenario and awards its XP
func (e *Engine) RecordScenarioMastered() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.stats.EnsureExists()
	if err != nil {
		return err
	}
	stats.ScenariosMastered++
	if err := e.stats.Upsert(stats); err != nil {
		return err
	}

	snapshot, err := e.stats.GetSnapshot()
	if err != nil || snapshot == nil {
		log.Printf("skipping achievement check after scenario: %v", err)
	} else if err := e.checkAchievement(AchievementScenarioAce, snapshot.ScenariosMastered); err != nil {
		return err
	}

	return e.addXP(ScenarioMasteredXP)
}

// RecordPronunciationScore counts a high pronunciation score (above the
// threshold) and awards score/10 XP regardless of the threshold branch
func (e *Engine) RecordPronunciationScore(score int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if score > HighPronunciationThreshold {
		stats, err := e.stats.EnsureExists()
		if err != nil {
			return err
		}
		stats.HighPronunciationScores++
		if err := e.stats.Upsert(stats); err != nil {
			return err
		}

		snapshot, err := e.stats.GetSnapshot()
		if err != nil || snapshot == nil {
			log.Printf("skipping achievement check after pronunciation: %v", err)
		} else if err := e.checkAchievement(AchievementPronunciationPro, snapshot.HighPronunciationScores); err != nil {
			return err
		}
	}

	return e.addXP(score / 10)
}

// RecordWordsLearned adds count to the learned-words counter. Word XP is
// awarded by the caller with a separate AddXP(WordLearnedXP) per word.
func (e *Engine) RecordWordsLearned(count int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.stats.EnsureExists()
	if err != nil {
		return err
	}
	stats.WordsLearned += count
	if err := e.stats.Upsert(stats); err != nil {
		return err
	}

	snapshot, err := e.stats.GetSnapshot()
	if err != nil || snapshot == nil {
		log.Printf("skipping achievement check after words learned: %v", err)
		return nil
	}
	return e.checkAchievement(AchievementWordCollector10, snapshot.WordsLearned)
}

// checkAchievement runs the threshold test for one achievement id against the
// given progress value. Unknown ids never unlock and are not an error.
func (e *Engine) checkAchievement(id string, progress int) error {
	achievement, err := e.achievements.GetByID(id)
	if err != nil {
		return err
	}
	if achievement == nil || achievement.IsUnlocked {
		return nil
	}
	if progress >= achievement.RequiredCount {
		return e.unlockAchievement(achievement)
	}
	return nil
}

// checkAllAchievements re-evaluates every locked achievement against the
// current counters. Run after every XP change; usually a no-op.
func (e *Engine) checkAllAchievements() error {
	stats, err := e.stats.GetSnapshot()
	if err != nil || stats == nil {
		return err
	}
	achievements, err := e.achievements.GetAll()
	if err != nil {
		return err
	}
	for i := range achievements {
		a := achievements[i]
		if a.IsUnlocked {
			continue
		}
		if progressValue(stats, a.ID) >= a.RequiredCount {
			if err := e.unlockAchievement(&a); err != nil {
				return err
			}
		}
	}
	return nil
}

// unlockAchievement performs the conditional unlock. Only the caller that
// actually changed the row awards the reward XP and emits the event, so a
// lost race costs nothing.
func (e *Engine) unlockAchievement(achievement *models.Achievement) error {
	now := e.now()
	rows, err := e.achievements.UnlockIfLocked(achievement.ID, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	if err := e.addXP(achievement.XPReward); err != nil {
		return err
	}

	unlocked := *achievement
	unlocked.IsUnlocked = true
	unlocked.UnlockDate = sql.NullInt64{Int64: now.UnixMilli(), Valid: true}
	e.emit(unlocked)
	return nil
}
