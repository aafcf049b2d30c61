package progression

import (
	"context"
	"testing"
	"time"

	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	require.NoError(t, database.OpenSQLite(":memory:"))
	t.Cleanup(func() { database.Close() })

	e := New(database.NewStatsRepository(), database.NewAchievementRepository())
	require.NoError(t, e.Seed())
	return e
}

func TestAddXPSingleLevel(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddXP(40))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 40, stats.CurrentXP)
	assert.Equal(t, 100, stats.XPToNextLevel)
}

func TestAddXPCarriesAcrossLevels(t *testing.T) {
	e := newTestEngine(t)

	// 250 XP from level 1: consume 100 to reach level 2, leaving 150
	// against the new 200 threshold
	require.NoError(t, e.AddXP(250))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Level)
	assert.Equal(t, 150, stats.CurrentXP)
	assert.Equal(t, 200, stats.XPToNextLevel)
}

func TestAddXPExactThreshold(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddXP(100))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Level)
	assert.Equal(t, 0, stats.CurrentXP)
	assert.Equal(t, 200, stats.XPToNextLevel)
}

func TestAddXPCrossesSeveralLevels(t *testing.T) {
	e := newTestEngine(t)

	// 100 + 200 + 300 = 600 consumed, 50 left over at level 4
	require.NoError(t, e.AddXP(650))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Level)
	assert.Equal(t, 50, stats.CurrentXP)
	assert.Equal(t, 400, stats.XPToNextLevel)
}

func TestDayStreakFirstLogin(t *testing.T) {
	e := newTestEngine(t)
	e.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, e.UpdateDayStreakOnLogin())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DayStreak)

	last, ok := stats.LastLogin()
	require.True(t, ok)
	assert.Equal(t, 10, last.Day())
}

func TestDayStreakConsecutiveDays(t *testing.T) {
	e := newTestEngine(t)
	day := func(d int) func() time.Time {
		return func() time.Time { return time.Date(2026, 3, d, 20, 0, 0, 0, time.UTC) }
	}

	e.now = day(10)
	require.NoError(t, e.UpdateDayStreakOnLogin())
	e.now = day(11)
	require.NoError(t, e.UpdateDayStreakOnLogin())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DayStreak)
}

func TestDayStreakSameDayIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }
	require.NoError(t, e.UpdateDayStreakOnLogin())

	// Later the same calendar day
	e.now = func() time.Time { return time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC) }
	require.NoError(t, e.UpdateDayStreakOnLogin())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DayStreak)
}

func TestDayStreakResetsAfterGap(t *testing.T) {
	e := newTestEngine(t)
	day := func(d int) func() time.Time {
		return func() time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	}

	e.now = day(10)
	require.NoError(t, e.UpdateDayStreakOnLogin())
	e.now = day(11)
	require.NoError(t, e.UpdateDayStreakOnLogin())
	e.now = day(14)
	require.NoError(t, e.UpdateDayStreakOnLogin())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DayStreak)
}

func TestDayStreakUnlocksAfterThreeDays(t *testing.T) {
	e := newTestEngine(t)
	for d := 10; d <= 12; d++ {
		day := d
		e.now = func() time.Time { return time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC) }
		require.NoError(t, e.UpdateDayStreakOnLogin())
	}

	a, err := e.achievements.GetByID(AchievementStreak3Days)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.IsUnlocked)
	assert.True(t, a.UnlockDate.Valid)
}

func TestRecordScanUnlocksFirstScan(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordScan())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalScans)
	// FIRST_SCAN reward, no scan XP here: that is the caller's separate AddXP
	assert.Equal(t, 10, stats.CurrentXP)

	a, err := e.achievements.GetByID(AchievementFirstScan)
	require.NoError(t, err)
	assert.True(t, a.IsUnlocked)
}

func TestUnlockHappensAtMostOnce(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordScan())
	require.NoError(t, e.RecordScan())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScans)
	// A second scan must not award the FIRST_SCAN reward again
	assert.Equal(t, 10, stats.CurrentXP)
}

func TestRecordScenarioMastered(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordScenarioMastered())

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ScenariosMastered)
	// SCENARIO_ACE reward (20) plus the mastery XP (20)
	assert.Equal(t, 40, stats.CurrentXP)
}

func TestRecordPronunciationAboveThreshold(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordPronunciationScore(85))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HighPronunciationScores)
	// PRONUNCIATION_PRO reward (25) plus score/10 (8)
	assert.Equal(t, 33, stats.CurrentXP)
}

func TestRecordPronunciationBelowThreshold(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordPronunciationScore(79))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.HighPronunciationScores)
	assert.Equal(t, 7, stats.CurrentXP)

	a, err := e.achievements.GetByID(AchievementPronunciationPro)
	require.NoError(t, err)
	assert.False(t, a.IsUnlocked)
}

func TestRecordPronunciationExactThresholdDoesNotCount(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordPronunciationScore(80))

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.HighPronunciationScores)
	assert.Equal(t, 8, stats.CurrentXP)
}

func TestRecordWordsLearnedUnlocksCollector(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordWordsLearned(9))
	a, err := e.achievements.GetByID(AchievementWordCollector10)
	require.NoError(t, err)
	assert.False(t, a.IsUnlocked)

	require.NoError(t, e.RecordWordsLearned(1))
	a, err = e.achievements.GetByID(AchievementWordCollector10)
	require.NoError(t, err)
	assert.True(t, a.IsUnlocked)

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 10, stats.WordsLearned)
	assert.Equal(t, 15, stats.CurrentXP)
}

func TestUnlocksStreamDeliversEvent(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unlocks := e.Unlocks(ctx)

	require.NoError(t, e.RecordScan())

	select {
	case a := <-unlocks:
		assert.Equal(t, AchievementFirstScan, a.ID)
		assert.True(t, a.IsUnlocked)
	case <-time.After(time.Second):
		t.Fatal("expected an unlock event")
	}
}

func TestUnlocksStreamDoesNotReplay(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordScan())

	// Subscribing after the unlock must not deliver the past event
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unlocks := e.Unlocks(ctx)

	select {
	case a := <-unlocks:
		t.Fatalf("unexpected replayed event: %s", a.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.RecordScan())
	require.NoError(t, e.Seed())

	// Re-seeding must not relock or reset anything
	a, err := e.achievements.GetByID(AchievementFirstScan)
	require.NoError(t, err)
	assert.True(t, a.IsUnlocked)

	stats, err := e.stats.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalScans)
}

func TestProgressValueUnknownID(t *testing.T) {
	stats := models.NewUserStats()
	stats.TotalScans = 5

	assert.Equal(t, 5, progressValue(stats, AchievementFirstScan))
	// An id with no counter mapping reports zero progress and never unlocks
	assert.Equal(t, 0, progressValue(stats, "RETIRED_BADGE"))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, daysBetween(base, time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 1, daysBetween(base, time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 4, daysBetween(base, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, daysBetween(base, time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)))
}
