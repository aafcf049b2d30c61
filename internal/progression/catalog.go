package progression

import (
	"github.com/example/bisbi/pkg/models"
)

// Achievement ids. These are stable keys persisted in the catalog; renaming
// one orphans previously unlocked rows.
const (
	AchievementFirstScan        = "FIRST_SCAN"
	AchievementScenarioAce      = "SCENARIO_ACE"
	AchievementPronunciationPro = "PRONUNCIATION_PRO"
	AchievementStreak3Days      = "STREAK_3_DAYS"
	AchievementWordCollector10  = "WORD_COLLECTOR_10"
)

// DefaultCatalog returns the built-in achievement definitions. Seeded
// insert-if-absent at startup; existing rows keep their unlock state.
func DefaultCatalog() []models.Achievement {
	return []models.Achievement{
		{
			ID:            AchievementFirstScan,
			Name:          "First Scan",
			Description:   "Completed your first image scan",
			Icon:          "\U0001F50D",
			XPReward:      10,
			RequiredCount: 1,
		},
		{
			ID:            AchievementScenarioAce,
			Name:          "Scenario Ace",
			Description:   "Mastered your first scenario",
			Icon:          "\U0001F3AD",
			XPReward:      20,
			RequiredCount: 1,
		},
		{
			ID:            AchievementPronunciationPro,
			Name:          "Pronunciation Pro",
			Description:   "Scored over 80% on pronunciation",
			Icon:          "\U0001F3A4",
			XPReward:      25,
			RequiredCount: 1,
		},
		{
			ID:            AchievementStreak3Days,
			Name:          "3-Day Streak",
			Description:   "Used app for 3 days in a row",
			Icon:          "\U0001F525",
			XPReward:      30,
			RequiredCount: 3,
		},
		{
			ID:            AchievementWordCollector10,
			Name:          "Word Collector",
			Description:   "Learned 10 new words",
			Icon:          "\U0001F4DA",
			XPReward:      15,
			RequiredCount: 10,
		},
	}
}

// progressCounters maps each achievement id to the stats counter it tracks.
// Adding an achievement means adding a catalog entry and a row here; ids
// missing from this table report progress 0 and never unlock.
var progressCounters = map[string]func(*models.UserStats) int{
	AchievementFirstScan:        func(s *models.UserStats) int { return s.TotalScans },
	AchievementScenarioAce:      func(s *models.UserStats) int { return s.ScenariosMastered },
	AchievementPronunciationPro: func(s *models.UserStats) int { return s.HighPronunciationScores },
	AchievementStreak3Days:      func(s *models.UserStats) int { return s.DayStreak },
	AchievementWordCollector10:  func(s *models.UserStats) int { return s.WordsLearned },
}

func progressValue(stats *models.UserStats, achievementID string) int {
	if counter, ok := progressCounters[achievementID]; ok {
		return counter(stats)
	}
	return 0
}
