package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/bisbi/internal/database"
	"github.com/go-co-op/gocron"
)

// DefaultReminderHour is the local hour at which a streak reminder may be sent
const DefaultReminderHour = 18

// Notifier sends reminders to the user
type Notifier interface {
	SendStreakReminder(streak int) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	stats     *database.StatsRepository
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		stats:     database.NewStatsRepository(),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Hourly check; the reminder itself only fires at the configured hour
	s.scheduler.Every(1).Hour().Do(s.checkStreakReminder)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkStreakReminder nudges the user when they have not opened the app today
// and their streak is about to lapse
func (s *Scheduler) checkStreakReminder() {
	reminderHour := DefaultReminderHour
	if hourStr := os.Getenv("REMINDER_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			reminderHour = h
		}
	}

	now := time.Now()
	if now.Hour() != reminderHour {
		return
	}

	stats, err := s.stats.GetSnapshot()
	if err != nil {
		log.Printf("Error reading stats for streak reminder: %v", err)
		return
	}
	if stats == nil || stats.DayStreak == 0 {
		return
	}

	lastLogin, ok := stats.LastLogin()
	if ok && sameDay(lastLogin, now) {
		// Already active today, nothing to save
		return
	}

	if err := s.notifier.SendStreakReminder(stats.DayStreak); err != nil {
		log.Printf("Error sending streak reminder: %v", err)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
