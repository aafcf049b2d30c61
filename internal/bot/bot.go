package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/bisbi/internal/api"
	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/internal/flashcards"
	"github.com/example/bisbi/internal/progression"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Bot is the Telegram delivery surface of the application
type Bot struct {
	tg        *tgbotapi.BotAPI
	client    *api.Client
	engine    *progression.Engine
	deck      *flashcards.Deck
	detection *database.DetectionRepository
	scenarios *database.ScenarioRepository
	stats     *database.StatsRepository
	config    *Config

	mu              sync.Mutex
	activeChatID    int64
	lastLoginCheck  time.Time
	pendingPractice map[int64]string // chat id -> reference text awaiting a voice note
}

// New creates a new bot instance
func New(engine *progression.Engine, client *api.Client) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %v", err)
	}

	return &Bot{
		tg:              tg,
		client:          client,
		engine:          engine,
		deck:            flashcards.New(database.NewVocabularyRepository()),
		detection:       database.NewDetectionRepository(),
		scenarios:       database.NewScenarioRepository(),
		stats:           database.NewStatsRepository(),
		config:          DefaultConfig(),
		pendingPractice: make(map[int64]string),
	}, nil
}

// Start begins processing updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	go b.watchUnlocks(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.tg.GetUpdatesChan(u)

	log.Printf("Authorized on account %s", b.tg.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(update)
		}
	}
}

// Stop finishes outstanding work before shutdown
func (b *Bot) Stop(ctx context.Context) error {
	b.tg.StopReceivingUpdates()
	return nil
}

// watchUnlocks forwards achievement-unlocked events to the active chat as a
// celebratory message
func (b *Bot) watchUnlocks(ctx context.Context) {
	for achievement := range b.engine.Unlocks(ctx) {
		chatID := b.currentChatID()
		if chatID == 0 {
			continue
		}
		text := fmt.Sprintf(
			"🎉 *Achievement unlocked!*\n\n%s *%s*\n%s\n\n+%d XP",
			achievement.Icon, achievement.Name, achievement.Description, achievement.XPReward,
		)
		b.sendMarkdown(chatID, text)
	}
}

// SendStreakReminder implements scheduler.Notifier. It can only deliver after
// the user has talked to the bot at least once in this process lifetime.
func (b *Bot) SendStreakReminder(streak int) error {
	chatID := b.currentChatID()
	if chatID == 0 {
		return nil
	}
	text := fmt.Sprintf("🔥 Your %d-day streak is waiting! Practice something today to keep it going.", streak)
	return b.send(chatID, text)
}

func (b *Bot) currentChatID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeChatID
}

// touchSession remembers the chat and runs the once-per-day login streak
// update on the first interaction of a calendar day
func (b *Bot) touchSession(chatID int64) {
	b.mu.Lock()
	b.activeChatID = chatID
	now := time.Now()
	checked := b.lastLoginCheck
	needsCheck := checked.IsZero() ||
		checked.Year() != now.Year() || checked.YearDay() != now.YearDay()
	if needsCheck {
		b.lastLoginCheck = now
	}
	b.mu.Unlock()

	if needsCheck {
		if err := b.engine.UpdateDayStreakOnLogin(); err != nil {
			log.Printf("Error updating day streak: %v", err)
		}
	}
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.tg.Send(msg)
	return err
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.tg.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.tg.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// downloadFile fetches a Telegram file and stores it under the media
// directory with the given extension, returning the local path
func (b *Bot) downloadFile(fileID, ext string) (string, error) {
	url, err := b.tg.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file URL: %v", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %v", err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(b.config.MediaDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %v", err)
	}

	path := filepath.Join(b.config.MediaDir, uuid.New().String()+ext)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}
	return path, nil
}
