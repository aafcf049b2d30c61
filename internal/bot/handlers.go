package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/bisbi/internal/api"
	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/internal/progression"
	"github.com/example/bisbi/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	msg := update.Message
	b.touchSession(msg.Chat.ID)

	switch {
	case len(msg.Photo) > 0:
		b.handlePhoto(msg)
	case msg.Voice != nil:
		b.handleVoice(msg)
	case msg.IsCommand():
		b.handleCommand(msg)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.sendMarkdown(chatID, helpText)
	case "stats":
		b.handleStats(chatID)
	case "achievements":
		b.handleAchievements(chatID)
	case "lesson":
		b.handleLesson(chatID, msg.CommandArguments())
	case "scenarios":
		b.handleScenarios(chatID)
	case "cards":
		b.handleCards(chatID)
	case "practice":
		b.handlePractice(chatID, msg.CommandArguments())
	case "history":
		b.handleHistory(chatID)
	default:
		b.sendMarkdown(chatID, "Unknown command. Try /help.")
	}
}

const helpText = `*BISBI* — learn English from the world around you 🇮🇩→🇬🇧

📷 Send a *photo* to discover the objects in it
/lesson _situation_ — generate a scenario lesson
/practice _phrase_ — then send a voice note to get scored
/cards — review vocabulary flashcards
/scenarios — your saved lessons
/history — your scanned objects
/stats — level, XP and streak
/achievements — your badges`

// handlePhoto runs the scan flow: download, detect, persist, then offer each
// detection as a button for the detail flow
func (b *Bot) handlePhoto(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	// The last photo size is the largest
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	path, err := b.downloadFile(fileID, ".jpg")
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMarkdown(chatID, "Sorry, I couldn't download that photo.")
		return
	}

	detections, err := b.client.DetectObjects(path)
	if err != nil {
		log.Printf("Error detecting objects: %v", err)
		b.sendMarkdown(chatID, "Sorry, the scan failed. Please try again.")
		return
	}
	if len(detections) == 0 {
		b.sendMarkdown(chatID, "I couldn't find any objects in that photo.")
		return
	}

	obj := &models.DetectedObject{
		Detections: detections,
		ImagePath:  path,
		Timestamp:  time.Now().UnixMilli(),
	}
	if msg.Location != nil {
		obj.Lat = msg.Location.Latitude
		obj.Lng = msg.Location.Longitude
	}

	objectID, err := b.detection.SaveDetectedObject(obj)
	if err != nil {
		log.Printf("Error saving detected object: %v", err)
		b.sendMarkdown(chatID, "Sorry, I couldn't save that scan.")
		return
	}

	// Scan XP is a separate award on top of the counter update
	if err := b.engine.RecordScan(); err != nil {
		log.Printf("Error recording scan: %v", err)
	}
	if err := b.engine.AddXP(progression.ScanXP); err != nil {
		log.Printf("Error adding scan XP: %v", err)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, d := range detections {
		label := fmt.Sprintf("%s (%.0f%%)", d.ObjectName, d.Confidence*100)
		data := fmt.Sprintf("detail:%d:%d", objectID, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		))
	}
	b.sendWithKeyboard(chatID,
		fmt.Sprintf("🔍 I found *%d* object(s). Tap one to learn about it:", len(detections)),
		tgbotapi.NewInlineKeyboardMarkup(rows...),
	)
}

// handleVoice runs the pronunciation flow against the phrase set by /practice
func (b *Bot) handleVoice(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	b.mu.Lock()
	referenceText, ok := b.pendingPractice[chatID]
	b.mu.Unlock()
	if !ok {
		b.sendMarkdown(chatID, "Tell me what you're practicing first: /practice _your phrase_")
		return
	}

	path, err := b.downloadFile(msg.Voice.FileID, ".oga")
	if err != nil {
		log.Printf("Error downloading voice note: %v", err)
		b.sendMarkdown(chatID, "Sorry, I couldn't download that voice note.")
		return
	}

	assessment, err := b.client.AssessPronunciation(path, referenceText, "en-US")
	if err != nil {
		log.Printf("Error assessing pronunciation: %v", err)
		b.sendMarkdown(chatID, "Sorry, the assessment failed. Please try again.")
		return
	}

	b.mu.Lock()
	delete(b.pendingPractice, chatID)
	b.mu.Unlock()

	score := int(assessment.PronunciationScore)
	if err := b.engine.RecordPronunciationScore(score); err != nil {
		log.Printf("Error recording pronunciation score: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎤 *Pronunciation: %d/100*\n\n", score)
	fmt.Fprintf(&sb, "Accuracy: %.0f\nFluency: %.0f\nCompleteness: %.0f\nProsody: %.0f\n",
		assessment.AccuracyScore, assessment.FluencyScore,
		assessment.CompletenessScore, assessment.ProsodyScore)
	var mispronounced []string
	for _, w := range assessment.Words {
		if w.ErrorType != "" && w.ErrorType != "None" {
			mispronounced = append(mispronounced, w.Word)
		}
	}
	if len(mispronounced) > 0 {
		fmt.Fprintf(&sb, "\nWork on: _%s_", strings.Join(mispronounced, ", "))
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handlePractice(chatID int64, phrase string) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		b.sendMarkdown(chatID, "Usage: /practice _the phrase you want to say_")
		return
	}
	b.mu.Lock()
	b.pendingPractice[chatID] = phrase
	b.mu.Unlock()
	b.sendMarkdown(chatID, fmt.Sprintf("Now send me a voice note saying:\n\n_%s_", phrase))
}

// handleCallback dispatches inline keyboard taps
func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("Error acknowledging callback: %v", err)
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	b.touchSession(chatID)

	parts := strings.Split(cq.Data, ":")
	switch parts[0] {
	case "detail":
		if len(parts) != 3 {
			return
		}
		objectID, _ := strconv.ParseInt(parts[1], 10, 64)
		index, _ := strconv.Atoi(parts[2])
		b.handleDetail(chatID, objectID, index)
	case "card":
		if len(parts) != 3 {
			return
		}
		wordID, _ := strconv.ParseInt(parts[1], 10, 64)
		b.handleCardAnswer(chatID, wordID, parts[2] == "1")
	case "mastered":
		b.handleScenarioMastered(chatID)
	}
}

// handleDetail serves bilingual object details for one tapped bounding box
func (b *Bot) handleDetail(chatID int64, objectID int64, index int) {
	obj, err := b.detection.GetDetectedObjectByID(objectID)
	if err != nil || obj == nil {
		log.Printf("Error loading detected object %d: %v", objectID, err)
		b.sendMarkdown(chatID, "That scan is no longer available.")
		return
	}
	if index < 0 || index >= len(obj.Detections) {
		return
	}

	d, err := detailsForBox(b.detection, b.client, obj, obj.Detections[index].BoundingBox)
	if err != nil {
		log.Printf("Error resolving object details: %v", err)
		b.sendMarkdown(chatID, "Sorry, I couldn't fetch details for that object.")
		return
	}
	b.sendMarkdown(chatID, renderDetails(d))
	b.sendPronunciationAudio(chatID, d.Details.ObjectNameEN)
}

// sendPronunciationAudio sends a spoken rendition of the text as a voice
// message. Synthesis failures are not worth interrupting the flow for.
func (b *Bot) sendPronunciationAudio(chatID int64, text string) {
	audio, err := b.client.TextToSpeech(text, "en-US")
	if err != nil {
		log.Printf("Error synthesizing speech: %v", err)
		return
	}
	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "pronunciation.ogg", Bytes: audio})
	voice.Caption = text
	if _, err := b.tg.Send(voice); err != nil {
		log.Printf("Error sending voice message: %v", err)
	}
}

func renderDetails(d models.DetailsWithRelatedData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* — _%s_\n\n", d.Details.ObjectNameEN, d.Details.ObjectNameID)
	fmt.Fprintf(&sb, "%s\n%s\n", d.Details.DescriptionEN, d.Details.DescriptionID)
	if len(d.Adjectives) > 0 {
		sb.WriteString("\n*Adjectives:*\n")
		for _, a := range d.Adjectives {
			fmt.Fprintf(&sb, "• %s — _%s_\n", a.AdjectiveEN, a.AdjectiveID)
		}
	}
	if len(d.Sentences) > 0 {
		sb.WriteString("\n*Examples:*\n")
		for _, s := range d.Sentences {
			fmt.Fprintf(&sb, "• %s\n  _%s_\n", s.SentenceEN, s.SentenceID)
		}
	}
	return sb.String()
}

func (b *Bot) handleLesson(chatID int64, prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		b.sendMarkdown(chatID, "Usage: /lesson _ordering food at a warung_")
		return
	}

	lesson, err := b.client.GenerateLesson(api.GenerateLessonRequest{
		ScenarioDescription:  prompt,
		UserProficiencyLevel: b.config.ProficiencyLevel,
	})
	if err != nil {
		log.Printf("Error generating lesson: %v", err)
		b.sendMarkdown(chatID, "Sorry, I couldn't generate that lesson.")
		return
	}

	scenario := &models.Scenario{LessonData: *lesson, Timestamp: time.Now().UnixMilli()}
	scenarioID, err := b.scenarios.Save(scenario)
	if err != nil {
		log.Printf("Error saving scenario: %v", err)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I mastered this", fmt.Sprintf("mastered:%d", scenarioID)),
	))
	b.sendWithKeyboard(chatID, renderLesson(lesson), keyboard)
}

func renderLesson(lesson *models.Lesson) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 *%s*\n_%s_\n", lesson.ScenarioTitle.EN, lesson.ScenarioTitle.ID)
	if len(lesson.Vocabulary) > 0 {
		sb.WriteString("\n*Vocabulary:*\n")
		for _, v := range lesson.Vocabulary {
			fmt.Fprintf(&sb, "• %s — _%s_\n", v.Term.EN, v.Term.ID)
		}
	}
	if len(lesson.KeyPhrases) > 0 {
		sb.WriteString("\n*Key phrases:*\n")
		for _, p := range lesson.KeyPhrases {
			fmt.Fprintf(&sb, "• %s\n  _%s_\n", p.Phrase.EN, p.Phrase.ID)
		}
	}
	if len(lesson.GrammarTips) > 0 {
		sb.WriteString("\n*Grammar tips:*\n")
		for _, t := range lesson.GrammarTips {
			fmt.Fprintf(&sb, "• %s\n  e.g. %s\n", t.Tip.EN, t.Example.EN)
		}
	}
	return sb.String()
}

func (b *Bot) handleScenarioMastered(chatID int64) {
	if err := b.engine.RecordScenarioMastered(); err != nil {
		log.Printf("Error recording mastered scenario: %v", err)
		return
	}
	b.sendMarkdown(chatID, fmt.Sprintf("🎭 Scenario mastered! +%d XP", progression.ScenarioMasteredXP))
}

func (b *Bot) handleScenarios(chatID int64) {
	scenarios, err := b.scenarios.GetAll()
	if err != nil {
		log.Printf("Error loading scenarios: %v", err)
		return
	}
	if len(scenarios) == 0 {
		b.sendMarkdown(chatID, "No saved lessons yet. Create one with /lesson.")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Your lessons:*\n\n")
	for _, s := range scenarios {
		when := time.UnixMilli(s.Timestamp).Format("Jan 2")
		fmt.Fprintf(&sb, "• %s (%s)\n", s.LessonData.ScenarioTitle.EN, when)
	}
	b.sendMarkdown(chatID, sb.String())
}

// handleCards serves the next flashcard
func (b *Bot) handleCards(chatID int64) {
	cards, err := b.deck.NextCards(1)
	if err != nil {
		log.Printf("Error loading flashcards: %v", err)
		return
	}
	if len(cards) == 0 {
		b.sendMarkdown(chatID, "No cards to review. Import a vocabulary pack first.")
		return
	}
	card := cards[0]
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I knew it", fmt.Sprintf("card:%d:1", card.ID)),
		tgbotapi.NewInlineKeyboardButtonData("❌ Didn't know", fmt.Sprintf("card:%d:0", card.ID)),
	))
	b.sendWithKeyboard(chatID, fmt.Sprintf("🃏 Translate: *%s*", card.WordEN), keyboard)
}

func (b *Bot) handleCardAnswer(chatID int64, wordID int64, correct bool) {
	learned, err := b.deck.Review(wordID, correct)
	if err != nil {
		log.Printf("Error recording review: %v", err)
		return
	}

	vocab := database.NewVocabularyRepository()
	word, err := vocab.GetByID(wordID)
	if err != nil || word == nil {
		log.Printf("Error loading word %d: %v", wordID, err)
	} else {
		b.sendMarkdown(chatID, fmt.Sprintf("*%s* — _%s_", word.WordEN, word.WordID))
	}

	if learned {
		// Word XP is a separate award on top of the counter update
		if err := b.engine.RecordWordsLearned(1); err != nil {
			log.Printf("Error recording learned word: %v", err)
		}
		if err := b.engine.AddXP(progression.WordLearnedXP); err != nil {
			log.Printf("Error adding word XP: %v", err)
		}
		b.sendMarkdown(chatID, "📚 Word learned!")
	}

	b.handleCards(chatID)
}

func (b *Bot) handleStats(chatID int64) {
	stats, err := b.stats.GetSnapshot()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		return
	}
	if stats == nil {
		stats = models.NewUserStats()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⭐ *Level %d* — %d/%d XP\n", stats.Level, stats.CurrentXP, stats.XPToNextLevel)
	fmt.Fprintf(&sb, "🔥 Streak: %d day(s)\n\n", stats.DayStreak)
	fmt.Fprintf(&sb, "📷 Scans: %d\n", stats.TotalScans)
	fmt.Fprintf(&sb, "🎭 Scenarios mastered: %d\n", stats.ScenariosMastered)
	fmt.Fprintf(&sb, "🎤 High pronunciation scores: %d\n", stats.HighPronunciationScores)
	fmt.Fprintf(&sb, "📚 Words learned: %d\n", stats.WordsLearned)
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleAchievements(chatID int64) {
	achievements, err := database.NewAchievementRepository().GetAll()
	if err != nil {
		log.Printf("Error loading achievements: %v", err)
		return
	}
	var sb strings.Builder
	sb.WriteString("*Achievements:*\n\n")
	for _, a := range achievements {
		status := "🔒"
		if a.IsUnlocked {
			status = a.Icon
		}
		fmt.Fprintf(&sb, "%s *%s* — %s (+%d XP)\n", status, a.Name, a.Description, a.XPReward)
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleHistory(chatID int64) {
	objects, err := b.detection.GetAllObjectsWithDetails()
	if err != nil {
		log.Printf("Error loading history: %v", err)
		return
	}
	if len(objects) == 0 {
		b.sendMarkdown(chatID, "No scans yet. Send me a photo!")
		return
	}
	var sb strings.Builder
	sb.WriteString("*Your scans:*\n\n")
	for _, o := range objects {
		when := time.UnixMilli(o.Object.Timestamp).Format("Jan 2 15:04")
		names := make([]string, 0, len(o.Object.Detections))
		for _, d := range o.Object.Detections {
			names = append(names, d.ObjectName)
		}
		fmt.Fprintf(&sb, "• %s — %s\n", when, strings.Join(names, ", "))
	}
	b.sendMarkdown(chatID, sb.String())
}
