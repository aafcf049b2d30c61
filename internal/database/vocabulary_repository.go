package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bisbi/pkg/models"
)

// VocabularyRepository handles database operations for imported vocabulary
// and flashcard review progress
type VocabularyRepository struct{}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository() *VocabularyRepository {
	return &VocabularyRepository{}
}

// Create inserts a new vocabulary word
func (r *VocabularyRepository) Create(word *models.VocabularyWord) error {
	if word.CreatedAt == 0 {
		word.CreatedAt = time.Now().UnixMilli()
	}
	id, err := insertID(DB, `
		INSERT INTO vocabulary (word_en, word_id, topic, created_at)
		VALUES ($1, $2, $3, $4)
	`, word.WordEN, word.WordID, word.Topic, word.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary word: %v", err)
	}
	word.ID = id
	return nil
}

// GetByID returns a word by id, or (nil, nil) if absent
func (r *VocabularyRepository) GetByID(id int64) (*models.VocabularyWord, error) {
	var word models.VocabularyWord
	err := DB.Get(&word, "SELECT * FROM vocabulary WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary word: %v", err)
	}
	return &word, nil
}

// GetByWordAndTopic returns a word by its unique (word_en, topic) pair,
// or (nil, nil) if absent
func (r *VocabularyRepository) GetByWordAndTopic(wordEN, topic string) (*models.VocabularyWord, error) {
	var word models.VocabularyWord
	err := DB.Get(&word, "SELECT * FROM vocabulary WHERE word_en = $1 AND topic = $2", wordEN, topic)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary word: %v", err)
	}
	return &word, nil
}

// Update modifies an existing vocabulary word
func (r *VocabularyRepository) Update(word *models.VocabularyWord) error {
	_, err := DB.Exec(
		"UPDATE vocabulary SET word_en = $1, word_id = $2, topic = $3 WHERE id = $4",
		word.WordEN, word.WordID, word.Topic, word.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vocabulary word: %v", err)
	}
	return nil
}

// GetUnlearned returns up to limit words that are not yet marked learned,
// least-recently-reviewed first
func (r *VocabularyRepository) GetUnlearned(limit int) ([]models.VocabularyWord, error) {
	var words []models.VocabularyWord
	err := DB.Select(&words, `
		SELECT v.* FROM vocabulary v
		LEFT JOIN card_progress cp ON cp.word_id = v.id
		WHERE cp.id IS NULL OR cp.learned = 0
		ORDER BY COALESCE(cp.last_reviewed, 0) ASC, v.id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlearned words: %v", err)
	}
	return words, nil
}

// GetProgress returns review progress for a word, or (nil, nil) if the word
// has never been reviewed
func (r *VocabularyRepository) GetProgress(wordID int64) (*models.CardProgress, error) {
	var progress models.CardProgress
	err := DB.Get(&progress, "SELECT * FROM card_progress WHERE word_id = $1", wordID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card progress: %v", err)
	}
	return &progress, nil
}

// SaveProgress creates or replaces the review progress row for a word
func (r *VocabularyRepository) SaveProgress(progress *models.CardProgress) error {
	_, err := DB.Exec(`
		INSERT INTO card_progress (word_id, times_seen, times_correct, learned, last_reviewed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (word_id) DO UPDATE SET
			times_seen = excluded.times_seen,
			times_correct = excluded.times_correct,
			learned = excluded.learned,
			last_reviewed = excluded.last_reviewed
	`, progress.WordID, progress.TimesSeen, progress.TimesCorrect, progress.Learned, progress.LastReviewed)
	if err != nil {
		return fmt.Errorf("failed to save card progress: %v", err)
	}
	return nil
}

// CountLearned returns how many words have been marked learned
func (r *VocabularyRepository) CountLearned() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM card_progress WHERE learned = 1")
	if err != nil {
		return 0, fmt.Errorf("failed to count learned words: %v", err)
	}
	return count, nil
}
