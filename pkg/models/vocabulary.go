package models

// VocabularyWord is one imported bilingual vocabulary entry
type VocabularyWord struct {
	ID        int64  `json:"id" db:"id"`
	WordEN    string `json:"word_en" db:"word_en"`
	WordID    string `json:"word_id" db:"word_id"`
	Topic     string `json:"topic" db:"topic"`
	CreatedAt int64  `json:"created_at" db:"created_at"` // epoch milliseconds
}

// CardProgress tracks flashcard review state for one vocabulary word
type CardProgress struct {
	ID           int64 `json:"id" db:"id"`
	WordID       int64 `json:"word_id" db:"word_id"`
	TimesSeen    int   `json:"times_seen" db:"times_seen"`
	TimesCorrect int   `json:"times_correct" db:"times_correct"`
	Learned      bool  `json:"learned" db:"learned"`
	LastReviewed int64 `json:"last_reviewed" db:"last_reviewed"` // epoch milliseconds, 0 when never reviewed
}
