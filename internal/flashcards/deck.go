package flashcards

import (
	"time"

	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
)

// LearnedThreshold is the number of consecutive correct reviews after which a
// word counts as learned
const LearnedThreshold = 3

// Deck serves flashcard reviews over the imported vocabulary
type Deck struct {
	vocab *database.VocabularyRepository
	now   func() time.Time
}

// New creates a deck over the vocabulary store
func New(vocab *database.VocabularyRepository) *Deck {
	return &Deck{vocab: vocab, now: time.Now}
}

// NextCards returns up to limit words for a review session,
// least-recently-reviewed first
func (d *Deck) NextCards(limit int) ([]models.VocabularyWord, error) {
	return d.vocab.GetUnlearned(limit)
}

// Review records one answer for a word and reports whether this review made
// the word learned. A wrong answer resets the consecutive-correct count; the
// learned flag, once set, stays set.
func (d *Deck) Review(wordID int64, correct bool) (bool, error) {
	progress, err := d.vocab.GetProgress(wordID)
	if err != nil {
		return false, err
	}
	if progress == nil {
		progress = &models.CardProgress{WordID: wordID}
	}

	progress.TimesSeen++
	if correct {
		progress.TimesCorrect++
	} else {
		progress.TimesCorrect = 0
	}

	wasLearned := progress.Learned
	if !progress.Learned && progress.TimesCorrect >= LearnedThreshold {
		progress.Learned = true
	}
	progress.LastReviewed = d.now().UnixMilli()

	if err := d.vocab.SaveProgress(progress); err != nil {
		return false, err
	}
	return progress.Learned && !wasLearned, nil
}
