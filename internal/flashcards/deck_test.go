package flashcards

import (
	"testing"
	"time"

	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeck(t *testing.T) (*Deck, *database.VocabularyRepository) {
	t.Helper()
	require.NoError(t, database.OpenSQLite(":memory:"))
	t.Cleanup(func() { database.Close() })

	vocab := database.NewVocabularyRepository()
	deck := New(vocab)
	deck.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return deck, vocab
}

func addWord(t *testing.T, vocab *database.VocabularyRepository, en, id string) *models.VocabularyWord {
	t.Helper()
	word := &models.VocabularyWord{WordEN: en, WordID: id, Topic: "test"}
	require.NoError(t, vocab.Create(word))
	return word
}

func TestReviewLearnsAfterThreeCorrect(t *testing.T) {
	deck, vocab := newTestDeck(t)
	word := addWord(t, vocab, "chair", "kursi")

	for i := 0; i < 2; i++ {
		learned, err := deck.Review(word.ID, true)
		require.NoError(t, err)
		assert.False(t, learned)
	}

	learned, err := deck.Review(word.ID, true)
	require.NoError(t, err)
	assert.True(t, learned)

	progress, err := vocab.GetProgress(word.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TimesSeen)
	assert.Equal(t, 3, progress.TimesCorrect)
	assert.True(t, progress.Learned)
}

func TestReviewWrongAnswerResetsStreak(t *testing.T) {
	deck, vocab := newTestDeck(t)
	word := addWord(t, vocab, "table", "meja")

	_, err := deck.Review(word.ID, true)
	require.NoError(t, err)
	_, err = deck.Review(word.ID, true)
	require.NoError(t, err)
	_, err = deck.Review(word.ID, false)
	require.NoError(t, err)

	progress, err := vocab.GetProgress(word.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.TimesCorrect)
	assert.False(t, progress.Learned)

	// Two more correct answers are not enough after the reset
	_, err = deck.Review(word.ID, true)
	require.NoError(t, err)
	learned, err := deck.Review(word.ID, true)
	require.NoError(t, err)
	assert.False(t, learned)
}

func TestReviewReportsLearnedOnlyOnce(t *testing.T) {
	deck, vocab := newTestDeck(t)
	word := addWord(t, vocab, "lamp", "lampu")

	for i := 0; i < 3; i++ {
		_, err := deck.Review(word.ID, true)
		require.NoError(t, err)
	}

	// Already learned: further correct answers must not report it again
	learned, err := deck.Review(word.ID, true)
	require.NoError(t, err)
	assert.False(t, learned)

	progress, err := vocab.GetProgress(word.ID)
	require.NoError(t, err)
	assert.True(t, progress.Learned)
}

func TestLearnedFlagSurvivesWrongAnswer(t *testing.T) {
	deck, vocab := newTestDeck(t)
	word := addWord(t, vocab, "mirror", "cermin")

	for i := 0; i < 3; i++ {
		_, err := deck.Review(word.ID, true)
		require.NoError(t, err)
	}
	_, err := deck.Review(word.ID, false)
	require.NoError(t, err)

	progress, err := vocab.GetProgress(word.ID)
	require.NoError(t, err)
	assert.True(t, progress.Learned)
	assert.Equal(t, 0, progress.TimesCorrect)
}

func TestNextCardsSkipsLearnedWords(t *testing.T) {
	deck, vocab := newTestDeck(t)
	learned := addWord(t, vocab, "sun", "matahari")
	pending := addWord(t, vocab, "moon", "bulan")

	for i := 0; i < 3; i++ {
		_, err := deck.Review(learned.ID, true)
		require.NoError(t, err)
	}

	cards, err := deck.NextCards(10)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, pending.ID, cards[0].ID)
}
