package database

import (
	"testing"

	"github.com/example/bisbi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLesson(title string) models.Lesson {
	return models.Lesson{
		ScenarioTitle: models.LocalizedText{EN: title, ID: title + " (id)"},
		Vocabulary: []models.VocabularyItem{
			{Term: models.LocalizedText{EN: "menu", ID: "menu"}},
			{Term: models.LocalizedText{EN: "order", ID: "pesan"}},
		},
		KeyPhrases: []models.KeyPhraseItem{
			{Phrase: models.LocalizedText{EN: "Can I see the menu?", ID: "Boleh lihat menunya?"}},
		},
		GrammarTips: []models.GrammarTipItem{
			{
				Tip:     models.LocalizedText{EN: "Use 'would like' for polite requests", ID: "Gunakan 'would like' untuk permintaan sopan"},
				Example: models.LocalizedText{EN: "I would like fried rice.", ID: "Saya mau nasi goreng."},
			},
		},
	}
}

func TestScenarioSaveAndGetByID(t *testing.T) {
	setupTestDB(t)
	repo := NewScenarioRepository()

	scenario := &models.Scenario{LessonData: sampleLesson("Ordering food"), Timestamp: 1000}
	id, err := repo.Save(scenario)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ordering food", got.LessonData.ScenarioTitle.EN)
	require.Len(t, got.LessonData.Vocabulary, 2)
	assert.Equal(t, "pesan", got.LessonData.Vocabulary[1].Term.ID)
	require.Len(t, got.LessonData.GrammarTips, 1)
	assert.Equal(t, "I would like fried rice.", got.LessonData.GrammarTips[0].Example.EN)
}

func TestScenarioGetByIDAbsent(t *testing.T) {
	setupTestDB(t)
	repo := NewScenarioRepository()

	got, err := repo.GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScenarioGetAllNewestFirst(t *testing.T) {
	setupTestDB(t)
	repo := NewScenarioRepository()

	_, err := repo.Save(&models.Scenario{LessonData: sampleLesson("old"), Timestamp: 1000})
	require.NoError(t, err)
	_, err = repo.Save(&models.Scenario{LessonData: sampleLesson("new"), Timestamp: 2000})
	require.NoError(t, err)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].LessonData.ScenarioTitle.EN)
	assert.Equal(t, "old", all[1].LessonData.ScenarioTitle.EN)
}

func TestScenarioDelete(t *testing.T) {
	setupTestDB(t)
	repo := NewScenarioRepository()

	id, err := repo.Save(&models.Scenario{LessonData: sampleLesson("gone"), Timestamp: 1000})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(id))

	got, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
