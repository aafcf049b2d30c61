package models

import (
	"database/sql/driver"
	"encoding/json"
)

// LocalizedText is a text pair in the learning and native languages
type LocalizedText struct {
	EN string `json:"en"`
	ID string `json:"id"`
}

// VocabularyItem is one vocabulary entry of a generated lesson
type VocabularyItem struct {
	Term LocalizedText `json:"term"`
}

// KeyPhraseItem is one key phrase of a generated lesson
type KeyPhraseItem struct {
	Phrase LocalizedText `json:"phrase"`
}

// GrammarTipItem is one grammar tip of a generated lesson
type GrammarTipItem struct {
	Tip     LocalizedText `json:"tip"`
	Example LocalizedText `json:"example"`
}

// Lesson is the full structured payload of a generated scenario lesson
type Lesson struct {
	ScenarioTitle LocalizedText    `json:"scenarioTitle"`
	Vocabulary    []VocabularyItem `json:"vocabulary"`
	KeyPhrases    []KeyPhraseItem  `json:"keyPhrases"`
	GrammarTips   []GrammarTipItem `json:"grammarTips"`
}

// Value serializes the lesson to JSON for storage
func (l Lesson) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan deserializes the lesson from its stored JSON form
func (l *Lesson) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Scenario is one stored scenario lesson
type Scenario struct {
	ID         int64  `json:"id" db:"id"`
	LessonData Lesson `json:"lesson_data" db:"lesson_data"`
	Timestamp  int64  `json:"timestamp" db:"timestamp"` // epoch milliseconds
}
