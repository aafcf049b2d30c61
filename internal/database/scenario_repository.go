package database

import (
	"database/sql"
	"fmt"

	"github.com/example/bisbi/pkg/models"
)

// ScenarioRepository handles database operations for stored scenario lessons
type ScenarioRepository struct{}

// NewScenarioRepository creates a new repository instance
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{}
}

// Save appends a generated lesson and returns its generated id
func (r *ScenarioRepository) Save(scenario *models.Scenario) (int64, error) {
	id, err := insertID(DB, `
		INSERT INTO scenarios (lesson_data, timestamp)
		VALUES ($1, $2)
	`, scenario.LessonData, scenario.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to save scenario: %v", err)
	}
	scenario.ID = id
	scenarioNotifier.broadcast()
	return id, nil
}

// GetAll returns all stored lessons, newest first
func (r *ScenarioRepository) GetAll() ([]models.Scenario, error) {
	var scenarios []models.Scenario
	err := DB.Select(&scenarios, "SELECT * FROM scenarios ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get scenarios: %v", err)
	}
	return scenarios, nil
}

// GetByID returns one stored lesson, or (nil, nil) if it does not exist
func (r *ScenarioRepository) GetByID(id int64) (*models.Scenario, error) {
	var scenario models.Scenario
	err := DB.Get(&scenario, "SELECT * FROM scenarios WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario by ID: %v", err)
	}
	return &scenario, nil
}

// Delete removes a stored lesson
func (r *ScenarioRepository) Delete(id int64) error {
	_, err := DB.Exec("DELETE FROM scenarios WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %v", err)
	}
	scenarioNotifier.broadcast()
	return nil
}
