package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the vocabulary pack import configuration
type ImportConfig struct {
	FilePath     string // Path to the Excel or CSV file
	WordENColumn int    // Column with the English word (0-based)
	WordIDColumn int    // Column with the Indonesian word
	TopicColumn  int    // Column with the topic
	SheetName    string // Name of the sheet to import
	StartRow     int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordENColumn: 0,
		WordIDColumn: 1,
		TopicColumn:  2,
		SheetName:    "Sheet1",
		StartRow:     2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportWords imports vocabulary words from an Excel or CSV file
func ImportWords(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel imports words from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	vocabRepo := database.NewVocabularyRepository()

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := processRow(row, config, vocabRepo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports words from a CSV file
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	result := &ImportResult{Errors: make([]string, 0)}
	vocabRepo := database.NewVocabularyRepository()

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %v", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		if err := processRow(row, config, vocabRepo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// processRow upserts a single vocabulary row, keyed by (english word, topic)
func processRow(row []string, config ImportConfig, vocabRepo *database.VocabularyRepository, result *ImportResult) error {
	wordEN := columnValue(row, config.WordENColumn)
	wordID := columnValue(row, config.WordIDColumn)
	topic := columnValue(row, config.TopicColumn)

	if wordEN == "" || wordID == "" {
		result.Skipped++
		return nil
	}

	existing, err := vocabRepo.GetByWordAndTopic(wordEN, topic)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.WordID == wordID {
			result.Skipped++
			return nil
		}
		existing.WordID = wordID
		if err := vocabRepo.Update(existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	word := &models.VocabularyWord{WordEN: wordEN, WordID: wordID, Topic: topic}
	if err := vocabRepo.Create(word); err != nil {
		return err
	}
	result.Created++
	return nil
}

func columnValue(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
