package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/bisbi/pkg/models"
)

// Client talks to the BISBI backend: object detection, bilingual object
// details, lesson generation, pronunciation assessment and text-to-speech
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client configured from the environment
func New() (*Client, error) {
	baseURL := os.Getenv("BISBI_API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("BISBI_API_BASE_URL environment variable is not set")
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     os.Getenv("BISBI_API_KEY"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// NewWithBaseURL creates a client against an explicit base URL
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GetObjectDetailsResponse is the bilingual content returned for one
// cropped object image
type GetObjectDetailsResponse struct {
	ObjectName        models.LocalizedText   `json:"objectName"`
	Description       models.LocalizedText   `json:"description"`
	RelatedAdjectives []models.LocalizedText `json:"relatedAdjectives"`
	ExampleSentences  []models.LocalizedText `json:"exampleSentences"`
}

// GenerateLessonRequest asks the backend for a scenario lesson
type GenerateLessonRequest struct {
	ScenarioDescription    string `json:"scenarioDescription"`
	UserNativeLanguageCode string `json:"userNativeLanguageCode"`
	LearningLanguageCode   string `json:"learningLanguageCode"`
	UserProficiencyLevel   string `json:"userProficiencyLevel"`
}

// WordAssessment is the per-word breakdown of a pronunciation assessment
type WordAssessment struct {
	Word          string              `json:"word"`
	AccuracyScore float64             `json:"accuracyScore"`
	ErrorType     string              `json:"errorType"`
	Phonemes      []PhonemeAssessment `json:"phonemes"`
}

// PhonemeAssessment scores a single phoneme
type PhonemeAssessment struct {
	Phoneme       string  `json:"phoneme"`
	AccuracyScore float64 `json:"accuracyScore"`
}

// PronunciationAssessmentResponse carries the speech-assessment sub-scores
// (each 0-100) and the per-word breakdown
type PronunciationAssessmentResponse struct {
	AccuracyScore      float64          `json:"accuracyScore"`
	FluencyScore       float64          `json:"fluencyScore"`
	CompletenessScore  float64          `json:"completenessScore"`
	ProsodyScore       float64          `json:"prosodyScore"`
	PronunciationScore float64          `json:"pronunciationScore"`
	RecognizedText     string           `json:"recognizedText"`
	Words              []WordAssessment `json:"words"`
}

// TextToSpeechRequest asks the backend to synthesize speech
type TextToSpeechRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

// DetectObjects uploads an image and returns the detected objects with their
// bounding boxes and confidences
func (c *Client) DetectObjects(imagePath string) ([]models.Detection, error) {
	var detections []models.Detection
	if err := c.postFile("/api/DetectObjectsVisual", "image", imagePath, nil, &detections); err != nil {
		return nil, err
	}
	return detections, nil
}

// GetObjectDetails uploads a cropped object image and returns its bilingual
// name, description, adjectives and example sentences
func (c *Client) GetObjectDetails(imagePath string) (*GetObjectDetailsResponse, error) {
	var details GetObjectDetailsResponse
	if err := c.postFile("/api/GetObjectDetailsVisual", "image", imagePath, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GenerateLesson asks the backend to build a scenario lesson from a prompt
func (c *Client) GenerateLesson(request GenerateLessonRequest) (*models.Lesson, error) {
	if request.UserNativeLanguageCode == "" {
		request.UserNativeLanguageCode = "id"
	}
	if request.LearningLanguageCode == "" {
		request.LearningLanguageCode = "en"
	}

	var lesson models.Lesson
	if err := c.postJSON("/api/GenerateLesson", request, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// AssessPronunciation uploads a recording plus the reference text and returns
// the assessment
func (c *Client) AssessPronunciation(audioPath, referenceText, languageCode string) (*PronunciationAssessmentResponse, error) {
	fields := map[string]string{
		"referenceText": referenceText,
		"languageCode":  languageCode,
	}
	var assessment PronunciationAssessmentResponse
	if err := c.postFile("/api/PronunciationAssessmentFunc", "audio", audioPath, fields, &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// TextToSpeech returns synthesized audio bytes for the given text
func (c *Client) TextToSpeech(text, languageCode string) ([]byte, error) {
	if languageCode == "" {
		languageCode = "en-US"
	}
	body, err := json.Marshal(TextToSpeechRequest{Text: text, LanguageCode: languageCode})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/GetTTSAudio", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-functions-key", c.apiKey)
	}
}

// postJSON sends a JSON body and decodes a JSON response
func (c *Client) postJSON(path string, payload, response interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.do(req, response)
}

// postFile sends a multipart upload of one file plus optional text fields and
// decodes a JSON response
func (c *Client) postFile(path, fieldName, filePath string, fields map[string]string, response interface{}) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", filePath, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %v", err)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	return c.do(req, response)
}

func (c *Client) do(req *http.Request, response interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}
