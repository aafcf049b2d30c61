package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BoundingBox locates a detected object within the captured image
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Value serializes the box to JSON for storage
func (b BoundingBox) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan deserializes the box from its stored JSON form
func (b *BoundingBox) Scan(src interface{}) error {
	return scanJSON(src, b)
}

// Detection is a single prediction returned by the vision backend
type Detection struct {
	ObjectName  string      `json:"objectName"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// DetectionList is the ordered prediction list stored with a capture
type DetectionList []Detection

// Value serializes the list to JSON for storage
func (l DetectionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan deserializes the list from its stored JSON form
func (l *DetectionList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// DetectedObject is one camera capture event with its raw detection payload
type DetectedObject struct {
	ID         int64         `json:"id" db:"id"`
	Detections DetectionList `json:"detections" db:"detections"`
	ImagePath  string        `json:"image_path" db:"image_path"`
	Timestamp  int64         `json:"timestamp" db:"timestamp"` // epoch milliseconds
	Lat        float64       `json:"lat" db:"lat"`
	Lng        float64       `json:"lng" db:"lng"`
}

// ObjectDetails holds the bilingual content fetched for one bounding box
// of a detected object. Owned by exactly one DetectedObject.
type ObjectDetails struct {
	ID               int64       `json:"id" db:"id"`
	DetectedObjectID int64       `json:"detected_object_id" db:"detected_object_id"`
	ObjectNameEN     string      `json:"object_name_en" db:"object_name_en"`
	ObjectNameID     string      `json:"object_name_id" db:"object_name_id"`
	DescriptionEN    string      `json:"description_en" db:"description_en"`
	DescriptionID    string      `json:"description_id" db:"description_id"`
	BoundingBox      BoundingBox `json:"bounding_box" db:"bounding_box"`
}

// RelatedAdjective is a bilingual adjective associated with object details
type RelatedAdjective struct {
	ID              int64  `json:"id" db:"id"`
	ObjectDetailsID int64  `json:"object_details_id" db:"object_details_id"`
	AdjectiveEN     string `json:"adjective_en" db:"adjective_en"`
	AdjectiveID     string `json:"adjective_id" db:"adjective_id"`
}

// ExampleSentence is a bilingual example sentence associated with object details
type ExampleSentence struct {
	ID              int64  `json:"id" db:"id"`
	ObjectDetailsID int64  `json:"object_details_id" db:"object_details_id"`
	SentenceEN      string `json:"sentence_en" db:"sentence_en"`
	SentenceID      string `json:"sentence_id" db:"sentence_id"`
}

// DetailsWithRelatedData bundles object details with their child rows
type DetailsWithRelatedData struct {
	Details    ObjectDetails      `json:"details"`
	Adjectives []RelatedAdjective `json:"adjectives"`
	Sentences  []ExampleSentence  `json:"sentences"`
}

// ObjectWithDetails bundles a capture with all inspected details
type ObjectWithDetails struct {
	Object  DetectedObject           `json:"object"`
	Details []DetailsWithRelatedData `json:"details"`
}

func scanJSON(src, dest interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
