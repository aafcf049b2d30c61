package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/bisbi/pkg/models"
	"github.com/jmoiron/sqlx"
)

// DetectionRepository handles database operations for the detection hierarchy:
// detected_objects -> object_details -> {related_adjectives, example_sentences}
type DetectionRepository struct{}

// NewDetectionRepository creates a new repository instance
func NewDetectionRepository() *DetectionRepository {
	return &DetectionRepository{}
}

// insertID runs an insert and returns the generated id, handling the
// driver difference between SQLite (LastInsertId) and Postgres (RETURNING)
func insertID(e sqlx.Ext, query string, args ...interface{}) (int64, error) {
	if DB.DriverName() == "postgres" {
		var id int64
		err := e.QueryRowx(query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	result, err := e.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// SaveDetectedObject inserts a capture event, replacing any existing row with
// the same id, and returns the generated id
func (r *DetectionRepository) SaveDetectedObject(obj *models.DetectedObject) (int64, error) {
	id, err := r.saveDetectedObjectTx(DB, obj)
	if err != nil {
		return 0, err
	}
	detectionNotifier.broadcast()
	return id, nil
}

func (r *DetectionRepository) saveDetectedObjectTx(e sqlx.Ext, obj *models.DetectedObject) (int64, error) {
	if obj.ID != 0 {
		// Replace-on-conflict by primary key, not a field merge
		_, err := e.Exec(`
			INSERT INTO detected_objects (id, detections, image_path, timestamp, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				detections = excluded.detections,
				image_path = excluded.image_path,
				timestamp = excluded.timestamp,
				lat = excluded.lat,
				lng = excluded.lng
		`, obj.ID, obj.Detections, obj.ImagePath, obj.Timestamp, obj.Lat, obj.Lng)
		if err != nil {
			return 0, fmt.Errorf("failed to save detected object: %v", err)
		}
		return obj.ID, nil
	}

	id, err := insertID(e, `
		INSERT INTO detected_objects (detections, image_path, timestamp, lat, lng)
		VALUES ($1, $2, $3, $4, $5)
	`, obj.Detections, obj.ImagePath, obj.Timestamp, obj.Lat, obj.Lng)
	if err != nil {
		return 0, fmt.Errorf("failed to save detected object: %v", err)
	}
	obj.ID = id
	return id, nil
}

// saveDetailsTx inserts object details plus children inside the given
// transaction, stamping the generated details id onto every child row
func (r *DetectionRepository) saveDetailsTx(
	tx *sqlx.Tx,
	details *models.ObjectDetails,
	adjectives []models.RelatedAdjective,
	sentences []models.ExampleSentence,
) error {
	detailsID, err := insertID(tx, `
		INSERT INTO object_details (
			detected_object_id, object_name_en, object_name_id,
			description_en, description_id, bounding_box
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		details.DetectedObjectID,
		details.ObjectNameEN,
		details.ObjectNameID,
		details.DescriptionEN,
		details.DescriptionID,
		details.BoundingBox,
	)
	if err != nil {
		return fmt.Errorf("failed to insert object details: %v", err)
	}
	details.ID = detailsID

	for i := range adjectives {
		adjectives[i].ObjectDetailsID = detailsID
		_, err := tx.Exec(
			"INSERT INTO related_adjectives (object_details_id, adjective_en, adjective_id) VALUES ($1, $2, $3)",
			detailsID, adjectives[i].AdjectiveEN, adjectives[i].AdjectiveID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert related adjective: %v", err)
		}
	}

	for i := range sentences {
		sentences[i].ObjectDetailsID = detailsID
		_, err := tx.Exec(
			"INSERT INTO example_sentences (object_details_id, sentence_en, sentence_id) VALUES ($1, $2, $3)",
			detailsID, sentences[i].SentenceEN, sentences[i].SentenceID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert example sentence: %v", err)
		}
	}

	return nil
}

// SaveObjectDetailsWithRelatedData stores details plus their adjectives and
// example sentences in a single all-or-nothing transaction
func (r *DetectionRepository) SaveObjectDetailsWithRelatedData(
	details *models.ObjectDetails,
	adjectives []models.RelatedAdjective,
	sentences []models.ExampleSentence,
) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := r.saveDetailsTx(tx, details, adjectives, sentences); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	detectionNotifier.broadcast()
	return nil
}

// SaveCompleteObject stores a capture together with details and children in
// one transaction, stamping the generated parent ids down the hierarchy
func (r *DetectionRepository) SaveCompleteObject(
	obj *models.DetectedObject,
	details *models.ObjectDetails,
	adjectives []models.RelatedAdjective,
	sentences []models.ExampleSentence,
) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	objectID, err := r.saveDetectedObjectTx(tx, obj)
	if err != nil {
		return err
	}
	details.DetectedObjectID = objectID

	if err := r.saveDetailsTx(tx, details, adjectives, sentences); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	detectionNotifier.broadcast()
	return nil
}

// GetDetectedObjectByID returns one capture, or (nil, nil) if it does not exist
func (r *DetectionRepository) GetDetectedObjectByID(id int64) (*models.DetectedObject, error) {
	var obj models.DetectedObject
	err := DB.Get(&obj, "SELECT * FROM detected_objects WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detected object: %v", err)
	}
	return &obj, nil
}

// DeleteDetectedObjectByID removes a capture; details and their children go
// with it through the cascade
func (r *DetectionRepository) DeleteDetectedObjectByID(id int64) error {
	_, err := DB.Exec("DELETE FROM detected_objects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete detected object: %v", err)
	}
	detectionNotifier.broadcast()
	return nil
}

// DeleteAllDetectedObjects clears the whole detection hierarchy
func (r *DetectionRepository) DeleteAllDetectedObjects() error {
	_, err := DB.Exec("DELETE FROM detected_objects")
	if err != nil {
		return fmt.Errorf("failed to delete detected objects: %v", err)
	}
	detectionNotifier.broadcast()
	return nil
}

// GetDetailsByDetectedObjectID returns every stored detail (with children) for
// one capture. Callers match bounding boxes against this list before asking
// the backend again, so re-tapping a box never creates a duplicate row.
func (r *DetectionRepository) GetDetailsByDetectedObjectID(objectID int64) ([]models.DetailsWithRelatedData, error) {
	var details []models.ObjectDetails
	err := DB.Select(&details, "SELECT * FROM object_details WHERE detected_object_id = $1 ORDER BY id", objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get object details: %v", err)
	}

	result := make([]models.DetailsWithRelatedData, 0, len(details))
	for _, d := range details {
		var adjectives []models.RelatedAdjective
		err := DB.Select(&adjectives, "SELECT * FROM related_adjectives WHERE object_details_id = $1 ORDER BY id", d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get related adjectives: %v", err)
		}
		var sentences []models.ExampleSentence
		err = DB.Select(&sentences, "SELECT * FROM example_sentences WHERE object_details_id = $1 ORDER BY id", d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get example sentences: %v", err)
		}
		result = append(result, models.DetailsWithRelatedData{
			Details:    d,
			Adjectives: adjectives,
			Sentences:  sentences,
		})
	}
	return result, nil
}

// GetAllObjectsWithDetails returns every capture newest-first, each with its
// stored details
func (r *DetectionRepository) GetAllObjectsWithDetails() ([]models.ObjectWithDetails, error) {
	var objects []models.DetectedObject
	err := DB.Select(&objects, "SELECT * FROM detected_objects ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get detected objects: %v", err)
	}

	result := make([]models.ObjectWithDetails, 0, len(objects))
	for _, obj := range objects {
		details, err := r.GetDetailsByDetectedObjectID(obj.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.ObjectWithDetails{Object: obj, Details: details})
	}
	return result, nil
}

// WatchObjects returns a live stream of the capture history, re-emitted after
// every committed change to the hierarchy
func (r *DetectionRepository) WatchObjects(ctx context.Context) <-chan []models.ObjectWithDetails {
	out := make(chan []models.ObjectWithDetails, 1)
	sig := detectionNotifier.subscribe()

	go func() {
		defer close(out)
		defer detectionNotifier.unsubscribe(sig)

		emit := func() {
			objects, err := r.GetAllObjectsWithDetails()
			if err != nil {
				return
			}
			select {
			case out <- objects:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- objects:
				default:
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				emit()
			}
		}
	}()

	return out
}
