package database

import (
	"testing"
	"time"

	"github.com/example/bisbi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObject(ts int64) *models.DetectedObject {
	return &models.DetectedObject{
		Detections: models.DetectionList{
			{ObjectName: "cup", Confidence: 0.92, BoundingBox: models.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}},
			{ObjectName: "table", Confidence: 0.81, BoundingBox: models.BoundingBox{X: 0, Y: 0, Width: 200, Height: 100}},
		},
		ImagePath: "data/media/test.jpg",
		Timestamp: ts,
		Lat:       -6.2,
		Lng:       106.8,
	}
}

func sampleDetails(objectID int64) (*models.ObjectDetails, []models.RelatedAdjective, []models.ExampleSentence) {
	details := &models.ObjectDetails{
		DetectedObjectID: objectID,
		ObjectNameEN:     "cup",
		ObjectNameID:     "cangkir",
		DescriptionEN:    "A small container for drinking",
		DescriptionID:    "Wadah kecil untuk minum",
		BoundingBox:      models.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
	}
	adjectives := []models.RelatedAdjective{
		{AdjectiveEN: "hot", AdjectiveID: "panas"},
		{AdjectiveEN: "empty", AdjectiveID: "kosong"},
	}
	sentences := []models.ExampleSentence{
		{SentenceEN: "The cup is on the table.", SentenceID: "Cangkir itu ada di atas meja."},
	}
	return details, adjectives, sentences
}

func TestSaveAndGetDetectedObject(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	obj := sampleObject(time.Now().UnixMilli())
	id, err := repo.SaveDetectedObject(obj)
	require.NoError(t, err)
	require.NotZero(t, id)
	assert.Equal(t, id, obj.ID)

	got, err := repo.GetDetectedObjectByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Detections, 2)
	assert.Equal(t, "cup", got.Detections[0].ObjectName)
	assert.Equal(t, models.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}, got.Detections[0].BoundingBox)
	assert.InDelta(t, -6.2, got.Lat, 0.0001)
}

func TestGetDetectedObjectByIDAbsent(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	got, err := repo.GetDetectedObjectByID(99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveDetectedObjectReplacesByID(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	obj := sampleObject(1000)
	id, err := repo.SaveDetectedObject(obj)
	require.NoError(t, err)

	obj.ImagePath = "data/media/retaken.jpg"
	again, err := repo.SaveDetectedObject(obj)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := repo.GetDetectedObjectByID(id)
	require.NoError(t, err)
	assert.Equal(t, "data/media/retaken.jpg", got.ImagePath)
}

func TestSaveObjectDetailsWithRelatedData(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	objectID, err := repo.SaveDetectedObject(sampleObject(1000))
	require.NoError(t, err)

	details, adjectives, sentences := sampleDetails(objectID)
	require.NoError(t, repo.SaveObjectDetailsWithRelatedData(details, adjectives, sentences))
	require.NotZero(t, details.ID)

	// Children were stamped with the generated parent id
	for _, a := range adjectives {
		assert.Equal(t, details.ID, a.ObjectDetailsID)
	}
	for _, s := range sentences {
		assert.Equal(t, details.ID, s.ObjectDetailsID)
	}

	stored, err := repo.GetDetailsByDetectedObjectID(objectID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "cangkir", stored[0].Details.ObjectNameID)
	assert.Len(t, stored[0].Adjectives, 2)
	assert.Len(t, stored[0].Sentences, 1)
	assert.Equal(t, models.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}, stored[0].Details.BoundingBox)
}

func TestSaveCompleteObject(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	obj := sampleObject(1000)
	details, adjectives, sentences := sampleDetails(0)
	require.NoError(t, repo.SaveCompleteObject(obj, details, adjectives, sentences))

	require.NotZero(t, obj.ID)
	assert.Equal(t, obj.ID, details.DetectedObjectID)

	stored, err := repo.GetDetailsByDetectedObjectID(obj.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestDeleteCascadesThroughHierarchy(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	obj := sampleObject(1000)
	details, adjectives, sentences := sampleDetails(0)
	require.NoError(t, repo.SaveCompleteObject(obj, details, adjectives, sentences))

	require.NoError(t, repo.DeleteDetectedObjectByID(obj.ID))

	var count int
	require.NoError(t, DB.Get(&count, "SELECT COUNT(*) FROM object_details"))
	assert.Zero(t, count)
	require.NoError(t, DB.Get(&count, "SELECT COUNT(*) FROM related_adjectives"))
	assert.Zero(t, count)
	require.NoError(t, DB.Get(&count, "SELECT COUNT(*) FROM example_sentences"))
	assert.Zero(t, count)
}

func TestDeleteAllDetectedObjects(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	for i := 0; i < 3; i++ {
		_, err := repo.SaveDetectedObject(sampleObject(int64(1000 + i)))
		require.NoError(t, err)
	}
	require.NoError(t, repo.DeleteAllDetectedObjects())

	objects, err := repo.GetAllObjectsWithDetails()
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestGetAllObjectsNewestFirst(t *testing.T) {
	setupTestDB(t)
	repo := NewDetectionRepository()

	_, err := repo.SaveDetectedObject(sampleObject(1000))
	require.NoError(t, err)
	_, err = repo.SaveDetectedObject(sampleObject(3000))
	require.NoError(t, err)
	_, err = repo.SaveDetectedObject(sampleObject(2000))
	require.NoError(t, err)

	objects, err := repo.GetAllObjectsWithDetails()
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.EqualValues(t, 3000, objects[0].Object.Timestamp)
	assert.EqualValues(t, 2000, objects[1].Object.Timestamp)
	assert.EqualValues(t, 1000, objects[2].Object.Timestamp)
}
