package bot

import (
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"

	"github.com/example/bisbi/internal/api"
	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/pkg/models"
	"github.com/google/uuid"
)

// detailsForBox returns the bilingual details for one bounding box of a
// capture. A stored row with the same box is reused as-is; otherwise the
// capture is cropped to the box, sent to the backend and the result persisted.
func detailsForBox(repo *database.DetectionRepository, client *api.Client, obj *models.DetectedObject, box models.BoundingBox) (models.DetailsWithRelatedData, error) {
	stored, err := repo.GetDetailsByDetectedObjectID(obj.ID)
	if err != nil {
		return models.DetailsWithRelatedData{}, err
	}
	for _, d := range stored {
		if d.Details.BoundingBox == box {
			return d, nil
		}
	}

	imagePath := obj.ImagePath
	if cropped, err := cropToBox(obj.ImagePath, box); err != nil {
		// The full capture still yields an answer, just a less focused one
		log.Printf("Error cropping capture, sending full image: %v", err)
	} else {
		imagePath = cropped
		defer os.Remove(cropped)
	}

	resp, err := client.GetObjectDetails(imagePath)
	if err != nil {
		return models.DetailsWithRelatedData{}, err
	}

	details := &models.ObjectDetails{
		DetectedObjectID: obj.ID,
		ObjectNameEN:     resp.ObjectName.EN,
		ObjectNameID:     resp.ObjectName.ID,
		DescriptionEN:    resp.Description.EN,
		DescriptionID:    resp.Description.ID,
		BoundingBox:      box,
	}
	adjectives := make([]models.RelatedAdjective, 0, len(resp.RelatedAdjectives))
	for _, a := range resp.RelatedAdjectives {
		adjectives = append(adjectives, models.RelatedAdjective{AdjectiveEN: a.EN, AdjectiveID: a.ID})
	}
	sentences := make([]models.ExampleSentence, 0, len(resp.ExampleSentences))
	for _, s := range resp.ExampleSentences {
		sentences = append(sentences, models.ExampleSentence{SentenceEN: s.EN, SentenceID: s.ID})
	}

	if err := repo.SaveObjectDetailsWithRelatedData(details, adjectives, sentences); err != nil {
		return models.DetailsWithRelatedData{}, err
	}

	return models.DetailsWithRelatedData{
		Details:    *details,
		Adjectives: adjectives,
		Sentences:  sentences,
	}, nil
}

// cropToBox cuts the capture down to one bounding box so the backend describes
// that object, not the whole scene. The box is clamped to the image bounds.
// Returns the path of the cropped file; the caller removes it when done.
func cropToBox(path string, box models.BoundingBox) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}

	rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return "", fmt.Errorf("bounding box (%d,%d %dx%d) lies outside the image", box.X, box.Y, box.Width, box.Height)
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return "", fmt.Errorf("image type %T does not support cropping", img)
	}

	cropPath := filepath.Join(filepath.Dir(path), uuid.New().String()+"_crop.jpg")
	out, err := os.Create(cropPath)
	if err != nil {
		return "", fmt.Errorf("failed to create crop file: %v", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, sub.SubImage(rect), &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("failed to encode crop: %v", err)
	}
	return cropPath, nil
}
