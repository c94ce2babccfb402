package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/ml"
	"github.com/franckalain/foodlens/internal/models"
	"github.com/franckalain/foodlens/internal/storage"
)

const (
	uploadContentType   = "image/jpeg"
	maxLabels           = 5
	minConfidence       = 70
	noIngredientData    = "Ingredient data not available"
	processingFailedMsg = "Processing failed"
)

// Service stores uploaded meal photos and estimates their nutrition
type Service struct {
	store   storage.ObjectStore
	labeler ml.Labeler
	table   *Table
	now     func() time.Time
}

// NewService creates a recognition service. A nil store means no bucket is
// configured. A nil labeler disables label detection and every upload gets
// the default result.
func NewService(store storage.ObjectStore, labeler ml.Labeler, table *Table) *Service {
	if table == nil {
		table = NewTable()
	}
	return &Service{
		store:   store,
		labeler: labeler,
		table:   table,
		now:     time.Now,
	}
}

// defaultResult is returned when no food label is detected
func defaultResult() models.AnalysisResult {
	return models.AnalysisResult{
		Food:        "Salad",
		Ingredients: []string{"Lettuce", "Tomato", "Carrot"},
		Calories:    180,
	}
}

// Recognize stores the image and returns the nutrition estimate for it
func (s *Service) Recognize(ctx context.Context, imageBase64 string) (models.AnalysisResult, error) {
	imageBase64 = stripDataURI(strings.TrimSpace(imageBase64))
	if imageBase64 == "" {
		return models.AnalysisResult{}, apperrors.New(apperrors.ErrorTypeValidation, "MISSING_IMAGE", "image missing")
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return models.AnalysisResult{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "INVALID_IMAGE", "image is not valid base64")
	}

	if s.store == nil {
		return models.AnalysisResult{}, apperrors.New(apperrors.ErrorTypeInternal, "NO_BUCKET", "UPLOAD_BUCKET env var not set")
	}

	key := fmt.Sprintf("uploads/%d.jpg", s.now().UnixMilli())
	if err := s.store.Put(ctx, key, uploadContentType, data); err != nil {
		return models.AnalysisResult{}, processingFailed(err).WithContext("key", key)
	}
	logger.Info("Image stored", "key", key, "bytes", len(data))

	result := defaultResult()
	if s.labeler == nil {
		return result, nil
	}

	labels, err := s.labeler.DetectLabels(ctx, data, ml.DetectOptions{MaxLabels: maxLabels, MinConfidence: minConfidence})
	if err != nil {
		return models.AnalysisResult{}, apperrors.NewExternalAPIError(err, "labels", processingFailedMsg).WithContext("key", key)
	}

	for _, label := range labels {
		if !label.HasCategory(ml.FoodCategory) {
			continue
		}

		result.Food = label.Name
		if label.Parents == nil {
			result.Ingredients = []string{noIngredientData}
		} else {
			result.Ingredients = append([]string{}, label.Parents...)
		}
		result.Calories, result.Macros = s.table.Estimate(label.Name)

		logger.Debug("Food label selected", "label", label.Name, "confidence", label.Confidence)
		break
	}

	return result, nil
}

func processingFailed(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "PROCESSING_FAILED", processingFailedMsg)
}

// stripDataURI drops a "data:image/jpeg;base64," style prefix
func stripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i != -1 {
		return s[i+1:]
	}
	return s
}
