package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/models"
)

// Phase is the position of the current capture cycle
type Phase string

const (
	Idle      Phase = "idle"
	Capturing Phase = "capturing"
	Analyzing Phase = "analyzing"
	Reviewing Phase = "reviewing"
	Failed    Phase = "failed"
	Saved     Phase = "saved"
	Discarded Phase = "discarded"
)

func negativeNutritionError() *apperrors.AppError {
	return apperrors.NewValidationError("Nutrition values must not be negative")
}

// Session holds the transient state of one app session: the current capture
// cycle and the meals saved so far, most recent first. Nothing is persisted.
// A Session is owned by a single goroutine and is not safe for concurrent use.
type Session struct {
	phase Phase
	image models.CapturedImage
	draft *Draft
	meals []models.MealEntity

	now   func() time.Time
	newID func() string
}

// New creates an empty session
func New() *Session {
	return &Session{
		phase: Idle,
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Phase returns the current cycle phase
func (s *Session) Phase() Phase {
	return s.phase
}

// Draft returns the draft under review, if any
func (s *Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// BeginCapture starts a new cycle
func (s *Session) BeginCapture() error {
	if err := s.expect("capture", Idle); err != nil {
		return err
	}
	s.phase = Capturing
	return nil
}

// CaptureFailed returns to idle after a failed or refused capture; the user
// re-attempts manually
func (s *Session) CaptureFailed() {
	if s.phase == Capturing {
		s.reset()
	}
}

// BeginAnalysis records the captured image while its analysis is in flight
func (s *Session) BeginAnalysis(img models.CapturedImage) error {
	if err := s.expect("analyze", Capturing); err != nil {
		return err
	}
	s.image = img
	s.phase = Analyzing
	return nil
}

// CompleteAnalysis presents the result and moves to review or failure
func (s *Session) CompleteAnalysis(result models.AnalysisResult) (Draft, error) {
	if err := s.expect("complete analysis", Analyzing); err != nil {
		return Draft{}, err
	}

	draft := Present(result, s.image, s.now())
	s.draft = &draft
	if draft.Failed() {
		s.phase = Failed
		logger.Warn("Analysis failed", "error", draft.Error)
	} else {
		s.phase = Reviewing
	}
	return draft, nil
}

// EditDraft applies user edits to the draft. Overriding the nutrition of a
// failed draft moves it to review.
func (s *Session) EditDraft(edit Edit) (Draft, error) {
	if err := s.expect("edit", Reviewing, Failed); err != nil {
		return Draft{}, err
	}
	if err := s.draft.Apply(edit); err != nil {
		return Draft{}, err
	}
	if s.phase == Failed && !s.draft.Failed() {
		s.phase = Reviewing
	}
	return *s.draft, nil
}

// SaveMeal turns the reviewed draft into a meal and prepends it to the list
func (s *Session) SaveMeal() (models.MealEntity, error) {
	if s.phase == Failed {
		return models.MealEntity{}, apperrors.NewValidationError("Cannot save a failed analysis without fallback data")
	}
	if err := s.expect("save", Reviewing); err != nil {
		return models.MealEntity{}, err
	}

	d := s.draft
	meal := models.MealEntity{
		ID:          s.newID(),
		Image:       s.image.DisplayURI,
		Name:        d.Name,
		Time:        d.Time,
		Calories:    d.Calories,
		Protein:     d.Protein,
		Carbs:       d.Carbs,
		Fat:         d.Fat,
		MealType:    d.MealType,
		Ingredients: append([]string(nil), d.Ingredients...),
	}

	s.meals = append([]models.MealEntity{meal}, s.meals...)
	s.phase = Saved
	logger.Info("Meal saved", "id", meal.ID, "name", meal.Name, "calories", meal.Calories)
	s.reset()

	return meal, nil
}

// Discard drops the current capture
func (s *Session) Discard() error {
	if err := s.expect("discard", Capturing, Reviewing, Failed); err != nil {
		return err
	}
	s.phase = Discarded
	logger.Debug("Capture discarded")
	s.reset()
	return nil
}

// UpdateMeal replaces a saved meal in place
func (s *Session) UpdateMeal(meal models.MealEntity) error {
	if meal.Calories < 0 || meal.Protein < 0 || meal.Carbs < 0 || meal.Fat < 0 {
		return negativeNutritionError()
	}
	if _, err := models.ParseMealType(string(meal.MealType)); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	for i := range s.meals {
		if s.meals[i].ID == meal.ID {
			s.meals[i] = meal
			return nil
		}
	}
	return apperrors.NewValidationError(fmt.Sprintf("meal %s not found", meal.ID))
}

// Meals returns a copy of the saved meals, most recent first
func (s *Session) Meals() []models.MealEntity {
	return append([]models.MealEntity(nil), s.meals...)
}

// Meal looks up a saved meal by id
func (s *Session) Meal(id string) (models.MealEntity, bool) {
	for _, m := range s.meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.MealEntity{}, false
}

// Logout forgets everything
func (s *Session) Logout() {
	s.meals = nil
	s.reset()
}

func (s *Session) reset() {
	s.phase = Idle
	s.image = models.CapturedImage{}
	s.draft = nil
}

func (s *Session) expect(action string, phases ...Phase) error {
	for _, p := range phases {
		if s.phase == p {
			return nil
		}
	}
	return apperrors.NewValidationError(fmt.Sprintf("cannot %s while %s", action, s.phase)).
		WithContext("phase", string(s.phase))
}
