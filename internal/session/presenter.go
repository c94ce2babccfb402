package session

import (
	"time"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/models"
)

// TimeLayout renders meal times like "3:04 PM"
const TimeLayout = "3:04 PM"

// Draft holds the editable meal fields shown after an analysis. A failed
// draft carries only the error until the user overrides the nutrition.
type Draft struct {
	Image       string          `json:"image"`
	Name        string          `json:"name"`
	Time        string          `json:"time"`
	Calories    int             `json:"calories"`
	Protein     int             `json:"protein"`
	Carbs       int             `json:"carbs"`
	Fat         int             `json:"fat"`
	MealType    models.MealType `json:"meal_type"`
	Ingredients []string        `json:"ingredients"`
	Error       string          `json:"error,omitempty"`
	Overridden  bool            `json:"overridden,omitempty"`
}

// Failed reports whether the draft is an unresolved analysis failure
func (d *Draft) Failed() bool {
	return d.Error != "" && !d.Overridden
}

// Present turns an analysis result into draft fields for the review screen.
// A result with an error or without a food never yields nutrition numbers.
func Present(result models.AnalysisResult, img models.CapturedImage, now time.Time) Draft {
	draft := Draft{
		Image:    img.DisplayURI,
		Time:     now.Format(TimeLayout),
		MealType: models.Lunch,
	}

	if result.Failed() {
		draft.Error = result.Error
		return draft
	}

	if result.Food == "" {
		draft.Error = "No food recognized"
		return draft
	}

	draft.Name = result.Food
	draft.Calories = result.Calories
	if result.Macros != nil {
		draft.Protein = result.Macros.Protein
		draft.Carbs = result.Macros.Carbs
		draft.Fat = result.Macros.Fat
	}
	draft.Ingredients = append([]string(nil), result.Ingredients...)

	return draft
}

// Edit holds the user's changes to a draft before saving. Nil fields keep
// the pre-filled value.
type Edit struct {
	Name     *string          `json:"name,omitempty"`
	MealType *models.MealType `json:"meal_type,omitempty"`
	Override *Nutrition       `json:"override,omitempty"`
}

// Nutrition is fallback data the user enters when the analysis failed or
// was wrong
type Nutrition struct {
	Name        string   `json:"name"`
	Calories    int      `json:"calories"`
	Protein     int      `json:"protein"`
	Carbs       int      `json:"carbs"`
	Fat         int      `json:"fat"`
	Ingredients []string `json:"ingredients"`
}

// Apply merges the edit into the draft. Nothing changes if the edit is invalid.
func (d *Draft) Apply(edit Edit) error {
	mealType := d.MealType
	if edit.MealType != nil {
		t, err := models.ParseMealType(string(*edit.MealType))
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		mealType = t
	}
	if o := edit.Override; o != nil && (o.Calories < 0 || o.Protein < 0 || o.Carbs < 0 || o.Fat < 0) {
		return negativeNutritionError()
	}

	if o := edit.Override; o != nil {
		if o.Name != "" {
			d.Name = o.Name
		}
		d.Calories, d.Protein, d.Carbs, d.Fat = o.Calories, o.Protein, o.Carbs, o.Fat
		if o.Ingredients != nil {
			d.Ingredients = append([]string(nil), o.Ingredients...)
		}
		d.Overridden = true
	}
	if edit.Name != nil {
		d.Name = *edit.Name
	}
	d.MealType = mealType
	return nil
}
