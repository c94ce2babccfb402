package models

import (
	"fmt"
	"strings"
)

// CapturedImage is a compressed photo ready for display and upload
type CapturedImage struct {
	DisplayURI     string `json:"display_uri"`     // local reference for rendering
	EncodedPayload string `json:"encoded_payload"` // base64 of the compressed JPEG
}

// Macros holds macronutrients in grams
type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// AnalysisResult is the recognition endpoint's answer. A non-empty Error
// marks a failure regardless of the other fields.
type AnalysisResult struct {
	Food        string   `json:"food"`
	Ingredients []string `json:"ingredients"`
	Calories    int      `json:"calories"`
	Macros      *Macros  `json:"macros,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the result carries an error
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

// ErrorResult builds a failed result with the given message
func ErrorResult(message string) AnalysisResult {
	return AnalysisResult{Error: message}
}

// MealType is the slot of the day a meal belongs to
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes lists the valid meal types in display order
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ParseMealType validates a meal type string
func ParseMealType(s string) (MealType, error) {
	t := MealType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MealTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// MealEntity is a saved, user-confirmed meal
type MealEntity struct {
	ID          string   `json:"id"`
	Image       string   `json:"image"`
	Name        string   `json:"name"`
	Time        string   `json:"time"`
	Calories    int      `json:"calories"`
	Protein     int      `json:"protein"`
	Carbs       int      `json:"carbs"`
	Fat         int      `json:"fat"`
	MealType    MealType `json:"meal_type"`
	Ingredients []string `json:"ingredients"`
}
