package ml

import (
	"context"
	"fmt"
)

// FoodCategory is the label category that marks food
const FoodCategory = "Food and Beverage"

// Label is one detected object or concept in an image
type Label struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"` // percent, 0-100
	Categories []string `json:"categories"`
	Parents    []string `json:"parents"` // nil when the provider reports none
}

// HasCategory reports whether the label belongs to category
func (l Label) HasCategory(category string) bool {
	for _, c := range l.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// DetectOptions bounds a detection request
type DetectOptions struct {
	MaxLabels     int
	MinConfidence float64
}

// Labeler detects labels in an image
type Labeler interface {
	// Load initializes the provider with its configuration
	Load(ctx context.Context) error
	// DetectLabels returns labels ordered by the provider's confidence
	DetectLabels(ctx context.Context, image []byte, opts DetectOptions) ([]Label, error)
}

// LabelerFactory creates a new labeler instance based on configuration
type LabelerFactory interface {
	CreateLabeler() (Labeler, error)
}

// NewLabeler creates a labeler for providerType, reading its settings from
// configPath or the provider's default config file and the environment.
func NewLabeler(providerType, configPath string) (Labeler, error) {
	var factory LabelerFactory

	switch providerType {
	case "rekognition":
		config := RekognitionConfig{BaseConfig: BaseConfig{ConfigPath: configPath}}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Rekognition config: %w", err)
		}
		factory = NewRekognitionLabelerFactory(config)
	case "google":
		config := GoogleConfig{BaseConfig: BaseConfig{ConfigPath: configPath}}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Google config: %w", err)
		}
		factory = NewGoogleLabelerFactory(config)
	case "static":
		config := StaticConfig{BaseConfig: BaseConfig{ConfigPath: configPath}}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load static config: %w", err)
		}
		factory = NewStaticLabelerFactory(config)
	default:
		return nil, fmt.Errorf("unsupported label provider: %s", providerType)
	}
	return factory.CreateLabeler()
}

// limit applies the options to labels a provider could not filter itself
func limit(labels []Label, opts DetectOptions) []Label {
	var out []Label
	for _, l := range labels {
		if l.Confidence < opts.MinConfidence {
			continue
		}
		out = append(out, l)
		if opts.MaxLabels > 0 && len(out) == opts.MaxLabels {
			break
		}
	}
	return out
}
