package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/franckalain/foodlens/internal/logger"
)

const defaultGoogleModel = "gemini-1.5-flash"

// GoogleConfig holds configuration for the Vertex AI provider
type GoogleConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
	Model           string `json:"model"`
}

// Load loads the Google configuration
func (c *GoogleConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "google", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.Model == "" {
		c.Model = defaultGoogleModel
	}

	return nil
}

// GoogleLabeler asks a Gemini model on Vertex AI to label the image
type GoogleLabeler struct {
	config GoogleConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

// GoogleLabelerFactory implements LabelerFactory for Google models
type GoogleLabelerFactory struct {
	config GoogleConfig
}

// NewGoogleLabelerFactory creates a new Google labeler factory
func NewGoogleLabelerFactory(config GoogleConfig) *GoogleLabelerFactory {
	return &GoogleLabelerFactory{config: config}
}

// CreateLabeler creates a new Google labeler instance
func (f *GoogleLabelerFactory) CreateLabeler() (Labeler, error) {
	return &GoogleLabeler{config: f.config}, nil
}

// Load initializes the Vertex AI client
func (l *GoogleLabeler) Load(ctx context.Context) error {
	opts := []option.ClientOption{}

	if l.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(l.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, l.config.ProjectID, l.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	l.client = client
	l.model = client.GenerativeModel(l.config.Model)
	l.model.SetTemperature(0)
	l.model.ResponseMIMEType = "application/json"
	return nil
}

const labelPrompt = `Label the main objects in this photo the way an image-labeling service would.

Respond with a JSON object only:
{
	"labels": [
		{
			"name": "string, e.g. Pizza",
			"confidence": number between 0 and 100,
			"categories": ["string"],
			"parents": ["string, more general labels, e.g. Food"]
		}
	]
}

Use the category "Food and Beverage" for any dish, food or drink.
Order labels by confidence, highest first. Return at most %d labels.`

// DetectLabels prompts the model with the image and parses its labels
func (l *GoogleLabeler) DetectLabels(ctx context.Context, image []byte, opts DetectOptions) ([]Label, error) {
	if l.model == nil {
		return nil, fmt.Errorf("labeler not loaded")
	}

	maxLabels := opts.MaxLabels
	if maxLabels <= 0 {
		maxLabels = 10
	}

	img := genai.ImageData("jpeg", image)
	resp, err := l.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(labelPrompt, maxLabels)), img)
	if err != nil {
		return nil, fmt.Errorf("failed to call ai: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response generated")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response part %T", resp.Candidates[0].Content.Parts[0])
	}

	labels, err := parseLabels(string(text))
	if err != nil {
		return nil, err
	}

	logger.Debug("Google labels detected", "count", len(labels))
	return limit(labels, opts), nil
}

// parseLabels extracts the label list from a model reply, which may be
// wrapped in a markdown code block
func parseLabels(reply string) ([]Label, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var output struct {
		Labels []Label `json:"labels"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &output); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return output.Labels, nil
}
