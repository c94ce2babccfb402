package ml

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionConfig holds configuration for the Rekognition provider
type RekognitionConfig struct {
	BaseConfig
	Region string `json:"region"`
}

// Load loads the Rekognition configuration
func (c *RekognitionConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "rekognition", c); err != nil {
		return err
	}

	if c.Region == "" {
		c.Region = os.Getenv("AWS_REGION")
	}
	return nil
}

// RekognitionAPI is the subset of the Rekognition client the labeler uses
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionLabeler detects labels with AWS Rekognition
type RekognitionLabeler struct {
	config RekognitionConfig
	client RekognitionAPI
}

// RekognitionLabelerFactory implements LabelerFactory for Rekognition
type RekognitionLabelerFactory struct {
	config RekognitionConfig
}

// NewRekognitionLabelerFactory creates a new Rekognition labeler factory
func NewRekognitionLabelerFactory(config RekognitionConfig) *RekognitionLabelerFactory {
	return &RekognitionLabelerFactory{config: config}
}

// CreateLabeler creates a new Rekognition labeler instance
func (f *RekognitionLabelerFactory) CreateLabeler() (Labeler, error) {
	return &RekognitionLabeler{config: f.config}, nil
}

// NewRekognitionLabelerWithClient wraps an existing client; Load is a no-op
func NewRekognitionLabelerWithClient(client RekognitionAPI) *RekognitionLabeler {
	return &RekognitionLabeler{client: client}
}

// Load creates the Rekognition client
func (l *RekognitionLabeler) Load(ctx context.Context) error {
	if l.client != nil {
		return nil
	}
	if l.config.Region == "" {
		return fmt.Errorf("AWS_REGION not set")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(l.config.Region))
	if err != nil {
		return fmt.Errorf("unable to load AWS config: %w", err)
	}
	l.client = rekognition.NewFromConfig(cfg)
	return nil
}

// DetectLabels sends the image bytes to Rekognition
func (l *RekognitionLabeler) DetectLabels(ctx context.Context, image []byte, opts DetectOptions) ([]Label, error) {
	if l.client == nil {
		return nil, fmt.Errorf("labeler not loaded")
	}

	input := &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(opts.MinConfidence)),
	}
	if opts.MaxLabels > 0 {
		input.MaxLabels = aws.Int32(int32(opts.MaxLabels))
	}

	out, err := l.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to detect labels: %w", err)
	}

	labels := make([]Label, 0, len(out.Labels))
	for _, rl := range out.Labels {
		label := Label{
			Name:       aws.ToString(rl.Name),
			Confidence: float64(aws.ToFloat32(rl.Confidence)),
		}
		for _, c := range rl.Categories {
			label.Categories = append(label.Categories, aws.ToString(c.Name))
		}
		if rl.Parents != nil {
			label.Parents = make([]string, 0, len(rl.Parents))
		}
		for _, p := range rl.Parents {
			label.Parents = append(label.Parents, aws.ToString(p.Name))
		}
		labels = append(labels, label)
	}
	return labels, nil
}
