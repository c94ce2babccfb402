package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type fakeRekognition struct {
	input *rekognition.DetectLabelsInput
}

func (f *fakeRekognition) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.input = params
	return &rekognition.DetectLabelsOutput{
		Labels: []types.Label{
			{
				Name:       aws.String("Pizza"),
				Confidence: aws.Float32(91.5),
				Categories: []types.LabelCategory{{Name: aws.String("Food and Beverage")}},
				Parents:    []types.Parent{{Name: aws.String("Food")}},
			},
			{
				Name:       aws.String("Table"),
				Confidence: aws.Float32(80),
				Categories: []types.LabelCategory{{Name: aws.String("Home and Indoors")}},
			},
			{
				Name:       aws.String("Soup"),
				Confidence: aws.Float32(75),
				Categories: []types.LabelCategory{{Name: aws.String("Food and Beverage")}},
				Parents:    []types.Parent{},
			},
		},
	}, nil
}

func TestRekognitionLabeler(t *testing.T) {
	client := &fakeRekognition{}
	labeler := NewRekognitionLabelerWithClient(client)
	if err := labeler.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	labels, err := labeler.DetectLabels(context.Background(), []byte("jpeg"), DetectOptions{MaxLabels: 5, MinConfidence: 70})
	if err != nil {
		t.Fatalf("DetectLabels() failed: %v", err)
	}

	if aws.ToInt32(client.input.MaxLabels) != 5 || aws.ToFloat32(client.input.MinConfidence) != 70 {
		t.Errorf("request options = %d/%v", aws.ToInt32(client.input.MaxLabels), aws.ToFloat32(client.input.MinConfidence))
	}
	if string(client.input.Image.Bytes) != "jpeg" {
		t.Errorf("image bytes not forwarded")
	}
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}
	if !labels[0].HasCategory(FoodCategory) || labels[0].Parents[0] != "Food" {
		t.Errorf("labels[0] = %+v", labels[0])
	}
	if labels[1].HasCategory(FoodCategory) {
		t.Errorf("labels[1] should not be food: %+v", labels[1])
	}
	if labels[1].Parents != nil {
		t.Errorf("missing parents should stay nil: %#v", labels[1].Parents)
	}
	if labels[2].Parents == nil || len(labels[2].Parents) != 0 {
		t.Errorf("empty parents should stay empty: %#v", labels[2].Parents)
	}
}

func TestParseLabels(t *testing.T) {
	reply := "```json\n{\"labels\":[{\"name\":\"Burger\",\"confidence\":88,\"categories\":[\"Food and Beverage\"],\"parents\":[\"Food\",\"Bread\"]}]}\n```"

	labels, err := parseLabels(reply)
	if err != nil {
		t.Fatalf("parseLabels() failed: %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "Burger" || len(labels[0].Parents) != 2 {
		t.Errorf("labels = %+v", labels)
	}

	if _, err := parseLabels("I can't see any food"); err == nil {
		t.Error("expected an error for a reply without JSON")
	}
}

func TestLimit(t *testing.T) {
	labels := []Label{
		{Name: "a", Confidence: 99},
		{Name: "b", Confidence: 50},
		{Name: "c", Confidence: 75},
		{Name: "d", Confidence: 71},
	}

	got := limit(labels, DetectOptions{MaxLabels: 2, MinConfidence: 70})
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("limit() = %+v", got)
	}
}

func TestNewLabelerStaticFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.json")
	body := `{"labels":[{"name":"Salad","confidence":95,"categories":["Food and Beverage"]}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	labeler, err := NewLabeler("static", path)
	if err != nil {
		t.Fatalf("NewLabeler() failed: %v", err)
	}
	labels, err := labeler.DetectLabels(context.Background(), nil, DetectOptions{MinConfidence: 70})
	if err != nil {
		t.Fatalf("DetectLabels() failed: %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "Salad" {
		t.Errorf("labels = %+v", labels)
	}
}

func TestNewLabelerUnknownProvider(t *testing.T) {
	if _, err := NewLabeler("clarifai", ""); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
