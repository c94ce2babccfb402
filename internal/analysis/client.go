package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/models"
)

// Messages used when neither the server nor the transport explains a failure
const (
	genericFailure   = "Upload failed"
	missingPayload   = "No image to analyze"
	missingEndpoint  = "Recognition endpoint is not configured"
	malformedPayload = "Invalid response from recognition service"
)

// Analyzer sends one encoded image for recognition
type Analyzer interface {
	Analyze(ctx context.Context, payload string) models.AnalysisResult
}

// Client calls the remote recognition endpoint
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	errors     *apperrors.Handler
}

// NewClient creates an analysis client. A nil httpClient uses
// http.DefaultClient, so the transport's own defaults decide timeouts.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		errors:     apperrors.NewHandler(logger.GetLogger()),
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// analyzeResponse is the success body. Calories is a pointer so a missing
// field is told apart from zero.
type analyzeResponse struct {
	Food        string         `json:"food"`
	Ingredients []string       `json:"ingredients"`
	Calories    *int           `json:"calories"`
	Macros      *models.Macros `json:"macros,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// result checks the response shape. A body without an error must name the
// food and carry a calorie count.
func (r *analyzeResponse) result() (models.AnalysisResult, error) {
	if r.Error != "" {
		return models.ErrorResult(r.Error), nil
	}
	if r.Food == "" {
		return models.AnalysisResult{}, errors.New("response has no food")
	}
	if r.Calories == nil {
		return models.AnalysisResult{}, errors.New("response has no calories")
	}
	if *r.Calories < 0 {
		return models.AnalysisResult{}, fmt.Errorf("negative calories %d", *r.Calories)
	}
	return models.AnalysisResult{
		Food:        r.Food,
		Ingredients: r.Ingredients,
		Calories:    *r.Calories,
		Macros:      r.Macros,
	}, nil
}

// Analyze makes exactly one request. Every failure is reported through the
// Error field of the returned result.
func (c *Client) Analyze(ctx context.Context, payload string) models.AnalysisResult {
	if payload == "" {
		return c.fail(ctx, apperrors.NewValidationError(missingPayload))
	}
	if c.endpoint == "" {
		return c.fail(ctx, apperrors.New(apperrors.ErrorTypeInternal, "NO_ENDPOINT", missingEndpoint))
	}

	body, err := json.Marshal(analyzeRequest{Image: payload})
	if err != nil {
		return c.fail(ctx, apperrors.NewInternalError(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(ctx, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "BAD_ENDPOINT", missingEndpoint))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	logger.Debug("Sending image for analysis", "endpoint", c.endpoint, "payload_bytes", len(payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return c.fail(ctx, apperrors.NewTimeoutError(err, transportMessage(err)))
		}
		return c.fail(ctx, apperrors.NewTransportError(err, transportMessage(err)))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(ctx, apperrors.NewTransportError(err, transportMessage(err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(ctx, apperrors.NewExternalAPIError(fmt.Errorf("status %d", resp.StatusCode), "recognition", serverMessage(data)).
			WithContext("status", resp.StatusCode))
	}

	var parsed *analyzeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return c.fail(ctx, apperrors.NewExternalAPIError(err, "recognition", malformedPayload))
	}
	if parsed == nil {
		return c.fail(ctx, apperrors.NewExternalAPIError(errors.New("null response"), "recognition", malformedPayload))
	}
	result, err := parsed.result()
	if err != nil {
		return c.fail(ctx, apperrors.NewExternalAPIError(err, "recognition", malformedPayload))
	}

	logger.Info("Analysis completed", "food", result.Food, "calories", result.Calories, "error", result.Error)
	return result
}

func (c *Client) fail(ctx context.Context, err *apperrors.AppError) models.AnalysisResult {
	c.errors.Handle(ctx, err)
	return models.ErrorResult(err.Message)
}

func serverMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return genericFailure
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

func transportMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericFailure
}

