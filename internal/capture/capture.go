package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/models"
)

// Camera is the device camera the adapter wraps
type Camera interface {
	// Permission reports whether camera access is currently granted
	Permission(ctx context.Context) (bool, error)
	// RequestPermission asks the user for camera access
	RequestPermission(ctx context.Context) (bool, error)
	// Take returns the raw bytes of a new photo
	Take(ctx context.Context) ([]byte, error)
}

// Options bounds the size of the captured image
type Options struct {
	MaxDimension int    // longest side in pixels
	Quality      int    // JPEG quality, 1-100
	Dir          string // where compressed captures are written for display
}

// Adapter turns camera photos into size-bounded, base64 encoded payloads
type Adapter struct {
	camera Camera
	opts   Options
	now    func() time.Time
}

// NewAdapter creates a capture adapter
func NewAdapter(camera Camera, opts Options) *Adapter {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 800
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 70
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	return &Adapter{camera: camera, opts: opts, now: time.Now}
}

// Capture takes one photo. A denied permission returns a permission error
// without touching the camera; there are no retries.
func (a *Adapter) Capture(ctx context.Context) (models.CapturedImage, error) {
	granted, err := a.camera.Permission(ctx)
	if err != nil {
		return models.CapturedImage{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "PERMISSION_CHECK", "Failed to check camera permission")
	}
	if !granted {
		return models.CapturedImage{}, apperrors.NewPermissionError("Camera permission required")
	}

	raw, err := a.camera.Take(ctx)
	if err != nil {
		return models.CapturedImage{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "CAPTURE_FAILED", "Failed to take picture")
	}
	if len(raw) == 0 {
		return models.CapturedImage{}, apperrors.NewValidationError("Camera returned an empty photo")
	}

	data, err := Compress(raw, a.opts.MaxDimension, a.opts.Quality)
	if err != nil {
		return models.CapturedImage{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "INVALID_IMAGE", "Failed to process picture")
	}

	if err := os.MkdirAll(a.opts.Dir, 0755); err != nil {
		return models.CapturedImage{}, apperrors.NewInternalError(err)
	}
	path := filepath.Join(a.opts.Dir, fmt.Sprintf("capture-%d.jpg", a.now().UnixNano()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return models.CapturedImage{}, apperrors.NewInternalError(err)
	}

	logger.Debug("Captured image", "path", path, "raw_bytes", len(raw), "compressed_bytes", len(data))

	return models.CapturedImage{
		DisplayURI:     "file://" + path,
		EncodedPayload: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Compress decodes a JPEG or PNG photo, scales it down so its longest side is
// at most maxDimension and re-encodes it as JPEG.
func Compress(raw []byte, maxDimension, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := scaledSize(bounds.Dx(), bounds.Dy(), maxDimension)
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// scaledSize keeps the aspect ratio and never upscales
func scaledSize(w, h, maxDimension int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDimension {
		return w, h
	}

	w = w * maxDimension / longest
	h = h * maxDimension / longest
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
