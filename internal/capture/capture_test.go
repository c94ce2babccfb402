package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"testing"

	apperrors "github.com/franckalain/foodlens/internal/errors"
)

type stubCamera struct {
	granted bool
	photo   []byte
	takes   int
}

func (c *stubCamera) Permission(ctx context.Context) (bool, error)        { return c.granted, nil }
func (c *stubCamera) RequestPermission(ctx context.Context) (bool, error) { return c.granted, nil }
func (c *stubCamera) Take(ctx context.Context) ([]byte, error) {
	c.takes++
	return c.photo, nil
}

func pngPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCaptureResizesAndEncodes(t *testing.T) {
	camera := &stubCamera{granted: true, photo: pngPhoto(t, 1600, 1200)}
	adapter := NewAdapter(camera, Options{MaxDimension: 800, Quality: 70, Dir: t.TempDir()})

	img, err := adapter.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(img.EncodedPayload)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload is not a jpeg: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("size = %dx%d, want 800x600", cfg.Width, cfg.Height)
	}

	if !strings.HasPrefix(img.DisplayURI, "file://") {
		t.Fatalf("display uri = %q, want file:// reference", img.DisplayURI)
	}
	if _, err := os.Stat(strings.TrimPrefix(img.DisplayURI, "file://")); err != nil {
		t.Errorf("display file missing: %v", err)
	}
}

func TestCaptureDeniedPermissionSkipsCamera(t *testing.T) {
	camera := &stubCamera{granted: false, photo: pngPhoto(t, 10, 10)}
	adapter := NewAdapter(camera, Options{Dir: t.TempDir()})

	_, err := adapter.Capture(context.Background())
	if !apperrors.IsType(err, apperrors.ErrorTypePermission) {
		t.Fatalf("err = %v, want permission error", err)
	}
	if camera.takes != 0 {
		t.Errorf("camera was used %d times without permission", camera.takes)
	}
}

func TestCaptureRejectsGarbage(t *testing.T) {
	camera := &stubCamera{granted: true, photo: []byte("not an image")}
	adapter := NewAdapter(camera, Options{Dir: t.TempDir()})

	if _, err := adapter.Capture(context.Background()); err == nil {
		t.Fatal("expected an error for undecodable photo")
	}
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1600, 1200, 800, 800, 600},
		{1200, 1600, 800, 600, 800},
		{640, 480, 800, 640, 480},
		{4000, 2, 800, 800, 1},
	}

	for _, tt := range tests {
		w, h := scaledSize(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("scaledSize(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestUploadCameraHandsOutPhotoOnce(t *testing.T) {
	camera := NewUploadCamera()
	camera.Put([]byte("photo"))

	if _, err := camera.Take(context.Background()); err != nil {
		t.Fatalf("first Take() failed: %v", err)
	}
	if _, err := camera.Take(context.Background()); err != ErrNoPhoto {
		t.Errorf("second Take() err = %v, want ErrNoPhoto", err)
	}
}
