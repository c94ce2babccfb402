package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "9090"},
		"recognition": {"url": "https://example.test/analyze-food", "api_key": "secret"},
		"storage": {"type": "s3", "bucket": "meals"}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Recognition.APIKey != "secret" {
		t.Errorf("api key = %q, want secret", cfg.Recognition.APIKey)
	}
	if cfg.Capture.MaxDimension != 800 || cfg.Capture.Quality != 70 {
		t.Errorf("capture defaults = %d/%d, want 800/70", cfg.Capture.MaxDimension, cfg.Capture.Quality)
	}
	if cfg.Server.StaticDir != "./static" {
		t.Errorf("static dir = %q, want ./static", cfg.Server.StaticDir)
	}
}

func TestLoadConfigEnvFallback(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("FOODLENS_API_URL", "https://env.test/analyze")
	t.Setenv("UPLOAD_BUCKET", "env-bucket")
	t.Setenv("USE_REKOGNITION", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want 7070", cfg.Server.Port)
	}
	if cfg.Recognition.URL != "https://env.test/analyze" {
		t.Errorf("url = %q", cfg.Recognition.URL)
	}
	if cfg.Storage.Type != "s3" {
		t.Errorf("storage type = %q, want s3 when a bucket is set", cfg.Storage.Type)
	}
	if cfg.ML.Type != "rekognition" {
		t.Errorf("ml type = %q, want rekognition", cfg.ML.Type)
	}
}

func TestLoadConfigRequiresPort(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `{"server": {}}`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error when no port is configured")
	}
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := writeConfig(t, `{"server":`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadConfigWithoutBucketKeepsS3(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("UPLOAD_BUCKET", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Storage.Type != "s3" || cfg.Storage.Bucket != "" {
		t.Errorf("storage = %q bucket %q, want s3 with no bucket", cfg.Storage.Type, cfg.Storage.Bucket)
	}
	if cfg.Storage.Path != "" {
		t.Errorf("sqlite path = %q, want none unless sqlite is chosen", cfg.Storage.Path)
	}
}

func TestLoadConfigExplicitSQLite(t *testing.T) {
	t.Setenv("UPLOAD_BUCKET", "")
	path := writeConfig(t, `{"server": {"port": "9090"}, "storage": {"type": "sqlite"}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "foodlens.db" {
		t.Errorf("storage = %q path %q, want sqlite at foodlens.db", cfg.Storage.Type, cfg.Storage.Path)
	}
}
