package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/franckalain/foodlens/internal/logger"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `json:"port"`
		StaticDir string `json:"static_dir"`
		Debug     bool   `json:"debug"`
	} `json:"server"`

	// Recognition is the remote endpoint the analysis client calls
	Recognition struct {
		URL    string `json:"url"`
		APIKey string `json:"api_key"`
	} `json:"recognition"`

	Capture struct {
		MaxDimension int    `json:"max_dimension"`
		Quality      int    `json:"quality"`
		Dir          string `json:"dir"`
	} `json:"capture"`

	Storage struct {
		Type   string `json:"type"` // "s3" (default) or "sqlite"
		Bucket string `json:"bucket"`
		Region string `json:"region"`
		Path   string `json:"path"`
	} `json:"storage"`

	ML struct {
		Type       string `json:"type"` // "", "rekognition" or "google"
		ConfigPath string `json:"config_path"`
		TablePath  string `json:"table_path"`
	} `json:"ml"`

	Logger struct {
		Level  string `json:"level"`
		Output string `json:"output"`
		Format string `json:"format"`
	} `json:"logger"`
}

// LoadConfig loads configuration from a JSON file, then fills the gaps from
// the environment. A missing file is fine as long as the environment covers
// the required values.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		logger.Info("Config file not found, using environment", "path", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	// Fail if port is not set
	if config.Server.Port == "" {
		return nil, fmt.Errorf("server port is not set in config file or PORT")
	}

	return &config, nil
}

func (c *Config) applyEnv() {
	setIfEmpty(&c.Server.Port, "PORT")
	setIfEmpty(&c.Recognition.URL, "FOODLENS_API_URL")
	setIfEmpty(&c.Recognition.APIKey, "FOODLENS_API_KEY")
	setIfEmpty(&c.Storage.Bucket, "UPLOAD_BUCKET")
	setIfEmpty(&c.Storage.Region, "AWS_REGION")
	setIfEmpty(&c.ML.Type, "LABEL_PROVIDER")
	setIfEmpty(&c.ML.TablePath, "CALORIE_TABLE")
	setIfEmpty(&c.Logger.Level, "LOG_LEVEL")
	setIfEmpty(&c.Logger.Output, "LOG_OUTPUT")
	setIfEmpty(&c.Logger.Format, "LOG_FORMAT")

	// USE_REKOGNITION=true is the older switch for the rekognition provider
	if c.ML.Type == "" {
		if use, _ := strconv.ParseBool(os.Getenv("USE_REKOGNITION")); use {
			c.ML.Type = "rekognition"
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "./static"
	}
	if c.Capture.MaxDimension <= 0 {
		c.Capture.MaxDimension = 800
	}
	if c.Capture.Quality <= 0 || c.Capture.Quality > 100 {
		c.Capture.Quality = 70
	}
	if c.Capture.Dir == "" {
		c.Capture.Dir = filepath.Join(os.TempDir(), "foodlens")
	}
	// sqlite is opt-in; without a bucket the recognizer reports the missing bucket
	if c.Storage.Type == "" {
		c.Storage.Type = "s3"
	}
	if c.Storage.Type == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "foodlens.db"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
}

// LoggerConfig converts the logger section for logger.InitWithConfig
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      logger.ParseLevel(c.Logger.Level),
		OutputPath: c.Logger.Output,
		Format:     c.Logger.Format,
	}
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("FOODLENS_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}

func setIfEmpty(field *string, env string) {
	if *field != "" {
		return
	}
	*field = os.Getenv(env)
}
