package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	MetricsAddr string
	LogLevel    string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Pdftotext     string
	Pdftoppm      string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
}

// LLMConfig holds reasoning-engine configuration
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	VisionModel    string
	Temperature    float32
	Timeout        time.Duration
	RequestsPerSec float64
}

// PipelineConfig holds the document-scoped pipeline defaults. A snapshot of
// these values is taken per document at enqueue time so a settings change
// never affects a document already in flight.
type PipelineConfig struct {
	VisionEnabled        bool
	OCRCorrectionEnabled bool
	CorrectionThreshold  int // 0..100, gates the correction sub-call
	FusionEnabled        bool
	PathTimeout          time.Duration
	MaxConcurrentPaths   int // system-wide admission control
	Workers              int
	QueueSize            int
}

// IngestConfig holds folder-watch configuration
type IngestConfig struct {
	WatchDirs   []string
	InitialScan bool
	Debounce    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:paperbase.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Server: ServerConfig{
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "fra+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "http://localhost:1234/v1"),
			APIKey:         getEnv("LLM_API_KEY", "lm-studio"),
			Model:          getEnv("LLM_MODEL", "local-model"),
			VisionModel:    getEnv("LLM_VISION_MODEL", ""),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			RequestsPerSec: getEnvAsFloat64("LLM_REQUESTS_PER_SEC", 2),
		},
		Pipeline: PipelineConfig{
			VisionEnabled:        getEnvAsBool("VISION_ENABLED", false),
			OCRCorrectionEnabled: getEnvAsBool("OCR_CORRECTION_ENABLED", false),
			CorrectionThreshold:  getEnvAsInt("OCR_CORRECTION_THRESHOLD", 80),
			FusionEnabled:        getEnvAsBool("OCR_VISION_FUSION", false),
			PathTimeout:          getEnvAsDuration("PATH_TIMEOUT", 3*time.Minute),
			MaxConcurrentPaths:   getEnvAsInt("MAX_CONCURRENT_PATHS", 4),
			Workers:              getEnvAsInt("PIPELINE_WORKERS", 2),
			QueueSize:            getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
		},
		Ingest: IngestConfig{
			WatchDirs:   splitNonEmpty(getEnv("WATCH_DIRS", "")),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required", ErrInvalidInput)
	}
	if c.Pipeline.CorrectionThreshold < 0 || c.Pipeline.CorrectionThreshold > 100 {
		return NewAppError("CONFIG_ERROR", "OCR_CORRECTION_THRESHOLD must be within 0..100", ErrInvalidInput)
	}
	if c.Pipeline.MaxConcurrentPaths <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CONCURRENT_PATHS must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
