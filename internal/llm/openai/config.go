package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/adelaunay/paperbase/internal/resilience"
)

// Config for the OpenAI-compatible client. Works against any endpoint that
// speaks /chat/completions (a local LM Studio instance included).
type Config struct {
	APIKey      string  // if empty, falls back to env LLM_API_KEY
	BaseURL     string  // default http://localhost:1234/v1
	Model       string  // text model
	VisionModel string  // multimodal model; empty means Model handles both
	Temperature float32 // 0..2
	Timeout     time.Duration
	// RequestsPerSec paces all calls toward the engine; <=0 disables pacing.
	RequestsPerSec float64
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	exec    *resilience.Executor
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "local-model"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		exec:    resilience.NewExecutor(resilience.DefaultConfig(), logger),
		logger:  logger,
	}
}
