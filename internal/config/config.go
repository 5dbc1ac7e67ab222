package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	TTSFailureDegrade = "degrade"
	TTSFailureError   = "error"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8000"`

	OpenAIKey     string `env:"OPEN_AI_KEY,required"`
	OpenAIOrg     string `env:"OPEN_AI_ORG"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ElevenLabsKey     string `env:"ELEVENLABS_KEY,required"`
	ElevenLabsBaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID" envDefault:"oCrq2rImpPsxuDKWkxVI"`

	DataDir   string `env:"DATA_DIR" envDefault:"."`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5174,http://localhost:5173,http://localhost:8000,http://localhost:3000,https://skillscribe-com.vercel.app"`

	TTSFailureMode  string        `env:"TTS_FAILURE_MODE" envDefault:"degrade"`
	TalkRateLimit   int           `env:"TALK_RATE_LIMIT" envDefault:"0"`
	MaxPromptTokens int           `env:"MAX_PROMPT_TOKENS" envDefault:"0"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"0s"`

	S3 S3Config

	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminChatID int64  `env:"TELEGRAM_ADMIN_CHAT_ID"`
}

// S3Config is optional; an empty Endpoint disables upload archiving.
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION"`
	Secure    bool   `env:"S3_SECURE" envDefault:"true"`
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := strconv.Atoi(c.Port); err != nil {
		result = multierror.Append(result, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	if c.OpenAIKey == "" {
		result = multierror.Append(result, errors.New("OPEN_AI_KEY is not set"))
	}
	if c.ElevenLabsKey == "" {
		result = multierror.Append(result, errors.New("ELEVENLABS_KEY is not set"))
	}
	if c.ElevenLabsVoiceID == "" {
		result = multierror.Append(result, errors.New("ELEVENLABS_VOICE_ID must not be empty"))
	}
	if c.DataDir == "" {
		result = multierror.Append(result, errors.New("DATA_DIR must not be empty"))
	}
	if c.UploadDir == "" {
		result = multierror.Append(result, errors.New("UPLOAD_DIR must not be empty"))
	}
	// uploads keep the client's filename, so they must never land next to history files
	if c.DataDir != "" && c.UploadDir != "" && sameDir(c.DataDir, c.UploadDir) {
		result = multierror.Append(result, fmt.Errorf("UPLOAD_DIR %q must differ from DATA_DIR %q", c.UploadDir, c.DataDir))
	}

	switch c.TTSFailureMode {
	case TTSFailureDegrade, TTSFailureError:
	default:
		result = multierror.Append(result, fmt.Errorf("TTS_FAILURE_MODE must be %q or %q, got %q",
			TTSFailureDegrade, TTSFailureError, c.TTSFailureMode))
	}

	if c.TalkRateLimit < 0 {
		result = multierror.Append(result, errors.New("TALK_RATE_LIMIT must not be negative"))
	}
	if c.MaxPromptTokens < 0 {
		result = multierror.Append(result, errors.New("MAX_PROMPT_TOKENS must not be negative"))
	}
	if c.UpstreamTimeout < 0 {
		result = multierror.Append(result, errors.New("UPSTREAM_TIMEOUT must not be negative"))
	}

	if c.S3.Enabled() && c.S3.Bucket == "" {
		result = multierror.Append(result, errors.New("S3_BUCKET is required when S3_ENDPOINT is set"))
	}
	if c.TelegramEnabled() && c.TelegramAdminChatID == 0 {
		result = multierror.Append(result, errors.New("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	return result.ErrorOrNil()
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
