package config

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	API    APIConfig
	Upload UploadConfig
	Trace  TraceConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	Debug       bool
}

type APIConfig struct {
	BaseURL           string `validate:"required,url"`
	Key               string `validate:"required"`
	DefaultUserID     string `validate:"required"`
	ShortTimeoutSecs  int    `validate:"gt=0"`
	UploadTimeoutSecs int    `validate:"gt=0"`
}

type UploadConfig struct {
	MaxFileBytes int64 `validate:"gt=0"`
	Languages    []OCRLanguage
}

// OCRLanguage pairs a tesseract-style language code with a display label.
type OCRLanguage struct {
	Code  string
	Label string
}

type TraceConfig struct {
	Endpoint string // OTLP/HTTP collector, tracing disabled when empty
}

const defaultMaxFileBytes = 10 * 1024 * 1024 // 10 MiB

func defaultLanguages() []OCRLanguage {
	return []OCRLanguage{
		{Code: "ita+eng", Label: "Italian + English"},
		{Code: "ita", Label: "Italian"},
		{Code: "eng", Label: "English"},
		{Code: "fra", Label: "French"},
		{Code: "spa", Label: "Spanish"},
		{Code: "deu", Label: "German"},
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "neuramind.log"),
			Debug:       getEnvAsBool("NEURAMIND_DEBUG", false),
		},
		API: APIConfig{
			BaseURL:           getEnv("NEURAMIND_API_BASE_URL", "http://localhost:8000/v1"),
			Key:               getEnv("NEURAMIND_API_KEY", ""),
			DefaultUserID:     getEnv("NEURAMIND_USER_ID", "mobile-user-001"),
			ShortTimeoutSecs:  getEnvAsInt("NEURAMIND_TIMEOUT_SECS", 30),
			UploadTimeoutSecs: getEnvAsInt("NEURAMIND_UPLOAD_TIMEOUT_SECS", 60),
		},
		Upload: UploadConfig{
			MaxFileBytes: int64(getEnvAsInt("NEURAMIND_MAX_UPLOAD_BYTES", defaultMaxFileBytes)),
			Languages:    defaultLanguages(),
		},
		Trace: TraceConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}
}

// Validate checks the loaded configuration once at startup. The config is
// immutable afterwards and passed by injection, never looked up globally.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.API); err != nil {
		return err
	}
	return v.Struct(c.Upload)
}

// SupportsLanguage reports whether code is one of the configured OCR
// language codes.
func (c *Config) SupportsLanguage(code string) bool {
	for _, l := range c.Upload.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
