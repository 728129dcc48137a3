package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	// Masterpiece X image-to-3D generation.
	MasterpieceAPIURL         string
	MasterpieceAPIKey         string
	MasterpieceAppID          string
	Enable3DGeneration        bool
	MasterpiecePollInterval   time.Duration
	MasterpieceMaxPollTries   int
	MasterpieceRequestTimeout time.Duration
	MasterpieceGeneratePaths  string
	MasterpieceStatusPaths    string
	MasterpieceAssetPaths     string
	MasterpieceForceUpload    bool
	MasterpieceTryUpload      bool

	// Pixelcut virtual try-on.
	PixelcutAPIKey string
	PixelcutAPIURL string

	// Cloudinary image hosting.
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// Gemini shopping assistant.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "tryon"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		MasterpieceAPIURL:         os.Getenv("MASTERPIECE_X_API_URL"),
		MasterpieceAPIKey:         os.Getenv("MASTERPIECE_X_API_KEY"),
		MasterpieceAppID:          os.Getenv("MASTERPIECE_X_APP_ID"),
		Enable3DGeneration:        os.Getenv("ENABLE_3D_GENERATION") == "true",
		MasterpiecePollInterval:   time.Millisecond * time.Duration(getEnvInt("MASTERPIECE_POLL_INTERVAL_MS", 5000)),
		MasterpieceMaxPollTries:   getEnvInt("MASTERPIECE_MAX_POLL_ATTEMPTS", 240),
		MasterpieceRequestTimeout: time.Millisecond * time.Duration(getEnvInt("MASTERPIECE_REQUEST_TIMEOUT_MS", 30000)),
		MasterpieceGeneratePaths:  os.Getenv("MASTERPIECE_GENERATE_PATHS"),
		MasterpieceStatusPaths:    os.Getenv("MASTERPIECE_STATUS_PATHS"),
		MasterpieceAssetPaths:     os.Getenv("MASTERPIECE_ASSET_PATHS"),
		MasterpieceForceUpload:    os.Getenv("MASTERPIECE_FORCE_ASSET_UPLOAD") == "true",
		MasterpieceTryUpload:      getEnvBool("MASTERPIECE_TRY_ASSET_UPLOAD", true),

		PixelcutAPIKey: os.Getenv("PIXELCUT_API_KEY"),
		PixelcutAPIURL: getEnv("PIXELCUT_API_URL", "https://api.developer.pixelcut.ai/v1/try-on"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "tryon"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v == "true"
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
