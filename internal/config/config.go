package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	AppEnv      string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	InventoryTTL  time.Duration

	GeminiAPIKey string
	GeminiModel  string
	AWSRegion    string
	S3Bucket     string
	// ImageHosts lists extra hosts garment images may be fetched from.
	ImageHosts   []string

	RevenueCatAPIKey  string
	RevenueCatBaseURL string

	StartingCredits   int
	FreeTierItemLimit int
	ResetInterval     time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		AppEnv:      fallback(os.Getenv("APP_ENV"), "development"),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat:   strings.TrimSpace(os.Getenv("LOG_FORMAT")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "capsule-backend"),
		JWTTTL:      minutes(os.Getenv("JWT_TTL_MINUTES"), 60*time.Minute),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		MongoURI:      strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase: fallback(os.Getenv("MONGO_DATABASE"), "capsule"),

		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       integer(os.Getenv("REDIS_DB"), 0),
		InventoryTTL:  time.Duration(integer(os.Getenv("INVENTORY_CACHE_TTL_SECONDS"), 300)) * time.Second,

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		AWSRegion:    fallback(os.Getenv("AWS_REGION"), "us-east-1"),
		S3Bucket:     strings.TrimSpace(os.Getenv("S3_BUCKET")),
		ImageHosts:   strings.FieldsFunc(strings.ToLower(os.Getenv("GARMENT_IMAGE_HOSTS")), isListSeparator),

		RevenueCatAPIKey:  strings.TrimSpace(os.Getenv("REVENUECAT_API_KEY")),
		RevenueCatBaseURL: strings.TrimSpace(os.Getenv("REVENUECAT_BASE_URL")),

		StartingCredits:   integer(os.Getenv("STARTING_CREDITS"), 3),
		FreeTierItemLimit: integer(os.Getenv("FREE_TIER_ITEM_LIMIT"), 30),
		ResetInterval:     minutes(os.Getenv("RESET_INTERVAL_MINUTES"), 0),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.MongoURI == "" {
		return Config{}, errors.New("MONGO_URI is required")
	}
	if cfg.StartingCredits < 0 {
		return Config{}, errors.New("STARTING_CREDITS must not be negative")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// TryOnEnabled reports whether both the model and the bucket are configured.
func (c Config) TryOnEnabled() bool {
	return c.GeminiAPIKey != "" && c.S3Bucket != ""
}

// GarmentImageHosts returns the hosts try-on may download garment images
// from: the bucket's S3 endpoints plus ImageHosts.
func (c Config) GarmentImageHosts() []string {
	var hosts []string
	if c.S3Bucket != "" {
		hosts = append(hosts,
			fmt.Sprintf("%s.s3.%s.amazonaws.com", c.S3Bucket, c.AWSRegion),
			fmt.Sprintf("%s.s3.amazonaws.com", c.S3Bucket))
	}
	return append(hosts, c.ImageHosts...)
}

func isListSeparator(r rune) bool {
	return r == ',' || r == ' '
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func integer(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}

func minutes(value string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Minute
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
