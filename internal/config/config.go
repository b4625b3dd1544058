package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort     string
	Environment    string
	JWTSecret      string
	AllowedOrigins []string
	Postgres       PostgresConfig
	Mongo          MongoConfig
	Gemini         GeminiConfig
	Storage        StorageConfig
	Logging        LoggingConfig
	Policy         PolicyConfig
}

type PostgresConfig struct {
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	Database          string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float64
	TopP            float64
	TopK            int32
	MaxOutputTokens int32
	RequestTimeout  time.Duration
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PresignExpiry time.Duration
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
	File         string
	FileMaxSize  int
	FileMaxAge   int
	FileCompress bool
}

// PolicyConfig declares, per feature, whether AI failures degrade to the
// feature's deterministic fallback payload or propagate as errors.
type PolicyConfig struct {
	FallbackTutor   bool
	FallbackChat    bool
	FallbackQuiz    bool
	FallbackRoadmap bool
	FallbackResume  bool
	FallbackVisual  bool
}

func LoadConfig() (*Config, error) {
	port := envOrDefault("PORT", "8080")
	environment := strings.ToLower(envOrDefault("APP_ENV", "development"))
	jwtSecret := envOrDefault("JWT_SECRET", "dev-secret")

	pgPort, _ := strconv.Atoi(envOrDefault("POSTGRES_PORT", "5432"))
	maxConns := parseInt32(envOrDefault("POSTGRES_MAX_CONNS", "8"), 8)
	minConns := parseInt32(envOrDefault("POSTGRES_MIN_CONNS", "1"), 1)

	logging := LoggingConfig{
		Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
		Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
		EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
		ServiceName:  envOrDefault("SERVICE_NAME", "orbit-server"),
		File:         os.Getenv("LOG_FILE"),
		FileMaxSize:  int(parseInt32(envOrDefault("LOG_FILE_MAX_SIZE_MB", "10"), 10)),
		FileMaxAge:   int(parseInt32(envOrDefault("LOG_FILE_MAX_AGE_DAYS", "30"), 30)),
		FileCompress: parseBool(envOrDefault("LOG_FILE_COMPRESS", "true"), true),
	}

	cfg := &Config{
		ServerPort:     port,
		Environment:    environment,
		JWTSecret:      jwtSecret,
		AllowedOrigins: splitAndTrim(envOrDefault("ALLOWED_ORIGINS", "*")),
		Postgres: PostgresConfig{
			DSN:               os.Getenv("POSTGRES_DSN"),
			Host:              envOrDefault("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              envOrDefault("POSTGRES_USER", "postgres"),
			Password:          envOrDefault("POSTGRES_PASSWORD", "postgres"),
			Database:          envOrDefault("POSTGRES_DB", "orbit"),
			MaxConns:          maxConns,
			MinConns:          minConns,
			MaxConnLifetime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_LIFETIME", "1h"), time.Hour),
			MaxConnIdleTime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_IDLE", "30m"), 30*time.Minute),
			HealthCheckPeriod: parseDuration(envOrDefault("POSTGRES_HEALTH_CHECK_PERIOD", "1m"), time.Minute),
			ConnectTimeout:    parseDuration(envOrDefault("POSTGRES_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Mongo: MongoConfig{
			URI:            envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:       envOrDefault("MONGO_DATABASE", "orbit"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:          envOrDefault("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
			Model:           envOrDefault("GEMINI_MODEL_NAME", "gemini-2.5-flash"),
			Temperature:     parseFloat(envOrDefault("GEMINI_TEMPERATURE", "0.7"), 0.7),
			TopP:            parseFloat(envOrDefault("GEMINI_TOP_P", "0.95"), 0.95),
			TopK:            parseInt32(envOrDefault("GEMINI_TOP_K", "40"), 40),
			MaxOutputTokens: parseInt32(envOrDefault("GEMINI_MAX_OUTPUT_TOKENS", "8192"), 8192),
			RequestTimeout:  parseDuration(envOrDefault("GEMINI_REQUEST_TIMEOUT", "60s"), 60*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:      os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:        envOrDefault("STORAGE_BUCKET", "orbit-uploads"),
			UseSSL:        parseBool(envOrDefault("STORAGE_USE_SSL", "false"), false),
			PresignExpiry: parseDuration(envOrDefault("STORAGE_PRESIGN_EXPIRY", "24h"), 24*time.Hour),
		},
		Logging: logging,
		Policy: PolicyConfig{
			FallbackTutor:   parseBool(envOrDefault("FALLBACK_TUTOR", "true"), true),
			FallbackChat:    parseBool(envOrDefault("FALLBACK_CHAT", "true"), true),
			FallbackQuiz:    parseBool(envOrDefault("FALLBACK_QUIZ", "true"), true),
			FallbackRoadmap: parseBool(envOrDefault("FALLBACK_ROADMAP", "true"), true),
			FallbackResume:  parseBool(envOrDefault("FALLBACK_RESUME", "true"), true),
			FallbackVisual:  parseBool(envOrDefault("FALLBACK_VISUAL", "true"), true),
		},
	}

	return cfg, nil
}

// Development reports whether the server runs with development error detail.
func (c *Config) Development() bool {
	return c.Environment != "production"
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

func (g GeminiConfig) Configured() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

func (s StorageConfig) Configured() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt32(value string, fallback int32) int32 {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return int32(i)
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
