package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	LLM       LLMConfig
	Ingest    IngestConfig
	Admin     AdminConfig
	Log       LogConfig
	Dev       DevConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// LLMConfig selects the completion backend used for CV extraction.
type LLMConfig struct {
	Provider        string
	OpenAIKey       string
	GeminiKey       string
	Model           string
	MaxOutputTokens int
	Temperature     float32
	Timeout         time.Duration
	MaxRetries      int
}

type IngestConfig struct {
	BatchSize   int
	MaxFiles    int
	MaxFileSize int64
}

type AdminConfig struct {
	Email             string
	Password          string
	RecruiterEmail    string
	RecruiterPassword string
}

type LogConfig struct {
	Level  string
	Format string
}

type DevConfig struct {
	AutoMigrate bool
	SeedData    bool
}

type CORSConfig struct {
	Origins     []string
	Credentials bool
}

type RateLimitConfig struct {
	Requests      int
	Window        int
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

var Cfg *Config

func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			Name:       getEnv("DB_NAME", "cv_talent"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/cv_talent.db"),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "dev-secret"),
			AccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h")),
			RefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),
		},
		LLM: LLMConfig{
			Provider:        provider,
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			GeminiKey:       getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("LLM_MODEL", defaultModel(provider)),
			MaxOutputTokens: parseInt(getEnv("LLM_MAX_OUTPUT_TOKENS", "5000")),
			Temperature:     parseFloat32(getEnv("LLM_TEMPERATURE", "0")),
			Timeout:         parseDuration(getEnv("LLM_TIMEOUT", "90s")),
			MaxRetries:      parseInt(getEnv("LLM_MAX_RETRIES", "0")),
		},
		Ingest: IngestConfig{
			BatchSize:   parseInt(getEnv("INGEST_BATCH_SIZE", "5")),
			MaxFiles:    parseInt(getEnv("INGEST_MAX_FILES", "50")),
			MaxFileSize: parseInt64(getEnv("INGEST_MAX_FILE_SIZE", "10485760")),
		},
		Admin: AdminConfig{
			Email:             getEnv("ADMIN_EMAIL", "admin@cv-talent.com"),
			Password:          getEnv("ADMIN_PASSWORD", "admin123"),
			RecruiterEmail:    getEnv("RECRUITER_EMAIL", "recruiter@cv-talent.com"),
			RecruiterPassword: getEnv("RECRUITER_PASSWORD", "recruiter123"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Dev: DevConfig{
			AutoMigrate: parseBool(getEnv("AUTO_MIGRATE", "true")),
			SeedData:    parseBool(getEnv("SEED_DATA", "true")),
		},
		CORS: CORSConfig{
			Origins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
			Credentials: parseBool(getEnv("CORS_CREDENTIALS", "true")),
		},
		RateLimit: RateLimitConfig{
			Requests:      parseInt(getEnv("RATE_LIMIT_REQUESTS", "100")),
			Window:        parseInt(getEnv("RATE_LIMIT_WINDOW", "60")),
			IdleTTL:       parseDuration(getEnv("RATE_LIMIT_IDLE_TTL", "10m")),
			SweepInterval: parseDuration(getEnv("RATE_LIMIT_SWEEP", "1m")),
		},
	}

	Cfg = cfg
	return nil
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.0-flash"
	}
	return "gpt-4.1"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func parseFloat32(s string) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0
	}
	return float32(f)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Hour
	}
	return d
}

func (c *Config) GetDSN() string {
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
			c.Database.SSLMode,
		)
	default:
		return c.Database.SQLitePath
	}
}

// APIKey returns the credential for the configured LLM provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == "gemini" {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
