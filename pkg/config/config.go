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

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	AI       AIConfig
	Gemini   GeminiConfig
	Groq     GroqConfig
	Assembly AssemblyAIConfig
	Worker   WorkerConfig
	Minutes  MinutesConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
	MaxUploadMB     int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Driver   string // "redis" or "memory"
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// AuthConfig holds the password gate and session token settings
type AuthConfig struct {
	Password     string
	AccessSecret string
	AccessExpiry time.Duration
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
	URLExpiry       time.Duration
}

// AIConfig selects providers and shared retry policy
type AIConfig struct {
	Provider       string // "gemini" or "groq"
	Transcriber    string // "gemini" or "assemblyai"
	MaxElapsed     time.Duration
	RequestTimeout time.Duration
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKeys []string
	Model   string
	BaseURL string
}

// GroqConfig holds Groq API configuration
type GroqConfig struct {
	APIKeys []string
	Model   string
	BaseURL string
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey   string
	Language string
}

// WorkerConfig holds transcription worker pool settings
type WorkerConfig struct {
	Count        int
	PollInterval time.Duration
}

// MinutesConfig holds renderer and speaker normalizer settings
type MinutesConfig struct {
	DefaultsFile       string
	SpeakerLabelMaxLen int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
			MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 200),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "mai_recap"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Driver:   getEnv("CACHE_DRIVER", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("CACHE_TTL", "24h"),
		},
		Auth: AuthConfig{
			Password:     getEnv("APP_PASSWORD", ""),
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "12h"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "mai-recap"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
			URLExpiry:       getEnvAsDuration("STORAGE_URL_EXPIRY", "1h"),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
			Transcriber:    strings.ToLower(getEnv("TRANSCRIBER", "gemini")),
			MaxElapsed:     getEnvAsDuration("AI_MAX_ELAPSED", "2m"),
			RequestTimeout: getEnvAsDuration("AI_REQUEST_TIMEOUT", "20m"),
		},
		Gemini: GeminiConfig{
			APIKeys: getEnvAsList("GEMINI_API_KEYS", getEnv("GEMINI_API_KEY", "")),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
		Groq: GroqConfig{
			APIKeys: getEnvAsList("GROQ_API_KEYS", getEnv("GROQ_API_KEY", "")),
			Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			BaseURL: getEnv("GROQ_API_URL", "https://api.groq.com"),
		},
		Assembly: AssemblyAIConfig{
			APIKey:   getEnv("ASSEMBLYAI_API_KEY", ""),
			Language: getEnv("ASSEMBLYAI_LANGUAGE", "en"),
		},
		Worker: WorkerConfig{
			Count:        getEnvAsInt("WORKER_COUNT", 2),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Minutes: MinutesConfig{
			DefaultsFile:       getEnv("MINUTES_DEFAULTS_FILE", ""),
			SpeakerLabelMaxLen: getEnvAsInt("SPEAKER_LABEL_MAX_LEN", 30),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.Password == "" {
		return fmt.Errorf("APP_PASSWORD is required")
	}
	if c.IsProduction() && c.Auth.AccessSecret == "your-access-secret-change-in-production" {
		return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}

	switch c.AI.Provider {
	case "gemini":
		if len(c.Gemini.APIKeys) == 0 {
			return fmt.Errorf("GEMINI_API_KEYS is required when AI_PROVIDER=gemini")
		}
	case "groq":
		if len(c.Groq.APIKeys) == 0 {
			return fmt.Errorf("GROQ_API_KEYS is required when AI_PROVIDER=groq")
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider)
	}

	switch c.AI.Transcriber {
	case "gemini":
		if len(c.Gemini.APIKeys) == 0 {
			return fmt.Errorf("GEMINI_API_KEYS is required when TRANSCRIBER=gemini")
		}
	case "assemblyai":
		if c.Assembly.APIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required when TRANSCRIBER=assemblyai")
		}
	default:
		return fmt.Errorf("unsupported TRANSCRIBER %q", c.AI.Transcriber)
	}

	switch c.Redis.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported CACHE_DRIVER %q", c.Redis.Driver)
	}

	if c.Minutes.SpeakerLabelMaxLen <= 0 {
		return fmt.Errorf("SPEAKER_LABEL_MAX_LEN must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
