package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	AWS        AWSConfig
	Storage    StorageConfig
	Generation GenerationConfig
	Worker     WorkerConfig
	OpenAI     OpenAIConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadHeaderTimeout  int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string // "postgres" (default) or "memory"
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the S3 bucket for uploaded media.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	MediaBucket          string
	PresignExpireMinutes int
}

// StorageConfig selects where uploaded videos are written.
type StorageConfig struct {
	Driver   string // "local" (default) or "s3"
	LocalDir string
	MaxBytes      int64
	UploadTimeout time.Duration // read/write deadline for a single upload request
}

// GenerationConfig tunes the clip generation engine and the simulated analyzer.
type GenerationConfig struct {
	Timeout           time.Duration
	MaxClips          int
	SimulatedDuration float64 // seconds reported by the simulated analyzer
	ClipLength        float64
	SimulatedLatency  time.Duration
}

// WorkerConfig tunes the generation worker pool and the reaper.
type WorkerConfig struct {
	Concurrency  int
	ReaperSpec   string // cron spec
	QueuedAfter  time.Duration
	RunningGrace time.Duration
	RunInProcess bool   // run worker pool and reaper inside the API server
	Dispatch     string // "redis" (default) or "inline"
}

// OpenAIConfig enables the OpenAI caption suggester when APIKey is set.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// RateLimitConfig holds per-IP limits for public auth routes.
type RateLimitConfig struct {
	RegisterPerMinute int
	LoginPerMinute    int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3001"),
			ReadHeaderTimeout:  getEnvInt("READ_HEADER_TIMEOUT_SEC", 10),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 300),
			CORSAllowedOrigins: getEnv("FRONTEND_URL", "*"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "clipai"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24*7),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MediaBucket:          getEnv("AWS_S3_MEDIA_BUCKET", "clipai-media"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "uploads"),
			MaxBytes:      int64(getEnvInt("UPLOAD_MAX_BYTES", 2*1024*1024*1024)),
			UploadTimeout: getEnvDuration("UPLOAD_TIMEOUT", 2*time.Hour),
		},
		Generation: GenerationConfig{
			Timeout:           getEnvDuration("GENERATION_TIMEOUT", 10*time.Minute),
			MaxClips:          getEnvInt("GENERATION_MAX_CLIPS", 6),
			SimulatedDuration: getEnvFloat("SIMULATED_VIDEO_DURATION_SEC", 240),
			ClipLength:        getEnvFloat("SIMULATED_CLIP_LENGTH_SEC", 45),
			SimulatedLatency:  getEnvDuration("SIMULATED_LATENCY", 2*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
			ReaperSpec:   getEnv("REAPER_SCHEDULE", "@every 1m"),
			QueuedAfter:  getEnvDuration("REAPER_QUEUED_AFTER", 2*time.Minute),
			RunningGrace: getEnvDuration("REAPER_RUNNING_GRACE", time.Minute),
			RunInProcess: getEnvBool("WORKER_IN_PROCESS", true),
			Dispatch:     strings.ToLower(getEnv("QUEUE_DRIVER", "redis")),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		RateLimit: RateLimitConfig{
			RegisterPerMinute: getEnvInt("RATE_LIMIT_REGISTER_PER_MIN", 5),
			LoginPerMinute:    getEnvInt("RATE_LIMIT_LOGIN_PER_MIN", 10),
		},
	}
	if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "memory" {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	if cfg.Storage.Driver != "local" && cfg.Storage.Driver != "s3" {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Worker.Dispatch != "redis" && cfg.Worker.Dispatch != "inline" {
		return nil, fmt.Errorf("unknown QUEUE_DRIVER %q", cfg.Worker.Dispatch)
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
