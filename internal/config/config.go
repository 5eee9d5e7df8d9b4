package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Sentiment SentimentConfig
	CORS      CORSConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Prefix   string
}

type SentimentConfig struct {
	Provider string // "lexicon" or "remote"
	Endpoint string
	Timeout  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type DashboardConfig struct {
	Concurrency int
}

// IsDevelopment reports whether the server runs outside production
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

// Load reads configuration from the environment, an optional .env file, and defaults
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "petshop")
	v.SetDefault("DB_DATABASE", "petshop")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_PREFIX", "petshop:ratelimit")
	v.SetDefault("SENTIMENT_PROVIDER", "lexicon")
	v.SetDefault("SENTIMENT_TIMEOUT_MS", 2000)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DASHBOARD_CONCURRENCY", 8)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_DATABASE"),
			Schema:       v.GetString("DB_SCHEMA"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
			Prefix:   v.GetString("RATE_LIMIT_PREFIX"),
		},
		Sentiment: SentimentConfig{
			Provider: strings.ToLower(v.GetString("SENTIMENT_PROVIDER")),
			Endpoint: v.GetString("SENTIMENT_ENDPOINT"),
			Timeout:  time.Duration(v.GetInt("SENTIMENT_TIMEOUT_MS")) * time.Millisecond,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Dashboard: DashboardConfig{
			Concurrency: v.GetInt("DASHBOARD_CONCURRENCY"),
		},
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
