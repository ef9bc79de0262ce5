package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingMongoURI is returned by LoadConfig when MONGODB_URI is unset
// and the in-memory store was not requested.
var ErrMissingMongoURI = errors.New("environment variable MONGODB_URI is required")

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type MongoDBConfig struct {
	URI                   string
	Database              string
	Timeout               time.Duration
	RestaurantsCollection string
	RatingsCollection     string
	// InMemory serves the API from process memory; for local runs only.
	InMemory bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

type LogConfig struct {
	Level    string
	Encoding string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_CORS_ORIGINS", "*")
	v.SetDefault("MONGODB_DATABASE", "restocatalog")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_RESTAURANTS_COLLECTION", "restaurants")
	v.SetDefault("MONGODB_RATINGS_COLLECTION", "ratings")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("CACHE_PREFIX", "restaurants:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENCODING", "json")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  v.GetStringSlice("SERVER_CORS_ORIGINS"),
		},
		MongoDB: MongoDBConfig{
			URI:                   v.GetString("MONGODB_URI"),
			Database:              v.GetString("MONGODB_DATABASE"),
			Timeout:               time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			RestaurantsCollection: v.GetString("MONGODB_RESTAURANTS_COLLECTION"),
			RatingsCollection:     v.GetString("MONGODB_RATINGS_COLLECTION"),
			InMemory:              v.GetBool("STORE_IN_MEMORY"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("CACHE_ENABLED"),
			TTL:     time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
			Prefix:  v.GetString("CACHE_PREFIX"),
		},
		Log: LogConfig{
			Level:    v.GetString("LOG_LEVEL"),
			Encoding: v.GetString("LOG_ENCODING"),
		},
	}

	if cfg.MongoDB.URI == "" && !cfg.MongoDB.InMemory {
		return nil, ErrMissingMongoURI
	}
	return cfg, nil
}
