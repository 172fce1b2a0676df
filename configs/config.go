package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type OpenAI struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

type Content struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

type Config struct {
	Port                  string
	InstagramClientID     string
	InstagramClientSecret string
	InstagramAPIURL       string
	TiktokClientKey       string
	TiktokClientSecret    string
	TiktokAPIURL          string
	GoogleClientID        string
	GoogleClientSecret    string
	KawaiAPIURL           string
	PostgresURI           string
	RedisURI              string
	R2                    R2
	OpenAI                OpenAI
	Content               Content
	SchedulerTick         time.Duration
	ReconnectInterval     time.Duration
	PlatformPostTimeout   time.Duration
	PlatformRulesPath     string
	SecretKey             string
}

func LoadConfig() *Config {
	return &Config{
		Port:                  getEnv("PORT", "3000"),
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramAPIURL:       getEnv("INSTAGRAM_API_URL", "https://graph.instagram.com/v21.0"),
		TiktokClientKey:       getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret:    getEnv("TIKTOK_CLIENT_SECRET", ""),
		TiktokAPIURL:          getEnv("TIKTOK_API_URL", "https://open.tiktokapis.com/v2"),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		KawaiAPIURL:           getEnv("KAWAI_API_URL", "https://api.kawai.com/v1"),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", "localhost:6379"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		OpenAI: OpenAI{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 2000),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.8),
		},
		Content: Content{
			MaxRetries: getEnvInt("CONTENT_MAX_RETRIES", 3),
			RetryDelay: getEnvDuration("CONTENT_RETRY_DELAY", time.Second),
			Timeout:    getEnvDuration("CONTENT_TIMEOUT", 30*time.Second),
		},
		SchedulerTick:       getEnvDuration("SCHEDULER_TICK", time.Minute),
		ReconnectInterval:   getEnvDuration("RECONNECT_INTERVAL", 10*time.Minute),
		PlatformPostTimeout: getEnvDuration("PLATFORM_POST_TIMEOUT", 2*time.Minute),
		PlatformRulesPath:   getEnv("PLATFORM_RULES_PATH", ""),
		SecretKey:           getEnv("SECRET_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
