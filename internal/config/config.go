package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full environment surface of the bot. Every field has a
// working default except the API credentials.
type Config struct {
	YouTubeAPIKey    string
	OpenAIAPIKey     string
	OpenAIModel      string
	TelegramBotToken string

	UseProxies       bool
	ProxyListingURL  string
	ProxyFilter      string
	ProxyPoolSize    int
	ProxyRefresh     time.Duration
	MaxProxyAttempts int

	ProxyStore        string
	ProxyFallbackFile string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	MappingsFile string

	CheckInterval   time.Duration
	ProcessInterval time.Duration
	HTTPTimeout     time.Duration
	VerifyTimeout   time.Duration

	StatusAddr string
}

// Load reads the environment, honoring a .env file when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		YouTubeAPIKey:    getEnv("YOUTUBE_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		UseProxies:       getEnvBool("USE_PROXIES", true),
		ProxyListingURL:  getEnv("PROXY_LISTING_URL", ""),
		ProxyFilter:      getEnv("PROXY_FILTER", "quality"),
		ProxyPoolSize:    getEnvInt("PROXY_POOL_SIZE", 25),
		ProxyRefresh:     getEnvDuration("PROXY_REFRESH_INTERVAL", time.Hour),
		MaxProxyAttempts: getEnvInt("MAX_PROXY_ATTEMPTS", 5),

		ProxyStore:        getEnv("PROXY_STORE", "file"),
		ProxyFallbackFile: getEnv("PROXY_FALLBACK_FILE", "data/proxies.json"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),

		MappingsFile: getEnv("MAPPINGS_FILE", "data/data.json"),

		CheckInterval:   getEnvDuration("CHECK_INTERVAL", 30*time.Minute),
		ProcessInterval: getEnvDuration("PROCESS_INTERVAL", 5*time.Minute),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		VerifyTimeout:   getEnvDuration("VERIFY_TIMEOUT", 10*time.Second),

		StatusAddr: getEnv("STATUS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
