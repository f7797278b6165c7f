package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LookupSourceKeepa = "keepa"
	LookupSourcePage  = "page"
)

type Config struct {
	Addr               string
	MetricsPort        string
	RedisURL           string
	KeepaKey           string
	LookupSource       string
	AppPassword        string
	SessionSecret      string
	SessionTTL         time.Duration
	LookupCacheTTL     time.Duration
	DefaultMarketplace string
}

func Load() *Config {
	// .env at the project root when run from cmd/matcher
	_ = godotenv.Load("../../.env")
	// then the working directory
	_ = godotenv.Load()
	return &Config{
		Addr:               getEnv("ADDR", ":8080"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		KeepaKey:           strings.TrimSpace(os.Getenv("KEEPA_KEY")),
		LookupSource:       strings.ToLower(getEnv("LOOKUP_SOURCE", LookupSourceKeepa)),
		AppPassword:        strings.TrimSpace(os.Getenv("APP_PASSWORD")),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 720)) * time.Minute,
		LookupCacheTTL:     time.Duration(getEnvInt("LOOKUP_CACHE_TTL_HOURS", 24)) * time.Hour,
		DefaultMarketplace: strings.ToLower(getEnv("DEFAULT_MARKETPLACE", "it")),
	}
}

func getEnv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	v, err := strconv.Atoi(getEnv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}
