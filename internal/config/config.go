package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ProviderConfig struct {
	Name           string
	BaseURL        string
	LatestTTL      time.Duration
	UpdateInterval time.Duration
}

type RefreshPair struct {
	Provider string
	Base     string
}

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port string
	// Caching
	CacheBackend string // "memory" or "redis"
	// Providers
	Providers       []ProviderConfig
	ProviderTimeout time.Duration
	// Conversion policy
	RestrictedCurrencies []string
	// Storage (historical archive)
	Storage     string // "none" or "pg"
	DatabaseURL string
	// Redis (latest cache backend)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	// Background refresher
	RefreshPairs []RefreshPair
	RefreshEvery time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durMS(key string, defMS int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(defMS)), defMS)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
//
// Providers come from PROVIDERS (comma-separated names); each name NAME gets
// NAME_BASE_URL, NAME_LATEST_TTL_MS and NAME_UPDATE_INTERVAL_MS (defaulting
// to the TTL when unset).
func Load() Config {
	cfg := Config{
		Env:             getEnv("ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", "8080"),
		CacheBackend:    getEnv("CACHE_BACKEND", "memory"),
		ProviderTimeout: durMS("PROVIDER_TIMEOUT_MS", 4000),
		Storage:         getEnv("STORAGE", "none"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:        durMS("REDIS_TTL_MS", 24*60*60*1000),
		RefreshEvery:    durMS("REFRESH_EVERY_MS", 0),
	}

	for _, name := range splitList(getEnv("PROVIDERS", "frankfurter")) {
		prefix := strings.ToUpper(name)
		ttl := durMS(prefix+"_LATEST_TTL_MS", 5*60*1000)
		interval := durMS(prefix+"_UPDATE_INTERVAL_MS", int(ttl/time.Millisecond))
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			Name:           name,
			BaseURL:        getEnv(prefix+"_BASE_URL", "https://api.frankfurter.dev"),
			LatestTTL:      ttl,
			UpdateInterval: interval,
		})
	}

	cfg.RestrictedCurrencies = splitList(getEnv("RESTRICTED_CURRENCIES", "TRY,PLN,THB,MXN"))

	for _, pair := range splitList(getEnv("REFRESH_PAIRS", "")) {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		cfg.RefreshPairs = append(cfg.RefreshPairs, RefreshPair{Provider: parts[0], Base: parts[1]})
	}

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
