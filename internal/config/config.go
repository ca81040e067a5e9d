package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CuratedFile    string        // path to the curated URLs yaml file
	ReloadInterval time.Duration // interval to reload the curated file (default: 24h)
	GCInterval     time.Duration // interval to prune the history cache (default: 24h)
	GCThreshold    time.Duration // history entries older than this are pruned (default: 720h)

	// Suggestions
	MaxVisible          int           // visible suggestion window size (default: 7)
	MaxTotal            int           // soft cap on the full candidate list (default: 48)
	EdgeBias            bool          // true => strongest suggestion rendered adjacent to the input
	AutocompleteURL     string        // remote autocomplete endpoint (optional, empty = local only)
	AutocompleteTimeout time.Duration // budget for one autocomplete round trip (default: 150ms)

	// Web search
	SearchProvider   string        // "serper" | "brave" | "" (disabled)
	SearchAPIKey     string        // primary provider API key
	FallbackProvider string        // optional secondary provider
	FallbackAPIKey   string        // secondary provider API key
	SearchBudget     time.Duration // total budget for a search attempt incl. fallback (default: 12s)

	// Model gateway
	LLMBaseURL   string        // ex: "http://localhost:11434"
	LLMAPIKey    string        // optional bearer token
	LLMTimeout   time.Duration // timeout for non-streaming gateway calls (default: 30s)
	ModelDefault string        // preferred general model (optional)
	ModelCode    string        // preferred model for code prompts (optional)
	ModelLong    string        // preferred model for very long prompts (optional)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("QB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("QB_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("QB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("QB_PRETTY_LOG", true),

		// Curated file
		CuratedFile:    getenv("QB_CURATED_FILE", "/app/curated.yaml"),
		ReloadInterval: mustDuration("QB_RELOAD_SOURCE_INTERVAL", 24*time.Hour),
		GCInterval:     mustDuration("QB_GC_INTERVAL", 24*time.Hour),
		GCThreshold:    mustDuration("QB_GC_THRESHOLD", 30*24*time.Hour),

		// Suggestions
		MaxVisible:          getenvInt("QB_MAX_VISIBLE", 7),
		MaxTotal:            getenvInt("QB_MAX_TOTAL", 48),
		EdgeBias:            mustBool("QB_EDGE_BIAS", false),
		AutocompleteURL:     getenv("QB_AUTOCOMPLETE_URL", ""),
		AutocompleteTimeout: mustDuration("QB_AUTOCOMPLETE_TIMEOUT", 150*time.Millisecond),

		// Web search
		SearchProvider:   getenv("QB_SEARCH_PROVIDER", ""),
		SearchAPIKey:     getenv("QB_SEARCH_API_KEY", ""),
		FallbackProvider: getenv("QB_SEARCH_FALLBACK_PROVIDER", ""),
		FallbackAPIKey:   getenv("QB_SEARCH_FALLBACK_API_KEY", ""),
		SearchBudget:     mustDuration("QB_SEARCH_BUDGET", 12*time.Second),

		// Model gateway
		LLMBaseURL:   getenv("QB_LLM_BASE_URL", "http://localhost:11434"),
		LLMAPIKey:    getenv("QB_LLM_API_KEY", ""),
		LLMTimeout:   mustDuration("QB_LLM_TIMEOUT", 30*time.Second),
		ModelDefault: getenv("QB_MODEL_DEFAULT", ""),
		ModelCode:    getenv("QB_MODEL_CODE", ""),
		ModelLong:    getenv("QB_MODEL_LONG", ""),

		// Redis settings
		RedisAddr:             requireEnv("QB_REDIS_ADDR"),
		RedisUser:             getenv("QB_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("QB_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("QB_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("QB_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: QB_REDIS_PASSWORD is required when QB_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.SearchProvider != "" && cfg.SearchAPIKey == "" {
		panic(fmt.Sprintf("❌ FATAL: QB_SEARCH_API_KEY is required when QB_SEARCH_PROVIDER=%s", cfg.SearchProvider))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.SearchAPIKey = redact(cfg.SearchAPIKey)
		cfgCopy.FallbackAPIKey = redact(cfg.FallbackAPIKey)
		cfgCopy.LLMAPIKey = redact(cfg.LLMAPIKey)
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func redact(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return "***REDACTED***"
}
