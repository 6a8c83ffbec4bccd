package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Ordering backend & geocoding provider
	BackendAPIURL  string
	GeocodeBaseURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	// MaxGeocodeConcurrency caps in-flight reverse-geocode requests.
	MaxGeocodeConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Session store
	RedisAddr        string
	RedisPassword    string
	SessionNamespace string
	// UseMemoryStore swaps Redis for an in-process store (dev only; no
	// cross-tab signals beyond this process).
	UseMemoryStore bool

	// Onboarding defaults
	DefaultArea string
	MapLat      float64
	MapLng      float64
	MapZoom     int
}

// LoadDotEnv loads a .env file if present. Existing env vars win.
func LoadDotEnv(path string) error {
	return godotenv.Load(path)
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendAPIURL:  getEnv("BACKEND_API_URL", "http://localhost:8081"),
		GeocodeBaseURL: getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:            getEnvInt("MAX_RETRIES", 3),
		InitialBackoff:        getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxGeocodeConcurrency: getEnvInt("MAX_GEOCODE_CONCURRENCY", 4),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		SessionNamespace: getEnv("SESSION_NAMESPACE", "default"),
		UseMemoryStore:   getEnv("USE_MEMORY_STORE", "false") == "true",

		DefaultArea: getEnv("DEFAULT_AREA", "Navrangpura"),
		MapLat:      getEnvFloat("MAP_LAT", 23.0225),
		MapLng:      getEnvFloat("MAP_LNG", 72.5714),
		MapZoom:     getEnvInt("MAP_ZOOM", 20),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
