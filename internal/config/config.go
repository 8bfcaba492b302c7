package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"

	AuthFirebase = "firebase"
	AuthLocal    = "local"
)

type Config struct {
	Port                    string
	LogLevel                string
	Backend                 string
	DatabaseURL             string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string
	FirebaseAPIKey          string
	AuthProvider            string
	JWTSecret               string
	TokenTTL                time.Duration
	ClerkSecretKey          string
	GeminiAPIKey            string
	AIModel                 string
	AIAssistantModel        string
	RedisURL                string
	MetricsUser             string
	MetricsPass             string
	PprofSecret             string
	RateLimitPerSecond      float64
	RateLimitBurst          int
	AllowedOrigins          []string
	TrustedProxies          []string
	EnvironmentCacheTTL     time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "3333"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		Backend:                 getEnv("BACKEND", BackendMemory),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./serviceAccountKey.json"),
		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		AuthProvider:            getEnv("AUTH_PROVIDER", AuthLocal),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		TokenTTL:                getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		ClerkSecretKey:          getEnv("CLERK_SECRET_KEY", ""),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		AIModel:                 getEnv("AI_MODEL", "gemini-3-flash-preview"),
		AIAssistantModel:        getEnv("AI_ASSISTANT_MODEL", "gemini-3-pro-preview"),
		RedisURL:                getEnv("REDIS_URL", ""),
		MetricsUser:             getEnv("METRICS_USER", ""),
		MetricsPass:             getEnv("METRICS_PASS", ""),
		PprofSecret:             getEnv("PPROF_SECRET", ""),
		RateLimitPerSecond:      getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:          getEnvAsInt("RATE_LIMIT_BURST", 30),
		AllowedOrigins:          getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:          getEnvAsList("TRUSTED_PROXIES", nil),
		EnvironmentCacheTTL:     getEnvAsDuration("ENVIRONMENT_CACHE_TTL", 10*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFirestore:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend)
	}

	switch c.AuthProvider {
	case AuthFirebase:
		if c.FirebaseAPIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required for firebase password sign-in")
		}
	case AuthLocal:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
