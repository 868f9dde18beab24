package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by KEYGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("KEYGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// JWTSecret is the HS256 signing key for session tokens. Required.
func JWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

// UserTokenTTL returns the session lifetime for ordinary users.
// Defaults to 24h.
func UserTokenTTL() time.Duration {
	return durationEnv("USER_TOKEN_TTL", 24*time.Hour)
}

// AdminTokenTTL returns the session lifetime for administrative subjects.
// Defaults to 12h.
func AdminTokenTTL() time.Duration {
	return durationEnv("ADMIN_TOKEN_TTL", 12*time.Hour)
}

// RateLimitRequests returns the request ceiling per window.
// Defaults to 100 if not set.
func RateLimitRequests() int {
	n, err := strconv.Atoi(os.Getenv("RATE_LIMIT_REQUESTS"))
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

// RateLimitWindow returns the rate limit window duration.
// Defaults to 60s if not set.
func RateLimitWindow() time.Duration {
	return durationEnv("RATE_LIMIT_WINDOW", 60*time.Second)
}

// RateLimitScope selects the limiter key: "ip" (default) or "ip_app". With
// ip_app the limiter folds the X-App-Secret request header into the key, so a
// client that wants a per-tenant bucket behind a shared NAT must send its app
// secret in that header in addition to the request body (the middleware does
// not read bodies). Without the header ip_app behaves like ip.
func RateLimitScope() string {
	s := os.Getenv("RATE_LIMIT_SCOPE")
	if s != "ip_app" {
		return "ip"
	}
	return s
}

// WebhookTimeout bounds a single outbound webhook delivery.
// Defaults to 5s.
func WebhookTimeout() time.Duration {
	return durationEnv("WEBHOOK_TIMEOUT", 5*time.Second)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
