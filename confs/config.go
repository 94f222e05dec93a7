package confs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	IdentityProvider string // firebase | oidc

	FirebaseServiceAccountPath string
	FirebaseProjectID          string
	FirebaseClientEmail        string
	FirebasePrivateKey         string

	OIDCIssuer   string
	OIDCClientID string

	RedisAddr     string
	RedisPassword string

	RateLimitMax    int
	RateLimitWindow time.Duration
	BodyLimitBytes  int64
}

// IsProduction reports whether the service runs in a production deployment.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// LoadConfig loads environment variables from a .env file if present
// and builds the Config from the process environment.
func LoadConfig() (Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the current environment only.
func FromEnv() Config {
	env := getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment))

	return Config{
		Env:            env,
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		DatabaseURL: os.Getenv("DB_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),

		IdentityProvider: strings.ToLower(getEnv("IDENTITY_PROVIDER", "firebase")),

		FirebaseServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		FirebaseProjectID:          os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail:        os.Getenv("FIREBASE_CLIENT_EMAIL"),
		// keys pasted into .env files usually carry escaped newlines
		FirebasePrivateKey: strings.ReplaceAll(os.Getenv("FIREBASE_PRIVATE_KEY"), `\n`, "\n"),

		OIDCIssuer:   os.Getenv("OIDC_ISSUER"),
		OIDCClientID: os.Getenv("OIDC_CLIENT_ID"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RateLimitMax:    getInt("RATE_LIMIT_MAX", 200),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		BodyLimitBytes:  int64(getInt("BODY_LIMIT_BYTES", 10*1024)),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid integer for %s: %s", key, v)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid duration for %s: %s", key, v)
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
