// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	Env  string // application environment (dev, test, prod)
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // empty allowed
	DBHost string
	DBPort string
	DBName string

	JWTSecret  string
	JWTTTL     time.Duration // lifetime of an access token
	BcryptCost int

	// Bootstrap admin, created at startup when both are set.
	AdminEmail    string
	AdminPassword string

	CORSOrigins []string

	LogLevel string
	LogFile  string // empty = stdout only

	JaegerEndpoint string // empty = tracing disabled
	RabbitURL      string // empty = events disabled

	StatsCron string // cron spec for the gauge refresh job

	Media MediaConfig
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development" || c.Env == "local"
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	// A missing .env file is expected in containers.
	_ = godotenv.Load()

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		JWTTTL:         envDur("JWT_TTL", 7*24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		AdminEmail:     strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "*")),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		RabbitURL:      firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		StatsCron:      envStr("STATS_REFRESH_CRON", "@every 5m"),
		Media:          LoadMediaConfig(),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
