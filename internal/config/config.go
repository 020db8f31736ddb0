package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses webhook timeout durations
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Opening hours and the edit cutoff live in
// the database (site_settings), not here: they are operator-editable at
// runtime.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	BaseURL        string // externally reachable origin, used in magic links
	RestaurantName string // sender display name in outgoing emails

	SessionCookieName string // cookie carrying the raw session token
	SessionDays       int    // email session validity in days

	WebhookURL     string        // email webhook endpoint
	WebhookSecret  string        // shared secret sent in the webhook payload
	WebhookTimeout time.Duration // bounded wait for a webhook acknowledgement

	JWTSecret     string // secret used to sign operator JWTs
	AccessTTLMin  int    // operator access token time-to-live in minutes
	BcryptCost    int    // bcrypt cost for operator password hashing
	OperatorEmail string // seeded admin account email (optional)
	OperatorPass  string // seeded admin account password (optional)
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message; the rest fall back
// to sensible defaults.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		BaseURL:        must("BASE_URL"),
		RestaurantName: getenv("RESTAURANT_NAME", "Restaurant"),

		SessionCookieName: getenv("RESV_SESSION_COOKIE_NAME", "resv_session"),
		SessionDays:       getenvInt("RESV_SESSION_DAYS_VALID", 30),

		WebhookURL:     os.Getenv("EMAIL_WEBHOOK_URL"),
		WebhookSecret:  os.Getenv("EMAIL_WEBHOOK_SECRET"),
		WebhookTimeout: getenvDur("EMAIL_WEBHOOK_TIMEOUT", 12*time.Second),

		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  getenvInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:    getenvInt("BCRYPT_COST", 12),
		OperatorEmail: os.Getenv("OPERATOR_EMAIL"),
		OperatorPass:  os.Getenv("OPERATOR_PASSWORD"),
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

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func getenvDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
