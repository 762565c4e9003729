package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

var allowedOrigins = map[Environment][]string{
	Development: {
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3001",
		"http://localhost:8888",
		"http://127.0.0.1:8888",
	},
	Staging: {
		"https://placement.helperr.io",
		"https://oahelper.in",
	},
	Production: {
		"https://oahelper.in",
		"https://placement.helperr.io",
	},
}

type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Config is built once at startup and handed to every component.
type Config struct {
	Env            Environment
	Port           string
	APIKey         string
	AllowedOrigins []string

	JWTSecret  string
	SessionTTL time.Duration

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseTimeout    time.Duration
	SupabaseRPCSecret  string

	DBURL    string
	RedisURL string

	SMTP        SMTP
	AdminEmail  string
	FrontendURL string

	UPIVPA       string
	UPIPayeeName string

	Location      *time.Location
	LogLevel      string
	CodeRateLimit int

	// TrustedProxies may set X-Forwarded-For. Empty means the peer address
	// is the client.
	TrustedProxies []string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == Development
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	env := ParseEnvironment(getEnv("APP_ENV", os.Getenv("OA_ENV")))

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("Invalid APP_TIMEZONE: %v", err)
	}

	return &Config{
		Env:            env,
		Port:           getEnv("PORT", "8080"),
		APIKey:         mustEnv("API_KEY"),
		AllowedOrigins: OriginsFor(env, getEnv("CORS_EXTRA_ORIGINS", "")),

		JWTSecret:  mustEnv("JWT_SECRET"),
		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),

		SupabaseURL:        strings.TrimRight(mustEnv("SUPABASE_URL"), "/"),
		SupabaseServiceKey: mustEnv("SUPABASE_SERVICE_KEY"),
		SupabaseTimeout:    getDuration("SUPABASE_TIMEOUT", 15*time.Second),
		SupabaseRPCSecret:  getEnv("SUPABASE_RPC_SECRET", ""),

		DBURL:    getEnv("DB_URL", ""),
		RedisURL: getEnv("REDIS_URL", ""),

		SMTP: SMTP{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "465"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "support@oahelper.in"),
			FromName: getEnv("SMTP_FROM_NAME", "OAHelper"),
		},
		AdminEmail:  getEnv("ADMIN_EMAIL", ""),
		FrontendURL: getEnv("FRONTEND_URL", "https://oahelper.in"),

		UPIVPA:       getEnv("UPI_VPA", ""),
		UPIPayeeName: getEnv("UPI_PAYEE_NAME", "OAHelper"),

		Location:      loc,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CodeRateLimit: getInt("CODE_RATE_LIMIT", 5),

		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
	}
}

// ParseEnvironment falls back to production for anything it does not recognise.
func ParseEnvironment(raw string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(raw))); env {
	case Development, Staging, Production:
		return env
	default:
		return Production
	}
}

// OriginsFor returns the CORS allow-list for env plus any comma separated extras.
func OriginsFor(env Environment, extra string) []string {
	origins := append([]string(nil), allowedOrigins[env]...)
	return append(origins, splitList(extra)...)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return d
}

func getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return n
}
