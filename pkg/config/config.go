package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by BACKEND
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	Backend    string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	SupabaseURL string
	SupabaseKey string

	RedisURL string

	// OTLPEndpoint is host:port or a URL of an OTLP/HTTP collector; empty disables tracing
	OTLPEndpoint     string
	TraceSampleRatio float64

	JWTSecret          string
	TokenTTLMinutes    int
	RateLimitPerMinute int

	SessionIdleMinutes   int
	SweepIntervalMinutes int

	// SeedUsers maps email to password for the in-memory user store
	SeedUsers map[string]string
}

// Load reads configuration from the environment. A .env file in the working
// directory and a YAML file named by CLIENTDESK_CONFIG are consulted too;
// real environment variables win over both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	src := source{}
	if path := os.Getenv("CLIENTDESK_CONFIG"); path != "" {
		if err := src.loadFile(path); err != nil {
			return nil, err
		}
	}
	return src.build()
}

// source resolves keys from the environment first, then the YAML file
type source struct {
	file map[string]string
}

func (s *source) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	s.file = make(map[string]string, len(raw))
	for k, v := range raw {
		s.file[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return nil
}

func (s *source) build() (*Config, error) {
	port, err := s.getInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	dbPort, err := s.getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := s.getInt("TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	rateLimit, err := s.getInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	idle, err := s.getInt("SESSION_IDLE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	sweep, err := s.getInt("SWEEP_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	sampleRatio, err := s.getFloat("TRACE_SAMPLE_RATIO", 1.0)
	if err != nil {
		return nil, err
	}
	seeds, err := parseSeedUsers(s.getEnv("SEED_USERS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:        s.getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           s.getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: s.parseCSV("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		Backend:    strings.ToLower(s.getEnv("BACKEND", BackendSQLite)),
		DBHost:     s.getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     s.getEnv("DB_USER", "clientdesk"),
		DBPassword: s.getEnv("DB_PASSWORD", "dev"),
		DBName:     s.getEnv("DB_NAME", "clientdesk"),
		DBSSLMode:  s.getEnv("DB_SSLMODE", "disable"),
		SQLitePath: s.getEnv("SQLITE_PATH", "data/clientdesk.db"),

		SupabaseURL: strings.TrimRight(s.getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey: s.getEnv("SUPABASE_KEY", ""),

		RedisURL: s.getEnv("REDIS_URL", ""),

		OTLPEndpoint:     s.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRatio: sampleRatio,

		JWTSecret:          s.getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTLMinutes:    tokenTTL,
		RateLimitPerMinute: rateLimit,

		SessionIdleMinutes:   idle,
		SweepIntervalMinutes: sweep,
		SeedUsers:            seeds,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres, BackendSQLite:
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("invalid BACKEND %q", c.Backend)
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1")
	}
	if c.SessionIdleMinutes <= 0 || c.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("session intervals must be positive")
	}
	return nil
}

func (s *source) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s *source) getInt(key string, defaultValue int) (int, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func (s *source) getFloat(key string, defaultValue float64) (float64, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func (s *source) parseCSV(key string, defaultValue []string) []string {
	if value := s.getEnv(key, ""); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// parseSeedUsers reads "a@x.io:pw1,b@x.io:pw2"
func parseSeedUsers(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		email, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid SEED_USERS entry %q", pair)
		}
		out[strings.ToLower(email)] = password
	}
	return out, nil
}
