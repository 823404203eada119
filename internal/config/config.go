package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTelEnabled  bool
	OTelEndpoint string
	ServiceName  string

	RequestTimeout     time.Duration
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	TodosCacheTTL      time.Duration

	// argon2id cost parameters, range-checked by Validate
	Argon2Time      int
	Argon2MemoryKiB int
	Argon2Threads   int
}

const (
	minSecretLen = 32

	maxArgon2Time      = 16
	maxArgon2MemoryKiB = 1 << 20 // 1 GiB per derivation
	maxArgon2Threads   = 255
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required")
	ErrWeakSecret    = errors.New("JWT_SECRET must be at least 32 bytes outside dev")
	ErrArgon2Params  = errors.New("argon2 parameters out of range")
)

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "prod"),
		Port:  getEnvInt("PORT", 3000),
		DBURL: buildDBURL(),

		JWTSecret: getEnv("JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "todohub-api"),

		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 3000)) * time.Millisecond,
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		TodosCacheTTL:      time.Duration(getEnvInt("TODOS_CACHE_TTL_SECONDS", 30)) * time.Second,

		Argon2Time:      getEnvInt("ARGON2_TIME", 1),
		Argon2MemoryKiB: getEnvInt("ARGON2_MEMORY_KIB", 64*1024),
		Argon2Threads:   getEnvInt("ARGON2_THREADS", 4),
	}
}

// Validate reports settings the api must not start with. A signing secret
// is required in every environment; only APP_ENV=dev accepts a short one.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}

	if len(c.JWTSecret) < minSecretLen && c.Env != "dev" {
		return ErrWeakSecret
	}

	if c.Argon2Time < 1 || c.Argon2Time > maxArgon2Time {
		return fmt.Errorf("%w: ARGON2_TIME=%d, want 1..%d", ErrArgon2Params, c.Argon2Time, maxArgon2Time)
	}
	if c.Argon2Threads < 1 || c.Argon2Threads > maxArgon2Threads {
		return fmt.Errorf("%w: ARGON2_THREADS=%d, want 1..%d", ErrArgon2Params, c.Argon2Threads, maxArgon2Threads)
	}
	if c.Argon2MemoryKiB < 8*c.Argon2Threads || c.Argon2MemoryKiB > maxArgon2MemoryKiB {
		return fmt.Errorf("%w: ARGON2_MEMORY_KIB=%d, want %d..%d", ErrArgon2Params, c.Argon2MemoryKiB, 8*c.Argon2Threads, maxArgon2MemoryKiB)
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 3 * time.Second
	}

	return nil
}

func buildDBURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "todohub")
	pass := getEnv("DB_PASS", "todohub")
	name := getEnv("DB_NAME", "todohub")
	ssl := getEnv("DB_SSLMODE", "disable")

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	return dsn.String()
}

// WithTimeout bounds one unit of work (a request's storage chain, shutdown).
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
