// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkordes/claimtrack/internal/domain"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the claim and tag store: file, sqlite or postgres.
	// Defaults to "file".
	StoreDriver string

	// DataDir is the directory holding claims.json and tags.json for the
	// file driver. Defaults to "./data".
	DataDir string

	// SQLitePath is the database file for the sqlite driver.
	// Defaults to "claimtrack.db" inside DataDir.
	SQLitePath string

	// DatabaseURL is the Postgres connection string. Required only for the
	// postgres driver.
	DatabaseURL string

	// ApprovalPolicy names who may review submitted claims.
	// Defaults to "submitted-not-self".
	ApprovalPolicy string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// Remote holds the optional S3 mirror settings. Remote sync is off when
	// Remote.Bucket is empty.
	Remote Remote
}

// Remote configures the S3-compatible document index claims are mirrored to.
type Remote struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	// ReadLimit caps how many documents GET /remote/claims returns.
	ReadLimit int
}

// Enabled reports whether a remote bucket is configured.
func (r Remote) Enabled() bool { return r.Bucket != "" }

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first malformed value.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ApprovalPolicy: getEnv("APPROVAL_POLICY", domain.PolicySubmittedNotSelf),
		Remote: Remote{
			Bucket:   os.Getenv("REMOTE_S3_BUCKET"),
			Region:   getEnv("REMOTE_S3_REGION", "us-east-1"),
			Endpoint: os.Getenv("REMOTE_S3_ENDPOINT"),
		},
	}
	cfg.SQLitePath = getEnv("SQLITE_PATH", filepath.Join(cfg.DataDir, "claimtrack.db"))

	var err error
	if cfg.MaxBodyBytes, err = getEnvInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	readLimit, err := getEnvInt64("REMOTE_READ_LIMIT", 10000)
	if err != nil {
		return Config{}, err
	}
	cfg.Remote.ReadLimit = int(readLimit)
	if cfg.Remote.PathStyle, err = getEnvBool("REMOTE_S3_PATH_STYLE", false); err != nil {
		return Config{}, err
	}

	switch cfg.StoreDriver {
	case DriverFile, DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver)
	}
	if _, err := domain.ParseApprovalPolicy(cfg.ApprovalPolicy); err != nil {
		return Config{}, fmt.Errorf("APPROVAL_POLICY: %w", err)
	}

	var missing []string
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: expected true or false, got %q", key, v)
	}
	return b, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
