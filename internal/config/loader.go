package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the booking
// service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	SessionTTL      time.Duration
	DashboardTTL    time.Duration
	AdminEmail      string
	ShutdownTimeout time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; missing required values and
// unparseable values are aggregated into a single error so operators see
// every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:roombooking.db",
		SessionTTL:      24 * time.Hour,
		DashboardTTL:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMBOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if email := strings.TrimSpace(os.Getenv("ROOMBOOKING_ADMIN_EMAIL")); email == "" {
		missing = append(missing, "ROOMBOOKING_ADMIN_EMAIL")
	} else {
		cfg.AdminEmail = strings.ToLower(email)
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_DASHBOARD_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "ROOMBOOKING_DASHBOARD_CACHE_TTL")
		} else {
			cfg.DashboardTTL = ttl
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ROOMBOOKING_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
