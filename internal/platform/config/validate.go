package config

import (
	"fmt"
	"strings"
)

// Validate performs rule validation on the loaded configuration. Load calls
// it automatically.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, postgres, sqlite (got %q)", c.Storage.Driver)
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	switch c.Auth.Mode {
	case AuthModeHeader:
	case AuthModeJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
		}
	default:
		return fmt.Errorf("auth.mode must be header or jwt (got %q)", c.Auth.Mode)
	}

	if c.Governance.VoteFee < 0 {
		return fmt.Errorf("governance.vote_fee must be >= 0 (got %d)", c.Governance.VoteFee)
	}
	if c.Governance.IdempotencyTTL <= 0 {
		return fmt.Errorf("governance.idempotency_ttl must be > 0 (got %s)", c.Governance.IdempotencyTTL)
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be > 0 (got %s)", c.Worker.PollInterval)
	}
	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("worker.batch_size must be > 0 (got %d)", c.Worker.BatchSize)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}
