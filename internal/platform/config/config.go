package config

import "time"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	AuthModeHeader = "header"
	AuthModeJWT    = "jwt"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	HTTP       HTTPConfig       `yaml:"http"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Governance GovernanceConfig `yaml:"governance"`
	Worker     WorkerConfig     `yaml:"worker"`
	Log        LogConfig        `yaml:"log"`
}

type ServiceConfig struct {
	Name string `yaml:"name" env:"SERVICE_NAME" env-default:"atelier"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"             env:"HTTP_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	EnableSwagger   bool          `yaml:"enable_swagger"   env:"HTTP_ENABLE_SWAGGER"   env-default:"true"`
}

type StorageConfig struct {
	Driver       string `yaml:"driver"         env:"STORAGE_DRIVER"         env-default:"memory"`
	PostgresDSN  string `yaml:"postgres_dsn"   env:"POSTGRES_DSN"`
	SQLitePath   string `yaml:"sqlite_path"    env:"SQLITE_PATH"            env-default:"atelier.db"`
	AutoMigrate  bool   `yaml:"auto_migrate"   env:"STORAGE_AUTO_MIGRATE"   env-default:"true"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"STORAGE_MAX_OPEN_CONNS" env-default:"10"`
}

// AuthConfig selects how the caller identity is resolved. Header mode trusts
// X-Account-Id and is meant for development behind a trusted gateway.
type AuthConfig struct {
	Mode      string `yaml:"mode"       env:"AUTH_MODE"       env-default:"header"`
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"atelier"`
}

type GovernanceConfig struct {
	VoteFee        int64         `yaml:"vote_fee"        env:"GOVERNANCE_VOTE_FEE"        env-default:"1"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"GOVERNANCE_IDEMPOTENCY_TTL" env-default:"168h"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"WORKER_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size"    env:"WORKER_BATCH_SIZE"    env-default:"100"`
	Topic        string        `yaml:"topic"         env:"WORKER_TOPIC"         env-default:"atelier.work-governance"`
	// EmbedRelay runs the outbox relay inside the serve process.
	EmbedRelay bool `yaml:"embed_relay" env:"WORKER_EMBED_RELAY" env-default:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
