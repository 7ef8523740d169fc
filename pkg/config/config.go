package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ECHO"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "ECHO_DB_DSN"
	EnvDBHost = "ECHO_DB_HOST"
	EnvDBUser = "ECHO_DB_USER"
	EnvDBName = "ECHO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Storage StorageConfig
	AI      AIConfig
	Worker  WorkerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Name         string `envconfig:"ECHO_APP_NAME" default:"echo-backend"`
	Version      string `envconfig:"ECHO_APP_VERSION" default:"0.1.0"`
	Env          string `envconfig:"ECHO_APP_ENV" required:"true"`
	Port         string `envconfig:"ECHO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECHO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECHO_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"ECHO_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ECHO_DB_DSN"`
	Driver string `envconfig:"ECHO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECHO_DB_HOST"`
	LegacyPort     int    `envconfig:"ECHO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECHO_DB_USER"`
	LegacyPassword string `envconfig:"ECHO_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECHO_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECHO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECHO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECHO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECHO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECHO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected (local dev only).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"ECHO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECHO_REDIS_ADDR"`
	Password     string        `envconfig:"ECHO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECHO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECHO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECHO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECHO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECHO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECHO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StorageConfig struct {
	DataDir     string `envconfig:"ECHO_DATA_DIR" default:"/app/data"`
	MaxUploadMB int    `envconfig:"ECHO_MAX_UPLOAD_MB" default:"25"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) * 1024 * 1024
}

type AIConfig struct {
	PipelineVersion string `envconfig:"ECHO_AI_PIPELINE_VERSION" default:"v3.a"`
	OpenAIAPIKey    string `envconfig:"ECHO_OPENAI_API_KEY"`
	STTModel        string `envconfig:"ECHO_AI_STT_MODEL" default:"whisper-1"`
	LLMModel        string `envconfig:"ECHO_AI_LLM_MODEL" default:"gpt-4o-mini"`
}

type WorkerConfig struct {
	PollInterval time.Duration `envconfig:"ECHO_WORKER_POLL_INTERVAL" default:"2s"`
	ClaimBatch   int           `envconfig:"ECHO_WORKER_CLAIM_BATCH" default:"5"`
	RunTimeout   time.Duration `envconfig:"ECHO_WORKER_RUN_TIMEOUT" default:"5m"`
	MetricsPort  string        `envconfig:"ECHO_WORKER_METRICS_PORT" default:"9090"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
