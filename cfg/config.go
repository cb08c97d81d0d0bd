package cfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the connection URL accepted by both pgx and golang-migrate.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AuthConfig struct {
	IssuerURL string
	ClientID  string
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

type Config struct {
	AppEnv         string
	AppPort        string
	PublicBaseURL  string
	Postgres       PostgresConfig
	Redis          RedisConfig
	EncryptionKey  string
	Auth           AuthConfig
	Observability  ObservabilityConfig
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	MigrationsPath string
	// NodeID must be unique per running instance (1-1023).
	NodeID         int64
}

// EnvLocal runs the service without Postgres and Redis, keeping
// integrations and cached widgets in process memory.
const EnvLocal = "local"

func (c *Config) Local() bool {
	return c.AppEnv == EnvLocal
}

// RedirectURI is the single callback registered with every provider.
func (c *Config) RedirectURI() string {
	return c.PublicBaseURL + "/oauth/callback"
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("failed load cfg: " + err.Error())
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only. All missing
// or malformed keys are reported together.
func FromEnv() (*Config, error) {
	var errs []error

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := mustEnv("APP_PORT", &errs)
	publicBaseURL := mustEnv("PUBLIC_BASE_URL", &errs)

	storeEnv := mustEnv
	if appEnv == EnvLocal {
		storeEnv = optionalEnv
	}

	pgHost := storeEnv("POSTGRES_HOST", &errs)
	pgPort := storeEnv("POSTGRES_PORT", &errs)
	pgUser := storeEnv("POSTGRES_USER", &errs)
	pgPassword := storeEnv("POSTGRES_PASSWORD", &errs)
	pgDB := storeEnv("POSTGRES_DB", &errs)
	pgSSLMode := storeEnv("POSTGRES_SSLMODE", &errs)

	redisHost := storeEnv("REDIS_HOST", &errs)
	redisPort := storeEnv("REDIS_PORT", &errs)
	redisPassword := os.Getenv("REDIS_PASSWORD")

	encryptionKey := mustEnv("ENCRYPTION_KEY", &errs)
	if encryptionKey != "" && len(encryptionKey) != 32 {
		errs = append(errs, errors.New("invalid env: ENCRYPTION_KEY must be 32 bytes"))
	}

	authIssuer := mustEnv("AUTH_ISSUER_URL", &errs)
	authClientID := mustEnv("AUTH_CLIENT_ID", &errs)

	otlpEndpoint := mustEnv("OTEL_EXPORTER_OTLP_ENDPOINT", &errs)
	serviceName := mustEnv("OTEL_SERVICE_NAME", &errs)

	cacheTTLMinutes := intEnv("CACHE_TTL_MINUTES", 10, &errs)
	httpTimeoutSeconds := intEnv("HTTP_TIMEOUT_SECONDS", 15, &errs)
	nodeID := intEnv("NODE_ID", 1, &errs)
	if nodeID > 1023 {
		errs = append(errs, errors.New("invalid env: NODE_ID must be at most 1023"))
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://db/migrations"
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:        appEnv,
		AppPort:       appPort,
		PublicBaseURL: publicBaseURL,
		Postgres: PostgresConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			DBName:   pgDB,
			SSLMode:  pgSSLMode,
		},
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		EncryptionKey: encryptionKey,
		Auth: AuthConfig{
			IssuerURL: authIssuer,
			ClientID:  authClientID,
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: otlpEndpoint,
			ServiceName:  serviceName,
			Environment:  appEnv,
		},
		CacheTTL:       time.Duration(cacheTTLMinutes) * time.Minute,
		HTTPTimeout:    time.Duration(httpTimeoutSeconds) * time.Second,
		MigrationsPath: migrationsPath,
		NodeID:         int64(nodeID),
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func optionalEnv(key string, _ *[]error) string {
	return os.Getenv(key)
}

func intEnv(key string, def int, errs *[]error) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return def
	}
	return n
}
