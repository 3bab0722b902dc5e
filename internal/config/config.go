package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Store    string
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Log      LogConfig
	Scoring  ScoringConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// RedisConfig holds Redis connection settings. An empty Addr disables event
// publishing and the websocket stream.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// JWTConfig holds bearer token verification settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// ScoringConfig holds the policy applied to audits without a stored
// configuration.
type ScoringConfig struct {
	Method             string
	NCMajorPenalty     float64
	NCMinorPenalty     float64
	ObservationPenalty float64
	OpportunityBonus   float64
	IncludeNA          bool
	MaxScore           float64
	PassingScore       float64
	ConditionalMargin  float64
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	dbPort, err := getEnvInt("AUDITD_DB_PORT", 5432)
	collect(err)
	dbMaxConns, err := getEnvInt("AUDITD_DB_MAX_CONNS", 25)
	collect(err)
	dbMigrate, err := getEnvBool("AUDITD_DB_MIGRATE", true)
	collect(err)
	redisDB, err := getEnvInt("AUDITD_REDIS_DB", 0)
	collect(err)
	readTimeout, err := getEnvDuration("AUDITD_SERVER_READ_TIMEOUT", 10*time.Second)
	collect(err)
	writeTimeout, err := getEnvDuration("AUDITD_SERVER_WRITE_TIMEOUT", 30*time.Second)
	collect(err)
	shutdownTimeout, err := getEnvDuration("AUDITD_SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	collect(err)
	rps, err := getEnvFloat("AUDITD_SERVER_RATE_LIMIT_RPS", 50)
	collect(err)
	burst, err := getEnvInt("AUDITD_SERVER_RATE_LIMIT_BURST", 100)
	collect(err)

	def := domain.DefaultScoringConfig()
	scoring := ScoringConfig{Method: getEnv("AUDITD_SCORING_METHOD", string(def.Method))}
	scoring.NCMajorPenalty, err = getEnvFloat("AUDITD_SCORING_NC_MAJOR_PENALTY", def.NCMajorPenalty)
	collect(err)
	scoring.NCMinorPenalty, err = getEnvFloat("AUDITD_SCORING_NC_MINOR_PENALTY", def.NCMinorPenalty)
	collect(err)
	scoring.ObservationPenalty, err = getEnvFloat("AUDITD_SCORING_OBSERVATION_PENALTY", def.ObservationPenalty)
	collect(err)
	scoring.OpportunityBonus, err = getEnvFloat("AUDITD_SCORING_OPPORTUNITY_BONUS", def.OpportunityBonus)
	collect(err)
	scoring.IncludeNA, err = getEnvBool("AUDITD_SCORING_INCLUDE_NA", def.IncludeNAInTotal)
	collect(err)
	scoring.MaxScore, err = getEnvFloat("AUDITD_SCORING_MAX_SCORE", def.MaxScore)
	collect(err)
	scoring.PassingScore, err = getEnvFloat("AUDITD_SCORING_PASSING_SCORE", def.PassingScore)
	collect(err)
	scoring.ConditionalMargin, err = getEnvFloat("AUDITD_SCORING_CONDITIONAL_MARGIN", def.ConditionalMargin)
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Store: getEnv("AUDITD_STORE", StorePostgres),
		Database: DatabaseConfig{
			Host:     getEnv("AUDITD_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("AUDITD_DB_USER", "auditd"),
			Password: getEnv("AUDITD_DB_PASSWORD", ""),
			DBName:   getEnv("AUDITD_DB_NAME", "auditd_dev"),
			SSLMode:  getEnv("AUDITD_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
			Migrate:  dbMigrate,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("AUDITD_REDIS_ADDR"),
			Password: getEnv("AUDITD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("AUDITD_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:            getEnv("AUDITD_SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			CORSOrigins:     getEnvList("AUDITD_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:    rps,
			RateLimitBurst:  burst,
		},
		Log: LogConfig{
			Level:  getEnv("AUDITD_LOG_LEVEL", "info"),
			Format: getEnv("AUDITD_LOG_FORMAT", "text"),
		},
		Scoring: scoring,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("AUDITD_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("AUDITD_JWT_SECRET must be at least 32 characters")
	}

	switch c.Store {
	case StorePostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("AUDITD_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
	case StoreMemory:
		log.Warn().Msg("AUDITD_STORE=memory keeps all data in process; it is lost on restart")
	default:
		return fmt.Errorf("AUDITD_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("AUDITD_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("AUDITD_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("AUDITD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("AUDITD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("AUDITD_SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("AUDITD_SERVER_RATE_LIMIT_RPS must be positive, got %v", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("AUDITD_SERVER_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("AUDITD_LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	defaults := c.ScoringDefaults()
	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("AUDITD_SCORING_*: %w", err)
	}

	return nil
}

// ScoringDefaults converts the scoring section to the domain policy with the
// built-in grade bands.
func (c *Config) ScoringDefaults() domain.ScoringConfig {
	return domain.ScoringConfig{
		Method:             domain.ScoringMethod(c.Scoring.Method),
		NCMajorPenalty:     c.Scoring.NCMajorPenalty,
		NCMinorPenalty:     c.Scoring.NCMinorPenalty,
		ObservationPenalty: c.Scoring.ObservationPenalty,
		OpportunityBonus:   c.Scoring.OpportunityBonus,
		IncludeNAInTotal:   c.Scoring.IncludeNA,
		MaxScore:           c.Scoring.MaxScore,
		PassingScore:       c.Scoring.PassingScore,
		ConditionalMargin:  c.Scoring.ConditionalMargin,
		GradeBands:         domain.DefaultGradeBands(),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
