// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Scoring  ScoringConfig           `mapstructure:"scoring"`
	Lending  LendingConfig           `mapstructure:"lending"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration Sections ---

// ScoringConfig drives the score-deal and recalibrate-weights workers.
type ScoringConfig struct {
	// MinTrainingSamples is the recalibration floor; below it the learner
	// skips and keeps the active weights.
	MinTrainingSamples int `mapstructure:"min_training_samples"`
	// WeightCacheTTLMinutes bounds staleness of the cached active weight set.
	WeightCacheTTLMinutes int `mapstructure:"weight_cache_ttl_minutes"`
	DealCacheTTLMinutes   int `mapstructure:"deal_cache_ttl_minutes"`
}

func (s ScoringConfig) WeightCacheTTL() time.Duration {
	return time.Duration(s.WeightCacheTTLMinutes) * time.Minute
}

func (s ScoringConfig) DealCacheTTL() time.Duration {
	return time.Duration(s.DealCacheTTLMinutes) * time.Minute
}

// LendingConfig drives the SBA loan-structure calculator.
type LendingConfig struct {
	// MfgWaiverExpiry is the last day the manufacturing guarantee-fee waiver
	// applies, formatted 2006-01-02.
	MfgWaiverExpiry string `mapstructure:"mfg_waiver_expiry"`
}

// WaiverExpiry parses MfgWaiverExpiry; the zero time disables the waiver.
func (l LendingConfig) WaiverExpiry() time.Time {
	t, err := time.Parse("2006-01-02", l.MfgWaiverExpiry)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
