// Package postgres is the reference Sink implementation (spec.md §6
// "Backend-sink contract") against PostgreSQL, exercising lib/pq and
// pgvector-go the way the teacher's database/*.go handlers exercise them,
// narrowed per the spec's Non-goals: no query-language generation beyond
// the contract, no reserved-word sanitization, no stored-procedure
// loading layer (the teacher's sql.LoadXSql/helper.Database pair was
// never present in the retrieval pack to begin with — see DESIGN.md).
package postgres

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is the reference sink's connection configuration, loaded the
// same way the teacher's example mains load their Postgres settings:
// godotenv.Load is best-effort (a missing .env is not an error), then
// environment variables are read with defaults.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoadConfig reads connection settings from the environment, optionally
// loading envPath first via godotenv (ignored if the file doesn't exist).
func LoadConfig(envPath string) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	return Config{
		Host:     getEnv("GRAFLO_PG_HOST", "localhost"),
		Port:     getEnv("GRAFLO_PG_PORT", "5432"),
		User:     getEnv("GRAFLO_PG_USER", "postgres"),
		Password: getEnv("GRAFLO_PG_PASSWORD", "postgres"),
		Database: getEnv("GRAFLO_PG_DATABASE", "graflo"),
		SSLMode:  getEnv("GRAFLO_PG_SSLMODE", "disable"),
	}
}

// DSN renders the configuration as a lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
