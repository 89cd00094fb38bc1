package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Postgres
	DatabaseURL string

	// SQLite
	SQLiteDBPath string

	// Ledger behavior: "reject" refuses transfers that would overdraw the
	// source account, "allow" lets balances go negative.
	TransferPolicy string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export worker
	ExportSink          string
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleCredentials   string

	// Dashboard cache
	OverviewCacheTTL time.Duration
}

const (
	TransferPolicyReject = "reject"
	TransferPolicyAllow  = "allow"

	ExportSinkLog    = "log"
	ExportSinkSheets = "sheets"
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendsight.db"),

		TransferPolicy: getEnv("TRANSFER_POLICY", TransferPolicyReject),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendsight"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		ExportSink:          getEnv("EXPORT_SINK", ExportSinkLog),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		OverviewCacheTTL: getEnvDuration("OVERVIEW_CACHE_TTL", 30*time.Second),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory postgres sqlite]", c.DataBackend))
	}

	if c.TransferPolicy != TransferPolicyReject && c.TransferPolicy != TransferPolicyAllow {
		errors = append(errors, fmt.Sprintf("invalid transfer policy '%s': must be 'reject' or 'allow'", c.TransferPolicy))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.ExportSink {
	case ExportSinkLog:
	case ExportSinkSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using the sheets export sink")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using the sheets export sink")
		}
		if c.GoogleCredentials != "" {
			if _, err := os.Stat(c.GoogleCredentials); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentials))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export sink '%s': must be 'log' or 'sheets'", c.ExportSink))
	}

	if c.OverviewCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid overview cache TTL %v: must not be negative", c.OverviewCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AllowOverdraft reports whether transfers may overdraw the source account.
func (c *Config) AllowOverdraft() bool {
	return c.TransferPolicy == TransferPolicyAllow
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
