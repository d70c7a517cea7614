package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	BackendSheets = "sheets"
	BackendCSV    = "csv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Sheets  SheetsConfig
	AI      AIConfig
	Refresh RefreshConfig
	MongoDB MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig selects where the two workbooks live.
type StorageConfig struct {
	Backend          string // "sheets" or "csv"
	LedgerCSVPath    string
	InventoryCSVPath string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SalesRange      string
	InventoryRange  string
}

// AIConfig holds settings for the document matching model. An empty key
// disables AI-assisted search; exact lookup keeps working.
type AIConfig struct {
	GeminiKey     string
	MinConfidence float64
	Timeout       time.Duration
}

// RefreshConfig holds scheduler-related settings.
type RefreshConfig struct {
	StoreSchedule   string
	SummarySchedule string
	Timezone        string
}

// MongoDBConfig holds settings for the optional audit archive. An empty URI
// disables archiving.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	minConfidence, err := parseFloatEnv("AI_MIN_CONFIDENCE", 0)
	if err != nil {
		return nil, err
	}
	timeoutSeconds, err := parseIntEnv("AI_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			Backend:          getenvWithDefault("STORAGE_BACKEND", BackendCSV),
			LedgerCSVPath:    getenvWithDefault("LEDGER_CSV_PATH", "data/sales.csv"),
			InventoryCSVPath: getenvWithDefault("INVENTORY_CSV_PATH", "data/inventory.csv"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			SalesRange:      getenvWithDefault("SALES_SHEET_RANGE", "SalesData!A:H"),
			InventoryRange:  getenvWithDefault("INVENTORY_SHEET_RANGE", "Inventory!A:B"),
		},
		AI: AIConfig{
			GeminiKey:     os.Getenv("GEMINI_API_KEY"),
			MinConfidence: minConfidence,
			Timeout:       time.Duration(timeoutSeconds) * time.Second,
		},
		Refresh: RefreshConfig{
			StoreSchedule:   getenvWithDefault("REFRESH_CRON_SCHEDULE", "* * * * *"),
			SummarySchedule: getenvWithDefault("SUMMARY_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:        getenvWithDefault("TIMEZONE", "Europe/Sofia"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "skladov"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided for the sheets backend")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided for the sheets backend")
		}
		if c.Sheets.SalesRange == "" || c.Sheets.InventoryRange == "" {
			return errors.New("SALES_SHEET_RANGE and INVENTORY_SHEET_RANGE must not be empty")
		}
	case BackendCSV:
		if c.Storage.LedgerCSVPath == "" || c.Storage.InventoryCSVPath == "" {
			return errors.New("LEDGER_CSV_PATH and INVENTORY_CSV_PATH must not be empty")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendSheets, BackendCSV, c.Storage.Backend)
	}

	if c.AI.MinConfidence < 0 || c.AI.MinConfidence > 1 {
		return errors.New("AI_MIN_CONFIDENCE must be between 0 and 1")
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT_SECONDS must be positive")
	}

	if c.Refresh.StoreSchedule == "" {
		return errors.New("REFRESH_CRON_SCHEDULE must be provided")
	}
	if c.Refresh.SummarySchedule == "" {
		return errors.New("SUMMARY_CRON_SCHEDULE must be provided")
	}
	if c.Refresh.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
