package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/byodlabs/databridge/internal/db"
)

// Config holds all backend configuration.
type Config struct {
	Database db.Config
	Import   ImportConfig
	Logging  LoggingConfig
}

// ImportConfig controls ingestion defaults.
type ImportConfig struct {
	// DefaultSymbol is applied to files without a ticker column when the
	// caller supplies no symbol.
	DefaultSymbol string
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level string
}

// Load reads an optional config.yaml from configPath and applies BYOD_*
// environment overrides (BYOD_DATABASE_PATH, BYOD_LOGGING_LEVEL, ...) on top
// of the defaults.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Import:   ImportConfig{DefaultSymbol: "UNKNOWN"},
		Logging:  LoggingConfig{Level: "info"},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("BYOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database.path")
	v.BindEnv("import.default_symbol")
	v.BindEnv("logging.level")

	// A missing config file is fine; defaults plus env cover everything.
	_ = v.ReadInConfig()

	if v.IsSet("database.path") {
		cfg.Database.Path = v.GetString("database.path")
	}
	if v.IsSet("import.default_symbol") {
		cfg.Import.DefaultSymbol = v.GetString("import.default_symbol")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}

	return cfg, nil
}
