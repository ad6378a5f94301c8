package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RestConfig aggregates every setting the REST API binary needs
type RestConfig struct {
	Port     string           `mapstructure:"port" validate:"required"`
	Logger   LoggerSettings   `mapstructure:"logger"`
	Database DatabaseSettings `mapstructure:"database"`
	Storage  StorageSettings  `mapstructure:"storage"`
	Remote   RemoteSettings   `mapstructure:"remote"`
}

// InitializeRestConfig loads the REST API configuration from a YAML file with
// environment variable overrides (DWB_SECTION_FIELD, e.g. DWB_DATABASE_DSN).
func InitializeRestConfig(configPath string) (*RestConfig, error) {
	// Best-effort .env load for local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("DWB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("database.type", SqliteDbType)
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg RestConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An empty database DSN defaults to a SQLite file under the storage root
	if cfg.Database.Type == SqliteDbType && cfg.Database.DSN == "" {
		cfg.Database.DSN = cfg.Storage.DatabaseFile()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every section of the REST configuration
func (c *RestConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("invalid logger settings: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database settings: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage settings: %w", err)
	}
	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("invalid remote settings: %w", err)
	}
	return nil
}
