package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultHoldingsFloor is used when no floor is configured.
const DefaultHoldingsFloor = "0.001"

// LoadViewerConfig loads the viewer config from the given TOML path, or from
// CHAINLENS_* environment variables when no path is supplied.
func LoadViewerConfig(configPath *string) (*ViewerConfig, error) {
	v := viper.New()

	if configPath == nil {
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}

	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func loadEnv(v *viper.Viper) (*ViewerConfig, error) {
	// godotenv might fail if the .env file is missing but env can be applied
	// through docker, systemd or other means, so skip the error
	_ = godotenv.Load()
	v.SetEnvPrefix("CHAINLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config ViewerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	applyDefaults(&config)
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env
// values when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins", "rate_per_minute",
		"enable_metrics", "networks_file", "share_backend_url",
		"request_timeout_seconds", "holdings_floor",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*ViewerConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ViewerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&config)
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *ViewerConfig) {
	if config.HoldingsFloor == "" {
		config.HoldingsFloor = DefaultHoldingsFloor
	}
	if config.RequestTimeoutSeconds == 0 {
		config.RequestTimeoutSeconds = 10
	}
}

func verifyConfig(config *ViewerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if config.NetworksFile == "" {
		return fmt.Errorf("networks_file is required")
	}

	if config.ShareBackendURL == "" {
		return fmt.Errorf("share_backend_url is required")
	}

	if config.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}

	floor, err := decimal.NewFromString(config.HoldingsFloor)
	if err != nil {
		return fmt.Errorf("holdings_floor must be a decimal: %w", err)
	}
	if floor.Sign() < 0 {
		return fmt.Errorf("holdings_floor must not be negative")
	}

	return nil
}
