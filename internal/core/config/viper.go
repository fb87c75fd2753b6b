package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const section = "transfer_api"

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*TransferAPIConfig, error) {
	v := viper.New()

	d := DefaultTransferAPIConfig()
	v.SetDefault(section+".host", d.Host)
	v.SetDefault(section+".port", d.Port)
	v.SetDefault(section+".max_connections", d.MaxConnections)
	v.SetDefault(section+".request_timeout", d.RequestTimeout.String())
	v.SetDefault(section+".max_batch_size", d.MaxBatchSize)
	v.SetDefault(section+".metrics_addr", d.MetricsAddr)
	v.SetDefault(section+".metrics_uri", d.MetricsURI)
	v.SetDefault("database.url", "")

	// CR_TRANSFER_API_PORT, CR_DATABASE_URL, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &TransferAPIConfig{
		Host:           v.GetString(section + ".host"),
		Port:           v.GetInt(section + ".port"),
		MaxConnections: v.GetInt(section + ".max_connections"),
		RequestTimeout: v.GetDuration(section + ".request_timeout"),
		MaxBatchSize:   v.GetInt(section + ".max_batch_size"),
		MetricsAddr:    v.GetString(section + ".metrics_addr"),
		MetricsURI:     v.GetString(section + ".metrics_uri"),
		DatabaseURL:    v.GetString("database.url"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *TransferAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.MetricsAddr != "" && !strings.HasPrefix(cfg.MetricsURI, "/") {
		return fmt.Errorf("metrics_uri must start with '/', got %q", cfg.MetricsURI)
	}
	return nil
}

// validateNoSecretsInConfig rejects HMAC secrets in config files.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig(section+".hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
