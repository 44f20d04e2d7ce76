package config

import (
	"fmt"
	"os"
	"strconv"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Logger  LoggerConfig  `json:"logger" yaml:"logger"`
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.Cluster.Validate(); err != nil {
		return fmt.Errorf("cluster config error: %w", err)
	}
	if err := ac.Run.Validate(); err != nil {
		return fmt.Errorf("run config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	ac.Cluster.ApplyDefaults()
	ac.Run.ApplyDefaults()
	ac.Logger.ApplyDefaults()
}

// LoadFromEnv loads configuration from environment variables.
// Flags and config files override what is read here.
func LoadFromEnv() *AppConfig {
	cfg := &AppConfig{}

	cfg.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(LogLevelInfo)))

	cfg.Run.DryRun = getEnvBool("DRY_RUN", false)
	cfg.Run.Workers = getEnvInt("RUN_WORKERS", 0)
	cfg.Run.JournalPath = getEnv("RUN_JOURNAL_PATH", "")

	cfg.Cluster.ClusterType = ClusterType(getEnv("CLUSTER_TYPE", string(ClusterTypeS3)))
	cfg.Cluster.MaxRPS = getEnvInt("CLUSTER_MAX_RPS", 0)
	cfg.Cluster.TimeoutSeconds = getEnvInt("CLUSTER_TIMEOUT_SECONDS", 0)
	cfg.Cluster.ReuseConn = getEnvBool("CLUSTER_REUSE_CONN", false)

	cfg.Cluster.S3 = &S3GatewayConfig{
		Region:          getEnv("GATEWAY_REGION", ""),
		Bucket:          getEnv("GATEWAY_BUCKET", ""),
		AccessKeyID:     getEnv("GATEWAY_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("GATEWAY_SECRET_ACCESS_KEY", ""),
		Endpoint:        getEnv("GATEWAY_ENDPOINT", ""),
	}

	return cfg
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
