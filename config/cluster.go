package config

import "fmt"

// ClusterType represents the kind of storage-cluster collaborator.
type ClusterType string

const (
	// ClusterTypeS3 talks to the cluster through its S3-compatible
	// gateway.
	ClusterTypeS3 ClusterType = "s3"
)

// ClusterConfig holds the configuration for the storage-cluster client.
type ClusterConfig struct {
	ClusterType ClusterType `json:"type" yaml:"type"`

	// MaxRPS limits collaborator requests per second across all
	// workers (0 = no limit).
	MaxRPS int `json:"max_rps,omitempty" yaml:"max_rps,omitempty"`
	// TimeoutSeconds is the per-request timeout of the underlying
	// client.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	// ReuseConn hands the same connection to every item instead of
	// dialing per item. Off by default.
	ReuseConn bool `json:"reuse_conn,omitempty" yaml:"reuse_conn,omitempty"`

	// Type-specific configs
	S3 *S3GatewayConfig `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3GatewayConfig holds connection settings for the cluster's
// S3-compatible gateway.
type S3GatewayConfig struct {
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Bucket          string `json:"bucket" yaml:"bucket"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// Validate validates the cluster configuration
func (cc *ClusterConfig) Validate() error {
	if cc.MaxRPS < 0 {
		return fmt.Errorf("max_rps must be >= 0, got %d", cc.MaxRPS)
	}
	switch cc.ClusterType {
	case ClusterTypeS3:
		if cc.S3 == nil {
			return fmt.Errorf("s3 configuration is required when type is 's3'")
		}
		return cc.S3.Validate()
	default:
		return fmt.Errorf("unsupported cluster type: %s", cc.ClusterType)
	}
}

// ApplyDefaults sets default values for cluster configuration
func (cc *ClusterConfig) ApplyDefaults() {
	if cc.ClusterType == "" {
		cc.ClusterType = ClusterTypeS3
	}
	if cc.TimeoutSeconds == 0 {
		cc.TimeoutSeconds = 30
	}
}

func (sc *S3GatewayConfig) Validate() error {
	if sc.Bucket == "" {
		return fmt.Errorf("gateway bucket is required")
	}
	if sc.Endpoint == "" {
		return fmt.Errorf("gateway endpoint is required")
	}
	return nil
}
