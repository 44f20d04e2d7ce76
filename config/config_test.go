package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Cluster: ClusterConfig{
			ClusterType: ClusterTypeS3,
			S3: &S3GatewayConfig{
				Bucket:   "fdfs",
				Endpoint: "http://gateway:9000",
			},
		},
		Run: RunConfig{ListFile: "objects.txt"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingListFile(t *testing.T) {
	cfg := validConfig()
	cfg.Run.ListFile = ""
	cfg.ApplyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "list file is required")
}

func TestValidate_ResumeNeedsJournal(t *testing.T) {
	cfg := validConfig()
	cfg.Run.Resume = true
	cfg.ApplyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "resume requires a journal path")

	cfg.Run.JournalPath = "run.journal"
	require.NoError(t, cfg.Validate())
}

func TestValidate_ClusterErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Cluster.S3 = nil
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cluster.ClusterType = "carrier-pigeon"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported cluster type")

	cfg = validConfig()
	cfg.Cluster.MaxRPS = -1
	require.Error(t, cfg.Validate())
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "chatty"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log level")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()

	require.Equal(t, ClusterTypeS3, cfg.Cluster.ClusterType)
	require.Equal(t, 30, cfg.Cluster.TimeoutSeconds)
	require.Equal(t, 5, cfg.Run.Workers)
	require.Equal(t, LogLevelInfo, cfg.Logger.Level)
}

func TestApplyDefaults_ClampsWorkers(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Run.Workers = 100
	cfg.ApplyDefaults()
	require.Equal(t, MaxWorkers, cfg.Run.Workers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("RUN_WORKERS", "8")
	t.Setenv("CLUSTER_MAX_RPS", "50")
	t.Setenv("CLUSTER_REUSE_CONN", "1")
	t.Setenv("GATEWAY_BUCKET", "fdfs")
	t.Setenv("GATEWAY_ENDPOINT", "http://gateway:9000")
	t.Setenv("GATEWAY_ACCESS_KEY_ID", "key")
	t.Setenv("GATEWAY_SECRET_ACCESS_KEY", "secret")

	cfg := LoadFromEnv()
	require.Equal(t, LogLevelDebug, cfg.Logger.Level)
	require.True(t, cfg.Run.DryRun)
	require.Equal(t, 8, cfg.Run.Workers)
	require.Equal(t, 50, cfg.Cluster.MaxRPS)
	require.True(t, cfg.Cluster.ReuseConn)
	require.Equal(t, "fdfs", cfg.Cluster.S3.Bucket)
	require.Equal(t, "http://gateway:9000", cfg.Cluster.S3.Endpoint)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("CLUSTER_TYPE")

	cfg := LoadFromEnv()
	require.Equal(t, LogLevelInfo, cfg.Logger.Level)
	require.Equal(t, ClusterTypeS3, cfg.Cluster.ClusterType)
	require.False(t, cfg.Run.DryRun)
}

func TestLoadFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("RUN_WORKERS", "many")
	t.Setenv("DRY_RUN", "yes-please")

	cfg := LoadFromEnv()
	require.Equal(t, 0, cfg.Run.Workers)
	require.False(t, cfg.Run.DryRun)
}

func TestLoadFromFile_OverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
run:
  workers: 12
cluster:
  max_rps: 25
`), 0o644))

	cfg := validConfig()
	cfg.Run.DryRun = true
	require.NoError(t, LoadFromFile(path, cfg))

	require.Equal(t, 12, cfg.Run.Workers)
	require.Equal(t, 25, cfg.Cluster.MaxRPS)
	// Values the file does not mention stay as loaded before.
	require.True(t, cfg.Run.DryRun)
	require.Equal(t, "fdfs", cfg.Cluster.S3.Bucket)
}

func TestLoadFromFile_Errors(t *testing.T) {
	cfg := validConfig()
	require.Error(t, LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: ["), 0o644))
	require.Error(t, LoadFromFile(path, cfg))
}
