package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"covidexport/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "https://covid.ourworldindata.org/data/owid-covid-data.json", cfg.Source.URL)
	require.Equal(t, 5*time.Minute, cfg.Source.Timeout)
	require.EqualValues(t, 3, cfg.Source.MaxRetries)
	require.Equal(t, "data", cfg.Output.Dir)
	require.Equal(t, 4, cfg.Output.Concurrency)
	require.False(t, cfg.S3.Enabled)
	require.Equal(t, "us-east-1", cfg.S3.Region)
	require.True(t, cfg.S3.UseSSL)
	require.False(t, cfg.GitHub.Enabled)
	require.Equal(t, "data", cfg.GitHub.PathPrefix)
	require.Zero(t, cfg.Schedule.Hour)
	require.Zero(t, cfg.Schedule.Minute)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
	require.Equal(t, "covidexport", cfg.Database.DatabaseName)
}

func TestLoad_EnvironmentNames(t *testing.T) {
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_BUCKET_NAME", "covid-data")
	t.Setenv("S3_BUCKET_REGION", "eu-west-3")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("GITHUB_TOKEN", "ghp_x")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.True(t, cfg.S3.Enabled)
	require.Equal(t, "covid-data", cfg.S3.Bucket)
	require.Equal(t, "eu-west-3", cfg.S3.Region)
	require.Equal(t, "AKIA", cfg.S3.AccessKeyID)
	require.Equal(t, "secret", cfg.S3.SecretAccessKey)
	require.Equal(t, "ghp_x", cfg.GitHub.Token)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
environment: production
logLevel: warn
output:
  dir: /srv/covid
  concurrency: 8
github:
  enabled: true
  token: ghp_y
  owner: covid
  repo: data
  branch: main
schedule:
  hour: 6
  minute: 30
  runOnStart: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "/srv/covid", cfg.Output.Dir)
	require.Equal(t, 8, cfg.Output.Concurrency)
	require.True(t, cfg.GitHub.Enabled)
	require.Equal(t, "main", cfg.GitHub.Branch)
	require.Equal(t, 6, cfg.Schedule.Hour)
	require.Equal(t, 30, cfg.Schedule.Minute)
	require.True(t, cfg.Schedule.RunOnStart)
	// defaults still apply to the sections the file leaves out
	require.Equal(t, 5*time.Minute, cfg.Source.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output:\n  dir: from-file\n")
	t.Setenv("OUTPUT_DIR", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Output.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "schedule:\n  hour: 24\n")

	_, err := config.Load(path)
	require.ErrorContains(t, err, "schedule.hour")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "minute out of range",
			mutate:  func(cfg *config.Config) { cfg.Schedule.Minute = 60 },
			wantErr: "schedule.minute",
		},
		{
			name:    "negative hour",
			mutate:  func(cfg *config.Config) { cfg.Schedule.Hour = -1 },
			wantErr: "schedule.hour",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(cfg *config.Config) { cfg.S3.Enabled = true },
			wantErr: "s3.bucket",
		},
		{
			name: "github without token",
			mutate: func(cfg *config.Config) {
				cfg.GitHub.Enabled = true
				cfg.GitHub.Owner = "covid"
				cfg.GitHub.Repo = "data"
			},
			wantErr: "github.owner, github.repo and github.token",
		},
		{
			name: "disabled publishers are not checked",
			mutate: func(cfg *config.Config) {
				cfg.S3.Bucket = ""
				cfg.GitHub.Token = ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
