// Package config loads and validates the repovault configuration from
// environment variables and an optional YAML config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultBackupPrefix is the key prefix under which archives are stored in
// the bucket.
const DefaultBackupPrefix = "github-backups"

// GitHub holds the GitHub App identity used to authenticate.
type GitHub struct {
	// AppID is the numeric GitHub App identifier.
	AppID string `yaml:"app_id"`
	// PrivateKey is the app's RSA private key, either as raw PEM text or a
	// base64-encoded PEM blob.
	PrivateKey string `yaml:"private_key"`
}

// Storage holds the S3 target for backup archives.
type Storage struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// Log holds logging configuration.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the fully resolved repovault configuration.
type Config struct {
	GitHub  GitHub  `yaml:"github"`
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
}

// ValidationError reports required configuration keys that are missing.
// It is fatal: no network call is attempted while the configuration is
// incomplete.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// bindEnv maps each config key to its REPOVAULT_-prefixed variable plus the
// bare name used by the deployment environment.
func bindEnv(v *viper.Viper) {
	v.BindEnv("github.app_id", "REPOVAULT_GITHUB_APP_ID", "GITHUB_APP_ID")
	v.BindEnv("github.private_key", "REPOVAULT_GITHUB_APP_PRIVATE_KEY", "GITHUB_APP_PRIVATE_KEY")
	v.BindEnv("storage.bucket", "REPOVAULT_S3_BUCKET_NAME", "S3_BUCKET_NAME")
	v.BindEnv("storage.region", "REPOVAULT_AWS_REGION", "AWS_REGION")
	v.BindEnv("storage.prefix", "REPOVAULT_BACKUP_PREFIX")
	v.BindEnv("log.level", "REPOVAULT_LOG_LEVEL")
	v.BindEnv("log.format", "REPOVAULT_LOG_FORMAT")
}

// Load resolves the configuration from the given viper instance. The config
// file, if any, must already have been read into it.
func Load(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	v.SetDefault("storage.prefix", DefaultBackupPrefix)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	cfg := &Config{
		GitHub: GitHub{
			AppID:      v.GetString("github.app_id"),
			PrivateKey: v.GetString("github.private_key"),
		},
		Storage: Storage{
			Bucket: v.GetString("storage.bucket"),
			Region: v.GetString("storage.region"),
			Prefix: strings.Trim(v.GetString("storage.prefix"), "/"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	return cfg, nil
}

// Validate checks that all required keys are present. Region is optional:
// the AWS SDK falls back to its own resolution chain when it is empty.
func (c *Config) Validate() error {
	var missing []string
	if c.GitHub.AppID == "" {
		missing = append(missing, "GITHUB_APP_ID")
	}
	if c.GitHub.PrivateKey == "" {
		missing = append(missing, "GITHUB_APP_PRIVATE_KEY")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ValidateStorage checks only the keys the restore and list flows need.
// They never talk to GitHub, so the app identity may be absent.
func (c *Config) ValidateStorage() error {
	if c.Storage.Bucket == "" {
		return &ValidationError{Missing: []string{"S3_BUCKET_NAME"}}
	}
	return nil
}
