package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/repovault/repovault/internal/config"
	"github.com/repovault/repovault/pkg/cli/format"
	"github.com/repovault/repovault/pkg/github"
	"github.com/repovault/repovault/pkg/storage/s3"
)

// loadConfig resolves the runtime configuration from the global viper
// instance (config file + environment).
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newStorageClient builds the S3 client for the configured bucket.
func newStorageClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	return s3.NewClient(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
}

// authenticate runs the GitHub App flow: mint an app JWT, exchange it for
// an installation token and return a client scoped to that installation.
func authenticate(ctx context.Context, cfg *config.Config) (*github.Client, error) {
	identity := github.AppIdentity{
		AppID:         cfg.GitHub.AppID,
		PrivateKeyPEM: github.NormalizePrivateKey(cfg.GitHub.PrivateKey),
	}

	appJWT, err := github.MintAppJWT(identity, time.Now())
	if err != nil {
		return nil, err
	}

	token, err := github.ExchangeInstallationToken(ctx, appJWT)
	if err != nil {
		return nil, err
	}

	return github.NewInstallationClient(ctx, token), nil
}

// promptLine prints the prompt and reads one trimmed line from the reader.
func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(reader *bufio.Reader, prompt string) (bool, error) {
	answer, err := promptLine(reader, prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// printBatchSummary prints the closing success/failure line for a batch
// operation.
func printBatchSummary(operation string, attempted, succeeded, failed int) {
	summary := format.CountSummary(operation, attempted, succeeded, failed)
	if failed > 0 {
		fmt.Println(format.Warning("%s", summary))
		return
	}
	fmt.Println(format.Success("%s", summary))
}
