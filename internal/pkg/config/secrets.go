// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager resolves credential names to values
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

var (
	_ SecretsManager = (*AWSSecretsManager)(nil)
	_ SecretsManager = (*EnvSecretsManager)(nil)
)

type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads a single JSON secret holding every credential
// and keeps it for ttl.
type AWSSecretsManager struct {
	client     secretValueGetter
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	cache     map[string]string
	fetchedAt time.Time
}

func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsManager{
		client:     secretsmanager.NewFromConfig(cfg),
		secretName: secretName,
		ttl:        5 * time.Minute,
		logger:     logger.With(slog.String("secret_name", secretName)),
		cache:      make(map[string]string),
	}, nil
}

func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	values, err := sm.GetSecrets(ctx, []string{key})
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("secret %s has no key %s", sm.secretName, key)
	}
	return v, nil
}

// GetSecrets returns the requested keys that exist in the secret
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.fetchedAt.IsZero() || time.Since(sm.fetchedAt) >= sm.ttl {
		if err := sm.fetch(ctx); err != nil {
			return nil, err
		}
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := sm.cache[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (sm *AWSSecretsManager) fetch(ctx context.Context) error {
	sm.logger.Info("fetching secrets from AWS Secrets Manager")

	res, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return fmt.Errorf("failed to get secret value: %w", err)
	}
	if res.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(*res.SecretString), &values); err != nil {
		return fmt.Errorf("failed to parse secret %s: %w", sm.secretName, err)
	}

	sm.cache = values
	sm.fetchedAt = time.Now()
	return nil
}

// EnvSecretsManager reads secrets from the process environment
type EnvSecretsManager struct{}

func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

func (EnvSecretsManager) GetSecret(_ context.Context, key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %s not set", key)
}

func (EnvSecretsManager) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			out[k] = v
		}
	}
	return out, nil
}
