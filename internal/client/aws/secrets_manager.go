package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../../mocks/mock_secrets_api.go -package=mocks github.com/cyphera/cyphera-mpc-billing/internal/client/aws SecretsAPI

// SecretsAPI is the part of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerClient wraps the AWS Secrets Manager client.
type SecretsManagerClient struct {
	svc    SecretsAPI
	logger *zap.Logger
}

// NewSecretsManagerClient creates a Secrets Manager client from the default
// AWS configuration chain (environment variables, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context, logger *zap.Logger) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewSecretsManagerClientWithAPI(secretsmanager.NewFromConfig(cfg), logger), nil
}

// NewSecretsManagerClientWithAPI wraps an existing API implementation.
func NewSecretsManagerClientWithAPI(svc SecretsAPI, logger *zap.Logger) *SecretsManagerClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecretsManagerClient{svc: svc, logger: logger}
}

// GetSecretString fetches the secret stored under secretARN. When the ARN is
// empty or the fetch fails it falls back to fallbackValue, which usually
// comes straight from the environment. Both missing is an error.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, secretARN, fallbackValue string) (string, error) {
	if secretARN != "" {
		c.logger.Debug("Attempting to fetch secret from Secrets Manager", zap.String("secretArn", secretARN))
		result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretARN),
		})
		if err == nil && result.SecretString != nil && *result.SecretString != "" {
			c.logger.Info("Successfully fetched secret from Secrets Manager", zap.String("secretArn", secretARN))
			return *result.SecretString, nil
		}
		c.logger.Warn("Failed to retrieve secret from Secrets Manager, falling back to env var",
			zap.String("secretArn", secretARN),
			zap.Error(err),
		)
	}

	if fallbackValue != "" {
		return fallbackValue, nil
	}
	return "", fmt.Errorf("secret not found in Secrets Manager (arn %q) or environment", secretARN)
}

// GetSecretJSON fetches a JSON secret and unmarshals it into target. There is
// no environment fallback for structured secrets.
func (c *SecretsManagerClient) GetSecretJSON(ctx context.Context, secretARN string, target interface{}) error {
	if secretARN == "" {
		return fmt.Errorf("secret ARN is required for JSON secrets")
	}
	result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch secret %s: %w", secretARN, err)
	}
	if result.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", secretARN)
	}
	if err := json.Unmarshal([]byte(*result.SecretString), target); err != nil {
		return fmt.Errorf("failed to parse secret %s: %w", secretARN, err)
	}
	c.logger.Info("Successfully fetched and parsed JSON secret from Secrets Manager", zap.String("secretArn", secretARN))
	return nil
}
