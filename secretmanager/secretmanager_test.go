package secretmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecretsClient struct {
	output *secretsmanager.GetSecretValueOutput
	err    error
}

func (s stubSecretsClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func stubAWS(t *testing.T, client secretsManagerAPI) {
	t.Helper()
	originalLoad := loadDefaultConfig
	originalNew := newSecretsManagerClient
	loadDefaultConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newSecretsManagerClient = func(cfg aws.Config) secretsManagerAPI { return client }
	t.Cleanup(func() {
		loadDefaultConfig = originalLoad
		newSecretsManagerClient = originalNew
	})
}

func TestGetSecretLoadConfigError(t *testing.T) {
	originalLoad := loadDefaultConfig
	loadDefaultConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("config error")
	}
	defer func() { loadDefaultConfig = originalLoad }()

	_, err := GetSecret(context.Background(), "secret")
	assert.Error(t, err)
}

func TestGetSecretClientError(t *testing.T) {
	stubAWS(t, stubSecretsClient{err: errors.New("client error")})
	_, err := GetSecret(context.Background(), "secret")
	assert.Error(t, err)
}

func TestGetSecretSuccess(t *testing.T) {
	stubAWS(t, stubSecretsClient{output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("value")}})
	value, err := GetSecret(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestGetSecretMap(t *testing.T) {
	stubAWS(t, stubSecretsClient{output: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"JWT_SECRET":"s3cret","MONGO_URI":"mongodb://db"}`),
	}})
	values, err := GetSecretMap(context.Background(), "prod/tailor-connect")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", values["JWT_SECRET"])

	stubAWS(t, stubSecretsClient{output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`[1]`)}})
	_, err = GetSecretMap(context.Background(), "prod/tailor-connect")
	assert.Error(t, err)
}

func TestGetSecretBinaryOnly(t *testing.T) {
	stubAWS(t, stubSecretsClient{output: &secretsmanager.GetSecretValueOutput{}})
	_, err := GetSecret(context.Background(), "secret")
	assert.Error(t, err)
}
