package config

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLoaders(t *testing.T, secrets map[string]string, secretErr error) {
	t.Helper()
	originalEnv, originalSecrets := loadEnv, getSecretMap
	loadEnv = func(...string) error { return errors.New("no .env") }
	getSecretMap = func(context.Context, string) (map[string]string, error) {
		return secrets, secretErr
	}
	t.Cleanup(func() {
		loadEnv, getSecretMap = originalEnv, originalSecrets
	})
}

func TestLoadDefaults(t *testing.T) {
	stubLoaders(t, nil, nil)
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "tailor_connect", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxCodeAttempts)
	assert.Equal(t, "grpc", cfg.Telemetry.OTLPProtocol)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	stubLoaders(t, nil, nil)
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadExportsProdSecrets(t *testing.T) {
	stubLoaders(t, map[string]string{"JWT_SECRET": "from-secrets", "DB_NAME": "prod_db"}, nil)
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_NAME", "")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", cfg.Auth.JWTSecret)
	assert.Equal(t, "prod_db", cfg.Mongo.Database)
}

func TestLoadProdSecretFailure(t *testing.T) {
	stubLoaders(t, nil, errors.New("denied"))
	t.Setenv("APP_ENV", EnvProd)

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestUsageListsVariables(t *testing.T) {
	assert.Contains(t, Usage(), "MONGO_URI")
}
