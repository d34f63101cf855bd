package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/raushankrgupta/tailor-connect/secretmanager"
)

const EnvProd = "prod"

// ProdSecretName is the Secrets Manager entry exported into the environment in production.
const ProdSecretName = "prod/tailor-connect"

type Config struct {
	AppEnv string `env:"APP_ENV" env-default:"dev"`
	Port   string `env:"PORT" env-default:"8080"`

	Mongo     MongoConfig
	Auth      AuthConfig
	Google    GoogleConfig
	Gemini    GeminiConfig
	Mail      MailConfig
	AWS       AWSConfig
	NATS      NATSConfig
	CORS      CORSConfig
	Telemetry TelemetryConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI" env-default:"mongodb://localhost:27017/"`
	Database string `env:"DB_NAME" env-default:"tailor_connect"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"JWT_TTL" env-default:"24h"`
	Issuer    string        `env:"JWT_ISSUER" env-default:"tailor-connect"`
	CodeTTL   time.Duration `env:"SIGNIN_CODE_TTL" env-default:"10m"`
	// MaxCodeAttempts bounds wrong guesses against one sign-in code.
	MaxCodeAttempts int `env:"SIGNIN_CODE_MAX_ATTEMPTS" env-default:"5"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL" env-default:"http://localhost:8080/auth/google/callback"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
}

type MailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromName       string `env:"MAIL_FROM_NAME" env-default:"Tailor Connect"`
	FromAddress    string `env:"MAIL_FROM" env-default:"no-reply@tailorconnect.app"`
}

type AWSConfig struct {
	Region     string `env:"AWS_REGION" env-default:"ap-south-1"`
	BucketName string `env:"AWS_BUCKET_NAME"`
}

type NATSConfig struct {
	URL string `env:"NATS_URL"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type TelemetryConfig struct {
	ServiceName          string            `env:"OTEL_SERVICE_NAME" env-default:"tailor-connect"`
	ServiceVersion       string            `env:"OTEL_SERVICE_VERSION" env-default:"dev"`
	OTLPEndpoint         string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPTracesEndpoint   string            `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	OTLPMetricsEndpoint  string            `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	OTLPProtocol         string            `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	OTLPHeaders          map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" env-separator:","`
	OTLPInsecure         bool              `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"false"`
	ExportTimeout        time.Duration     `env:"OTEL_EXPORTER_OTLP_TIMEOUT" env-default:"10s"`
	MetricExportInterval time.Duration     `env:"OTEL_METRIC_EXPORT_INTERVAL" env-default:"30s"`
}

var (
	loadEnv      = godotenv.Load
	getSecretMap = secretmanager.GetSecretMap
)

// Load reads .env when present, exports production secrets, then reads the environment.
func Load(ctx context.Context) (Config, error) {
	if err := loadEnv(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("APP_ENV") == EnvProd {
		secrets, err := getSecretMap(ctx, ProdSecretName)
		if err != nil {
			return Config{}, fmt.Errorf("error retrieving production secrets: %w", err)
		}
		for key, value := range secrets {
			if err := os.Setenv(key, value); err != nil {
				return Config{}, fmt.Errorf("error exporting secret %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// Usage describes every environment variable the service reads.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
