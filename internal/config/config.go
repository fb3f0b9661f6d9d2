package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendCallbackURL string
	BaseURL             string
	CORSAllowOrigins    []string

	GitHub OAuthConfig
	Google OAuthConfig

	SMTP SMTPConfig

	// CredentialsKey seals third-party secrets stored in user_integrations.
	CredentialsKey string

	Integrations IntegrationsConfig
	Cron         CronConfig
	MinIO        MinIOConfig
	Tracing      TracingConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type IntegrationsConfig struct {
	GitHubAPIURL string
	GeminiAPIURL string
	GeminiModel  string
	GeminiAPIKey string
	HTTPTimeout  time.Duration
}

type CronConfig struct {
	TZ              string
	TokenCleanup    string
	OverdueInvoices string
	JobTimeout      time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// TracingConfig mirrors the standard OTEL_* variables. Exporter endpoints are read by the
// OTLP exporters themselves.
type TracingConfig struct {
	Disabled    bool
	ServiceName string
	Protocol    string
	Sampler     string
	SamplerArg  string
}

func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

func Load() (*Config, error) {
	cfg := load()
	cfg.JWTSecret = getEnvOrPanic("JWT_SECRET")
	return cfg, nil
}

// LoadCLI reads the same environment as Load without requiring JWT_SECRET.
func LoadCLI() *Config {
	return load()
}

func load() *Config {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	httpTimeout, err := time.ParseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "30s"))
	if err != nil {
		httpTimeout = 30 * time.Second
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:5173/auth/callback"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		CORSAllowOrigins:    splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),

		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		CredentialsKey: getEnv("CREDENTIALS_KEY", ""),

		Integrations: IntegrationsConfig{
			GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
			GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			HTTPTimeout:  httpTimeout,
		},

		Cron: CronConfig{
			TZ:              getEnv("CRON_TZ", "UTC"),
			TokenCleanup:    getEnv("CRON_TOKEN_CLEANUP", "0 * * * *"),
			OverdueInvoices: getEnv("CRON_OVERDUE_INVOICES", "0 1 * * *"),
			JobTimeout:      5 * time.Minute,
		},

		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "workhours-exports"),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		},

		Tracing: TracingConfig{
			Disabled:    getEnv("OTEL_SDK_DISABLED", "false") == "true",
			ServiceName: getEnv("OTEL_SERVICE_NAME", "workhours-api"),
			Protocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			Sampler:     getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio"),
			SamplerArg:  getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
