package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Portal application configuration
	App AppConfig

	// Tenant theme hosting and resolution
	Theme ThemeConfig

	// Browser session store
	Session SessionConfig

	// Passive SSO
	OIDC OIDCConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Deployment file contents, nil when PORTAL_DEPLOYMENT_FILE is unset
	Deployment *Deployment
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AppConfig holds the static application settings of the portal. These are
// known before any settings fetch happens.
type AppConfig struct {
	// Context is the application context path, e.g. /devportal
	Context string

	// Passive enables the passive login gate
	Passive bool

	// NonAnonymous deployments never probe passively
	NonAnonymous bool

	// BaseURL is the origin the server uses to call its own collaborators
	BaseURL string

	// SettingsURL overrides {BaseURL}{Context}/services/settings
	SettingsURL string

	// ThemeBaseURL overrides the origin tenant themes are fetched from
	ThemeBaseURL string

	// AppBundle is the script that boots the protected application
	AppBundle string

	// DefaultTenant is the tenant sentinel that always uses the default theme
	DefaultTenant string

	// DeploymentFile is an optional YAML file with the settings payload and
	// default theme
	DeploymentFile string

	// RegistryTTL bounds how long a mounted controller stays addressable
	// through the context API
	RegistryTTL  time.Duration
	RegistrySize int
}

// ThemeConfig holds tenant theme configuration
type ThemeConfig struct {
	// Source is filesystem, s3 or none
	Source string

	Dir   string
	Watch bool

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3Prefix       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	CacheSize int
	CacheTTL  time.Duration
}

// SessionConfig holds browser session store configuration
type SessionConfig struct {
	// Store is memory, redis or postgres
	Store string

	RedisURL      string
	RedisPoolSize int
	PostgresURL   string

	TTL           time.Duration
	CookieName    string
	CookieSecure  bool
	SweepSchedule string
}

// OIDCConfig holds the identity provider configuration for the passive probe
type OIDCConfig struct {
	Enabled      bool
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables and the
// optional deployment file
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		App:           loadAppConfig(),
		Theme:         loadThemeConfig(),
		Session:       loadSessionConfig(),
		OIDC:          loadOIDCConfig(),
		Observability: loadObservabilityConfig(),
	}

	if cfg.App.DeploymentFile != "" {
		deployment, err := LoadDeployment(cfg.App.DeploymentFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load deployment file: %w", err)
		}
		cfg.Deployment = deployment
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("PORTAL_HOST", "0.0.0.0"),
		Port:            getEnv("PORTAL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("PORTAL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("PORTAL_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration("PORTAL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("PORTAL_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("PORTAL_HEALTH_PORT", "9090"),
	}
}

func loadAppConfig() AppConfig {
	cfg := AppConfig{
		Context:        strings.TrimRight(getEnv("PORTAL_CONTEXT", "/devportal"), "/"),
		Passive:        getEnvBool("PORTAL_PASSIVE", false),
		NonAnonymous:   getEnvBool("PORTAL_NON_ANONYMOUS", false),
		BaseURL:        strings.TrimRight(getEnv("PORTAL_BASE_URL", ""), "/"),
		SettingsURL:    getEnv("PORTAL_SETTINGS_URL", ""),
		ThemeBaseURL:   strings.TrimRight(getEnv("PORTAL_THEME_BASE_URL", ""), "/"),
		AppBundle:      getEnv("PORTAL_APP_BUNDLE", ""),
		DefaultTenant:  getEnv("PORTAL_DEFAULT_TENANT", "carbon.super"),
		DeploymentFile: getEnv("PORTAL_DEPLOYMENT_FILE", ""),
		RegistryTTL:    getEnvDuration("PORTAL_REGISTRY_TTL", 15*time.Minute),
		RegistrySize:   getEnvInt("PORTAL_REGISTRY_SIZE", 10000),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + getEnv("PORTAL_PORT", "8080")
	}
	if cfg.SettingsURL == "" {
		cfg.SettingsURL = cfg.BaseURL + cfg.Context + "/services/settings"
	}
	if cfg.ThemeBaseURL == "" {
		cfg.ThemeBaseURL = cfg.BaseURL
	}
	if cfg.AppBundle == "" {
		cfg.AppBundle = cfg.Context + "/site/public/dist/protected-app.js"
	}

	return cfg
}

func loadThemeConfig() ThemeConfig {
	return ThemeConfig{
		Source:         strings.ToLower(getEnv("PORTAL_THEME_SOURCE", "filesystem")),
		Dir:            getEnv("PORTAL_THEME_DIR", "./site/public/tenant_themes"),
		Watch:          getEnvBool("PORTAL_THEME_WATCH", false),
		S3Endpoint:     getEnv("PORTAL_THEME_S3_ENDPOINT", ""),
		S3Region:       getEnv("PORTAL_THEME_S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("PORTAL_THEME_S3_BUCKET", ""),
		S3Prefix:       getEnv("PORTAL_THEME_S3_PREFIX", ""),
		S3AccessKey:    getEnv("PORTAL_THEME_S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("PORTAL_THEME_S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnvBool("PORTAL_THEME_S3_USE_PATH_STYLE", false),
		CacheSize:      getEnvInt("PORTAL_THEME_CACHE_SIZE", 256),
		CacheTTL:       getEnvDuration("PORTAL_THEME_CACHE_TTL", 5*time.Minute),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Store:         strings.ToLower(getEnv("PORTAL_SESSION_STORE", "memory")),
		RedisURL:      getEnv("PORTAL_REDIS_URL", ""),
		RedisPoolSize: getEnvInt("PORTAL_REDIS_POOL_SIZE", 10),
		PostgresURL:   getEnv("PORTAL_POSTGRES_URL", ""),
		TTL:           getEnvDuration("PORTAL_SESSION_TTL", 30*time.Minute),
		CookieName:    getEnv("PORTAL_SESSION_COOKIE", "portal_session"),
		CookieSecure:  getEnvBool("PORTAL_SESSION_COOKIE_SECURE", false),
		SweepSchedule: getEnv("PORTAL_SESSION_SWEEP_SCHEDULE", "@every 1m"),
	}
}

func loadOIDCConfig() OIDCConfig {
	return OIDCConfig{
		Enabled:      getEnvBool("PORTAL_OIDC_ENABLED", false),
		IssuerURL:    getEnv("PORTAL_OIDC_ISSUER_URL", ""),
		ClientID:     getEnv("PORTAL_OIDC_CLIENT_ID", ""),
		ClientSecret: getEnv("PORTAL_OIDC_CLIENT_SECRET", ""),
		RedirectURL:  getEnv("PORTAL_OIDC_REDIRECT_URL", ""),
		Scopes:       getEnvList("PORTAL_OIDC_SCOPES", []string{"openid", "profile", "email"}),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("PORTAL_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("PORTAL_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("PORTAL_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PORTAL_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PORTAL_OTEL_SERVICE_NAME", "devportal"),
		OTelServiceVersion: getEnv("PORTAL_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("PORTAL_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("PORTAL_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.App.Context != "" && !strings.HasPrefix(c.App.Context, "/") {
		return fmt.Errorf("application context must start with /: %s", c.App.Context)
	}
	if c.App.DefaultTenant == "" {
		return fmt.Errorf("default tenant is required")
	}

	switch c.Theme.Source {
	case "filesystem":
		if c.Theme.Dir == "" {
			return fmt.Errorf("theme directory is required for filesystem themes")
		}
	case "s3":
		if c.Theme.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 themes")
		}
	case "none":
	default:
		return fmt.Errorf("invalid theme source: %s (must be filesystem, s3, or none)", c.Theme.Source)
	}
	if c.Theme.CacheSize < 0 {
		return fmt.Errorf("theme cache size must not be negative")
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session store")
		}
	case "postgres":
		if c.Session.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres session store")
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory, redis, or postgres)", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" || c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC issuer URL, client ID and redirect URL are required when OIDC is enabled")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
