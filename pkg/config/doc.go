// Package config provides application configuration management from environment variables.
//
// # Overview
//
// Configuration is read from PORTAL_* environment variables with defaults for
// every setting, plus an optional YAML deployment file for the settings
// payload and default theme.
//
// # Configuration Structure
//
// Server settings:
//
//	PORTAL_HOST="0.0.0.0"
//	PORTAL_PORT="8080"
//	PORTAL_HEALTH_PORT="9090"
//
// Application settings:
//
//	PORTAL_CONTEXT="/devportal"
//	PORTAL_PASSIVE="true"
//	PORTAL_NON_ANONYMOUS="false"
//	PORTAL_BASE_URL="https://apim.example.com"
//	PORTAL_DEFAULT_TENANT="carbon.super"
//	PORTAL_DEPLOYMENT_FILE="/etc/devportal/deployment.yaml"
//
// Theme settings:
//
//	PORTAL_THEME_SOURCE="filesystem"  # filesystem, s3, none
//	PORTAL_THEME_DIR="./site/public/tenant_themes"
//	PORTAL_THEME_WATCH="true"
//	PORTAL_THEME_S3_BUCKET="tenant-themes"
//	PORTAL_THEME_CACHE_TTL="5m"
//
// Session settings:
//
//	PORTAL_SESSION_STORE="redis"  # memory, redis, postgres
//	PORTAL_REDIS_URL="redis://localhost:6379/0"
//	PORTAL_SESSION_TTL="30m"
//
// OIDC settings:
//
//	PORTAL_OIDC_ENABLED="true"
//	PORTAL_OIDC_ISSUER_URL="https://idp.example.com/oauth2/token"
//	PORTAL_OIDC_CLIENT_ID="devportal"
//	PORTAL_OIDC_REDIRECT_URL="https://apim.example.com/devportal/services/auth/callback"
//
// Observability settings:
//
//	PORTAL_LOG_LEVEL="info"
//	PORTAL_METRICS_ENABLED="true"
//	PORTAL_OTEL_ENABLED="false"
//	PORTAL_OTEL_ENDPOINT="localhost:4317"
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
//
// # Related Packages
//
//   - pkg/observability: log level parsing
package config
