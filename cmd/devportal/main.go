package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/devportal/pkg/config"
	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/observability"
	"github.com/platinummonkey/devportal/pkg/portal"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
	"github.com/platinummonkey/devportal/pkg/sso"
	"github.com/platinummonkey/devportal/pkg/theme"
)

// maxRequestBody bounds request bodies of the context API
const maxRequestBody = 1 << 20

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Devportal server failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
		if otelMetrics, err := observability.NewOTelMetrics(); err != nil {
			logger.WithError(err).Warn("OpenTelemetry metrics unavailable")
		} else {
			metrics.WithOTel(otelMetrics)
		}
	}

	// Browser session store
	backend, err := sessionstore.Open(ctx, sessionstore.Options{
		Backend:       cfg.Session.Store,
		RedisURL:      cfg.Session.RedisURL,
		RedisPoolSize: cfg.Session.RedisPoolSize,
		PostgresURL:   cfg.Session.PostgresURL,
		TTL:           cfg.Session.TTL,
	}, metrics)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	logger.Infof("Session store: %s", cfg.Session.Store)

	sweeper, err := sessionstore.NewExpirySweeper(backend.Store, cfg.Session.SweepSchedule, logger, metrics)
	if err != nil {
		return err
	}
	if sweeper != nil {
		sweeper.Start()
	}

	// Settings
	settingsPayload, err := deploymentSettings(cfg)
	if err != nil {
		return err
	}
	settingsClient := settings.NewHTTPClient(cfg.App.SettingsURL, nil)

	// Tenant themes
	themeStore, err := openThemeStore(ctx, cfg)
	if err != nil {
		return err
	}
	var fetcher theme.Fetcher
	if themeStore != nil {
		fetcher = theme.NewStoreFetcher(themeStore)
	} else {
		fetcher = theme.NewHTTPFetcher(cfg.App.ThemeBaseURL+cfg.App.Context, nil)
	}
	themeCache := theme.NewCachedResolver(fetcher, cfg.Theme.CacheSize, cfg.Theme.CacheTTL, metrics)

	defaultTheme, err := deploymentTheme(cfg)
	if err != nil {
		return err
	}
	resolver := theme.NewResolver(themeCache,
		theme.WithDefaultTheme(defaultTheme),
		theme.WithDefaultTenant(cfg.App.DefaultTenant),
		theme.WithMetrics(metrics),
	)

	var watcher *theme.Watcher
	if fileStore, ok := themeStore.(*theme.FileStore); ok && cfg.Theme.Watch {
		watcher, err = theme.NewWatcher(fileStore, themeCache.Invalidate, logger)
		if err != nil {
			return fmt.Errorf("failed to watch theme directory: %w", err)
		}
		watcher.Start()
	}

	// Passive SSO
	var provider sso.Provider
	if cfg.OIDC.Enabled {
		oidcProvider, err := sso.NewOIDCProvider(ctx, &sso.Config{
			IssuerURL:    cfg.OIDC.IssuerURL,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Scopes:       cfg.OIDC.Scopes,
		})
		if err != nil {
			return err
		}
		provider = oidcProvider
		logger.Infof("Single sign-on with %s", cfg.OIDC.IssuerURL)
	}

	prober := gate.NewHTTPProber(cfg.App.BaseURL+cfg.App.Context+gate.ProbePath, nil)

	svc := &portal.Services{
		AppContext: cfg.App.Context,
		Mode:       gate.Mode{Passive: cfg.App.Passive, NonAnonymous: cfg.App.NonAnonymous},
		Settings:   settingsClient,
		Themes:     resolver,
		Gate:       gate.New(cfg.App.Context, prober, metrics),
		Metrics:    metrics,
	}

	renderer, err := portal.NewRenderer(cfg.App.Context, cfg.App.AppBundle)
	if err != nil {
		return err
	}

	// Routes
	router := mux.NewRouter()
	router.Handle(cfg.App.Context+"/services/settings", settings.NewHandler(settingsPayload)).Methods("GET")
	sso.NewHandlers(provider, backend.Store, cfg.App.Context).RegisterRoutes(router)
	if themeStore != nil {
		theme.NewHandler(themeStore).RegisterRoutes(router, cfg.App.Context)
	}
	portal.NewHandlers(svc, backend.Store,
		portal.NewRegistry(cfg.App.RegistrySize, cfg.App.RegistryTTL, metrics),
		renderer,
	).RegisterRoutes(router)
	observability.InstrumentRouter(router, metrics)

	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware,
		httputil.MaxBytesMiddleware(maxRequestBody),
		httputil.ContentTypeMiddleware,
		sessionstore.Middleware(sessionstore.CookieConfig{
			Name:   cfg.Session.CookieName,
			Path:   cookiePath(cfg.App.Context),
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		}),
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(httputil.Chain(middlewares...)(router), "devportal"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port
	healthChecker := observability.NewHealthChecker(backend.DB, backend.Redis, cfg.Observability.OTelServiceVersion)
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	if sweeper != nil {
		shutdown.RegisterShutdownFunc(sweeper.Stop)
	}
	if watcher != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return watcher.Close() })
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error { return backend.Store.Close() })
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	serve(logger, healthServer, "health")
	serve(logger, server, "portal")
	logger.WithFields(map[string]interface{}{
		"context": cfg.App.Context,
		"passive": cfg.App.Passive,
	}).Infof("Devportal listening on %s", server.Addr)

	return shutdown.WaitForShutdown()
}

func serve(logger *observability.Logger, server *http.Server, name string) {
	go func() {
		defer observability.RecoverPanic(logger, name+" server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Errorf("%s server failed", name)
			os.Exit(1)
		}
	}()
}

// cookiePath scopes the session cookie to the application context
func cookiePath(appContext string) string {
	if appContext == "" {
		return "/"
	}
	return appContext
}

// deploymentSettings returns the settings payload served to the page
func deploymentSettings(cfg *config.Config) (*settings.Settings, error) {
	payload := map[string]interface{}{
		"app":              map[string]interface{}{"context": cfg.App.Context},
		"identityProvider": map[string]interface{}{"external": false},
	}
	if cfg.Deployment != nil && cfg.Deployment.Settings != nil {
		payload = cfg.Deployment.Settings
	}

	s, err := settings.FromMap(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment settings: %w", err)
	}
	return s, nil
}

// deploymentTheme returns the default theme override, nil for the built-in one
func deploymentTheme(cfg *config.Config) (*theme.Theme, error) {
	if cfg.Deployment == nil || cfg.Deployment.DefaultTheme == nil {
		return nil, nil
	}
	t, err := theme.FromMap(cfg.Deployment.DefaultTheme)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment default theme: %w", err)
	}
	return t, nil
}

// openThemeStore opens the configured theme hosting, nil when themes are
// fetched from another server
func openThemeStore(ctx context.Context, cfg *config.Config) (theme.Store, error) {
	switch cfg.Theme.Source {
	case "filesystem":
		if err := os.MkdirAll(cfg.Theme.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create theme directory: %w", err)
		}
		return theme.NewFileStore(cfg.Theme.Dir)
	case "s3":
		return theme.NewS3Store(ctx, theme.S3Config{
			Endpoint:     cfg.Theme.S3Endpoint,
			Region:       cfg.Theme.S3Region,
			Bucket:       cfg.Theme.S3Bucket,
			Prefix:       cfg.Theme.S3Prefix,
			AccessKey:    cfg.Theme.S3AccessKey,
			SecretKey:    cfg.Theme.S3SecretKey,
			UsePathStyle: cfg.Theme.S3UsePathStyle,
		})
	default:
		return nil, nil
	}
}
