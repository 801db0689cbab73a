package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scootshop/checkout-api/internal/catalog"
	"github.com/scootshop/checkout-api/internal/checkout"
	"github.com/scootshop/checkout-api/internal/common"
	"github.com/scootshop/checkout-api/internal/config"
	"github.com/scootshop/checkout-api/internal/health"
	"github.com/scootshop/checkout-api/internal/notify"
	"github.com/scootshop/checkout-api/internal/obs"
	"github.com/scootshop/checkout-api/internal/paypal"
	"github.com/scootshop/checkout-api/internal/ratelimit"
	"github.com/scootshop/checkout-api/internal/resilience"
	"github.com/scootshop/checkout-api/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "checkout")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "checkout-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TraceSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog")
		}
	}
	logger.Info().Int("products", cat.Len()).Msg("catalog loaded")

	providerHTTP := &resilience.HTTPClient{
		Client: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("paypal").WithLogger(logger),
		BaseBackoff: 200 * time.Millisecond,
		MaxAttempts: 3,
		Jitter:      0.2,
		Timeout:     15 * time.Second,
		Target:      "paypal",
	}
	provider, err := paypal.NewClient(paypal.Config{
		BaseURL:  paypal.BaseURLFor(cfg.PayPalEnv),
		ClientID: cfg.PayPalClientID,
		Secret:   cfg.PayPalSecret,
		HTTP:     providerHTTP,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise payment provider client")
	}

	// a webhook id from another app or environment makes every signature
	// verification fail, so surface the misconfiguration at startup
	if err := provider.GetWebhook(ctx, cfg.PayPalWebhookID); err != nil {
		logger.Warn().Err(err).Str("webhook_id", cfg.PayPalWebhookID).
			Msg("webhook ownership probe failed, signature verification will likely reject everything")
	}

	mailer, err := notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise mailer")
	}
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Mailer: mailer,
		Brand: notify.Brand{
			Name:       cfg.BrandName,
			SiteURL:    cfg.BrandSiteURL,
			SupportURL: cfg.BrandSupportURL,
			LogoURL:    cfg.BrandLogoURL,
		},
		ReplyTo: cfg.MailReplyTo,
		Bcc:     cfg.MailBcc,
		DefaultProduct: catalog.Entry{
			Code:     "DEFAULT",
			Name:     cfg.DefaultProductName,
			URL:      cfg.DefaultProductURL,
			ImageURL: cfg.DefaultProductImg,
		},
		Logger: logger,
	})

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Verifier:        webhook.NewVerifier(provider, cfg.PayPalWebhookID),
		Resolver:        webhook.NewResolver(provider, logger),
		Catalog:         cat,
		Sender:          dispatcher,
		Deduper:         webhook.NewRedisDeduper(redisClient, cfg.EventDedupTTL),
		OnVerifyFailure: cfg.OnVerifyFailure,
		Logger:          logger,
	})

	checkoutSvc := checkout.NewService(provider, cat, cfg.BrandName, logger)
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	idem := common.Idem{R: redisClient, TTL: 24 * time.Hour}
	orderLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:orders:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return "ip:" + common.ClientIP(r) },
			Window: time.Minute,
			Max:    envInt("ORDERS_RATE_LIMIT_PER_MIN", 30),
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter store error") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:         readinessChecker{redis: redisClient, provider: provider},
		RedisTimeout:    envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		ProviderTimeout: envDurationMillis("HEALTH_READY_PROVIDER_TIMEOUT_MS", 2000),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(v chi.Router) {
		v.Route("/paypal/webhook", webhookHandler.Routes)
		v.Route("/orders", func(o chi.Router) {
			o.Use(orderLimiter.Middleware)
			o.Use(idem.Middleware)
			checkoutHandler.Routes(o)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis    *redis.Client
	provider *paypal.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c readinessChecker) PingProvider(ctx context.Context, timeout time.Duration) error {
	if c.provider == nil {
		return errors.New("payment provider not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.provider.AccessToken(ctx)
	return err
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
