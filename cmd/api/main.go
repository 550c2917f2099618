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
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/tindahan-dev/backend-tindahan/internal/auth"
	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/config"
	"github.com/tindahan-dev/backend-tindahan/internal/health"
	"github.com/tindahan-dev/backend-tindahan/internal/notify"
	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/order"
	"github.com/tindahan-dev/backend-tindahan/internal/payment"
	"github.com/tindahan-dev/backend-tindahan/internal/repo"
	"github.com/tindahan-dev/backend-tindahan/internal/token"
	"github.com/tindahan-dev/backend-tindahan/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "tindahan")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled, stopTracing := setupTracing(cfg, logger)
	defer stopTracing()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, 5*time.Second)
	defer cancelConnect()

	pool := mustOpenPostgres(connectCtx, cfg.DatabaseURL, logger)
	defer pool.Close()

	redisClient := mustOpenRedis(connectCtx, cfg.RedisURL, metricsEnabled, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	taskConnOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(taskConnOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	orderStore := &repo.OrderStore{DB: pool}
	tokens := token.Codec{Secret: cfg.OrderActionSecret}
	enqueuer := &notify.Enqueuer{
		Client:  taskClient,
		Enabled: cfg.NotifyEmailEnabled,
		Logger:  logger,
	}

	gateway := payment.NewPayMongo(cfg.PayMongoBaseURL, cfg.PayMongoSecretKey, logger)
	paymentHandler := payment.NewHandler(gateway, orderStore, logger)

	actionHandler := &order.ActionHandler{
		Store:    orderStore,
		Tokens:   tokens,
		Notifier: enqueuer,
		Logger:   logger,
	}
	createHandler := &order.CreateHandler{
		Store:    orderStore,
		Notifier: enqueuer,
		Validate: validator.New(),
		Logger:   logger,
	}
	adminHandler := &order.AdminHandler{
		Store:    orderStore,
		Notifier: enqueuer,
		Logger:   logger,
	}

	authService, err := auth.NewService(auth.Config{
		Secret:   cfg.AdminJWTSecret,
		TokenTTL: cfg.AdminTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authService}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "ratelimit:action",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	actionLimiter := limiterstdlib.NewMiddleware(limiter.New(limiterStore, limiter.Rate{
		Period: cfg.ActionRateEvery,
		Limit:  cfg.ActionRateMax,
	}))

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
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	apiRoutes{
		Action:        actionHandler.Handle,
		CreateOrder:   createHandler.Handle,
		CreateIntent:  paymentHandler.CreateIntent,
		AttachEwallet: paymentHandler.AttachEwallet,
		IntentStatus:  paymentHandler.Status,
		AdminList:     adminHandler.ListPending,
		AdminGet:      adminHandler.Get,
		AdminVerify:   adminHandler.Verify,
		AdminReject:   adminHandler.Reject,
		ActionLimiter: actionLimiter.Handler,
		Idempotency:   idem.Middleware,
		RequireAdmin:  authMiddleware.RequireAdmin,
	}.mount(r)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server shutdown complete")
}

// setupTracing initialises the tracer provider unless disabled by env. A
// failed exporter downgrades tracing instead of blocking startup.
func setupTracing(cfg *config.Config, logger zerolog.Logger) (bool, func()) {
	if !envBool("OBS_ENABLE_TRACING", true) {
		return false, func() {}
	}
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName:   "tindahan-api",
		Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
		Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
		SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		return false, func() {}
	}
	return true, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}
}

func mustOpenPostgres(ctx context.Context, databaseURL string, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "tindahan-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustOpenRedis(ctx context.Context, redisURL string, withMetrics bool, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// runMigrations applies the embedded schema. The URL scheme is rewritten to
// pick golang-migrate's pgx/v5 driver rather than lib/pq.
func runMigrations(databaseURL string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	url := databaseURL
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			url = "pgx5://" + rest
			break
		}
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	ms := fallback
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		ms = v
	}
	return time.Duration(ms) * time.Millisecond
}
