package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ilKhr/simple-phone-and-email-auth/pkg/database"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/health"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/httpclient"
	pkgkafka "github.com/ilKhr/simple-phone-and-email-auth/pkg/kafka"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/tracing"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/auth"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/config"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/event"
	handler "github.com/ilKhr/simple-phone-and-email-auth/internal/handler/http"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/message"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/notification"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/otp"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository/postgres"
	redisrepo "github.com/ilKhr/simple-phone-and-email-auth/internal/repository/redis"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/security"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/sso"
	"github.com/ilKhr/simple-phone-and-email-auth/migrations"
)

// App wires together all dependencies and runs the auth service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	producer        *pkgkafka.Producer
	welcomeConsumer *pkgkafka.Consumer
	httpServer      *http.Server
	tracerShutdown  func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "auth",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "auth")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis holds one-time codes and sessions.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userRepo := postgres.NewUserRepository(pool)
	otpRepo := redisrepo.NewOtpRepository(redisClient)
	sessionRepo := redisrepo.NewSessionRepository(redisClient)
	issuer := session.NewIssuer(tokens, sessionRepo, logger)
	eventProducer := event.NewProducer(producer, logger)
	generator := otp.NewDigitGenerator(cfg.OtpLength)
	provider := message.NewProvider(cfg.EmailFrom)
	hasher := security.NewBcryptHasher()

	emailSender := notification.NewLogEmailSender(logger)
	smsSender := newSMSResolver(cfg, logger)

	emailChannel := sso.EmailChannel(userRepo, provider, emailSender)
	phoneChannel := sso.PhoneChannel(userRepo, provider, smsSender)

	signIn := map[sso.Method]sso.SignInStrategy{
		sso.MethodEmailPassword: sso.NewPasswordSignIn(emailChannel, hasher, issuer, logger),
		sso.MethodPhonePassword: sso.NewPasswordSignIn(phoneChannel, hasher, issuer, logger),
		sso.MethodEmailOtp:      sso.NewOtpSignIn(emailChannel, userRepo, otpRepo, generator, issuer, cfg.OtpTTL, logger),
		sso.MethodPhoneOtp:      sso.NewOtpSignIn(phoneChannel, userRepo, otpRepo, generator, issuer, cfg.OtpTTL, logger),
	}
	signUp := map[sso.Method]sso.SignUpStrategy{
		sso.MethodEmailPassword: sso.NewOtpSignUp(emailChannel, userRepo, otpRepo, generator, hasher, issuer, cfg.OtpTTL, logger),
		sso.MethodPhonePassword: sso.NewOtpSignUp(phoneChannel, userRepo, otpRepo, generator, hasher, issuer, cfg.OtpTTL, logger),
	}

	ssoService := sso.NewService(signIn, signUp, issuer, sessionRepo, eventProducer, logger)

	// Welcome delivery worker: consumes user.registered so registration
	// never blocks on a message provider.
	welcomeHandler := event.NewWelcomeConsumer(provider, emailSender, smsSender, logger)
	idempotencyStore := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	welcomeConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:   cfg.KafkaBrokers,
		GroupID:   event.ConsumerGroupWelcome,
		Topic:     event.TopicUserRegistered,
		MinBytes:  1,
		MaxBytes:  10e6,
		EnableDLQ: true,
	}, pkgkafka.IdempotentHandler(idempotencyStore, welcomeHandler.Handle, logger), logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(ssoService, userRepo, tokens, healthHandler, logger, cfg.PprofAllowedCIDRs)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redisClient:     redisClient,
		producer:        producer,
		welcomeConsumer: welcomeConsumer,
		httpServer:      httpServer,
		tracerShutdown:  tracerShutdown,
	}, nil
}

// newSMSResolver assembles the phone delivery chain. With an sms.ru
// credential the configured countries route there first and then fall back
// to the log sender; without one everything goes to the log sender.
func newSMSResolver(cfg *config.Config, logger *slog.Logger) *notification.Resolver {
	var opts []notification.ResolverOption
	if cfg.SilentDeliveryFailure {
		opts = append(opts, notification.WithSilentFailure())
	}
	resolver := notification.NewResolver(logger, opts...)

	local := notification.NewLogSMSSender(logger)

	if cfg.SMSRuAPIID != "" {
		smsruClient := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("smsru"),
			logger,
		)
		smsru := notification.NewSMSRuSender(notification.SMSRuConfig{
			APIID: cfg.SMSRuAPIID,
			Test:  cfg.Environment != "production",
		}, smsruClient, logger)

		for _, country := range cfg.SMSRuCountries {
			resolver.Register(country, smsru)
			resolver.Register(country, local)
		}
		return resolver
	}

	for _, country := range cfg.SMSRuCountries {
		resolver.Register(country, local)
	}
	return resolver
}

// Run starts the HTTP server and the welcome consumer and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		if err := a.welcomeConsumer.Start(consumerCtx); err != nil {
			errCh <- fmt.Errorf("welcome consumer: %w", err)
		}
	}()

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumer and producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Stop the welcome consumer and the Kafka producer.
	if err := a.welcomeConsumer.Close(); err != nil {
		a.logger.Error("welcome consumer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close storage connections.
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
