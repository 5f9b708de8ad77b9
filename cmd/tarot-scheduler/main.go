package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/config"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/events"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/meeting"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/pricing"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/service/scheduling"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store/postgres"
	grpcTransport "github.com/ArielDRighi/TarotFlavia-sub004/internal/transport/grpc"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/transport/httpapi"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "tarot-scheduler"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", cfg.ServiceName),
	)
	slog.SetDefault(log)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, strconv.Itoa(cfg.GRPCPort))
	log.Info("starting",
		slog.String("http_addr", httpAddr),
		slog.String("grpc_addr", grpcAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("timezone", cfg.Scheduling.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Error("tracing setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	prices, err := pricing.NewTable(cfg.Pricing.HourlyRates, cfg.Pricing.FallbackRate)
	if err != nil {
		log.Error("pricing table invalid", slog.Any("err", err))
		os.Exit(1)
	}
	meetings, err := meeting.NewGenerator(cfg.MeetingURL)
	if err != nil {
		log.Error("meeting base url invalid", slog.Any("err", err))
		os.Exit(1)
	}

	verifier, err := httpapi.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Error("jwt config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	availability := postgres.NewAvailabilityRepo(db)
	reservations := postgres.NewReservationRepo(db)
	svc := scheduling.NewService(scheduling.Dependencies{
		Availability: availability,
		Exceptions:   availability,
		Reservations: reservations,
		Prices:       prices,
		Meetings:     meetings,
	},
		scheduling.WithConfig(scheduling.Config{
			Location:           cfg.Scheduling.Location,
			LeadTime:           cfg.Scheduling.LeadTime,
			CancellationWindow: cfg.Scheduling.CancellationWindow,
			SlotStep:           cfg.Scheduling.SlotStep,
			MaxProjectionDays:  cfg.Scheduling.MaxProjectionDays,
		}),
		scheduling.WithLogger(log.With(slog.String("component", "scheduling"))),
		scheduling.WithMetrics(metrics),
	)

	checks := map[string]func(context.Context) error{
		"postgres": postgres.ReadyCheck(db),
	}

	var limiter httpapi.Limiter
	if cfg.RateLimit.BookingsPerMinute > 0 {
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer func() { _ = rdb.Close() }()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			limiter = httpapi.NewRedisLimiter(rdb, cfg.RateLimit.BookingsPerMinute, time.Minute, cfg.ServiceName+":booking")
			log.Info("booking rate limit enabled", slog.String("backend", "redis"), slog.Int("per_minute", cfg.RateLimit.BookingsPerMinute))
		} else {
			limiter = httpapi.NewLocalLimiter(cfg.RateLimit.BookingsPerMinute, cfg.RateLimit.Burst)
			log.Info("booking rate limit enabled", slog.String("backend", "memory"), slog.Int("per_minute", cfg.RateLimit.BookingsPerMinute))
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewWriter(cfg.Kafka.Brokers)
		defer func() {
			if err := writer.Close(); err != nil {
				log.Warn("kafka writer close failed", slog.Any("err", err))
			}
		}()
		checks["kafka"] = events.ReadyCheck(cfg.Kafka.Brokers)
		publisher := events.NewPublisher(postgres.NewOutboxRepo(db), writer, log.With(slog.String("component", "outbox")), metrics, events.PublisherConfig{
			PollEvery:   cfg.Kafka.PollEvery,
			BatchSize:   cfg.Kafka.BatchSize,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		go publisher.Run(ctx)
		log.Info("outbox publisher started", slog.Any("brokers", cfg.Kafka.Brokers))
	} else {
		log.Warn("kafka brokers not configured; reservation events stay in the outbox")
	}

	readyChecks := make([]httpapi.ReadyCheck, 0, len(checks))
	grpcChecks := make(map[string]grpcTransport.Check, len(checks))
	for name, check := range checks {
		readyChecks = append(readyChecks, httpapi.ReadyCheck{Name: name, Check: check})
		grpcChecks[name] = check
	}

	httpServer := &http.Server{
		Addr: httpAddr,
		Handler: httpapi.NewHandler(httpapi.Options{
			Service:        svc,
			Verifier:       verifier,
			Logger:         log,
			Metrics:        metrics,
			BookingLimiter: limiter,
			ReadyChecks:    readyChecks,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.HTTPRequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcTransport.NewServer(grpcTransport.Options{
		Logger:         log,
		RequestTimeout: cfg.GRPCRequestTimeout,
		Checks:         grpcChecks,
	})
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", grpcAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := grpcServer.Serve(ctx, lis); err != nil {
			errCh <- err
		}
	}()
	log.Info("servers started", slog.String("http_addr", httpAddr), slog.String("grpc_addr", grpcAddr))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server stopped with error", slog.Any("err", err))
		exitCode = 1
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}
	grpcServer.Shutdown(cfg.ShutdownTimeout)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
