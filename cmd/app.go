package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/jwtauth"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/kafka"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/memory"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/postgres"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/postgres/repository"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/redis"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/turn"
	"github.com/qrave1/PairSpeak/internal/infra/ports/http/handlers"
	"github.com/qrave1/PairSpeak/internal/infra/ports/http/server"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: level},
			),
		),
	)

	if err = run(ctx, cfg); err != nil {
		slog.Error("application stopped", slog.Any(constant.Error, err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer dbConn.Close()

	sessionRepo := repository.NewSessionRepo(dbConn)
	messageRepo := repository.NewMessageRepo(dbConn)
	roomRepo := repository.NewRoomRepo(dbConn)

	sinks := []usecase.Sink{postgres.NewStoreSink(sessionRepo, messageRepo, roomRepo)}
	checks := []metric.HealthCheck{{Name: "postgres", Check: dbConn.PingContext}}

	if cfg.Kafka.Enabled() {
		eventSink := kafka.NewEventSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer eventSink.Close()

		sinks = append(sinks, eventSink)
	}

	if cfg.Redis.Enabled() {
		presenceSink := redis.NewPresenceSink(cfg.Redis)
		defer presenceSink.Close()

		sinks = append(sinks, presenceSink)
		checks = append(checks, metric.HealthCheck{Name: "redis", Check: presenceSink.Ping})
	}

	bridge := usecase.NewPersistenceBridge(cfg.Bridge, sinks...)
	loop := usecase.NewEventLoop(cfg.Signaling.LoopBuffer)

	signalingUsecase := usecase.NewSignalingUsecase(
		cfg.Matchmaking,
		memory.NewConnectionRegistry(),
		memory.NewWaitingQueue(),
		memory.NewRoomPresence(),
		bridge,
		turn.NewCredentialIssuer(cfg.CoturnServer),
		loop.Post,
	)

	checks = append(checks, metric.HealthCheck{
		Name:  "event_loop",
		Check: func(ctx context.Context) error { return loop.Call(ctx, func() {}) },
	})

	// ядро и мост живут дольше http: останавливаем их после серверов, мост последним
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	bridgeCtx, stopBridge := context.WithCancel(context.WithoutCancel(ctx))

	loopDone := make(chan struct{})
	bridgeDone := make(chan struct{})

	go func() {
		defer close(bridgeDone)
		_ = bridge.Run(bridgeCtx)
	}()

	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()

	defer func() {
		stopLoop()
		<-loopDone

		stopBridge()
		<-bridgeDone
	}()

	preloadTopics(ctx, roomRepo, loop, signalingUsecase)

	verifier := jwtauth.NewVerifier(cfg.JWTSecret)

	wsHandler := handlers.NewWebSocketHandler(cfg, loop, signalingUsecase)
	iceHandler := handlers.NewIceHandler(turn.NewCredentialIssuer(cfg.CoturnServer))
	groupHandler := handlers.NewGroupHandler(loop, signalingUsecase, messageRepo)
	adminHandler := handlers.NewAdminHandler(loop, signalingUsecase)

	echoSrv := server.New(cfg, verifier, wsHandler, iceHandler, groupHandler, adminHandler)
	metricsSrv := metric.NewServer(checks...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server started", slog.String("port", cfg.Port))

		if err := echoSrv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := metricsSrv.Start(":" + cfg.MetricPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metric server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Signaling.LobbyInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				loop.Post(func() {
					signalingUsecase.BroadcastAllGroupCounts()
					signalingUsecase.RefreshPresence()
				})
			}
		}
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down servers")

		timeoutCtx, timeoutCancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer timeoutCancel()

		if err := echoSrv.Shutdown(timeoutCtx); err != nil {
			slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
		}

		if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
			slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
		}

		return nil
	})

	return g.Wait()
}

// preloadTopics подтягивает сохраненные темы групп. Без базы стартуем с пустыми темами.
func preloadTopics(
	ctx context.Context,
	roomRepo repository.RoomRepository,
	loop *usecase.EventLoop,
	signalingUsecase usecase.SignalingUsecase,
) {
	rooms, err := roomRepo.ListWithTopic(ctx)
	if err != nil {
		slog.Warn("load group topics", slog.Any(constant.Error, err))
		return
	}

	if err = loop.Call(ctx, func() { signalingUsecase.LoadTopics(rooms) }); err != nil {
		slog.Warn("apply group topics", slog.Any(constant.Error, err))
		return
	}

	slog.Info("group topics loaded", slog.Int("count", len(rooms)))
}
