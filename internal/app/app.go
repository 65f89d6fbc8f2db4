package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchroom/server/internal/controller"
	"github.com/watchroom/server/internal/metrics"
	"github.com/watchroom/server/internal/repository/connection/inmemory"
	"github.com/watchroom/server/internal/repository/room/redis"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/redisclient"
)

type AppConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	LogLevel        string        `json:"log_level"`
	MembersLimit    int           `json:"members_limit"`
	SyncToleranceMs int           `json:"sync_tolerance_ms"`
	RoomTTL         time.Duration `json:"room_ttl"`
	RedisPort       int           `json:"redis_port"`
	RedisHost       string        `json:"redis_host"`
	RedisPassword   string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.SyncToleranceMs < 0 {
		return fmt.Errorf("sync tolerance must not be negative")
	}
	if cfg.RoomTTL <= 0 {
		return fmt.Errorf("room ttl must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}
	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := redis.NewRepo(rc, cfg.RoomTTL)
	connRepo := inmemory.NewRepo()
	m := metrics.New()
	roomService := room.NewService(roomRepo, connRepo, &room.Config{
		MembersLimit:    cfg.MembersLimit,
		SyncToleranceMs: cfg.SyncToleranceMs,
	}, logger)
	controller := controller.NewController(roomService, m, func(ctx context.Context) error {
		return rc.Ping(ctx).Err()
	}, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
