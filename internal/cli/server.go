package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/config"
	"jeopardy-service/internal/infra/memory"
	"jeopardy-service/internal/infra/postgres"
	infraredis "jeopardy-service/internal/infra/redis"
	"jeopardy-service/internal/ingest"
	"jeopardy-service/internal/logging"
	"jeopardy-service/internal/report"
	transport "jeopardy-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Log)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := cfg.Server.Port
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	// question banks come from Postgres when configured, otherwise from files under bank.dir
	var loader app.QuestionSource = ingest.NewDirSource(cfg.Bank.Dir)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var source app.QuestionSource
	if redisClient != nil {
		source = infraredis.NewBankCache(redisClient, loader, bankTTL)
	} else {
		source = memory.NewBankCache(loader, bankTTL)
	}

	var store app.GameRepository
	if redisClient != nil {
		redisStore := infraredis.NewGameStore(redisClient, redisTTL)
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go sweepIdleGames(sweepCtx, redisStore, redisTTL, logger)
		store = redisStore
	} else {
		store = memory.NewGameStore()
	}
	// ended games stay downloadable for one ttl, then are evicted
	service := app.NewGameService(store, source, app.NewPolicySet(nil)).WithRetention(redisTTL)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, report.NewExporter(), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting game server", slog.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func sweepIdleGames(ctx context.Context, store *infraredis.GameStore, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(ctx); n > 0 {
				logger.Info("evicted idle games", slog.Int("count", n))
			}
		}
	}
}
