package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/acme/product-importer/api"
	"github.com/acme/product-importer/infra"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/usecases"
	"github.com/acme/product-importer/utils"
)

func RunServer() error {
	// This is where we read the environment variables and set up the configuration for the application.
	apiConfig := api.Configuration{
		Env:              utils.GetEnv("ENV", "development"),
		AppName:          "product-importer",
		Port:             utils.GetRequiredEnv[string]("PORT"),
		MaxCsvUploadSize: int64(utils.GetEnv("MAX_CSV_UPLOAD_SIZE_MB", 100)) * 1024 * 1024,
		DefaultTimeout:   time.Duration(utils.GetEnv("DEFAULT_TIMEOUT_SECOND", 60)) * time.Second,
		AllowedOrigins:   splitCommaList(utils.GetEnv("ALLOWED_ORIGINS", "")),
	}
	pgConfig := infra.PgConfig{
		ConnectionString:   utils.GetEnv("PG_CONNECTION_STRING", ""),
		Database:           utils.GetEnv("PG_DATABASE", "products"),
		Hostname:           utils.GetEnv("PG_HOSTNAME", ""),
		Password:           utils.GetEnv("PG_PASSWORD", ""),
		Port:               utils.GetEnv("PG_PORT", "5432"),
		User:               utils.GetEnv("PG_USER", ""),
		MaxPoolConnections: utils.GetEnv("PG_MAX_POOL_SIZE", infra.DEFAULT_MAX_CONNECTIONS),
		SslMode:            utils.GetEnv("PG_SSL_MODE", "prefer"),
	}
	redisConfig := infra.RedisConfig{
		Addr:     utils.GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		Database: utils.GetEnv("REDIS_DATABASE", 0),
	}
	serverConfig := struct {
		loggingFormat string
		uploadDir     string
	}{
		loggingFormat: utils.GetEnv("LOGGING_FORMAT", "text"),
		uploadDir:     utils.GetEnv("UPLOAD_DIR", "/tmp/product-importer"),
	}

	logger := utils.NewLogger(serverConfig.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfig.GetConnectionString(),
		pgConfig.MaxPoolConnections)
	if err != nil {
		return err
	}

	redisClient, err := infra.NewRedisClient(ctx, redisConfig)
	if err != nil {
		return err
	}

	// Insert-only client: the server enqueues jobs, the worker runs them.
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return err
	}

	repositories := repositories.NewRepositories(
		pool,
		repositories.WithRiverClient(riverClient),
		repositories.WithRedisClient(redisClient),
	)

	uc := usecases.NewUsecases(repositories,
		usecases.WithUploadDir(serverConfig.uploadDir),
	)

	router := api.InitRouterMiddlewares(ctx, apiConfig)
	server := api.NewServer(router, apiConfig, uc)

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.InfoContext(ctx, "starting server", slog.String("port", apiConfig.Port))
		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Error while serving the app", "error", err.Error())
		}
		logger.InfoContext(ctx, "server returned")
	}()

	<-notify.Done()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "Error while shutting down the server")
	}
	return nil
}

func splitCommaList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
