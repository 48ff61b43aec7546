package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/acme/product-importer/infra"
	"github.com/acme/product-importer/jobs"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/usecases"
	"github.com/acme/product-importer/usecases/worker"
	"github.com/acme/product-importer/utils"
)

func RunTaskQueue() error {
	// This is where we read the environment variables and set up the configuration for the application.
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
	workerConfig := struct {
		loggingFormat     string
		uploadDir         string
		webhookTimeout    time.Duration
		progressEveryRows int
		maxWorkers        int
	}{
		loggingFormat:     utils.GetEnv("LOGGING_FORMAT", "text"),
		uploadDir:         utils.GetEnv("UPLOAD_DIR", "/tmp/product-importer"),
		webhookTimeout:    time.Duration(utils.GetEnv("WEBHOOK_TIMEOUT_SECOND", 5)) * time.Second,
		progressEveryRows: utils.GetEnv("CSV_PROGRESS_EVERY_ROWS", 10000),
		maxWorkers:        utils.GetEnv("TASK_QUEUE_MAX_WORKERS", 5),
	}

	logger := utils.NewLogger(workerConfig.loggingFormat)
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

	workers := river.NewWorkers()
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		FetchPollInterval: 100 * time.Millisecond,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: workerConfig.maxWorkers},
		},
		WorkerMiddleware: []rivertype.WorkerMiddleware{
			jobs.NewLoggerMiddleware(logger),
			jobs.NewRecoveredMiddleware(),
		},
		Workers: workers,
	})
	if err != nil {
		return err
	}

	repositories := repositories.NewRepositories(
		pool,
		repositories.WithRiverClient(riverClient),
		repositories.WithRedisClient(redisClient),
	)

	uc := usecases.NewUsecases(repositories,
		usecases.WithUploadDir(workerConfig.uploadDir),
		usecases.WithWebhookTimeout(workerConfig.webhookTimeout),
		usecases.WithProgressEveryRows(workerConfig.progressEveryRows),
	)

	river.AddWorker(workers, worker.NewCsvImportWorker(uc.NewCsvImportUsecase()))
	webhookUc := uc.NewWebhookUseCase()
	river.AddWorker(workers, worker.NewWebhookTestWorker(webhookUc))

	if err := riverClient.Start(ctx); err != nil {
		return err
	}

	// Teardown sequence
	sigintOrTerm := make(chan os.Signal, 1)
	signal.Notify(sigintOrTerm, syscall.SIGINT, syscall.SIGTERM)

	go cleanStop(ctx, sigintOrTerm, riverClient)

	<-riverClient.Stopped()
	logger.InfoContext(ctx, "River client stopped")

	return nil
}

// cleanStop waits for SIGINT/SIGTERM and tries to stop gracefully, giving
// running imports a chance to finish. A second signal escalates to a hard
// stop that cancels the context of all active jobs.
func cleanStop(ctx context.Context, sigintOrTerm chan os.Signal, riverClient *river.Client[pgx.Tx]) {
	logger := utils.LoggerFromContext(ctx)
	<-sigintOrTerm
	logger.InfoContext(ctx, "Received SIGINT/SIGTERM; initiating soft stop (try to wait for jobs to finish)")

	softStopCtx, softStopCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	defer softStopCtxCancel()

	go func() {
		select {
		case <-sigintOrTerm:
			logger.InfoContext(ctx, "Received SIGINT/SIGTERM again; initiating hard stop (cancel everything)")
			softStopCtxCancel()
		case <-softStopCtx.Done():
			logger.InfoContext(ctx, "Soft stop timeout; initiating hard stop (cancel everything)")
		}
	}()

	err := riverClient.Stop(softStopCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Soft stop failed", "error", err)
		panic(err)
	}
	if err == nil {
		logger.InfoContext(ctx, "Soft stop succeeded")
		return
	}

	hardStopCtx, hardStopCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	defer hardStopCtxCancel()

	err = riverClient.StopAndCancel(hardStopCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		logger.InfoContext(ctx, "Hard stop timeout; ignoring stop procedure and exiting unsafely")
	} else if err != nil {
		panic(err)
	}
}
