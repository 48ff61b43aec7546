package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

const (
	// single attempt for imports: the work is resumed by re-submission, not by
	// blind retries, and the executor's terminal-state guard makes redelivery
	// of an already finished job a no-op anyway
	nbRetriesCsvImport = 1
	nbRetriesWebhook   = 1
)

type TaskQueueRepository interface {
	EnqueueCsvImportTask(ctx context.Context, tx Transaction, jobId string) error
	EnqueueWebhookTestTask(ctx context.Context, webhookId int64) error
}

type riverRepository struct {
	client *river.Client[pgx.Tx]
}

func NewTaskQueueRepository(client *river.Client[pgx.Tx]) TaskQueueRepository {
	return riverRepository{client: client}
}

// EnqueueCsvImportTask inserts the import task in the same transaction that
// creates the job record, so a submitted job is either fully registered and
// queued or neither.
func (r riverRepository) EnqueueCsvImportTask(ctx context.Context, tx Transaction, jobId string) error {
	res, err := r.client.InsertTx(ctx, tx.RawTx(), models.CsvImportArgs{
		JobId: jobId,
	}, &river.InsertOpts{
		MaxAttempts: nbRetriesCsvImport,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return err
	}
	logger := utils.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "Enqueued csv import task", "job_id", jobId, "river_job_id", res.Job.ID)
	return nil
}

func (r riverRepository) EnqueueWebhookTestTask(ctx context.Context, webhookId int64) error {
	res, err := r.client.Insert(ctx, models.WebhookTestArgs{
		WebhookId: webhookId,
	}, &river.InsertOpts{
		MaxAttempts: nbRetriesWebhook,
	})
	if err != nil {
		return err
	}
	logger := utils.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "Enqueued webhook test task", "webhook_id", webhookId, "river_job_id", res.Job.ID)
	return nil
}
