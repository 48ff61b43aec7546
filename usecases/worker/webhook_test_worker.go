package worker

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/acme/product-importer/models"
)

const WEBHOOK_TEST_TIMEOUT = 30 * time.Second

type WebhookTestUsecase interface {
	SendTestNotification(ctx context.Context, webhookId int64) error
}

type WebhookTestWorker struct {
	river.WorkerDefaults[models.WebhookTestArgs]

	webhookUsecase WebhookTestUsecase
}

func NewWebhookTestWorker(webhookUsecase WebhookTestUsecase) *WebhookTestWorker {
	return &WebhookTestWorker{
		webhookUsecase: webhookUsecase,
	}
}

func (w *WebhookTestWorker) Timeout(job *river.Job[models.WebhookTestArgs]) time.Duration {
	return WEBHOOK_TEST_TIMEOUT
}

func (w *WebhookTestWorker) Work(ctx context.Context, job *river.Job[models.WebhookTestArgs]) error {
	return w.webhookUsecase.SendTestNotification(ctx, job.Args.WebhookId)
}
