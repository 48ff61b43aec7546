package usecases

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/utils"
)

type webhookDispatcher interface {
	Dispatch(ctx context.Context, webhook models.Webhook, payload any) (models.DispatchResult, error)
}

type WebhookUseCase struct {
	transactionFactory  transactionFactory
	webhookRepository   repositories.WebhookRepository
	taskQueueRepository repositories.TaskQueueRepository
	deliveryService     webhookDispatcher
}

func (uc WebhookUseCase) ListWebhooks(ctx context.Context) ([]models.Webhook, error) {
	return uc.webhookRepository.ListWebhooks(ctx, uc.transactionFactory.GetExecutor())
}

func (uc WebhookUseCase) GetWebhook(ctx context.Context, webhookId int64) (models.Webhook, error) {
	return uc.webhookRepository.GetWebhookById(ctx, uc.transactionFactory.GetExecutor(), webhookId)
}

func (uc WebhookUseCase) CreateWebhook(ctx context.Context, input models.CreateWebhookInput) (models.Webhook, error) {
	if err := validateWebhookUrl(input.Url); err != nil {
		return models.Webhook{}, err
	}
	return uc.webhookRepository.CreateWebhook(ctx, uc.transactionFactory.GetExecutor(), input)
}

func (uc WebhookUseCase) UpdateWebhook(
	ctx context.Context,
	webhookId int64,
	input models.UpdateWebhookInput,
) (models.Webhook, error) {
	if input.Url != nil {
		if err := validateWebhookUrl(*input.Url); err != nil {
			return models.Webhook{}, err
		}
	}
	return uc.webhookRepository.UpdateWebhook(ctx, uc.transactionFactory.GetExecutor(), webhookId, input)
}

func (uc WebhookUseCase) DeleteWebhook(ctx context.Context, webhookId int64) error {
	return uc.webhookRepository.DeleteWebhook(ctx, uc.transactionFactory.GetExecutor(), webhookId)
}

// TriggerTestNotification enqueues an asynchronous test delivery for the
// webhook. The endpoint is only checked for existence here, the actual POST
// happens on the task queue.
func (uc WebhookUseCase) TriggerTestNotification(ctx context.Context, webhookId int64) error {
	exec := uc.transactionFactory.GetExecutor()
	if _, err := uc.webhookRepository.GetWebhookById(ctx, exec, webhookId); err != nil {
		return err
	}
	return uc.taskQueueRepository.EnqueueWebhookTestTask(ctx, webhookId)
}

// SendTestNotification is the queue-side counterpart of
// TriggerTestNotification. A webhook deleted between enqueue and execution is
// not an error, the delivery is simply dropped.
func (uc WebhookUseCase) SendTestNotification(ctx context.Context, webhookId int64) error {
	logger := utils.LoggerFromContext(ctx)

	webhook, err := uc.webhookRepository.GetWebhookById(ctx, uc.transactionFactory.GetExecutor(), webhookId)
	if errors.Is(err, models.NotFoundError) {
		logger.InfoContext(ctx, "Webhook was deleted before the test notification ran",
			"webhook_id", webhookId)
		return nil
	} else if err != nil {
		return err
	}

	result, err := uc.deliveryService.Dispatch(ctx, webhook, map[string]any{
		"event":      "test",
		"webhook_id": webhook.Id,
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Webhook test notification delivered",
		"webhook_id", webhook.Id,
		"status_code", result.StatusCode,
		"success", result.IsSuccess())
	return nil
}

func validateWebhookUrl(rawUrl string) error {
	parsed, err := url.Parse(rawUrl)
	if err != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.Wrap(models.BadParameterError,
			"webhook url must be an absolute http or https url")
	}
	if strings.TrimSpace(rawUrl) != rawUrl {
		return errors.Wrap(models.BadParameterError, "webhook url must not contain whitespace")
	}
	return nil
}
