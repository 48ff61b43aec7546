package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories/dbmodels"
)

type WebhookRepository interface {
	ListWebhooks(ctx context.Context, exec Executor) ([]models.Webhook, error)
	GetWebhookById(ctx context.Context, exec Executor, webhookId int64) (models.Webhook, error)
	CreateWebhook(ctx context.Context, exec Executor, input models.CreateWebhookInput) (models.Webhook, error)
	UpdateWebhook(ctx context.Context, exec Executor, webhookId int64,
		input models.UpdateWebhookInput) (models.Webhook, error)
	DeleteWebhook(ctx context.Context, exec Executor, webhookId int64) error
}

type WebhookRepositoryPostgresql struct{}

func (repo WebhookRepositoryPostgresql) ListWebhooks(
	ctx context.Context,
	exec Executor,
) ([]models.Webhook, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectWebhookColumn...).
			From(dbmodels.TABLE_WEBHOOKS).
			OrderBy("id DESC"),
		dbmodels.AdaptWebhook,
	)
}

func (repo WebhookRepositoryPostgresql) GetWebhookById(
	ctx context.Context,
	exec Executor,
	webhookId int64,
) (models.Webhook, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectWebhookColumn...).
			From(dbmodels.TABLE_WEBHOOKS).
			Where(squirrel.Eq{"id": webhookId}),
		dbmodels.AdaptWebhook,
	)
}

func (repo WebhookRepositoryPostgresql) CreateWebhook(
	ctx context.Context,
	exec Executor,
	input models.CreateWebhookInput,
) (models.Webhook, error) {
	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_WEBHOOKS).
		Columns("url", "event_types").
		Values(input.Url, input.EventTypes)
	if input.Enabled != nil {
		query = NewQueryBuilder().
			Insert(dbmodels.TABLE_WEBHOOKS).
			Columns("url", "event_types", "enabled").
			Values(input.Url, input.EventTypes, *input.Enabled)
	}

	return SqlToModel(
		ctx,
		exec,
		query.Suffix("RETURNING "+columnList(dbmodels.SelectWebhookColumn)),
		dbmodels.AdaptWebhook,
	)
}

func (repo WebhookRepositoryPostgresql) UpdateWebhook(
	ctx context.Context,
	exec Executor,
	webhookId int64,
	input models.UpdateWebhookInput,
) (models.Webhook, error) {
	query := NewQueryBuilder().
		Update(dbmodels.TABLE_WEBHOOKS).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": webhookId})

	if input.Url != nil {
		query = query.Set("url", *input.Url)
	}
	if input.EventTypes != nil {
		query = query.Set("event_types", *input.EventTypes)
	}
	if input.Enabled != nil {
		query = query.Set("enabled", *input.Enabled)
	}

	return SqlToModel(
		ctx,
		exec,
		query.Suffix("RETURNING "+columnList(dbmodels.SelectWebhookColumn)),
		dbmodels.AdaptWebhook,
	)
}

func (repo WebhookRepositoryPostgresql) DeleteWebhook(
	ctx context.Context,
	exec Executor,
	webhookId int64,
) error {
	sql, args, err := NewQueryBuilder().
		Delete(dbmodels.TABLE_WEBHOOKS).
		Where(squirrel.Eq{"id": webhookId}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "error deleting webhook")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.NotFoundError, "no webhook with id %d", webhookId)
	}
	return nil
}
