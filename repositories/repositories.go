package repositories

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
)

type Repositories struct {
	ExecutorGetter            ExecutorGetter
	ProductRepository         ProductRepository
	WebhookRepository         WebhookRepository
	ImportJobRepository       ImportJobRepository
	ProductImportRepository   ProductImportRepository
	TaskQueueRepository       TaskQueueRepository
	ProgressChannelRepository ProgressChannelRepository
}

type Option func(*options)

type options struct {
	riverClient *river.Client[pgx.Tx]
	redisClient *redis.Client
}

func WithRiverClient(client *river.Client[pgx.Tx]) Option {
	return func(o *options) {
		o.riverClient = client
	}
}

func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

func NewRepositories(pool *pgxpool.Pool, opts ...Option) Repositories {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	repositories := Repositories{
		ExecutorGetter:          NewExecutorGetter(pool),
		ProductRepository:       ProductRepositoryPostgresql{},
		WebhookRepository:       WebhookRepositoryPostgresql{},
		ImportJobRepository:     ImportJobRepositoryPostgresql{},
		ProductImportRepository: ProductImportRepositoryPostgresql{},
	}
	if o.riverClient != nil {
		repositories.TaskQueueRepository = NewTaskQueueRepository(o.riverClient)
	}
	if o.redisClient != nil {
		repositories.ProgressChannelRepository = NewRedisProgressChannel(o.redisClient)
	}
	return repositories
}
