package usecases

import (
	"time"

	"github.com/acme/product-importer/repositories"
)

type Usecases struct {
	Repositories      repositories.Repositories
	uploadDir         string
	webhookTimeout    time.Duration
	progressEveryRows int
}

type Option func(*options)

type options struct {
	uploadDir         string
	webhookTimeout    time.Duration
	progressEveryRows int
}

func WithUploadDir(dir string) Option {
	return func(o *options) {
		o.uploadDir = dir
	}
}

func WithWebhookTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.webhookTimeout = timeout
	}
}

func WithProgressEveryRows(rows int) Option {
	return func(o *options) {
		o.progressEveryRows = rows
	}
}

func NewUsecases(repositories repositories.Repositories, opts ...Option) Usecases {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.uploadDir == "" {
		o.uploadDir = "/tmp/product-importer"
	}
	if o.progressEveryRows == 0 {
		o.progressEveryRows = defaultProgressEveryRows
	}
	return Usecases{
		Repositories:      repositories,
		uploadDir:         o.uploadDir,
		webhookTimeout:    o.webhookTimeout,
		progressEveryRows: o.progressEveryRows,
	}
}

func (usecases *Usecases) NewProductUseCase() ProductUseCase {
	return ProductUseCase{
		transactionFactory: usecases.Repositories.ExecutorGetter,
		productRepository:  usecases.Repositories.ProductRepository,
	}
}

func (usecases *Usecases) NewWebhookUseCase() WebhookUseCase {
	return WebhookUseCase{
		transactionFactory:  usecases.Repositories.ExecutorGetter,
		webhookRepository:   usecases.Repositories.WebhookRepository,
		taskQueueRepository: usecases.Repositories.TaskQueueRepository,
		deliveryService:     NewWebhookDeliveryService(usecases.webhookTimeout),
	}
}

func (usecases *Usecases) NewUploadUseCase() UploadUseCase {
	return UploadUseCase{
		transactionFactory:  usecases.Repositories.ExecutorGetter,
		importJobRepository: usecases.Repositories.ImportJobRepository,
		taskQueueRepository: usecases.Repositories.TaskQueueRepository,
		progressChannel:     usecases.Repositories.ProgressChannelRepository,
		uploadDir:           usecases.uploadDir,
	}
}

func (usecases *Usecases) NewCsvImportUsecase() *CsvImportUsecase {
	return &CsvImportUsecase{
		transactionFactory:      usecases.Repositories.ExecutorGetter,
		importJobRepository:     usecases.Repositories.ImportJobRepository,
		schemaReader:            usecases.Repositories.ProductRepository,
		productImportRepository: usecases.Repositories.ProductImportRepository,
		progressChannel:         usecases.Repositories.ProgressChannelRepository,
		progressEveryRows:       usecases.progressEveryRows,
	}
}
